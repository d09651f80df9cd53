package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/leaguehq/team-workspace/identity"
	"github.com/leaguehq/team-workspace/models"
	"github.com/leaguehq/team-workspace/store"
)

// Один валидатор на пакет; правила заданы тегами validate на моделях.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Встроенный тег hexcolor пропускает краткие формы #RGB/#RGBA/#RRGGBBAA,
	// а цвета бренда — строго 6-значный hex.
	if err := v.RegisterValidation("hexcolor6", func(fl validator.FieldLevel) bool {
		return identity.ValidHex(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if fe.Tag() == "hexcolor6" {
				return fmt.Errorf("%w: %w: %s", ErrValidationFailed, ErrInvalidHexColor, fe.Field())
			}
		}
	}
	return fmt.Errorf("%w: %w", ErrValidationFailed, err)
}

// canEditTeam проверяет право правки: владелец команды или членство с
// can_edit. Благодаря детерминированным идентификаторам членства это два
// точечных чтения, а не запрос.
func canEditTeam(ctx context.Context, docs store.DocumentStore, team *models.Team, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	if team.OwnerID == userID {
		return true, nil
	}

	rec, err := docs.Get(ctx, store.CollectionMemberships, models.MembershipID(team.ID, userID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check membership: %w", err)
	}

	var membership models.Membership
	if err := rec.Decode(&membership); err != nil {
		return false, fmt.Errorf("failed to decode membership: %w", err)
	}
	return membership.CanEdit, nil
}

func decodeTeam(rec *store.Record) (*models.Team, error) {
	team := &models.Team{}
	if err := rec.Decode(team); err != nil {
		return nil, fmt.Errorf("failed to decode team: %w", err)
	}
	team.ID = rec.ID
	team.CreatedAt = rec.CreatedAt
	team.UpdatedAt = rec.UpdatedAt
	return team, nil
}

func decodeMember(rec *store.Record) (*models.TeamMember, error) {
	member := &models.TeamMember{}
	if err := rec.Decode(member); err != nil {
		return nil, fmt.Errorf("failed to decode roster member: %w", err)
	}
	member.ID = rec.ID
	member.CreatedAt = rec.CreatedAt
	member.UpdatedAt = rec.UpdatedAt
	return member, nil
}

func loadRoster(ctx context.Context, docs store.DocumentStore, teamID string) ([]models.TeamMember, error) {
	records, err := docs.Query(ctx, store.CollectionMembers,
		store.Filters{"team_id": teamID}, store.OrderCreatedAsc, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	members := make([]models.TeamMember, 0, len(records))
	for i := range records {
		member, err := decodeMember(&records[i])
		if err != nil {
			return nil, err
		}
		members = append(members, *member)
	}
	return members, nil
}
