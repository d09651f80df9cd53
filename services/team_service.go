package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/leaguehq/team-workspace/completion"
	"github.com/leaguehq/team-workspace/models"
	"github.com/leaguehq/team-workspace/slug"
	"github.com/leaguehq/team-workspace/store"
)

// Порог бренд-оценки, после которого пустая по ростеру команда считается
// "brand-only", а не черновиком.
const brandOnlyThreshold = 60

type CreateTeamInput struct {
	Name         string           `json:"name"`
	ContactEmail string           `json:"contact_email"`
	Public       bool             `json:"public"`
	BrandKit     *models.BrandKit `json:"brand_kit"`
	Identity     *models.Identity `json:"identity"`

	OwnerID string `json:"-"` // из сессии, не из тела запроса
}

// UpdateTeamInput — частичное обновление: nil-поля не трогаются.
// BrandKit и Identity заменяются целиком (состояние формы).
type UpdateTeamInput struct {
	Name         *string          `json:"name"`
	ContactEmail *string          `json:"contact_email"`
	Public       *bool            `json:"public"`
	BrandKit     *models.BrandKit `json:"brand_kit"`
	Identity     *models.Identity `json:"identity"`
	Ready        *bool            `json:"ready"`
}

type TeamService interface {
	CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error)
	GetTeamByID(ctx context.Context, id string) (*models.Team, error)
	GetTeamBySlug(ctx context.Context, teamSlug string) (*models.Team, error)
	UpdateTeam(ctx context.Context, teamID string, input UpdateTeamInput, currentUserID string) (*models.Team, error)
	ListUserTeams(ctx context.Context, userID string) ([]*models.Team, error)
	CanEdit(ctx context.Context, teamID, userID string) (bool, error)
}

type teamService struct {
	docs     store.DocumentStore
	resolver *slug.Resolver
	logger   *slog.Logger
}

func NewTeamService(docs store.DocumentStore, resolver *slug.Resolver, logger *slog.Logger) TeamService {
	if logger == nil {
		logger = slog.Default()
	}
	return &teamService{docs: docs, resolver: resolver, logger: logger}
}

// CreateTeam создает команду при первом сохранении любых данных: слаг
// выводится из имени и уникализируется, владелец получает членство с
// детерминированным идентификатором, сводка заполненности считается сразу.
func (s *teamService) CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrTeamNameRequired
	}
	if input.OwnerID == "" {
		return nil, ErrForbiddenOperation
	}

	team := &models.Team{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(input.Name),
		OwnerID:      input.OwnerID,
		ContactEmail: strings.TrimSpace(input.ContactEmail),
		Public:       input.Public,
	}
	if input.BrandKit != nil {
		team.BrandKit = *input.BrandKit
	}
	if input.Identity != nil {
		team.Identity = *input.Identity
	}
	if err := validateStruct(team); err != nil {
		return nil, err
	}

	resolved, err := s.resolver.ResolveUnique(ctx, slug.Slugify(team.Name), "")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve team slug: %w", err)
	}
	team.Slug = resolved

	team.Completion = completion.Score(team.BrandKit, team.Identity, nil)
	team.Status = deriveStatus(team.Completion, 0, false)

	if err := s.docs.Put(ctx, store.CollectionTeams, team.ID, team); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	owner := &models.Membership{
		ID:      models.MembershipID(team.ID, input.OwnerID),
		TeamID:  team.ID,
		UserID:  input.OwnerID,
		Role:    models.MembershipRoleOwner,
		CanEdit: true,
	}
	if err := s.docs.Put(ctx, store.CollectionMemberships, owner.ID, owner); err != nil {
		return nil, fmt.Errorf("failed to create owner membership: %w", err)
	}

	s.logger.Info("team created",
		slog.String("team_id", team.ID),
		slog.String("slug", team.Slug),
		slog.String("owner_id", input.OwnerID))

	return s.GetTeamByID(ctx, team.ID)
}

func (s *teamService) GetTeamByID(ctx context.Context, id string) (*models.Team, error) {
	rec, err := s.docs.Get(ctx, store.CollectionTeams, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %s: %w", id, err)
	}
	return decodeTeam(rec)
}

func (s *teamService) GetTeamBySlug(ctx context.Context, teamSlug string) (*models.Team, error) {
	records, err := s.docs.Query(ctx, store.CollectionTeams,
		store.Filters{"slug": teamSlug}, store.OrderCreatedDesc, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to query team by slug: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrTeamNotFound
	}
	return decodeTeam(&records[0])
}

// UpdateTeam применяет частичное обновление. Переименование заново выводит
// и уникализирует слаг, исключая собственную запись команды из проверки
// коллизий: no-op переименование не должно получить суффикс из-за себя
// самого. Сводка заполненности и статус пересчитываются при каждой правке.
func (s *teamService) UpdateTeam(ctx context.Context, teamID string, input UpdateTeamInput, currentUserID string) (*models.Team, error) {
	team, err := s.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, err
	}

	allowed, err := canEditTeam(ctx, s.docs, team, currentUserID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrEditForbidden
	}

	fields := make(map[string]any)

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrTeamNameRequired
		}
		if name != team.Name {
			resolved, err := s.resolver.ResolveUnique(ctx, slug.Slugify(name), team.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve team slug: %w", err)
			}
			team.Name = name
			team.Slug = resolved
			fields["name"] = name
			fields["slug"] = resolved
		}
	}
	if input.ContactEmail != nil {
		team.ContactEmail = strings.TrimSpace(*input.ContactEmail)
		fields["contact_email"] = team.ContactEmail
	}
	if input.Public != nil {
		team.Public = *input.Public
		fields["public"] = team.Public
	}
	if input.BrandKit != nil {
		team.BrandKit = *input.BrandKit
		fields["brand_kit"] = team.BrandKit
	}
	if input.Identity != nil {
		team.Identity = *input.Identity
		fields["identity"] = team.Identity
	}

	if err := validateStruct(team); err != nil {
		return nil, err
	}

	roster, err := loadRoster(ctx, s.docs, team.ID)
	if err != nil {
		return nil, err
	}

	ready := team.Status == models.StatusReadyForRegistration
	if input.Ready != nil {
		if *input.Ready && team.OwnerID != currentUserID {
			return nil, ErrOwnerActionOnly
		}
		ready = *input.Ready
	}

	team.Completion = completion.Score(team.BrandKit, team.Identity, roster)
	team.Status = deriveStatus(team.Completion, len(roster), ready)
	fields["completion"] = team.Completion
	fields["status"] = team.Status

	if err := s.docs.Update(ctx, store.CollectionTeams, team.ID, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to update team %s: %w", team.ID, err)
	}

	return s.GetTeamByID(ctx, team.ID)
}

func (s *teamService) ListUserTeams(ctx context.Context, userID string) ([]*models.Team, error) {
	records, err := s.docs.Query(ctx, store.CollectionMemberships,
		store.Filters{"user_id": userID}, store.OrderCreatedDesc, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}

	teams := make([]*models.Team, 0, len(records))
	for i := range records {
		var membership models.Membership
		if err := records[i].Decode(&membership); err != nil {
			return nil, fmt.Errorf("failed to decode membership: %w", err)
		}
		team, err := s.GetTeamByID(ctx, membership.TeamID)
		if err != nil {
			if errors.Is(err, ErrTeamNotFound) {
				continue
			}
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, nil
}

func (s *teamService) CanEdit(ctx context.Context, teamID, userID string) (bool, error) {
	team, err := s.GetTeamByID(ctx, teamID)
	if err != nil {
		return false, err
	}
	return canEditTeam(ctx, s.docs, team, userID)
}

// deriveStatus: готовность к регистрации выставляется владельцем явно;
// иначе достаточно заполненный бренд без ростера — "brand-only",
// все остальное — черновик.
func deriveStatus(summary models.CompletionSummary, rosterSize int, ready bool) models.TeamStatus {
	if ready {
		return models.StatusReadyForRegistration
	}
	if summary.Brand >= brandOnlyThreshold && rosterSize == 0 {
		return models.StatusBrandOnly
	}
	return models.StatusDraft
}
