package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leaguehq/team-workspace/completion"
	"github.com/leaguehq/team-workspace/models"
	"github.com/leaguehq/team-workspace/store"
)

type AddMemberInput struct {
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	Sport     string     `json:"sport"`
	BirthDate *time.Time `json:"birth_date"`
}

type UpdateMemberInput struct {
	FirstName *string    `json:"first_name"`
	LastName  *string    `json:"last_name"`
	Email     *string    `json:"email"`
	Role      *string    `json:"role"`
	Sport     *string    `json:"sport"`
	BirthDate *time.Time `json:"birth_date"`
}

type RosterService interface {
	AddMember(ctx context.Context, teamID string, input AddMemberInput, currentUserID string) (*models.TeamMember, error)
	UpdateMember(ctx context.Context, teamID, memberID string, input UpdateMemberInput, currentUserID string) (*models.TeamMember, error)
	RemoveMember(ctx context.Context, teamID, memberID string, currentUserID string) error
	ListMembers(ctx context.Context, teamID string) ([]models.TeamMember, error)
}

type rosterService struct {
	docs   store.DocumentStore
	logger *slog.Logger
}

func NewRosterService(docs store.DocumentStore, logger *slog.Logger) RosterService {
	if logger == nil {
		logger = slog.Default()
	}
	return &rosterService{docs: docs, logger: logger}
}

func (s *rosterService) AddMember(ctx context.Context, teamID string, input AddMemberInput, currentUserID string) (*models.TeamMember, error) {
	team, err := s.requireEditable(ctx, teamID, currentUserID)
	if err != nil {
		return nil, err
	}

	role := models.MemberRole(input.Role)
	if !role.Valid() {
		return nil, ErrInvalidMemberRole
	}

	member := &models.TeamMember{
		TeamID:    team.ID,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Email:     strings.TrimSpace(input.Email),
		Role:      role,
		Sport:     strings.TrimSpace(input.Sport),
		BirthDate: input.BirthDate,
	}
	if err := validateStruct(member); err != nil {
		return nil, err
	}

	id, err := s.docs.Create(ctx, store.CollectionMembers, member)
	if err != nil {
		return nil, fmt.Errorf("failed to create roster member: %w", err)
	}
	member.ID = id

	if err := s.refreshCompletion(ctx, team); err != nil {
		return nil, err
	}

	rec, err := s.docs.Get(ctx, store.CollectionMembers, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload roster member: %w", err)
	}
	return decodeMember(rec)
}

func (s *rosterService) UpdateMember(ctx context.Context, teamID, memberID string, input UpdateMemberInput, currentUserID string) (*models.TeamMember, error) {
	team, err := s.requireEditable(ctx, teamID, currentUserID)
	if err != nil {
		return nil, err
	}

	member, err := s.getTeamMember(ctx, team.ID, memberID)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]any)
	if input.FirstName != nil {
		member.FirstName = strings.TrimSpace(*input.FirstName)
		fields["first_name"] = member.FirstName
	}
	if input.LastName != nil {
		member.LastName = strings.TrimSpace(*input.LastName)
		fields["last_name"] = member.LastName
	}
	if input.Email != nil {
		member.Email = strings.TrimSpace(*input.Email)
		fields["email"] = member.Email
	}
	if input.Role != nil {
		role := models.MemberRole(*input.Role)
		if !role.Valid() {
			return nil, ErrInvalidMemberRole
		}
		member.Role = role
		fields["role"] = role
	}
	if input.Sport != nil {
		member.Sport = strings.TrimSpace(*input.Sport)
		fields["sport"] = member.Sport
	}
	if input.BirthDate != nil {
		member.BirthDate = input.BirthDate
		fields["birth_date"] = input.BirthDate
	}
	if len(fields) == 0 {
		return member, nil
	}

	if err := validateStruct(member); err != nil {
		return nil, err
	}

	if err := s.docs.Update(ctx, store.CollectionMembers, memberID, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to update roster member %s: %w", memberID, err)
	}

	if err := s.refreshCompletion(ctx, team); err != nil {
		return nil, err
	}

	rec, err := s.docs.Get(ctx, store.CollectionMembers, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload roster member: %w", err)
	}
	return decodeMember(rec)
}

func (s *rosterService) RemoveMember(ctx context.Context, teamID, memberID string, currentUserID string) error {
	team, err := s.requireEditable(ctx, teamID, currentUserID)
	if err != nil {
		return err
	}

	if _, err := s.getTeamMember(ctx, team.ID, memberID); err != nil {
		return err
	}

	if err := s.docs.Delete(ctx, store.CollectionMembers, memberID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to delete roster member %s: %w", memberID, err)
	}

	return s.refreshCompletion(ctx, team)
}

func (s *rosterService) ListMembers(ctx context.Context, teamID string) ([]models.TeamMember, error) {
	return loadRoster(ctx, s.docs, teamID)
}

func (s *rosterService) requireEditable(ctx context.Context, teamID, userID string) (*models.Team, error) {
	rec, err := s.docs.Get(ctx, store.CollectionTeams, teamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %s: %w", teamID, err)
	}
	team, err := decodeTeam(rec)
	if err != nil {
		return nil, err
	}

	allowed, err := canEditTeam(ctx, s.docs, team, userID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrEditForbidden
	}
	return team, nil
}

// getTeamMember возвращает запись ростера и проверяет принадлежность команде:
// ID из чужой команды не должен читаться и тем более правиться.
func (s *rosterService) getTeamMember(ctx context.Context, teamID, memberID string) (*models.TeamMember, error) {
	rec, err := s.docs.Get(ctx, store.CollectionMembers, memberID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get roster member %s: %w", memberID, err)
	}
	member, err := decodeMember(rec)
	if err != nil {
		return nil, err
	}
	if member.TeamID != teamID {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

// refreshCompletion пересчитывает сводку команды после изменения ростера.
// Total — всегда взвешенный пересчет трех категорий, никогда не авторская
// величина.
func (s *rosterService) refreshCompletion(ctx context.Context, team *models.Team) error {
	roster, err := loadRoster(ctx, s.docs, team.ID)
	if err != nil {
		return err
	}

	summary := completion.Score(team.BrandKit, team.Identity, roster)
	ready := team.Status == models.StatusReadyForRegistration
	status := deriveStatus(summary, len(roster), ready)

	err = s.docs.Update(ctx, store.CollectionTeams, team.ID, map[string]any{
		"completion": summary,
		"status":     status,
	})
	if err != nil {
		return fmt.Errorf("failed to refresh team completion: %w", err)
	}
	return nil
}
