package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/leaguehq/team-workspace/models"
	"github.com/leaguehq/team-workspace/store"
)

// Ожидающие приглашения живут 30 дней, дальше их чистит планировщик.
const inviteTTL = 30 * 24 * time.Hour

type MembershipService interface {
	// InviteByEmail создает ожидающее членство, ключованное по
	// (teamID, hash(email)). Повторное приглашение того же адреса
	// идемпотентно перезаписывает ту же запись.
	InviteByEmail(ctx context.Context, teamID, email string, canEdit bool, currentUserID string) (*models.Membership, error)

	// AcceptInvite превращает ожидающее членство в принятое: запись
	// переключается на детерминированный ключ (teamID, userID).
	AcceptInvite(ctx context.Context, teamID, userID, email string) (*models.Membership, error)

	RevokeMembership(ctx context.Context, teamID, membershipID string, currentUserID string) error
	ListMemberships(ctx context.Context, teamID string) ([]models.Membership, error)

	// PurgeExpiredInvites удаляет просроченные ожидающие приглашения,
	// возвращает число удаленных.
	PurgeExpiredInvites(ctx context.Context) (int, error)
}

type membershipService struct {
	docs   store.DocumentStore
	logger *slog.Logger
}

func NewMembershipService(docs store.DocumentStore, logger *slog.Logger) MembershipService {
	if logger == nil {
		logger = slog.Default()
	}
	return &membershipService{docs: docs, logger: logger}
}

func (s *membershipService) InviteByEmail(ctx context.Context, teamID, email string, canEdit bool, currentUserID string) (*models.Membership, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrInviteEmailRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	team, err := s.requireTeam(ctx, teamID)
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

	membership := &models.Membership{
		ID:          models.PendingMembershipID(teamID, email),
		TeamID:      teamID,
		InviteEmail: email,
		Role:        models.MembershipRoleMember,
		CanEdit:     canEdit,
	}
	if err := s.docs.Put(ctx, store.CollectionMemberships, membership.ID, membership); err != nil {
		return nil, fmt.Errorf("failed to store invite: %w", err)
	}

	s.logger.Info("invite created",
		slog.String("team_id", teamID),
		slog.String("membership_id", membership.ID))

	return s.getMembership(ctx, membership.ID)
}

func (s *membershipService) AcceptInvite(ctx context.Context, teamID, userID, email string) (*models.Membership, error) {
	if userID == "" {
		return nil, ErrForbiddenOperation
	}

	acceptedID := models.MembershipID(teamID, userID)
	if existing, err := s.getMembership(ctx, acceptedID); err == nil && existing != nil {
		return nil, ErrAlreadyMember
	}

	pendingID := models.PendingMembershipID(teamID, email)
	pending, err := s.getMembership(ctx, pendingID)
	if err != nil {
		if errors.Is(err, ErrMembershipNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}

	accepted := &models.Membership{
		ID:      acceptedID,
		TeamID:  teamID,
		UserID:  userID,
		Role:    pending.Role,
		CanEdit: pending.CanEdit,
	}
	if err := s.docs.Put(ctx, store.CollectionMemberships, acceptedID, accepted); err != nil {
		return nil, fmt.Errorf("failed to accept invite: %w", err)
	}

	// Ожидающая запись больше не нужна. Пользователь уже в команде, поэтому
	// сбой удаления только логируем: просроченные хвосты подчистит планировщик.
	if err := s.docs.Delete(ctx, store.CollectionMemberships, pendingID); err != nil {
		s.logger.Warn("failed to delete pending invite",
			slog.String("membership_id", pendingID), slog.Any("error", err))
	}

	return s.getMembership(ctx, acceptedID)
}

func (s *membershipService) RevokeMembership(ctx context.Context, teamID, membershipID string, currentUserID string) error {
	team, err := s.requireTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if team.OwnerID != currentUserID {
		return ErrOwnerActionOnly
	}

	membership, err := s.getMembership(ctx, membershipID)
	if err != nil {
		return err
	}
	if membership.TeamID != teamID {
		return ErrMembershipNotFound
	}
	if membership.UserID == team.OwnerID {
		return ErrForbiddenOperation
	}

	if err := s.docs.Delete(ctx, store.CollectionMemberships, membershipID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMembershipNotFound
		}
		return fmt.Errorf("failed to delete membership %s: %w", membershipID, err)
	}
	return nil
}

func (s *membershipService) ListMemberships(ctx context.Context, teamID string) ([]models.Membership, error) {
	records, err := s.docs.Query(ctx, store.CollectionMemberships,
		store.Filters{"team_id": teamID}, store.OrderCreatedAsc, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}

	memberships := make([]models.Membership, 0, len(records))
	for i := range records {
		var m models.Membership
		if err := records[i].Decode(&m); err != nil {
			return nil, fmt.Errorf("failed to decode membership: %w", err)
		}
		m.ID = records[i].ID
		m.CreatedAt = records[i].CreatedAt
		m.UpdatedAt = records[i].UpdatedAt
		memberships = append(memberships, m)
	}
	return memberships, nil
}

func (s *membershipService) PurgeExpiredInvites(ctx context.Context) (int, error) {
	records, err := s.docs.Query(ctx, store.CollectionMemberships,
		store.Filters{"user_id": ""}, store.OrderCreatedAsc, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to query pending invites: %w", err)
	}

	cutoff := time.Now().Add(-inviteTTL)
	purged := 0
	for i := range records {
		if records[i].CreatedAt.After(cutoff) {
			continue
		}
		if err := s.docs.Delete(ctx, store.CollectionMemberships, records[i].ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return purged, fmt.Errorf("failed to purge invite %s: %w", records[i].ID, err)
		}
		purged++
	}
	return purged, nil
}

func (s *membershipService) requireTeam(ctx context.Context, teamID string) (*models.Team, error) {
	rec, err := s.docs.Get(ctx, store.CollectionTeams, teamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %s: %w", teamID, err)
	}
	return decodeTeam(rec)
}

func (s *membershipService) getMembership(ctx context.Context, id string) (*models.Membership, error) {
	rec, err := s.docs.Get(ctx, store.CollectionMemberships, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to get membership %s: %w", id, err)
	}

	membership := &models.Membership{}
	if err := rec.Decode(membership); err != nil {
		return nil, fmt.Errorf("failed to decode membership: %w", err)
	}
	membership.ID = rec.ID
	membership.CreatedAt = rec.CreatedAt
	membership.UpdatedAt = rec.UpdatedAt
	return membership, nil
}
