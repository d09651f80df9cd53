package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaguehq/team-workspace/models"
	"github.com/leaguehq/team-workspace/slug"
	"github.com/leaguehq/team-workspace/store"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func newTeamFixture(t *testing.T) (store.DocumentStore, TeamService) {
	t.Helper()
	docs := store.NewMemoryDocumentStore()
	return docs, NewTeamService(docs, slug.NewResolver(docs), nil)
}

func TestCreateTeam(t *testing.T) {
	docs, ts := newTeamFixture(t)
	ctx := context.Background()

	team, err := ts.CreateTeam(ctx, CreateTeamInput{
		Name:    "  Blazing Foxes  ",
		OwnerID: "user-1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, team.ID)
	assert.Equal(t, "Blazing Foxes", team.Name)
	assert.Equal(t, "blazing-foxes", team.Slug)
	assert.Equal(t, "user-1", team.OwnerID)
	assert.Equal(t, models.StatusDraft, team.Status)
	assert.Equal(t, 0, team.Completion.Total)

	// Владелец получает членство с детерминированным идентификатором.
	rec, err := docs.Get(ctx, store.CollectionMemberships, models.MembershipID(team.ID, "user-1"))
	require.NoError(t, err)
	var membership models.Membership
	require.NoError(t, rec.Decode(&membership))
	assert.Equal(t, models.MembershipRoleOwner, membership.Role)
	assert.True(t, membership.CanEdit)
}

func TestCreateTeamRequiresName(t *testing.T) {
	_, ts := newTeamFixture(t)

	_, err := ts.CreateTeam(context.Background(), CreateTeamInput{Name: "   ", OwnerID: "user-1"})
	assert.ErrorIs(t, err, ErrTeamNameRequired)
}

func TestCreateTeamRejectsMalformedHexColor(t *testing.T) {
	_, ts := newTeamFixture(t)
	ctx := context.Background()

	// Краткие и 8-значные формы hex не проходят: цвет бренда — строго #RRGGBB.
	for _, color := range []string{"#F00", "#11223344", "not-a-color"} {
		_, err := ts.CreateTeam(ctx, CreateTeamInput{
			Name:     "Blazing Foxes",
			OwnerID:  "user-1",
			BrandKit: &models.BrandKit{HomePrimary: strPtr(color)},
		})
		assert.ErrorIs(t, err, ErrValidationFailed, color)
		assert.ErrorIs(t, err, ErrInvalidHexColor, color)
	}

	team, err := ts.CreateTeam(ctx, CreateTeamInput{
		Name:     "Blazing Foxes",
		OwnerID:  "user-1",
		BrandKit: &models.BrandKit{HomePrimary: strPtr("#FF0000")},
	})
	require.NoError(t, err)

	// Через частичное обновление невалидный цвет тоже не проходит.
	_, err = ts.UpdateTeam(ctx, team.ID, UpdateTeamInput{
		BrandKit: &models.BrandKit{HomePrimary: strPtr("#ABC")},
	}, "user-1")
	assert.ErrorIs(t, err, ErrInvalidHexColor)
}

func TestCreateTeamSlugCollision(t *testing.T) {
	_, ts := newTeamFixture(t)
	ctx := context.Background()

	first, err := ts.CreateTeam(ctx, CreateTeamInput{Name: "Blazing Foxes", OwnerID: "user-1"})
	require.NoError(t, err)
	second, err := ts.CreateTeam(ctx, CreateTeamInput{Name: "Blazing Foxes", OwnerID: "user-2"})
	require.NoError(t, err)

	assert.Equal(t, "blazing-foxes", first.Slug)
	assert.Equal(t, "blazing-foxes-1", second.Slug)
}

func TestUpdateTeamRenameKeepsOwnSlug(t *testing.T) {
	_, ts := newTeamFixture(t)
	ctx := context.Background()

	team, err := ts.CreateTeam(ctx, CreateTeamInput{Name: "Blazing Foxes", OwnerID: "user-1"})
	require.NoError(t, err)

	// Переименование в то же имя не получает суффикс из-за себя самого.
	updated, err := ts.UpdateTeam(ctx, team.ID, UpdateTeamInput{Name: strPtr("Blazing Foxes")}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "blazing-foxes", updated.Slug)

	updated, err = ts.UpdateTeam(ctx, team.ID, UpdateTeamInput{Name: strPtr("Iron Wolves")}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Iron Wolves", updated.Name)
	assert.Equal(t, "iron-wolves", updated.Slug)
}

func TestUpdateTeamRecomputesCompletionAndStatus(t *testing.T) {
	_, ts := newTeamFixture(t)
	ctx := context.Background()

	team, err := ts.CreateTeam(ctx, CreateTeamInput{Name: "Blazing Foxes", OwnerID: "user-1"})
	require.NoError(t, err)

	updated, err := ts.UpdateTeam(ctx, team.ID, UpdateTeamInput{
		BrandKit: &models.BrandKit{
			HomePrimary:   strPtr("#FF0000"),
			HomeSecondary: strPtr("#00FF00"),
			AwayPrimary:   strPtr("#0000FF"),
			Accent:        strPtr("#FFD700"),
			FontKey:       "athletic",
			LogoStyleKey:  "shield",
		},
	}, "user-1")
	require.NoError(t, err)

	// 15+10+10+10+15+15 = 75 — выше порога brand-only при пустом ростере.
	assert.Equal(t, 75, updated.Completion.Brand)
	assert.Equal(t, models.StatusBrandOnly, updated.Status)

	// Сброс брендкита возвращает черновик.
	updated, err = ts.UpdateTeam(ctx, team.ID, UpdateTeamInput{BrandKit: &models.BrandKit{}}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Completion.Brand)
	assert.Equal(t, models.StatusDraft, updated.Status)
}

func TestUpdateTeamReadyIsOwnerOnly(t *testing.T) {
	docs, ts := newTeamFixture(t)
	ctx := context.Background()

	team, err := ts.CreateTeam(ctx, CreateTeamInput{Name: "Blazing Foxes", OwnerID: "user-1"})
	require.NoError(t, err)

	// Редактор без владения: членство с правом правки.
	editor := &models.Membership{
		ID:      models.MembershipID(team.ID, "user-2"),
		TeamID:  team.ID,
		UserID:  "user-2",
		Role:    models.MembershipRoleMember,
		CanEdit: true,
	}
	require.NoError(t, docs.Put(ctx, store.CollectionMemberships, editor.ID, editor))

	_, err = ts.UpdateTeam(ctx, team.ID, UpdateTeamInput{Ready: boolPtr(true)}, "user-2")
	assert.ErrorIs(t, err, ErrOwnerActionOnly)

	updated, err := ts.UpdateTeam(ctx, team.ID, UpdateTeamInput{Ready: boolPtr(true)}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReadyForRegistration, updated.Status)

	// Обычные правки редактору доступны.
	updated, err = ts.UpdateTeam(ctx, team.ID, UpdateTeamInput{ContactEmail: strPtr("team@example.com")}, "user-2")
	require.NoError(t, err)
	assert.Equal(t, "team@example.com", updated.ContactEmail)
}

func TestUpdateTeamForbiddenForStrangers(t *testing.T) {
	_, ts := newTeamFixture(t)
	ctx := context.Background()

	team, err := ts.CreateTeam(ctx, CreateTeamInput{Name: "Blazing Foxes", OwnerID: "user-1"})
	require.NoError(t, err)

	_, err = ts.UpdateTeam(ctx, team.ID, UpdateTeamInput{Name: strPtr("Hijacked")}, "stranger")
	assert.ErrorIs(t, err, ErrEditForbidden)
}

func TestGetTeamBySlug(t *testing.T) {
	_, ts := newTeamFixture(t)
	ctx := context.Background()

	team, err := ts.CreateTeam(ctx, CreateTeamInput{Name: "Blazing Foxes", OwnerID: "user-1"})
	require.NoError(t, err)

	found, err := ts.GetTeamBySlug(ctx, "blazing-foxes")
	require.NoError(t, err)
	assert.Equal(t, team.ID, found.ID)

	_, err = ts.GetTeamBySlug(ctx, "missing-slug")
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestListUserTeams(t *testing.T) {
	_, ts := newTeamFixture(t)
	ctx := context.Background()

	_, err := ts.CreateTeam(ctx, CreateTeamInput{Name: "Blazing Foxes", OwnerID: "user-1"})
	require.NoError(t, err)
	_, err = ts.CreateTeam(ctx, CreateTeamInput{Name: "Iron Wolves", OwnerID: "user-1"})
	require.NoError(t, err)
	_, err = ts.CreateTeam(ctx, CreateTeamInput{Name: "Foreign Team", OwnerID: "user-2"})
	require.NoError(t, err)

	teams, err := ts.ListUserTeams(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, teams, 2)
}
