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

func newMediaFixture(t *testing.T) (store.DocumentStore, string, MediaService) {
	t.Helper()
	docs := store.NewMemoryDocumentStore()
	ts := NewTeamService(docs, slug.NewResolver(docs), nil)

	team, err := ts.CreateTeam(context.Background(), CreateTeamInput{Name: "Blazing Foxes", OwnerID: "owner"})
	require.NoError(t, err)

	return docs, team.ID, NewMediaService(docs, nil, nil)
}

func TestCreateMediaItem(t *testing.T) {
	_, teamID, ms := newMediaFixture(t)
	ctx := context.Background()

	item, err := ms.CreateItem(ctx, teamID, CreateMediaItemInput{
		Type:     "note",
		Title:    "Tactics",
		Content:  "press high",
		Position: &models.Position{X: 100, Y: 50},
	}, "owner")
	require.NoError(t, err)

	assert.NotEmpty(t, item.ID)
	assert.Equal(t, teamID, item.TeamID)
	assert.Equal(t, models.MediaTypeNote, item.Type)
	assert.Equal(t, "owner", item.CreatedBy)
	require.NotNil(t, item.Position)
	assert.Equal(t, models.Position{X: 100, Y: 50}, *item.Position)
}

func TestCreateMediaItemRules(t *testing.T) {
	_, teamID, ms := newMediaFixture(t)
	ctx := context.Background()

	_, err := ms.CreateItem(ctx, teamID, CreateMediaItemInput{Type: "hologram", Title: "x"}, "owner")
	assert.ErrorIs(t, err, ErrInvalidMediaType)

	// Стикеры и комментарии живут в статичной сетке: позиция запрещена.
	_, err = ms.CreateItem(ctx, teamID, CreateMediaItemInput{
		Type:     "sticky-note",
		Title:    "note",
		Position: &models.Position{X: 1, Y: 1},
	}, "owner")
	assert.ErrorIs(t, err, ErrStaticItemPositioned)

	_, err = ms.CreateItem(ctx, teamID, CreateMediaItemInput{
		Type:       "comment",
		Title:      "remark",
		AttachedTo: "missing-item",
	}, "owner")
	assert.ErrorIs(t, err, ErrAttachTargetInvalid)

	_, err = ms.CreateItem(ctx, teamID, CreateMediaItemInput{Type: "note", Title: "x"}, "stranger")
	assert.ErrorIs(t, err, ErrEditForbidden)
}

func TestCreateMediaItemAttachment(t *testing.T) {
	_, teamID, ms := newMediaFixture(t)
	ctx := context.Background()

	target, err := ms.CreateItem(ctx, teamID, CreateMediaItemInput{
		Type:  "image",
		Title: "Team photo",
	}, "owner")
	require.NoError(t, err)

	comment, err := ms.CreateItem(ctx, teamID, CreateMediaItemInput{
		Type:       "comment",
		Title:      "Nice shot",
		AttachedTo: target.ID,
	}, "owner")
	require.NoError(t, err)
	assert.Equal(t, target.ID, comment.AttachedTo)
}

func TestUpdateMediaItemPartialMerge(t *testing.T) {
	_, teamID, ms := newMediaFixture(t)
	ctx := context.Background()

	item, err := ms.CreateItem(ctx, teamID, CreateMediaItemInput{
		Type:        "link",
		Title:       "Docs",
		Description: "team handbook",
		URL:         "https://example.com/handbook",
	}, "owner")
	require.NoError(t, err)

	updated, err := ms.UpdateItem(ctx, teamID, item.ID, UpdateMediaItemInput{
		Title: strPtr("Handbook"),
	}, "owner")
	require.NoError(t, err)

	assert.Equal(t, "Handbook", updated.Title)
	assert.Equal(t, "team handbook", updated.Description, "untouched fields survive")
	assert.Equal(t, "https://example.com/handbook", updated.URL)
}

func TestUpdateMediaItemWrongTeam(t *testing.T) {
	docs, teamID, ms := newMediaFixture(t)
	ctx := context.Background()

	// Команда с элементом чужой доски.
	ts := NewTeamService(docs, slug.NewResolver(docs), nil)
	other, err := ts.CreateTeam(ctx, CreateTeamInput{Name: "Iron Wolves", OwnerID: "owner"})
	require.NoError(t, err)

	foreign, err := ms.CreateItem(ctx, other.ID, CreateMediaItemInput{Type: "note", Title: "secret"}, "owner")
	require.NoError(t, err)

	// Элемент чужой команды через доску этой команды недоступен.
	_, err = ms.UpdateItem(ctx, teamID, foreign.ID, UpdateMediaItemInput{Title: strPtr("stolen")}, "owner")
	assert.ErrorIs(t, err, ErrMediaItemNotFound)
}

func TestDeleteMediaItem(t *testing.T) {
	_, teamID, ms := newMediaFixture(t)
	ctx := context.Background()

	item, err := ms.CreateItem(ctx, teamID, CreateMediaItemInput{Type: "note", Title: "temp"}, "owner")
	require.NoError(t, err)

	require.NoError(t, ms.DeleteItem(ctx, teamID, item.ID, "owner"))

	items, err := ms.ListItems(ctx, teamID)
	require.NoError(t, err)
	assert.Empty(t, items)

	err = ms.DeleteItem(ctx, teamID, item.ID, "owner")
	assert.ErrorIs(t, err, ErrMediaItemNotFound)
}

func TestListMediaItems(t *testing.T) {
	_, teamID, ms := newMediaFixture(t)
	ctx := context.Background()

	_, err := ms.CreateItem(ctx, teamID, CreateMediaItemInput{Type: "note", Title: "a"}, "owner")
	require.NoError(t, err)
	_, err = ms.CreateItem(ctx, teamID, CreateMediaItemInput{Type: "sticky-note", Title: "b"}, "owner")
	require.NoError(t, err)

	items, err := ms.ListItems(ctx, teamID)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}
