package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/leaguehq/team-workspace/models"
	"github.com/leaguehq/team-workspace/storage"
	"github.com/leaguehq/team-workspace/store"
)

type CreateMediaItemInput struct {
	Type        string           `json:"type"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	URL         string           `json:"url"`
	Content     string           `json:"content"`
	Position    *models.Position `json:"position"`
	Width       *float64         `json:"width"`
	Height      *float64         `json:"height"`
	AttachedTo  string           `json:"attached_to"`
}

type UpdateMediaItemInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Content     *string `json:"content"`
	URL         *string `json:"url"`
}

type MediaService interface {
	CreateItem(ctx context.Context, teamID string, input CreateMediaItemInput, currentUserID string) (*models.MediaItem, error)
	UpdateItem(ctx context.Context, teamID, itemID string, input UpdateMediaItemInput, currentUserID string) (*models.MediaItem, error)
	DeleteItem(ctx context.Context, teamID, itemID string, currentUserID string) error
	ListItems(ctx context.Context, teamID string) ([]models.MediaItem, error)

	// UploadImage загружает бинарь в файловое хранилище и записывает
	// полученный URL в элемент. URL дальше трактуется как непрозрачная строка.
	UploadImage(ctx context.Context, teamID, itemID, contentType string, body io.Reader, currentUserID string) (*models.MediaItem, error)
}

type mediaService struct {
	docs     store.DocumentStore
	uploader storage.FileUploader
	logger   *slog.Logger
}

func NewMediaService(docs store.DocumentStore, uploader storage.FileUploader, logger *slog.Logger) MediaService {
	if logger == nil {
		logger = slog.Default()
	}
	return &mediaService{docs: docs, uploader: uploader, logger: logger}
}

func (s *mediaService) CreateItem(ctx context.Context, teamID string, input CreateMediaItemInput, currentUserID string) (*models.MediaItem, error) {
	team, err := s.requireEditable(ctx, teamID, currentUserID)
	if err != nil {
		return nil, err
	}

	mediaType := models.MediaType(input.Type)
	if !mediaType.Valid() {
		return nil, ErrInvalidMediaType
	}
	// Стикеры и комментарии живут в статичной сетке, позиций у них нет.
	if input.Position != nil && (mediaType == models.MediaTypeStickyNote || mediaType == models.MediaTypeComment) {
		return nil, ErrStaticItemPositioned
	}

	item := &models.MediaItem{
		TeamID:      team.ID,
		Type:        mediaType,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		URL:         strings.TrimSpace(input.URL),
		Content:     input.Content,
		Position:    input.Position,
		Width:       input.Width,
		Height:      input.Height,
		AttachedTo:  input.AttachedTo,
		CreatedBy:   currentUserID,
	}
	if err := validateStruct(item); err != nil {
		return nil, err
	}

	if item.AttachedTo != "" {
		target, err := s.getTeamItem(ctx, team.ID, item.AttachedTo)
		if err != nil || target == nil {
			return nil, ErrAttachTargetInvalid
		}
	}

	id, err := s.docs.Create(ctx, store.CollectionMedia, item)
	if err != nil {
		return nil, fmt.Errorf("failed to create media item: %w", err)
	}

	return s.getTeamItem(ctx, team.ID, id)
}

func (s *mediaService) UpdateItem(ctx context.Context, teamID, itemID string, input UpdateMediaItemInput, currentUserID string) (*models.MediaItem, error) {
	team, err := s.requireEditable(ctx, teamID, currentUserID)
	if err != nil {
		return nil, err
	}

	item, err := s.getTeamItem(ctx, team.ID, itemID)
	if err != nil {
		return nil, err
	}

	// Частичное слияние: пишутся только измененные поля, конкурирующая
	// правка других полей того же элемента не затирается.
	fields := make(map[string]any)
	if input.Title != nil {
		item.Title = strings.TrimSpace(*input.Title)
		fields["title"] = item.Title
	}
	if input.Description != nil {
		item.Description = strings.TrimSpace(*input.Description)
		fields["description"] = item.Description
	}
	if input.Content != nil {
		item.Content = *input.Content
		fields["content"] = item.Content
	}
	if input.URL != nil {
		item.URL = strings.TrimSpace(*input.URL)
		fields["url"] = item.URL
	}
	if len(fields) == 0 {
		return item, nil
	}

	if err := validateStruct(item); err != nil {
		return nil, err
	}

	if err := s.docs.Update(ctx, store.CollectionMedia, itemID, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMediaItemNotFound
		}
		return nil, fmt.Errorf("failed to update media item %s: %w", itemID, err)
	}

	return s.getTeamItem(ctx, team.ID, itemID)
}

// DeleteItem удаляет элемент без надгробия: следующий снимок подписки
// уберет его у всех клиентов.
func (s *mediaService) DeleteItem(ctx context.Context, teamID, itemID string, currentUserID string) error {
	team, err := s.requireEditable(ctx, teamID, currentUserID)
	if err != nil {
		return err
	}

	item, err := s.getTeamItem(ctx, team.ID, itemID)
	if err != nil {
		return err
	}

	if err := s.docs.Delete(ctx, store.CollectionMedia, itemID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMediaItemNotFound
		}
		return fmt.Errorf("failed to delete media item %s: %w", itemID, err)
	}

	// Файл картинки чистим best-effort: потерянный объект в бакете дешевле,
	// чем элемент, который нельзя удалить из-за недоступного хранилища.
	if item.Type == models.MediaTypeImage && s.uploader != nil && item.URL != "" {
		if err := s.uploader.Delete(ctx, imageKey(teamID, itemID)); err != nil {
			s.logger.Warn("failed to delete media image",
				slog.String("item_id", itemID), slog.Any("error", err))
		}
	}
	return nil
}

func (s *mediaService) ListItems(ctx context.Context, teamID string) ([]models.MediaItem, error) {
	records, err := s.docs.Query(ctx, store.CollectionMedia,
		store.Filters{"team_id": teamID}, store.OrderCreatedDesc, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to query media items: %w", err)
	}

	items := make([]models.MediaItem, 0, len(records))
	for i := range records {
		item, err := decodeMediaItem(&records[i])
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

func (s *mediaService) UploadImage(ctx context.Context, teamID, itemID, contentType string, body io.Reader, currentUserID string) (*models.MediaItem, error) {
	if s.uploader == nil {
		return nil, errors.New("file storage is not configured")
	}

	team, err := s.requireEditable(ctx, teamID, currentUserID)
	if err != nil {
		return nil, err
	}

	item, err := s.getTeamItem(ctx, team.ID, itemID)
	if err != nil {
		return nil, err
	}
	if item.Type != models.MediaTypeImage {
		return nil, ErrInvalidMediaType
	}

	result, err := s.uploader.Upload(ctx, imageKey(teamID, itemID), contentType, body)
	if err != nil {
		return nil, fmt.Errorf("failed to upload media image: %w", err)
	}

	if err := s.docs.Update(ctx, store.CollectionMedia, itemID, map[string]any{"url": result.Location}); err != nil {
		return nil, fmt.Errorf("failed to store media image url: %w", err)
	}

	return s.getTeamItem(ctx, team.ID, itemID)
}

func imageKey(teamID, itemID string) string {
	return "team-media/" + teamID + "/" + itemID
}

func (s *mediaService) requireEditable(ctx context.Context, teamID, userID string) (*models.Team, error) {
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

func (s *mediaService) getTeamItem(ctx context.Context, teamID, itemID string) (*models.MediaItem, error) {
	rec, err := s.docs.Get(ctx, store.CollectionMedia, itemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMediaItemNotFound
		}
		return nil, fmt.Errorf("failed to get media item %s: %w", itemID, err)
	}
	item, err := decodeMediaItem(rec)
	if err != nil {
		return nil, err
	}
	if item.TeamID != teamID {
		return nil, ErrMediaItemNotFound
	}
	return item, nil
}

func decodeMediaItem(rec *store.Record) (*models.MediaItem, error) {
	item := &models.MediaItem{}
	if err := rec.Decode(item); err != nil {
		return nil, fmt.Errorf("failed to decode media item: %w", err)
	}
	item.ID = rec.ID
	item.CreatedAt = rec.CreatedAt
	item.UpdatedAt = rec.UpdatedAt
	return item, nil
}
