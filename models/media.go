package models

import "time"

type MediaType string

const (
	MediaTypeImage      MediaType = "image"
	MediaTypeLink       MediaType = "link"
	MediaTypeNote       MediaType = "note"
	MediaTypeStickyNote MediaType = "sticky-note"
	MediaTypeComment    MediaType = "comment"
)

func (t MediaType) Valid() bool {
	switch t {
	case MediaTypeImage, MediaTypeLink, MediaTypeNote, MediaTypeStickyNote, MediaTypeComment:
		return true
	}
	return false
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MediaItem — артефакт на доске команды. Позиция есть только у свободно
// перетаскиваемых элементов; sticky-note и comment всегда рендерятся в сетке
// и позиции не имеют.
type MediaItem struct {
	ID          string    `json:"id"`
	TeamID      string    `json:"team_id"`
	Type        MediaType `json:"type" validate:"required,oneof=image link note sticky-note comment"`
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description,omitempty" validate:"max=1000"`
	URL         string    `json:"url,omitempty" validate:"omitempty,url"`
	Content     string    `json:"content,omitempty" validate:"max=5000"`
	Position    *Position `json:"position,omitempty"`
	Width       *float64  `json:"width,omitempty"`
	Height      *float64  `json:"height,omitempty"`
	AttachedTo  string    `json:"attached_to,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Draggable сообщает, использует ли элемент абсолютные координаты на холсте.
func (m *MediaItem) Draggable() bool {
	if m.Type == MediaTypeStickyNote || m.Type == MediaTypeComment {
		return false
	}
	return m.Position != nil
}
