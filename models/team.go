package models

import "time"

// TeamStatus описывает этап жизненного цикла команды.
type TeamStatus string

const (
	StatusDraft                TeamStatus = "draft"
	StatusBrandOnly            TeamStatus = "brand-only"
	StatusReadyForRegistration TeamStatus = "ready-for-registration"
)

type Team struct {
	ID           string     `json:"id"`
	Name         string     `json:"name" validate:"required,max=120"`
	Slug         string     `json:"slug"`
	OwnerID      string     `json:"owner_id"`
	ContactEmail string     `json:"contact_email,omitempty" validate:"omitempty,email"`
	Public       bool       `json:"public"`
	Status       TeamStatus `json:"status"`

	BrandKit   BrandKit          `json:"brand_kit"`
	Identity   Identity          `json:"identity"`
	Completion CompletionSummary `json:"completion"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BrandKit хранит визуальную идентичность команды.
// Каждый цвет — 6-значный hex (#RRGGBB) или nil, если не выбран.
type BrandKit struct {
	HomePrimary   *string `json:"home_primary,omitempty" validate:"omitempty,hexcolor6"`
	HomeSecondary *string `json:"home_secondary,omitempty" validate:"omitempty,hexcolor6"`
	AwayPrimary   *string `json:"away_primary,omitempty" validate:"omitempty,hexcolor6"`
	AwaySecondary *string `json:"away_secondary,omitempty" validate:"omitempty,hexcolor6"`
	Accent        *string `json:"accent,omitempty" validate:"omitempty,hexcolor6"`
	FontKey       string  `json:"font_key,omitempty" validate:"max=50"`
	LogoStyleKey  string  `json:"logo_style_key,omitempty" validate:"max=50"`
	LogoText      string  `json:"logo_text,omitempty" validate:"max=60"`
	Acronym       string  `json:"acronym,omitempty" validate:"max=5"`
	MascotGlyph   string  `json:"mascot_glyph,omitempty" validate:"max=8"`
}

type Identity struct {
	Tagline       string   `json:"tagline,omitempty" validate:"max=200"`
	Bio           string   `json:"bio,omitempty" validate:"max=2000"`
	Location      string   `json:"location,omitempty" validate:"max=120"`
	MascotKeyword string   `json:"mascot_keyword,omitempty" validate:"max=60"`
	PlannedEvents []string `json:"planned_events,omitempty"`
}

// CompletionSummary — производные проценты заполненности профиля.
// Total всегда пересчитывается из остальных трех, никогда не задается вручную.
type CompletionSummary struct {
	Brand    int `json:"brand"`
	Identity int `json:"identity"`
	Roster   int `json:"roster"`
	Total    int `json:"total"`
}
