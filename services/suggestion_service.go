package services

import (
	"github.com/leaguehq/team-workspace/identity"
)

type SuggestionInput struct {
	// LockedPrimary сохраняет выбранный основной цвет (#RRGGBB).
	LockedPrimary string `json:"locked_primary"`
	// LockedSuffix сохраняет выбранное второе слово имени.
	LockedSuffix string `json:"locked_suffix"`
	// Seed включает воспроизводимую генерацию.
	Seed *int64 `json:"seed"`
}

type SuggestionService interface {
	Suggest(input SuggestionInput) (identity.Suggestion, error)
	SuggestPalette(lockedPrimary string) (identity.Palette, error)
}

type suggestionService struct{}

func NewSuggestionService() SuggestionService {
	return &suggestionService{}
}

func (s *suggestionService) Suggest(input SuggestionInput) (identity.Suggestion, error) {
	if input.LockedPrimary != "" && !identity.ValidHex(input.LockedPrimary) {
		return identity.Suggestion{}, ErrInvalidHexColor
	}
	return identity.Generate(identity.Options{
		Seed:          input.Seed,
		LockedPrimary: input.LockedPrimary,
		LockedSuffix:  input.LockedSuffix,
	}), nil
}

func (s *suggestionService) SuggestPalette(lockedPrimary string) (identity.Palette, error) {
	if lockedPrimary == "" {
		suggestion := identity.Generate(identity.Options{})
		return suggestion.Palette, nil
	}
	palette, ok := identity.PaletteWithLockedPrimary(lockedPrimary)
	if !ok {
		return identity.Palette{}, ErrInvalidHexColor
	}
	return palette, nil
}
