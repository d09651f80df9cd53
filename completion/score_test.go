package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leaguehq/team-workspace/models"
)

func strPtr(s string) *string { return &s }

func fullBrandKit() models.BrandKit {
	return models.BrandKit{
		HomePrimary:   strPtr("#FF0000"),
		HomeSecondary: strPtr("#00FF00"),
		AwayPrimary:   strPtr("#0000FF"),
		AwaySecondary: strPtr("#FFFFFF"),
		Accent:        strPtr("#FFD700"),
		FontKey:       "athletic",
		LogoStyleKey:  "shield",
		LogoText:      "Blazing Foxes",
	}
}

func TestBrandScore(t *testing.T) {
	tests := []struct {
		name string
		kit  models.BrandKit
		want int
	}{
		{"empty", models.BrandKit{}, 0},
		{"full", fullBrandKit(), 100},
		{"home primary only", models.BrandKit{HomePrimary: strPtr("#FF0000")}, 15},
		{"home secondary only", models.BrandKit{HomeSecondary: strPtr("#00FF00")}, 10},
		{"away primary only", models.BrandKit{AwayPrimary: strPtr("#0000FF")}, 10},
		{"away secondary only", models.BrandKit{AwaySecondary: strPtr("#FFFFFF")}, 5},
		{"accent only", models.BrandKit{Accent: strPtr("#FFD700")}, 10},
		{"font only", models.BrandKit{FontKey: "college"}, 15},
		{"logo style only", models.BrandKit{LogoStyleKey: "circle"}, 15},
		{"logo text only", models.BrandKit{LogoText: "FC"}, 5},
		{"blank strings do not count", models.BrandKit{HomePrimary: strPtr("  "), FontKey: " "}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BrandScore(tt.kit))
		})
	}
}

func TestIdentityScore(t *testing.T) {
	assert.Equal(t, 0, IdentityScore(models.Identity{}))
	assert.Equal(t, 25, IdentityScore(models.Identity{Tagline: "Go team"}))
	assert.Equal(t, 50, IdentityScore(models.Identity{Bio: "bio", Location: "Springfield"}))
	assert.Equal(t, 100, IdentityScore(models.Identity{
		Tagline:       "Go team",
		Bio:           "bio",
		Location:      "Springfield",
		MascotKeyword: "fox",
	}))

	// Запланированные события в оценку не входят.
	assert.Equal(t, 0, IdentityScore(models.Identity{PlannedEvents: []string{"opening day"}}))
}

func TestRosterScore(t *testing.T) {
	coach := models.TeamMember{Role: models.MemberRoleCoach}
	athlete := models.TeamMember{Role: models.MemberRoleAthlete}
	staff := models.TeamMember{Role: models.MemberRoleStaff}

	assert.Equal(t, 0, RosterScore(nil))
	assert.Equal(t, 50, RosterScore([]models.TeamMember{coach}))
	assert.Equal(t, 50, RosterScore([]models.TeamMember{athlete}))
	assert.Equal(t, 100, RosterScore([]models.TeamMember{coach, athlete}))
	assert.Equal(t, 0, RosterScore([]models.TeamMember{staff, staff}))

	// Дубликаты ролей очков не добавляют.
	assert.Equal(t, 50, RosterScore([]models.TeamMember{coach, coach, coach}))
}

func TestTotalScore(t *testing.T) {
	assert.Equal(t, 100, TotalScore(100, 100, 100))
	assert.Equal(t, 0, TotalScore(0, 0, 0))
	assert.Equal(t, 50, TotalScore(50, 50, 50))

	// round(15*0.4 + 0 + 0) = 6
	assert.Equal(t, 6, TotalScore(15, 0, 0))
	// round(20*0.4 + 0 + 0) = 8
	assert.Equal(t, 8, TotalScore(20, 0, 0))
}

func TestScore(t *testing.T) {
	summary := Score(
		models.BrandKit{HomePrimary: strPtr("#FF0000"), LogoText: "FC"},
		models.Identity{Tagline: "Go"},
		[]models.TeamMember{{Role: models.MemberRoleCoach}},
	)

	assert.Equal(t, 20, summary.Brand)
	assert.Equal(t, 25, summary.Identity)
	assert.Equal(t, 50, summary.Roster)
	// round(20*0.4 + 25*0.4 + 50*0.2) = round(8 + 10 + 10) = 28
	assert.Equal(t, 28, summary.Total)
}
