// Package completion считает проценты заполненности профиля команды.
// Все функции чистые: одинаковый вход всегда дает одинаковый выход, поэтому
// сводку можно пересчитывать после каждой правки без хранения истории.
package completion

import (
	"math"
	"strings"

	"github.com/leaguehq/team-workspace/models"
)

// Веса категорий в итоговой оценке.
const (
	brandWeight    = 0.4
	identityWeight = 0.4
	rosterWeight   = 0.2
)

// Score собирает полную сводку по бренду, айдентике и ростеру.
func Score(brand models.BrandKit, identity models.Identity, members []models.TeamMember) models.CompletionSummary {
	b := BrandScore(brand)
	i := IdentityScore(identity)
	r := RosterScore(members)
	return models.CompletionSummary{
		Brand:    b,
		Identity: i,
		Roster:   r,
		Total:    TotalScore(b, i, r),
	}
}

// BrandScore — взвешенная проверка наличия полей брендкита. Поля независимы,
// порядок не важен; сумма весов равна 100.
func BrandScore(kit models.BrandKit) int {
	score := 0
	if present(kit.HomePrimary) {
		score += 15
	}
	if present(kit.HomeSecondary) {
		score += 10
	}
	if present(kit.AwayPrimary) {
		score += 10
	}
	if present(kit.AwaySecondary) {
		score += 5
	}
	if present(kit.Accent) {
		score += 10
	}
	if strings.TrimSpace(kit.FontKey) != "" {
		score += 15
	}
	if strings.TrimSpace(kit.LogoStyleKey) != "" {
		score += 15
	}
	if strings.TrimSpace(kit.LogoText) != "" {
		score += 5
	}
	return score
}

// IdentityScore — 25 очков за каждое из четырех непустых полей.
func IdentityScore(id models.Identity) int {
	score := 0
	for _, field := range []string{id.Tagline, id.Bio, id.MascotKeyword, id.Location} {
		if strings.TrimSpace(field) != "" {
			score += 25
		}
	}
	return score
}

// RosterScore — 50 очков за хотя бы одного тренера и 50 за хотя бы одного
// спортсмена. Дубликаты ролей очков не добавляют, ростер из одних staff дает 0.
func RosterScore(members []models.TeamMember) int {
	score := 0
	hasCoach, hasAthlete := false, false
	for _, m := range members {
		switch m.Role {
		case models.MemberRoleCoach:
			hasCoach = true
		case models.MemberRoleAthlete:
			hasAthlete = true
		}
	}
	if hasCoach {
		score += 50
	}
	if hasAthlete {
		score += 50
	}
	return score
}

// TotalScore — round(brand*0.4 + identity*0.4 + roster*0.2).
func TotalScore(brand, identity, roster int) int {
	return int(math.Round(float64(brand)*brandWeight + float64(identity)*identityWeight + float64(roster)*rosterWeight))
}

func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}
