// Package slug выводит URL-безопасные идентификаторы команд и гарантирует
// их уникальность в сторе через суффиксы -1, -2, …
package slug

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/leaguehq/team-workspace/store"
)

var (
	nonWordRe   = regexp.MustCompile(`[^\w\s-]`)
	spacesRe    = regexp.MustCompile(`\s+`)
	multiDashRe = regexp.MustCompile(`-+`)
)

// Slugify приводит имя к нижнему регистру, отбрасывает все кроме букв, цифр,
// пробелов и дефисов, схлопывает пробелы в одиночные дефисы. Идемпотентна:
// Slugify(Slugify(x)) == Slugify(x).
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonWordRe.ReplaceAllString(s, "")
	s = spacesRe.ReplaceAllString(s, "-")
	s = multiDashRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Resolver проверяет кандидатов на коллизии по коллекции команд.
//
// Разрешение НЕ транзакционно: два клиента могут одновременно увидеть слаг
// свободным и оба записать его. Это известная редкая гонка с низкой
// серьезностью, распределенный лок того не стоит. singleflight схлопывает
// только одновременные запросы внутри одного процесса.
type Resolver struct {
	store store.DocumentStore
	group singleflight.Group
}

func NewResolver(s store.DocumentStore) *Resolver {
	return &Resolver{store: s}
}

// ResolveUnique возвращает первый свободный вариант candidate, candidate-1,
// candidate-2, … excludeID исключает собственную запись команды из проверки:
// переименование в то же имя не должно получить суффикс из-за самого себя.
func (r *Resolver) ResolveUnique(ctx context.Context, candidate, excludeID string) (string, error) {
	key := candidate + "\x00" + excludeID
	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.resolve(ctx, candidate, excludeID)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (r *Resolver) resolve(ctx context.Context, candidate, excludeID string) (string, error) {
	attempt := candidate
	for i := 1; ; i++ {
		taken, err := r.taken(ctx, attempt, excludeID)
		if err != nil {
			return "", fmt.Errorf("failed to check slug %q: %w", attempt, err)
		}
		if !taken {
			return attempt, nil
		}
		attempt = fmt.Sprintf("%s-%d", candidate, i)
	}
}

func (r *Resolver) taken(ctx context.Context, candidate, excludeID string) (bool, error) {
	records, err := r.store.Query(ctx, store.CollectionTeams,
		store.Filters{"slug": candidate}, store.OrderCreatedDesc, 0)
	if err != nil {
		return false, err
	}
	for _, rec := range records {
		if rec.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}
