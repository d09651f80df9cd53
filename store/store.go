package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrStoreClosed  = errors.New("document store is closed")
	ErrBadReference = errors.New("document reference is invalid")
)

// Имена коллекций, используемых подсистемой рабочего пространства.
const (
	CollectionTeams       = "teams"
	CollectionMemberships = "team-memberships"
	CollectionMembers     = "team-members"
	CollectionMedia       = "team-media"
)

// Order задает порядок выдачи Query и Subscribe.
type Order string

const (
	OrderCreatedDesc Order = "created_desc"
	OrderCreatedAsc  Order = "created_asc"
)

// Filters — фильтры равенства по верхнеуровневым полям документа.
type Filters map[string]any

// Record — документ вместе с метаданными, назначенными хранилищем.
// CreatedAt и UpdatedAt выставляются сервером при каждой записи.
type Record struct {
	ID        string
	Data      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Decode распаковывает тело документа в dst.
func (r *Record) Decode(dst any) error {
	return json.Unmarshal(r.Data, dst)
}

// DocumentStore — общий удаленный документный стор, от которого зависит
// подсистема. Реализации: Postgres (боевая) и in-memory (тесты).
// Гарантии упорядочивания: read-your-writes в рамках одной сессии,
// подписчики сходятся к последнему состоянию сервера без межсессионного
// порядка.
type DocumentStore interface {
	Create(ctx context.Context, collection string, data any) (string, error)
	// Put — keyed-запись с идентификатором, выбранным вызывающим
	// (create-or-replace). Нужна для детерминированных идентификаторов
	// членства: O(1) точечные чтения вместо запросов.
	Put(ctx context.Context, collection, id string, data any) error
	Get(ctx context.Context, collection, id string) (*Record, error)
	Query(ctx context.Context, collection string, filters Filters, order Order, limit int) ([]Record, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error

	// Subscribe открывает push-подписку: начальный снимок плюс снимок после
	// каждого изменения коллекции. Каждый снимок заменяет предыдущий целиком.
	Subscribe(ctx context.Context, collection string, filters Filters, order Order) (*Subscription, error)
}

// Subscription — поток снимков коллекции. Закрытие обязательно: незакрытая
// подписка держит горутину и канал.
type Subscription struct {
	snapshots chan []Record

	mu     sync.Mutex
	err    error
	closed bool
	cancel context.CancelFunc
}

func newSubscription(cancel context.CancelFunc) *Subscription {
	return &Subscription{
		// Буфер 1: отправитель заменяет непрочитанный снимок свежим,
		// медленный потребитель видит только последнее состояние.
		snapshots: make(chan []Record, 1),
		cancel:    cancel,
	}
}

// Snapshots возвращает канал снимков. Канал закрывается после Close или
// после ошибки подписки (см. Err).
func (s *Subscription) Snapshots() <-chan []Record {
	return s.snapshots
}

// Err возвращает ошибку, из-за которой поток оборвался, либо nil.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close останавливает подписку и закрывает канал снимков.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked(nil)
}

func (s *Subscription) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked(err)
}

func (s *Subscription) closeLocked(err error) {
	if s.closed {
		return
	}
	s.closed = true
	s.err = err
	if s.cancel != nil {
		s.cancel()
	}
	close(s.snapshots)
}

// push кладет снимок в канал, вытесняя непрочитанный предыдущий.
func (s *Subscription) push(snapshot []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.snapshots <- snapshot:
			return
		default:
			select {
			case <-s.snapshots:
			default:
			}
		}
	}
}
