// Package board поддерживает живое, согласованное между клиентами состояние
// медиа-доски команды: подписка на стор, оптимистичные перетаскивания и
// отложенная запись позиций.
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/leaguehq/team-workspace/autosave"
	"github.com/leaguehq/team-workspace/models"
	"github.com/leaguehq/team-workspace/realtime"
	"github.com/leaguehq/team-workspace/store"
)

// Дебаунс записи позиции. Таймер свой у каждого элемента: быстрый драг
// элемента A не задерживает отложенную запись по элементу B.
const defaultPositionDelay = 300 * time.Millisecond

var ErrItemNotFound = errors.New("media item is not on the board")

// Broadcaster — приемник снимков доски (в бою — realtime.Hub).
type Broadcaster interface {
	BroadcastToRoom(roomID string, msg realtime.Message)
}

type SyncConfig struct {
	TeamID string
	Store  store.DocumentStore
	Hub    Broadcaster // nil — без трансляции
	Logger *slog.Logger
	Clock  autosave.Clock
	Delay  time.Duration
}

// Sync держит подписку на коллекцию медиа команды. Локальное состояние —
// проекция последнего снимка стора; единственная локальная правка —
// оптимистичная позиция во время драга, которую следующий снимок замещает.
type Sync struct {
	teamID string
	store  store.DocumentStore
	hub    Broadcaster
	logger *slog.Logger
	clock  autosave.Clock
	delay  time.Duration

	sub    *store.Subscription
	cancel context.CancelFunc
	loop   sync.WaitGroup

	mu      sync.Mutex
	items   []models.MediaItem
	writers map[string]*autosave.Controller[models.Position]
	closed  bool
}

func NewSync(ctx context.Context, cfg SyncConfig) (*Sync, error) {
	if cfg.TeamID == "" {
		return nil, errors.New("board sync: team id is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("board sync: document store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = autosave.RealClock()
	}
	if cfg.Delay <= 0 {
		cfg.Delay = defaultPositionDelay
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub, err := cfg.Store.Subscribe(subCtx, store.CollectionMedia,
		store.Filters{"team_id": cfg.TeamID}, store.OrderCreatedDesc)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to subscribe to team media: %w", err)
	}

	s := &Sync{
		teamID:  cfg.TeamID,
		store:   cfg.Store,
		hub:     cfg.Hub,
		logger:  cfg.Logger,
		clock:   cfg.Clock,
		delay:   cfg.Delay,
		sub:     sub,
		cancel:  cancel,
		writers: make(map[string]*autosave.Controller[models.Position]),
	}

	s.loop.Add(1)
	go s.consume()

	return s, nil
}

// RoomID — комната хаба, в которую транслируются снимки этой доски.
func (s *Sync) RoomID() string {
	return "team_" + s.teamID
}

func (s *Sync) consume() {
	defer s.loop.Done()

	for snapshot := range s.sub.Snapshots() {
		items := make([]models.MediaItem, 0, len(snapshot))
		for _, rec := range snapshot {
			var item models.MediaItem
			if err := rec.Decode(&item); err != nil {
				s.logger.Error("failed to decode media item",
					slog.String("id", rec.ID), slog.Any("error", err))
				continue
			}
			item.ID = rec.ID
			item.CreatedAt = rec.CreatedAt
			item.UpdatedAt = rec.UpdatedAt
			items = append(items, item)
		}

		// Снимок замещает локальную коллекцию атомарно, без ручных заплаток.
		s.mu.Lock()
		s.items = items
		s.mu.Unlock()

		s.publish(items)
	}

	// Оборвавшийся поток логируем; локальное состояние остается последним
	// хорошим снимком. Переподключение — забота владельца.
	if err := s.sub.Err(); err != nil {
		s.logger.Error("media subscription broken",
			slog.String("team_id", s.teamID), slog.Any("error", err))
	}
}

func (s *Sync) publish(items []models.MediaItem) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(s.RoomID(), realtime.Message{
		Type:    realtime.EventBoardSnapshot,
		Payload: items,
	})
}

// Items возвращает копию текущей коллекции доски.
func (s *Sync) Items() []models.MediaItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.MediaItem, len(s.items))
	copy(out, s.items)
	return out
}

// PartitionItems — текущие элементы, разделенные для рендера.
func (s *Sync) PartitionItems() (draggable, static []models.MediaItem) {
	return Partition(s.Items())
}

// ReportPosition принимает координату из драга: прижимает к холсту,
// оптимистично обновляет локальную проекцию и планирует отложенную
// частичную запись (только поле position) по таймеру этого элемента.
//
// Одновременный драг одного элемента двумя клиентами — принятая гонка:
// побеждает последняя запись.
func (s *Sync) ReportPosition(itemID string, x, y, viewportWidth, itemWidth float64) error {
	pos := ClampPosition(x, y, viewportWidth, itemWidth)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.New("board sync is closed")
	}

	found := false
	for i := range s.items {
		if s.items[i].ID == itemID {
			if !s.items[i].Draggable() {
				s.mu.Unlock()
				return fmt.Errorf("media item %s is not draggable", itemID)
			}
			p := pos
			s.items[i].Position = &p
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}

	writer, ok := s.writers[itemID]
	if !ok {
		writer = s.newPositionWriter(itemID)
		s.writers[itemID] = writer
	}
	items := make([]models.MediaItem, len(s.items))
	copy(items, s.items)
	s.mu.Unlock()

	writer.Set(pos)
	s.publish(items)
	return nil
}

func (s *Sync) newPositionWriter(itemID string) *autosave.Controller[models.Position] {
	persist := func(ctx context.Context, pos models.Position) error {
		err := s.store.Update(ctx, store.CollectionMedia, itemID,
			map[string]any{"position": pos})
		if err != nil {
			// Элемент могли удалить, пока таймер тикал; это не сбой доски.
			s.logger.Warn("failed to persist media position",
				slog.String("item_id", itemID), slog.Any("error", err))
		}
		return err
	}
	return autosave.New(persist,
		autosave.WithDelay[models.Position](s.delay),
		autosave.WithClock[models.Position](s.clock))
}

// Flush немедленно проталкивает все отложенные записи позиций.
func (s *Sync) Flush() {
	s.mu.Lock()
	writers := make([]*autosave.Controller[models.Position], 0, len(s.writers))
	for _, w := range s.writers {
		writers = append(writers, w)
	}
	s.mu.Unlock()

	for _, w := range writers {
		w.Flush()
	}
}

// Close снимает все таймеры, дожидается записей в полете и закрывает
// подписку. Обязательный контракт очистки: после Close ни колбэков,
// ни записей не будет.
func (s *Sync) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	writers := make([]*autosave.Controller[models.Position], 0, len(s.writers))
	for id, w := range s.writers {
		writers = append(writers, w)
		delete(s.writers, id)
	}
	s.mu.Unlock()

	for _, w := range writers {
		w.Close()
	}

	s.cancel()
	s.loop.Wait()
}
