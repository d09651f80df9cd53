package board

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/leaguehq/team-workspace/autosave"
	"github.com/leaguehq/team-workspace/store"
)

// Manager раздает board.Sync по командам со счетчиком ссылок: первый
// подключившийся клиент открывает подписку, последний отключившийся —
// закрывает. Так таймеры и подписки не переживают своих потребителей.
//
// Подписки живут в собственном контексте менеджера, а не в контексте
// HTTP-запроса первого клиента: запрос завершается сразу после апгрейда
// соединения, и его отмена убила бы подписку под живыми клиентами.
type Manager struct {
	store  store.DocumentStore
	hub    Broadcaster
	logger *slog.Logger
	clock  autosave.Clock
	delay  time.Duration

	baseCtx context.Context
	cancel  context.CancelFunc

	mu    sync.Mutex
	syncs map[string]*managedSync
}

type managedSync struct {
	sync *Sync
	refs int
}

func NewManager(s store.DocumentStore, hub Broadcaster, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		store:   s,
		hub:     hub,
		logger:  logger,
		clock:   autosave.RealClock(),
		baseCtx: ctx,
		cancel:  cancel,
		syncs:   make(map[string]*managedSync),
	}
}

// Acquire возвращает синк доски команды, открывая его при первом обращении.
func (m *Manager) Acquire(teamID string) (*Sync, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.syncs[teamID]; ok {
		entry.refs++
		return entry.sync, nil
	}

	s, err := NewSync(m.baseCtx, SyncConfig{
		TeamID: teamID,
		Store:  m.store,
		Hub:    m.hub,
		Logger: m.logger,
		Clock:  m.clock,
		Delay:  m.delay,
	})
	if err != nil {
		return nil, err
	}
	m.syncs[teamID] = &managedSync{sync: s, refs: 1}
	m.logger.Info("board sync opened", slog.String("team_id", teamID))
	return s, nil
}

// Release отпускает ссылку; при нулевом счетчике синк закрывается.
func (m *Manager) Release(teamID string) {
	m.mu.Lock()
	entry, ok := m.syncs[teamID]
	if !ok {
		m.mu.Unlock()
		return
	}
	entry.refs--
	if entry.refs > 0 {
		m.mu.Unlock()
		return
	}
	delete(m.syncs, teamID)
	m.mu.Unlock()

	entry.sync.Close()
	m.logger.Info("board sync closed", slog.String("team_id", teamID))
}

// CloseAll закрывает все открытые синки (завершение процесса).
func (m *Manager) CloseAll() {
	defer m.cancel()

	m.mu.Lock()
	entries := make([]*managedSync, 0, len(m.syncs))
	for id, entry := range m.syncs {
		entries = append(entries, entry)
		delete(m.syncs, id)
	}
	m.mu.Unlock()

	for _, entry := range entries {
		entry.sync.Close()
	}
}
