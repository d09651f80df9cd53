package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	notifyChannel        = "workspace_documents"
	listenerMinReconnect = 10 * time.Second
	listenerMaxReconnect = time.Minute
)

// PostgresDocumentStore реализует DocumentStore поверх одной таблицы documents
// с jsonb-телом. Push-подписки работают через LISTEN/NOTIFY: каждая запись
// шлет pg_notify с именем коллекции, подписчики перечитывают свой срез.
type PostgresDocumentStore struct {
	db       *sql.DB
	listener *pq.Listener
	logger   *slog.Logger

	mu   sync.Mutex
	subs map[*Subscription]subscriptionSpec
	done chan struct{}
}

type subscriptionSpec struct {
	collection string
	filters    Filters
	order      Order
}

type PostgresStoreConfig struct {
	DB     *sql.DB
	DSN    string // отдельное подключение для LISTEN
	Logger *slog.Logger
}

func NewPostgresDocumentStore(cfg PostgresStoreConfig) (*PostgresDocumentStore, error) {
	if cfg.DB == nil {
		return nil, errors.New("postgres document store: db handle is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &PostgresDocumentStore{
		db:     cfg.DB,
		logger: cfg.Logger,
		subs:   make(map[*Subscription]subscriptionSpec),
		done:   make(chan struct{}),
	}

	if cfg.DSN != "" {
		s.listener = pq.NewListener(cfg.DSN, listenerMinReconnect, listenerMaxReconnect,
			func(ev pq.ListenerEventType, err error) {
				if err != nil {
					cfg.Logger.Error("store listener event", slog.Int("event", int(ev)), slog.Any("error", err))
				}
			})
		if err := s.listener.Listen(notifyChannel); err != nil {
			return nil, fmt.Errorf("failed to LISTEN on %s: %w", notifyChannel, err)
		}
		go s.dispatchNotifications()
	}

	return s, nil
}

// EnsureSchema создает таблицу документов, если ее еще нет.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT        NOT NULL,
			id         TEXT        NOT NULL,
			data       JSONB       NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (collection, id)
		);
		CREATE INDEX IF NOT EXISTS documents_data_idx ON documents USING GIN (data jsonb_path_ops);`)
	if err != nil {
		return fmt.Errorf("failed to ensure documents schema: %w", err)
	}
	return nil
}

func (s *PostgresDocumentStore) Create(ctx context.Context, collection string, data any) (string, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}

	id := uuid.NewString()
	query := `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	var createdAt time.Time
	if err := s.db.QueryRowContext(ctx, query, collection, id, body).Scan(&createdAt); err != nil {
		return "", fmt.Errorf("failed to insert document into %s: %w", collection, err)
	}

	s.notify(ctx, collection)
	return id, nil
}

func (s *PostgresDocumentStore) Put(ctx context.Context, collection, id string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	query := `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id)
		DO UPDATE SET data = EXCLUDED.data, updated_at = now()`

	if _, err := s.db.ExecContext(ctx, query, collection, id, body); err != nil {
		return fmt.Errorf("failed to put document %s/%s: %w", collection, id, err)
	}

	s.notify(ctx, collection)
	return nil
}

func (s *PostgresDocumentStore) Get(ctx context.Context, collection, id string) (*Record, error) {
	query := `
		SELECT id, data, created_at, updated_at
		FROM documents
		WHERE collection = $1 AND id = $2`

	rec := &Record{}
	err := s.db.QueryRowContext(ctx, query, collection, id).Scan(
		&rec.ID, &rec.Data, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document %s/%s: %w", collection, id, err)
	}
	return rec, nil
}

func (s *PostgresDocumentStore) Query(ctx context.Context, collection string, filters Filters, order Order, limit int) ([]Record, error) {
	query := `
		SELECT id, data, created_at, updated_at
		FROM documents
		WHERE collection = $1 AND data @> $2`

	filterJSON, err := json.Marshal(filters)
	if err != nil {
		return nil, fmt.Errorf("failed to encode filters: %w", err)
	}
	if filters == nil {
		filterJSON = []byte(`{}`)
	}

	switch order {
	case OrderCreatedAsc:
		query += ` ORDER BY created_at ASC`
	default:
		query += ` ORDER BY created_at DESC`
	}

	args := []any{collection, filterJSON}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var rec Record
		if scanErr := rows.Scan(&rec.ID, &rec.Data, &rec.CreatedAt, &rec.UpdatedAt); scanErr != nil {
			return nil, scanErr
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Update выполняет частичное слияние: только переданные поля перезаписываются,
// остальной документ не трогается. Конкурирующие правки разных полей одного
// документа не затирают друг друга (last-write-wins на уровне поля).
func (s *PostgresDocumentStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode update patch: %w", err)
	}

	query := `
		UPDATE documents
		SET data = data || $3::jsonb, updated_at = now()
		WHERE collection = $1 AND id = $2`

	result, err := s.db.ExecContext(ctx, query, collection, id, patch)
	if err != nil {
		return fmt.Errorf("failed to update document %s/%s: %w", collection, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.notify(ctx, collection)
	return nil
}

func (s *PostgresDocumentStore) Delete(ctx context.Context, collection, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete document %s/%s: %w", collection, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.notify(ctx, collection)
	return nil
}

func (s *PostgresDocumentStore) Subscribe(ctx context.Context, collection string, filters Filters, order Order) (*Subscription, error) {
	subCtx, cancel := context.WithCancel(ctx)
	sub := newSubscription(cancel)

	snapshot, err := s.Query(subCtx, collection, filters, order, 0)
	if err != nil {
		cancel()
		return nil, err
	}
	sub.push(snapshot)

	s.mu.Lock()
	s.subs[sub] = subscriptionSpec{collection: collection, filters: filters, order: order}
	s.mu.Unlock()

	go func() {
		<-subCtx.Done()
		s.mu.Lock()
		delete(s.subs, sub)
		s.mu.Unlock()
		sub.Close()
	}()

	return sub, nil
}

// notify будит подписчиков. Ошибка не фатальна для самой записи: данные уже
// сохранены, подписчики догонят состояние при следующем изменении.
func (s *PostgresDocumentStore) notify(ctx context.Context, collection string) {
	if _, err := s.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, collection); err != nil {
		s.logger.Warn("failed to notify subscribers", slog.String("collection", collection), slog.Any("error", err))
	}
}

func (s *PostgresDocumentStore) dispatchNotifications() {
	for {
		select {
		case <-s.done:
			return
		case n, ok := <-s.listener.Notify:
			if !ok {
				return
			}
			// n == nil означает переподключение listener'а: состояние могло
			// уйти вперед, перечитываем все подписки.
			collection := ""
			if n != nil {
				collection = n.Extra
			}
			s.refreshSubscriptions(collection)
		}
	}
}

func (s *PostgresDocumentStore) refreshSubscriptions(collection string) {
	s.mu.Lock()
	targets := make(map[*Subscription]subscriptionSpec, len(s.subs))
	for sub, spec := range s.subs {
		if collection == "" || spec.collection == collection {
			targets[sub] = spec
		}
	}
	s.mu.Unlock()

	for sub, spec := range targets {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		snapshot, err := s.Query(ctx, spec.collection, spec.filters, spec.order, 0)
		cancel()
		if err != nil {
			s.logger.Error("subscription refresh failed",
				slog.String("collection", spec.collection), slog.Any("error", err))
			sub.fail(err)
			s.mu.Lock()
			delete(s.subs, sub)
			s.mu.Unlock()
			continue
		}
		sub.push(snapshot)
	}
}

// Close останавливает диспетчер уведомлений и все подписки.
func (s *PostgresDocumentStore) Close() error {
	close(s.done)
	s.mu.Lock()
	for sub := range s.subs {
		sub.Close()
		delete(s.subs, sub)
	}
	s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}
