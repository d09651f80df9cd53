package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryDocumentStore — потокобезопасная in-memory реализация DocumentStore
// с той же семантикой, что и Postgres-вариант: серверные таймстемпы,
// частичное слияние при Update, снимки целиком при каждом изменении.
// Используется в тестах вместо живого стора.
type MemoryDocumentStore struct {
	mu          sync.Mutex
	collections map[string]map[string]*memoryDoc
	subs        map[*Subscription]subscriptionSpec
	now         func() time.Time
}

type memoryDoc struct {
	fields    map[string]any
	createdAt time.Time
	updatedAt time.Time
}

func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{
		collections: make(map[string]map[string]*memoryDoc),
		subs:        make(map[*Subscription]subscriptionSpec),
		now:         time.Now,
	}
}

// SetClock подменяет источник времени (для детерминированных тестов).
func (s *MemoryDocumentStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func toFields(data any) (map[string]any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("document body must be a JSON object: %w", err)
	}
	return fields, nil
}

func (s *MemoryDocumentStore) Create(_ context.Context, collection string, data any) (string, error) {
	fields, err := toFields(data)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]*memoryDoc)
	}
	id := uuid.NewString()
	now := s.now()
	s.collections[collection][id] = &memoryDoc{fields: fields, createdAt: now, updatedAt: now}
	s.mu.Unlock()

	s.fanOut(collection)
	return id, nil
}

func (s *MemoryDocumentStore) Put(_ context.Context, collection, id string, data any) error {
	fields, err := toFields(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]*memoryDoc)
	}
	now := s.now()
	if doc, ok := s.collections[collection][id]; ok {
		doc.fields = fields
		doc.updatedAt = now
	} else {
		s.collections[collection][id] = &memoryDoc{fields: fields, createdAt: now, updatedAt: now}
	}
	s.mu.Unlock()

	s.fanOut(collection)
	return nil
}

func (s *MemoryDocumentStore) Get(_ context.Context, collection, id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.recordLocked(id, doc)
}

func (s *MemoryDocumentStore) Query(_ context.Context, collection string, filters Filters, order Order, limit int) ([]Record, error) {
	s.mu.Lock()
	records, err := s.queryLocked(collection, filters, order, limit)
	s.mu.Unlock()
	return records, err
}

func (s *MemoryDocumentStore) Update(_ context.Context, collection, id string, fields map[string]any) error {
	normalized, err := toFields(fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	doc, ok := s.collections[collection][id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	for k, v := range normalized {
		doc.fields[k] = v
	}
	doc.updatedAt = s.now()
	s.mu.Unlock()

	s.fanOut(collection)
	return nil
}

func (s *MemoryDocumentStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	if _, ok := s.collections[collection][id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.collections[collection], id)
	s.mu.Unlock()

	s.fanOut(collection)
	return nil
}

func (s *MemoryDocumentStore) Subscribe(ctx context.Context, collection string, filters Filters, order Order) (*Subscription, error) {
	subCtx, cancel := context.WithCancel(ctx)
	sub := newSubscription(cancel)

	s.mu.Lock()
	snapshot, err := s.queryLocked(collection, filters, order, 0)
	if err != nil {
		s.mu.Unlock()
		cancel()
		return nil, err
	}
	s.subs[sub] = subscriptionSpec{collection: collection, filters: filters, order: order}
	s.mu.Unlock()

	sub.push(snapshot)

	go func() {
		<-subCtx.Done()
		s.mu.Lock()
		delete(s.subs, sub)
		s.mu.Unlock()
		sub.Close()
	}()

	return sub, nil
}

func (s *MemoryDocumentStore) recordLocked(id string, doc *memoryDoc) (*Record, error) {
	raw, err := json.Marshal(doc.fields)
	if err != nil {
		return nil, err
	}
	return &Record{ID: id, Data: raw, CreatedAt: doc.createdAt, UpdatedAt: doc.updatedAt}, nil
}

func (s *MemoryDocumentStore) queryLocked(collection string, filters Filters, order Order, limit int) ([]Record, error) {
	records := make([]Record, 0)
	for id, doc := range s.collections[collection] {
		if !matches(doc.fields, filters) {
			continue
		}
		rec, err := s.recordLocked(id, doc)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	sort.Slice(records, func(i, j int) bool {
		if order == OrderCreatedAsc {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// matches повторяет jsonb-containment: сравнение после нормализации через JSON,
// чтобы типы (числа, указатели) вели себя как в Postgres.
func matches(fields map[string]any, filters Filters) bool {
	for key, want := range filters {
		got, ok := fields[key]
		if !ok {
			return false
		}
		wantJSON, err := json.Marshal(want)
		if err != nil {
			return false
		}
		gotJSON, err := json.Marshal(got)
		if err != nil {
			return false
		}
		if string(wantJSON) != string(gotJSON) {
			return false
		}
	}
	return true
}

func (s *MemoryDocumentStore) fanOut(collection string) {
	s.mu.Lock()
	type target struct {
		sub      *Subscription
		snapshot []Record
	}
	targets := make([]target, 0, len(s.subs))
	for sub, spec := range s.subs {
		if spec.collection != collection {
			continue
		}
		snapshot, err := s.queryLocked(spec.collection, spec.filters, spec.order, 0)
		if err != nil {
			continue
		}
		targets = append(targets, target{sub: sub, snapshot: snapshot})
	}
	s.mu.Unlock()

	for _, t := range targets {
		t.sub.push(t.snapshot)
	}
}
