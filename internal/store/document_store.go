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

	"github.com/vbonduro/jdginv/internal/feed"
)

const (
	CollectionInventory = "inventory"
	CollectionReports   = "reports"
)

var ErrNotFound = errors.New("document not found")

// Document is one JSON record in a named collection.
type Document struct {
	ID        string
	Data      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DocumentStore keeps JSON documents grouped into collections and pushes the
// full contents of a collection to its watchers after every write.
type DocumentStore struct {
	db  *sql.DB
	now func() time.Time

	mu   sync.Mutex
	hubs map[string]*feed.Hub[[]Document]
}

func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{
		db:   db,
		now:  func() time.Time { return time.Now().UTC() },
		hubs: make(map[string]*feed.Hub[[]Document]),
	}
}

// Create stores v under a new store-assigned id.
func (s *DocumentStore) Create(ctx context.Context, collection string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	ts := s.now().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
	`, collection, id, string(data), ts, ts); err != nil {
		return "", fmt.Errorf("failed to create document: %w", err)
	}

	s.publish(ctx, collection)
	return id, nil
}

func (s *DocumentStore) Update(ctx context.Context, collection, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `
		UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND id = ?
	`, string(data), s.now().Format(time.RFC3339Nano), collection, id)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return err
	}

	s.publish(ctx, collection)
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM documents WHERE collection = ? AND id = ?
	`, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return err
	}

	s.publish(ctx, collection)
	return nil
}

func (s *DocumentStore) DeleteAll(ctx context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM documents WHERE collection = ?
	`, collection); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}

	s.publish(ctx, collection)
	return nil
}

func (s *DocumentStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	var (
		doc                    Document
		data, created, updated string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, data, created_at, updated_at FROM documents WHERE collection = ? AND id = ?
	`, collection, id).Scan(&doc.ID, &data, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	if err := fillDocument(&doc, data, created, updated); err != nil {
		return nil, err
	}
	return &doc, nil
}

// List returns the collection in insertion order.
func (s *DocumentStore) List(ctx context.Context, collection string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, data, created_at, updated_at FROM documents WHERE collection = ? ORDER BY seq ASC
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	docs := make([]Document, 0)
	for rows.Next() {
		var (
			doc                    Document
			data, created, updated string
		)
		if err := rows.Scan(&doc.ID, &data, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if err := fillDocument(&doc, data, created, updated); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}

	return docs, nil
}

// Watch streams the full collection: once on subscribe and again after every
// write. The channel closes when ctx is done or the store is closed.
func (s *DocumentStore) Watch(ctx context.Context, collection string) (<-chan []Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.hubs[collection]
	if !ok {
		docs, err := s.List(ctx, collection)
		if err != nil {
			return nil, err
		}
		h = feed.NewHub[[]Document]()
		h.Publish(docs)
		s.hubs[collection] = h
	}
	return h.Subscribe(ctx), nil
}

// Close ends every open watch.
func (s *DocumentStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, h := range s.hubs {
		h.Close()
		delete(s.hubs, name)
	}
}

// publish must be called with s.mu held.
func (s *DocumentStore) publish(ctx context.Context, collection string) {
	h, ok := s.hubs[collection]
	if !ok {
		return
	}
	docs, err := s.List(context.WithoutCancel(ctx), collection)
	if err != nil {
		slog.Error("failed to refresh watched collection", "collection", collection, "error", err)
		return
	}
	h.Publish(docs)
}

func fillDocument(doc *Document, data, created, updated string) error {
	doc.Data = json.RawMessage(data)
	var err error
	if doc.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return fmt.Errorf("failed to parse created_at: %w", err)
	}
	if doc.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return nil
}

func requireAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
