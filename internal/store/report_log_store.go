package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/vbonduro/jdginv/internal/domain"
)

// ReportLogStore is the append-only reports collection.
type ReportLogStore struct {
	docs *DocumentStore
}

func NewReportLogStore(docs *DocumentStore) *ReportLogStore {
	return &ReportLogStore{docs: docs}
}

func (s *ReportLogStore) Append(ctx context.Context, entry domain.LogEntry) (*domain.LogEntry, error) {
	id, err := s.docs.Create(ctx, CollectionReports, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to append report entry: %w", err)
	}
	entry.ID = id
	return &entry, nil
}

// List returns the log newest first.
func (s *ReportLogStore) List(ctx context.Context) ([]domain.LogEntry, error) {
	docs, err := s.docs.List(ctx, CollectionReports)
	if err != nil {
		return nil, fmt.Errorf("failed to list report entries: %w", err)
	}
	return decodeEntries(docs)
}

func (s *ReportLogStore) Watch(ctx context.Context) (<-chan []domain.LogEntry, error) {
	docs, err := s.docs.Watch(ctx, CollectionReports)
	if err != nil {
		return nil, fmt.Errorf("failed to watch report entries: %w", err)
	}
	return decodeStream(ctx, docs, decodeEntries), nil
}

func decodeEntries(docs []Document) ([]domain.LogEntry, error) {
	entries := make([]domain.LogEntry, 0, len(docs))
	for _, doc := range docs {
		var e domain.LogEntry
		if err := json.Unmarshal(doc.Data, &e); err != nil {
			return nil, fmt.Errorf("failed to decode report entry %s: %w", doc.ID, err)
		}
		e.ID = doc.ID
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}
