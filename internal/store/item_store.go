package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vbonduro/jdginv/internal/domain"
)

// ItemStore is the inventory collection of the document store.
type ItemStore struct {
	docs *DocumentStore
}

func NewItemStore(docs *DocumentStore) *ItemStore {
	return &ItemStore{docs: docs}
}

func (s *ItemStore) Create(ctx context.Context, f domain.Fields) (*domain.Item, error) {
	id, err := s.docs.Create(ctx, CollectionInventory, f)
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return &domain.Item{ID: id, Name: f.Name, Date: f.Date, Price: f.Price}, nil
}

func (s *ItemStore) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	doc, err := s.docs.Get(ctx, CollectionInventory, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	if doc == nil {
		return nil, nil
	}
	item, err := decodeItem(*doc)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *ItemStore) List(ctx context.Context) ([]domain.Item, error) {
	docs, err := s.docs.List(ctx, CollectionInventory)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return decodeItems(docs)
}

func (s *ItemStore) Update(ctx context.Context, id string, f domain.Fields) error {
	if err := s.docs.Update(ctx, CollectionInventory, id, f); err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return nil
}

func (s *ItemStore) Delete(ctx context.Context, id string) error {
	if err := s.docs.Delete(ctx, CollectionInventory, id); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

func (s *ItemStore) DeleteAll(ctx context.Context) error {
	if err := s.docs.DeleteAll(ctx, CollectionInventory); err != nil {
		return fmt.Errorf("failed to delete items: %w", err)
	}
	return nil
}

// Watch delivers the whole inventory on subscribe and after every change.
func (s *ItemStore) Watch(ctx context.Context) (<-chan []domain.Item, error) {
	docs, err := s.docs.Watch(ctx, CollectionInventory)
	if err != nil {
		return nil, fmt.Errorf("failed to watch items: %w", err)
	}
	return decodeStream(ctx, docs, decodeItems), nil
}

func decodeItem(doc Document) (domain.Item, error) {
	var f domain.Fields
	if err := json.Unmarshal(doc.Data, &f); err != nil {
		return domain.Item{}, fmt.Errorf("failed to decode item %s: %w", doc.ID, err)
	}
	return domain.Item{ID: doc.ID, Name: f.Name, Date: f.Date, Price: f.Price}, nil
}

func decodeItems(docs []Document) ([]domain.Item, error) {
	items := make([]domain.Item, 0, len(docs))
	for _, doc := range docs {
		item, err := decodeItem(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
