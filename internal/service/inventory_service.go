package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/vbonduro/jdginv/internal/domain"
	"github.com/vbonduro/jdginv/internal/feed"
	"github.com/vbonduro/jdginv/internal/inventory"
	"github.com/vbonduro/jdginv/internal/store"
)

const (
	PromptDelete    = "Are you sure you want to delete this item?"
	PromptDeleteAll = "Delete ALL items?"

	defaultConfirmTTL = 5 * time.Minute
	defaultRetry      = 2 * time.Second
)

// itemRepository is the subset of store.ItemStore that InventoryService requires.
type itemRepository interface {
	Create(ctx context.Context, f domain.Fields) (*domain.Item, error)
	List(ctx context.Context) ([]domain.Item, error)
	Update(ctx context.Context, id string, f domain.Fields) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	Watch(ctx context.Context) (<-chan []domain.Item, error)
}

// reportRepository is the subset of store.ReportLogStore that InventoryService requires.
type reportRepository interface {
	Append(ctx context.Context, entry domain.LogEntry) (*domain.LogEntry, error)
	List(ctx context.Context) ([]domain.LogEntry, error)
	Watch(ctx context.Context) (<-chan []domain.LogEntry, error)
}

// Snapshot is everything a view needs to render the inventory.
type Snapshot struct {
	Items  []domain.Item
	Report *domain.Report
	Log    []domain.LogEntry
}

// InventoryService owns the in-memory inventory collection. In connected mode
// every write goes to the document store first and the local collection is
// only replaced after the store accepted it; in local mode the collection is
// the only copy.
type InventoryService struct {
	items   itemRepository
	reports reportRepository
	logger  *slog.Logger
	now     func() time.Time
	retry   time.Duration

	mu      sync.Mutex
	state   inventory.Collection
	log     []domain.LogEntry
	pending *inventory.Confirmations
	lastID  int64
	changes *feed.Hub[Snapshot]
}

// NewLocalInventoryService keeps the inventory in memory only.
func NewLocalInventoryService(logger *slog.Logger) *InventoryService {
	return newInventoryService(nil, nil, logger)
}

// NewInventoryService writes through to the given repositories. Call Run to
// keep the collection in sync with changes made elsewhere.
func NewInventoryService(items itemRepository, reports reportRepository, logger *slog.Logger) *InventoryService {
	return newInventoryService(items, reports, logger)
}

func newInventoryService(items itemRepository, reports reportRepository, logger *slog.Logger) *InventoryService {
	s := &InventoryService{
		items:   items,
		reports: reports,
		logger:  logger,
		now:     time.Now,
		retry:   defaultRetry,
		pending: inventory.NewConfirmations(defaultConfirmTTL),
		changes: feed.NewHub[Snapshot](),
	}
	s.changes.Publish(Snapshot{})
	return s
}

// SetRetry sets the wait between feed resubscriptions.
func (s *InventoryService) SetRetry(d time.Duration) {
	if d > 0 {
		s.retry = d
	}
}

// Connected reports whether writes go to the document store.
func (s *InventoryService) Connected() bool {
	return s.items != nil
}

func (s *InventoryService) Add(ctx context.Context, user string, f domain.Fields) (domain.Item, error) {
	if err := inventory.Validate(f); err != nil {
		return domain.Item{}, err
	}
	if !s.Connected() {
		return s.addLocal(f)
	}

	item, err := s.items.Create(ctx, f)
	if err != nil {
		s.logger.Error("failed to add item", "name", f.Name, "error", err)
		return domain.Item{}, fmt.Errorf("failed to add item: %w", err)
	}
	if err := s.appendLog(ctx, domain.ActionAdd, *item, user); err != nil {
		return domain.Item{}, err
	}
	s.settle(ctx, func(c inventory.Collection) (inventory.Collection, error) {
		return c.Add(item.ID, f)
	})
	s.logger.Info("item added", "id", item.ID, "user", user)
	return *item, nil
}

func (s *InventoryService) addLocal(f domain.Fields) (domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID()
	next, err := s.state.Add(id, f)
	if err != nil {
		return domain.Item{}, err
	}
	s.state = next
	s.publishLocked()
	item, _ := next.Get(id)
	return item, nil
}

// nextID derives an id from the clock, bumping it until it is unused.
// Callers hold s.mu.
func (s *InventoryService) nextID() string {
	n := s.now().UnixNano()
	if n <= s.lastID {
		n = s.lastID + 1
	}
	for {
		id := strconv.FormatInt(n, 10)
		if _, taken := s.state.Get(id); !taken {
			s.lastID = n
			return id
		}
		n++
	}
}

func (s *InventoryService) Update(ctx context.Context, user, id string, f domain.Fields) (domain.Item, error) {
	if err := inventory.Validate(f); err != nil {
		return domain.Item{}, err
	}

	if !s.Connected() {
		s.mu.Lock()
		defer s.mu.Unlock()
		next, err := s.state.Update(id, f)
		if err != nil {
			return domain.Item{}, err
		}
		s.state = next
		item, _ := next.Get(id)
		s.publishLocked()
		return item, nil
	}

	// The store decides whether id exists; the local copy may not have
	// caught up with items written by other clients.
	if err := s.items.Update(ctx, id, f); err != nil {
		s.logger.Error("failed to update item", "id", id, "error", err)
		if errors.Is(err, store.ErrNotFound) {
			return domain.Item{}, fmt.Errorf("%w: %s", inventory.ErrNotFound, id)
		}
		return domain.Item{}, fmt.Errorf("failed to update item: %w", err)
	}
	item := domain.Item{ID: id, Name: f.Name, Date: f.Date, Price: f.Price}
	if err := s.appendLog(ctx, domain.ActionUpdate, item, user); err != nil {
		return domain.Item{}, err
	}
	s.settle(ctx, func(c inventory.Collection) (inventory.Collection, error) {
		return c.Update(id, f)
	})
	s.logger.Info("item updated", "id", id, "user", user)
	return item, nil
}

func (s *InventoryService) appendLog(ctx context.Context, action domain.Action, item domain.Item, user string) error {
	if s.reports == nil {
		return nil
	}
	entry := domain.LogEntry{
		Action:    action,
		ItemID:    item.ID,
		Name:      item.Name,
		Date:      item.Date,
		Price:     item.Price,
		User:      user,
		Timestamp: s.now().UTC(),
	}
	if _, err := s.reports.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append report entry", "item_id", item.ID, "action", action, "error", err)
		return fmt.Errorf("failed to append report entry: %w", err)
	}
	return nil
}

// settle brings local state up to date after an accepted add or update. The
// write already happened, so a failed re-read is not the caller's error: the
// change is applied locally and the feed corrects it later.
func (s *InventoryService) settle(ctx context.Context, apply func(inventory.Collection) (inventory.Collection, error)) {
	if err := s.refresh(ctx, true); err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if next, err := apply(s.state); err == nil {
		s.state = next
	}
	s.state.Report = nil
	s.publishLocked()
}

// refresh re-reads the remote collection into local state. clearReport drops
// the current report, which is what adds and updates do.
func (s *InventoryService) refresh(ctx context.Context, clearReport bool) error {
	items, err := s.items.List(ctx)
	if err != nil {
		s.logger.Error("failed to reload items", "error", err)
		return fmt.Errorf("failed to reload items: %w", err)
	}
	var log []domain.LogEntry
	if s.reports != nil {
		if log, err = s.reports.List(ctx); err != nil {
			s.logger.Error("failed to reload report log", "error", err)
			return fmt.Errorf("failed to reload report log: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.state.Replace(items)
	if clearReport {
		s.state.Report = nil
	}
	if s.reports != nil {
		s.log = log
	}
	s.publishLocked()
	return nil
}

// RequestDelete starts the confirmation for deleting one item.
func (s *InventoryService) RequestDelete(id string) inventory.Pending {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.Request(inventory.PendingDelete, id, PromptDelete, s.now())
}

// RequestDeleteAll starts the confirmation for emptying the inventory.
func (s *InventoryService) RequestDeleteAll() inventory.Pending {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.Request(inventory.PendingDeleteAll, "", PromptDeleteAll, s.now())
}

// Confirm runs the operation behind token. An unknown or expired token
// returns inventory.ErrUnknownToken and changes nothing.
func (s *InventoryService) Confirm(ctx context.Context, token string) (inventory.Pending, error) {
	s.mu.Lock()
	p, err := s.pending.Resolve(token, s.now())
	s.mu.Unlock()
	if err != nil {
		return inventory.Pending{}, err
	}

	switch p.Kind {
	case inventory.PendingDelete:
		err = s.delete(ctx, p.ItemID)
	case inventory.PendingDeleteAll:
		err = s.deleteAll(ctx)
	default:
		err = fmt.Errorf("unknown confirmation kind %q", p.Kind)
	}
	return p, err
}

// Cancel drops a pending confirmation.
func (s *InventoryService) Cancel(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.Cancel(token)
}

func (s *InventoryService) delete(ctx context.Context, id string) error {
	if !s.Connected() {
		s.mu.Lock()
		s.state = s.state.Delete(id)
		s.publishLocked()
		s.mu.Unlock()
		return nil
	}

	if err := s.items.Delete(ctx, id); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Error("failed to delete item", "id", id, "error", err)
			return fmt.Errorf("failed to delete item: %w", err)
		}
		s.logger.Debug("item already gone", "id", id)
	}
	s.logger.Info("item deleted", "id", id)
	return s.refresh(ctx, false)
}

func (s *InventoryService) deleteAll(ctx context.Context) error {
	if !s.Connected() {
		s.mu.Lock()
		s.state = s.state.DeleteAll()
		s.publishLocked()
		s.mu.Unlock()
		return nil
	}

	if err := s.items.DeleteAll(ctx); err != nil {
		s.logger.Error("failed to delete all items", "error", err)
		return fmt.Errorf("failed to delete all items: %w", err)
	}
	s.logger.Info("all items deleted")
	return s.refresh(ctx, false)
}

func (s *InventoryService) Items() []domain.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.state.Items)
}

func (s *InventoryService) Get(id string) (domain.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Get(id)
}

func (s *InventoryService) Search(query string) []domain.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Search(query)
}

// GenerateReport summarises the current collection. It returns nil when the
// collection is empty and no earlier report exists.
func (s *InventoryService) GenerateReport() *domain.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Len() == 0 {
		return s.state.Report
	}
	s.state = s.state.GenerateReport(s.now())
	s.publishLocked()
	return s.state.Report
}

func (s *InventoryService) Report() *domain.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Report
}

// ReportLog returns the add/update history, newest first. It is always empty
// in local mode.
func (s *InventoryService) ReportLog() []domain.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.log)
}

func (s *InventoryService) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe delivers the current snapshot and then one after every change,
// until ctx is done.
func (s *InventoryService) Subscribe(ctx context.Context) <-chan Snapshot {
	return s.changes.Subscribe(ctx)
}

// Run keeps the collection and report log in sync with the document store
// until ctx is done. It is a no-op in local mode.
func (s *InventoryService) Run(ctx context.Context) {
	if !s.Connected() {
		<-ctx.Done()
		s.changes.Close()
		return
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		feed.Consume(ctx, "inventory", s.items.Watch, s.applyItems, s.retry, s.logger)
	}()
	if s.reports != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			feed.Consume(ctx, "reports", s.reports.Watch, s.applyLog, s.retry, s.logger)
		}()
	}
	wg.Wait()
	s.changes.Close()
}

func (s *InventoryService) applyItems(items []domain.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.state.Replace(items)
	s.publishLocked()
}

func (s *InventoryService) applyLog(log []domain.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = log
	s.publishLocked()
}

func (s *InventoryService) publishLocked() {
	s.changes.Publish(s.snapshotLocked())
}

func (s *InventoryService) snapshotLocked() Snapshot {
	return Snapshot{
		Items:  slices.Clone(s.state.Items),
		Report: s.state.Report,
		Log:    slices.Clone(s.log),
	}
}
