// Package inventory holds the inventory state rules. Every operation is a
// reducer: it takes a Collection value and returns a new one, leaving the
// receiver untouched.
package inventory

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/vbonduro/jdginv/internal/domain"
)

var (
	ErrNotFound    = errors.New("item not found")
	ErrDuplicateID = errors.New("item id already in use")
)

// Collection is the current item list plus the last generated report. Report
// is nil when no report has been generated or the last one went stale.
type Collection struct {
	Items  []domain.Item
	Report *domain.Report
}

func (c Collection) Len() int {
	return len(c.Items)
}

func (c Collection) Get(id string) (domain.Item, bool) {
	if i := c.index(id); i >= 0 {
		return c.Items[i], true
	}
	return domain.Item{}, false
}

// Add appends a new item with the given id. Any prior report is cleared.
func (c Collection) Add(id string, f domain.Fields) (Collection, error) {
	if err := Validate(f); err != nil {
		return c, err
	}
	if c.index(id) >= 0 {
		return c, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	items := make([]domain.Item, 0, len(c.Items)+1)
	items = append(items, c.Items...)
	items = append(items, domain.Item{ID: id, Name: f.Name, Date: f.Date, Price: f.Price})
	return Collection{Items: items}, nil
}

// Update replaces name, date and price of the item with the given id, keeping
// its id and position. Any prior report is cleared.
func (c Collection) Update(id string, f domain.Fields) (Collection, error) {
	if err := Validate(f); err != nil {
		return c, err
	}
	i := c.index(id)
	if i < 0 {
		return c, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	items := slices.Clone(c.Items)
	items[i] = domain.Item{ID: id, Name: f.Name, Date: f.Date, Price: f.Price}
	return Collection{Items: items}, nil
}

// Delete removes the item with the given id. Unknown ids are a no-op.
func (c Collection) Delete(id string) Collection {
	i := c.index(id)
	if i < 0 {
		return c
	}
	items := make([]domain.Item, 0, len(c.Items)-1)
	items = append(items, c.Items[:i]...)
	items = append(items, c.Items[i+1:]...)
	return Collection{Items: items, Report: c.Report}
}

func (c Collection) DeleteAll() Collection {
	return Collection{Report: c.Report}
}

// Replace swaps in a full snapshot delivered by a feed.
func (c Collection) Replace(items []domain.Item) Collection {
	return Collection{Items: slices.Clone(items), Report: c.Report}
}

// Search returns the items whose name or date contains query ignoring case,
// or whose price contains query verbatim. Order is preserved.
func (c Collection) Search(query string) []domain.Item {
	if query == "" {
		return slices.Clone(c.Items)
	}
	lower := strings.ToLower(query)
	var out []domain.Item
	for _, it := range c.Items {
		if strings.Contains(strings.ToLower(it.Name), lower) ||
			strings.Contains(strings.ToLower(it.Date), lower) ||
			strings.Contains(it.Price, query) {
			out = append(out, it)
		}
	}
	return out
}

// GenerateReport computes a fresh report. On an empty collection it is a
// no-op and any existing report is kept.
func (c Collection) GenerateReport(now time.Time) Collection {
	if len(c.Items) == 0 {
		return c
	}
	r := &domain.Report{
		TotalItems:  len(c.Items),
		TotalValue:  TotalValue(c.Items),
		LatestItem:  c.Items[len(c.Items)-1],
		GeneratedAt: now,
	}
	return Collection{Items: c.Items, Report: r}
}

func (c Collection) index(id string) int {
	return slices.IndexFunc(c.Items, func(it domain.Item) bool { return it.ID == id })
}
