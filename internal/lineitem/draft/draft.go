// Package draft keeps an editable in-memory document whose totals follow
// every edit.
package draft

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/medbill/internal/lineitem/aggregate"
	"github.com/smallbiznis/medbill/internal/lineitem/calculator"
	"github.com/smallbiznis/medbill/internal/lineitem/domain"
	"github.com/smallbiznis/medbill/internal/lineitem/resolver"
)

// Resolver resolves one material number within a scope.
type Resolver interface {
	Resolve(ctx context.Context, materialNumber string, scope domain.Scope) (resolver.Result, error)
}

// Draft is safe for concurrent use. Catalog lookups run outside the lock; the
// stale guard discards a lookup once a newer one for the same row has begun.
type Draft struct {
	resolver Resolver
	tracker  *resolver.Tracker
	scope    domain.Scope
	tax      *domain.TaxContext

	mu    sync.Mutex
	items []domain.LineItem
	total decimal.Decimal
}

// New starts a draft over items, recalculating each of them.
func New(r Resolver, scope domain.Scope, tax *domain.TaxContext, items ...domain.LineItem) *Draft {
	d := &Draft{
		resolver: r,
		tracker:  resolver.NewTracker(),
		scope:    scope,
		tax:      tax,
	}
	var seeded []domain.LineItem
	for _, item := range items {
		seeded = aggregate.Append(seeded, calculator.Recalculate(item, tax))
	}
	d.commit(seeded)
	return d
}

// commit must be called with the lock held.
func (d *Draft) commit(items []domain.LineItem) {
	d.items = items
	d.total = aggregate.Total(items)
}

// AddRow appends a new line and returns it as stored. A row id already in the
// draft is rejected with domain.ErrDuplicateRow.
func (d *Draft) AddRow(item domain.LineItem) (domain.LineItem, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if item.RowID != "" && aggregate.IndexOfRow(d.items, item.RowID) >= 0 {
		return domain.LineItem{}, domain.ErrDuplicateRow
	}
	items := aggregate.Append(d.items, calculator.Recalculate(item, d.tax))
	d.commit(items)
	return items[len(items)-1], nil
}

// RemoveRow drops a line. A pending resolution for it is discarded.
func (d *Draft) RemoveRow(rowID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	items, err := aggregate.RemoveRow(d.items, rowID)
	if err != nil {
		return err
	}
	d.tracker.Forget(rowID)
	d.commit(items)
	return nil
}

// Move reorders a line by serial number.
func (d *Draft) Move(from, to int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	items, err := aggregate.Move(d.items, from, to)
	if err != nil {
		return err
	}
	d.commit(items)
	return nil
}

// Edit applies a field edit to a line. Locked fields of MASTER lines are ignored.
func (d *Draft) Edit(rowID string, edit domain.Edit) (domain.LineItem, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx := aggregate.IndexOfRow(d.items, rowID)
	if idx < 0 {
		return domain.LineItem{}, domain.ErrRowNotFound
	}
	items := append([]domain.LineItem(nil), d.items...)
	items[idx] = calculator.Recalculate(domain.ApplyEdit(items[idx], edit), d.tax)
	d.commit(items)
	return items[idx], nil
}

// SetMaterialNumber records a typed material number and resolves it. An
// unresolved number leaves the line in manual mode and returns the lookup error
// alongside the stored line.
//
// It returns domain.ErrStaleResolution when a later call for the same row
// (or its removal) overtook this one; the later call's outcome stands.
func (d *Draft) SetMaterialNumber(ctx context.Context, rowID, materialNumber string) (domain.LineItem, error) {
	d.mu.Lock()
	idx := aggregate.IndexOfRow(d.items, rowID)
	if idx < 0 {
		d.mu.Unlock()
		return domain.LineItem{}, domain.ErrRowNotFound
	}
	ticket := d.tracker.Begin(rowID, materialNumber)
	items := append([]domain.LineItem(nil), d.items...)
	items[idx].MaterialNumber = materialNumber
	d.commit(items)
	d.mu.Unlock()

	result, err := d.resolver.Resolve(ctx, materialNumber, d.scope)
	if err != nil && errors.Is(err, domain.ErrInvalidHospital) {
		return domain.LineItem{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.tracker.Current(ticket) {
		return domain.LineItem{}, domain.ErrStaleResolution
	}
	idx = aggregate.IndexOfRow(d.items, rowID)
	if idx < 0 {
		return domain.LineItem{}, domain.ErrStaleResolution
	}

	items = append([]domain.LineItem(nil), d.items...)
	if err != nil {
		items[idx] = resolver.Unresolved(items[idx])
	} else {
		items[idx] = resolver.Merge(items[idx], result)
	}
	items[idx] = calculator.Recalculate(items[idx], d.tax)
	d.commit(items)
	return items[idx], err
}

// Items returns a copy of the current lines in serial order.
func (d *Draft) Items() []domain.LineItem {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]domain.LineItem(nil), d.items...)
}

// Snapshot is a consistent view of a draft.
type Snapshot struct {
	Scope domain.Scope
	Tax   *domain.TaxContext
	Items []domain.LineItem
	Total decimal.Decimal
}

// Snapshot returns the lines and total as of the same mutation.
func (d *Draft) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	return Snapshot{
		Scope: d.scope,
		Tax:   d.tax,
		Items: append([]domain.LineItem(nil), d.items...),
		Total: d.total,
	}
}

// Total returns the document total as of the last mutation.
func (d *Draft) Total() decimal.Decimal {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.total
}
