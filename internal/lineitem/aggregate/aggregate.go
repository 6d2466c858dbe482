// Package aggregate maintains the ordered line list of a document and its total.
package aggregate

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/medbill/internal/lineitem/calculator"
	"github.com/smallbiznis/medbill/internal/lineitem/domain"
)

// Total sums the line totals of items. An empty document totals zero.
func Total(items []domain.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Amounts.TotalAmount)
	}
	return calculator.Round2(sum)
}

// NewRowID returns a fresh row identifier.
func NewRowID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// Append adds item at the end of items. Missing row ids and currency are filled.
func Append(items []domain.LineItem, item domain.LineItem) []domain.LineItem {
	if item.RowID == "" {
		item.RowID = NewRowID()
	}
	if item.Currency == "" {
		item.Currency = domain.DefaultCurrency
	}
	if item.Source == "" {
		item.Source = domain.SourceManual
	}
	out := make([]domain.LineItem, 0, len(items)+1)
	out = append(out, items...)
	out = append(out, item)
	return Renumber(out)
}

// Remove drops the line with the given serial number and renumbers the rest.
func Remove(items []domain.LineItem, serial int) ([]domain.LineItem, error) {
	idx := indexOfSerial(items, serial)
	if idx < 0 {
		return nil, domain.ErrRowNotFound
	}
	return removeAt(items, idx), nil
}

// RemoveRow drops the line with the given row id and renumbers the rest.
func RemoveRow(items []domain.LineItem, rowID string) ([]domain.LineItem, error) {
	idx := IndexOfRow(items, rowID)
	if idx < 0 {
		return nil, domain.ErrRowNotFound
	}
	return removeAt(items, idx), nil
}

// Move relocates the line at serial from to serial to and renumbers.
func Move(items []domain.LineItem, from, to int) ([]domain.LineItem, error) {
	src := indexOfSerial(items, from)
	if src < 0 || to < 1 || to > len(items) {
		return nil, domain.ErrRowNotFound
	}
	moved := items[src]
	out := removeAt(items, src)
	dst := to - 1

	result := make([]domain.LineItem, 0, len(items))
	result = append(result, out[:dst]...)
	result = append(result, moved)
	result = append(result, out[dst:]...)
	return Renumber(result), nil
}

// Renumber assigns serial numbers 1..n in slice order.
func Renumber(items []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, len(items))
	copy(out, items)
	for i := range out {
		out[i].SerialNumber = i + 1
	}
	return out
}

// IndexOfRow returns the slice index of rowID, or -1.
func IndexOfRow(items []domain.LineItem, rowID string) int {
	for i := range items {
		if items[i].RowID == rowID {
			return i
		}
	}
	return -1
}

func indexOfSerial(items []domain.LineItem, serial int) int {
	for i := range items {
		if items[i].SerialNumber == serial {
			return i
		}
	}
	return -1
}

func removeAt(items []domain.LineItem, idx int) []domain.LineItem {
	out := make([]domain.LineItem, 0, len(items)-1)
	out = append(out, items[:idx]...)
	out = append(out, items[idx+1:]...)
	return Renumber(out)
}
