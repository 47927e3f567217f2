package report

import (
	"slices"  // Membership checks
	"strconv" // Query parameter parsing
	"strings" // Cache key assembly
	"time"    // Date bounds

	"blangkis/internal/domain" // Domain models
)

// PaidStatuses are the order statuses that count as revenue
var PaidStatuses = []string{
	domain.StatusDibayar,
	domain.StatusPembayaranDiterima,
	domain.StatusTerkirim,
}

// IsPaid reports whether an order in the given status has reached a paid-or-beyond state
func IsPaid(status string) bool {
	return slices.Contains(PaidStatuses, status)
}

// Filter narrows the orders a report looks at. Zero values mean "no filter".
type Filter struct {
	Start     *time.Time // Inclusive lower bound on CreatedAt
	End       *time.Time // Inclusive upper bound on CreatedAt
	Status    string     // Exact status match
	UserID    uint       // Buyer
	ProductID uint       // Line-item level product filter
}

// Location is the calendar used for date bounds and month buckets
var Location = time.UTC

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}

// ParseFilter builds a Filter from raw query parameters.
// Unparseable values disable the corresponding filter instead of failing the request.
func ParseFilter(start, end, status, user, product string) Filter {
	f := Filter{Status: strings.TrimSpace(status)}
	if t, ok := parseBound(start, false); ok {
		f.Start = &t
	}
	if t, ok := parseBound(end, true); ok {
		f.End = &t
	}
	if id, err := strconv.ParseUint(strings.TrimSpace(user), 10, 64); err == nil {
		f.UserID = uint(id)
	}
	if id, err := strconv.ParseUint(strings.TrimSpace(product), 10, 64); err == nil {
		f.ProductID = uint(id)
	}
	return f
}

// parseBound parses a date string. A date-only upper bound covers the whole day.
func parseBound(raw string, upper bool) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, raw, Location)
		if err != nil {
			continue
		}
		if upper && layout == "2006-01-02" {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return t, true
	}
	return time.Time{}, false
}

// MatchOrder applies the paid gate, the date range and the status/user equality filters
func (f Filter) MatchOrder(o domain.Order) bool {
	if !IsPaid(o.Status) {
		return false
	}
	if f.Start != nil && o.CreatedAt.Before(*f.Start) {
		return false
	}
	if f.End != nil && o.CreatedAt.After(*f.End) {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.UserID != 0 && o.UserID != f.UserID {
		return false
	}
	return true
}

// Items returns the line items of o that survive the product filter
func (f Filter) Items(o domain.Order) []domain.OrderItem {
	if f.ProductID == 0 {
		return o.Items
	}
	var items []domain.OrderItem
	for _, it := range o.Items {
		if it.ProductID == f.ProductID {
			items = append(items, it)
		}
	}
	return items
}

// CacheKey is a stable representation of the filter for cache keys
func (f Filter) CacheKey() string {
	var b strings.Builder
	if f.Start != nil {
		b.WriteString("s=" + strconv.FormatInt(f.Start.Unix(), 10))
	}
	if f.End != nil {
		b.WriteString(":e=" + strconv.FormatInt(f.End.Unix(), 10))
	}
	b.WriteString(":st=" + f.Status)
	b.WriteString(":u=" + strconv.FormatUint(uint64(f.UserID), 10))
	b.WriteString(":p=" + strconv.FormatUint(uint64(f.ProductID), 10))
	return b.String()
}
