package models

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	// FilterAll is the sentinel filter value meaning "do not filter".
	FilterAll = "ALL"

	DefaultPage   = 1
	DefaultLimit  = 50
	MaxLimit      = 200
	DefaultSortBy = "server_name"

	// MaxPage keeps (page-1)*limit inside int for every allowed limit.
	MaxPage = math.MaxInt / MaxLimit
)

// SortColumns is the allow-list of columns the list may be ordered by.
var SortColumns = map[string]bool{
	"server_name":      true,
	"ip_address":       true,
	"application_name": true,
	"status":           true,
	"power_state":      true,
}

// SearchColumns are matched, OR-combined, against the free-text query.
var SearchColumns = []string{"server_name", "ip_address", "application_name"}

// FilterColumns maps list query parameters to the column they filter on.
// The order is the order predicates appear in the WHERE clause.
var FilterColumns = []struct {
	Param  string
	Column string
}{
	{"location", "location"},
	{"env", "system_environment"},
	{"status", "status"},
	{"power", "power_state"},
	{"critical", "critical_app"},
}

// ListQuery is a normalised request for one page of the inventory.
type ListQuery struct {
	Search string
	// Filters holds the active equality filters keyed by column name.
	// Sentinel and empty values never appear here.
	Filters  map[string]string
	Page     int
	Limit    int
	SortBy   string
	SortDesc bool
}

// Offset returns the number of rows skipped before the requested page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// ParseListQuery reads the list parameters from v, applying defaults and
// clamping out-of-range values. It never fails: anything unusable falls back
// to its default.
func ParseListQuery(v url.Values) ListQuery {
	q := ListQuery{
		Search:  strings.TrimSpace(v.Get("q")),
		Filters: map[string]string{},
		Page:    clampPage(v.Get("page")),
		Limit:   clampLimit(v.Get("limit")),
		SortBy:  DefaultSortBy,
	}
	for _, f := range FilterColumns {
		if val := v.Get(f.Param); val != "" && val != FilterAll {
			q.Filters[f.Column] = val
		}
	}
	if sb := v.Get("sortBy"); SortColumns[sb] {
		q.SortBy = sb
	}
	q.SortDesc = strings.EqualFold(v.Get("sortDir"), "desc")
	return q
}

func clampPage(s string) int {
	n, err := atoiSaturating(s)
	if err != nil || n == 0 {
		return DefaultPage
	}
	return min(MaxPage, max(1, n))
}

func clampLimit(s string) int {
	n, err := atoiSaturating(s)
	if err != nil || n == 0 {
		return DefaultLimit
	}
	return min(MaxLimit, max(1, n))
}

// atoiSaturating parses s as a decimal int. Values beyond the int range come
// back as math.MaxInt or math.MinInt rather than as an error.
func atoiSaturating(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if errors.Is(err, strconv.ErrRange) {
		return n, nil
	}
	return n, err
}

// PageMeta is the pagination envelope returned alongside a page of results.
type PageMeta struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	TotalItems  int  `json:"totalItems"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// NewPageMeta computes the envelope for page/limit given the total number of
// matching rows. There is always at least one page, even when empty.
func NewPageMeta(page, limit, totalItems int) PageMeta {
	totalPages := 1
	if limit > 0 && totalItems > 0 {
		totalPages = (totalItems + limit - 1) / limit
	}
	return PageMeta{
		Page:        page,
		Limit:       limit,
		TotalItems:  totalItems,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
}

// ServerPage is the body of GET /api/servers.
type ServerPage struct {
	Items []ServerSummary `json:"items"`
	Meta  PageMeta        `json:"meta"`
}
