// Package listview owns the pagination, filter and sort state of the products
// list and derives what to request and what to show from it.
package listview

import (
	"net/url"
	"strconv"

	"deposit-dashboard/internal/apiclient"
	"deposit-dashboard/internal/deposit"
	"deposit-dashboard/internal/querycache"
)

const (
	ProductsResource = "products"
	DefaultPageSize  = 5
)

var PageSizes = []int{5, 10, 20, 50}

type Filter string

const (
	FilterAll      Filter = "all"
	FilterActive   Filter = "active"
	FilterInactive Filter = "inactive"
)

func (f Filter) valid() bool {
	return f == FilterAll || f == FilterActive || f == FilterInactive
}

// Active maps the filter to the tri-state active request parameter.
func (f Filter) Active() *bool {
	switch f {
	case FilterActive:
		v := true
		return &v
	case FilterInactive:
		v := false
		return &v
	default:
		return nil
	}
}

type State struct {
	Page      int
	PageSize  int
	Filter    Filter
	SortField deposit.SortField
	SortOrder deposit.SortOrder
}

func DefaultState() State {
	return State{
		Page:      1,
		PageSize:  DefaultPageSize,
		Filter:    FilterAll,
		SortField: deposit.SortNone,
		SortOrder: deposit.OrderAsc,
	}
}

type RequestParams struct {
	Page   int
	Limit  int
	Active *bool
	Sort   deposit.SortField
	Order  deposit.SortOrder
}

func (s State) RequestParams() RequestParams {
	return RequestParams{
		Page:   s.Page,
		Limit:  s.PageSize,
		Active: s.Filter.Active(),
		Sort:   s.SortField,
		Order:  s.SortOrder,
	}
}

func (p RequestParams) Query() deposit.ProductQuery {
	return deposit.ProductQuery{
		Page:   p.Page,
		Limit:  p.Limit,
		Active: p.Active,
		Sort:   p.Sort,
		Order:  p.Order,
	}
}

func (p RequestParams) Values() url.Values {
	return apiclient.ProductQueryValues(p.Query())
}

// Key is the cache key for these parameters.
func (p RequestParams) Key() querycache.Key {
	return querycache.NewKey(ProductsResource, p.Values())
}

// Controller mutates list state. Every parameter change other than the page
// itself resets the page to 1.
type Controller struct {
	state      State
	totalPages int
}

func New(state State) *Controller {
	return &Controller{state: normalize(state)}
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) SetFilter(f Filter) {
	if !f.valid() {
		f = FilterAll
	}
	c.state.Filter = f
	c.resetPage()
}

// SetSortField flips the order when s is already the sort field, otherwise
// switches to s in ascending order.
func (c *Controller) SetSortField(s deposit.SortField) {
	if !s.Valid() {
		return
	}
	if c.state.SortField == s {
		c.state.SortOrder = flip(c.state.SortOrder)
	} else {
		c.state.SortField = s
		c.state.SortOrder = deposit.OrderAsc
	}
	c.resetPage()
}

func (c *Controller) SetSortOrder(o deposit.SortOrder) {
	if !o.Valid() {
		return
	}
	c.state.SortOrder = o
	c.resetPage()
}

func (c *Controller) SetPageSize(n int) {
	if n <= 0 {
		return
	}
	c.state.PageSize = n
	c.resetPage()
}

// SetPage moves to p, clamped to [1, totalPages] once the total is known.
func (c *Controller) SetPage(p int) {
	c.state.Page = c.clamp(p)
}

// SyncPagination records the server's page count and re-clamps the current page.
func (c *Controller) SyncPagination(p deposit.Pagination) {
	c.totalPages = p.TotalPages
	c.state.Page = c.clamp(c.state.Page)
}

func (c *Controller) TotalPages() int {
	return c.totalPages
}

func (c *Controller) CurrentRequestParams() RequestParams {
	return c.state.RequestParams()
}

func (c *Controller) ResolveVisibleItems(snap querycache.Snapshot) View {
	return Resolve(c.state, snap)
}

func (c *Controller) resetPage() {
	c.state.Page = 1
	c.totalPages = 0
}

func (c *Controller) clamp(p int) int {
	if c.totalPages > 0 && p > c.totalPages {
		p = c.totalPages
	}
	if p < 1 {
		p = 1
	}
	return p
}

func flip(o deposit.SortOrder) deposit.SortOrder {
	if o == deposit.OrderAsc {
		return deposit.OrderDesc
	}
	return deposit.OrderAsc
}

func normalize(s State) State {
	def := DefaultState()
	if s.Page < 1 {
		s.Page = def.Page
	}
	if s.PageSize <= 0 {
		s.PageSize = def.PageSize
	}
	if !s.Filter.valid() {
		s.Filter = def.Filter
	}
	if !s.SortField.Valid() {
		s.SortField = def.SortField
	}
	if !s.SortOrder.Valid() {
		s.SortOrder = def.SortOrder
	}
	return s
}

// FromQuery decodes list state from dashboard URL parameters. Unknown or
// malformed values fall back to defaults; page sizes are limited to PageSizes.
func FromQuery(q url.Values) State {
	s := DefaultState()
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		s.Page = page
	}
	if size, err := strconv.Atoi(q.Get("size")); err == nil && allowedPageSize(size) {
		s.PageSize = size
	}
	if f := Filter(q.Get("filter")); f.valid() {
		s.Filter = f
	}
	if sort := deposit.SortField(q.Get("sort")); sort.Valid() {
		s.SortField = sort
	}
	if order := deposit.SortOrder(q.Get("order")); order.Valid() {
		s.SortOrder = order
	}
	return s
}

// Query encodes the state for dashboard links, leaving defaults out.
func (s State) Query() url.Values {
	def := DefaultState()
	q := url.Values{}
	if s.Page != def.Page {
		q.Set("page", strconv.Itoa(s.Page))
	}
	if s.PageSize != def.PageSize {
		q.Set("size", strconv.Itoa(s.PageSize))
	}
	if s.Filter != def.Filter {
		q.Set("filter", string(s.Filter))
	}
	if s.SortField != def.SortField {
		q.Set("sort", string(s.SortField))
	}
	if s.SortOrder != def.SortOrder {
		q.Set("order", string(s.SortOrder))
	}
	return q
}

func allowedPageSize(n int) bool {
	for _, size := range PageSizes {
		if n == size {
			return true
		}
	}
	return false
}
