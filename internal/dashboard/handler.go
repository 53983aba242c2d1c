package dashboard

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"deposit-dashboard/internal/apiclient"
	"deposit-dashboard/internal/deposit"
	"deposit-dashboard/internal/listview"
	"deposit-dashboard/internal/querycache"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const (
	defaultRenderWait = 1500 * time.Millisecond
	defaultKeepAlive  = 15 * time.Second

	failedToCreate       = "Failed to create product"
	failedToLoadRecent   = "Failed to load recent products"
	createdNoticePrefix  = "Successfully created product: "
	noticeKindSuccess    = "success"
	noticeKindError      = "error"
	productsPath         = "/products"
	productsEventsPath   = "/products/events"
	healthStatusOK       = "ok"
	healthStatusDegraded = "unhealthy"
)

type Options struct {
	// RenderWait bounds how long a page waits for its queries before it
	// renders their loading state.
	RenderWait time.Duration
	// KeepAlive is the comment interval on idle event streams.
	KeepAlive  time.Duration
	NewProduct func() deposit.NewProduct
}

type Handler struct {
	api        API
	cache      *querycache.Cache
	logger     *slog.Logger
	renderWait time.Duration
	keepAlive  time.Duration
	newProduct func() deposit.NewProduct
}

func NewHandler(api API, cache *querycache.Cache, logger *slog.Logger, opts Options) *Handler {
	if opts.RenderWait <= 0 {
		opts.RenderWait = defaultRenderWait
	}
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = defaultKeepAlive
	}
	if opts.NewProduct == nil {
		opts.NewProduct = RandomProduct
	}
	return &Handler{
		api:        api,
		cache:      cache,
		logger:     logger,
		renderWait: opts.RenderWait,
		keepAlive:  opts.KeepAlive,
		newProduct: opts.NewProduct,
	}
}

// Layout carries the fields the shared header reads.
type Layout struct {
	Title string
	Nav   string
	// Refresh asks the browser to reload shortly, set while any section is still loading.
	Refresh bool
}

type notice struct {
	Kind    string
	Message string
}

func (n notice) values() url.Values {
	return url.Values{"kind": {n.Kind}, "notice": {n.Message}}
}

func noticeFromQuery(q url.Values) *notice {
	msg := q.Get("notice")
	if msg == "" {
		return nil
	}
	kind := q.Get("kind")
	if kind != noticeKindSuccess {
		kind = noticeKindError
	}
	return &notice{Kind: kind, Message: msg}
}

type statCard struct {
	Title       string
	Description string
	Status      listview.Status
	Value       int64
}

type homePage struct {
	Layout
	Notice *notice
	Stats  []statCard
	Recent listview.View
}

// countCard reads one number out of a settled result; anything that is not an
// Ok result renders as an error card.
func countCard[T any](title, description string, snap querycache.Snapshot, count func(deposit.Ok[T]) (int64, bool)) statCard {
	card := statCard{Title: title, Description: description, Status: listview.StatusLoading}
	if !snap.Settled() {
		return card
	}
	card.Status = listview.StatusError
	if snap.Err != nil {
		return card
	}
	res, _ := querycache.Value[deposit.Result[T]](snap)
	if ok, isOk := res.(deposit.Ok[T]); isOk {
		if value, found := count(ok); found {
			card.Status = listview.StatusReady
			card.Value = value
		}
	}
	return card
}

func totalItems(ok deposit.Ok[[]deposit.Product]) (int64, bool) {
	if ok.Pagination == nil {
		return 0, false
	}
	return ok.Pagination.TotalItems, true
}

func total[T any](ok deposit.Ok[T]) (int64, bool) {
	return ok.Total, true
}

// awaitAll runs the queries concurrently, each bounded by the render wait.
func (h *Handler) awaitAll(ctx context.Context, queries ...query) []querycache.Snapshot {
	snaps := make([]querycache.Snapshot, len(queries))
	var g errgroup.Group
	for i, q := range queries {
		g.Go(func() error {
			snaps[i] = h.cache.Await(ctx, q.key, q.fetch, h.renderWait)
			return nil
		})
	}
	_ = g.Wait()
	return snaps
}

func (h *Handler) Home(c *gin.Context) {
	snaps := h.awaitAll(c.Request.Context(),
		activeCountQuery(h.api, true),
		activeCountQuery(h.api, false),
		companiesQuery(h.api),
		usersQuery(h.api),
		recentProductsQuery(h.api),
	)

	data := homePage{
		Layout: Layout{Title: "Dashboard", Nav: "home"},
		Notice: noticeFromQuery(c.Request.URL.Query()),
		Stats: []statCard{
			countCard("Active Products", "Active products in system", snaps[0], totalItems),
			countCard("Pending Products", "Products waiting for approval", snaps[1], totalItems),
			countCard("Companies", "Registered companies", snaps[2], total[[]deposit.Company]),
			countCard("Users", "Registered users", snaps[3], total[[]deposit.User]),
		},
		Recent: listview.FromSnapshot(snaps[4], failedToLoadRecent),
	}

	data.Refresh = data.Recent.Loading()
	for _, card := range data.Stats {
		if card.Status == listview.StatusLoading {
			data.Refresh = true
		}
	}

	c.HTML(http.StatusOK, "home", data)
}

type link struct {
	Label   string
	URL     string
	Current bool
}

type sortHeader struct {
	Label     string
	URL       string
	Indicator string
}

type pagerLink struct {
	listview.PageLink
	URL string
}

type stepLink struct {
	URL     string
	Enabled bool
}

type productsPage struct {
	Layout
	State            listview.State
	View             listview.View
	PageSizes        []link
	Filters          []link
	SortName         sortHeader
	SortRegisteredAt sortHeader
	Pages            []pagerLink
	Prev             stepLink
	Next             stepLink
	EventsURL        string
}

func withQuery(path string, q url.Values) string {
	if encoded := q.Encode(); encoded != "" {
		return path + "?" + encoded
	}
	return path
}

func productsURL(s listview.State) string {
	return withQuery(productsPath, s.Query())
}

func (h *Handler) Products(c *gin.Context) {
	ctl := listview.New(listview.FromQuery(c.Request.URL.Query()))
	q := listQuery(h.api, ctl.CurrentRequestParams())
	snap := h.cache.Await(c.Request.Context(), q.key, q.fetch, h.renderWait)
	view := ctl.ResolveVisibleItems(snap)

	if view.Status == listview.StatusReady || view.Status == listview.StatusEmpty {
		requested := ctl.State().Page
		ctl.SyncPagination(view.Pagination)
		if ctl.State().Page != requested {
			c.Redirect(http.StatusFound, productsURL(ctl.State()))
			return
		}
	}

	c.HTML(http.StatusOK, "products", buildProductsPage(ctl, view))
}

func buildProductsPage(ctl *listview.Controller, view listview.View) productsPage {
	state := ctl.State()

	// derive applies one change to a copy of the current controller and
	// returns the URL of the resulting state.
	derive := func(change func(*listview.Controller)) string {
		next := listview.New(state)
		next.SyncPagination(deposit.Pagination{TotalPages: ctl.TotalPages()})
		change(next)
		return productsURL(next.State())
	}

	data := productsPage{
		Layout:    Layout{Title: "Products", Nav: "products", Refresh: view.Loading()},
		State:     state,
		View:      view,
		EventsURL: withQuery(productsEventsPath, state.Query()),
	}

	for _, size := range listview.PageSizes {
		data.PageSizes = append(data.PageSizes, link{
			Label:   strconv.Itoa(size),
			URL:     derive(func(n *listview.Controller) { n.SetPageSize(size) }),
			Current: size == state.PageSize,
		})
	}

	filters := []struct {
		filter listview.Filter
		label  string
	}{
		{listview.FilterAll, "All Products"},
		{listview.FilterActive, "Active Products"},
		{listview.FilterInactive, "Inactive Products"},
	}
	for _, f := range filters {
		data.Filters = append(data.Filters, link{
			Label:   f.label,
			URL:     derive(func(n *listview.Controller) { n.SetFilter(f.filter) }),
			Current: f.filter == state.Filter,
		})
	}

	header := func(label string, field deposit.SortField) sortHeader {
		h := sortHeader{
			Label: label,
			URL:   derive(func(n *listview.Controller) { n.SetSortField(field) }),
		}
		if state.SortField == field {
			h.Indicator = "↑"
			if state.SortOrder == deposit.OrderDesc {
				h.Indicator = "↓"
			}
		}
		return h
	}
	data.SortName = header("Name", deposit.SortName)
	data.SortRegisteredAt = header("Registration Date", deposit.SortRegisteredAt)

	if !view.Loading() {
		for _, pl := range listview.PageWindow(state.Page, view.Pagination.TotalPages) {
			item := pagerLink{PageLink: pl}
			if !pl.Ellipsis {
				item.URL = derive(func(n *listview.Controller) { n.SetPage(pl.Page) })
			}
			data.Pages = append(data.Pages, item)
		}
	}

	data.Prev = stepLink{
		URL:     derive(func(n *listview.Controller) { n.SetPage(state.Page - 1) }),
		Enabled: view.HasPrevious(state.Page),
	}
	data.Next = stepLink{
		URL:     derive(func(n *listview.Controller) { n.SetPage(state.Page + 1) }),
		Enabled: view.HasNext(state.Page),
	}
	return data
}

// QuickCreate registers a random product and redirects home with a notice.
func (h *Handler) QuickCreate(c *gin.Context) {
	product := h.newProduct()
	result := notice{Kind: noticeKindError, Message: failedToCreate}

	res, err := h.api.CreateProduct(c.Request.Context(), product)
	if err != nil {
		h.logger.Warn("quick create failed", "name", product.Name, "error", err)
		result.Message = apiclient.Message(err, failedToCreate)
	} else {
		switch r := res.(type) {
		case deposit.Ok[deposit.Product]:
			result = notice{Kind: noticeKindSuccess, Message: createdNoticePrefix + product.Name}
			h.cache.Invalidate(listview.ProductsResource)
			h.logger.Info("quick create succeeded", "product_id", r.Data.ID, "name", product.Name)
		case deposit.Failed[deposit.Product]:
			result.Message = r.Message
			h.logger.Warn("quick create rejected", "name", product.Name, "error", r.Message)
		}
	}

	c.Redirect(http.StatusSeeOther, withQuery("/", result.values()))
}

// ProductEvents streams a refresh event whenever the list for the requested
// state settles again with data, typically after an invalidation or after a
// failed list recovers.
func (h *Handler) ProductEvents(c *gin.Context) {
	state := listview.FromQuery(c.Request.URL.Query())
	q := listQuery(h.api, state.RequestParams())
	ctx := c.Request.Context()

	updates := make(chan querycache.Snapshot, 1)
	_, unmount := h.cache.Mount(ctx, q.key, q.fetch, func(s querycache.Snapshot) {
		// A failed refetch would only reload into the same error.
		if s.Failed() {
			return
		}
		select {
		case updates <- s:
		default:
		}
	})
	defer unmount()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent("connected", q.key.String())
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case snap := <-updates:
			c.SSEvent("refresh", snap.Status.String())
			return true
		case <-ticker.C:
			_, err := io.WriteString(w, ": keep-alive\n\n")
			return err == nil
		}
	})
}

func (h *Handler) Health(c *gin.Context) {
	if err := h.api.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": healthStatusDegraded, "api": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": healthStatusOK})
}
