package dashboard

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"deposit-dashboard/internal/apiclient"
	"deposit-dashboard/internal/deposit"
	"deposit-dashboard/internal/listview"
	"deposit-dashboard/internal/querycache"

	"github.com/gin-gonic/gin"
)

var errLookupDown = &apiclient.NetworkError{Method: http.MethodGet, URL: "/api/lookup", Err: errors.New("connection refused")}

type stubAPI struct {
	mu        sync.Mutex
	listFn    func(ctx context.Context, q deposit.ProductQuery) (deposit.Result[[]deposit.Product], error)
	createFn  func(ctx context.Context, p deposit.NewProduct) (deposit.Result[deposit.Product], error)
	companies deposit.Result[[]deposit.Company]
	users     deposit.Result[[]deposit.User]
	healthErr error
	queries   []deposit.ProductQuery

	// failLookups makes that many company and user calls fail before they
	// return companies and users.
	failLookups  int
	companyCalls int
	userCalls    int
}

func (s *stubAPI) ListProducts(ctx context.Context, q deposit.ProductQuery) (deposit.Result[[]deposit.Product], error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.mu.Unlock()
	return s.listFn(ctx, q)
}
func (s *stubAPI) CreateProduct(ctx context.Context, p deposit.NewProduct) (deposit.Result[deposit.Product], error) {
	return s.createFn(ctx, p)
}
func (s *stubAPI) ListCompanies(context.Context) (deposit.Result[[]deposit.Company], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companyCalls++
	if s.companyCalls <= s.failLookups {
		return nil, errLookupDown
	}
	return s.companies, nil
}
func (s *stubAPI) ListUsers(context.Context) (deposit.Result[[]deposit.User], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userCalls++
	if s.userCalls <= s.failLookups {
		return nil, errLookupDown
	}
	return s.users, nil
}
func (s *stubAPI) Health(context.Context) error {
	return s.healthErr
}

func (s *stubAPI) recorded() []deposit.ProductQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]deposit.ProductQuery(nil), s.queries...)
}

func (s *stubAPI) listCalls() int {
	return len(s.recorded())
}

func productsPageResult(total int64, q deposit.ProductQuery, items ...deposit.Product) deposit.Result[[]deposit.Product] {
	limit := q.Limit
	if limit == 0 {
		limit = 10
	}
	page := q.Page
	if page == 0 {
		page = 1
	}
	p := deposit.NewPagination(page, limit, total)
	return deposit.Ok[[]deposit.Product]{Data: items, Pagination: &p}
}

func newStubAPI() *stubAPI {
	return &stubAPI{
		listFn: func(_ context.Context, q deposit.ProductQuery) (deposit.Result[[]deposit.Product], error) {
			return productsPageResult(12, q,
				deposit.Product{ID: 1, Name: "Fresh Cola", Packaging: deposit.PackagingPET, Deposit: 25, Volume: 1500,
					RegisteredAt: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Active: true},
				deposit.Product{ID: 2, Name: "Pure Water", Packaging: deposit.PackagingGlass, Deposit: 50, Volume: 330,
					RegisteredAt: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)},
			), nil
		},
		createFn: func(_ context.Context, p deposit.NewProduct) (deposit.Result[deposit.Product], error) {
			return deposit.Ok[deposit.Product]{Data: deposit.Product{ID: 99, Name: p.Name}}, nil
		},
		companies: deposit.Ok[[]deposit.Company]{Data: []deposit.Company{{ID: 1}}, Total: 3},
		users:     deposit.Ok[[]deposit.User]{Data: []deposit.User{{ID: 1}}, Total: 7},
	}
}

func fixedProduct() deposit.NewProduct {
	return deposit.NewProduct{Name: "Royal Soda", Packaging: deposit.PackagingCan, Deposit: 25, Volume: 330, CompanyID: 1, RegisteredByID: 1}
}

func setupRouter(t *testing.T, api API, renderWait time.Duration) (*gin.Engine, *querycache.Cache) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	templates, err := NewTemplates()
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}

	cache := querycache.New(querycache.Options{})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(api, cache, logger, Options{
		RenderWait: renderWait,
		KeepAlive:  time.Hour,
		NewProduct: fixedProduct,
	})

	r := gin.New()
	RegisterRoutes(r, h, templates)
	return r, cache
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func assertContains(t *testing.T, body string, want ...string) {
	t.Helper()
	for _, s := range want {
		if !strings.Contains(body, s) {
			t.Fatalf("want body to contain %q, body:\n%s", s, body)
		}
	}
}

func assertNotContains(t *testing.T, body string, unwanted ...string) {
	t.Helper()
	for _, s := range unwanted {
		if strings.Contains(body, s) {
			t.Fatalf("want body without %q, body:\n%s", s, body)
		}
	}
}

func TestHome(t *testing.T) {
	api := newStubAPI()
	api.users = deposit.Failed[[]deposit.User]{Message: "DB down"}
	r, _ := setupRouter(t, api, time.Second)

	w := get(r, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("want status 200, got %d", w.Code)
	}

	body := w.Body.String()
	assertContains(t, body,
		"Active Products", "Pending Products", "<strong>12</strong>",
		"Companies", "<strong>3</strong>",
		"Users", "Error loading data",
		"Recent Products", "Fresh Cola", "1.5L", "$0.25 deposit", "Pet", "Jan 5, 2024",
		"Add new product",
	)
	assertNotContains(t, body, `http-equiv="refresh"`)
}

func TestHome_RecentProductsStates(t *testing.T) {
	tests := []struct {
		name   string
		listFn func(ctx context.Context, q deposit.ProductQuery) (deposit.Result[[]deposit.Product], error)
		want   string
	}{
		{
			name: "failed envelope shows server message",
			listFn: func(context.Context, deposit.ProductQuery) (deposit.Result[[]deposit.Product], error) {
				return deposit.Failed[[]deposit.Product]{Message: "DB down"}, nil
			},
			want: "Error: DB down",
		},
		{
			name: "transport error shows fallback",
			listFn: func(context.Context, deposit.ProductQuery) (deposit.Result[[]deposit.Product], error) {
				return nil, &apiclient.NetworkError{Method: http.MethodGet, URL: "/api/products", Err: errors.New("connection refused")}
			},
			want: "Error: Failed to load recent products",
		},
		{
			name: "empty list",
			listFn: func(_ context.Context, q deposit.ProductQuery) (deposit.Result[[]deposit.Product], error) {
				return productsPageResult(0, q), nil
			},
			want: "No recent active products",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newStubAPI()
			api.listFn = tt.listFn
			r, _ := setupRouter(t, api, time.Second)

			assertContains(t, get(r, "/").Body.String(), tt.want)
		})
	}
}

func TestHome_QueriesSentToAPI(t *testing.T) {
	api := newStubAPI()
	r, _ := setupRouter(t, api, time.Second)
	get(r, "/")

	var recent, active, inactive bool
	queries := api.recorded()
	for _, q := range queries {
		switch {
		case q.Limit == recentProductsLimit && q.Sort == deposit.SortRegisteredAt && q.Order == deposit.OrderDesc && q.Active != nil && *q.Active:
			recent = true
		case q.Limit == 0 && q.Active != nil && *q.Active:
			active = true
		case q.Limit == 0 && q.Active != nil && !*q.Active:
			inactive = true
		}
	}
	if !recent || !active || !inactive {
		t.Fatalf("missing queries: recent=%v active=%v inactive=%v (%+v)", recent, active, inactive, queries)
	}
}

func TestHome_Notice(t *testing.T) {
	r, _ := setupRouter(t, newStubAPI(), time.Second)

	body := get(r, "/?kind=success&notice="+url.QueryEscape("Successfully created product: Royal Soda")).Body.String()
	assertContains(t, body, "Success!", "Successfully created product: Royal Soda")

	body = get(r, "/?kind=bogus&notice=nope").Body.String()
	assertContains(t, body, `class="alert error"`, "nope")
}

func TestProducts(t *testing.T) {
	api := newStubAPI()
	r, _ := setupRouter(t, api, time.Second)

	w := get(r, "/products?page=2&sort=name")
	if w.Code != http.StatusOK {
		t.Fatalf("want status 200, got %d", w.Code)
	}
	body := w.Body.String()

	assertContains(t, body,
		"Fresh Cola", "1.5L", "$0.25", "Pet", "Active",
		"Pure Water", "330ml", "$0.50", "Glass", "Inactive",
		"Page 2 of 3",
		// sort header flips the active field and resets the page
		`href="/products?order=desc&amp;sort=name"`,
		// other sort field starts ascending
		`href="/products?sort=registeredAt"`,
		// filter change resets the page
		`href="/products?filter=active&amp;sort=name"`,
		// page size change resets the page
		`href="/products?size=10&amp;sort=name"`,
		`aria-current="page">2</a>`,
		`/products/events?page=2`,
	)

	queries := api.recorded()
	if len(queries) != 1 {
		t.Fatalf("want 1 list query, got %d", len(queries))
	}
	q := queries[0]
	if q.Page != 2 || q.Limit != 5 || q.Sort != deposit.SortName || q.Order != deposit.OrderAsc || q.Active != nil {
		t.Fatalf("unexpected request %+v", q)
	}
}

func TestProducts_ErrorAndEmpty(t *testing.T) {
	tests := []struct {
		name    string
		listFn  func(ctx context.Context, q deposit.ProductQuery) (deposit.Result[[]deposit.Product], error)
		want    []string
		without []string
	}{
		{
			name: "failed envelope",
			listFn: func(context.Context, deposit.ProductQuery) (deposit.Result[[]deposit.Product], error) {
				return deposit.Failed[[]deposit.Product]{Message: "DB down"}, nil
			},
			want:    []string{"Failed to load products: DB down"},
			without: []string{"<table>"},
		},
		{
			name: "network error",
			listFn: func(context.Context, deposit.ProductQuery) (deposit.Result[[]deposit.Product], error) {
				return nil, &apiclient.NetworkError{Method: http.MethodGet, URL: "/api/products", StatusCode: http.StatusBadGateway}
			},
			want:    []string{"Failed to load products"},
			without: []string{"<table>", "Failed to load products:"},
		},
		{
			name: "empty",
			listFn: func(_ context.Context, q deposit.ProductQuery) (deposit.Result[[]deposit.Product], error) {
				return productsPageResult(0, q), nil
			},
			want: []string{"No products found", "Page 1 of 0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newStubAPI()
			api.listFn = tt.listFn
			r, _ := setupRouter(t, api, time.Second)

			body := get(r, "/products").Body.String()
			assertContains(t, body, tt.want...)
			assertNotContains(t, body, tt.without...)
		})
	}
}

func TestProducts_ClampsPageBeyondTotal(t *testing.T) {
	r, _ := setupRouter(t, newStubAPI(), time.Second)

	w := get(r, "/products?page=9&filter=active")
	if w.Code != http.StatusFound {
		t.Fatalf("want status 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/products?filter=active&page=3" {
		t.Fatalf("unexpected redirect %q", loc)
	}
}

func TestProducts_RendersLoadingWhileFetchIsSlow(t *testing.T) {
	release := make(chan struct{})
	api := newStubAPI()
	fast := api.listFn
	api.listFn = func(ctx context.Context, q deposit.ProductQuery) (deposit.Result[[]deposit.Product], error) {
		<-release
		return fast(ctx, q)
	}
	r, cache := setupRouter(t, api, 20*time.Millisecond)

	body := get(r, "/products").Body.String()
	assertContains(t, body, `http-equiv="refresh"`, `class="skeleton"`, `class="disabled" aria-disabled="true">Next`)
	assertNotContains(t, body, "Fresh Cola")

	close(release)
	key := listQuery(api, listview.DefaultState().RequestParams()).key
	deadline := time.Now().Add(time.Second)
	for !cache.Peek(key).Settled() {
		if time.Now().After(deadline) {
			t.Fatal("fetch never settled")
		}
		time.Sleep(5 * time.Millisecond)
	}

	body = get(r, "/products").Body.String()
	assertContains(t, body, "Fresh Cola")
	assertNotContains(t, body, `http-equiv="refresh"`)
	if n := api.listCalls(); n != 1 {
		t.Fatalf("want the slow fetch reused, got %d calls", n)
	}
}

func TestQuickCreate(t *testing.T) {
	tests := []struct {
		name           string
		createFn       func(ctx context.Context, p deposit.NewProduct) (deposit.Result[deposit.Product], error)
		wantKind       string
		wantNotice     string
		wantInvalidate bool
	}{
		{
			name: "success invalidates products",
			createFn: func(_ context.Context, p deposit.NewProduct) (deposit.Result[deposit.Product], error) {
				return deposit.Ok[deposit.Product]{Data: deposit.Product{ID: 5, Name: p.Name}}, nil
			},
			wantKind:       "success",
			wantNotice:     "Successfully created product: Royal Soda",
			wantInvalidate: true,
		},
		{
			name: "failed envelope",
			createFn: func(context.Context, deposit.NewProduct) (deposit.Result[deposit.Product], error) {
				return deposit.Failed[deposit.Product]{Message: "company not found"}, nil
			},
			wantKind:   "error",
			wantNotice: "company not found",
		},
		{
			name: "http error carries server message",
			createFn: func(context.Context, deposit.NewProduct) (deposit.Result[deposit.Product], error) {
				return nil, &apiclient.NetworkError{StatusCode: http.StatusBadRequest, Message: "invalid product: unknown packaging"}
			},
			wantKind:   "error",
			wantNotice: "invalid product: unknown packaging",
		},
		{
			name: "transport error falls back",
			createFn: func(context.Context, deposit.NewProduct) (deposit.Result[deposit.Product], error) {
				return nil, &apiclient.NetworkError{Err: errors.New("connection refused")}
			},
			wantKind:   "error",
			wantNotice: failedToCreate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newStubAPI()
			api.createFn = tt.createFn
			r, _ := setupRouter(t, api, time.Second)

			get(r, "/products")
			before := api.listCalls()

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/products/quick", nil))
			if w.Code != http.StatusSeeOther {
				t.Fatalf("want status 303, got %d", w.Code)
			}

			loc, err := url.Parse(w.Header().Get("Location"))
			if err != nil {
				t.Fatalf("parse location: %v", err)
			}
			if loc.Path != "/" || loc.Query().Get("kind") != tt.wantKind || loc.Query().Get("notice") != tt.wantNotice {
				t.Fatalf("unexpected redirect %q", loc)
			}

			get(r, "/products")
			refetched := api.listCalls() > before
			if refetched != tt.wantInvalidate {
				t.Fatalf("want refetch %v, got %v", tt.wantInvalidate, refetched)
			}
		})
	}
}

func TestProductEvents_RefreshAfterInvalidate(t *testing.T) {
	api := newStubAPI()
	r, cache := setupRouter(t, api, time.Second)

	// Warm the key so mounting the stream does not fetch by itself.
	get(r, "/products?filter=active")
	if n := api.listCalls(); n != 1 {
		t.Fatalf("want 1 call after warm-up, got %d", n)
	}

	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/products/events?filter=active", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}

	lines := bufio.NewScanner(resp.Body)
	nextEvent := func() string {
		t.Helper()
		for lines.Scan() {
			if strings.HasPrefix(lines.Text(), "event:") {
				return lines.Text()
			}
		}
		t.Fatalf("stream ended: %v", lines.Err())
		return ""
	}

	if got := nextEvent(); !strings.Contains(got, "connected") {
		t.Fatalf("want connected event, got %q", got)
	}

	if marked := cache.Invalidate(listview.ProductsResource); marked != 1 {
		t.Fatalf("want 1 entry marked, got %d", marked)
	}

	if got := nextEvent(); !strings.Contains(got, "refresh") {
		t.Fatalf("want refresh event, got %q", got)
	}
	if n := api.listCalls(); n != 2 {
		t.Fatalf("want the observed key refetched once, got %d calls", n)
	}
}

func TestProducts_RecoversAfterFailedFetch(t *testing.T) {
	tests := []struct {
		name  string
		first func() (deposit.Result[[]deposit.Product], error)
	}{
		{
			name: "network error",
			first: func() (deposit.Result[[]deposit.Product], error) {
				return nil, &apiclient.NetworkError{Method: http.MethodGet, URL: "/api/products", Err: errors.New("connection refused")}
			},
		},
		{
			name: "failed envelope",
			first: func() (deposit.Result[[]deposit.Product], error) {
				return deposit.Failed[[]deposit.Product]{Message: "DB down"}, nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newStubAPI()
			ok := api.listFn
			var mu sync.Mutex
			calls := 0
			api.listFn = func(ctx context.Context, q deposit.ProductQuery) (deposit.Result[[]deposit.Product], error) {
				mu.Lock()
				calls++
				n := calls
				mu.Unlock()
				if n == 1 {
					return tt.first()
				}
				return ok(ctx, q)
			}
			r, _ := setupRouter(t, api, time.Second)

			assertContains(t, get(r, "/products").Body.String(), "Failed to load products")

			body := get(r, "/products").Body.String()
			assertContains(t, body, "Fresh Cola")
			assertNotContains(t, body, "Failed to load products")

			get(r, "/products")
			if n := api.listCalls(); n != 2 {
				t.Fatalf("want one retry and then a cached list, got %d calls", n)
			}
		})
	}
}

func TestHome_RecoversCompaniesAndUsers(t *testing.T) {
	api := newStubAPI()
	api.failLookups = 1
	r, _ := setupRouter(t, api, time.Second)

	assertContains(t, get(r, "/").Body.String(), "Error loading data")

	body := get(r, "/").Body.String()
	assertContains(t, body, "<strong>3</strong>", "<strong>7</strong>")
	assertNotContains(t, body, "Error loading data")

	get(r, "/")
	api.mu.Lock()
	defer api.mu.Unlock()
	if api.companyCalls != 2 || api.userCalls != 2 {
		t.Fatalf("want one retry each, got %d company and %d user calls", api.companyCalls, api.userCalls)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "api reachable", wantStatus: http.StatusOK},
		{name: "api down", err: errors.New("connection refused"), wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newStubAPI()
			api.healthErr = tt.err
			r, _ := setupRouter(t, api, time.Second)

			if w := get(r, "/healthz"); w.Code != tt.wantStatus {
				t.Fatalf("want status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}
