// Package querycache deduplicates and caches API fetches by key and lets
// mutations invalidate what they made outdated.
package querycache

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Key identifies a cached fetch: a resource name plus its serialized parameters.
type Key struct {
	Resource string
	Params   string
}

// NewKey serializes params with sorted names, so equal parameter sets map to the same key.
func NewKey(resource string, params url.Values) Key {
	return Key{Resource: resource, Params: params.Encode()}
}

func (k Key) String() string {
	if k.Params == "" {
		return k.Resource
	}
	return k.Resource + "?" + k.Params
}

func (k Key) matches(prefix string) bool {
	return k.Resource == prefix || strings.HasPrefix(k.String(), prefix)
}

type FetchFunc func(ctx context.Context) (any, error)

// Failure is implemented by fetch values that report a failed request
// without an error, such as a server error envelope. Such values are kept
// for display but refetched on the next read, like errors.
type Failure interface {
	Failure() string
}

// Snapshot is the state of one key at a point in time. Status is loading only
// while no result has settled yet; a refetch over existing data sets Fetching.
type Snapshot struct {
	Key       Key
	Status    Status
	Value     any
	Err       error
	Stale     bool
	Fetching  bool
	UpdatedAt time.Time
}

func (s Snapshot) Settled() bool {
	return s.Status == StatusSuccess || s.Status == StatusError
}

// Failed reports whether the settled result is an error or a Failure value.
func (s Snapshot) Failed() bool {
	return failed(s.Err, s.Value)
}

func failed(err error, value any) bool {
	if err != nil {
		return true
	}
	_, ok := value.(Failure)
	return ok
}

// Value returns the snapshot payload as T.
func Value[T any](s Snapshot) (T, bool) {
	v, ok := s.Value.(T)
	return v, ok
}

type Options struct {
	Logger *slog.Logger
	// MaxEntries bounds the number of cached keys; 0 means unbounded.
	MaxEntries    int
	Hits          prometheus.Counter
	Misses        prometheus.Counter
	Invalidations prometheus.Counter
}

type entry struct {
	key        Key
	settled    bool
	value      any
	err        error
	updatedAt  time.Time
	lastAccess time.Time
	stale      bool
	generation uint64
	settledGen uint64
	loading    bool
	flightGen  uint64
	fn         FetchFunc
}

// fresh reports whether the settled result can be served without refetching.
// Failed results never are, so the next read retries them.
func (e *entry) fresh() bool {
	return e.settled && !e.stale && !failed(e.err, e.value)
}

func (e *entry) snapshot() Snapshot {
	s := Snapshot{
		Key:       e.key,
		Value:     e.value,
		Err:       e.err,
		Stale:     e.stale,
		Fetching:  e.loading,
		UpdatedAt: e.updatedAt,
	}
	switch {
	case e.settled && e.err != nil:
		s.Status = StatusError
	case e.settled:
		s.Status = StatusSuccess
	case e.loading:
		s.Status = StatusLoading
	default:
		s.Status = StatusIdle
	}
	return s
}

type observer struct {
	key      Key
	onChange func(Snapshot)
}

// Cache is a process-wide query store. Entries are created on the first fetch
// of a key, marked stale by Invalidate and never persisted.
type Cache struct {
	mu           sync.Mutex
	entries      map[string]*entry
	observers    map[uint64]*observer
	nextObserver uint64
	group        singleflight.Group
	opts         Options
	now          func() time.Time
}

func New(opts Options) *Cache {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Cache{
		entries:   make(map[string]*entry),
		observers: make(map[uint64]*observer),
		opts:      opts,
		now:       time.Now,
	}
}

// Fetch returns the cached result for key, or runs fn and waits for it.
// At most one fn runs per key at a time; concurrent callers share it. The
// fetch itself is detached from ctx cancellation: if ctx ends first, Fetch
// returns the current (loading) snapshot and the result still lands in the cache.
func (c *Cache) Fetch(ctx context.Context, key Key, fn FetchFunc) Snapshot {
	snap, done := c.begin(ctx, key, fn)
	if done == nil {
		return snap
	}
	select {
	case <-ctx.Done():
	case <-done:
	}
	return c.Peek(key)
}

// Await is Fetch bounded by wait.
func (c *Cache) Await(ctx context.Context, key Key, fn FetchFunc, wait time.Duration) Snapshot {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	return c.Fetch(ctx, key, fn)
}

// Peek reports the current state of key without fetching.
func (c *Cache) Peek(key Key) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.String()]
	if !ok {
		return Snapshot{Key: key, Status: StatusIdle}
	}
	return e.snapshot()
}

// Invalidate marks every entry matching prefix stale and refetches the keys
// that currently have mounted observers. It returns the number of entries marked.
func (c *Cache) Invalidate(prefix string) int {
	c.mu.Lock()
	marked := 0
	for _, e := range c.entries {
		if !e.key.matches(prefix) {
			continue
		}
		e.stale = true
		e.generation++
		marked++
	}

	refetched := make(map[string]bool)
	for _, obs := range c.observers {
		ks := obs.key.String()
		if refetched[ks] || !obs.key.matches(prefix) {
			continue
		}
		e, ok := c.entries[ks]
		if !ok || e.fn == nil {
			continue
		}
		refetched[ks] = true
		c.startLocked(context.Background(), e, e.fn)
	}
	c.mu.Unlock()

	if c.opts.Invalidations != nil {
		c.opts.Invalidations.Inc()
	}
	c.opts.Logger.Info("query cache invalidated",
		"prefix", prefix,
		"entries", marked,
		"refetched", len(refetched),
	)
	return marked
}

// Mount registers onChange for every result that settles for key from now on
// and starts a fetch when the key has no fresh result. onChange runs on the
// fetching goroutine. The returned func unmounts the observer.
func (c *Cache) Mount(ctx context.Context, key Key, fn FetchFunc, onChange func(Snapshot)) (Snapshot, func()) {
	c.mu.Lock()
	c.nextObserver++
	id := c.nextObserver
	c.observers[id] = &observer{key: key, onChange: onChange}
	c.mu.Unlock()

	snap, _ := c.begin(ctx, key, fn)
	if !snap.Settled() {
		snap = c.Peek(key)
	}

	var once sync.Once
	return snap, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.observers, id)
			c.mu.Unlock()
		})
	}
}

// begin serves a fresh entry or starts (or joins) a fetch, returning the
// channel the fetch completes on.
func (c *Cache) begin(ctx context.Context, key Key, fn FetchFunc) (Snapshot, <-chan singleflight.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ks := key.String()
	e, ok := c.entries[ks]
	if !ok {
		e = &entry{key: key}
		c.entries[ks] = e
		c.evictLocked()
	}
	e.lastAccess = c.now()

	if e.fresh() {
		if c.opts.Hits != nil {
			c.opts.Hits.Inc()
		}
		return e.snapshot(), nil
	}

	if c.opts.Misses != nil {
		c.opts.Misses.Inc()
	}
	return Snapshot{}, c.startLocked(ctx, e, fn)
}

// startLocked runs fn under a singleflight key scoped to the entry generation,
// so a fetch started before an invalidation is never joined after it.
func (c *Cache) startLocked(ctx context.Context, e *entry, fn FetchFunc) <-chan singleflight.Result {
	gen := e.generation
	e.fn = fn
	e.loading = true
	e.flightGen = gen

	key := e.key
	detached := context.WithoutCancel(ctx)
	flightKey := key.String() + "#" + strconv.FormatUint(gen, 10)
	return c.group.DoChan(flightKey, func() (any, error) {
		value, err := fn(detached)
		c.store(key, gen, value, err)
		return value, err
	})
}

func (c *Cache) store(key Key, gen uint64, value any, err error) {
	c.mu.Lock()
	e, ok := c.entries[key.String()]
	if !ok {
		c.mu.Unlock()
		return
	}
	if e.settled && gen < e.settledGen {
		// A newer result already settled the entry.
		c.mu.Unlock()
		return
	}

	e.settled = true
	e.settledGen = gen
	e.value = value
	e.err = err
	e.updatedAt = c.now()
	e.stale = gen != e.generation
	if e.flightGen == gen {
		e.loading = false
	}
	snap := e.snapshot()

	var notify []func(Snapshot)
	for _, obs := range c.observers {
		if obs.key == key {
			notify = append(notify, obs.onChange)
		}
	}
	c.mu.Unlock()

	if err != nil {
		c.opts.Logger.Warn("query fetch failed", "key", key.String(), "error", err)
	}
	for _, fn := range notify {
		fn(snap)
	}
}

// evictLocked drops the least recently used idle, unobserved entry once the
// cache grows past MaxEntries.
func (c *Cache) evictLocked() {
	if c.opts.MaxEntries <= 0 || len(c.entries) <= c.opts.MaxEntries {
		return
	}

	observed := make(map[string]bool, len(c.observers))
	for _, obs := range c.observers {
		observed[obs.key.String()] = true
	}

	var (
		victim string
		oldest time.Time
	)
	for ks, e := range c.entries {
		if e.loading || observed[ks] || !e.settled {
			continue
		}
		if victim == "" || e.lastAccess.Before(oldest) {
			victim, oldest = ks, e.lastAccess
		}
	}
	if victim != "" {
		delete(c.entries, victim)
	}
}
