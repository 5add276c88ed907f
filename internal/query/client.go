// Package query is the server-side query cache: keyed results with a stale
// policy, request dedup, prefix invalidation and a JSON hydration format.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Status is the lifecycle state of a cached query.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Options configures a Client.
type Options struct {
	// StaleTime is how long data counts as fresh. Zero means always stale.
	StaleTime time.Duration
	// GCTime is how long an entry lives after its last write.
	GCTime time.Duration
	// RefreshTimeout bounds background revalidation.
	RefreshTimeout time.Duration
	Logger         *slog.Logger
	Now            func() time.Time
}

// entry is immutable once stored; writers replace it.
type entry struct {
	key         Key
	data        any
	hasData     bool
	updatedAt   time.Time
	err         error
	status      Status
	invalidated bool
}

// Client holds cached query results.
type Client struct {
	store *cache.Cache
	group singleflight.Group
	opts  Options

	mu sync.Mutex // serializes read-modify-write of entries
	// gens counts invalidations per key hash. A fetch only stores its result
	// if the generation it started under is still current.
	gens map[string]uint64
	wg   sync.WaitGroup
}

func NewClient(opts Options) *Client {
	if opts.GCTime <= 0 {
		opts.GCTime = 5 * time.Minute
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Client{
		store: cache.New(opts.GCTime, opts.GCTime),
		gens:  make(map[string]uint64),
		opts:  opts,
	}
}

func (c *Client) get(key Key) (*entry, bool) {
	v, ok := c.store.Get(key.Hash())
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}

func (c *Client) put(e *entry) {
	c.store.SetDefault(e.key.Hash(), e)
}

// update applies fn to a copy of the current entry (or a new one) and
// stores the result.
func (c *Client) update(key Key, fn func(e *entry)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apply(key, fn)
}

// updateAt is update guarded by a generation. It reports whether gen was
// still current.
func (c *Client) updateAt(key Key, gen uint64, fn func(e *entry)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[key.Hash()] != gen {
		return false
	}
	c.apply(key, fn)
	return true
}

// apply requires c.mu.
func (c *Client) apply(key Key, fn func(e *entry)) {
	next := &entry{key: key, status: StatusPending}
	if cur, ok := c.get(key); ok {
		cp := *cur
		next = &cp
	}
	fn(next)
	c.put(next)
}

func (c *Client) fresh(e *entry) bool {
	return e.hasData && !e.invalidated && c.opts.Now().Sub(e.updatedAt) < c.opts.StaleTime
}

// SetData stores v under key as freshly fetched.
func SetData[T any](c *Client, key Key, v T) {
	c.setData(key, v, c.opts.Now())
}

func (c *Client) setData(key Key, v any, at time.Time) {
	c.update(key, storeData(v, at))
}

func storeData(v any, at time.Time) func(e *entry) {
	return func(e *entry) {
		e.data = v
		e.hasData = true
		e.updatedAt = at
		e.err = nil
		e.status = StatusSuccess
		e.invalidated = false
	}
}

func storeError(err error) func(e *entry) {
	return func(e *entry) {
		e.err = err
		e.status = StatusError
	}
}

func (c *Client) generation(key Key) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[key.Hash()]
}

// State describes a cached query without its data.
type State struct {
	Status      Status
	HasData     bool
	UpdatedAt   time.Time
	Err         error
	Invalidated bool
}

// IsLoading is true while a query without data is being fetched.
func (s State) IsLoading() bool { return s.Status == StatusPending && !s.HasData }

// IsError is true when the last fetch failed.
func (s State) IsError() bool { return s.Status == StatusError }

// StateOf returns the state of key; unknown keys report pending.
func (c *Client) StateOf(key Key) State {
	e, ok := c.get(key)
	if !ok {
		return State{Status: StatusPending}
	}
	return State{
		Status:      e.status,
		HasData:     e.hasData,
		UpdatedAt:   e.updatedAt,
		Err:         e.err,
		Invalidated: e.invalidated,
	}
}

// Invalidate marks every entry whose key starts with prefix as invalidated.
// The next fetch of such a key goes to the source. It returns the number of
// entries marked.
func (c *Client) Invalidate(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, item := range c.store.Items() {
		e := item.Object.(*entry)
		if !e.key.HasPrefix(prefix) {
			continue
		}
		c.gens[e.key.Hash()]++
		if e.invalidated {
			continue
		}
		cp := *e
		cp.invalidated = true
		c.put(&cp)
		n++
	}
	c.opts.Logger.Debug("invalidated queries", "prefix", prefix.String(), "count", n)
	return n
}

// Remove drops key from the cache.
func (c *Client) Remove(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[key.Hash()]++
	c.store.Delete(key.Hash())
}

// Len is the number of live entries.
func (c *Client) Len() int { return c.store.ItemCount() }

// Wait blocks until background refreshes have finished.
func (c *Client) Wait() { c.wg.Wait() }

type fetchOptions struct {
	initial        any
	initialAt      time.Time
	hasInitial     bool
	refetchOnMount bool
}

// FetchOption adjusts a single Fetch.
type FetchOption func(*fetchOptions)

// WithInitialData seeds an empty entry with v, as if fetched at updatedAt.
func WithInitialData[T any](v T, updatedAt time.Time) FetchOption {
	return func(o *fetchOptions) {
		o.initial = v
		o.initialAt = updatedAt
		o.hasInitial = true
	}
}

// WithRefetchOnMount controls whether stale cached data triggers a
// background refresh. Defaults to true.
func WithRefetchOnMount(refetch bool) FetchOption {
	return func(o *fetchOptions) { o.refetchOnMount = refetch }
}

// Fetch returns the data for key. Fresh data is returned as is; stale data is
// returned immediately and revalidated in the background; missing or
// invalidated data is fetched synchronously. Concurrent fetches of one key
// share a single call to fn.
func Fetch[T any](ctx context.Context, c *Client, key Key, fn func(context.Context) (T, error), opts ...FetchOption) (T, error) {
	o := fetchOptions{refetchOnMount: true}
	for _, opt := range opts {
		opt(&o)
	}

	if o.hasInitial {
		c.mu.Lock()
		if _, ok := c.get(key); !ok {
			c.put(&entry{key: key, data: o.initial, hasData: true, updatedAt: o.initialAt, status: StatusSuccess})
		}
		c.mu.Unlock()
	}

	if e, ok := c.get(key); ok && e.hasData && !e.invalidated {
		v, err := decode[T](c, e)
		if err == nil {
			if !c.fresh(e) && o.refetchOnMount {
				refreshInBackground(ctx, c, key, fn)
			}
			return v, nil
		}
		c.opts.Logger.Warn("discarding undecodable cache entry", "key", key.String(), "error", err)
	}

	return run(ctx, c, key, fn)
}

// Prefetch fills key unless it already holds fresh data.
func Prefetch[T any](ctx context.Context, c *Client, key Key, fn func(context.Context) (T, error)) error {
	if e, ok := c.get(key); ok && c.fresh(e) {
		return nil
	}
	_, err := run(ctx, c, key, fn)
	return err
}

// Peek returns cached data for key without fetching.
func Peek[T any](c *Client, key Key) (T, bool) {
	var zero T
	e, ok := c.get(key)
	if !ok || !e.hasData {
		return zero, false
	}
	v, err := decode[T](c, e)
	if err != nil {
		return zero, false
	}
	return v, true
}

func run[T any](ctx context.Context, c *Client, key Key, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	gen := c.generation(key)
	c.updateAt(key, gen, func(e *entry) {
		e.status = StatusPending
	})

	// Fetches started after an invalidation must not join one started
	// before it.
	v, err, _ := c.group.Do(fmt.Sprintf("%s#%d", key.Hash(), gen), func() (any, error) {
		val, err := fn(ctx)
		if err != nil {
			c.updateAt(key, gen, storeError(err))
			return nil, err
		}
		if !c.updateAt(key, gen, storeData(val, c.opts.Now())) {
			c.opts.Logger.Debug("dropping result of invalidated fetch", "key", key.String())
		}
		return val, nil
	})
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("query %s: shared result has type %T", key, v)
	}
	return typed, nil
}

func refreshInBackground[T any](ctx context.Context, c *Client, key Key, fn func(context.Context) (T, error)) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.RefreshTimeout)
		defer cancel()
		if _, err := run(rctx, c, key, fn); err != nil {
			c.opts.Logger.Warn("background refresh failed", "key", key.String(), "error", err)
		}
	}()
}

// decode returns e.data as T. Hydrated entries hold raw JSON until first
// read; the decoded value replaces it.
func decode[T any](c *Client, e *entry) (T, error) {
	var zero T
	switch d := e.data.(type) {
	case T:
		return d, nil
	case json.RawMessage:
		var v T
		if err := json.Unmarshal(d, &v); err != nil {
			return zero, fmt.Errorf("decode %s: %w", e.key, err)
		}
		c.mu.Lock()
		if cur, ok := c.get(e.key); ok && cur == e {
			cp := *e
			cp.data = v
			c.put(&cp)
		}
		c.mu.Unlock()
		return v, nil
	default:
		return zero, fmt.Errorf("cached %s holds %T", e.key, e.data)
	}
}
