// ABOUTME: Generic paginated collection over one admin resource
// ABOUTME: Tracks filters, the loaded page, loading state, and the last error

package resource

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// Fetcher performs authenticated GETs; *client.Client implements it
type Fetcher interface {
	Fetch(ctx context.Context, op, path string, query url.Values) ([]byte, error)
}

// Query holds the list filters
type Query struct {
	Page    int
	PerPage int
	Search  string
}

// Values encodes the query as URL parameters
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	return v
}

// Collection loads pages of one resource. It is safe for concurrent use;
// the fetch itself runs without holding the lock.
type Collection struct {
	desc Descriptor
	src  Fetcher

	mu      sync.RWMutex
	query   Query
	page    Page
	loaded  bool
	loading bool
	err     error
}

// NewCollection creates a collection starting at page 1
func NewCollection(d Descriptor, src Fetcher, perPage int) *Collection {
	return &Collection{
		desc:  d,
		src:   src,
		query: Query{Page: 1, PerPage: perPage},
	}
}

// Descriptor returns the resource description
func (c *Collection) Descriptor() Descriptor {
	return c.desc
}

// Load fetches the page selected by the current query
func (c *Collection) Load(ctx context.Context) (Page, error) {
	c.mu.Lock()
	q := c.query
	c.loading = true
	c.mu.Unlock()

	page, err := c.fetch(ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	c.err = err
	if err != nil {
		// fall back to the last page that loaded, or the first page
		c.query.Page = 1
		if c.loaded {
			c.query.Page = c.page.CurrentPage
		}
		return c.page, err
	}
	c.page = page
	c.loaded = true
	return page, nil
}

func (c *Collection) fetch(ctx context.Context, q Query) (Page, error) {
	return List(ctx, c.src, c.desc, q)
}

// List fetches one page of d without tracking state
func List(ctx context.Context, f Fetcher, d Descriptor, q Query) (Page, error) {
	body, err := f.Fetch(ctx, "fetch "+strings.ToLower(d.Title), d.Path, q.Values())
	if err != nil {
		return Page{}, err
	}
	page, err := Normalize(d, body)
	if err != nil {
		return Page{}, fmt.Errorf("fetch %s: %w", d.Kind, err)
	}
	return page, nil
}

// Next loads the following page; at the last page it returns the current one.
// Before any page has loaded it retries the current page instead.
func (c *Collection) Next(ctx context.Context) (Page, error) {
	c.mu.Lock()
	if !c.loaded {
		c.mu.Unlock()
		return c.Load(ctx)
	}
	if !c.page.HasNext() {
		p := c.page
		c.mu.Unlock()
		return p, nil
	}
	c.query.Page++
	c.mu.Unlock()
	return c.Load(ctx)
}

// Prev loads the preceding page; at the first page it returns the current one
func (c *Collection) Prev(ctx context.Context) (Page, error) {
	c.mu.Lock()
	if c.query.Page <= 1 {
		p := c.page
		c.mu.Unlock()
		return p, nil
	}
	c.query.Page--
	c.mu.Unlock()
	return c.Load(ctx)
}

// GoTo loads page n
func (c *Collection) GoTo(ctx context.Context, n int) (Page, error) {
	if n < 1 {
		n = 1
	}
	c.mu.Lock()
	c.query.Page = n
	c.mu.Unlock()
	return c.Load(ctx)
}

// SetSearch changes the search filter and reloads from page 1
func (c *Collection) SetSearch(ctx context.Context, search string) (Page, error) {
	c.mu.Lock()
	c.query.Search = search
	c.query.Page = 1
	c.mu.Unlock()
	return c.Load(ctx)
}

// Query returns the current filters
func (c *Collection) Query() Query {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.query
}

// Page returns the last successfully loaded page
func (c *Collection) Page() Page {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.page
}

// Loading reports whether a fetch is in flight
func (c *Collection) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Err returns the error of the last load, or nil
func (c *Collection) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}
