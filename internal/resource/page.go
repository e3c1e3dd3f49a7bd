// ABOUTME: Normalizes paginated backend responses into a uniform Page
// ABOUTME: Reads list, pagination, and stats fields with gjson

package resource

import (
	"errors"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrMalformed reports a response body that is not JSON
var ErrMalformed = errors.New("malformed response from backend")

// Record is one item of a list, kept as raw JSON
type Record struct {
	raw gjson.Result
}

// NewRecord wraps a JSON object
func NewRecord(raw string) Record {
	return Record{raw: gjson.Parse(raw)}
}

// Get returns the string form of the value at a gjson path
func (r Record) Get(path string) string {
	return r.raw.Get(path).String()
}

// Value returns the value at a gjson path
func (r Record) Value(path string) gjson.Result {
	return r.raw.Get(path)
}

// Raw returns the record's JSON text
func (r Record) Raw() string {
	return r.raw.Raw
}

// Cell renders column c for this record
func (r Record) Cell(c Column) string {
	v := r.raw.Get(c.Path)
	if c.Format != nil {
		return c.Format(v)
	}
	if !v.Exists() || v.Type == gjson.Null {
		return "-"
	}
	return strings.TrimSpace(v.String())
}

// Page is one page of a collection
type Page struct {
	Items       []Record
	CurrentPage int
	LastPage    int
	Total       int
	Stats       map[string]string
}

// HasNext reports whether a later page exists
func (p Page) HasNext() bool {
	return p.CurrentPage < p.LastPage
}

// HasPrev reports whether an earlier page exists
func (p Page) HasPrev() bool {
	return p.CurrentPage > 1
}

// Normalize converts a list response into a Page. The list may sit under
// d.ListKey or at the top level, as a paginator object with a data array or
// as a bare array. Missing pagination fields default to a single page.
func Normalize(d Descriptor, body []byte) (Page, error) {
	if !gjson.ValidBytes(body) {
		return Page{}, ErrMalformed
	}
	root := gjson.ParseBytes(body)

	container := root
	if d.ListKey != "" {
		container = root.Get(d.ListKey)
	}

	var list gjson.Result
	if container.IsArray() {
		list = container
	} else {
		list = container.Get("data")
	}

	page := Page{Stats: map[string]string{}}
	for _, item := range list.Array() {
		page.Items = append(page.Items, Record{raw: item})
	}

	page.CurrentPage = positive(container.Get("current_page"), 1)
	page.LastPage = positive(container.Get("last_page"), 1)
	if page.LastPage < page.CurrentPage {
		page.LastPage = page.CurrentPage
	}
	page.Total = positive(container.Get("total"), len(page.Items))

	for _, s := range d.Stats {
		v := root.Get(s.Key)
		if !v.Exists() || v.Type == gjson.Null {
			page.Stats[s.Key] = "0"
			continue
		}
		if v.IsArray() {
			page.Stats[s.Key] = strconv.Itoa(len(v.Array()))
			continue
		}
		page.Stats[s.Key] = v.String()
	}
	return page, nil
}

func positive(v gjson.Result, fallback int) int {
	if n := int(v.Int()); n > 0 {
		return n
	}
	return fallback
}
