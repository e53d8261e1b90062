// Package hints loads schema notes: short documents that explain tables,
// columns and business vocabulary to the query translator. Notes live in a
// directory tree and are addressed by /-separated keys.
package hints

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Entry is one note. Key is the /-separated relative path.
type Entry struct {
	Key   string
	Value []byte
}

// Store reads notes from external storage.
type Store interface {
	// List returns all available keys.
	List(ctx context.Context) ([]string, error)
	// Load retrieves entries for the specified keys.
	Load(ctx context.Context, keys ...string) ([]Entry, error)
}

// Catalog is an in-memory snapshot of every note in a Store.
type Catalog struct {
	entries []Entry
}

// Load reads every note from store. A nil store yields an empty catalog.
func Load(ctx context.Context, store Store) (*Catalog, error) {
	if store == nil {
		return &Catalog{}, nil
	}

	keys, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list hints: %w", err)
	}
	if len(keys) == 0 {
		return &Catalog{}, nil
	}

	entries, err := store.Load(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("load hints: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return &Catalog{entries: entries}, nil
}

// Len returns the number of notes.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Keys returns the sorted note keys.
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.entries))
	for i, e := range c.entries {
		keys[i] = e.Key
	}
	return keys
}

// Text renders all notes as one block, each headed by its key.
func (c *Catalog) Text() string {
	var b strings.Builder
	for i, e := range c.entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "## %s\n%s", e.Key, strings.TrimSpace(string(e.Value)))
	}
	return b.String()
}
