// Package catalog provides the anime name to AID listing the bot
// builds its deep links from. The listing is a JSON document hosted in
// a GitHub repository and treated as a point-in-time snapshot.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Entry is a single catalog record.
type Entry struct {
	// Name is the canonical anime name.
	Name string
	// AID is the internal identifier used to build watch links.
	AID string
	// Posters are candidate poster URLs in priority order.
	Posters []string
}

// Catalog is an immutable snapshot of the full listing.
type Catalog struct {
	entries []Entry
	byName  map[string]int
}

// New builds a Catalog from entries, preserving document order.
// Later duplicates of a name are ignored.
func New(entries []Entry) *Catalog {
	c := &Catalog{
		entries: entries,
		byName:  make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		key := strings.ToLower(strings.TrimSpace(e.Name))
		if _, ok := c.byName[key]; !ok {
			c.byName[key] = i
		}
	}
	return c
}

// Lookup returns the entry whose name matches case-insensitively.
func (c *Catalog) Lookup(name string) (Entry, bool) {
	i, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Names returns all catalog names in document order. The order is
// stable and feeds suggestion tie-breaking.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.Name
	}
	return names
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// --- Wire format ---

// The upstream document is a JSON array of {name, aid, poster} records.
// "aid" arrives as either a string or a number, and "poster" as either
// a single URL or a list.

type wireEntry struct {
	Name   string     `json:"name"`
	AID    flexString `json:"aid"`
	Poster posterList `json:"poster"`
}

type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type posterList []string

func (p *posterList) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*p = nil
		return nil
	}
	if data[0] == '[' {
		var urls []string
		if err := json.Unmarshal(data, &urls); err != nil {
			return err
		}
		*p = urls
		return nil
	}
	var url string
	if err := json.Unmarshal(data, &url); err != nil {
		return err
	}
	if url != "" {
		*p = []string{url}
	}
	return nil
}

// Parse decodes the upstream JSON document into a Catalog.
// Records without a name are skipped.
func Parse(r io.Reader) (*Catalog, error) {
	var wire []wireEntry
	if err := json.NewDecoder(r).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	entries := make([]Entry, 0, len(wire))
	for _, w := range wire {
		if strings.TrimSpace(w.Name) == "" {
			continue
		}
		entries = append(entries, Entry{
			Name:    w.Name,
			AID:     string(w.AID),
			Posters: w.Poster,
		})
	}
	return New(entries), nil
}
