// Package component routes host "show component" requests to command
// execution or client navigation, using a configuration table loaded once.
package component

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const tableLogPrefix = "component:table"

// Entry configures one hosted component. Exactly one of CommandID and
// Location is expected; CommandID wins when both are set.
type Entry struct {
	ID          string            `json:"id" yaml:"id" toml:"id"`
	CommandID   string            `json:"commandId,omitempty" yaml:"commandId,omitempty" toml:"commandId"`
	Location    string            `json:"location,omitempty" yaml:"location,omitempty" toml:"location"`
	Params      map[string]string `json:"params,omitempty" yaml:"params,omitempty" toml:"params"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty" toml:"description"`
}

// IsCommand reports whether the entry executes a command.
func (e Entry) IsCommand() bool { return e.CommandID != "" }

// IsNavigation reports whether the entry navigates the client.
func (e Entry) IsNavigation() bool { return e.CommandID == "" && e.Location != "" }

// TableFile is the on-disk shape of a component table.
type TableFile struct {
	Components []Entry `json:"components" yaml:"components" toml:"components"`
}

// Source supplies table entries.
type Source interface {
	LoadEntries(ctx context.Context) ([]Entry, error)
}

// StaticSource serves a fixed list of entries.
type StaticSource []Entry

// LoadEntries implements Source.
func (s StaticSource) LoadEntries(context.Context) ([]Entry, error) {
	out := make([]Entry, len(s))
	copy(out, s)
	return out, nil
}

// FileSource reads a JSON, YAML or TOML table file, chosen by extension.
type FileSource struct {
	Path string
}

// LoadEntries implements Source.
func (f FileSource) LoadEntries(context.Context) ([]Entry, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("%s - read %s: %w", tableLogPrefix, f.Path, err)
	}
	tf, err := ParseTable(filepath.Ext(f.Path), data)
	if err != nil {
		return nil, fmt.Errorf("%s - parse %s: %w", tableLogPrefix, f.Path, err)
	}
	return tf.Components, nil
}

// ParseTable decodes table data in the format named by ext (".json",
// ".yaml", ".yml" or ".toml").
func ParseTable(ext string, data []byte) (*TableFile, error) {
	var tf TableFile
	var err error
	switch strings.ToLower(ext) {
	case ".json":
		err = json.Unmarshal(data, &tf)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &tf)
	case ".toml":
		err = toml.Unmarshal(data, &tf)
	default:
		return nil, fmt.Errorf("%s - unsupported table format %q", tableLogPrefix, ext)
	}
	if err != nil {
		return nil, err
	}
	return &tf, nil
}

// Table is the component configuration table. It is loaded from its source
// on first use and cached for the rest of the session. A failed load is not
// cached; the next lookup tries the source again.
type Table struct {
	src Source

	mu      sync.Mutex
	loaded  bool
	entries map[string]Entry
}

// NewTable creates a table backed by src.
func NewTable(src Source) *Table {
	return &Table{src: src}
}

func (t *Table) load(ctx context.Context) (map[string]Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.loaded {
		return t.entries, nil
	}
	entries := make(map[string]Entry)
	if t.src != nil {
		list, err := t.src.LoadEntries(ctx)
		if err != nil {
			slog.Error(fmt.Sprintf("%s - Failed to load component table: %v", tableLogPrefix, err))
			return nil, err
		}
		for _, e := range list {
			if e.ID == "" {
				slog.Warn(fmt.Sprintf("%s - Skipping component entry without id", tableLogPrefix))
				continue
			}
			entries[e.ID] = e
		}
		slog.Info(fmt.Sprintf("%s - Loaded %d component entries", tableLogPrefix, len(entries)))
	}
	t.entries = entries
	t.loaded = true
	return entries, nil
}

// Lookup returns the entry for id.
func (t *Table) Lookup(ctx context.Context, id string) (Entry, bool, error) {
	entries, err := t.load(ctx)
	if err != nil {
		return Entry{}, false, err
	}
	e, ok := entries[id]
	return e, ok, nil
}

// Len returns the number of loaded entries.
func (t *Table) Len(ctx context.Context) int {
	entries, _ := t.load(ctx)
	return len(entries)
}
