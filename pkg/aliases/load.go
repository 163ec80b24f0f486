// Package aliases loads the law alias mapping that the citation index is
// built from. A mapping associates a decimal law id with the names the law
// is referred to by. It can come from a YAML or JSON file or from a SQLite
// table, and a file source can be watched for changes.
package aliases

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/coolbeans/lawlinks/pkg/citation"
)

// ErrNoSource is returned when a Source names neither a file nor a database.
var ErrNoSource = errors.New("no alias source configured")

// Source selects where the alias mapping is read from. A SQLite DSN takes
// precedence over a file path.
type Source struct {
	Path        string
	SQLiteDSN   string
	SQLiteQuery string
}

// String describes the source for logs.
func (s Source) String() string {
	if s.SQLiteDSN != "" {
		return "sqlite:" + s.SQLiteDSN
	}
	return s.Path
}

// Load reads the alias mapping from src.
func Load(ctx context.Context, src Source) ([]citation.AliasEntry, error) {
	switch {
	case src.SQLiteDSN != "":
		return LoadSQLite(ctx, src.SQLiteDSN, src.SQLiteQuery)
	case src.Path != "":
		return LoadFile(src.Path)
	default:
		return nil, ErrNoSource
	}
}

// LoadFile reads a .json, .yaml or .yml alias file. Entries keep the order
// in which they appear in the file.
func LoadFile(path string) ([]citation.AliasEntry, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported alias file extension %q", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading alias file: %w", err)
	}

	entries, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return entries, nil
}

// Parse decodes an alias mapping document. JSON is accepted as it is valid
// YAML. The top level must be a mapping; values that are not sequences and
// aliases that are not strings are skipped.
func Parse(data []byte) ([]citation.AliasEntry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding YAML: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("empty alias document")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("alias document must be a mapping of law id to aliases")
	}

	entries := make([]citation.AliasEntry, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if key.Kind != yaml.ScalarNode || value.Kind != yaml.SequenceNode {
			continue
		}

		entry := citation.AliasEntry{ID: key.Value}
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.ShortTag() != "!!str" {
				continue
			}
			entry.Aliases = append(entry.Aliases, item.Value)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
