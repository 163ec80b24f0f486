package aliases

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/coolbeans/lawlinks/pkg/citation"
)

// DefaultSQLiteQuery reads aliases in insertion order.
const DefaultSQLiteQuery = "SELECT law_id, alias FROM law_aliases ORDER BY rowid"

// LoadSQLite reads (law_id, alias) rows from a SQLite database. Entries are
// ordered by the first row of each law id. An empty query uses
// DefaultSQLiteQuery.
func LoadSQLite(ctx context.Context, dsn, query string) ([]citation.AliasEntry, error) {
	if query == "" {
		query = DefaultSQLiteQuery
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening alias database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying aliases: %w", err)
	}
	defer rows.Close()

	var entries []citation.AliasEntry
	position := make(map[string]int)
	for rows.Next() {
		var lawID string
		var alias sql.NullString
		if err := rows.Scan(&lawID, &alias); err != nil {
			return nil, fmt.Errorf("scanning alias row: %w", err)
		}

		i, ok := position[lawID]
		if !ok {
			i = len(entries)
			position[lawID] = i
			entries = append(entries, citation.AliasEntry{ID: lawID})
		}
		if alias.Valid {
			entries[i].Aliases = append(entries[i].Aliases, alias.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading alias rows: %w", err)
	}

	return entries, nil
}
