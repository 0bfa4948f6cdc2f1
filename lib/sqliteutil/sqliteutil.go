package sqliteutil

import (
	"database/sql"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Opens a database given either a local file path or a libsql:// url
// and ensures the given schema exists.
func OpenDB(schema, target string) (*sql.DB, error) {
	var db *sql.DB
	var err error

	if strings.HasPrefix(target, "libsql://") || strings.HasPrefix(target, "http") {
		db, err = sql.Open("libsql", target)
	} else {
		db, err = sql.Open("sqlite", target)
	}
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		db.Close()
		return nil, err
	}

	return db, nil
}
