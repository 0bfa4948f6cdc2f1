package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const createRun = `
INSERT INTO runs (id, startedAt) VALUES (?, ?)
`

type CreateRunParams struct {
	ID        string
	Startedat int64
}

func (q *Queries) CreateRun(ctx context.Context, arg CreateRunParams) error {
	_, err := q.db.ExecContext(ctx, createRun, arg.ID, arg.Startedat)
	return err
}

const noteWindow = `
INSERT OR REPLACE INTO scraped_windows
(street, cityId, initialNumber, finalNumber, runId, completedAt)
VALUES (?, ?, ?, ?, ?, ?)
`

type NoteWindowParams struct {
	Street        string
	Cityid        int64
	Initialnumber int64
	Finalnumber   int64
	Runid         string
	Completedat   int64
}

func (q *Queries) NoteWindow(ctx context.Context, arg NoteWindowParams) error {
	_, err := q.db.ExecContext(
		ctx, noteWindow,
		arg.Street, arg.Cityid, arg.Initialnumber, arg.Finalnumber,
		arg.Runid, arg.Completedat,
	)
	return err
}

const hasWindow = `
SELECT COUNT(*) FROM scraped_windows
WHERE street = ? AND cityId = ? AND initialNumber = ? AND finalNumber = ?
`

type HasWindowParams struct {
	Street        string
	Cityid        int64
	Initialnumber int64
	Finalnumber   int64
}

func (q *Queries) HasWindow(ctx context.Context, arg HasWindowParams) (bool, error) {
	row := q.db.QueryRowContext(
		ctx, hasWindow,
		arg.Street, arg.Cityid, arg.Initialnumber, arg.Finalnumber,
	)
	var count int64
	err := row.Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
