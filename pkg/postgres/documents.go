package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	apperrors "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/errors"
)

// DocumentRow is one stored document. Status holds the status name.
type DocumentRow struct {
	ID      int64
	Body    string
	Status  string
	Ratings []int
}

// DocumentStore reads and writes the documents table. Rows are returned in
// the order they were inserted so a reload reproduces insertion order.
type DocumentStore struct {
	client *Client
	table  string
}

func NewDocumentStore(client *Client, table string) *DocumentStore {
	return &DocumentStore{
		client: client,
		table:  pq.QuoteIdentifier(table),
	}
}

// EnsureSchema creates the documents table when it does not exist.
func (s *DocumentStore) EnsureSchema(ctx context.Context) error {
	return s.client.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			seq        BIGSERIAL,
			id         BIGINT PRIMARY KEY CHECK (id >= 0),
			body       TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'ACTUAL',
			ratings    INTEGER[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, s.table))
		if err != nil {
			return fmt.Errorf("creating table %s: %w", s.table, err)
		}
		return nil
	})
}

// Insert stores row. An id that is already stored yields
// errors.ErrDocumentExists.
func (s *DocumentStore) Insert(ctx context.Context, row DocumentRow) error {
	return s.insert(ctx, s.client.DB, row)
}

// InsertThen stores row and runs then inside one transaction. The row is
// committed only when then succeeds; otherwise it is rolled back and then's
// error is returned.
func (s *DocumentStore) InsertThen(ctx context.Context, row DocumentRow, then func(ctx context.Context) error) error {
	return s.client.InTx(ctx, func(tx *sql.Tx) error {
		if err := s.insert(ctx, tx, row); err != nil {
			return err
		}
		return then(ctx)
	})
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *DocumentStore) insert(ctx context.Context, q rowQuerier, row DocumentRow) error {
	var id int64
	err := q.QueryRowContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (id, body, status, ratings)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
		RETURNING id`, s.table),
		row.ID, row.Body, row.Status, pq.Array(toInt64s(row.Ratings)),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: id %d", apperrors.ErrDocumentExists, row.ID)
	}
	if err != nil {
		return fmt.Errorf("inserting document %d: %w", row.ID, err)
	}
	return nil
}

// Each calls fn for every stored document in insertion order and stops at
// the first error fn returns.
func (s *DocumentStore) Each(ctx context.Context, fn func(DocumentRow) error) error {
	rows, err := s.client.DB.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, body, status, ratings FROM %s ORDER BY seq`, s.table))
	if err != nil {
		return fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			row     DocumentRow
			ratings []int64
		)
		if err := rows.Scan(&row.ID, &row.Body, &row.Status, pq.Array(&ratings)); err != nil {
			return fmt.Errorf("scanning document: %w", err)
		}
		row.Ratings = make([]int, len(ratings))
		for i, r := range ratings {
			row.Ratings[i] = int(r)
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating documents: %w", err)
	}
	return nil
}

func toInt64s(in []int) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}
