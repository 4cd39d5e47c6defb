package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"facegate/internal/identity"
	"facegate/internal/records"
)

// RecordStore is the PostgreSQL implementation of records.Store.
type RecordStore struct {
	pool *Pool
}

// NewRecordStore creates a record store over the pool.
func NewRecordStore(pool *Pool) *RecordStore {
	return &RecordStore{pool: pool}
}

// Get returns the record for an identifier with all reference descriptors,
// or records.ErrNotFound.
func (s *RecordStore) Get(ctx context.Context, identifier string) (*identity.Record, error) {
	rec := identity.Record{Identifier: identifier}

	err := s.pool.db.QueryRowContext(ctx,
		`SELECT name, unit, cohort, contact FROM records WHERE identifier = $1`,
		identifier,
	).Scan(&rec.Name, &rec.Unit, &rec.Cohort, &rec.Contact)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, records.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query record: %w", err)
	}

	rows, err := s.pool.db.QueryContext(ctx,
		`SELECT descriptor FROM record_descriptors WHERE identifier = $1 ORDER BY id`,
		identifier,
	)
	if err != nil {
		return nil, fmt.Errorf("query descriptors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var vec pgvector.Vector
		if err := rows.Scan(&vec); err != nil {
			return nil, fmt.Errorf("scan descriptor: %w", err)
		}
		rec.Descriptors = append(rec.Descriptors, vec.Slice())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate descriptors: %w", err)
	}

	return &rec, nil
}

// ListIdentifiers returns all enrolled identifiers in sorted order.
func (s *RecordStore) ListIdentifiers(ctx context.Context) ([]string, error) {
	rows, err := s.pool.db.QueryContext(ctx, `SELECT identifier FROM records ORDER BY identifier`)
	if err != nil {
		return nil, fmt.Errorf("query identifiers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan identifier: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identifiers: %w", err)
	}
	return ids, nil
}

// All returns every record with descriptors, for building the nearest-
// enrollee index at startup.
func (s *RecordStore) All(ctx context.Context) ([]identity.Record, error) {
	ids, err := s.ListIdentifiers(ctx)
	if err != nil {
		return nil, err
	}

	recs := make([]identity.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, nil
}

// Upsert writes one record and replaces its descriptors. Used only by the
// `records sync` import from the registration system; the verification
// core never calls it.
func (s *RecordStore) Upsert(ctx context.Context, rec identity.Record) error {
	tx, err := s.pool.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO records (identifier, name, unit, cohort, contact)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (identifier) DO UPDATE
		 SET name = EXCLUDED.name, unit = EXCLUDED.unit,
		     cohort = EXCLUDED.cohort, contact = EXCLUDED.contact`,
		rec.Identifier, rec.Name, rec.Unit, rec.Cohort, rec.Contact,
	)
	if err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM record_descriptors WHERE identifier = $1`, rec.Identifier,
	); err != nil {
		return fmt.Errorf("clear descriptors: %w", err)
	}

	for _, desc := range rec.Descriptors {
		if len(desc) != identity.DescriptorDim {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO record_descriptors (identifier, descriptor) VALUES ($1, $2)`,
			rec.Identifier, pgvector.NewVector(desc),
		); err != nil {
			return fmt.Errorf("insert descriptor: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
