// Package mariadb reads enrollment records out of the legacy registration
// system so they can be imported into the local store.
package mariadb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"facegate/internal/identity"
)

// Pool manages a MariaDB connection pool.
type Pool struct {
	db *sql.DB
}

// NewPool creates a new MariaDB connection pool.
func NewPool(dsn string) (*Pool, error) {
	if dsn == "" {
		return nil, errors.New("registry DSN is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MariaDB: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MariaDB: %w", err)
	}

	return &Pool{db: db}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

// ListRecords reads every enrollment from the registration system.
// Reference descriptors are stored as JSON list-of-lists in a mediumblob
// column; rows with malformed JSON are skipped rather than failing the
// whole import.
func (p *Pool) ListRecords(ctx context.Context) ([]identity.Record, error) {
	query := `
		SELECT e.identifier, e.name, e.unit, e.cohort, e.contact, e.descriptors_json
		FROM enrollments e
		WHERE e.active = 1
		ORDER BY e.identifier
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query enrollments: %w", err)
	}
	defer rows.Close()

	var recs []identity.Record
	for rows.Next() {
		var rec identity.Record
		var descJSON sql.RawBytes
		if err := rows.Scan(&rec.Identifier, &rec.Name, &rec.Unit, &rec.Cohort, &rec.Contact, &descJSON); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}

		if len(descJSON) > 0 {
			var descriptors [][]float32
			if err := json.Unmarshal(descJSON, &descriptors); err == nil {
				for _, d := range descriptors {
					if len(d) == identity.DescriptorDim {
						rec.Descriptors = append(rec.Descriptors, d)
					}
				}
			}
		}

		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollments: %w", err)
	}

	return recs, nil
}
