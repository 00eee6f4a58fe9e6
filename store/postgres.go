package store

import (
	"biometria/models"
	"biometria/utils"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

const postgresSchema = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS enrollments (
	identity_id     VARCHAR(64) PRIMARY KEY,
	display_name    TEXT NOT NULL,
	reference_photo TEXT NOT NULL,
	descriptor      vector NOT NULL,
	enrolled_at     TIMESTAMPTZ NOT NULL
);`

// Postgres stores descriptors in a pgvector column.
type Postgres struct {
	db *sql.DB
}

// NewPostgres connects to url and creates the schema if missing.
func NewPostgres(ctx context.Context, url string) (*Postgres, error) {
	if url == "" {
		return nil, errors.New("database URL is required")
	}
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Upsert(ctx context.Context, rec *models.Enrollment) error {
	emb, err := rec.Embedding()
	if err != nil {
		return fmt.Errorf("upsert %s: %w", rec.IdentityID, err)
	}
	query := `
		INSERT INTO enrollments (identity_id, display_name, reference_photo, descriptor, enrolled_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (identity_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			reference_photo = EXCLUDED.reference_photo,
			descriptor = EXCLUDED.descriptor,
			enrolled_at = EXCLUDED.enrolled_at
	`
	_, err = p.db.ExecContext(ctx, query,
		rec.IdentityID, rec.DisplayName, rec.ReferencePhoto, pgvector.NewVector(emb), rec.EnrolledAt)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", rec.IdentityID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEnrollment(row rowScanner) (*models.Enrollment, error) {
	var rec models.Enrollment
	var vec pgvector.Vector
	if err := row.Scan(&rec.IdentityID, &rec.DisplayName, &rec.ReferencePhoto, &vec, &rec.EnrolledAt); err != nil {
		return nil, err
	}
	rec.Descriptor = utils.EncodeEmbedding(vec.Slice())
	rec.EnrolledAt = rec.EnrolledAt.UTC()
	return &rec, nil
}

const selectEnrollment = `SELECT identity_id, display_name, reference_photo, descriptor, enrolled_at FROM enrollments`

func (p *Postgres) Get(ctx context.Context, identityID string) (*models.Enrollment, error) {
	rec, err := scanEnrollment(p.db.QueryRowContext(ctx, selectEnrollment+` WHERE identity_id = $1`, identityID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", identityID, err)
	}
	return rec, nil
}

func (p *Postgres) Delete(ctx context.Context, identityID string) (int64, error) {
	result, err := p.db.ExecContext(ctx, `DELETE FROM enrollments WHERE identity_id = $1`, identityID)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", identityID, err)
	}
	return result.RowsAffected()
}

func (p *Postgres) Snapshot(ctx context.Context) ([]models.Enrollment, error) {
	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("snapshot: begin: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, selectEnrollment+` ORDER BY identity_id`)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	defer rows.Close()

	var records []models.Enrollment
	for rows.Next() {
		rec, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("snapshot: scan: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return records, tx.Commit()
}

func (p *Postgres) Close() error {
	if err := p.db.Close(); err != nil {
		return fmt.Errorf("closing database connection: %w", err)
	}
	return nil
}
