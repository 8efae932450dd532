package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Alias1177/LottoPredictor/models"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DB is the Postgres draw archive
type DB struct {
	*sql.DB
	logger zerolog.Logger
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the lib/pq connection string
func (p ConnectionParams) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode,
	)
}

// New creates a new database connection
func New(ctx context.Context, params ConnectionParams) (*DB, error) {
	db, err := sql.Open("postgres", params.DSN())
	if err != nil {
		return nil, err
	}

	// Check connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	// Create tables if they don't exist
	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{DB: db, logger: log.With().Str("component", "draw_archive").Logger()}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS draw_records (
			variant TEXT NOT NULL,
			issue TEXT NOT NULL,
			red TEXT[] NOT NULL,
			blue TEXT[] NOT NULL,
			fetched_at TIMESTAMP NOT NULL DEFAULT NOW(),
			PRIMARY KEY (variant, issue)
		)
	`)
	return err
}

// Load returns the archived history of the variant ordered by issue number.
// Issues are digit strings, so shorter ids sort first.
func (db *DB) Load(ctx context.Context, v models.VariantConfig) ([]models.DrawRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT issue, red, blue
		FROM draw_records
		WHERE variant = $1
		ORDER BY length(issue), issue
	`, v.Code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.DrawRecord
	for rows.Next() {
		var rec models.DrawRecord
		if err := rows.Scan(&rec.Issue, pq.Array(&rec.Red), pq.Array(&rec.Blue)); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: archive has no rows for %s", models.ErrMissingData, v.Code)
	}
	return records, nil
}

// Save replaces the archived history of the variant in one transaction
func (db *DB) Save(ctx context.Context, v models.VariantConfig, records []models.DrawRecord) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM draw_records WHERE variant = $1`, v.Code); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO draw_records (variant, issue, red, blue)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (variant, issue)
		DO UPDATE SET
			red = EXCLUDED.red,
			blue = EXCLUDED.blue,
			fetched_at = NOW()
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, v.Code, rec.Issue, pq.Array(rec.Red), pq.Array(rec.Blue)); err != nil {
			return fmt.Errorf("archiving issue %s: %w", rec.Issue, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	db.logger.Info().Str("variant", v.Code).Int("rows", len(records)).Msg("Draw history archived")
	return nil
}
