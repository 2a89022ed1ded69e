package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

const schemaSQL = `
	CREATE EXTENSION IF NOT EXISTS vector;
	CREATE TABLE IF NOT EXISTS record_embeddings (
		model      TEXT        NOT NULL,
		text_hash  TEXT        NOT NULL,
		embedding  vector      NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (model, text_hash)
	)`

// PostgresEmbeddingStore caches description embeddings keyed by model and text hash,
// so a restart only embeds descriptions it has never seen.
type PostgresEmbeddingStore struct {
	db *sqlx.DB
}

// NewPostgresEmbeddingStore connects to PostgreSQL and makes sure the cache table exists
func NewPostgresEmbeddingStore(ctx context.Context, dsn string, maxConn, maxIdleConn int) (*PostgresEmbeddingStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	store := NewPostgresEmbeddingStoreFromDB(db)
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresEmbeddingStoreFromDB wraps an existing connection pool
func NewPostgresEmbeddingStoreFromDB(db *sqlx.DB) *PostgresEmbeddingStore {
	return &PostgresEmbeddingStore{db: db}
}

// EnsureSchema creates the pgvector extension and cache table when missing
func (s *PostgresEmbeddingStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure embedding schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *PostgresEmbeddingStore) Close() error {
	return s.db.Close()
}

type embeddingRow struct {
	TextHash  string          `db:"text_hash"`
	Embedding pgvector.Vector `db:"embedding"`
}

// Lookup returns the cached vectors for the given hashes. Misses are simply absent.
func (s *PostgresEmbeddingStore) Lookup(ctx context.Context, model string, hashes []string) (map[string][]float32, error) {
	found := make(map[string][]float32, len(hashes))
	if len(hashes) == 0 {
		return found, nil
	}

	var rows []embeddingRow
	query := `SELECT text_hash, embedding FROM record_embeddings WHERE model = $1 AND text_hash = ANY($2)`
	if err := s.db.SelectContext(ctx, &rows, query, model, pq.Array(hashes)); err != nil {
		return nil, fmt.Errorf("failed to look up embeddings: %w", err)
	}

	for _, row := range rows {
		found[row.TextHash] = row.Embedding.Slice()
	}
	return found, nil
}

// Store upserts vectors for the given hashes in one transaction
func (s *PostgresEmbeddingStore) Store(ctx context.Context, model string, vectors map[string][]float32) error {
	if len(vectors) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO record_embeddings (model, text_hash, embedding)
		VALUES ($1, $2, $3)
		ON CONFLICT (model, text_hash) DO UPDATE SET embedding = EXCLUDED.embedding`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	hashes := make([]string, 0, len(vectors))
	for hash := range vectors {
		hashes = append(hashes, hash)
	}
	sort.Strings(hashes)

	for _, hash := range hashes {
		if _, err := stmt.ExecContext(ctx, model, hash, pgvector.NewVector(vectors[hash])); err != nil {
			return fmt.Errorf("failed to store embedding %s: %w", hash, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
