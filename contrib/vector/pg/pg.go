// Package pg implements vector.SearchPort on PostgreSQL with the pgvector
// extension. Chunks live in namespaced rows with theme tags and citation
// metadata; search is top-k cosine similarity.
package pg

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/medlexica/regagent/vector"
)

// Config holds pgvector connection and schema settings.
type Config struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	SSLMode   string
	Dimension int
	TableName string
}

// DefaultConfig returns local development settings.
func DefaultConfig() *Config {
	return &Config{
		Host:      "127.0.0.1",
		Port:      5432,
		User:      "postgres",
		Password:  "postgres",
		DBName:    "regagent",
		SSLMode:   "disable",
		Dimension: 768,
		TableName: "corpus_chunks",
	}
}

// Store is a pgvector-backed corpus index.
type Store struct {
	db        *sql.DB
	embedder  vector.Embedder
	dimension int
	tableName string
}

// Chunk is one ingested corpus fragment.
type Chunk struct {
	ID        string
	Namespace string
	Text      string
	Tags      []string
	Citation  vector.Citation
}

// New connects to PostgreSQL, ensures the schema exists, and returns a
// Store that embeds queries with the given embedder.
func New(config *Config, embedder vector.Embedder) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	store := &Store{
		db:        db,
		embedder:  embedder,
		dimension: config.Dimension,
		tableName: config.TableName,
	}
	if err := store.setup(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to setup pgvector: %w", err)
	}
	return store, nil
}

func (s *Store) setup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTableSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id VARCHAR(255) PRIMARY KEY,
		namespace VARCHAR(255) NOT NULL,
		text TEXT NOT NULL,
		tags TEXT[] NOT NULL DEFAULT '{}',
		doc_id VARCHAR(255) NOT NULL DEFAULT '',
		pages INTEGER[] NOT NULL DEFAULT '{}',
		source_url TEXT NOT NULL DEFAULT '',
		embedding vector(%d) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`, s.tableName, s.dimension)
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	indexSQL := fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s_namespace_idx ON %s (namespace)",
		s.tableName, s.tableName)
	if _, err := s.db.ExecContext(ctx, indexSQL); err != nil {
		return fmt.Errorf("failed to create namespace index: %w", err)
	}
	return nil
}

// Upsert inserts or replaces a chunk and its embedding.
func (s *Store) Upsert(ctx context.Context, chunk Chunk) error {
	if chunk.ID == "" {
		return fmt.Errorf("chunk ID cannot be empty")
	}
	if chunk.Namespace == "" {
		return fmt.Errorf("chunk namespace cannot be empty")
	}

	embedding, err := s.embedder.Embed(ctx, chunk.Text)
	if err != nil {
		return fmt.Errorf("failed to embed chunk %s: %w", chunk.ID, err)
	}
	if len(embedding) != s.dimension {
		return fmt.Errorf("embedding dimension mismatch: expected %d, got %d", s.dimension, len(embedding))
	}

	query := fmt.Sprintf(`
	INSERT INTO %s (id, namespace, text, tags, doc_id, pages, source_url, embedding)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8::vector)
	ON CONFLICT (id) DO UPDATE SET
		namespace = EXCLUDED.namespace,
		text = EXCLUDED.text,
		tags = EXCLUDED.tags,
		doc_id = EXCLUDED.doc_id,
		pages = EXCLUDED.pages,
		source_url = EXCLUDED.source_url,
		embedding = EXCLUDED.embedding,
		created_at = CURRENT_TIMESTAMP
	`, s.tableName)

	_, err = s.db.ExecContext(ctx, query,
		chunk.ID, chunk.Namespace, chunk.Text,
		pq.Array(chunk.Tags),
		chunk.Citation.DocumentID,
		pq.Array(chunk.Citation.Pages),
		chunk.Citation.SourceURL,
		vectorToString(embedding))
	if err != nil {
		return fmt.Errorf("failed to upsert chunk: %w", err)
	}
	return nil
}

// Search implements vector.SearchPort. Cosine similarity is reported as
// 1 minus the pgvector cosine distance. A non-empty filter keeps only
// chunks tagged with at least one of the given themes.
func (s *Store) Search(ctx context.Context, query, namespace string, topK int, filter []string) ([]vector.Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if topK <= 0 {
		topK = 10
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	vectorStr := vectorToString(embedding)

	args := []any{vectorStr, namespace}
	where := "namespace = $2"
	if len(filter) > 0 {
		where += " AND tags && $3::text[]"
		args = append(args, pq.Array(filter))
	}

	sqlQuery := fmt.Sprintf(`
	SELECT text, doc_id, pages, source_url, 1 - (embedding <=> $1::vector) AS score
	FROM %s
	WHERE %s
	ORDER BY embedding <=> $1::vector
	LIMIT %d
	`, s.tableName, where, topK)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer rows.Close()

	matches := make([]vector.Match, 0, topK)
	for rows.Next() {
		var m vector.Match
		var pages []int64
		if err := rows.Scan(&m.Text, &m.Citation.DocumentID, pq.Array(&pages), &m.Citation.SourceURL, &m.Score); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		m.Citation.Pages = make([]int, len(pages))
		for i, p := range pages {
			m.Citation.Pages[i] = int(p)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chunks: %w", err)
	}
	return matches, nil
}

// Count returns the number of chunks in a namespace.
func (s *Store) Count(ctx context.Context, namespace string) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE namespace = $1", s.tableName)
	if err := s.db.QueryRowContext(ctx, query, namespace).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func vectorToString(vec []float32) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = fmt.Sprintf("%f", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
