// Package pgdocs retrieves document chunks from PostgreSQL with pgvector,
// blending vector similarity and full-text rank into one hybrid score.
package pgdocs

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	_ "github.com/lib/pq"

	"github.com/sweetpotato0/citekit/embed"
	"github.com/sweetpotato0/citekit/pkg/logging"
	"github.com/sweetpotato0/citekit/source"
)

// Name is the source identifier this adapter registers under.
const Name = "documents"

// Config describes the database connection and the chunk table.
type Config struct {
	Host       string
	Port       int
	User       string
	Password   string
	Database   string
	SSLMode    string
	TableName  string // chunk table with embedding + search_vector columns
	Collection string // optional collection filter
	TextConfig string // text search configuration for plainto_tsquery
}

// DefaultConfig returns the standard connection settings.
func DefaultConfig() Config {
	return Config{
		Host:       "localhost",
		Port:       5432,
		User:       "postgres",
		Database:   "citekit",
		SSLMode:    "disable",
		TableName:  "document_chunks",
		TextConfig: "simple",
	}
}

// Adapter runs hybrid search over the chunk table.
type Adapter struct {
	db       *sql.DB
	embedder embed.Embedder
	cfg      Config
	logger   *slog.Logger
}

// New connects to PostgreSQL and returns the adapter. The embedder
// vectorises subqueries; it must match the dimension of the stored
// embeddings.
func New(cfg Config, embedder embed.Embedder) (*Adapter, error) {
	if embedder == nil {
		return nil, fmt.Errorf("pgdocs: embedder is required")
	}
	if cfg.TableName == "" {
		cfg.TableName = "document_chunks"
	}
	if cfg.TextConfig == "" {
		cfg.TextConfig = "simple"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Adapter{
		db:       db,
		embedder: embedder,
		cfg:      cfg,
		logger:   logging.WithComponent("pgdocs"),
	}, nil
}

// Name returns the source identifier.
func (a *Adapter) Name() string { return Name }

// Close releases the connection pool.
func (a *Adapter) Close() error { return a.db.Close() }

// Retrieve embeds the subquery and runs the hybrid query: the weighted sum
// of cosine similarity and ts_rank, filtered by the request threshold.
func (a *Adapter) Retrieve(ctx context.Context, req source.Request) ([]source.Hit, error) {
	vector, err := a.embedder.Embed(ctx, req.Subquery)
	if err != nil {
		return nil, fmt.Errorf("embed subquery: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT document_id, chunk_index, title, content,
		       $1 * (1 - (embedding <=> $2::vector)) +
		       $3 * ts_rank(search_vector, plainto_tsquery('%s', $4)) AS score
		FROM %s
		WHERE ($5 = '' OR collection = $5)
		ORDER BY score DESC
		LIMIT $6`, a.cfg.TextConfig, a.cfg.TableName)

	rows, err := a.db.QueryContext(ctx, query,
		req.VectorWeight, vectorLiteral(vector), req.TextWeight, req.Subquery,
		a.cfg.Collection, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("hybrid search: %w", err)
	}
	defer rows.Close()

	var hits []source.Hit
	for rows.Next() {
		var (
			docID   string
			chunk   int
			title   sql.NullString
			content string
			score   float64
		)
		if err := rows.Scan(&docID, &chunk, &title, &content, &score); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if float32(score) < req.Threshold {
			continue
		}
		hits = append(hits, source.Hit{
			Source:     Name,
			Type:       source.TypeDocument,
			Title:      title.String,
			Snippet:    content,
			DocumentID: docID,
			ChunkIndex: chunk,
			Score:      float32(score),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	a.logger.Debug("hybrid search done",
		"subquery", req.Subquery,
		"hits", len(hits),
		"vector_weight", req.VectorWeight,
	)
	return hits, nil
}

// vectorLiteral renders a pgvector input literal.
func vectorLiteral(vec []float32) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
