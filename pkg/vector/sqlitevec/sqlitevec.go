// Package sqlitevec provides a SQLite-backed vector index using sqlite-vec.
// It serves embedded/local deployments where running a Qdrant instance is
// not worth it.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/recaplabs/recap/pkg/vector"
)

// Config holds configuration for the sqlite-vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Collection holds the collection name, dimensionality, and distance
	// metric. The collection name becomes part of the table names so that
	// multiple collections can share one database file.
	Collection vector.Config
}

// Driver implements vector.Index using SQLite with the sqlite-vec extension.
type Driver struct {
	db         *sql.DB
	collection vector.Config
	logger     *zap.Logger
}

// NewDriver opens the database and verifies the sqlite-vec extension is
// available. Tables are created by EnsureCollection.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	// enable connections to have the sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	collection := c.Collection.Normalize()

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", vector.ErrConnection, err)
	}

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: sqlite-vec not available: %v", vector.ErrConnection, err)
	}

	logger.Info("sqlite-vec index opened",
		zap.String("db_path", c.DBPath),
		zap.String("collection", collection.CollectionName),
		zap.Uint("dimensions", collection.Dimensions),
		zap.String("vec_version", vecVersion),
	)

	return &Driver{
		db:         db,
		collection: collection,
		logger:     logger,
	}, nil
}

// EnsureCollection creates the chunk table and the vec0 virtual table if
// absent. CREATE TABLE IF NOT EXISTS makes repeat calls no-ops.
func (d *Driver) EnsureCollection(ctx context.Context) error {
	// vec0 virtual tables use integer rowids, so a mapping table carries
	// the string point IDs and the chunk payload.
	createChunks := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s_chunks (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			point_id TEXT NOT NULL UNIQUE,
			transcript_id TEXT NOT NULL,
			content TEXT NOT NULL,
			timestamp TEXT NOT NULL DEFAULT '',
			speaker TEXT NOT NULL DEFAULT ''
		)`, d.collection.CollectionName)
	if _, err := d.db.ExecContext(ctx, createChunks); err != nil {
		return fmt.Errorf("%w: creating chunks table: %v", vector.ErrConnection, err)
	}

	// The transcript_id partition key keeps per-transcript KNN exact: k is
	// applied after partition selection, not before.
	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS %s_embeddings USING vec0(
			transcript_id TEXT partition key,
			embedding float[%d] distance_metric=%s
		)`,
		d.collection.CollectionName, d.collection.Dimensions, vecDistanceMetric(d.collection.Distance),
	)
	if _, err := d.db.ExecContext(ctx, createVec); err != nil {
		return fmt.Errorf("%w: creating vec0 table: %v", vector.ErrConnection, err)
	}

	return nil
}

// Upsert writes the batch in one transaction so a partial failure leaves
// nothing behind. Existing point IDs are replaced via DELETE + INSERT since
// vec0 does not support UPDATE.
func (d *Driver) Upsert(ctx context.Context, transcriptID string, points []vector.Point) error {
	if len(points) == 0 {
		return nil
	}

	for _, p := range points {
		if uint(len(p.Vector)) != d.collection.Dimensions {
			return fmt.Errorf("%w: point %s has %d dimensions, collection expects %d",
				vector.ErrDimensionMismatch, p.ID, len(p.Vector), d.collection.Dimensions)
		}
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %v", vector.ErrWriteFailed, err)
	}
	defer tx.Rollback()

	chunksTable := d.collection.CollectionName + "_chunks"
	vecTable := d.collection.CollectionName + "_embeddings"

	for _, p := range points {
		blob := serializeFloat32(p.Vector)

		var existingRowID int64
		err := tx.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT rowid FROM %s WHERE point_id = ?`, chunksTable), p.ID,
		).Scan(&existingRowID)

		switch err {
		case nil:
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`UPDATE %s SET transcript_id = ?, content = ?, timestamp = ?, speaker = ? WHERE rowid = ?`, chunksTable),
				transcriptID, p.Content, p.Metadata.Timestamp, p.Metadata.Speaker, existingRowID,
			); err != nil {
				return fmt.Errorf("%w: updating point %s: %v", vector.ErrWriteFailed, p.ID, err)
			}

			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`DELETE FROM %s WHERE rowid = ?`, vecTable), existingRowID,
			); err != nil {
				return fmt.Errorf("%w: deleting old embedding for point %s: %v", vector.ErrWriteFailed, p.ID, err)
			}

			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`INSERT INTO %s(rowid, transcript_id, embedding) VALUES (?, ?, ?)`, vecTable),
				existingRowID, transcriptID, blob,
			); err != nil {
				return fmt.Errorf("%w: re-inserting embedding for point %s: %v", vector.ErrWriteFailed, p.ID, err)
			}
		case sql.ErrNoRows:
			result, err := tx.ExecContext(ctx,
				fmt.Sprintf(`INSERT INTO %s(point_id, transcript_id, content, timestamp, speaker) VALUES (?, ?, ?, ?, ?)`, chunksTable),
				p.ID, transcriptID, p.Content, p.Metadata.Timestamp, p.Metadata.Speaker,
			)
			if err != nil {
				return fmt.Errorf("%w: inserting point %s: %v", vector.ErrWriteFailed, p.ID, err)
			}

			rowID, err := result.LastInsertId()
			if err != nil {
				return fmt.Errorf("%w: getting rowid for point %s: %v", vector.ErrWriteFailed, p.ID, err)
			}

			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`INSERT INTO %s(rowid, transcript_id, embedding) VALUES (?, ?, ?)`, vecTable),
				rowID, transcriptID, blob,
			); err != nil {
				return fmt.Errorf("%w: inserting embedding for point %s: %v", vector.ErrWriteFailed, p.ID, err)
			}
		default:
			return fmt.Errorf("%w: checking for existing point %s: %v", vector.ErrWriteFailed, p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %v", vector.ErrWriteFailed, err)
	}

	d.logger.Debug("upserted points",
		zap.String("transcript_id", transcriptID),
		zap.Int("count", len(points)),
	)

	return nil
}

// Search runs a KNN query via vec0 MATCH, then joins back to the chunk table
// for the payload.
func (d *Driver) Search(ctx context.Context, queryVector []float32, limit int, transcriptID string) ([]vector.SearchResult, error) {
	if uint(len(queryVector)) != d.collection.Dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection expects %d",
			vector.ErrDimensionMismatch, len(queryVector), d.collection.Dimensions)
	}
	if limit <= 0 {
		return nil, nil
	}

	chunksTable := d.collection.CollectionName + "_chunks"
	vecTable := d.collection.CollectionName + "_embeddings"

	query := fmt.Sprintf(`
		SELECT c.point_id, c.transcript_id, c.content, c.timestamp, c.speaker, ve.distance
		FROM %s ve
		INNER JOIN %s c ON c.rowid = ve.rowid
		WHERE ve.embedding MATCH ?
			AND ve.k = ?`, vecTable, chunksTable)
	args := []any{serializeFloat32(queryVector), limit}

	if transcriptID != "" {
		query += `
			AND ve.transcript_id = ?`
		args = append(args, transcriptID)
	}
	query += `
		ORDER BY ve.distance`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying vectors: %v", vector.ErrSearchFailed, err)
	}
	defer rows.Close()

	var results []vector.SearchResult
	for rows.Next() {
		var r vector.SearchResult
		var distance float64
		if err := rows.Scan(&r.ID, &r.TranscriptID, &r.Content, &r.Metadata.Timestamp, &r.Metadata.Speaker, &distance); err != nil {
			return nil, fmt.Errorf("%w: scanning result: %v", vector.ErrSearchFailed, err)
		}
		r.Score = d.similarity(distance)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating results: %v", vector.ErrSearchFailed, err)
	}

	return results, nil
}

// DeleteByTranscript removes the transcript's rows from both tables in one
// transaction. Zero matching rows is a successful no-op.
func (d *Driver) DeleteByTranscript(ctx context.Context, transcriptID string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %v", vector.ErrWriteFailed, err)
	}
	defer tx.Rollback()

	chunksTable := d.collection.CollectionName + "_chunks"
	vecTable := d.collection.CollectionName + "_embeddings"

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE rowid IN (SELECT rowid FROM %s WHERE transcript_id = ?)`, vecTable, chunksTable),
		transcriptID,
	); err != nil {
		return fmt.Errorf("%w: deleting embeddings for transcript %s: %v", vector.ErrWriteFailed, transcriptID, err)
	}

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE transcript_id = ?`, chunksTable), transcriptID,
	); err != nil {
		return fmt.Errorf("%w: deleting chunks for transcript %s: %v", vector.ErrWriteFailed, transcriptID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %v", vector.ErrWriteFailed, err)
	}

	return nil
}

// Close closes the database.
func (d *Driver) Close() error {
	return d.db.Close()
}

// similarity converts a vec0 distance to a higher-is-better score. Cosine
// distance is 1 - cosine similarity; L2 distance is mapped through 1/(1+d).
func (d *Driver) similarity(distance float64) float32 {
	if d.collection.Distance == vector.DistanceEuclidean {
		return float32(1.0 / (1.0 + distance))
	}
	return float32(1.0 - distance)
}

// vecDistanceMetric maps the driver-neutral distance to a vec0 metric.
// vec0 has no raw dot-product metric; embeddings are L2-normalized upstream,
// where cosine and dot coincide.
func vecDistanceMetric(d vector.Distance) string {
	if d == vector.DistanceEuclidean {
		return "L2"
	}
	return "cosine"
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Ensure Driver implements vector.Index
var _ vector.Index = (*Driver)(nil)
