package database

import (
	"fmt"

	"github.com/lib/pq"
	"github.com/mweint/ragger/helper"
	"github.com/mweint/ragger/model"
	loadSql "github.com/mweint/ragger/sql"
	"github.com/pgvector/pgvector-go"
)

// ChunksDBHandlerFunctions defines the interface for chunk database operations.
type ChunksDBHandlerFunctions interface {
	InsertChunk(snapshotID int64, chunk *model.Chunk) error
	SelectChunk(snapshotID int64, chunkKey string) (*model.Chunk, error)
	SelectChunksBySnapshot(snapshotID int64) ([]*model.Chunk, error)
	SelectChunksBySimilarity(snapshotID int64, embedding []float32, limit int, threshold float64, kinds []model.Kind) ([]*model.Chunk, error)
	DeleteChunksBySnapshot(snapshotID int64) (int, error)
	CountChunks(snapshotID int64) (int64, error)
}

// ChunksDBHandler handles chunk-related database operations.
type ChunksDBHandler struct {
	db *helper.Database
}

// NewChunksDBHandler creates a new chunks database handler.
// It loads chunk-related SQL functions and creates the chunks table with the
// given embedding dimensionality. If force is true, it will reload the SQL
// functions even if they already exist.
func NewChunksDBHandler(db *helper.Database, embeddingDim int, force bool) (*ChunksDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("embedding dimension must be positive, got %d", embeddingDim))
	}

	chunksDbHandler := &ChunksDBHandler{
		db: db,
	}

	err := loadSql.LoadChunksSql(chunksDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load chunks sql", err)
	}

	_, err = chunksDbHandler.db.Instance.Exec(`SELECT init_chunks($1);`, embeddingDim)
	if err != nil {
		return nil, helper.NewError("init chunks", err)
	}

	db.Logger.Info("Initialized ChunksDBHandler")

	return chunksDbHandler, nil
}

// InsertChunk inserts a chunk into the given snapshot and fills in the
// generated fields.
func (h *ChunksDBHandler) InsertChunk(snapshotID int64, chunk *model.Chunk) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_chunk($1, $2, $3, $4, $5, $6, $7)`,
		snapshotID,
		chunk.ID,
		chunk.Text,
		chunk.Source,
		string(chunk.Kind),
		pq.Array(chunk.Embedding),
		chunk.Metadata,
	)

	var dbID, dbSnapshotID int64
	var kind string
	err := row.Scan(
		&dbID,
		&dbSnapshotID,
		&chunk.ID,
		&chunk.Text,
		&chunk.Source,
		&kind,
		&chunk.Metadata,
		&chunk.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}
	chunk.Kind = model.Kind(kind)

	return nil
}

// SelectChunk retrieves a single chunk of a snapshot by its key.
func (h *ChunksDBHandler) SelectChunk(snapshotID int64, chunkKey string) (*model.Chunk, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_chunk($1, $2)`,
		snapshotID,
		chunkKey,
	)

	chunk := &model.Chunk{}
	var dbID, dbSnapshotID int64
	var kind string
	err := row.Scan(
		&dbID,
		&dbSnapshotID,
		&chunk.ID,
		&chunk.Text,
		&chunk.Source,
		&kind,
		pq.Array(&chunk.Embedding),
		&chunk.Metadata,
		&chunk.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}
	chunk.Kind = model.Kind(kind)

	return chunk, nil
}

// SelectChunksBySnapshot retrieves all chunks of a snapshot ordered by key.
func (h *ChunksDBHandler) SelectChunksBySnapshot(snapshotID int64) ([]*model.Chunk, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chunks_by_snapshot($1)`,
		snapshotID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var chunks []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}
		var dbID, dbSnapshotID int64
		var kind string
		err := rows.Scan(
			&dbID,
			&dbSnapshotID,
			&chunk.ID,
			&chunk.Text,
			&chunk.Source,
			&kind,
			pq.Array(&chunk.Embedding),
			&chunk.Metadata,
			&chunk.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		chunk.Kind = model.Kind(kind)

		chunks = append(chunks, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return chunks, nil
}

// SelectChunksBySimilarity performs cosine similarity search within a
// snapshot. A threshold of 0 disables filtering; an empty kinds slice
// searches all kinds. Results come back ordered by descending similarity
// with ties broken by ascending chunk key.
func (h *ChunksDBHandler) SelectChunksBySimilarity(snapshotID int64, embedding []float32, limit int, threshold float64, kinds []model.Kind) ([]*model.Chunk, error) {
	embeddingVector := pgvector.NewVector(embedding)

	var kindsParam interface{}
	if len(kinds) > 0 {
		kindStrings := make([]string, len(kinds))
		for i, k := range kinds {
			kindStrings[i] = string(k)
		}
		kindsParam = pq.Array(kindStrings)
	}

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chunks_by_similarity($1, $2, $3, $4, $5)`,
		snapshotID,
		embeddingVector,
		limit,
		threshold,
		kindsParam,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var results []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}
		var dbID, dbSnapshotID int64
		var kind string
		err := rows.Scan(
			&dbID,
			&dbSnapshotID,
			&chunk.ID,
			&chunk.Text,
			&chunk.Source,
			&kind,
			&chunk.Metadata,
			&chunk.CreatedAt,
			&chunk.Similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		chunk.Kind = model.Kind(kind)

		results = append(results, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return results, nil
}

// DeleteChunksBySnapshot removes all chunks of a snapshot and returns the
// number deleted.
func (h *ChunksDBHandler) DeleteChunksBySnapshot(snapshotID int64) (int, error) {
	var deleted int
	err := h.db.Instance.QueryRow(
		`SELECT delete_chunks_by_snapshot($1)`,
		snapshotID,
	).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}

	return deleted, nil
}

// CountChunks returns the number of chunks stored for a snapshot.
func (h *ChunksDBHandler) CountChunks(snapshotID int64) (int64, error) {
	var count int64
	err := h.db.Instance.QueryRow(
		`SELECT count_chunks($1)`,
		snapshotID,
	).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}

	return count, nil
}
