package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/mweint/ragger/helper"
	"github.com/mweint/ragger/model"
	loadSql "github.com/mweint/ragger/sql"
)

// SnapshotsDBHandlerFunctions defines the interface for snapshot database operations.
type SnapshotsDBHandlerFunctions interface {
	InsertSnapshot(snapshot *model.Snapshot) error
	SelectSnapshot(rid uuid.UUID) (*model.Snapshot, error)
	SelectLatestSnapshot() (*model.Snapshot, error)
	SelectAllSnapshots(limit int) ([]*model.Snapshot, error)
	UpdateSnapshotChunkCount(id int64, chunkCount int) (*model.Snapshot, error)
	DeleteSnapshot(rid uuid.UUID) (int, error)
}

// SnapshotsDBHandler handles snapshot-related database operations.
type SnapshotsDBHandler struct {
	db *helper.Database
}

// NewSnapshotsDBHandler creates a new snapshots database handler.
// It loads snapshot-related SQL functions and creates the snapshots table.
// If force is true, it will reload the SQL functions even if they already exist.
func NewSnapshotsDBHandler(db *helper.Database, force bool) (*SnapshotsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	snapshotsDbHandler := &SnapshotsDBHandler{
		db: db,
	}

	err := loadSql.LoadSnapshotsSql(snapshotsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load snapshots sql", err)
	}

	_, err = snapshotsDbHandler.db.Instance.Exec(`SELECT init_snapshots();`)
	if err != nil {
		return nil, helper.NewError("init snapshots", err)
	}

	db.Logger.Info("Initialized SnapshotsDBHandler")

	return snapshotsDbHandler, nil
}

// InsertSnapshot inserts a new snapshot and fills in the generated fields.
func (h *SnapshotsDBHandler) InsertSnapshot(snapshot *model.Snapshot) error {
	var scrapedAt interface{}
	if !snapshot.ScrapedAt.IsZero() {
		scrapedAt = snapshot.ScrapedAt
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_snapshot($1, $2, $3)`,
		snapshot.SourceURL,
		scrapedAt,
		snapshot.Metadata,
	)

	return scanSnapshot(row, snapshot)
}

// SelectSnapshot retrieves a snapshot by its RID.
func (h *SnapshotsDBHandler) SelectSnapshot(rid uuid.UUID) (*model.Snapshot, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_snapshot($1)`,
		rid,
	)

	snapshot := &model.Snapshot{}
	err := scanSnapshot(row, snapshot)
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

// SelectLatestSnapshot retrieves the most recently created snapshot.
func (h *SnapshotsDBHandler) SelectLatestSnapshot() (*model.Snapshot, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_latest_snapshot()`,
	)

	snapshot := &model.Snapshot{}
	err := scanSnapshot(row, snapshot)
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

// SelectAllSnapshots retrieves snapshots newest first, up to limit.
func (h *SnapshotsDBHandler) SelectAllSnapshots(limit int) ([]*model.Snapshot, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_all_snapshots($1)`,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var snapshots []*model.Snapshot
	for rows.Next() {
		snapshot := &model.Snapshot{}
		err := scanSnapshot(rows, snapshot)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return snapshots, nil
}

// UpdateSnapshotChunkCount sets the chunk count after ingestion finished.
func (h *SnapshotsDBHandler) UpdateSnapshotChunkCount(id int64, chunkCount int) (*model.Snapshot, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM update_snapshot_chunk_count($1, $2)`,
		id,
		chunkCount,
	)

	snapshot := &model.Snapshot{}
	err := scanSnapshot(row, snapshot)
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

// DeleteSnapshot deletes a snapshot by RID. Chunks cascade with it.
// It returns the number of deleted snapshots.
func (h *SnapshotsDBHandler) DeleteSnapshot(rid uuid.UUID) (int, error) {
	var deleted int
	err := h.db.Instance.QueryRow(
		`SELECT delete_snapshot($1)`,
		rid,
	).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}

	return deleted, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(row rowScanner, snapshot *model.Snapshot) error {
	var scrapedAt sql.NullTime
	err := row.Scan(
		&snapshot.ID,
		&snapshot.RID,
		&snapshot.SourceURL,
		&scrapedAt,
		&snapshot.ChunkCount,
		&snapshot.Metadata,
		&snapshot.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	if scrapedAt.Valid {
		snapshot.ScrapedAt = scrapedAt.Time
	}

	return nil
}
