package ragger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mweint/ragger/core/generation"
	"github.com/mweint/ragger/core/pipeline"
	"github.com/mweint/ragger/core/rag"
	"github.com/mweint/ragger/core/retrieval"
	"github.com/mweint/ragger/database"
	"github.com/mweint/ragger/helper"
	"github.com/mweint/ragger/kb"
	"github.com/mweint/ragger/model"
	loadSql "github.com/mweint/ragger/sql"
)

// Ragger bundles the question answering pipeline: chunking and embedding,
// the in-memory similarity index, the answer generator and, optionally, the
// postgres-backed snapshot store.
type Ragger struct {
	Pipeline  *pipeline.Pipeline
	Engine    *retrieval.Engine
	Generator generation.Generator
	Asker     *rag.Asker
	// Optional persistence, set by ConnectDatabase
	DB        *helper.Database
	Snapshots *database.SnapshotsDBHandler
	Chunks    *database.ChunksDBHandler

	dimensions int
	log        *slog.Logger
}

// NewRagger creates a new Ragger instance. The generator produces answers
// from retrieved context; embeddingDim must match the embedder set later via
// SetPipeline or UseDefaultPipeline.
func NewRagger(embeddingDim int, generator generation.Generator) *Ragger {
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	return &Ragger{
		Generator:  generator,
		dimensions: embeddingDim,
		log:        logger,
	}
}

// SetPipeline sets the chunking and embedding pipeline and wires the
// retrieval engine and asker around it.
func (r *Ragger) SetPipeline(p *pipeline.Pipeline) {
	r.Pipeline = p
	r.Engine = retrieval.NewEngine(p.Embedder, r.dimensions, r.log)
	r.Asker = rag.NewAsker(retrieval.NewVectorOnlyStrategy(r.Engine), r.Generator, nil, r.log)
}

// UseDefaultPipeline sets up the default splitting and embedding pipeline.
// This uses the recursive splitter with 1000 char chunks and 200 char overlap,
// and the all-MiniLM-L6-v2 embedding model (384 dimensions).
func (r *Ragger) UseDefaultPipeline() error {
	splitter := pipeline.RecursiveSplitter(1000, 200)
	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	r.SetPipeline(pipeline.NewPipeline(splitter, embedder))
	return nil
}

// GenerateKB writes the markdown knowledge base for a scraped report to
// outputDir and returns the number of snippet files written.
func (r *Ragger) GenerateKB(reportPath, outputDir string) (int, error) {
	report, err := kb.LoadReport(reportPath)
	if err != nil {
		return 0, err
	}
	return kb.NewGenerator(outputDir, r.log).Generate(report)
}

// BuildFromDir loads the markdown knowledge base from dir, splits it into
// chunks, embeds them and swaps the result in as the current index. Returns
// the number of chunks indexed.
func (r *Ragger) BuildFromDir(ctx context.Context, dir string) (int, error) {
	if r.Pipeline == nil {
		return 0, helper.NewError("build index", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}

	chunks, err := kb.LoadChunks(dir, r.Pipeline.Splitter)
	if err != nil {
		return 0, err
	}

	err = r.Engine.Rebuild(ctx, chunks)
	if err != nil {
		return 0, err
	}

	r.log.Info("Built index from knowledge base", slog.String("dir", dir), slog.Int("chunks", len(chunks)))

	return len(chunks), nil
}

// SaveIndex persists the current index to path.
func (r *Ragger) SaveIndex(path string) error {
	if r.Engine == nil {
		return helper.NewError("save index", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}
	return r.Engine.SaveIndex(path)
}

// LoadIndex loads a previously persisted index from path, skipping the
// embedding pass entirely.
func (r *Ragger) LoadIndex(path string) error {
	if r.Engine == nil {
		return helper.NewError("load index", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}
	return r.Engine.LoadIndex(path)
}

// Search performs vector similarity search without generation.
func (r *Ragger) Search(ctx context.Context, query string, config *model.QueryConfig) ([]*model.RetrievalResult, error) {
	if r.Engine == nil {
		return nil, helper.NewError("vector search", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}
	return r.Engine.VectorRetrieve(ctx, query, config)
}

// Ask answers a question against the current index with optional
// conversation history.
func (r *Ragger) Ask(ctx context.Context, question string, history []model.Turn, config *model.QueryConfig) (*model.Answer, error) {
	if r.Asker == nil {
		return nil, helper.NewError("ask", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}
	return r.Asker.Ask(ctx, question, history, config)
}

// ConnectDatabase opens the postgres snapshot store and initializes its
// handlers. force reloads the SQL functions even if they already exist.
func (r *Ragger) ConnectDatabase(config *helper.DatabaseConfiguration, force bool) error {
	db := helper.NewDatabase("ragger", config, r.log)

	err := loadSql.Init(db.Instance)
	if err != nil {
		return helper.NewError("initialize database extensions", err)
	}

	snapshots, err := database.NewSnapshotsDBHandler(db, force)
	if err != nil {
		return helper.NewError("create snapshots handler", err)
	}

	chunks, err := database.NewChunksDBHandler(db, r.dimensions, force)
	if err != nil {
		return helper.NewError("create chunks handler", err)
	}

	r.DB = db
	r.Snapshots = snapshots
	r.Chunks = chunks

	return nil
}

// PersistSnapshot stores the given chunks as a new snapshot. Chunks without
// embeddings are embedded first. The knowledge base is replaced wholesale:
// callers drop old snapshots separately once the new one is in place.
func (r *Ragger) PersistSnapshot(ctx context.Context, sourceURL string, scrapedAt time.Time, chunks []*model.Chunk) (*model.Snapshot, error) {
	if r.Snapshots == nil || r.Chunks == nil {
		return nil, helper.NewError("persist snapshot", fmt.Errorf("database not connected, use ConnectDatabase() first"))
	}
	if r.Pipeline == nil {
		return nil, helper.NewError("persist snapshot", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}

	snapshot := &model.Snapshot{
		SourceURL: sourceURL,
		ScrapedAt: scrapedAt,
	}
	err := r.Snapshots.InsertSnapshot(snapshot)
	if err != nil {
		return nil, helper.NewError("insert snapshot", err)
	}

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(chunk.Embedding) == 0 {
			chunk.Embedding, err = r.Pipeline.Embedder(chunk.Text)
			if err != nil {
				return nil, helper.NewError(fmt.Sprintf("embed chunk %v", chunk.ID), err)
			}
		}
		if err := r.Chunks.InsertChunk(snapshot.ID, chunk); err != nil {
			return nil, helper.NewError(fmt.Sprintf("insert chunk %d", i), err)
		}
	}

	snapshot, err = r.Snapshots.UpdateSnapshotChunkCount(snapshot.ID, len(chunks))
	if err != nil {
		return nil, helper.NewError("update snapshot chunk count", err)
	}

	r.log.Info("Persisted snapshot",
		slog.String("rid", snapshot.RID.String()),
		slog.Int("chunks", snapshot.ChunkCount))

	return snapshot, nil
}

// LoadLatestSnapshot loads the most recent snapshot from the database and
// swaps its chunks in as the current index. Returns the number of chunks
// loaded.
func (r *Ragger) LoadLatestSnapshot(ctx context.Context) (int, error) {
	if r.Snapshots == nil || r.Chunks == nil {
		return 0, helper.NewError("load latest snapshot", fmt.Errorf("database not connected, use ConnectDatabase() first"))
	}
	if r.Engine == nil {
		return 0, helper.NewError("load latest snapshot", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}

	snapshot, err := r.Snapshots.SelectLatestSnapshot()
	if err != nil {
		return 0, helper.NewError("select latest snapshot", err)
	}

	chunks, err := r.Chunks.SelectChunksBySnapshot(snapshot.ID)
	if err != nil {
		return 0, helper.NewError("select snapshot chunks", err)
	}

	err = r.Engine.Rebuild(ctx, chunks)
	if err != nil {
		return 0, err
	}

	r.log.Info("Loaded snapshot into index",
		slog.String("rid", snapshot.RID.String()),
		slog.Int("chunks", len(chunks)))

	return len(chunks), nil
}

// ChangeIndexType changes the postgres vector index type between HNSW and
// IVFFlat.
func (r *Ragger) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	if r.Chunks == nil {
		return helper.NewError("change index type", fmt.Errorf("database not connected, use ConnectDatabase() first"))
	}
	return r.Chunks.ChangeIndexType(ctx, indexType, params)
}

// Close closes the database connection if one was opened.
func (r *Ragger) Close() error {
	if r.DB != nil {
		return r.DB.Close()
	}
	return nil
}
