package index

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/abramin/abilens/internal/config"
	"github.com/abramin/abilens/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Indexer coordinates the indexing pipeline.
type Indexer struct {
	cfg        *config.Config
	projectDir string
	log        logrus.FieldLogger
}

// NewIndexer creates a new indexer for the given project directory.
func NewIndexer(cfg *config.Config, projectDir string, log logrus.FieldLogger) *Indexer {
	absPath, err := filepath.Abs(projectDir)
	if err != nil {
		absPath = projectDir
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Indexer{
		cfg:        cfg,
		projectDir: absPath,
		log:        log,
	}
}

// Result holds the results of an indexing run.
type Result struct {
	RunID         string
	FileCount     int
	ContractCount int
	FailedFiles   []string
	TypeCount     int
	FunctionCount int
	TagCount      int
	Bytes         int64
	Duration      time.Duration
	DBPath        string
}

// Run executes the indexing pipeline. A file that fails to parse does not
// fail the run; it is stored with its error and listed in FailedFiles.
func (idx *Indexer) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := idx.log.WithField("run_id", runID)

	// Open (or create) the store
	st, err := store.Open(idx.projectDir, idx.cfg.Store.Dir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	// Clear existing data for a fresh index
	if err := st.Clear(); err != nil {
		return nil, fmt.Errorf("clearing store: %w", err)
	}

	// Discover and parse candidate files
	loader := NewLoader(idx.cfg, idx.projectDir, log)
	paths, err := loader.Discover()
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	log.WithField("files", len(paths)).Info("discovered candidate files")

	parsed, err := loader.LoadAll(ctx, paths)
	if err != nil {
		return nil, fmt.Errorf("loading files: %w", err)
	}

	result := &Result{RunID: runID, FileCount: len(paths), FailedFiles: []string{}}

	// Persist every file in one transaction, failures included
	batch, err := st.BeginBatch()
	if err != nil {
		return nil, fmt.Errorf("starting batch: %w", err)
	}
	defer batch.Rollback()

	for _, pf := range parsed {
		counts, err := persistFile(batch, pf)
		if err != nil {
			return nil, err
		}
		result.Bytes += pf.Size
		if pf.Err != nil {
			result.FailedFiles = append(result.FailedFiles, pf.Path)
			continue
		}
		result.ContractCount++
		result.TypeCount += counts.Types
		result.FunctionCount += counts.Functions
	}
	if err := batch.Commit(); err != nil {
		return nil, fmt.Errorf("committing batch: %w", err)
	}

	// Tag types and functions
	tags, err := NewTagger(st).Tag()
	if err != nil {
		return nil, fmt.Errorf("tagging: %w", err)
	}
	result.TagCount = tags.TotalTags

	// Store indexing metadata
	metadata := map[string]string{
		"indexed_at":  time.Now().UTC().Format(time.RFC3339),
		"project_dir": idx.projectDir,
		"run_id":      runID,
	}
	for key, value := range metadata {
		if err := st.SetMetadata(key, value); err != nil {
			return nil, fmt.Errorf("storing metadata: %w", err)
		}
	}

	// Write index.json for UI quick boot
	if err := st.WriteIndexJSON(); err != nil {
		return nil, fmt.Errorf("writing index.json: %w", err)
	}

	result.Duration = time.Since(start)
	result.DBPath = st.DBPath()

	log.WithFields(logrus.Fields{
		"contracts": result.ContractCount,
		"failed":    len(result.FailedFiles),
		"types":     result.TypeCount,
		"functions": result.FunctionCount,
		"duration":  result.Duration.Round(time.Millisecond),
	}).Info("index complete")

	return result, nil
}
