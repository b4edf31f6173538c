package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aleister1102/mediascout/internal/common"
	"github.com/aleister1102/mediascout/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// RunStore persists analysis runs and their assets in SQLite.
type RunStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// RunSummary is a run row without its assets.
type RunSummary struct {
	Run        models.AnalysisRun
	AssetCount int
}

// NewRunStore opens (creating if needed) the database at dbPath and ensures the schema.
func NewRunStore(dbPath string, logger zerolog.Logger) (*RunStore, error) {
	storeLogger := logger.With().Str("component", "RunStore").Logger()
	storeLogger.Info().Str("db_path", dbPath).Msg("Initializing run database")

	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
	}

	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	dbInstance, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open failed for %s: %w", dbPath, err)
	}
	dbInstance.SetMaxOpenConns(1)

	store := &RunStore{db: dbInstance, logger: storeLogger}
	if err := store.InitSchema(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *RunStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitSchema creates the tables if they don't already exist.
func (s *RunStore) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS analysis_runs (
		id TEXT PRIMARY KEY,
		target_url TEXT NOT NULL,
		base_url TEXT,
		status TEXT NOT NULL,
		error_message TEXT,
		created_at DATETIME NOT NULL,
		completed_at DATETIME
	);
	CREATE TABLE IF NOT EXISTS assets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES analysis_runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		filename TEXT NOT NULL,
		resolved_url TEXT NOT NULL,
		category TEXT NOT NULL,
		mime_type TEXT,
		size_bytes INTEGER,
		preview_reference TEXT,
		poster_url TEXT,
		is_external_embed INTEGER NOT NULL DEFAULT 0,
		source_hint TEXT,
		download_status TEXT NOT NULL DEFAULT 'pending',
		download_path TEXT,
		created_at DATETIME NOT NULL,
		UNIQUE (run_id, resolved_url)
	);
	CREATE INDEX IF NOT EXISTS idx_assets_run ON assets (run_id, position);
	`
	if _, err := s.db.Exec(query); err != nil {
		s.logger.Error().Err(err).Msg("Failed to initialize schema")
		return err
	}
	return nil
}

// CreateRun inserts a pending run for targetURL.
func (s *RunStore) CreateRun(ctx context.Context, targetURL string) (*models.AnalysisRun, error) {
	run := &models.AnalysisRun{
		ID:        uuid.NewString(),
		TargetURL: targetURL,
		Status:    models.RunStatusPending,
		CreatedAt: time.Now().UTC(),
	}

	query := `INSERT INTO analysis_runs (id, target_url, status, created_at) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, run.ID, run.TargetURL, string(run.Status), run.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}
	s.logger.Debug().Str("run_id", run.ID).Str("target_url", targetURL).Msg("Run created")
	return run, nil
}

// CompleteRun stores the ordered descriptors and marks the run completed in one transaction.
func (s *RunStore) CompleteRun(ctx context.Context, runID, baseURL string, descriptors []models.AssetDescriptor) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO assets (
		run_id, position, filename, resolved_url, category, mime_type, size_bytes,
		preview_reference, poster_url, is_external_embed, source_hint, download_status, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare asset insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, d := range descriptors {
		var size sql.NullInt64
		if d.SizeBytes != nil {
			size = sql.NullInt64{Int64: *d.SizeBytes, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			runID, i, d.Filename, d.ResolvedURL, string(d.Category),
			nullString(d.MimeType), size, nullString(d.PreviewReference), nullString(d.PosterURL),
			d.IsExternalEmbed, nullString(string(d.Source)), string(models.DownloadPending), now,
		); err != nil {
			return fmt.Errorf("failed to insert asset %s: %w", d.ResolvedURL, err)
		}
	}

	if err := s.finishRun(ctx, tx, runID, models.RunStatusCompleted, baseURL, "", now); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", runID, err)
	}

	s.logger.Info().Str("run_id", runID).Int("assets", len(descriptors)).Msg("Run completed")
	return nil
}

// FailRun marks the run as errored with message.
func (s *RunStore) FailRun(ctx context.Context, runID, message string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.finishRun(ctx, tx, runID, models.RunStatusError, "", message, time.Now().UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *RunStore) finishRun(ctx context.Context, tx *sql.Tx, runID string, status models.RunStatus, baseURL, message string, at time.Time) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE analysis_runs SET status = ?, base_url = ?, error_message = ?, completed_at = ? WHERE id = ?`,
		string(status), nullString(baseURL), nullString(message), at, runID)
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w", runID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return common.WrapErrorf(common.ErrNotFound, "run %s", runID)
	}
	return nil
}

const runColumns = `id, target_url, base_url, status, error_message, created_at, completed_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (models.AnalysisRun, error) {
	var (
		run         models.AnalysisRun
		status      string
		baseURL     sql.NullString
		errMessage  sql.NullString
		completedAt sql.NullTime
	)
	if err := row.Scan(&run.ID, &run.TargetURL, &baseURL, &status, &errMessage, &run.CreatedAt, &completedAt); err != nil {
		return run, err
	}
	run.Status = models.RunStatus(status)
	run.BaseURL = baseURL.String
	run.ErrorMessage = errMessage.String
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return run, nil
}

// GetRun loads a run with its assets in position order.
func (s *RunStore) GetRun(ctx context.Context, runID string) (*models.AnalysisRun, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM analysis_runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.WrapErrorf(common.ErrNotFound, "run %s", runID)
		}
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}

	assets, err := s.ListAssets(ctx, runID)
	if err != nil {
		return nil, err
	}
	run.Assets = make([]models.AssetDescriptor, 0, len(assets))
	for _, a := range assets {
		run.Assets = append(run.Assets, a.Descriptor)
	}
	return &run, nil
}

// ListRuns returns the most recent runs first. A non-positive limit means no limit.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT r.id, r.target_url, r.base_url, r.status, r.error_message, r.created_at, r.completed_at,
		(SELECT COUNT(*) FROM assets a WHERE a.run_id = r.id)
		FROM analysis_runs r ORDER BY r.created_at DESC, r.rowid DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var (
			summary     RunSummary
			status      string
			baseURL     sql.NullString
			errMessage  sql.NullString
			completedAt sql.NullTime
		)
		if err := rows.Scan(&summary.Run.ID, &summary.Run.TargetURL, &baseURL, &status, &errMessage,
			&summary.Run.CreatedAt, &completedAt, &summary.AssetCount); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		summary.Run.Status = models.RunStatus(status)
		summary.Run.BaseURL = baseURL.String
		summary.Run.ErrorMessage = errMessage.String
		if completedAt.Valid {
			t := completedAt.Time
			summary.Run.CompletedAt = &t
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

const assetColumns = `id, run_id, position, filename, resolved_url, category, mime_type, size_bytes,
	preview_reference, poster_url, is_external_embed, source_hint, download_status, download_path, created_at`

func scanAsset(row rowScanner) (models.StoredAsset, error) {
	var (
		asset          models.StoredAsset
		category       string
		mimeType       sql.NullString
		size           sql.NullInt64
		preview        sql.NullString
		poster         sql.NullString
		source         sql.NullString
		downloadStatus string
		downloadPath   sql.NullString
	)
	err := row.Scan(&asset.ID, &asset.RunID, &asset.Position, &asset.Descriptor.Filename,
		&asset.Descriptor.ResolvedURL, &category, &mimeType, &size, &preview, &poster,
		&asset.Descriptor.IsExternalEmbed, &source, &downloadStatus, &downloadPath, &asset.CreatedAt)
	if err != nil {
		return asset, err
	}

	asset.Descriptor.Category = models.Category(category)
	asset.Descriptor.MimeType = mimeType.String
	if size.Valid {
		v := size.Int64
		asset.Descriptor.SizeBytes = &v
	}
	asset.Descriptor.PreviewReference = preview.String
	asset.Descriptor.PosterURL = poster.String
	asset.Descriptor.Source = models.SourceHint(source.String)
	asset.DownloadStatus = models.DownloadStatus(downloadStatus)
	asset.DownloadPath = downloadPath.String
	return asset, nil
}

// ListAssets returns a run's assets in discovery order.
func (s *RunStore) ListAssets(ctx context.Context, runID string) ([]models.StoredAsset, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets for run %s: %w", runID, err)
	}
	defer rows.Close()

	var assets []models.StoredAsset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

// GetAsset loads one asset by its database ID.
func (s *RunStore) GetAsset(ctx context.Context, assetID int64) (*models.StoredAsset, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = ?`, assetID)
	asset, err := scanAsset(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.WrapErrorf(common.ErrNotFound, "asset %d", assetID)
		}
		return nil, fmt.Errorf("failed to load asset %d: %w", assetID, err)
	}
	return &asset, nil
}

// UpdateDownload records the download status and, when known, the stored path.
func (s *RunStore) UpdateDownload(ctx context.Context, assetID int64, status models.DownloadStatus, path string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE assets SET download_status = ?, download_path = COALESCE(?, download_path) WHERE id = ?`,
		string(status), nullString(path), assetID)
	if err != nil {
		return fmt.Errorf("failed to update download state of asset %d: %w", assetID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return common.WrapErrorf(common.ErrNotFound, "asset %d", assetID)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
