package datastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aleister1102/mediascout/internal/common"
	"github.com/aleister1102/mediascout/internal/models"
	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
)

// ParquetExporter writes run assets to per-run Parquet files.
type ParquetExporter struct {
	basePath string
	codec    string
	logger   zerolog.Logger
}

// NewParquetExporter creates an exporter writing below basePath with codec (zstd|gzip|snappy).
func NewParquetExporter(basePath, codec string, logger zerolog.Logger) *ParquetExporter {
	return &ParquetExporter{
		basePath: basePath,
		codec:    codec,
		logger:   logger.With().Str("component", "ParquetExporter").Logger(),
	}
}

// ExportPath returns the file a run is exported to.
func (e *ParquetExporter) ExportPath(runID string) string {
	return filepath.Join(e.basePath, "runs", runID+".parquet")
}

// Export writes every asset of run and returns the file path.
func (e *ParquetExporter) Export(ctx context.Context, run *models.AnalysisRun, assets []models.StoredAsset) (string, error) {
	if e.basePath == "" {
		return "", common.NewValidationError("parquet_base_path", e.basePath, "ParquetBasePath is not configured")
	}
	if run == nil || run.ID == "" {
		return "", common.NewValidationError("run_id", "", "run is required")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	filePath := e.ExportPath(run.ID)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return "", common.WrapError(err, "failed to create export directory")
	}

	exportedAt := time.Now().UnixMilli()
	records := make([]models.ParquetAsset, 0, len(assets))
	for _, asset := range assets {
		records = append(records, toParquetAsset(run, asset, exportedAt))
	}

	written, err := e.writeFile(filePath, records)
	if err != nil {
		return "", err
	}

	e.logger.Info().
		Str("run_id", run.ID).
		Str("file_path", filePath).
		Int("records_written", written).
		Msg("Exported run to Parquet")
	return filePath, nil
}

func (e *ParquetExporter) writeFile(filePath string, records []models.ParquetAsset) (int, error) {
	file, err := os.Create(filePath)
	if err != nil {
		return 0, common.WrapError(err, "failed to create/truncate parquet file: "+filePath)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[models.ParquetAsset](file, e.compressionOption())
	written, err := writer.Write(records)
	if err != nil {
		_ = writer.Close()
		return 0, common.WrapError(err, "failed to write assets to parquet file")
	}
	if err := writer.Close(); err != nil {
		return 0, common.WrapError(err, "failed to finalize parquet file")
	}
	return written, nil
}

// compressionOption returns the compression option based on configuration
func (e *ParquetExporter) compressionOption() parquet.WriterOption {
	switch e.codec {
	case "gzip":
		return parquet.Compression(&parquet.Gzip)
	case "snappy":
		return parquet.Compression(&parquet.Snappy)
	default:
		return parquet.Compression(&parquet.Zstd)
	}
}

func toParquetAsset(run *models.AnalysisRun, asset models.StoredAsset, exportedAt int64) models.ParquetAsset {
	d := asset.Descriptor
	return models.ParquetAsset{
		RunID:            run.ID,
		TargetURL:        run.TargetURL,
		Position:         int32(asset.Position),
		Filename:         d.Filename,
		ResolvedURL:      d.ResolvedURL,
		Category:         string(d.Category),
		SourceHint:       StringPtrOrNil(string(d.Source)),
		MimeType:         StringPtrOrNil(d.MimeType),
		SizeBytes:        d.SizeBytes,
		PreviewReference: StringPtrOrNil(d.PreviewReference),
		PosterURL:        StringPtrOrNil(d.PosterURL),
		IsExternalEmbed:  d.IsExternalEmbed,
		DownloadStatus:   string(asset.DownloadStatus),
		ExportTimestamp:  exportedAt,
	}
}

// ReadExport reads every row of an exported file in order.
func ReadExport(filePath string) ([]models.ParquetAsset, error) {
	osFile, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, common.WrapErrorf(common.ErrNotFound, "export '%s'", filePath)
		}
		return nil, fmt.Errorf("failed to open export '%s': %w", filePath, err)
	}
	defer osFile.Close()

	reader := parquet.NewGenericReader[models.ParquetAsset](osFile)
	defer reader.Close()

	records := make([]models.ParquetAsset, 0, reader.NumRows())
	buf := make([]models.ParquetAsset, 64)
	for {
		n, err := reader.Read(buf)
		records = append(records, buf[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("error reading records from parquet file '%s': %w", filePath, err)
		}
	}
	return records, nil
}

// StringPtrOrNil converts string to pointer, or nil if string is empty
func StringPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
