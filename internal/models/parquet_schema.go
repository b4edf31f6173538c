package models

// ParquetAsset defines the export schema for one discovered asset.
// Optional fields use pointers with the ',optional' tag.
type ParquetAsset struct {
	RunID            string  `parquet:"run_id"`
	TargetURL        string  `parquet:"target_url"`
	Position         int32   `parquet:"position"`
	Filename         string  `parquet:"filename"`
	ResolvedURL      string  `parquet:"resolved_url"`
	Category         string  `parquet:"category"`
	SourceHint       *string `parquet:"source_hint,optional"`
	MimeType         *string `parquet:"mime_type,optional"`
	SizeBytes        *int64  `parquet:"size_bytes,optional"`
	PreviewReference *string `parquet:"preview_reference,optional"`
	PosterURL        *string `parquet:"poster_url,optional"`
	IsExternalEmbed  bool    `parquet:"is_external_embed"`
	DownloadStatus   string  `parquet:"download_status"`
	ExportTimestamp  int64   `parquet:"export_timestamp"` // unix millis
}
