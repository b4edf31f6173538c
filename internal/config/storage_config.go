package config

// S3Config holds the object storage settings used when Backend is "s3".
type S3Config struct {
	Bucket          string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Region          string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint        string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" validate:"omitempty,url"`
	Prefix          string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	UsePathStyle    bool   `json:"use_path_style,omitempty" yaml:"use_path_style,omitempty"`
	AccessKeyID     string `json:"access_key_id,omitempty" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty" yaml:"secret_access_key,omitempty"`
}

// StorageConfig defines configuration for data storage
type StorageConfig struct {
	Backend          string   `json:"backend,omitempty" yaml:"backend,omitempty" validate:"omitempty,storagebackend"`
	DownloadDir      string   `json:"download_dir,omitempty" yaml:"download_dir,omitempty"`
	PreviewDir       string   `json:"preview_dir,omitempty" yaml:"preview_dir,omitempty"`
	SQLiteDBPath     string   `json:"sqlite_db_path,omitempty" yaml:"sqlite_db_path,omitempty" validate:"required"`
	ParquetBasePath  string   `json:"parquet_base_path,omitempty" yaml:"parquet_base_path,omitempty"`
	CompressionCodec string   `json:"compression_codec,omitempty" yaml:"compression_codec,omitempty" validate:"omitempty,compression"`
	S3               S3Config `json:"s3,omitempty" yaml:"s3,omitempty"`
}

// NewDefaultStorageConfig creates default storage configuration
func NewDefaultStorageConfig() StorageConfig {
	return StorageConfig{
		Backend:          DefaultStorageBackend,
		DownloadDir:      DefaultStorageDownloadDir,
		PreviewDir:       DefaultStoragePreviewDir,
		SQLiteDBPath:     DefaultStorageSQLiteDBPath,
		ParquetBasePath:  DefaultStorageParquetBasePath,
		CompressionCodec: DefaultStorageCompressionCodec,
	}
}

// IsS3 reports whether blobs go to object storage.
func (c StorageConfig) IsS3() bool {
	return c.Backend == "s3"
}
