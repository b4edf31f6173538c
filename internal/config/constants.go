package config

const (
	// Fetcher Defaults
	DefaultFetcherUserAgent          = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	DefaultFetcherRequestTimeoutSecs = 30
	DefaultFetcherMaxRedirects       = 10
	DefaultFetcherMaxContentLengthMB = 500

	// Discovery Defaults
	DefaultDiscoveryProbeTimeoutSecs  = 10
	DefaultDiscoveryProbeConcurrency  = 8
	DefaultDiscoveryMaxJSONLDDepth    = 32
	DefaultDiscoveryRawScanMinLength  = 11
	DefaultDiscoveryVideoKeywordCheck = true

	// Preview Defaults
	DefaultPreviewMaxDimension   = 400
	DefaultPreviewJPEGQuality    = 95
	DefaultPreviewMaxSourceMB    = 20
	DefaultPreviewMaxPixels      = 50_000_000
	DefaultPreviewTimeoutSecs    = 30
	DefaultPreviewFilenamePrefix = "preview"

	// Download Defaults
	DefaultDownloadTimeoutSecs  = 30
	DefaultDownloadMaxAttempts  = 1
	DefaultDownloadMinFreeMB    = 100
	DefaultDownloadConcurrency  = 4
	DefaultDownloadBundlePrefix = "download"

	// Storage Defaults
	DefaultStorageBackend          = "filesystem"
	DefaultStorageDownloadDir      = "downloads"
	DefaultStoragePreviewDir       = "previews"
	DefaultStorageSQLiteDBPath     = "database/mediascout.db"
	DefaultStorageParquetBasePath  = "database/exports"
	DefaultStorageCompressionCodec = "zstd"

	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	// ConfigPathEnvVar overrides the config file location.
	ConfigPathEnvVar = "MEDIASCOUT_CONFIG_PATH"
)
