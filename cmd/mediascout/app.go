package main

import (
	"context"
	"net/http"
	"os"

	"github.com/aleister1102/mediascout/internal/classifier"
	"github.com/aleister1102/mediascout/internal/common"
	"github.com/aleister1102/mediascout/internal/config"
	"github.com/aleister1102/mediascout/internal/crawler"
	"github.com/aleister1102/mediascout/internal/datastore"
	"github.com/aleister1102/mediascout/internal/discovery"
	"github.com/aleister1102/mediascout/internal/downloader"
	"github.com/aleister1102/mediascout/internal/extractor"
	"github.com/aleister1102/mediascout/internal/logger"
	"github.com/aleister1102/mediascout/internal/metrics"
	"github.com/aleister1102/mediascout/internal/preview"
	"github.com/aleister1102/mediascout/internal/storage"
	"github.com/rs/zerolog"
)

// app holds the services shared by the subcommands.
type app struct {
	cfg        *config.GlobalConfig
	logger     zerolog.Logger
	metrics    *metrics.Metrics
	runs       *datastore.RunStore
	exporter   *datastore.ParquetExporter
	discovery  *discovery.Service
	downloader *downloader.Downloader
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	bootLogger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	gCfg, err := config.LoadGlobalConfig(configPath, bootLogger)
	if err != nil {
		return nil, common.WrapError(err, "could not load config")
	}
	if err := config.ValidateConfig(gCfg); err != nil {
		return nil, common.WrapError(err, "configuration validation failed")
	}

	zLogger, err := logger.New(gCfg.LogConfig)
	if err != nil {
		return nil, common.WrapError(err, "could not initialize logger")
	}

	a := &app{cfg: gCfg, logger: zLogger}
	if gCfg.MetricsConfig.Enabled {
		a.metrics = metrics.New(gCfg.MetricsConfig.Namespace)
	}

	transport, err := common.NewTransport(httpClientConfig(gCfg.FetcherConfig), zLogger)
	if err != nil {
		return nil, common.WrapError(err, "could not create HTTP transport")
	}
	// Per-call contexts bound probes, previews and downloads; no client-wide timeout.
	client := &http.Client{
		Transport:     transport,
		CheckRedirect: common.RedirectPolicy(gCfg.FetcherConfig.MaxRedirects),
	}

	a.runs, err = datastore.NewRunStore(gCfg.StorageConfig.SQLiteDBPath, zLogger)
	if err != nil {
		return nil, common.WrapError(err, "could not open run store")
	}
	a.exporter = datastore.NewParquetExporter(gCfg.StorageConfig.ParquetBasePath, gCfg.StorageConfig.CompressionCodec, zLogger)

	cls, err := a.buildClassifier(ctx, client)
	if err != nil {
		a.Close()
		return nil, err
	}

	discoveryCfg := gCfg.DiscoveryConfig
	ext := extractor.NewExtractor(
		extractor.NewPatternTable(discoveryCfg.MaxJSONLDDepth, discoveryCfg.RawScanMinLength, zLogger),
		extractor.Options{EnableJSluice: discoveryCfg.EnableJSluice},
		zLogger,
	)
	fetcher := crawler.NewFetcher(gCfg.FetcherConfig, transport, zLogger)
	a.discovery = discovery.NewService(fetcher, ext, cls, a.runs, a.metrics, discoveryCfg.ProbeConcurrency, zLogger)

	downloadStore, err := storage.New(ctx, gCfg.StorageConfig, gCfg.StorageConfig.DownloadDir, zLogger)
	if err != nil {
		a.Close()
		return nil, common.WrapError(err, "could not open download storage")
	}
	a.downloader = downloader.NewDownloader(client, downloadStore, a.runs, gCfg.DownloadConfig, a.metrics, zLogger)

	return a, nil
}

func (a *app) buildClassifier(ctx context.Context, client *http.Client) (*classifier.Classifier, error) {
	discoveryCfg := a.cfg.DiscoveryConfig
	var opts []classifier.ClassifierOption

	if discoveryCfg.EnableProbe {
		prober := classifier.NewHTTPProber(client, discoveryCfg.ProbeTimeout(), a.logger)
		opts = append(opts, classifier.WithProber(discovery.InstrumentProber(prober, a.metrics)))
	}

	if discoveryCfg.EnablePreviews {
		previewStore, err := storage.New(ctx, a.cfg.StorageConfig, a.cfg.StorageConfig.PreviewDir, a.logger)
		if err != nil {
			return nil, common.WrapError(err, "could not open preview storage")
		}
		generator := preview.NewGenerator(client, previewStore, a.cfg.PreviewConfig, a.logger)
		opts = append(opts, classifier.WithPreviewGenerator(discovery.InstrumentPreviews(generator, a.metrics)))
	}

	rules := classifier.DefaultCategoryRules(discoveryCfg.VideoKeywordFallback)
	return classifier.NewClassifier(rules, a.logger, opts...), nil
}

func httpClientConfig(fc config.FetcherConfig) common.HTTPClientConfig {
	hc := common.DefaultHTTPClientConfig()
	hc.Timeout = 0
	hc.UserAgent = fc.UserAgent
	hc.MaxRedirects = fc.MaxRedirects
	hc.InsecureSkipVerify = fc.InsecureSkipTLSVerify
	hc.EnableHTTP2 = fc.EnableHTTP2
	hc.Proxy = fc.Proxy
	hc.CustomHeaders = fc.CustomHeaders
	return hc
}

// Close flushes metrics and releases the database.
func (a *app) Close() {
	if err := a.metrics.WriteTextfile(a.cfg.MetricsConfig.TextfilePath); err != nil {
		a.logger.Error().Err(err).Msg("Failed to write metrics textfile")
	}
	if a.runs != nil {
		if err := a.runs.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close run store")
		}
	}
}
