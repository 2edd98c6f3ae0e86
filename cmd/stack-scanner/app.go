package main

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/ironsheep/stack-scanner/internal/collection"
	"github.com/ironsheep/stack-scanner/internal/config"
	"github.com/ironsheep/stack-scanner/internal/extract"
	"github.com/ironsheep/stack-scanner/internal/observability"
	"github.com/ironsheep/stack-scanner/internal/ocr"
	"github.com/ironsheep/stack-scanner/internal/scanner"
)

// app holds the components shared by every subcommand.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	engine   ocr.Engine
	appender collection.Appender
	svc      *scanner.Service
	closers  []io.Closer
}

// newApp loads configuration and wires the scan pipeline. Logs go to logOut;
// the mcp command needs stdout for the protocol, so callers pass stderr.
func newApp(ctx context.Context, opts *rootOptions, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(opts.cfgFile)
	if err != nil {
		return nil, err
	}

	level := cfg.Observability.LogLevel
	if opts.verbose {
		level = "debug"
	}
	log := observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      cfg.Observability.LogFormat,
		Output:      logOut,
		ServiceName: "stack-scanner",
	})

	a := &app{cfg: cfg, log: log}

	a.engine = ocr.NewTesseract(ocr.Config{
		Language:       cfg.OCR.Language,
		TessdataPrefix: cfg.OCR.TessdataPrefix,
		Binary:         cfg.OCR.Binary,
	})

	extractor := extract.New(a.engine,
		extract.WithContrast(cfg.OCR.Contrast),
		extract.WithLogger(observability.Component(log, "extract")),
	)

	a.appender = a.buildAppender(ctx)

	a.svc = scanner.New(extractor, a.appender,
		scanner.WithMerge(cfg.Session.MergeScans),
		scanner.WithPreviewWidth(cfg.Upload.PreviewWidth),
		scanner.WithLogger(observability.Component(log, "scanner")),
	)

	return a, nil
}

// buildAppender creates the configured collection backend wrapped in the
// retry policy. A backend that cannot be created becomes
// collection.Unavailable so scanning still works.
func (a *app) buildAppender(ctx context.Context) collection.Appender {
	cc := a.cfg.Collection
	log := observability.Component(a.log, "collection")

	var (
		next collection.Appender
		err  error
	)
	switch cc.Sink {
	case config.SinkPostgres:
		var tbl *collection.TableAppender
		tbl, err = collection.OpenTable(cc.DSN, cc.Migrate)
		if err == nil {
			a.closers = append(a.closers, tbl)
			next = tbl
		}
	default:
		if !cc.HasSheetCredentials() {
			log.Warn().
				Str("env", config.EnvServiceAccount).
				Msg("no service account configured; set collection.credentials_file or the env variable")
		}
		next, err = collection.NewSheetAppender(ctx, collection.SheetConfig{
			SpreadsheetID:   cc.SpreadsheetID,
			Worksheet:       cc.Worksheet,
			CredentialsJSON: []byte(cc.CredentialsJSON),
			CredentialsFile: cc.CredentialsFile,
			Hyperlinks:      cc.Hyperlinks,
		})
	}
	if err != nil {
		log.Warn().Err(err).Str("sink", cc.Sink).Msg("collection unavailable; saves will fail")
		return collection.Unavailable{Err: err}
	}

	log.Info().Str("sink", cc.Sink).Msg("collection ready")
	return collection.NewRetrying(next,
		collection.WithTimeout(cc.Timeout),
		collection.WithRetries(cc.Retries),
		collection.WithRetryLogger(log),
	)
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Warn().Err(err).Msg("close failed")
		}
	}
}
