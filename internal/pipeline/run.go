// Package pipeline provides the high-level orchestration of a spreadsheet export.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jonathan/datamine-exporter/internal/config"
	"github.com/jonathan/datamine-exporter/internal/db"
	"github.com/jonathan/datamine-exporter/internal/export"
	"github.com/jonathan/datamine-exporter/internal/fetch"
	"github.com/jonathan/datamine-exporter/internal/images"
	"github.com/jonathan/datamine-exporter/internal/observability"
	"github.com/jonathan/datamine-exporter/internal/pipeline/steps"
	"github.com/jonathan/datamine-exporter/internal/schemas"
	"github.com/jonathan/datamine-exporter/internal/spreadsheet"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// RunOptions holds configuration for running the pipeline
type RunOptions struct {
	Config config.Config // Already merged with defaults
	// Source overrides the Sheets API download, e.g. in tests.
	Source fetch.Source
	// Fetch configures image downloads.
	Fetch      *fetch.Options
	Logger     logrus.FieldLogger
	Out        io.Writer // Verbose printer and image progress output; nil is silent
	OnProgress ProgressCallback
}

// RunResult summarizes a finished run
type RunResult struct {
	RunID    uuid.UUID
	Dataset  *spreadsheet.Dataset
	Files    []export.SheetFile
	Manifest string
	Images   export.ImageCounts
}

func (opts *RunOptions) logger() logrus.FieldLogger {
	if opts.Logger != nil {
		return opts.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func (opts *RunOptions) out() io.Writer {
	if opts.Out != nil {
		return opts.Out
	}
	return io.Discard
}

// source returns the configured spreadsheet source. The Sheets client is created on
// first use, so a cached spreadsheet needs no API key.
func (opts *RunOptions) source() fetch.Source {
	if opts.Source != nil {
		return opts.Source
	}
	cfg := opts.Config
	return fetch.SourceFunc(func(ctx context.Context, spreadsheetID string) ([]byte, error) {
		client, err := fetch.NewSheetsClient(ctx, fetch.SheetsConfig{
			APIKey:   cfg.APIKey,
			Endpoint: cfg.SheetsEndpoint,
		})
		if err != nil {
			return nil, err
		}
		return client.Download(ctx, spreadsheetID)
	})
}

// downloadInstrument logs spreadsheet download progress.
func downloadInstrument(logger logrus.FieldLogger, spreadsheetID string) fetch.Instrument {
	log := logger.WithField("spreadsheet", spreadsheetID)
	return fetch.InstrumentFuncs{
		OnStart:  func() { log.Info("Downloading spreadsheet") },
		OnBytes:  func(n int) { log.WithField("bytes", n).Debug("Received spreadsheet data") },
		OnFinish: func() { log.Info("Spreadsheet download finished") },
	}
}

// LoadSpreadsheet returns the parsed spreadsheet, downloading it when it is not cached.
func LoadSpreadsheet(ctx context.Context, opts RunOptions) (*spreadsheet.Spreadsheet, error) {
	cfg := opts.Config
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}

	cache := fetch.NewSpreadsheetCache(opts.source(), &fetch.CacheConfig{
		Dir:        cfg.CacheDir,
		Refresh:    cfg.Refresh,
		Instrument: downloadInstrument(opts.logger(), cfg.SpreadsheetID),
	})
	cached, err := cache.Get(ctx, cfg.SpreadsheetID)
	if err != nil {
		return nil, err
	}
	opts.logger().WithFields(logrus.Fields{
		"path":       cached.Path,
		"from_cache": cached.FromCache,
	}).Debug("Loaded spreadsheet")

	doc, err := spreadsheet.Parse(cached.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse spreadsheet %s: %w", cached.Path, err)
	}
	return doc, nil
}

// LoadDataset loads the spreadsheet and builds its records, enriched unless
// enrichment is disabled.
func LoadDataset(ctx context.Context, opts RunOptions) (*spreadsheet.Dataset, error) {
	doc, err := LoadSpreadsheet(ctx, opts)
	if err != nil {
		return nil, err
	}
	ds, err := spreadsheet.NewDataset(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build records: %w", err)
	}
	if err := enrich(ds, opts); err != nil {
		return nil, err
	}
	return ds, nil
}

func enrich(ds *spreadsheet.Dataset, opts RunOptions) error {
	e := opts.Config.Enrichment
	if e.Disabled {
		return nil
	}
	if err := ds.Enrich(e.Spec(), spreadsheet.EnrichOptions{Strict: e.Strict, Logger: opts.logger()}); err != nil {
		return fmt.Errorf("failed to enrich records: %w", err)
	}
	return nil
}

// Plan returns the steps the configuration enables, in execution order.
func Plan(cfg config.Config) ([]steps.StepDefinition, error) {
	enabled := map[string]bool{
		steps.Load:       true,
		steps.Build:      true,
		steps.Enrich:     !cfg.Enrichment.Disabled,
		steps.ExportJSON: true,
		steps.Validate:   true,
		steps.Workbook:   cfg.Workbook != "",
		steps.UniqueIDs:  cfg.UniqueIDsFile != "",
		steps.Store:      cfg.DatabaseURL != "",
		steps.Images:     cfg.DownloadImages,
		steps.Manifest:   true,
	}
	return steps.Plan(enabled)
}

// runner tracks step completion and emits progress for one run
type runner struct {
	opts      *RunOptions
	runID     uuid.UUID
	completed map[string]bool
	logger    logrus.FieldLogger
}

func (r *runner) begin(step string) error {
	if err := steps.ValidateDependencies(step, r.completed); err != nil {
		return err
	}
	r.emit(step, "started", nil)
	r.logger.WithField("step", step).Debug("Step started")
	return nil
}

func (r *runner) complete(step, message string, content any) {
	r.completed[step] = true
	r.emit(step, message, content)
	r.logger.WithField("step", step).Info(message)
}

func (r *runner) emit(step, message string, content any) {
	if r.opts.OnProgress == nil {
		return
	}
	r.opts.OnProgress(ProgressEvent{
		Step:     step,
		Category: steps.StepRegistry[step].Category,
		Message:  message,
		RunID:    r.runID.String(),
		Content:  content,
	})
}

// Run executes every enabled step. Dataset errors stop the run before anything is
// written; image failures are returned after the manifest is written. A stored run is
// completed with the returned error, whichever step produced it.
func Run(ctx context.Context, opts RunOptions) (result *RunResult, err error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	plan, err := Plan(cfg)
	if err != nil {
		return nil, err
	}

	result = &RunResult{RunID: uuid.New()}
	r := &runner{
		opts:      &opts,
		runID:     result.RunID,
		completed: make(map[string]bool),
		logger:    opts.logger().WithField("run_id", result.RunID.String()),
	}
	printer := observability.NewPrinter(opts.out())
	r.logger.WithField("steps", steps.Names(plan)).Debug("Planned export")

	var doc *spreadsheet.Spreadsheet
	var manifest *export.Manifest
	var imageErr error
	var database *db.DB
	defer func() {
		if database != nil {
			finishRun(ctx, database, result.RunID, err, r.logger)
		}
	}()

	for _, step := range plan {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := r.begin(step.Name); err != nil {
			return result, err
		}

		switch step.Name {
		case steps.Load:
			doc, err = LoadSpreadsheet(ctx, opts)
			if err != nil {
				return result, err
			}
			r.complete(step.Name, fmt.Sprintf("Loaded %d sheets", len(doc.Sheets())), nil)

		case steps.Build:
			result.Dataset, err = spreadsheet.NewDataset(doc)
			if err != nil {
				return result, fmt.Errorf("failed to build records: %w", err)
			}
			r.complete(step.Name, fmt.Sprintf("Built %d sheets", result.Dataset.Len()), nil)
			if cfg.Verbose {
				printer.PrintDataset(result.Dataset)
			}

		case steps.Enrich:
			if err := enrich(result.Dataset, opts); err != nil {
				return result, err
			}
			r.complete(step.Name, "Enriched "+cfg.Enrichment.TargetSheet, nil)
			if cfg.Verbose {
				records, _ := result.Dataset.Get(cfg.Enrichment.TargetSheet)
				printer.PrintRecordSample(cfg.Enrichment.TargetSheet, records)
			}

		case steps.ExportJSON:
			result.Files, err = export.WriteJSON(cfg.ExportDir, result.Dataset)
			if err != nil {
				return result, err
			}
			manifest = export.NewManifest(result.RunID, cfg.SpreadsheetID, result.Files)
			r.complete(step.Name, fmt.Sprintf("Wrote %d sheet files", len(result.Files)), result.Files)

		case steps.Validate:
			for _, f := range result.Files {
				if err := schemas.ValidateSheetFile(f.Path); err != nil {
					return result, fmt.Errorf("exported file %s is invalid: %w", f.Path, err)
				}
			}
			r.complete(step.Name, "Exported files match the records schema", nil)

		case steps.Workbook:
			if err := export.WriteWorkbook(cfg.Workbook, result.Dataset); err != nil {
				return result, err
			}
			manifest.Workbook = cfg.Workbook
			r.complete(step.Name, "Wrote "+cfg.Workbook, nil)

		case steps.UniqueIDs:
			format := export.IDFormat{Prefix: cfg.IDPrefix, Suffix: cfg.IDSuffix}
			if err := export.WriteUniqueEntryIDs(cfg.UniqueIDsFile, result.Dataset, format); err != nil {
				return result, err
			}
			manifest.UniqueIDs = cfg.UniqueIDsFile
			r.complete(step.Name, "Wrote "+cfg.UniqueIDsFile, nil)

		case steps.Store:
			database = storeRecords(ctx, cfg, result, r.logger)
			r.complete(step.Name, "Stored records", nil)

		case steps.Images:
			counts, err := downloadImages(ctx, opts, result.Dataset)
			result.Images = counts
			manifest.Images = &counts
			imageErr = err
			r.complete(step.Name, fmt.Sprintf("Downloaded %d images (%d skipped, %d failed)",
				counts.Downloaded, counts.Skipped, counts.Failed), counts)

		case steps.Manifest:
			result.Manifest, err = export.WriteManifest(cfg.ExportDir, manifest)
			if err != nil {
				return result, err
			}
			if err := schemas.ValidateManifestFile(result.Manifest); err != nil {
				return result, fmt.Errorf("manifest is invalid: %w", err)
			}
			r.complete(step.Name, fmt.Sprintf("Wrote %s (%d records)", result.Manifest, manifest.TotalRecords()), nil)
		}
	}

	if cfg.Verbose {
		paths := make([]string, len(result.Files))
		for i, f := range result.Files {
			paths[i] = f.Path
		}
		printer.PrintExportSummary(paths)
	}

	if imageErr != nil {
		return result, fmt.Errorf("image download failed: %w", imageErr)
	}
	return result, nil
}

// runRecorder is the part of the database sink that tracks the status of a run.
type runRecorder interface {
	CompleteRun(ctx context.Context, runID uuid.UUID, runErr error) error
	Close()
}

// finishRun marks the run completed or failed and releases the database. It still
// records the outcome when ctx was canceled.
func finishRun(ctx context.Context, rec runRecorder, runID uuid.UUID, runErr error, logger logrus.FieldLogger) {
	defer rec.Close()
	if err := rec.CompleteRun(context.WithoutCancel(ctx), runID, runErr); err != nil {
		logger.WithError(err).Warn("Failed to complete database run")
	}
}

// storeRecords saves every sheet to the database. Database problems are logged and
// never fail the export; the returned handle is nil when nothing was stored.
func storeRecords(ctx context.Context, cfg config.Config, result *RunResult, logger logrus.FieldLogger) *db.DB {
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Warn("Failed to connect to database, continuing without database persistence")
		return nil
	}
	if err := database.EnsureSchema(ctx); err != nil {
		logger.WithError(err).Warn("Failed to prepare database schema")
		database.Close()
		return nil
	}
	if _, err := database.CreateRun(ctx, result.RunID, cfg.SpreadsheetID); err != nil {
		logger.WithError(err).Warn("Failed to create database run")
		database.Close()
		return nil
	}
	for _, sheet := range result.Dataset.Sheets() {
		if err := database.SaveSheet(ctx, result.RunID, sheet.Title, sheet.Records); err != nil {
			logger.WithError(err).WithField("sheet", sheet.Title).Warn("Failed to store sheet")
		}
	}
	return database
}

// downloadImages fetches the images of every sheet into
// <images_dir>/<normalized sheet title>/.
func downloadImages(ctx context.Context, opts RunOptions, ds *spreadsheet.Dataset) (export.ImageCounts, error) {
	cfg := opts.Config
	downloader := &images.Downloader{
		Fetch:       opts.Fetch,
		Concurrency: cfg.ImageConcurrency,
		Progress:    opts.Out,
		Logger:      opts.logger(),
	}

	var counts export.ImageCounts
	var errs []error
	for _, sheet := range ds.Sheets() {
		dir := filepath.Join(cfg.ImagesDir, export.NormalizeFilename(sheet.Title))
		summary, err := downloader.Download(ctx, dir, sheet.Records)
		if summary != nil {
			counts.Downloaded += summary.Downloaded
			counts.Skipped += summary.Skipped
			counts.Failed += summary.Failed
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("sheet %q: %w", sheet.Title, err))
		}
	}
	return counts, errors.Join(errs...)
}
