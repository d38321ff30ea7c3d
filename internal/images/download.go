// Package images downloads the images referenced by exported records.
package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/datamine-exporter/internal/fetch"
	"github.com/jonathan/datamine-exporter/internal/observability"
	"github.com/jonathan/datamine-exporter/internal/spreadsheet"
)

// DefaultConcurrency is the number of downloads in flight at once.
const DefaultConcurrency = 10

const (
	imageField    = "image"
	filenameField = "filename"
)

// Task is one image to download.
type Task struct {
	URL      string
	Filename string
}

// Tasks returns one task per record that has both a string image and a string
// filename field, in record order. A filename already taken by an earlier record is
// skipped, so no two tasks write the same file.
func Tasks(records []*spreadsheet.Record) []Task {
	var tasks []Task
	seen := make(map[string]bool)
	for _, r := range records {
		url, ok := r.GetString(imageField)
		if !ok || url == "" {
			continue
		}
		name, ok := r.GetString(filenameField)
		if !ok || name == "" {
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		tasks = append(tasks, Task{URL: url, Filename: name})
	}
	return tasks
}

// Summary counts the outcome of a Download call.
type Summary struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Downloader fetches images concurrently and writes them as <dir>/<filename>.png.
type Downloader struct {
	Fetch       *fetch.Options
	Concurrency int
	Overwrite   bool
	// Progress receives one line per finished task. Nil disables it.
	Progress io.Writer
	Logger   logrus.FieldLogger
}

func (d *Downloader) concurrency() int {
	if d.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return d.Concurrency
}

func (d *Downloader) logger() logrus.FieldLogger {
	if d.Logger != nil {
		return d.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Download runs one task per image-bearing record. A failed task never cancels its
// siblings; all failures are returned joined once every task has finished.
func (d *Downloader) Download(ctx context.Context, dir string, records []*spreadsheet.Record) (*Summary, error) {
	tasks := Tasks(records)
	summary := &Summary{}
	if len(tasks) == 0 {
		return summary, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}

	progress := observability.NewProgress(d.Progress, "Downloading images for "+filepath.Base(dir), len(tasks))
	logger := d.logger().WithField("dir", dir)

	var g errgroup.Group
	g.SetLimit(d.concurrency())

	var mu sync.Mutex
	var errs []error

	for _, task := range tasks {
		task := task
		g.Go(func() error {
			defer progress.Inc()

			skipped, err := d.downloadOne(ctx, dir, task)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				summary.Failed++
				errs = append(errs, err)
				logger.WithField("filename", task.Filename).WithError(err).Warn("image download failed")
			case skipped:
				summary.Skipped++
			default:
				summary.Downloaded++
			}
			return nil
		})
	}
	_ = g.Wait()

	logger.WithFields(logrus.Fields{
		"done":       progress.Done(),
		"total":      progress.Total(),
		"downloaded": summary.Downloaded,
		"failed":     summary.Failed,
	}).Debug("image batch finished")
	return summary, errors.Join(errs...)
}

func (d *Downloader) downloadOne(ctx context.Context, dir string, task Task) (bool, error) {
	if strings.ContainsAny(task.Filename, `/\`) || task.Filename == "." || task.Filename == ".." {
		return false, fmt.Errorf("image %q: invalid filename", task.Filename)
	}
	path := filepath.Join(dir, task.Filename+".png")

	if !d.Overwrite {
		if _, err := os.Stat(path); err == nil {
			return true, nil
		}
	}

	result, err := fetch.URL(ctx, task.URL, d.Fetch)
	if err != nil {
		return false, fmt.Errorf("image %q: %w", task.Filename, err)
	}
	if err := os.WriteFile(path, result.Body, 0644); err != nil {
		return false, fmt.Errorf("image %q: failed to write file: %w", task.Filename, err)
	}
	return false, nil
}
