package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Instrument receives progress callbacks for a spreadsheet download.
type Instrument interface {
	StartingRequest()
	ReceivedBytes(n int)
	RequestFinished()
}

// InstrumentFuncs adapts plain functions to Instrument. Nil functions are skipped.
type InstrumentFuncs struct {
	OnStart  func()
	OnBytes  func(n int)
	OnFinish func()
}

func (f InstrumentFuncs) StartingRequest() {
	if f.OnStart != nil {
		f.OnStart()
	}
}

func (f InstrumentFuncs) ReceivedBytes(n int) {
	if f.OnBytes != nil {
		f.OnBytes(n)
	}
}

func (f InstrumentFuncs) RequestFinished() {
	if f.OnFinish != nil {
		f.OnFinish()
	}
}

// CacheConfig holds configuration for the spreadsheet cache.
type CacheConfig struct {
	Dir        string
	Refresh    bool // Ignore a cached copy and download again
	Instrument Instrument
}

// DefaultCacheDir is used when CacheConfig.Dir is empty.
const DefaultCacheDir = "cache"

// SpreadsheetCache wraps a Source with a file cache: each spreadsheet is stored as
// <dir>/<spreadsheet id> and downloaded only when that file is missing.
type SpreadsheetCache struct {
	source     Source
	dir        string
	refresh    bool
	instrument Instrument
}

// NewSpreadsheetCache creates a cache in front of source.
func NewSpreadsheetCache(source Source, config *CacheConfig) *SpreadsheetCache {
	if config == nil {
		config = &CacheConfig{}
	}
	dir := config.Dir
	if dir == "" {
		dir = DefaultCacheDir
	}
	instrument := config.Instrument
	if instrument == nil {
		instrument = InstrumentFuncs{}
	}
	return &SpreadsheetCache{
		source:     source,
		dir:        dir,
		refresh:    config.Refresh,
		instrument: instrument,
	}
}

// Path creates the cache directory and returns the cache file for spreadsheetID.
func (c *SpreadsheetCache) Path(spreadsheetID string) (string, error) {
	if spreadsheetID == "" || spreadsheetID == "." || spreadsheetID == ".." ||
		strings.ContainsAny(spreadsheetID, `/\`) {
		return "", fmt.Errorf("invalid spreadsheet id %q", spreadsheetID)
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	return filepath.Join(c.dir, spreadsheetID), nil
}

// CachedResult is the spreadsheet document plus cache metadata.
type CachedResult struct {
	Data      []byte
	Path      string
	FromCache bool
}

// Get returns the cached document for spreadsheetID, downloading and storing it first
// when there is no cached copy.
func (c *SpreadsheetCache) Get(ctx context.Context, spreadsheetID string) (*CachedResult, error) {
	path, err := c.Path(spreadsheetID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cache path: %w", err)
	}

	if !c.refresh {
		data, err := os.ReadFile(path)
		if err == nil {
			return &CachedResult{Data: data, Path: path, FromCache: true}, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed reading cached spreadsheet: %w", err)
		}
	}

	c.instrument.StartingRequest()
	data, err := c.source.Download(ctx, spreadsheetID)
	if err != nil {
		return nil, fmt.Errorf("failed downloading spreadsheet: %w", err)
	}
	c.instrument.ReceivedBytes(len(data))
	c.instrument.RequestFinished()

	if err := writeFileAtomic(path, data); err != nil {
		return nil, fmt.Errorf("failed writing spreadsheet to cache: %w", err)
	}
	return &CachedResult{Data: data, Path: path, FromCache: false}, nil
}

// writeFileAtomic writes data next to path and renames it into place, so a crashed
// download never leaves a truncated cache file behind.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
