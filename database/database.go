// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package database persists raffle state, round history, the event journal
// and coordinator state. Relational data lives in SQLite, key/value data in
// badger. An empty data directory keeps both stores in memory.
package database

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/raffle/database/badger"
	"github.com/blinklabs-io/raffle/database/sqlite"
	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	DataDir      string
	Blob         BlobConfig
}

// BlobConfig tunes the badger blob store. Zero values keep the store defaults.
type BlobConfig struct {
	BlockCacheSize   uint64
	IndexCacheSize   uint64
	ValueLogFileSize int64
	MemTableSize     int64
	ValueThreshold   int64
	GcInterval       time.Duration
	DisableGc        bool
}

func (c BlobConfig) options() []badger.BlobStoreBadgerOptionFunc {
	var opts []badger.BlobStoreBadgerOptionFunc
	if c.BlockCacheSize > 0 {
		opts = append(opts, badger.WithBlockCacheSize(c.BlockCacheSize))
	}
	if c.IndexCacheSize > 0 {
		opts = append(opts, badger.WithIndexCacheSize(c.IndexCacheSize))
	}
	if c.ValueLogFileSize > 0 {
		opts = append(opts, badger.WithValueLogFileSize(c.ValueLogFileSize))
	}
	if c.MemTableSize > 0 {
		opts = append(opts, badger.WithMemTableSize(c.MemTableSize))
	}
	if c.ValueThreshold > 0 {
		opts = append(opts, badger.WithValueThreshold(c.ValueThreshold))
	}
	if c.GcInterval > 0 {
		opts = append(opts, badger.WithGcInterval(c.GcInterval))
	}
	if c.DisableGc {
		opts = append(opts, badger.WithGc(false))
	}
	return opts
}

type Database struct {
	logger   *slog.Logger
	blob     *badger.BlobStoreBadger
	metadata *sqlite.MetadataStoreSqlite
	metrics  *databaseMetrics
	dataDir  string
}

// Blob returns the underling blob store instance
func (d *Database) Blob() *badger.BlobStoreBadger {
	return d.blob
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.dataDir
}

// Logger returns the logger instance
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Metadata returns the underlying metadata store instance
func (d *Database) Metadata() *sqlite.MetadataStoreSqlite {
	return d.metadata
}

// Close cleans up the database connections
func (d *Database) Close() error {
	var err error
	// Close metadata
	if d.metadata != nil {
		err = errors.Join(err, d.metadata.Close())
	}
	// Close blob
	if d.blob != nil {
		err = errors.Join(err, d.blob.Close())
	}
	return err
}

// New creates a new database instance with optional persistence using the provided data directory
func New(cfg *Config) (*Database, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	logger := cfg.Logger
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	logger = logger.With("component", "database")
	metadataDb, err := sqlite.New(
		sqlite.WithLogger(logger),
		sqlite.WithPromRegistry(cfg.PromRegistry),
		sqlite.WithDataDir(cfg.DataDir),
	)
	if err != nil {
		if metadataDb != nil {
			_ = metadataDb.Close()
		}
		return nil, fmt.Errorf("open metadata store: %w", err)
	}
	blobOpts := []badger.BlobStoreBadgerOptionFunc{
		badger.WithLogger(logger),
		badger.WithPromRegistry(cfg.PromRegistry),
		badger.WithDataDir(cfg.DataDir),
	}
	blobOpts = append(blobOpts, cfg.Blob.options()...)
	blobDb, err := badger.New(blobOpts...)
	if err != nil {
		if blobDb != nil {
			_ = blobDb.Close()
		}
		_ = metadataDb.Close()
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	db := &Database{
		logger:   logger,
		blob:     blobDb,
		metadata: metadataDb,
		dataDir:  cfg.DataDir,
	}
	if cfg.PromRegistry != nil {
		db.metrics = newDatabaseMetrics(cfg.PromRegistry)
	}
	return db, nil
}
