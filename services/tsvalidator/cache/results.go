// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/tsvalidator/services/tsvalidator/validate"
)

// keyPrefix namespaces result entries.
const keyPrefix = "result/"

// ResultStore is a validate.ResultCache backed by BadgerDB.
//
// Thread Safety: Safe for concurrent use.
type ResultStore struct {
	db     *badger.DB
	gc     *gcRunner
	ttl    time.Duration
	logger *slog.Logger
}

var _ validate.ResultCache = (*ResultStore)(nil)

// Open opens or creates a result store.
func Open(cfg Config) (*ResultStore, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store := &ResultStore{db: db, ttl: cfg.TTL, logger: logger}

	if cfg.GCInterval > 0 && !cfg.InMemory {
		runner, err := newGCRunner(db, cfg.GCInterval, cfg.GCDiscardRatio, cfg.Logger)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("create GC runner: %w", err)
		}
		store.gc = runner
		runner.start()
	}
	return store, nil
}

// Get returns the stored result for key. Corrupt or unreadable entries are
// misses.
func (s *ResultStore) Get(ctx context.Context, key string) (validate.Result, bool) {
	if ctx.Err() != nil {
		return validate.Result{}, false
	}

	var result validate.Result
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &result)
		})
	})
	switch {
	case err == nil:
		return result, true
	case errors.Is(err, badger.ErrKeyNotFound):
		return validate.Result{}, false
	default:
		s.logger.Warn("result cache read failed", slog.String("error", err.Error()))
		return validate.Result{}, false
	}
}

// Put stores r under key with the configured TTL.
func (s *ResultStore) Put(ctx context.Context, key string, r validate.Result) {
	if ctx.Err() != nil {
		return
	}
	val, err := json.Marshal(r)
	if err != nil {
		s.logger.Warn("result cache encode failed", slog.String("error", err.Error()))
		return
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(keyPrefix+key), val)
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		s.logger.Warn("result cache write failed", slog.String("error", err.Error()))
	}
}

// Len counts live entries.
func (s *ResultStore) Len() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Purge deletes every stored result.
func (s *ResultStore) Purge() error {
	return s.db.DropPrefix([]byte(keyPrefix))
}

// Close stops GC and closes the database.
func (s *ResultStore) Close() error {
	if s.gc != nil {
		s.gc.stop()
	}
	return s.db.Close()
}
