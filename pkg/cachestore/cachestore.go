// Package cachestore persists GitCache entries to disk so repeat runs
// against an unchanged repository skip git subprocess calls entirely. It is
// optional (SPEC_FULL.md §6's cache_path option; empty means in-memory
// only). Grounded on the teacher's pkg/storage/sqlite.go, which opened a
// SQLite database and ran hand-written migrations via database/sql; this
// package keeps that "open-or-create, migrate, single table" shape but
// swaps database/sql for gorm.io/gorm + github.com/glebarez/sqlite (already
// pulled in transitively by the teacher's own glebarez/sqlite driver) and
// drops the analysis-snapshot schema entirely, since the thing being
// persisted here is cache entries, not analysis history.
package cachestore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// entry is the content-addressed row: its primary key is the SHA-256 of
// (repo, operation, key), so the table is safe to delete and rebuilds
// itself lazily on the next cache miss.
type entry struct {
	Digest    string `gorm:"primaryKey"`
	Repo      string `gorm:"index"`
	Operation string `gorm:"index"`
	Payload   string
	CreatedAt time.Time
}

// Store is a disk-backed key/value cache for gitcache.Cache entries.
type Store struct {
	db *gorm.DB
}

// Open creates or opens a SQLite-backed store at path and migrates its
// schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("opening cache store at %s: %w", path, err)
	}
	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("migrating cache store schema: %w", err)
	}
	return &Store{db: db}, nil
}

func digest(repo, operation, key string) string {
	sum := sha256.Sum256([]byte(repo + "|" + operation + "|" + key))
	return hex.EncodeToString(sum[:])
}

// Get unmarshals a previously stored value into dest, reporting whether
// an entry was found.
func (s *Store) Get(repo, operation, key string, dest any) (bool, error) {
	var e entry
	result := s.db.First(&e, "digest = ?", digest(repo, operation, key))
	if result.Error == gorm.ErrRecordNotFound {
		return false, nil
	}
	if result.Error != nil {
		return false, fmt.Errorf("reading cache entry: %w", result.Error)
	}
	if err := json.Unmarshal([]byte(e.Payload), dest); err != nil {
		return false, fmt.Errorf("decoding cached payload: %w", err)
	}
	return true, nil
}

// Put marshals value and stores it, replacing any existing entry for the
// same (repo, operation, key).
func (s *Store) Put(repo, operation, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding cache payload: %w", err)
	}
	e := entry{
		Digest:    digest(repo, operation, key),
		Repo:      repo,
		Operation: operation,
		Payload:   string(payload),
		CreatedAt: time.Now(),
	}
	if err := s.db.Save(&e).Error; err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
