// Package filestore is a local catalog backend: every business form's record
// set lives in one JSON document guarded by a cross-process file lock.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/JourneyJu/dsg-sub010/catalogapi"
	"github.com/JourneyJu/dsg-sub010/internal/locking"
	"github.com/JourneyJu/dsg-sub010/types"
	"github.com/google/uuid"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

const (
	lockTimeout    = 3 * time.Second
	lockMaxRetries = 3
	lockRetryDelay = 100 * time.Millisecond

	formatVersion = "1.0"
)

// Data is the complete JSON document
type Data struct {
	Sources  map[string]*SourceData `json:"sources"`
	Metadata Metadata               `json:"metadata"`
}

// SourceData is the stored record set of one business form or catalog
type SourceData struct {
	Records   []types.RawRecord `json:"records"`
	Version   int               `json:"version"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Metadata describes the document itself
type Metadata struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SourceInfo summarizes one stored source
type SourceInfo struct {
	ID        string    `json:"id"`
	Records   int       `json:"records"`
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store implements catalogapi.Client on top of a JSON file.
// Every operation re-reads the file under the file lock, so several processes
// may share one store.
type Store struct {
	path        string
	fs          FileSystem
	lockFactory FileLockFactory
	fileLock    FileLock
	lm          *locking.LockManager
	logger      *zap.Logger
	timeFunc    func() time.Time
	idFunc      func() string
}

// Option is a function that modifies Store configuration
type Option func(*Store)

// WithFileSystem sets a custom FileSystem implementation
func WithFileSystem(fs FileSystem) Option {
	return func(s *Store) { s.fs = fs }
}

// WithFileLockFactory sets a custom FileLockFactory implementation
func WithFileLockFactory(factory FileLockFactory) Option {
	return func(s *Store) { s.lockFactory = factory }
}

// WithTimeFunc sets a custom time function for testing
func WithTimeFunc(fn func() time.Time) Option {
	return func(s *Store) { s.timeFunc = fn }
}

// WithIDFunc sets the generator of ids for newly submitted records
func WithIDFunc(fn func() string) Option {
	return func(s *Store) { s.idFunc = fn }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New opens the store at path, creating its directory if needed.
// The file itself is created on first write.
func New(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:     path,
		lm:       locking.NewLockManager(),
		logger:   zap.NewNop(),
		timeFunc: time.Now,
		idFunc:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fs == nil {
		s.fs = OSFileSystem{}
	}
	if s.lockFactory == nil {
		s.lockFactory = FlockFactory{}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := s.fs.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	s.fileLock = s.lockFactory.New(path + ".lock")

	// fail early on an unreadable document
	if _, err := s.read(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}
	return s, nil
}

// Path returns the location of the JSON document
func (s *Store) Path() string {
	return s.path
}

// FetchRecords implements catalogapi.Client
func (s *Store) FetchRecords(ctx context.Context, sourceID string) ([]types.RawRecord, error) {
	data, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	src, ok := data.Sources[sourceID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", sourceID, catalogapi.ErrSourceNotFound)
	}
	s.logger.Debug("fetched records", zap.String("source", sourceID), zap.Int("count", len(src.Records)))
	return src.Records, nil
}

// SubmitRecords implements catalogapi.Client. The stored record set is
// replaced; records without an id receive a generated one.
func (s *Store) SubmitRecords(ctx context.Context, sourceID string, records []types.SubmittedRecord) (*types.SubmitResult, error) {
	if err := checkSubmission(records); err != nil {
		return nil, err
	}

	var result *types.SubmitResult
	err := s.update(ctx, func(data *Data) error {
		src, ok := data.Sources[sourceID]
		if !ok {
			src = &SourceData{}
			data.Sources[sourceID] = src
		}

		result = &types.SubmitResult{SourceID: sourceID, IDs: make([]string, len(records))}
		stored := make([]types.RawRecord, len(records))
		for i, rec := range records {
			if rec.ID == "" {
				rec.ID = s.idFunc()
			}
			result.IDs[i] = rec.ID
			stored[i] = rec.ToRaw()
		}

		src.Records = stored
		src.Version++
		src.UpdatedAt = s.timeFunc()
		result.Version = src.Version
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stored records", zap.String("source", sourceID), zap.Int("count", len(records)), zap.Int("version", result.Version))
	return result, nil
}

// Import stores raw records as the record set of sourceID, replacing any
// existing set. Records without an id receive a generated one.
func (s *Store) Import(ctx context.Context, sourceID string, records []types.RawRecord) error {
	if sourceID == "" {
		return fmt.Errorf("source id cannot be empty")
	}
	return s.update(ctx, func(data *Data) error {
		src, ok := data.Sources[sourceID]
		if !ok {
			src = &SourceData{}
			data.Sources[sourceID] = src
		}
		stored := make([]types.RawRecord, len(records))
		seen := make(map[string]bool, len(records))
		for i, r := range records {
			cp := make(types.RawRecord, len(r)+1)
			for k, v := range r {
				cp[k] = v
			}
			id := cast.ToString(cp["id"])
			if id == "" {
				id = s.idFunc()
				cp["id"] = id
			}
			if seen[id] {
				return fmt.Errorf("record %d: duplicate id %q: %w", i, id, catalogapi.ErrInvalidSubmission)
			}
			seen[id] = true
			stored[i] = cp
		}
		src.Records = stored
		src.Version++
		src.UpdatedAt = s.timeFunc()
		return nil
	})
}

// Sources lists the stored sources ordered by id
func (s *Store) Sources(ctx context.Context) ([]SourceInfo, error) {
	data, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SourceInfo, 0, len(data.Sources))
	for id, src := range data.Sources {
		out = append(out, SourceInfo{ID: id, Records: len(src.Records), Version: src.Version, UpdatedAt: src.UpdatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Delete removes a source
func (s *Store) Delete(ctx context.Context, sourceID string) error {
	return s.update(ctx, func(data *Data) error {
		if _, ok := data.Sources[sourceID]; !ok {
			return fmt.Errorf("%s: %w", sourceID, catalogapi.ErrSourceNotFound)
		}
		delete(data.Sources, sourceID)
		return nil
	})
}

// Close removes the lock file
func (s *Store) Close() error {
	return s.lm.Execute(locking.WriteOperation, func() error {
		_ = s.fs.Remove(s.path + ".lock")
		return nil
	})
}

func checkSubmission(records []types.SubmittedRecord) error {
	seen := make(map[string]bool, len(records))
	for i, rec := range records {
		if strings.TrimSpace(rec.Name) == "" {
			return fmt.Errorf("record %d has no name: %w", i, catalogapi.ErrInvalidSubmission)
		}
		if rec.ID == "" {
			continue
		}
		if seen[rec.ID] {
			return fmt.Errorf("record %d repeats id %q: %w", i, rec.ID, catalogapi.ErrInvalidSubmission)
		}
		seen[rec.ID] = true
	}
	return nil
}

// read loads the document under the shared file lock.
// The flock handle is shared by every goroutine, so in-process access is
// serialized through the write side of the lock manager.
func (s *Store) read(ctx context.Context) (*Data, error) {
	return locking.Write(s.lm, func() (*Data, error) {
		if err := s.acquireLock(ctx, true); err != nil {
			return nil, err
		}
		defer func() { _ = s.fileLock.Unlock() }()
		return s.load()
	})
}

// update loads, mutates and saves the document under the exclusive file lock
func (s *Store) update(ctx context.Context, fn func(*Data) error) error {
	return s.lm.Execute(locking.WriteOperation, func() error {
		if err := s.acquireLock(ctx, false); err != nil {
			return err
		}
		defer func() { _ = s.fileLock.Unlock() }()

		data, err := s.load()
		if err != nil {
			return err
		}
		if err := fn(data); err != nil {
			return err
		}
		return s.save(data)
	})
}

// acquireLock attempts to acquire the file lock with retry logic
func (s *Store) acquireLock(ctx context.Context, shared bool) error {
	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	for i := 0; i < lockMaxRetries; i++ {
		var locked bool
		var err error
		if shared {
			locked, err = s.fileLock.TryRLockContext(ctx, lockRetryDelay)
		} else {
			locked, err = s.fileLock.TryLockContext(ctx, lockRetryDelay)
		}
		if err != nil {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		if locked {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to acquire lock: %w", ctx.Err())
		case <-time.After(lockRetryDelay):
		}
	}

	return fmt.Errorf("failed to acquire lock after %d attempts", lockMaxRetries)
}

// load reads the JSON document; caller must hold the file lock
func (s *Store) load() (*Data, error) {
	now := s.timeFunc()
	empty := &Data{
		Sources:  map[string]*SourceData{},
		Metadata: Metadata{Version: formatVersion, CreatedAt: now, UpdatedAt: now},
	}

	if _, err := s.fs.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return empty, nil
	}
	raw, err := s.fs.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(raw) == 0 {
		return empty, nil
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if data.Sources == nil {
		data.Sources = map[string]*SourceData{}
	}
	for id, src := range data.Sources {
		if src == nil {
			data.Sources[id] = &SourceData{}
		}
	}
	return &data, nil
}

// save writes the document atomically; caller must hold the file lock
func (s *Store) save(data *Data) error {
	data.Metadata.UpdatedAt = s.timeFunc()
	if data.Metadata.Version == "" {
		data.Metadata.Version = formatVersion
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	tmpFile := s.path + ".tmp"
	if err := s.fs.WriteFile(tmpFile, raw, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := s.fs.Rename(tmpFile, s.path); err != nil {
		_ = s.fs.Remove(tmpFile)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

var _ catalogapi.Client = (*Store)(nil)
