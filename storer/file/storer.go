package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/w-h-a/reasoningbank/memory"
	"github.com/w-h-a/reasoningbank/storer"
)

const (
	formatVersion   = 1
	defaultFileName = "memories.json"
)

type snapshot struct {
	Version   int             `json:"version"`
	Dimension int             `json:"dimension"`
	Count     int             `json:"count"`
	Checksum  string          `json:"checksum"`
	Records   json.RawMessage `json:"records"`
}

type fileStorer struct {
	options storer.Options
	path    string

	// mtx guards the in-memory index. It is never held across disk I/O.
	mtx        sync.RWMutex
	records    map[string]memory.Record
	order      []string
	dimension  int
	generation uint64
	halted     error
	closed     bool

	// persistMtx serialises flushes. persisted is the newest generation
	// known to be on disk.
	persistMtx sync.Mutex
	persisted  uint64
}

func (s *fileStorer) Put(ctx context.Context, rec memory.Record) error {
	s.mtx.Lock()

	if err := s.writable(); err != nil {
		s.mtx.Unlock()
		return err
	}

	if err := storer.Validate(rec, s.dimension); err != nil {
		s.mtx.Unlock()
		return err
	}

	if _, exists := s.records[rec.Id]; exists {
		s.mtx.Unlock()
		return fmt.Errorf("%w: %s", memory.ErrDuplicateId, rec.Id)
	}

	established := false
	if s.dimension == 0 {
		s.dimension = len(rec.Embedding)
		established = true
	}

	s.records[rec.Id] = rec.Clone()
	s.order = append(s.order, rec.Id)
	s.generation++
	gen := s.generation

	s.mtx.Unlock()

	s.persistMtx.Lock()
	defer s.persistMtx.Unlock()

	if err := s.flushLocked(ctx, gen); err != nil {
		s.rollback(rec.Id, established, err)
		return err
	}

	return nil
}

func (s *fileStorer) Get(ctx context.Context, id string) (memory.Record, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return memory.Record{}, fmt.Errorf("%w: memory %s", memory.ErrNotFound, id)
	}

	return rec.Clone(), nil
}

func (s *fileStorer) List(ctx context.Context, scope storer.Scope) iter.Seq2[memory.Record, error] {
	return func(yield func(memory.Record, error) bool) {
		s.mtx.RLock()
		ids := slices.Clone(s.order)
		s.mtx.RUnlock()

		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				yield(memory.Record{}, err)
				return
			}

			s.mtx.RLock()
			rec, ok := s.records[id]
			s.mtx.RUnlock()

			// rolled back after a failed flush
			if !ok || !scope.Matches(rec) {
				continue
			}

			if !yield(rec.Clone(), nil) {
				return
			}
		}
	}
}

func (s *fileStorer) Persist(ctx context.Context) error {
	s.mtx.RLock()
	gen := s.generation
	halted := s.halted
	s.mtx.RUnlock()

	if halted != nil {
		return fmt.Errorf("%w: %w", memory.ErrStoreHalted, halted)
	}

	s.persistMtx.Lock()
	defer s.persistMtx.Unlock()

	if err := s.flushLocked(ctx, gen); err != nil {
		s.mtx.Lock()
		if s.halted == nil && !errors.Is(err, memory.ErrStoreHalted) {
			s.halted = err
		}
		s.mtx.Unlock()
		return err
	}

	return nil
}

func (s *fileStorer) Dimension() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.dimension
}

func (s *fileStorer) Close() error {
	err := s.Persist(context.Background())

	s.mtx.Lock()
	s.closed = true
	s.mtx.Unlock()

	return err
}

// writable must be called with mtx held.
func (s *fileStorer) writable() error {
	if s.closed {
		return storer.ErrClosed
	}
	if s.halted != nil {
		return fmt.Errorf("%w: %w", memory.ErrStoreHalted, s.halted)
	}
	return nil
}

// flushLocked makes every write up to gen durable. Concurrent writers share
// one flush when a snapshot taken for an earlier caller already covers them.
// Callers hold persistMtx.
func (s *fileStorer) flushLocked(ctx context.Context, gen uint64) error {
	s.mtx.RLock()
	halted := s.halted
	s.mtx.RUnlock()

	if halted != nil {
		return fmt.Errorf("%w: %w", memory.ErrStoreHalted, halted)
	}

	if s.persisted >= gen {
		return nil
	}

	s.mtx.RLock()
	current := s.generation
	dimension := s.dimension
	records := make([]memory.Record, 0, len(s.order))
	for _, id := range s.order {
		records = append(records, s.records[id])
	}
	s.mtx.RUnlock()

	if err := writeSnapshot(s.path, dimension, records); err != nil {
		slog.ErrorContext(ctx, "failed to flush memory store", "path", s.path, "error", err)
		return err
	}

	s.persisted = current

	return nil
}

// rollback drops a record whose flush failed and halts further writes.
// Callers hold persistMtx so no later snapshot can contain the record.
func (s *fileStorer) rollback(id string, established bool, cause error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	delete(s.records, id)
	if idx := slices.Index(s.order, id); idx >= 0 {
		s.order = slices.Delete(s.order, idx, idx+1)
	}

	if established && len(s.records) == 0 {
		s.dimension = 0
	}

	if s.halted == nil && !errors.Is(cause, memory.ErrStoreHalted) {
		s.halted = cause
	}
}

func writeSnapshot(path string, dimension int, records []memory.Record) error {
	body, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}

	sum := sha256.Sum256(body)

	data, err := json.Marshal(snapshot{
		Version:   formatVersion,
		Dimension: dimension,
		Count:     len(records),
		Checksum:  hex.EncodeToString(sum[:]),
		Records:   body,
	})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename snapshot: %w", err)
	}

	return syncDir(dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("open dir: %w", err)
	}
	defer d.Close()

	if err := d.Sync(); err != nil {
		return fmt.Errorf("sync dir: %w", err)
	}

	return nil
}

func readSnapshot(path string) (int, []memory.Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, fmt.Errorf("read %s: %w", path, err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return 0, nil, fmt.Errorf("%w: decode %s: %w", memory.ErrStoreCorrupted, path, err)
	}

	if snap.Version != formatVersion {
		return 0, nil, fmt.Errorf("%w: unsupported format version %d", memory.ErrStoreCorrupted, snap.Version)
	}

	sum := sha256.Sum256(snap.Records)
	if hex.EncodeToString(sum[:]) != snap.Checksum {
		return 0, nil, fmt.Errorf("%w: checksum mismatch in %s", memory.ErrStoreCorrupted, path)
	}

	var records []memory.Record
	if err := json.Unmarshal(snap.Records, &records); err != nil {
		return 0, nil, fmt.Errorf("%w: decode records: %w", memory.ErrStoreCorrupted, err)
	}

	if len(records) != snap.Count {
		return 0, nil, fmt.Errorf("%w: expected %d records, found %d", memory.ErrStoreCorrupted, snap.Count, len(records))
	}

	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if err := storer.Validate(rec, snap.Dimension); err != nil {
			return 0, nil, fmt.Errorf("%w: %w", memory.ErrStoreCorrupted, err)
		}
		if _, dup := seen[rec.Id]; dup {
			return 0, nil, fmt.Errorf("%w: duplicate record %s", memory.ErrStoreCorrupted, rec.Id)
		}
		seen[rec.Id] = struct{}{}
	}

	if len(records) > 0 && snap.Dimension == 0 {
		return 0, nil, fmt.Errorf("%w: records present without a dimension", memory.ErrStoreCorrupted)
	}

	return snap.Dimension, records, nil
}

// NewStorer opens (or creates) the snapshot at the configured location. A
// directory location holds memories.json. An existing snapshot that fails
// its integrity check is reported as memory.ErrStoreCorrupted and left
// untouched.
func NewStorer(opts ...storer.Option) (storer.Storer, error) {
	options := storer.NewOptions(opts...)

	if len(options.Location) == 0 {
		return nil, fmt.Errorf("%w: file storer requires a location", memory.ErrConfiguration)
	}

	path := options.Location
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, defaultFileName)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create store directory: %w", memory.ErrConfiguration, err)
	}

	dimension, records, err := readSnapshot(path)
	if err != nil {
		slog.ErrorContext(options.Context, "failed to open memory store", "path", path, "error", err)
		return nil, err
	}

	if options.Dimension > 0 && dimension > 0 && options.Dimension != dimension {
		return nil, fmt.Errorf("%w: store at %s has %d dimensions, configured %d", memory.ErrDimensionMismatch, path, dimension, options.Dimension)
	}

	if dimension == 0 {
		dimension = options.Dimension
	}

	s := &fileStorer{
		options:   options,
		path:      path,
		records:   make(map[string]memory.Record, len(records)),
		order:     make([]string, 0, len(records)),
		dimension: dimension,
	}

	for _, rec := range records {
		s.records[rec.Id] = rec
		s.order = append(s.order, rec.Id)
	}

	slog.InfoContext(options.Context, "opened memory store", "path", path, "records", len(records), "dimension", dimension)

	return s, nil
}
