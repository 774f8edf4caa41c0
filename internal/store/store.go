// Package store keeps the ordered run collection and persists it, whole,
// under a single key of a key-value backend.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gratten/runlog/internal/db"
	"github.com/gratten/runlog/internal/models"
	"github.com/gratten/runlog/internal/utils"
)

// DefaultKey is the storage key used when none is configured.
const DefaultKey = "runs"

// ErrInvalidRun is returned when a RunInput fails validation.
var ErrInvalidRun = errors.New("store: invalid run")

// Store holds the insertion-ordered run sequence. Every mutation rewrites
// the full sequence to the backend.
type Store struct {
	mu     sync.RWMutex
	kv     db.KV
	key    string
	runs   []models.Run
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithKey sets the storage key; blank keys are ignored.
func WithKey(key string) Option {
	return func(s *Store) {
		if k := strings.TrimSpace(key); k != "" {
			s.key = k
		}
	}
}

// WithLogger sets the logger used for load and write events.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a store over kv and loads whatever is persisted there.
func New(ctx context.Context, kv db.KV, opts ...Option) *Store {
	s := &Store{kv: kv, key: DefaultKey, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.runs = s.Load(ctx)
	return s
}

// Load reads and decodes the persisted sequence without touching the
// in-memory one. Missing or corrupt data yields an empty sequence; failures
// are logged, never returned.
func (s *Store) Load(ctx context.Context) []models.Run {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, db.ErrNotFound) {
		return []models.Run{}
	}
	if err != nil {
		s.logger.Warn("failed to read run log, starting empty", zap.String("key", s.key), zap.Error(err))
		return []models.Run{}
	}

	var runs []models.Run
	if err := json.Unmarshal(raw, &runs); err != nil {
		s.logger.Warn("run log is corrupt, starting empty", zap.String("key", s.key), zap.Error(err))
		return []models.Run{}
	}
	if runs == nil {
		runs = []models.Run{}
	}
	s.logger.Debug("run log loaded", zap.String("key", s.key), zap.Int("runs", len(runs)))
	return runs
}

// SaveAll makes runs the current sequence and overwrites the stored value
// with it. The in-memory sequence is updated even if the write fails.
func (s *Store) SaveAll(ctx context.Context, runs []models.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = clone(runs)
	return s.persist(ctx, s.runs)
}

// persist encodes runs and writes them under the store key. Callers hold mu.
func (s *Store) persist(ctx context.Context, runs []models.Run) error {
	if runs == nil {
		runs = []models.Run{}
	}
	raw, err := json.Marshal(runs)
	if err != nil {
		return fmt.Errorf("failed to encode runs: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, raw); err != nil {
		return fmt.Errorf("failed to save runs: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the current sequence.
func (s *Store) Snapshot() []models.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.runs)
}

// Add appends run and persists the sequence. The in-memory sequence keeps
// the run even if the write fails.
func (s *Store) Add(ctx context.Context, run models.Run) ([]models.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	out := clone(s.runs)
	if err := s.persist(ctx, out); err != nil {
		return out, err
	}
	s.logger.Info("run added", zap.String("id", run.ID), zap.Float64("distance", run.Distance))
	return out, nil
}

// AddAll appends several runs with a single write.
func (s *Store) AddAll(ctx context.Context, runs []models.Run) ([]models.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, runs...)
	out := clone(s.runs)
	if err := s.persist(ctx, out); err != nil {
		return out, err
	}
	s.logger.Info("runs added", zap.Int("count", len(runs)))
	return out, nil
}

// Create validates in, assigns an id and date, and adds the run.
func (s *Store) Create(ctx context.Context, in models.RunInput, now time.Time) (models.Run, []models.Run, error) {
	if err := Validate(in); err != nil {
		return models.Run{}, s.Snapshot(), err
	}
	run := NewRun(in, now)
	runs, err := s.Add(ctx, run)
	return run, runs, err
}

// Remove drops the first run whose id matches and persists the rest. An
// unknown id leaves the sequence unchanged and writes nothing.
func (s *Store) Remove(ctx context.Context, id string) ([]models.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, r := range s.runs {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.logger.Debug("delete of unknown run ignored", zap.String("id", id))
		return clone(s.runs), nil
	}

	s.runs = append(s.runs[:idx:idx], s.runs[idx+1:]...)
	out := clone(s.runs)
	if err := s.persist(ctx, out); err != nil {
		return out, err
	}
	s.logger.Info("run deleted", zap.String("id", id))
	return out, nil
}

// Replace swaps the whole sequence, e.g. when seeding demo data.
func (s *Store) Replace(ctx context.Context, runs []models.Run) ([]models.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = clone(runs)
	out := clone(s.runs)
	if err := s.persist(ctx, out); err != nil {
		return out, err
	}
	s.logger.Info("run log replaced", zap.Int("runs", len(out)))
	return out, nil
}

// NewRun builds a run from caller input with a fresh id, dated now.
func NewRun(in models.RunInput, now time.Time) models.Run {
	return models.Run{
		ID:       NewID(),
		Date:     now,
		Distance: in.Distance,
		Pace:     in.Pace,
		RunType:  in.RunType,
		Surface:  in.Surface,
	}
}

// NewID returns a time-ordered unique run id.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Validate checks the fields a caller must supply.
func Validate(in models.RunInput) error {
	if !(in.Distance > 0) {
		return fmt.Errorf("%w: distance must be a positive number of miles", ErrInvalidRun)
	}
	if !utils.ValidPace(in.Pace) {
		return fmt.Errorf("%w: pace must look like m:ss", ErrInvalidRun)
	}
	if !in.RunType.Valid() {
		return fmt.Errorf("%w: runType must be easy, tempo, or long", ErrInvalidRun)
	}
	if !in.Surface.Valid() {
		return fmt.Errorf("%w: surface must be road or trail", ErrInvalidRun)
	}
	return nil
}

func clone(runs []models.Run) []models.Run {
	out := make([]models.Run, len(runs))
	copy(out, runs)
	return out
}
