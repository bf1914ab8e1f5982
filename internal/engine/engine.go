// Package engine is the external-facing layer over the projection core. It
// resolves drivers, looks up scenarios, runs projections, compares them with
// benchmarks and delegates version persistence to a store.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iwvelando/business-forecast/internal/benchmark"
	"github.com/iwvelando/business-forecast/pkg/drivers"
	"github.com/iwvelando/business-forecast/pkg/projection"
	"github.com/iwvelando/business-forecast/pkg/scenario"
	"github.com/iwvelando/business-forecast/pkg/validation"
	"github.com/iwvelando/business-forecast/pkg/version"
	"go.uber.org/zap"
)

// ScenarioSource supplies the scenario table. It may be backed by I/O.
type ScenarioSource interface {
	Scenarios(ctx context.Context) ([]scenario.Config, error)
}

// StaticScenarios is a ScenarioSource over a fixed slice.
type StaticScenarios []scenario.Config

// Scenarios returns a copy of the slice.
func (s StaticScenarios) Scenarios(ctx context.Context) ([]scenario.Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]scenario.Config(nil), s...), nil
}

// Config wires a Service.
type Config struct {
	Drivers    drivers.CalculationDrivers
	Options    projection.Options
	Scenarios  ScenarioSource
	Store      version.Store
	Benchmarks *benchmark.Table
}

// Service holds no mutable state; every method is safe for concurrent use
// as long as the store and scenario source are.
type Service struct {
	logger     *zap.Logger
	base       drivers.CalculationDrivers
	opts       projection.Options
	scenarios  ScenarioSource
	store      version.Store
	benchmarks *benchmark.Table
}

// Computation is a projection result plus the metadata of how it was made.
type Computation struct {
	Result         *projection.Result         `json:"result"`
	ScenarioKey    string                     `json:"scenarioKey"`
	ScenarioLabel  string                     `json:"scenarioLabel"`
	Drivers        drivers.CalculationDrivers `json:"drivers"`
	Options        projection.Options         `json:"options"`
	BenchmarksUsed int                        `json:"benchmarksUsed"`
	Benchmarks     []benchmark.Comparison     `json:"benchmarks,omitempty"`
}

// SaveRequest names a result to persist.
type SaveRequest struct {
	ScenarioKey string
	Label       string
	Summary     string
	CreatedBy   string
	Result      *projection.Result
	Drivers     drivers.CalculationDrivers
}

// ReplayReport is the outcome of recomputing a stored snapshot.
type ReplayReport struct {
	VersionID   string       `json:"versionId"`
	Matches     bool         `json:"matches"`
	Computation *Computation `json:"computation"`
}

// New constructs a Service. A nil scenario source uses the built-in table and
// a zero Options uses the defaults.
func New(logger *zap.Logger, cfg Config) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Scenarios == nil {
		cfg.Scenarios = StaticScenarios(scenario.DefaultConfigs())
	}
	if cfg.Options == (projection.Options{}) {
		cfg.Options = projection.DefaultOptions()
	}
	return &Service{
		logger:     logger,
		base:       cfg.Drivers.Clone(),
		opts:       cfg.Options,
		scenarios:  cfg.Scenarios,
		store:      cfg.Store,
		benchmarks: cfg.Benchmarks,
	}
}

// BaseDrivers returns a copy of the configured driver set.
func (s *Service) BaseDrivers() drivers.CalculationDrivers {
	return s.base.Clone()
}

// Options returns the projection options.
func (s *Service) Options() projection.Options {
	return s.opts
}

func (s *Service) table(ctx context.Context) (*scenario.Table, error) {
	configs, err := s.scenarios.Scenarios(ctx)
	if err != nil {
		return nil, storeError("loading scenarios", err)
	}
	return scenario.NewTable(configs)
}

// ListScenarios returns the active scenarios ordered by sort order.
func (s *Service) ListScenarios(ctx context.Context) ([]scenario.Config, error) {
	t, err := s.table(ctx)
	if err != nil {
		return nil, err
	}
	return t.Active(), nil
}

// Scenario looks up one active scenario.
func (s *Service) Scenario(ctx context.Context, key string) (scenario.Config, error) {
	t, err := s.table(ctx)
	if err != nil {
		return scenario.Config{}, err
	}
	sc, ok := t.Lookup(key)
	if !ok || !sc.Active {
		return scenario.Config{}, fmt.Errorf("%w: %q", ErrScenarioNotFound, key)
	}
	return sc, nil
}

// ComputeProjection resolves overrides against the base drivers and projects
// the named scenario. Identical inputs always produce identical results.
func (s *Service) ComputeProjection(ctx context.Context, key string, overrides drivers.Overrides) (*Computation, error) {
	return s.ComputeWithDrivers(ctx, key, drivers.Resolve(s.base, overrides))
}

// ComputeWithDrivers projects the named scenario from a fully resolved
// driver set.
func (s *Service) ComputeWithDrivers(ctx context.Context, key string, d drivers.CalculationDrivers) (*Computation, error) {
	return s.compute(ctx, key, d, s.opts)
}

func (s *Service) compute(ctx context.Context, key string, d drivers.CalculationDrivers, opts projection.Options) (*Computation, error) {
	sc, err := s.Scenario(ctx, key)
	if err != nil {
		return nil, err
	}

	result, err := projection.Run(d, sc, opts)
	if err != nil {
		s.logger.Debug("projection rejected",
			zap.String("op", "engine.ComputeProjection"),
			zap.String("scenario", key),
			zap.Error(err),
		)
		return nil, err
	}

	comparisons := s.benchmarks.Compare(result, scenario.Apply(d, sc))
	s.logger.Debug("projection computed",
		zap.String("op", "engine.ComputeProjection"),
		zap.String("scenario", key),
		zap.Int("months", result.HorizonMonths),
		zap.Int("benchmarks", len(comparisons)),
	)

	return &Computation{
		Result:         result,
		ScenarioKey:    sc.ScenarioKey,
		ScenarioLabel:  sc.Label,
		Drivers:        d.Clone(),
		Options:        opts,
		BenchmarksUsed: len(comparisons),
		Benchmarks:     comparisons,
	}, nil
}

// SaveVersion persists a result with the drivers that produced it.
func (s *Service) SaveVersion(ctx context.Context, req SaveRequest) (version.Snapshot, error) {
	if strings.TrimSpace(req.ScenarioKey) == "" {
		return version.Snapshot{}, validation.Invalid("scenarioKey", "cannot be empty")
	}
	if strings.TrimSpace(req.Label) == "" {
		return version.Snapshot{}, validation.Invalid("label", "cannot be empty")
	}
	if req.Result == nil {
		return version.Snapshot{}, validation.Invalid("result", "is required")
	}

	snap, err := s.requireStore().Create(ctx, version.Snapshot{
		ScenarioKey: req.ScenarioKey,
		Label:       req.Label,
		Summary:     req.Summary,
		Payload:     *req.Result,
		Drivers:     req.Drivers.Clone(),
		Options:     s.opts,
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		s.logger.Warn("failed to save version",
			zap.String("op", "engine.SaveVersion"),
			zap.String("scenario", req.ScenarioKey),
			zap.Error(err),
		)
		return version.Snapshot{}, storeError("saving version", err)
	}

	s.logger.Info("saved version",
		zap.String("op", "engine.SaveVersion"),
		zap.String("id", snap.ID),
		zap.String("scenario", snap.ScenarioKey),
		zap.String("label", snap.Label),
	)
	return snap, nil
}

// SaveComputation persists a computation under label.
func (s *Service) SaveComputation(ctx context.Context, c *Computation, label, summary, createdBy string) (version.Snapshot, error) {
	if c == nil {
		return version.Snapshot{}, validation.Invalid("result", "is required")
	}
	return s.SaveVersion(ctx, SaveRequest{
		ScenarioKey: c.ScenarioKey,
		Label:       label,
		Summary:     summary,
		CreatedBy:   createdBy,
		Result:      c.Result,
		Drivers:     c.Drivers,
	})
}

// ListVersions returns stored versions, newest first.
func (s *Service) ListVersions(ctx context.Context) ([]version.Snapshot, error) {
	snapshots, err := s.requireStore().List(ctx)
	if err != nil {
		return nil, storeError("listing versions", err)
	}
	return snapshots, nil
}

// GetVersion returns one stored version.
func (s *Service) GetVersion(ctx context.Context, id string) (version.Snapshot, error) {
	snap, err := s.requireStore().Get(ctx, id)
	if err != nil {
		return version.Snapshot{}, storeError("reading version", err)
	}
	return snap, nil
}

// DeleteVersion removes one stored version.
func (s *Service) DeleteVersion(ctx context.Context, id string) error {
	if err := s.requireStore().Delete(ctx, id); err != nil {
		return storeError("deleting version", err)
	}
	s.logger.Info("deleted version",
		zap.String("op", "engine.DeleteVersion"),
		zap.String("id", id),
	)
	return nil
}

// Replay recomputes a snapshot from its stored drivers, scenario key and
// options and reports whether the payload reproduces byte for byte.
func (s *Service) Replay(ctx context.Context, snap version.Snapshot) (*ReplayReport, error) {
	opts := snap.Options
	if opts == (projection.Options{}) {
		opts = s.opts
	}
	c, err := s.compute(ctx, snap.ScenarioKey, snap.Drivers, opts)
	if err != nil {
		return nil, err
	}

	stored, err := json.Marshal(snap.Payload)
	if err != nil {
		return nil, fmt.Errorf("encoding stored payload: %w", err)
	}
	replayed, err := json.Marshal(c.Result)
	if err != nil {
		return nil, fmt.Errorf("encoding replayed payload: %w", err)
	}

	return &ReplayReport{
		VersionID:   snap.ID,
		Matches:     bytes.Equal(stored, replayed),
		Computation: c,
	}, nil
}

func (s *Service) requireStore() version.Store {
	if s.store == nil {
		return unavailableStore{}
	}
	return s.store
}

// Benchmarks returns the benchmark table in use, which may be nil.
func (s *Service) Benchmarks() *benchmark.Table {
	return s.benchmarks
}
