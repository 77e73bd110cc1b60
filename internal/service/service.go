// Package service wires the knowledge base, the engines and the predictor
// into the operations exposed by the CLI and the HTTP API.
package service

import (
	"context"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/sieve/internal/engine"
	"github.com/ppiankov/sieve/internal/kb"
	"github.com/ppiankov/sieve/internal/logging"
	"github.com/ppiankov/sieve/internal/metrics"
	"github.com/ppiankov/sieve/internal/model"
	"github.com/ppiankov/sieve/internal/predict"
	"github.com/ppiankov/sieve/internal/worker"
)

// Service is safe for concurrent use. Every read works on one snapshot.
type Service struct {
	store        *kb.Store
	checker      *engine.Checker
	eliminator   *engine.Eliminator
	predictor    predict.Predictor
	batchWorkers int
	logger       *zap.SugaredLogger
}

// Option configures a Service
type Option func(*Service)

// WithPredictor sets the statistical predictor; the default is predict.Disabled
func WithPredictor(p predict.Predictor) Option {
	return func(s *Service) { s.predictor = p }
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Service) { s.logger = l }
}

// WithBatchWorkers sets the pool size used by IdentifyBatch
func WithBatchWorkers(n int) Option {
	return func(s *Service) { s.batchWorkers = n }
}

// New creates a service over store
func New(store *kb.Store, opts ...Option) *Service {
	s := &Service{
		store:        store,
		checker:      engine.NewChecker(),
		eliminator:   engine.NewEliminator(),
		predictor:    predict.Disabled{},
		batchWorkers: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.ComponentLogger("service")
	}
	return s
}

// Store returns the underlying knowledge base
func (s *Service) Store() *kb.Store {
	return s.store
}

// PredictorName reports which predictor backs Predict
func (s *Service) PredictorName() string {
	return s.predictor.Name()
}

func (s *Service) record(ctx context.Context, op string, err error) error {
	status := "ok"
	if err != nil {
		status = "rejected"
		logging.LoggerFromContext(ctx, s.logger).Debugw("knowledge base write rejected", "op", op, "error", err)
	}
	metrics.Mutations.WithLabelValues(op, status).Inc()
	return err
}

func (s *Service) ListClasses() []string {
	return s.store.Snapshot().ClassNames()
}

func (s *Service) AddClass(ctx context.Context, name string) error {
	return s.record(ctx, "add_class", s.store.AddClass(ctx, name))
}

func (s *Service) DeleteClass(ctx context.Context, name string) error {
	return s.record(ctx, "delete_class", s.store.DeleteClass(ctx, name))
}

func (s *Service) ListProperties() []string {
	return s.store.Snapshot().PropertyNames()
}

// AddProperty registers a property; an empty type means enum
func (s *Service) AddProperty(ctx context.Context, name, typ string) error {
	kind, err := model.ParsePropertyKind(typ)
	if err != nil {
		return s.record(ctx, "add_property", err)
	}
	return s.record(ctx, "add_property", s.store.AddProperty(ctx, name, kind))
}

func (s *Service) DeleteProperty(ctx context.Context, name string) error {
	return s.record(ctx, "delete_property", s.store.DeleteProperty(ctx, name))
}

func (s *Service) PropertiesWithValues() []model.Property {
	return s.store.Snapshot().PropertiesWithValues()
}

func (s *Service) AddValue(ctx context.Context, prop, label string) error {
	return s.record(ctx, "add_value", s.store.AddValue(ctx, prop, label))
}

func (s *Service) DeleteValue(ctx context.Context, prop, label string) error {
	return s.record(ctx, "delete_value", s.store.DeleteValue(ctx, prop, label))
}

func (s *Service) ClassesWithProps() []model.ClassWithProps {
	return s.store.Snapshot().ClassesWithProps()
}

// SetClassProps applies a batch of property-level toggles to one class.
// Every toggle is parsed before the first write.
func (s *Service) SetClassProps(ctx context.Context, class string, updates []model.ClassProp) error {
	states := make([]model.State, len(updates))
	for i, u := range updates {
		st, err := model.ParseState(u.Val)
		if err != nil {
			return s.record(ctx, "set_class_props", err)
		}
		states[i] = st
	}
	for i, u := range updates {
		if err := s.store.SetPropertyActivation(ctx, class, u.Name, states[i]); err != nil {
			return s.record(ctx, "set_class_props", err)
		}
	}
	return s.record(ctx, "set_class_props", nil)
}

func (s *Service) ClassesWithValues() []model.ClassWithPropValues {
	return s.store.Snapshot().ClassesWithValues()
}

// ToggleValues switches enum values one by one. For a numeric property the
// value names are parsed as numbers and their min and max become the range.
func (s *Service) ToggleValues(ctx context.Context, req model.ToggleValues) error {
	snap := s.store.Snapshot()
	prop, ok := snap.Property(req.PropName)
	if !ok {
		return s.record(ctx, "toggle_values", model.UnknownProperty(req.PropName))
	}
	if !snap.HasClass(req.ClassName) {
		return s.record(ctx, "toggle_values", model.NewNotFoundError("class", req.ClassName))
	}
	if req.PropType != "" {
		kind, err := model.ParsePropertyKind(req.PropType)
		if err != nil {
			return s.record(ctx, "toggle_values", err)
		}
		if kind != prop.Kind {
			return s.record(ctx, "toggle_values",
				model.NewValidationError("propType", "property %q is %s, not %s", prop.Name, prop.Kind, kind))
		}
	}
	if len(req.Values) == 0 {
		return s.record(ctx, "toggle_values", model.NewValidationError("values", "at least one value is required"))
	}

	if prop.Kind == model.KindNumeric {
		return s.record(ctx, "toggle_values", s.setRangeFromValues(ctx, req))
	}

	states := make([]model.State, len(req.Values))
	for i, v := range req.Values {
		st, err := model.ParseState(v.IsActive)
		if err != nil {
			return s.record(ctx, "toggle_values", err)
		}
		if !prop.HasValue(v.ValueName) {
			return s.record(ctx, "toggle_values", model.NewNotFoundError("value", v.ValueName))
		}
		states[i] = st
	}
	for i, v := range req.Values {
		if err := s.store.SetValueActivation(ctx, req.ClassName, req.PropName, v.ValueName, states[i]); err != nil {
			return s.record(ctx, "toggle_values", err)
		}
	}
	return s.record(ctx, "toggle_values", nil)
}

func (s *Service) setRangeFromValues(ctx context.Context, req model.ToggleValues) error {
	bounds := make([]float64, 0, len(req.Values))
	for _, v := range req.Values {
		st, err := model.ParseState(v.IsActive)
		if err != nil {
			return err
		}
		if st != model.StateOn {
			continue
		}
		f, err := strconv.ParseFloat(v.ValueName, 64)
		if err != nil {
			return model.NewValidationError("values", "range bound %q is not a number", v.ValueName)
		}
		bounds = append(bounds, f)
	}
	if len(bounds) == 0 {
		return model.NewValidationError("values", "a numeric range needs at least one bound switched on")
	}
	sort.Float64s(bounds)
	return s.store.SetPropertyRange(ctx, req.ClassName, req.PropName, bounds[0], bounds[len(bounds)-1])
}

// SetRange replaces a numeric range; both bounds are required
func (s *Service) SetRange(ctx context.Context, req model.RangeUpdate) error {
	if req.Min == nil || req.Max == nil {
		return s.record(ctx, "set_range", model.NewValidationError("range", "both min and max are required"))
	}
	return s.record(ctx, "set_range", s.store.SetPropertyRange(ctx, req.ClassName, req.PropName, *req.Min, *req.Max))
}

// Completeness checks the current knowledge base
func (s *Service) Completeness() model.Completeness {
	report := s.checker.Check(s.store.Snapshot())
	metrics.MissingPairs.Set(float64(engine.MissingCount(report)))
	return report
}

// Identify runs the elimination protocol on the current snapshot
func (s *Service) Identify(ctx context.Context, observations []model.Observation) (model.Identification, error) {
	return s.identify(ctx, observations, model.CapabilityTrace)
}

// Classify runs Identify and shapes the answer by capability:
// model.Classification for classify, model.Identification for trace.
func (s *Service) Classify(ctx context.Context, observations []model.Observation, capability model.Capability) (interface{}, error) {
	switch capability {
	case model.CapabilityClassify, model.CapabilityTrace:
	default:
		return nil, model.NewValidationError("capability", "unknown capability %q", capability)
	}

	id, err := s.identify(ctx, observations, capability)
	if err != nil {
		return nil, err
	}
	if capability == model.CapabilityClassify {
		return id.Classification(), nil
	}
	return id, nil
}

func (s *Service) identify(ctx context.Context, observations []model.Observation, capability model.Capability) (model.Identification, error) {
	start := time.Now()
	snap := s.store.Snapshot()

	id, err := s.eliminator.Identify(snap, observations)
	if err != nil {
		metrics.IdentifyTotal.WithLabelValues(string(capability), "invalid").Inc()
		return model.Identification{}, err
	}

	metrics.IdentifyTotal.WithLabelValues(string(capability), "ok").Inc()
	metrics.IdentifyDuration.Observe(time.Since(start).Seconds())
	metrics.CandidatesRemaining.Observe(float64(len(id.Result)))
	for _, step := range id.Process {
		metrics.EliminationsPerStep.Observe(float64(len(step.EliminatedClasses)))
	}

	logging.LoggerFromContext(ctx, s.logger).Debugw("identified",
		"revision", snap.Revision(),
		"observations", len(observations),
		"survivors", len(id.Result))
	return id, nil
}

// Predict asks the statistical predictor. It never consults the elimination engine.
func (s *Service) Predict(ctx context.Context, observations []model.Observation) (model.Prediction, error) {
	name := s.predictor.Name()
	if len(observations) == 0 {
		metrics.PredictionsTotal.WithLabelValues(name, "invalid").Inc()
		return model.Prediction{}, model.ErrEmptyInput
	}
	for _, o := range observations {
		if !o.Value.IsSet() {
			metrics.PredictionsTotal.WithLabelValues(name, "invalid").Inc()
			return model.Prediction{}, &model.InvalidValueError{Property: o.Name, Reason: "a value is required"}
		}
	}

	start := time.Now()
	pred, err := s.predictor.Predict(ctx, predict.Request{
		Observations: observations,
		Classes:      s.store.Snapshot().ClassNames(),
	})
	metrics.PredictDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.PredictionsTotal.WithLabelValues(name, "unavailable").Inc()
		logging.LoggerFromContext(ctx, s.logger).Warnw("prediction failed", "provider", name, "error", err)
		if !model.IsRemoteUnavailable(err) {
			err = model.NewRemoteUnavailableError(err, "predictor")
		}
		return model.Prediction{}, err
	}

	metrics.PredictionsTotal.WithLabelValues(name, "ok").Inc()
	return pred, nil
}

// IdentifyBatch identifies many cases on a worker pool; results keep input order
func (s *Service) IdentifyBatch(ctx context.Context, cases []worker.Case) []*worker.IdentifyResult {
	return worker.NewBatchProcessor(s, s.batchWorkers).ProcessCases(ctx, cases)
}

// IdentifyFile reads cases from path and identifies them
func (s *Service) IdentifyFile(ctx context.Context, path string) ([]*worker.IdentifyResult, error) {
	return worker.NewBatchProcessor(s, s.batchWorkers).ProcessFile(ctx, path)
}
