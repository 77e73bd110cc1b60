package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	cerrors "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ppiankov/sieve/internal/kb"
	"github.com/ppiankov/sieve/internal/model"
	"github.com/ppiankov/sieve/internal/predict"
	"github.com/ppiankov/sieve/internal/worker"
)

func newScenario(t *testing.T, opts ...Option) *Service {
	t.Helper()
	ctx := context.Background()
	s := New(kb.NewStore(), opts...)

	require.NoError(t, s.AddProperty(ctx, "color", ""))
	require.NoError(t, s.AddValue(ctx, "color", "red"))
	require.NoError(t, s.AddValue(ctx, "color", "green"))
	require.NoError(t, s.AddProperty(ctx, "size", "numeric"))
	require.NoError(t, s.AddClass(ctx, "A"))
	require.NoError(t, s.AddClass(ctx, "B"))

	require.NoError(t, s.ToggleValues(ctx, model.ToggleValues{
		ClassName: "A", PropName: "color", PropType: "enum",
		Values: []model.ValueToggle{{ValueName: "red", IsActive: "on"}, {ValueName: "green", IsActive: "off"}},
	}))
	require.NoError(t, s.ToggleValues(ctx, model.ToggleValues{
		ClassName: "B", PropName: "color",
		Values: []model.ValueToggle{{ValueName: "red", IsActive: "off"}, {ValueName: "green", IsActive: "on"}},
	}))
	lo, hi := 1.0, 10.0
	require.NoError(t, s.SetRange(ctx, model.RangeUpdate{ClassName: "A", PropName: "size", Min: &lo, Max: &hi}))
	require.NoError(t, s.ToggleValues(ctx, model.ToggleValues{
		ClassName: "B", PropName: "size", PropType: "numeric",
		Values: []model.ValueToggle{{ValueName: "20", IsActive: "on"}, {ValueName: "5", IsActive: "on"}},
	}))
	return s
}

func TestService_ClassifyShapes(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()
	obs := []model.Observation{{Name: "color", Value: model.StringValue("red")}}

	got, err := s.Classify(ctx, obs, model.CapabilityClassify)
	require.NoError(t, err)
	assert.Equal(t, model.Classification{Classes: []string{"A"}}, got)

	got, err = s.Classify(ctx, obs, model.CapabilityTrace)
	require.NoError(t, err)
	id, ok := got.(model.Identification)
	require.True(t, ok)
	assert.Equal(t, []string{"A"}, id.Result)
	assert.Equal(t, []string{"B"}, id.Process[0].EliminatedClasses)

	_, err = s.Classify(ctx, obs, "guess")
	assert.True(t, model.IsValidation(err))
}

func TestService_NumericToggleSetsRange(t *testing.T) {
	s := newScenario(t)

	id, err := s.Identify(context.Background(), []model.Observation{{Name: "size", Value: model.NumberValue(15)}})
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, id.Result)

	r := s.Store().Snapshot().Entry("B", "size").Range
	require.NotNil(t, r)
	assert.Equal(t, model.Range{Min: 5, Max: 20}, *r)
}

func TestService_ToggleValuesValidation(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()

	err := s.ToggleValues(ctx, model.ToggleValues{ClassName: "A", PropName: "color", PropType: "numeric",
		Values: []model.ValueToggle{{ValueName: "red", IsActive: "on"}}})
	assert.True(t, model.IsValidation(err), "type mismatch: %v", err)

	err = s.ToggleValues(ctx, model.ToggleValues{ClassName: "A", PropName: "size",
		Values: []model.ValueToggle{{ValueName: "big", IsActive: "on"}}})
	assert.True(t, model.IsValidation(err), "non-numeric bound: %v", err)

	err = s.ToggleValues(ctx, model.ToggleValues{ClassName: "A", PropName: "color",
		Values: []model.ValueToggle{{ValueName: "green", IsActive: "on"}, {ValueName: "red", IsActive: "maybe"}}})
	assert.True(t, model.IsValidation(err))
	assert.Equal(t, model.StateOff, s.Store().Snapshot().Entry("A", "color").ValueState("green"),
		"a bad toggle must reject the whole request")

	err = s.ToggleValues(ctx, model.ToggleValues{ClassName: "A", PropName: "weight"})
	assert.True(t, cerrors.Is(err, model.ErrNotFound))
}

func TestService_NumericToggleSkipsOffBounds(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()

	require.NoError(t, s.ToggleValues(ctx, model.ToggleValues{ClassName: "A", PropName: "size",
		Values: []model.ValueToggle{{ValueName: "2", IsActive: "on"}, {ValueName: "100", IsActive: "off"}, {ValueName: "8", IsActive: "on"}}}))
	r := s.Store().Snapshot().Entry("A", "size").Range
	require.NotNil(t, r)
	assert.Equal(t, model.Range{Min: 2, Max: 8}, *r)

	err := s.ToggleValues(ctx, model.ToggleValues{ClassName: "A", PropName: "size",
		Values: []model.ValueToggle{{ValueName: "50", IsActive: "off"}}})
	assert.True(t, model.IsValidation(err), "no bound switched on: %v", err)
	assert.Equal(t, model.Range{Min: 2, Max: 8}, *s.Store().Snapshot().Entry("A", "size").Range)
}

func TestService_ToggleValuesCheckedBeforeWriting(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()

	err := s.ToggleValues(ctx, model.ToggleValues{ClassName: "A", PropName: "color",
		Values: []model.ValueToggle{{ValueName: "green", IsActive: "on"}, {ValueName: "purple", IsActive: "on"}}})
	assert.True(t, cerrors.Is(err, model.ErrNotFound), "unregistered value: %v", err)
	assert.Equal(t, model.StateOff, s.Store().Snapshot().Entry("A", "color").ValueState("green"),
		"an unknown label must reject the whole request")

	err = s.ToggleValues(ctx, model.ToggleValues{ClassName: "Z", PropName: "color",
		Values: []model.ValueToggle{{ValueName: "red", IsActive: "on"}}})
	assert.True(t, cerrors.Is(err, model.ErrNotFound), "unknown class: %v", err)
}

func TestService_SetClassProps(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()

	require.NoError(t, s.SetClassProps(ctx, "A", []model.ClassProp{{Name: "color", Val: "on"}, {Name: "size", Val: "off"}}))
	props := s.ClassesWithProps()
	assert.Equal(t, []model.ClassProp{{Name: "color", Val: "on"}, {Name: "size", Val: "off"}}, props[0].Props)

	assert.True(t, model.IsValidation(s.SetClassProps(ctx, "A", []model.ClassProp{{Name: "color", Val: "yes please"}})))

	lo, hi := 0.0, 1.0
	assert.True(t, model.IsValidation(s.SetRange(ctx, model.RangeUpdate{ClassName: "A", PropName: "size", Min: &lo})))
	assert.True(t, model.IsValidation(s.SetRange(ctx, model.RangeUpdate{ClassName: "A", PropName: "size", Min: &hi, Max: &lo})))
}

func TestService_CompletenessReadAfterWrite(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()

	assert.False(t, s.Completeness().IsError)
	require.NoError(t, s.AddClass(ctx, "C"))

	report := s.Completeness()
	assert.True(t, report.IsError)
	assert.Equal(t, []string{"color", "size"}, report.Missing["C"])
}

type fakePredictor struct {
	got  predict.Request
	resp model.Prediction
	err  error
}

func (f *fakePredictor) Name() string { return "fake" }

func (f *fakePredictor) Predict(_ context.Context, req predict.Request) (model.Prediction, error) {
	f.got = req
	return f.resp, f.err
}

func TestService_Predict(t *testing.T) {
	fp := &fakePredictor{resp: model.Prediction{PredictedClass: "B"}}
	s := newScenario(t, WithPredictor(fp))
	ctx := context.Background()
	obs := []model.Observation{{Name: "color", Value: model.StringValue("red")}}

	pred, err := s.Predict(ctx, obs)
	require.NoError(t, err)
	assert.Equal(t, "B", pred.PredictedClass, "the predictor answer is passed through verbatim")
	assert.Equal(t, []string{"A", "B"}, fp.got.Classes)

	_, err = s.Predict(ctx, nil)
	assert.True(t, cerrors.Is(err, model.ErrEmptyInput))

	_, err = s.Predict(ctx, []model.Observation{{Name: "color"}})
	assert.True(t, model.IsValidation(err), "an observation without a value is a local error: %v", err)
	assert.False(t, model.IsRemoteUnavailable(err))

	fp.err = errors.New("connection refused")
	_, err = s.Predict(ctx, obs)
	assert.True(t, model.IsRemoteUnavailable(err))
}

func TestService_PredictDisabledByDefault(t *testing.T) {
	s := New(kb.NewStore())
	_, err := s.Predict(context.Background(), []model.Observation{{Name: "x", Value: model.NumberValue(1)}})
	assert.True(t, model.IsRemoteUnavailable(err))
}

func TestService_IdentifyBatchKeepsOrder(t *testing.T) {
	s := newScenario(t, WithBatchWorkers(3))

	cases := []worker.Case{
		{Line: 1, Observations: []model.Observation{{Name: "color", Value: model.StringValue("red")}}},
		{Line: 2, Observations: []model.Observation{{Name: "size", Value: model.NumberValue(15)}}},
		{Line: 3, Observations: []model.Observation{{Name: "weight", Value: model.NumberValue(1)}}},
		{Line: 4},
	}
	results := s.IdentifyBatch(context.Background(), cases)
	require.Len(t, results, 4)

	assert.Equal(t, []string{"A"}, results[0].Identification.Result)
	assert.Equal(t, []string{"B"}, results[1].Identification.Result)
	assert.True(t, model.IsValidation(results[2].Error))
	assert.True(t, cerrors.Is(results[3].Error, model.ErrEmptyInput))
}

func TestNewFromConfig_PersistsAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	cfg := model.DefaultConfig()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "sieve.db")
	cfg.Predictor.Provider = ""

	rt, err := NewFromConfig(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, rt.AddProperty(ctx, "caliber", "enum"))
	require.NoError(t, rt.AddValue(ctx, "caliber", "9x19"))
	require.NoError(t, rt.AddClass(ctx, "Glock 17"))
	require.NoError(t, rt.ToggleValues(ctx, model.ToggleValues{ClassName: "Glock 17", PropName: "caliber",
		Values: []model.ValueToggle{{ValueName: "9x19", IsActive: "on"}}}))
	require.NoError(t, rt.Close())

	rt, err = NewFromConfig(ctx, cfg)
	require.NoError(t, err)
	defer func() { _ = rt.Close() }()

	assert.Equal(t, []string{"Glock 17"}, rt.ListClasses())
	assert.False(t, rt.Completeness().IsError)
	assert.Equal(t, "disabled", rt.PredictorName())
}

func TestNewFromConfig_BadPredictorFallsBack(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Storage.Path = ""
	cfg.Predictor.Provider = "oracle"

	rt, err := NewFromConfig(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "disabled", rt.PredictorName())
	assert.NoError(t, rt.Close())
}

func TestNewFromConfig_FailedMigrationClosesDatabase(t *testing.T) {
	var migrated *gorm.DB
	runMigrations = func(_ context.Context, db *gorm.DB) error {
		migrated = db
		return errors.New("disk full")
	}
	t.Cleanup(func() { runMigrations = sqliteMigrations })

	cfg := model.DefaultConfig()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "sieve.db")
	cfg.Predictor.Provider = ""

	_, err := NewFromConfig(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run migrations")

	require.NotNil(t, migrated)
	sqlDB, err := migrated.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping(), "the database handle must be closed")
}

