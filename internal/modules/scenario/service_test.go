package scenario

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(v uint64) *uint64 { return &v }

func testSeries() HistoricalSeries {
	return SeriesFromCloses("ACME", []float64{50, 51, 50.5, 52, 53.5, 53, 54.2, 55})
}

func TestService_Generate(t *testing.T) {
	svc := NewService(ServiceConfig{Workers: 4}, zerolog.Nop())

	run, err := svc.Generate(context.Background(), testSeries(), Options{HorizonDays: 10, PathCount: 200, Seed: seed(17)})
	require.NoError(t, err)

	assert.Equal(t, uint64(17), run.Seed)
	assert.Equal(t, 55.0, run.Report.StartPrice)
	assert.Equal(t, 10, run.Report.HorizonDays)
	assert.Len(t, run.Report.TerminalPrices, 200)
}

func TestService_SameSeedSameReportAcrossWorkerCounts(t *testing.T) {
	a := NewService(ServiceConfig{Workers: 1}, zerolog.Nop())
	b := NewService(ServiceConfig{Workers: 6}, zerolog.Nop())
	opts := Options{HorizonDays: 15, PathCount: 120, Seed: seed(123)}

	runA, err := a.Generate(context.Background(), testSeries(), opts)
	require.NoError(t, err)
	runB, err := b.Generate(context.Background(), testSeries(), opts)
	require.NoError(t, err)

	assert.Equal(t, runA.Report, runB.Report)
}

func TestService_Defaults(t *testing.T) {
	svc := NewService(ServiceConfig{DefaultPaths: 50, DefaultHorizonDays: 3, Seed: 4}, zerolog.Nop())

	run, err := svc.Generate(context.Background(), testSeries(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, run.Report.HorizonDays)
	assert.Equal(t, 50, run.Report.PathCount)
	assert.Equal(t, uint64(4), run.Seed)
}

func TestService_Limits(t *testing.T) {
	svc := NewService(ServiceConfig{MaxPaths: 100, MaxHorizonDays: 30}, zerolog.Nop())

	tests := []struct {
		name string
		opts Options
	}{
		{"too many paths", Options{HorizonDays: 5, PathCount: 101}},
		{"horizon too long", Options{HorizonDays: 31, PathCount: 10}},
		{"negative paths", Options{HorizonDays: 5, PathCount: -1}},
		{"negative horizon", Options{HorizonDays: -5, PathCount: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Generate(context.Background(), testSeries(), tt.opts)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestService_CalibrationErrorsPropagate(t *testing.T) {
	svc := NewService(ServiceConfig{}, zerolog.Nop())

	_, err := svc.Generate(context.Background(), SeriesFromCloses("X", []float64{10}), Options{Seed: seed(1)})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestService_RandomSeedIsReported(t *testing.T) {
	svc := NewService(ServiceConfig{}, zerolog.Nop())

	run, err := svc.Generate(context.Background(), testSeries(), Options{HorizonDays: 2, PathCount: 10})
	require.NoError(t, err)

	replay, err := svc.Generate(context.Background(), testSeries(), Options{HorizonDays: 2, PathCount: 10, Seed: seed(run.Seed)})
	require.NoError(t, err)
	assert.Equal(t, run.Report, replay.Report)
}
