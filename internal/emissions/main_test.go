package emissions_test

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/lmittmann/tint"

	"github.com/climatelabs/carbontracker/internal/emissions"
	"github.com/climatelabs/carbontracker/internal/worldbank"
)

var (
	logger *slog.Logger
)

func TestMain(m *testing.M) {
	flag.Parse()
	verbose := false
	if vFlag := flag.Lookup("test.v"); vFlag != nil && vFlag.Value.String() == "true" {
		verbose = true
	}
	if verbose {
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.RFC3339,
			AddSource:  true,
		}))
	} else {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	os.Exit(m.Run())
}

type mockSource struct {
	GetObservationsFunc func(ctx context.Context, query worldbank.ObservationsQuery) (*worldbank.ObservationsPage, error)
}

func (m *mockSource) GetObservations(ctx context.Context, query worldbank.ObservationsQuery) (*worldbank.ObservationsPage, error) {
	return m.GetObservationsFunc(ctx, query)
}

type mockTableProvider struct {
	GetTableFunc   func(ctx context.Context) (*emissions.Table, error)
	RefreshFunc    func(ctx context.Context) error
	InvalidateFunc func()
}

func (m *mockTableProvider) GetTable(ctx context.Context) (*emissions.Table, error) {
	return m.GetTableFunc(ctx)
}

func (m *mockTableProvider) Refresh(ctx context.Context) error {
	return m.RefreshFunc(ctx)
}

func (m *mockTableProvider) Invalidate() {
	if m.InvalidateFunc != nil {
		m.InvalidateFunc()
	}
}

// obs builds a complete observation with both country code fields set.
func obs(code, name, date string, value float64) worldbank.Observation {
	return worldbank.Observation{
		Country:     worldbank.Ref{ID: code, Value: name},
		CountryISO3: code,
		Date:        date,
		Value:       worldbank.NullFloat{Float64: value, Valid: true},
	}
}
