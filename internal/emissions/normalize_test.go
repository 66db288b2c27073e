package emissions_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/climatelabs/carbontracker/internal/emissions"
	"github.com/climatelabs/carbontracker/internal/worldbank"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		observations []worldbank.Observation
		cfg          emissions.NormalizeConfig
		want         []emissions.Record
	}{
		{
			name: "Complete observations survive",
			observations: []worldbank.Observation{
				obs("USA", "United States", "2019", 15.2),
				obs("FRA", "France", "2019", 4.5),
			},
			want: []emissions.Record{
				{CountryCode: "USA", CountryName: "United States", Year: 2019, Value: 15.2},
				{CountryCode: "FRA", CountryName: "France", Year: 2019, Value: 4.5},
			},
		},
		{
			name: "Missing value dropped",
			observations: []worldbank.Observation{
				obs("USA", "United States", "2019", 15.2),
				{
					Country:     worldbank.Ref{ID: "FR", Value: "France"},
					CountryISO3: "FRA",
					Date:        "2019",
				},
			},
			want: []emissions.Record{
				{CountryCode: "USA", CountryName: "United States", Year: 2019, Value: 15.2},
			},
		},
		{
			name: "Blank country code dropped",
			observations: []worldbank.Observation{
				{
					Country: worldbank.Ref{ID: "  ", Value: "Mystery"},
					Date:    "2019",
					Value:   worldbank.NullFloat{Float64: 3.0, Valid: true},
				},
				obs("DEU", "Germany", "2019", 8.1),
			},
			want: []emissions.Record{
				{CountryCode: "DEU", CountryName: "Germany", Year: 2019, Value: 8.1},
			},
		},
		{
			name: "Nested country id used when iso3 field is empty",
			observations: []worldbank.Observation{
				{
					Country: worldbank.Ref{ID: "USA", Value: "United States"},
					Date:    "2019",
					Value:   worldbank.NullFloat{Float64: 15.2, Valid: true},
				},
			},
			want: []emissions.Record{
				{CountryCode: "USA", CountryName: "United States", Year: 2019, Value: 15.2},
			},
		},
		{
			name: "Prefixed period label parsed",
			observations: []worldbank.Observation{
				obs("GBR", "United Kingdom", "YR1990", 9.7),
			},
			want: []emissions.Record{
				{CountryCode: "GBR", CountryName: "United Kingdom", Year: 1990, Value: 9.7},
			},
		},
		{
			name: "Quarterly period label dropped",
			observations: []worldbank.Observation{
				obs("GBR", "United Kingdom", "2010Q3", 9.7),
				obs("GBR", "United Kingdom", "", 9.7),
			},
			want: []emissions.Record{},
		},
		{
			name: "Aggregates kept by default",
			observations: []worldbank.Observation{
				obs("WLD", "World", "2019", 4.4),
				obs("USA", "United States", "2019", 15.2),
			},
			want: []emissions.Record{
				{CountryCode: "WLD", CountryName: "World", Year: 2019, Value: 4.4},
				{CountryCode: "USA", CountryName: "United States", Year: 2019, Value: 15.2},
			},
		},
		{
			name: "Aggregates excluded when configured",
			observations: []worldbank.Observation{
				obs("WLD", "World", "2019", 4.4),
				obs("EUU", "European Union", "2019", 6.1),
				obs("USA", "United States", "2019", 15.2),
			},
			cfg: emissions.NormalizeConfig{ExcludeAggregates: true},
			want: []emissions.Record{
				{CountryCode: "USA", CountryName: "United States", Year: 2019, Value: 15.2},
			},
		},
		{
			name: "Empty country name kept",
			observations: []worldbank.Observation{
				obs("USA", "", "2019", 15.2),
			},
			want: []emissions.Record{
				{CountryCode: "USA", CountryName: "", Year: 2019, Value: 15.2},
			},
		},
		{
			name:         "No observations",
			observations: nil,
			want:         []emissions.Record{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := emissions.Normalize(tt.observations, tt.cfg)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("unexpected records (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalize_RawEnvelopeRows(t *testing.T) {
	t.Parallel()

	// One row is complete, one has a blank country id and one has a null
	// value. Only the complete row should survive.
	raw := `[
		{"country": {"id": "USA", "value": "United States"}, "date": "2019", "value": "15.2"},
		{"country": {"id": "", "value": "?"}, "date": "2019", "value": "3.0"},
		{"country": {"id": "FRA", "value": "France"}, "date": "2019", "value": null}
	]`

	var observations []worldbank.Observation
	require.NoError(t, json.Unmarshal([]byte(raw), &observations))

	got := emissions.Normalize(observations, emissions.NormalizeConfig{})
	want := []emissions.Record{
		{CountryCode: "USA", CountryName: "United States", Year: 2019, Value: 15.2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected records (-want +got):\n%s", diff)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	observations := []worldbank.Observation{
		obs("USA", "United States", "2019", 15.2),
		obs("FRA", "France", "2019", 4.5),
		{Country: worldbank.Ref{ID: "XX", Value: "Nowhere"}, Date: "n/a", Value: worldbank.NullFloat{Float64: 1, Valid: true}},
	}

	first := emissions.Normalize(observations, emissions.NormalizeConfig{})
	second := emissions.Normalize(observations, emissions.NormalizeConfig{})
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("normalize is not idempotent (-first +second):\n%s", diff)
	}
}
