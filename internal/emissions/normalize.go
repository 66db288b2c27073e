package emissions

import (
	"math"
	"strconv"
	"strings"

	"github.com/climatelabs/carbontracker/internal/worldbank"
)

type NormalizeConfig struct {
	// ExcludeAggregates drops rows whose country code names a World Bank
	// regional or income-group aggregate instead of a country.
	ExcludeAggregates bool
}

// Normalize turns raw observations into table records. Rows with a missing
// value, a blank country code, or an unparseable period label are dropped;
// normalization itself never fails.
func Normalize(observations []worldbank.Observation, cfg NormalizeConfig) []Record {
	records := make([]Record, 0, len(observations))
	for _, obs := range observations {
		if !obs.Value.Valid || math.IsNaN(obs.Value.Float64) || math.IsInf(obs.Value.Float64, 0) {
			continue
		}

		code := strings.TrimSpace(obs.CountryISO3)
		if code == "" {
			code = strings.TrimSpace(obs.Country.ID)
		}
		if code == "" {
			continue
		}
		if cfg.ExcludeAggregates && IsAggregateCode(code) {
			continue
		}

		year, ok := parseYear(obs.Date)
		if !ok {
			continue
		}

		records = append(records, Record{
			CountryCode: code,
			CountryName: obs.Country.Value,
			Year:        year,
			Value:       obs.Value.Float64,
		})
	}
	return records
}

// parseYear coerces a source period label into a calendar year. Labels are
// either plain years ("2019") or prefixed tokens ("YR1990"); anything else,
// such as quarterly labels, is rejected.
func parseYear(date string) (int, bool) {
	s := strings.TrimSpace(date)
	s = strings.TrimLeftFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if s == "" {
		return 0, false
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return year, true
}
