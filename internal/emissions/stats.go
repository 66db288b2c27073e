package emissions

import "sort"

// Summary aggregates one year's records for display.
type Summary struct {
	Count int
	Mean  float64

	// HasMean is false when Count is zero; the mean is undefined then and
	// callers should render a placeholder instead of a number.
	HasMean bool
}

func Summarize(records []Record) Summary {
	if len(records) == 0 {
		return Summary{}
	}
	var sum float64
	for _, record := range records {
		sum += record.Value
	}
	return Summary{
		Count:   len(records),
		Mean:    sum / float64(len(records)),
		HasMean: true,
	}
}

// TopN returns the n records with the largest values, descending. Ties keep
// their input order. The input slice is not modified.
func TopN(records []Record, n int) []Record {
	if n <= 0 {
		return []Record{}
	}

	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value > sorted[j].Value
	})

	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}
