package emissions

// Record is one normalized observation: a country's per-capita CO2 emissions
// for a single calendar year.
type Record struct {
	CountryCode string  `json:"country_code"`
	CountryName string  `json:"country_name"`
	Year        int     `json:"year"`
	Value       float64 `json:"value"`
}

// Table is an immutable snapshot of normalized records. Tables are shared
// between concurrent readers, so accessors never expose internal state for
// mutation.
type Table struct {
	records []Record
}

func NewTable(records []Record) *Table {
	return &Table{records: records}
}

// Records returns a copy of the full record set in source order.
func (t *Table) Records() []Record {
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

func (t *Table) Len() int {
	return len(t.records)
}

func (t *Table) Empty() bool {
	return len(t.records) == 0
}

// YearBounds returns the smallest and largest year present. ok is false for
// an empty table.
func (t *Table) YearBounds() (minYear, maxYear int, ok bool) {
	if len(t.records) == 0 {
		return 0, 0, false
	}
	minYear, maxYear = t.records[0].Year, t.records[0].Year
	for _, record := range t.records[1:] {
		if record.Year < minYear {
			minYear = record.Year
		}
		if record.Year > maxYear {
			maxYear = record.Year
		}
	}
	return minYear, maxYear, true
}

// YearSlice returns the records for a single year, preserving source order.
// A year with no records yields an empty slice, not an error.
func (t *Table) YearSlice(year int) []Record {
	out := []Record{}
	for _, record := range t.records {
		if record.Year == year {
			out = append(out, record)
		}
	}
	return out
}
