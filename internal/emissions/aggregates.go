package emissions

// aggregateCodes lists the World Bank's regional, income-group and other
// pseudo-country codes. Rows under these codes describe groups of countries
// and would double-count emissions next to the per-country rows.
var aggregateCodes = map[string]struct{}{
	"AFE": {}, "AFW": {}, "ARB": {}, "CEB": {}, "CSS": {}, "EAP": {},
	"EAR": {}, "EAS": {}, "ECA": {}, "ECS": {}, "EMU": {}, "EUU": {},
	"FCS": {}, "HIC": {}, "HPC": {}, "IBD": {}, "IBT": {}, "IDA": {},
	"IDB": {}, "IDX": {}, "INX": {}, "LAC": {}, "LCN": {}, "LDC": {},
	"LIC": {}, "LMC": {}, "LMY": {}, "LTE": {}, "MEA": {}, "MIC": {},
	"MNA": {}, "NAC": {}, "OED": {}, "OSS": {}, "PRE": {}, "PSS": {},
	"PST": {}, "SAS": {}, "SSA": {}, "SSF": {}, "SST": {}, "TEA": {},
	"TEC": {}, "TLA": {}, "TMN": {}, "TSA": {}, "TSS": {}, "UMC": {},
	"WLD": {},
}

// IsAggregateCode reports whether code names a World Bank aggregate rather
// than an individual country.
func IsAggregateCode(code string) bool {
	_, ok := aggregateCodes[code]
	return ok
}
