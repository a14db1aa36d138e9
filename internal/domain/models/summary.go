package models

// Summary aggregates the headline dashboard figures over a set of records.
type Summary struct {
	TotalProfit     float64 `json:"totalProfit"`
	TotalInvestment float64 `json:"totalInvestment"`
	TotalLoads      int     `json:"totalLoads"`
	TotalExtraSpend float64 `json:"totalExtraSpend"`
}

// MonthlyPoint is one month of the loads/profit series.
type MonthlyPoint struct {
	Month  string  `json:"month"`
	Loads  int     `json:"loads"`
	Profit float64 `json:"profit"`
}
