package meter

const (
	WeeksPerMonth = 4
	WeeksPerYear  = 52
)

// Cost projects the spend of one run, assuming one run per week.
type Cost struct {
	Calls      int64
	Currency   string
	PerRequest float64
	Weekly     float64
	Monthly    float64
	Yearly     float64
}

func Estimate(calls int64, perRequest float64, currency string) Cost {
	weekly := float64(calls) * perRequest
	return Cost{
		Calls:      calls,
		Currency:   currency,
		PerRequest: perRequest,
		Weekly:     weekly,
		Monthly:    weekly * WeeksPerMonth,
		Yearly:     weekly * WeeksPerYear,
	}
}
