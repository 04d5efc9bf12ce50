package costing

// Budget labels derived from the sign of a variance.
const (
	UnderBudget = "under budget"
	OverBudget  = "over budget"
	OnBudget    = "on budget"
)

// Summary holds the profitability of a job against one breakdown.
type Summary struct {
	Price         float64 `json:"price"`
	TotalCost     float64 `json:"totalCost"`
	Profit        float64 `json:"profit"`
	MarginPercent float64 `json:"marginPercent"`
}

// Profitability computes cost, profit and margin of a job sold at price.
// Margin is 0 whenever price is not positive.
func Profitability(s Stored, price float64) Summary {
	price = finite(price)
	cost := 0.0
	if s != nil {
		cost = finite(s.TotalCost())
	}
	sum := Summary{Price: price, TotalCost: cost, Profit: finite(price - cost)}
	if price > 0 {
		sum.MarginPercent = finite((sum.Profit / price) * 100)
	}
	return sum
}

// Variance compares estimated and actual cost. A positive Amount means the
// job came in under budget.
type Variance struct {
	Amount float64 `json:"amount"`
	Label  string  `json:"label"`
}

// CompareBudget returns estimated minus actual, labelled by its sign.
func CompareBudget(estimated, actual float64) Variance {
	v := Variance{Amount: finite(finite(estimated) - finite(actual))}
	switch {
	case v.Amount > 0:
		v.Label = UnderBudget
	case v.Amount < 0:
		v.Label = OverBudget
	default:
		v.Label = OnBudget
	}
	return v
}

// JobCosting is everything shown about a job's costs. Actual and Variance
// stay nil until an actual breakdown has been recorded; they are never
// filled in from the estimate.
type JobCosting struct {
	Estimated Summary   `json:"estimated"`
	Actual    *Summary  `json:"actual,omitempty"`
	Variance  *Variance `json:"variance,omitempty"`
}

// CostJob computes the costing figures of a job.
func CostJob(price float64, estimated, actual Stored) JobCosting {
	jc := JobCosting{Estimated: Profitability(estimated, price)}
	if actual == nil || actual.Format() == FormatAbsent {
		return jc
	}
	act := Profitability(actual, price)
	v := CompareBudget(jc.Estimated.TotalCost, act.TotalCost)
	jc.Actual = &act
	jc.Variance = &v
	return jc
}
