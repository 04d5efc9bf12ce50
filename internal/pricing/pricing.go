// Package pricing turns a job's total cost into a suggested selling price.
package pricing

import "math"

// Input holds the cost of a job and the shop's pricing parameters.
type Input struct {
	Cost            float64
	SpoilagePercent float64
	MarkupPercent   float64
	TaxEnabled      bool
	TaxPercent      float64
}

// Breakdown contains the intermediate values of the pricing calculation.
type Breakdown struct {
	Cost     float64 `json:"cost"`
	Spoilage float64 `json:"spoilage"`
	Markup   float64 `json:"markup"`
	Net      float64 `json:"net"`
	Tax      float64 `json:"tax"`
}

// Quote is a suggested price. Price excludes tax, Total includes it, and
// MarginPercent is the margin the job would make if sold at Price.
type Quote struct {
	Breakdown     Breakdown `json:"breakdown"`
	Price         float64   `json:"price"`
	Total         float64   `json:"total"`
	MarginPercent float64   `json:"marginPercent"`
}

// Calculate computes the suggested price for in. Non-finite inputs count as 0.
func Calculate(in Input) Quote {
	cost := finite(in.Cost)
	spoilage := cost * (finite(in.SpoilagePercent) / 100.0)
	markup := (finite(in.MarkupPercent) / 100.0) * (cost + spoilage)
	net := cost + spoilage + markup

	tax := 0.0
	if in.TaxEnabled {
		tax = (finite(in.TaxPercent) / 100.0) * net
	}

	q := Quote{
		Breakdown: Breakdown{
			Cost:     cost,
			Spoilage: spoilage,
			Markup:   markup,
			Net:      net,
			Tax:      tax,
		},
		Price: net,
		Total: net + tax,
	}
	if net > 0 {
		q.MarginPercent = (net - cost) / net * 100.0
	}
	return q
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
