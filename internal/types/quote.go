package types

import "time"

// Quote is a top-of-book NBBO snapshot.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	BidPrice  float64   `json:"bid_price"`
	AskPrice  float64   `json:"ask_price"`
	BidSize   float64   `json:"bid_size"`
	AskSize   float64   `json:"ask_size"`
	Exchange  string    `json:"exchange"`
}

// Spread returns ask - bid.
func (q Quote) Spread() float64 {
	return q.AskPrice - q.BidPrice
}

// IsValid reports whether both prices are present and the spread is
// non-negative.
func (q Quote) IsValid() bool {
	return q.BidPrice > 0 && q.AskPrice > 0 && q.Spread() >= 0
}
