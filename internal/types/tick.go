package types

import (
	"time"

	apperrors "github.com/rxtech-lab/argo-trading/pkg/errors"
)

// Tick is an input-only trade print; it is never stored directly, only
// folded into derived 1s bars or kept for provenance on the tick sequence.
type Tick struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Size      float64   `json:"size"`
}

// Validate enforces price > 0 and size >= 0.
func (t Tick) Validate() error {
	if t.Price <= 0 {
		return apperrors.Newf(apperrors.ErrCodeValidationInvalidType, "tick for %s at %s has non-positive price %v", t.Symbol, t.Timestamp, t.Price)
	}

	if t.Size < 0 {
		return apperrors.Newf(apperrors.ErrCodeValidationInvalidType, "tick for %s at %s has negative size %v", t.Symbol, t.Timestamp, t.Size)
	}

	return nil
}
