package shipping

// ThresholdCalculator charges a flat rate below a free-shipping
// threshold and nothing at or above it.
type ThresholdCalculator struct {
	// FreeThreshold is the subtotal above which shipping is free.
	// The comparison is strict: a subtotal exactly at the threshold
	// still pays the flat rate.
	FreeThreshold float64

	// FlatRate is the charge applied below the threshold.
	FlatRate float64
}

// NewThresholdCalculator creates a threshold-based shipping calculator.
func NewThresholdCalculator(freeThreshold, flatRate float64) Calculator {
	return &ThresholdCalculator{
		FreeThreshold: freeThreshold,
		FlatRate:      flatRate,
	}
}

// Cost returns the shipping charge for the given subtotal.
func (c *ThresholdCalculator) Cost(subtotal float64) float64 {
	if subtotal > c.FreeThreshold {
		return 0
	}
	return c.FlatRate
}
