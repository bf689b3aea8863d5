// Package shipping computes the shipping charge applied at checkout.
package shipping

// Calculator determines the shipping cost for an order.
// Implementations can use flat thresholds, carrier rates, etc.
type Calculator interface {
	// Cost returns the shipping charge in currency units for a cart
	// with the given merchandise subtotal.
	Cost(subtotal float64) float64
}
