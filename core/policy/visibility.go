package policy

import (
	"wholesale-pricing/core/types"
)

// LoginRequiredMessage replaces prices for guests in a private store
const LoginRequiredMessage = "Please login to see prices"

// Visibility decides what a customer may see and buy
type Visibility struct {
	Settings Settings
}

// CanPurchase reports whether the customer may buy anything
func (v Visibility) CanPurchase(customer types.Customer) bool {
	return !v.Settings.PrivateStore || customer.Authenticated
}

// PricesVisible reports whether prices may be shown to the customer
func (v Visibility) PricesVisible(customer types.Customer) bool {
	return v.CanPurchase(customer)
}

// ProductVisible hides wholesale-only products from everyone but
// wholesale customers
func (v Visibility) ProductVisible(product types.Product, customer types.Customer) bool {
	return !product.WholesaleOnly || customer.IsWholesale()
}

// Filter returns the products visible to the customer, in order
func (v Visibility) Filter(products []types.Product, customer types.Customer) []types.Product {
	out := make([]types.Product, 0, len(products))
	for _, p := range products {
		if v.ProductVisible(p, customer) {
			out = append(out, p)
		}
	}
	return out
}
