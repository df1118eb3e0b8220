package pipeline

import (
	"math"

	"orderconv/internal"
	"orderconv/internal/util"
)

// ResolvePackSize picks a usable pack size: the document's own text
// first, then the catalog's stored value, then the catalog display
// name, then 1. A stored value below 1 is an inverse ratio and is
// converted to its rounded reciprocal.
func ResolvePackSize(desc string, product *internal.ProductEntry) float64 {
	if v := util.ParsePackSize(desc); v > 0 {
		return v
	}
	if product != nil {
		if v := product.PackSize; v > 0 {
			if v < 1 {
				return math.Round(1 / v)
			}
			return v
		}
		if v := util.ParsePackSize(product.DisplayName); v > 0 {
			return v
		}
	}
	return 1
}

// BoxPack is the number of packs needed for an order quantity.
func BoxPack(qty, packSize float64) float64 {
	if packSize <= 0 {
		packSize = 1
	}
	return math.Ceil(qty / packSize)
}
