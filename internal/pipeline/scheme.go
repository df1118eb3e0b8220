package pipeline

import (
	"sort"

	"orderconv/internal"
)

// ResolveScheme applies floor semantics: among slabs with MinQty not
// exceeding the order quantity, the largest MinQty wins and grants its
// fixed reward. An order at 3x a slab's threshold still receives
// exactly that slab's free quantity, never a multiple.
func ResolveScheme(schemes []internal.Scheme, productCode string, qty float64) internal.SchemeResolution {
	var scheme *internal.Scheme
	for i := range schemes {
		if schemes[i].Active && schemes[i].ProductCode == productCode {
			scheme = &schemes[i]
			break
		}
	}
	if scheme == nil || len(scheme.Slabs) == 0 {
		return internal.SchemeResolution{}
	}

	slabs := append([]internal.SchemeSlab{}, scheme.Slabs...)
	sort.Slice(slabs, func(i, j int) bool { return slabs[i].MinQty < slabs[j].MinQty })

	var applied *internal.SchemeSlab
	for i := range slabs {
		if slabs[i].MinQty <= qty {
			applied = &slabs[i]
		}
	}

	if applied == nil {
		// Not applied, but surface the slab list plus the cheapest
		// upsell step so callers can suggest "order N more to qualify".
		next := slabs[0]
		return internal.SchemeResolution{
			AllSlabs: slabs,
			NextSlab: &next,
			ShortBy:  next.MinQty - qty,
		}
	}

	res := internal.SchemeResolution{
		Applied:     true,
		FreeQty:     applied.FreeQty,
		DiscountPct: applied.DiscountPct,
		Slab:        applied,
		AllSlabs:    slabs,
	}
	for i := range slabs {
		if slabs[i].MinQty > qty {
			next := slabs[i]
			res.NextSlab = &next
			res.ShortBy = next.MinQty - qty
			break
		}
	}
	return res
}
