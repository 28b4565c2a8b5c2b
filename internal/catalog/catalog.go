// Package catalog holds the static price table for porridge variants and
// add-ons. Prices are in minor currency units and change only with a deploy;
// orders keep the total they were priced at, so edits here never affect
// already placed orders.
package catalog

import (
	"fmt"

	"github.com/kooko-labs/kooko/internal/entity"
)

var basePrices = map[entity.Variant]map[entity.Size]int64{
	entity.VariantPlain:     {entity.SizeSmall: 200, entity.SizeMedium: 300, entity.SizeLarge: 400},
	entity.VariantWithMilk:  {entity.SizeSmall: 250, entity.SizeMedium: 350, entity.SizeLarge: 450},
	entity.VariantWithSugar: {entity.SizeSmall: 250, entity.SizeMedium: 350, entity.SizeLarge: 450},
	entity.VariantSpecial:   {entity.SizeSmall: 300, entity.SizeMedium: 400, entity.SizeLarge: 500},
}

var addOnPrices = map[string]int64{
	"groundnut": 50,
	"milk":      50,
	"sugar":     30,
	"dates":     100,
}

// BasePrice returns the per-unit price for a variant/size pair. Callers are
// expected to validate membership first; an unknown pair is a contract
// violation and yields an error.
func BasePrice(variant entity.Variant, size entity.Size) (int64, error) {
	sizes, ok := basePrices[variant]
	if !ok {
		return 0, fmt.Errorf("unknown variant %q", variant)
	}
	price, ok := sizes[size]
	if !ok {
		return 0, fmt.Errorf("unknown size %q", size)
	}
	return price, nil
}

// AddOnPrice returns the per-unit surcharge for an add-on. Unknown add-ons
// price at zero rather than failing; vendors treat stray identifiers from
// older clients as free extras.
func AddOnPrice(addOn string) int64 {
	return addOnPrices[addOn]
}

// Total prices a full order: (base + sum of add-on surcharges) x quantity.
// Duplicate add-ons are expected to be collapsed by the caller.
func Total(variant entity.Variant, size entity.Size, quantity int, addOns []string) (int64, error) {
	base, err := BasePrice(variant, size)
	if err != nil {
		return 0, err
	}
	perUnit := base
	for _, addOn := range addOns {
		perUnit += AddOnPrice(addOn)
	}
	return perUnit * int64(quantity), nil
}
