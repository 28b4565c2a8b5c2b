package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kooko-labs/kooko/internal/entity"
)

func TestBasePrice(t *testing.T) {
	cases := []struct {
		variant entity.Variant
		size    entity.Size
		want    int64
	}{
		{entity.VariantPlain, entity.SizeSmall, 200},
		{entity.VariantPlain, entity.SizeMedium, 300},
		{entity.VariantPlain, entity.SizeLarge, 400},
		{entity.VariantWithMilk, entity.SizeSmall, 250},
		{entity.VariantWithMilk, entity.SizeMedium, 350},
		{entity.VariantWithMilk, entity.SizeLarge, 450},
		{entity.VariantWithSugar, entity.SizeSmall, 250},
		{entity.VariantWithSugar, entity.SizeMedium, 350},
		{entity.VariantWithSugar, entity.SizeLarge, 450},
		{entity.VariantSpecial, entity.SizeSmall, 300},
		{entity.VariantSpecial, entity.SizeMedium, 400},
		{entity.VariantSpecial, entity.SizeLarge, 500},
	}

	for _, tc := range cases {
		got, err := BasePrice(tc.variant, tc.size)
		require.NoError(t, err, "%s/%s", tc.variant, tc.size)
		assert.Equal(t, tc.want, got, "%s/%s", tc.variant, tc.size)
	}
}

func TestBasePriceUnknown(t *testing.T) {
	_, err := BasePrice(entity.Variant("gruel"), entity.SizeSmall)
	assert.Error(t, err)

	_, err = BasePrice(entity.VariantPlain, entity.Size("bucket"))
	assert.Error(t, err)
}

func TestTotal(t *testing.T) {
	got, err := Total(entity.VariantPlain, entity.SizeMedium, 2, []string{"sugar"})
	require.NoError(t, err)
	assert.Equal(t, int64(660), got)

	got, err = Total(entity.VariantSpecial, entity.SizeLarge, 1, []string{"groundnut", "dates"})
	require.NoError(t, err)
	assert.Equal(t, int64(650), got)
}

func TestTotalDeterministic(t *testing.T) {
	first, err := Total(entity.VariantWithMilk, entity.SizeSmall, 3, []string{"milk", "dates"})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Total(entity.VariantWithMilk, entity.SizeSmall, 3, []string{"milk", "dates"})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestUnknownAddOnPricesAtZero(t *testing.T) {
	assert.Equal(t, int64(0), AddOnPrice("cinnamon"))

	got, err := Total(entity.VariantSpecial, entity.SizeLarge, 1, []string{"cinnamon"})
	require.NoError(t, err)
	assert.Equal(t, int64(500), got)
}
