package domain

import "testing"

func TestPriceRangeFromMaxBoundaries(t *testing.T) {
	cases := []struct {
		max  float64
		want PriceRange
	}{
		{0, PriceUnknown},
		{100, PriceBudget},
		{101, PriceModerate},
		{500, PriceModerate},
		{501, PriceExpensive},
		{1000, PriceExpensive},
		{1001, PriceLuxury},
	}
	for _, c := range cases {
		if got := PriceRangeFromMax(c.max); got != c.want {
			t.Fatalf("PriceRangeFromMax(%v) = %s, want %s", c.max, got, c.want)
		}
	}
}

func TestCategoryValidRejectsUnknownEnumValue(t *testing.T) {
	if Category("cruise").Valid() {
		t.Fatalf("expected the dropped cruise value to be invalid")
	}
	for _, c := range []Category{CategoryTour, CategoryRestaurant, CategoryHotel, CategoryAttraction, CategoryUnknown} {
		if !c.Valid() {
			t.Fatalf("expected %s to be a valid category", c)
		}
	}
}
