package reports

import (
	"math"
	"testing"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestWidthFor_TableEntriesGetOffset(t *testing.T) {
	cases := []struct {
		variant  ReportVariant
		letter   string
		expected float64
	}{
		{VariantPriced, "A", 5.57 + columnWidthOffset},
		{VariantPriced, "C", 27.43 + columnWidthOffset},
		{VariantPriced, "F", 9.71 + columnWidthOffset},
		{VariantPriced, "CV", 9.71 + columnWidthOffset},
		{VariantPriceFree, "E", 22.14 + columnWidthOffset},
		{VariantPriceFree, "Z", 7.29 + columnWidthOffset},
	}
	for _, tc := range cases {
		got := WidthFor(WidthTableFor(tc.variant), tc.letter, "", "", nil)
		if !approxEqual(got, tc.expected) {
			t.Fatalf("%s %s: expected %.4f, got %.4f", tc.variant, tc.letter, tc.expected, got)
		}
	}
}

func TestWidthFor_TransportOutsideTable(t *testing.T) {
	got := WidthFor(WidthTableFor(VariantPriceFree), "AA", TransportColumnKey, TransportHeader, []interface{}{"a very long transport company name indeed"})
	if !approxEqual(got, transportWidth+columnWidthOffset) {
		t.Fatalf("expected fixed transport width, got %.4f", got)
	}
}

func TestWidthFor_ContentDrivenIsClamped(t *testing.T) {
	table := WidthTableFor(VariantPriceFree)

	short := WidthFor(table, "AB", "product:X", "", []interface{}{"a", 1})
	if !approxEqual(short, minColumnWidth) {
		t.Fatalf("expected min width, got %.4f", short)
	}

	long := WidthFor(table, "AB", "product:X", "", []interface{}{"this value is much longer than thirty characters"})
	if !approxEqual(long, maxColumnWidth) {
		t.Fatalf("expected max width, got %.4f", long)
	}

	mid := WidthFor(table, "AB", "product:X", "Header", []interface{}{"  twelve chars  ", nil, ""})
	if !approxEqual(mid, 12+contentPadding) {
		t.Fatalf("expected trimmed content width, got %.4f", mid)
	}
}

func TestShouldWrap(t *testing.T) {
	long := "Different Transport Providers"
	cases := []struct {
		col      int
		value    interface{}
		expected bool
	}{
		{5, long, false},
		{6, long, true},
		{6, "short", false},
		{7, "exactly twenty chars", false},
		{7, "   padded but short       ", false},
		{8, 123456789012345678, false},
	}
	for _, tc := range cases {
		if got := ShouldWrap(tc.col, tc.value); got != tc.expected {
			t.Fatalf("ShouldWrap(%d, %v) expected %v, got %v", tc.col, tc.value, tc.expected, got)
		}
	}
}
