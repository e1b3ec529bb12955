package reports

import "testing"

func TestPlanColumns_GroupsFollowIndexOrder(t *testing.T) {
	plan := PlanColumns(IndexCatalog(VariantPriced, sampleCatalog(), nil))

	if len(plan.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(plan.Groups))
	}
	fungicide, herbicide := plan.Groups[0], plan.Groups[1]
	if fungicide.Application != "Fungicide" || fungicide.StartCol != 6 || fungicide.EndCol() != 6 {
		t.Fatalf("unexpected Fungicide group %+v", fungicide)
	}
	if herbicide.Application != "Herbicide" || herbicide.StartCol != 7 || herbicide.EndCol() != 8 {
		t.Fatalf("unexpected Herbicide group %+v", herbicide)
	}
	if plan.ProductCols["F1"] != 6 || plan.ProductCols["H1"] != 7 || plan.ProductCols["H2"] != 8 {
		t.Fatalf("unexpected product columns %v", plan.ProductCols)
	}
	if plan.TransportCol != 9 || plan.LastCol() != 9 {
		t.Fatalf("expected transport at column 9, got %d", plan.TransportCol)
	}
	if plan.ProductCount != 3 {
		t.Fatalf("expected 3 products, got %d", plan.ProductCount)
	}
}

func TestPlanColumns_EmptyCatalog(t *testing.T) {
	plan := PlanColumns(emptyCatalogIndex())
	if len(plan.Groups) != 0 || plan.TransportCol != FixedColumnCount+1 {
		t.Fatalf("expected transport right after fixed columns, got %+v", plan)
	}
	if len(plan.HeaderMerges(7)) != 0 {
		t.Fatalf("expected no merges for an empty catalog")
	}
}

func TestColumnPlan_HeaderMergesOnlyMultiProductGroups(t *testing.T) {
	plan := PlanColumns(IndexCatalog(VariantPriced, sampleCatalog(), nil))
	merges := plan.HeaderMerges(7)
	if len(merges) != 1 {
		t.Fatalf("expected one merge, got %d", len(merges))
	}
	tl, br, err := merges[0].Cells()
	if err != nil {
		t.Fatalf("Cells error: %v", err)
	}
	if tl != "G7" || br != "H7" {
		t.Fatalf("expected G7:H7, got %s:%s", tl, br)
	}
}

func TestColumnPlan_ColumnKey(t *testing.T) {
	plan := PlanColumns(IndexCatalog(VariantPriced, sampleCatalog(), nil))
	cases := map[int]string{
		1:  "sl_no",
		3:  "dealer_name",
		6:  "product:F1",
		8:  "product:H2",
		9:  TransportColumnKey,
		10: "",
	}
	for col, expected := range cases {
		if got := plan.ColumnKey(col); got != expected {
			t.Fatalf("ColumnKey(%d) expected %q, got %q", col, expected, got)
		}
	}
}
