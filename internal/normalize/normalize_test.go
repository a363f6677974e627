package normalize

import (
	"reflect"
	"testing"
)

func TestCanonicalID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1234", "1234"},
		{"1234.0", "1234"},
		{" 1234.0 ", "1234"},
		{"ABC-99", "ABC-99"},
		{"12.0.0", "12.0"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CanonicalID(tt.in); got != tt.want {
			t.Fatalf("CanonicalID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMergeSumsDuplicateSpellings(t *testing.T) {
	a := ProductRow{ID: "100", Name: "Compressor", Brand: "Atlas", StockCE: 2, StockSC: 1}
	aPrime := ProductRow{ID: "100.0", Name: "Compressor (dup)", StockSP: 4, Reserved: 1}

	merged := Merge([]ProductRow{a, aPrime})
	if len(merged) != 1 {
		t.Fatalf("expected 1 record, got %d", len(merged))
	}

	got := merged[0]
	if got.ID != "100" {
		t.Fatalf("expected canonical id 100, got %q", got.ID)
	}
	if got.StockCE != 2 || got.StockSC != 1 || got.StockSP != 4 {
		t.Fatalf("unexpected branch stocks: %+v", got)
	}
	if got.Total != 7 {
		t.Fatalf("expected total 7, got %d", got.Total)
	}
	if got.Reserved != 1 {
		t.Fatalf("expected reserved 1, got %d", got.Reserved)
	}
	if got.Name != "Compressor" || got.Brand != "Atlas" {
		t.Fatalf("first-seen metadata must win, got %+v", got)
	}
}

func TestMergeIsCommutativeForNumerics(t *testing.T) {
	a := ProductRow{ID: "100", StockCE: 2, StockSC: 1}
	aPrime := ProductRow{ID: "100.0", StockSP: 4}

	forward := Merge([]ProductRow{a, aPrime})
	backward := Merge([]ProductRow{aPrime, a})

	if forward[0].StockCE != backward[0].StockCE ||
		forward[0].StockSC != backward[0].StockSC ||
		forward[0].StockSP != backward[0].StockSP ||
		forward[0].Total != backward[0].Total {
		t.Fatalf("merge result depends on input order: %+v vs %+v", forward[0], backward[0])
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	input := []ProductRow{
		{ID: "100", StockCE: 2},
		{ID: "100.0", StockSP: 4},
		{ID: "200", Name: "Gerador", StockSC: 3},
	}

	once := Merge(input)
	twice := Merge(once)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("normalizing a normalized list must be a no-op:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestMergeDiscardsUntrustedTotal(t *testing.T) {
	merged := Merge([]ProductRow{{ID: "300", StockCE: 1, StockSC: 1, StockSP: 1, Total: 99}})
	if merged[0].Total != 3 {
		t.Fatalf("input total must be discarded, got %d", merged[0].Total)
	}
}

func TestMergeSkipsBlankIDs(t *testing.T) {
	merged := Merge([]ProductRow{{ID: "  "}, {ID: "400", StockCE: 1}})
	if len(merged) != 1 || merged[0].ID != "400" {
		t.Fatalf("blank ids must be dropped, got %+v", merged)
	}
}

func TestDedupeLastWins(t *testing.T) {
	rows := []ProductRow{
		{ID: "500", Name: "old", StockCE: 1},
		{ID: "500.0", Name: "new", StockCE: 9, StockSP: 2},
	}

	out := DedupeLastWins(rows)
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	if out[0].Name != "new" || out[0].StockCE != 9 || out[0].Total != 11 {
		t.Fatalf("last occurrence must win wholesale, got %+v", out[0])
	}
}
