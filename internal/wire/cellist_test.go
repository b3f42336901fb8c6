package wire

import (
	"reflect"
	"testing"
)

func TestCellListRoundTrip(t *testing.T) {
	cases := [][]Change{
		nil,
		{{Row: 0, Col: 0, Owner: 1}},
		{{Row: 2, Col: 2, Owner: 1}, {Row: 5, Col: 5, Owner: 2}, {Row: 19, Col: 19, Owner: 4}},
	}
	for _, changes := range cases {
		formatted := FormatCellList(changes)
		got, err := ParseCellList(formatted)
		if err != nil {
			t.Fatalf("ParseCellList(%q): %v", formatted, err)
		}
		if len(got) == 0 && len(changes) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, changes) {
			t.Errorf("round trip = %+v, want %+v", got, changes)
		}
	}
}

func TestCellListEmptyIsEmptyString(t *testing.T) {
	if got := FormatCellList(nil); got != "" {
		t.Errorf("FormatCellList(nil) = %q, want empty", got)
	}
	got, err := ParseCellList("")
	if err != nil {
		t.Fatalf("ParseCellList(\"\"): %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ParseCellList(\"\") = %+v, want empty", got)
	}
}

func TestCellListRejectsMalformedTriple(t *testing.T) {
	cases := []string{
		"1,2",
		"1,2,3,4",
		"1,2,x",
		"1,2,3;",
		";1,2,3",
		"-1,2,3",
	}
	for _, s := range cases {
		if _, err := ParseCellList(s); err == nil {
			t.Errorf("ParseCellList(%q) succeeded, want error", s)
		}
	}
}
