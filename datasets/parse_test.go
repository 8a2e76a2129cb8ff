package datasets

import (
	"errors"
	"testing"

	"github.com/Noofbiz/terraFeed/records"
)

func TestParseStackedChannelOrder(t *testing.T) {
	rec := records.Record{
		"a":   {1, 2, 3, 4},
		"b":   {5, 6, 7, 8},
		"lab": {0, 1, 0, 1},
	}
	parse := ParseStacked([]string{"a", "b"}, []string{"lab"}, 2)

	s, err := parse(rec)
	if err != nil {
		t.Fatalf("failed to parse record: %v", err)
	}
	if s.Features == nil {
		t.Fatal("expected a stacked composite")
	}
	if dims := s.Features.Dims(); len(dims) != 3 || dims[0] != 2 || dims[1] != 2 || dims[2] != 3 {
		t.Fatalf("expected dims [2 2 3], got %v", dims)
	}

	// Channel k of pixel (i, j) carries band k's row-major value.
	checks := []struct {
		i, j, c int
		want    float32
	}{
		{0, 0, 0, 1},
		{0, 0, 1, 5},
		{0, 0, 2, 0},
		{1, 0, 0, 3},
		{1, 1, 1, 8},
		{0, 1, 2, 1},
	}
	for _, c := range checks {
		if got := s.Features.At(c.i, c.j, c.c); got != c.want {
			t.Fatalf("pixel (%d,%d) channel %d: got %v want %v", c.i, c.j, c.c, got, c.want)
		}
	}
}

func TestParseStackedRejectsBadRecords(t *testing.T) {
	parse := ParseStacked([]string{"a"}, []string{"lab"}, 2)
	cases := []struct {
		name string
		rec  records.Record
	}{
		{"missing band", records.Record{"a": {1, 2, 3, 4}}},
		{"short band", records.Record{"a": {1, 2, 3}, "lab": {0, 0, 0, 0}}},
		{"oversized band", records.Record{"a": {1, 2, 3, 4, 5}, "lab": {0, 0, 0, 0}}},
	}
	for _, c := range cases {
		if _, err := parse(c.rec); !errors.Is(err, ErrSchemaMismatch) {
			t.Fatalf("%s: expected a schema mismatch, got %v", c.name, err)
		}
	}
}

func TestParseNamedKeepsBandsSeparate(t *testing.T) {
	rec := records.Record{
		"a":   {1, 2, 3, 4},
		"lab": {0, 1, 1, 0},
	}
	parse := ParseNamed([]string{"a"}, []string{"lab"}, 2)

	s, err := parse(rec)
	if err != nil {
		t.Fatalf("failed to parse record: %v", err)
	}
	if len(s.Order) != 2 || s.Order[0] != "a" || s.Order[1] != "lab" {
		t.Fatalf("expected order [a lab], got %v", s.Order)
	}
	if s.Label != nil {
		t.Fatal("named parsing keeps labels as bands")
	}
	band := s.Named["a"]
	if band == nil {
		t.Fatal("missing band a")
	}
	if dims := band.Dims(); len(dims) != 2 || dims[0] != 2 || dims[1] != 2 {
		t.Fatalf("expected band dims [2 2], got %v", dims)
	}
	if got := band.At(1, 0); got != 3 {
		t.Fatalf("band a at (1,0): got %v want 3", got)
	}
}

func TestParsePixelSplitsClassValue(t *testing.T) {
	rec := records.Record{
		"a":     {0.5},
		"b":     {0.25},
		"extra": {7},
		"lab":   {2.9},
	}
	parse := ParsePixel([]string{"a", "b"}, []string{"lab", "extra"})

	s, err := parse(rec)
	if err != nil {
		t.Fatalf("failed to parse record: %v", err)
	}
	if len(s.Order) != 3 || s.Order[0] != "a" || s.Order[1] != "b" || s.Order[2] != "extra" {
		t.Fatalf("expected order [a b extra], got %v", s.Order)
	}
	if got := s.Named["extra"].At(0); got != 7 {
		t.Fatalf("extra label should stay with the features, got %v", got)
	}
	if s.Label == nil {
		t.Fatal("expected a class value")
	}
	if got := s.Label.At(0); got != 2 {
		t.Fatalf("class value should truncate to an integer, got %v", got)
	}
}

func TestParsePixelRejectsPatchBand(t *testing.T) {
	rec := records.Record{
		"a":   {1, 2, 3, 4},
		"lab": {1},
	}
	parse := ParsePixel([]string{"a"}, []string{"lab"})
	if _, err := parse(rec); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected a schema mismatch, got %v", err)
	}
}

func TestParseLabeledSplitsClassMap(t *testing.T) {
	rec := records.Record{
		"a":   {1, 2, 3, 4},
		"b":   {5, 6, 7, 8},
		"lab": {0, 1.9, 1, 0},
	}
	parse := ParseLabeled([]string{"a", "b"}, []string{"lab"}, 2)

	s, err := parse(rec)
	if err != nil {
		t.Fatalf("failed to parse record: %v", err)
	}
	if len(s.Order) != 2 || s.Order[0] != "a" || s.Order[1] != "b" {
		t.Fatalf("expected order [a b], got %v", s.Order)
	}
	if s.Label == nil {
		t.Fatal("expected a class map")
	}
	if dims := s.Label.Dims(); len(dims) != 2 || dims[0] != 2 || dims[1] != 2 {
		t.Fatalf("expected class map dims [2 2], got %v", dims)
	}
	// The class map stays raw; encoding happens in the tuple step.
	if got := s.Label.At(0, 1); got != 1.9 {
		t.Fatalf("class map at (0,1): got %v want 1.9", got)
	}
	if got := s.Named["b"].At(1, 1); got != 8 {
		t.Fatalf("band b at (1,1): got %v want 8", got)
	}
}
