package collector

import "testing"

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{`2448.9`, 2448.9, true},
		{`"2448.9"`, 2448.9, true},
		{`"2.448,90"`, 2448.9, true},
		{`"98,45"`, 98.45, true},
		{`"1,234.5"`, 1234.5, true},
		{`" 12 "`, 12, true},
		{`1e2`, 100, true},
		{`""`, 0, false},
		{`null`, 0, false},
		{`"abc"`, 0, false},
		{`true`, 0, false},
	}
	for _, tt := range tests {
		got, err := parseNumber([]byte(tt.raw))
		if tt.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tt.raw, err)
			continue
		}
		if !tt.ok {
			if err == nil {
				t.Errorf("%s: expected error, got %v", tt.raw, got)
			}
			continue
		}
		if got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestParseQuote_Errors(t *testing.T) {
	fields := QuoteFields{SilverCode: "GUMUS", GoldCode: "GRA", Field: "Selling"}
	bodies := []string{
		`not json`,
		`{"GRA":{"Selling":1}}`,
		`{"GUMUS":{"Buying":1},"GRA":{"Selling":1}}`,
		`{"GUMUS":"x","GRA":{"Selling":1}}`,
	}
	for _, b := range bodies {
		if _, err := ParseQuote([]byte(b), fields); err == nil {
			t.Errorf("expected error for %s", b)
		}
	}
}

func TestParseQuote_IgnoresOtherKeys(t *testing.T) {
	fields := QuoteFields{SilverCode: "GUMUS", GoldCode: "GRA", Field: "Selling"}
	q, err := ParseQuote([]byte(feedBody), fields)
	if err != nil {
		t.Fatalf("ParseQuote: %v", err)
	}
	if q.Silver != 98.45 || q.Gold != 2448.9 {
		t.Errorf("unexpected quote %+v", q)
	}
}
