package money

import (
	"encoding/json"
	"testing"
)

func TestFromFloatRoundsToNearestCent(t *testing.T) {
	cases := []struct {
		in   float64
		want Cents
	}{
		{0, 0},
		{30, 3000},
		{12.5, 1250},
		{0.015, 2},
		{199.99, 19999},
	}
	for _, tc := range cases {
		if got := FromFloat(tc.in); got != tc.want {
			t.Fatalf("FromFloat(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestMarshalEmitsPlainNumber(t *testing.T) {
	data, err := json.Marshal(Cents(3000))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "30" {
		t.Fatalf("expected 30, got %s", data)
	}

	data, err = json.Marshal(Cents(1250))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "12.5" {
		t.Fatalf("expected 12.5, got %s", data)
	}
}

func TestUnmarshalAcceptsNumbersAndStrings(t *testing.T) {
	var c Cents
	if err := json.Unmarshal([]byte("26.5"), &c); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if c != 2650 {
		t.Fatalf("expected 2650, got %d", c)
	}

	if err := json.Unmarshal([]byte(`"17.40"`), &c); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if c != 1740 {
		t.Fatalf("expected 1740, got %d", c)
	}

	if err := json.Unmarshal([]byte(`"not-a-number"`), &c); err == nil {
		t.Fatalf("expected error for garbage input")
	}
}

func TestRoundTripDoesNotLosePrecision(t *testing.T) {
	// Accumulating many small amounts must stay exact in integer cents.
	total := Cents(0)
	for i := 0; i < 1000; i++ {
		total += FromFloat(0.1)
	}
	if total != 10000 {
		t.Fatalf("expected 10000 cents, got %d", total)
	}
}
