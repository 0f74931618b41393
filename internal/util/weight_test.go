package util

import "testing"

func TestParseWeight(t *testing.T) {
	cases := map[string]float64{
		"2.5 Kgs":  2.5,
		"0.75":     0.75,
		"500 gms":  500,
		"":         0,
		"standard": 0,
	}
	for input, want := range cases {
		if got := ParseWeight(input); got != want {
			t.Errorf("ParseWeight(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestCleanCourier(t *testing.T) {
	cases := map[string]string{
		"Delhivery Surface 2 Kgs": "Delhivery",
		"Xpressbees Surface":      "Xpressbees",
		"Bluedart 500 gm":         "Bluedart",
		"Ecom Express":            "Ecom Express",
		"":                        "",
	}
	for input, want := range cases {
		if got := CleanCourier(input); got != want {
			t.Errorf("CleanCourier(%q) = %q, want %q", input, got, want)
		}
	}
}
