package util

import "testing"

func TestNormalizeName(t *testing.T) {
	got := NormalizeName(`Dolo-650 "Tablets", 15's`)
	if got != "DOLO-650 TABLETS 15 S" {
		t.Fatalf("got %q", got)
	}
}

func TestDiceCoefficient(t *testing.T) {
	if DiceCoefficient("DOLO", "DOLO") != 1 {
		t.Fatal("identical strings must score 1")
	}
	if DiceCoefficient("DOLO", "") != 0 {
		t.Fatal("empty string must score 0")
	}
	high := DiceCoefficient("SUNRISE MEDICALS", "SUNRISE MEDICAL")
	low := DiceCoefficient("SUNRISE MEDICALS", "KRISHNA AGENCIES")
	if high <= low {
		t.Fatalf("high=%v low=%v", high, low)
	}
}

func TestLevenshteinSimilarity(t *testing.T) {
	if LevenshteinSimilarity("DOLO", "DOLO") != 1 {
		t.Fatal("identical strings must score 1")
	}
	got := LevenshteinSimilarity("DOLO", "DOLA")
	if got != 0.75 {
		t.Fatalf("got %v", got)
	}
}
