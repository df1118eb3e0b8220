package pipeline

import (
	"testing"

	"orderconv/internal"
)

func textRows(lines ...string) []internal.RawRow {
	rows := make([]internal.RawRow, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, internal.RawRow{Text: l, Source: internal.SourceDelimited})
	}
	return rows
}

func TestIdentifyFromFilename(t *testing.T) {
	ci := NewCustomerIdentifier(nil)
	got := ci.Identify("sunrise_medicals_order_123.pdf", nil)
	if got != "SUNRISE MEDICALS" {
		t.Fatalf("got %q", got)
	}
}

func TestIdentifyUppercaseEntityLine(t *testing.T) {
	ci := NewCustomerIdentifier(nil)
	rows := textRows(
		"SREE BALAJI MEDICALS",
		"41/685, PAJAR STREET, TOWN. 678001",
		"DOLO 650 TAB 10",
	)
	got := ci.Identify("scan001.pdf", rows)
	if got != "SREE BALAJI MEDICALS" {
		t.Fatalf("got %q", got)
	}
}

func TestIdentifyLabeledLine(t *testing.T) {
	ci := NewCustomerIdentifier(nil)
	rows := textRows(
		"Order dated 03/07",
		"M/s. Krishna Pharma",
	)
	got := ci.Identify("scan001.pdf", rows)
	if got != "KRISHNA PHARMA" {
		t.Fatalf("got %q", got)
	}
}

func TestIdentifyBlacklistAndUnknown(t *testing.T) {
	ci := NewCustomerIdentifier([]string{"ACME WHOLESALE"})
	rows := textRows(
		"PURCHASE ORDER",
		"ACME WHOLESALE DISTRIBUTORS",
	)
	got := ci.Identify("scan001.pdf", rows)
	if got != internal.UnknownCustomer {
		t.Fatalf("got %q", got)
	}
}

func TestIsAddressLine(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"41/685, PAJAR STREET, TOWN. 678001", true},
		{"ADDRESS: 12 MAIN ROAD", true},
		{"NEW NO 4 (OLD SHOP 7), GANDHI NAGAR", true},
		{"SREE BALAJI MEDICALS", false},
		{"MAIN ROAD", false},
	}

	for _, tc := range cases {
		if got := isAddressLine(tc.line); got != tc.want {
			t.Fatalf("isAddressLine(%q) = %v", tc.line, got)
		}
	}
}

func TestCleanCustomerName(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"CUSTOMER: SUNRISE MEDICALS", "SUNRISE MEDICALS"},
		{"SUNRISE MEDICALS ORDER NO: 4521", "SUNRISE MEDICALS"},
		{"SUNRISE MEDICALS PH: 9847012345", "SUNRISE MEDICALS"},
		{"SUNRISE MEDICALS,", "SUNRISE MEDICALS"},
	}

	for _, tc := range cases {
		if got := cleanCustomerName(tc.input); got != tc.want {
			t.Fatalf("cleanCustomerName(%q) = %q", tc.input, got)
		}
	}
}
