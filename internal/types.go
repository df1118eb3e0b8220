package internal

type SourceFormat string

const (
	SourcePDF       SourceFormat = "pdf"
	SourceXLSX      SourceFormat = "xlsx"
	SourceDelimited SourceFormat = "delimited"
	SourceHTMLTable SourceFormat = "html_table"
)

// RawRow is one reconstructed logical row of a document. For tabular
// sources Cells carries the original column split; for positioned and
// delimited sources only Text is meaningful.
type RawRow struct {
	Text     string
	Cells    []string
	X        float64
	Y        float64
	FontSize float64
	Source   SourceFormat
}

// LineCandidate is a plausible product row. Qty is always > 0 by the
// time a candidate reaches the matcher; rows failing that check are
// reported as RowIssue instead.
type LineCandidate struct {
	RowNo       int
	Description string
	Qty         float64
	// FreeQty is the free quantity the document itself declares, when
	// the sheet carries a free/scheme column. Nil otherwise.
	FreeQty *float64
	RawText string
}

type ProductIdentity struct {
	BaseName string
	Strength *string
	Variant  *string
}

type ProductEntry struct {
	Code        string
	DisplayName string
	BaseName    string
	Strength    *string
	Variant     *string
	Division    string
	PackSize    float64
	BoxPackSize float64
}

type CustomerEntry struct {
	Code        string
	DisplayName string
	TaxID       *string
	LicenseIDs  []string
}

// UnknownCustomer is the sentinel returned when no heuristic produced
// an acceptable customer name.
const UnknownCustomer = "UNKNOWN"

type MatchStrategy string

const (
	StrategyExact        MatchStrategy = "EXACT"
	StrategyCanonical    MatchStrategy = "CANONICAL"
	StrategyBaseStrength MatchStrategy = "BASE_STRENGTH"
	StrategyFuzzy        MatchStrategy = "FUZZY"
	StrategyContainment  MatchStrategy = "CONTAINMENT"
	StrategyKeyword      MatchStrategy = "KEYWORD"
	StrategyNone         MatchStrategy = "NONE"
)

// MatchTrace records one scoring decision so a caller can see why a
// candidate was picked or dropped. Scores are only comparable within a
// single matching pass.
type MatchTrace struct {
	Stage     string  `json:"stage"`
	Candidate string  `json:"candidate"`
	Score     float64 `json:"score"`
	Decision  string  `json:"decision"`
}

type MatchResult struct {
	Product  *ProductEntry `json:"product"`
	Score    float64       `json:"score"`
	Strategy MatchStrategy `json:"strategy"`
	Trace    []MatchTrace  `json:"trace,omitempty"`
}

type SchemeSlab struct {
	MinQty      float64 `json:"minQty"`
	FreeQty     float64 `json:"freeQty"`
	DiscountPct float64 `json:"discountPct"`
}

type Scheme struct {
	ProductCode string       `json:"productCode"`
	Active      bool         `json:"active"`
	Slabs       []SchemeSlab `json:"slabs"`
}

// SchemeResolution reports the slab applied for an order quantity. When
// no slab qualifies, NextSlab and ShortBy describe the smallest upsell
// step that would.
type SchemeResolution struct {
	Applied     bool
	FreeQty     float64
	DiscountPct float64
	Slab        *SchemeSlab
	AllSlabs    []SchemeSlab
	NextSlab    *SchemeSlab
	ShortBy     float64
}

// RowIssue describes a per-row data-quality problem with enough detail
// for manual correction. Issues never abort the document.
type RowIssue struct {
	RowNo   int    `json:"rowNo"`
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type FailedItem struct {
	RowNo       int    `json:"rowNo"`
	Description string `json:"description"`
	Reason      string `json:"reason"`
}

type OrderLineItem struct {
	RowNo         int
	RawText       string
	Description   string
	ProductCode   string
	ProductName   string
	Division      string
	Qty           float64
	PackSize      float64
	BoxPack       float64
	FreeQty       float64
	DiscountPct   float64
	SchemeApplied bool
	Confidence    float64
	Strategy      MatchStrategy
}

type ConversionResult struct {
	CustomerName string
	CustomerCode *string
	Items        []OrderLineItem
	Errors       []RowIssue
	Warnings     []RowIssue
	Failed       []FailedItem
}

// ExportRow is one flattened output line for the distributable
// workbook: converted items and failed rows share the shape.
type ExportRow struct {
	RowNo         int
	Filename      string
	CustomerName  string
	RawText       string
	Description   string
	ProductCode   string
	ProductName   string
	Division      string
	Qty           float64
	PackSize      float64
	BoxPack       float64
	FreeQty       float64
	DiscountPct   float64
	SchemeApplied bool
	Confidence    float64
	Strategy      string
	Status        string
	Reason        string
}

// OrderDocRow is a persisted order document (mail attachment or direct
// upload) tracked through fetched -> processed -> exported.
type OrderDocRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Filename   string
	Hash       string
	Status     string
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}
