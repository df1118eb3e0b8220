package pipeline

// Closed vocabularies used by the decomposer, the customer identifier
// and the matcher. These are data tables: extending a set must never
// require touching matching logic.

// variantTokens distinguish formulations of the same base name and
// strength. Matched as whole tokens, longest first.
var variantTokens = []string{
	"FORTE", "PLUS", "SR", "XR", "ER", "CR", "MR", "LA", "OD", "DS",
	"CV", "LB", "MF", "SF", "DT", "XT", "AX",
}

// dosageFormWords describe packaging, not identity, and are removed
// from base names.
var dosageFormWords = []string{
	"TABLETS", "TABLET", "TABS", "TAB", "CAPSULES", "CAPSULE", "CAPS", "CAP",
	"INJECTION", "INJ", "SYRUP", "SYP", "SUSPENSION", "SUSP", "DROPS", "DROP",
	"GEL", "CREAM", "OINTMENT", "OINT", "LOTION", "SPRAY", "POWDER", "SACHET",
	"RESPULES", "VIAL", "AMPOULE", "AMP", "SOLUTION", "SOLN",
}

// knownStrengths is the closed set of bare-integer values accepted as a
// strength without an explicit unit. Guards against reading catalog
// numbers or pack counts as potency.
var knownStrengths = map[float64]struct{}{
	1: {}, 2: {}, 2.5: {}, 4: {}, 5: {}, 7.5: {}, 8: {}, 10: {}, 12.5: {},
	15: {}, 16: {}, 20: {}, 25: {}, 30: {}, 40: {}, 45: {}, 50: {}, 60: {},
	62.5: {}, 75: {}, 80: {}, 100: {}, 120: {}, 125: {}, 150: {}, 180: {},
	200: {}, 250: {}, 300: {}, 325: {}, 375: {}, 400: {}, 500: {}, 550: {},
	625: {}, 650: {}, 750: {}, 850: {}, 1000: {},
}

// noisePatterns are fragments that carry no product identity: reseller
// or location tags and bracketed pack annotations.
var noiseTokens = []string{
	"QTY", "RATE", "MRP", "AMOUNT", "ORDER", "REQUIRED", "URGENT", "NOS",
}

// businessEntityTerms mark a line as a trading-entity name rather than
// free text.
var businessEntityTerms = []string{
	"PHARMA", "PHARMACY", "PHARMACEUTICALS", "MEDICAL", "MEDICALS",
	"AGENCIES", "AGENCY", "DISTRIBUTORS", "DISTRIBUTOR", "ENTERPRISES",
	"ENTERPRISE", "TRADERS", "TRADING", "DRUG", "DRUGS", "CHEMIST",
	"CHEMISTS", "STORES", "STORE", "HOSPITAL", "CLINIC", "HEALTHCARE",
	"SURGICALS", "LIFECARE", "MEDICO", "MEDICOS", "BROTHERS", "SONS",
}

// addressKeywords flag street-type words for the address-line test.
var addressKeywords = []string{
	"ROAD", "STREET", "LANE", "BUILDING", "FLOOR", "NAGAR", "COMPLEX",
	"PLOT", "BAZAR", "BAZAAR", "COLONY", "MARKET", "CROSS", "MAIN",
}

// addressLabels start an address field line.
var addressLabels = []string{
	"ADDRESS", "ADDR", "CITY", "PIN", "PINCODE", "STATE", "DIST", "DISTRICT",
}

// orderFilenameKeywords terminate the customer-name portion of a
// filename.
var orderFilenameKeywords = []string{
	"ORDER", "ORDERS", "PO", "PURCHASE", "INVOICE", "INV", "REQ", "INDENT",
	"LIST", "SHEET", "COPY", "FINAL", "NEW",
}

// customerLabelPrefixes are explicit labels ahead of a customer name.
var customerLabelPrefixes = []string{
	"M/S", "M/S.", "MS.", "TO", "BILL TO", "CUSTOMER", "PARTY", "BUYER",
	"SOLD TO", "SHIP TO",
}

// supplierBlacklist holds issuer/system strings that must never be
// returned as the ordering customer. Extended at runtime from config.
var supplierBlacklist = []string{
	"ORDER FORM", "PURCHASE ORDER", "TAX INVOICE", "PROFORMA", "ESTIMATE",
	"ORDER CONVERSION", "PRICE LIST", "STOCKIST COPY",
}
