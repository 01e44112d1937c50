// Package graph implements the retrieve→analyze workflow: a mutable State
// threaded through two stages, short-circuiting to a terminal status on the
// first error.
package graph

// Metadata keys carried by every Document. Missing values default to
// Unknown, never absent.
const (
	KeyDeclarationNumber = "declaration_number"
	KeyProcessingDate    = "processing_date"
	KeyCustomsOffice     = "customs_office"
	KeyProductCode       = "product_code"
	KeyNetWeight         = "net_weight"
	KeyGrossWeight       = "gross_weight"
	KeyQuantity          = "quantity"
	KeyUnit              = "unit"
	KeyInvoiceValue      = "invoice_value"
	KeyOriginCountry     = "origin_country"
	KeyTradeMark         = "trade_mark"
)

// Unknown is the sentinel for metadata the index did not carry.
const Unknown = "unknown"

// MetadataKeys fixes the rendering order of Document metadata.
var MetadataKeys = []string{
	KeyDeclarationNumber,
	KeyProcessingDate,
	KeyCustomsOffice,
	KeyProductCode,
	KeyNetWeight,
	KeyGrossWeight,
	KeyQuantity,
	KeyUnit,
	KeyInvoiceValue,
	KeyOriginCountry,
	KeyTradeMark,
}

// Query is one retrieval request. Office and Year are optional structured
// filters narrowing the lexical match.
type Query struct {
	Question string
	Office   string
	Year     int
}

// Document is one retrieved record normalized from the index. Documents are
// produced fresh per query and never mutated afterwards.
type Document struct {
	Content  string
	Metadata map[string]string
	Score    float64
}

// Status is the workflow position. Done and Failed are terminal.
type Status int

const (
	StatusStart Status = iota
	StatusRetrieving
	StatusAnalyzing
	StatusDone
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusStart:
		return "start"
	case StatusRetrieving:
		return "retrieving"
	case StatusAnalyzing:
		return "analyzing"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is the unit of work for one question. At completion exactly one of
// Response and Err is set.
type State struct {
	Question  string
	Documents []Document
	Context   string
	Response  string
	Err       error
	Status    Status
}

// fail records the first terminal error. Later errors never overwrite it.
func (s *State) fail(err error) {
	if s.Err == nil {
		s.Err = err
	}
	s.Status = StatusFailed
}
