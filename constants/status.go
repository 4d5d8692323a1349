package constants

// AnalysisStatus is the terminal status of one invoice analysis.
type AnalysisStatus string

// Stable values (serialized as-is in the result payload).
const (
	StatusOK             AnalysisStatus = "ok"               // consistent result produced
	StatusPartial        AnalysisStatus = "partial"          // no consistent monetary triple; amounts nulled
	StatusLowQualityScan AnalysisStatus = "low_quality_scan" // acquisition too poor, model call skipped
)

// ExtractionSource names the candidate that won reconciliation.
type ExtractionSource string

const (
	SourceLLM             ExtractionSource = "llm"
	SourceRegexTaxSummary ExtractionSource = "regex_tax_summary"
	SourceKeywordFallback ExtractionSource = "keyword_fallback"
	SourceFallback        ExtractionSource = "fallback"
)

// ConfidenceFor maps the winning source to the heuristic confidence score.
func ConfidenceFor(src ExtractionSource) float64 {
	switch src {
	case SourceRegexTaxSummary:
		return 0.98
	case SourceLLM:
		return 0.85
	case SourceKeywordFallback:
		return 0.75
	default:
		return 0.60
	}
}
