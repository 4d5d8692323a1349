package supplier

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"
)

var supplierKeywords = []string{
	"expedido por", "emisor", "proveedor", "facturado por",
	"en nombre de", "issued by", "seller",
}

var clientKeywords = []string{
	"cliente", "enviado a", "destinatario", "facturado a",
	"receptor", "bill to", "ship to",
}

var operationalKeywords = []string{
	"transporte", "envío", "expedición", "mensajería",
	"portes", "logística", "shipping",
}

var anchorKeywords = []string{
	"titular", "en nombre de", "iban", "datos bancarios", "datos fiscales",
}

// metadataLabels mark lines that describe the invoice rather than a
// party and are never supplier candidates.
var metadataLabels = []string{
	"factura", "fecha", "nif", "cif", "dni", "iva",
	"total", "base", "importe", "pedido",
}

var reDelegation = regexp.MustCompile(`(?i)en nombre de`)

// Precompiled case-insensitive splitters, one per supplier keyword.
var keywordSplitters = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(supplierKeywords))
	for _, k := range supplierKeywords {
		m[k] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(k))
	}
	return m
}()

const taxProximityWindow = 4

// Resolver picks the issuing company name out of raw invoice text.
// CompanyNames is the caller's own legal names (a supplier can never be
// the caller itself); KnownSuppliers seed the substring-match step.
type Resolver struct {
	companyNames   []string
	knownSuppliers []string
	logger         *slog.Logger
}

func NewResolver(companyNames, knownSuppliers []string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		companyNames:   companyNames,
		knownSuppliers: knownSuppliers,
		logger:         logger,
	}
}

// Resolve returns the supplier name, or "" when no candidate passes
// validity. Strategies run in order of decreasing precision: explicit
// delegation phrase, supplier-keyword lines, bank/fiscal anchors,
// known-supplier substring match, then a scored global search.
func (r *Resolver) Resolve(text string) string {
	lines := nonEmptyLines(text)
	if len(lines) == 0 {
		return ""
	}

	if name := r.fromDelegation(lines, text); name != "" {
		r.logger.Debug("supplier.resolve", "strategy", "delegation", "supplier", name)
		return name
	}
	if name := r.fromKeywordLines(lines, text); name != "" {
		r.logger.Debug("supplier.resolve", "strategy", "keyword", "supplier", name)
		return name
	}
	if name := r.fromAnchors(lines, text); name != "" {
		r.logger.Debug("supplier.resolve", "strategy", "anchor", "supplier", name)
		return name
	}
	if name := r.fromKnownSuppliers(text); name != "" {
		r.logger.Debug("supplier.resolve", "strategy", "known", "supplier", name)
		return name
	}
	if name := r.fromScoredSearch(lines, text); name != "" {
		r.logger.Debug("supplier.resolve", "strategy", "scored", "supplier", name)
		return name
	}
	return ""
}

// ValidateCandidate checks a name that arrived from outside the text
// search (the model's answer). Tax-id proximity is not demanded; the
// shape and exclusion rules still apply.
func (r *Resolver) ValidateCandidate(candidate, text string) bool {
	return r.isValid(candidate, text, false)
}

// fromDelegation handles "en nombre de X": the delegated name does not
// need a nearby tax id, only basic validity.
func (r *Resolver) fromDelegation(lines []string, text string) string {
	for _, line := range lines {
		if !strings.Contains(strings.ToLower(line), "en nombre de") {
			continue
		}
		parts := reDelegation.Split(line, 2)
		if len(parts) < 2 {
			continue
		}
		candidate := strings.Trim(parts[1], " :-")
		if r.isValid(candidate, text, false) {
			return candidate
		}
	}
	return ""
}

func (r *Resolver) fromKeywordLines(lines []string, text string) string {
	for idx, line := range lines {
		lowered := strings.ToLower(line)
		if !containsAny(lowered, supplierKeywords) {
			continue
		}
		for _, keyword := range supplierKeywords {
			if !strings.Contains(lowered, keyword) {
				continue
			}
			parts := keywordSplitters[keyword].Split(line, 2)
			if len(parts) < 2 {
				continue
			}
			candidate := strings.Trim(parts[1], " :-")
			if r.isValid(candidate, text, true) {
				return candidate
			}
		}
		for offset := 1; offset <= 2; offset++ {
			if idx+offset >= len(lines) {
				break
			}
			candidate := strings.TrimSpace(lines[idx+offset])
			if r.isValid(candidate, text, true) {
				return candidate
			}
		}
	}
	return ""
}

func (r *Resolver) fromAnchors(lines []string, text string) string {
	for idx, line := range lines {
		if !containsAny(strings.ToLower(line), anchorKeywords) {
			continue
		}
		if _, after, found := strings.Cut(line, ":"); found {
			candidate := strings.TrimSpace(after)
			if r.isValid(candidate, text, true) {
				return candidate
			}
		}
		for offset := 1; offset <= 2; offset++ {
			if idx+offset >= len(lines) {
				break
			}
			candidate := strings.TrimSpace(lines[idx+offset])
			if r.isValid(candidate, text, true) {
				return candidate
			}
		}
	}
	return ""
}

// fromKnownSuppliers matches previously seen supplier names against the
// text, insensitive to case, diacritics and punctuation.
func (r *Resolver) fromKnownSuppliers(text string) string {
	normalizedText := NormalizeEntityName(text)
	if normalizedText == "" {
		return ""
	}
	for _, name := range r.knownSuppliers {
		cleaned := strings.TrimSpace(name)
		if cleaned == "" {
			continue
		}
		if !strings.Contains(normalizedText, NormalizeEntityName(cleaned)) {
			continue
		}
		if r.isValid(cleaned, text, true) {
			return cleaned
		}
	}
	return ""
}

// scoreRule inspects one line and returns a score delta. Rules are
// independent; a candidate's score is the plain sum.
type scoreRule func(line string, ctx *scoreContext) int

type scoreContext struct {
	headerLines map[string]bool
	lineCounts  map[string]int
}

var scoreRules = []scoreRule{
	func(line string, ctx *scoreContext) int {
		if ctx.headerLines[line] {
			return 15
		}
		return 0
	},
	func(line string, _ *scoreContext) int {
		if HasLegalForm(line) {
			return 80
		}
		return 0
	},
	func(line string, _ *scoreContext) int {
		if HasTaxID(line) {
			return 30
		}
		return 0
	},
	func(line string, ctx *scoreContext) int {
		if ctx.lineCounts[NormalizeEntityName(line)] > 1 {
			return 10
		}
		return 0
	},
	func(line string, _ *scoreContext) int {
		if containsAny(strings.ToLower(line), supplierKeywords) {
			return 25
		}
		return 0
	},
}

func (r *Resolver) fromScoredSearch(lines []string, text string) string {
	ctx := &scoreContext{
		headerLines: map[string]bool{},
		lineCounts:  map[string]int{},
	}
	for i, line := range lines {
		if i < 8 {
			ctx.headerLines[line] = true
		}
		if key := NormalizeEntityName(line); key != "" {
			ctx.lineCounts[key]++
		}
	}

	type scored struct {
		line  string
		score int
	}
	var candidates []scored
	for _, line := range lines {
		lowered := strings.ToLower(line)
		if containsAny(lowered, clientKeywords) {
			continue
		}
		if containsAny(lowered, operationalKeywords) && !HasLegalForm(line) {
			continue
		}
		if looksLikeMetadata(line) {
			continue
		}
		if SameEntity(line, r.companyNames) {
			continue
		}
		if ContainsForbiddenKeyword(line) {
			continue
		}
		total := 0
		for _, rule := range scoreRules {
			total += rule(line, ctx)
		}
		if total > 0 {
			candidates = append(candidates, scored{line: line, score: total})
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	best := candidates[0].line
	if r.isValid(best, text, true) {
		return best
	}
	return ""
}

// isValid is the full validity predicate. requireTaxID demands a tax
// id or IBAN within a few lines of where the candidate appears.
func (r *Resolver) isValid(candidate, text string, requireTaxID bool) bool {
	value := strings.TrimSpace(candidate)
	if value == "" {
		return false
	}
	if LooksLikePerson(value) {
		return false
	}
	if ContainsForbiddenKeyword(value) {
		return false
	}
	if !HasLegalForm(value) {
		return false
	}
	if SameEntity(value, r.companyNames) {
		return false
	}
	if requireTaxID && text != "" && !hasNearbyTaxIDOrIBAN(text, value) {
		return false
	}
	return true
}

// hasNearbyTaxIDOrIBAN locates the candidate in the text and looks for
// a tax id or IBAN within taxProximityWindow lines of it.
func hasNearbyTaxIDOrIBAN(text, candidate string) bool {
	normalized := NormalizeEntityName(candidate)
	if normalized == "" {
		return false
	}
	lines := nonEmptyLines(text)
	for idx, line := range lines {
		if !strings.Contains(NormalizeEntityName(line), normalized) {
			continue
		}
		start := idx - taxProximityWindow
		if start < 0 {
			start = 0
		}
		end := idx + taxProximityWindow + 1
		if end > len(lines) {
			end = len(lines)
		}
		for _, near := range lines[start:end] {
			if HasTaxID(near) || HasIBAN(near) || strings.Contains(strings.ToLower(near), "iban") {
				return true
			}
		}
		return false
	}
	return false
}

func looksLikeMetadata(line string) bool {
	if containsAny(strings.ToLower(line), metadataLabels) {
		return true
	}
	letters, digits := 0, 0
	for _, r := range line {
		switch {
		case isLetter(r):
			letters++
		case r >= '0' && r <= '9':
			digits++
		}
	}
	if letters < 3 {
		return true
	}
	return digits > letters*2
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= 'À' && r <= 'ÿ' && r != '×' && r != '÷')
}

func containsAny(lowered string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(lowered, k) {
			return true
		}
	}
	return false
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
