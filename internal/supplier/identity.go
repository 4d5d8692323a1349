package supplier

import (
	"regexp"
	"strings"
)

var (
	reNonAlnum   = regexp.MustCompile(`[^a-z0-9]`)
	reNonWord    = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	reCompact    = regexp.MustCompile(`[\s.]`)
	reAlphaToken = regexp.MustCompile(`^\p{L}+$`)

	// Spanish tax identifiers plus intra-community VAT numbers.
	taxIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b[A-HJ-NP-SUVW]\s?-?\d{7}\s?-?[0-9A-J]\b`),
		regexp.MustCompile(`(?i)\b\d{8}\s?-?[A-Z]\b`),
		regexp.MustCompile(`(?i)\b[A-Z]{2}\s?-?\d{6,12}\b`),
	}
	ibanPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bES\d{22}\b`),
		regexp.MustCompile(`(?i)\b[A-Z]{2}\d{2}[A-Z0-9]{11,30}\b`),
	}
)

var legalFormTokens = []string{
	"SLU", "SL", "SLL", "SAU", "SA", "SLP", "SCP", "SC",
	"SCOOP", "COOP", "COOPERATIVA", "AIE", "UTE", "CB",
	"LTD", "LIMITED", "INC", "GMBH", "SARL", "BV", "NV", "SAS", "SRL",
}

// Courier and sales-agent words that disqualify a candidate outright.
var forbiddenKeywords = []string{
	"vendedor", "comercial", "agente", "transporte", "reparto",
	"envío", "envio", "logística", "logistica", "shipping",
}

// NormalizeEntityName lowers a name and strips everything but ASCII
// letters and digits, so "Acme, S.L." and "ACME S.L." compare equal.
func NormalizeEntityName(name string) string {
	return reNonAlnum.ReplaceAllString(strings.ToLower(name), "")
}

// SameEntity reports whether candidate normalize-equals any of names.
func SameEntity(candidate string, names []string) bool {
	normalized := NormalizeEntityName(candidate)
	if normalized == "" {
		return false
	}
	for _, name := range names {
		if normalized == NormalizeEntityName(name) {
			return true
		}
	}
	return false
}

// LooksLikePerson reports whether a name is shaped like a natural
// person: two or three plain alphabetic tokens and no legal form.
func LooksLikePerson(name string) bool {
	cleaned := strings.TrimSpace(reNonWord.ReplaceAllString(name, " "))
	if cleaned == "" {
		return false
	}
	var tokens []string
	for _, tok := range strings.Fields(cleaned) {
		if reAlphaToken.MatchString(tok) {
			tokens = append(tokens, tok)
		}
	}
	if len(tokens) == 0 || HasLegalForm(name) {
		return false
	}
	if len(tokens) < 2 || len(tokens) > 3 {
		return false
	}
	for _, tok := range tokens {
		if len([]rune(tok)) <= 1 {
			return false
		}
	}
	return true
}

// HasLegalForm reports whether a name carries a company legal-form
// token once spaces and dots are squeezed out ("S.L.U." matches SLU).
func HasLegalForm(name string) bool {
	compact := strings.ToUpper(reCompact.ReplaceAllString(name, ""))
	for _, token := range legalFormTokens {
		if strings.Contains(compact, token) {
			return true
		}
	}
	return false
}

// ContainsForbiddenKeyword reports whether a name mentions courier or
// sales-agent vocabulary.
func ContainsForbiddenKeyword(name string) bool {
	lowered := strings.ToLower(name)
	for _, keyword := range forbiddenKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

// HasTaxID reports whether a line contains a CIF, NIF or VAT number.
func HasTaxID(line string) bool {
	for _, p := range taxIDPatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// HasIBAN reports whether a line contains an IBAN-shaped account number.
func HasIBAN(line string) bool {
	for _, p := range ibanPatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}
