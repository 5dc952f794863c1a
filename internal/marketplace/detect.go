package marketplace

import (
	"path/filepath"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// suffixCodes maps an Amazon storefront's public suffix to its code.
var suffixCodes = map[string]string{
	"com":    "US",
	"ca":     "CA",
	"co.uk":  "UK",
	"uk":     "UK",
	"de":     "DE",
	"fr":     "FR",
	"it":     "IT",
	"es":     "ES",
	"com.au": "AU",
	"ae":     "AE",
	"sa":     "SA",
	"com.sa": "SA",
}

// localeNames are display names and locale tags seen in marketplace cells
// and file names, matched as lower-case substrings in order.
var localeNames = []struct {
	token string
	code  string
}{
	{"united kingdom", "UK"},
	{"vereinigtes königreich", "UK"},
	{"royaume-uni", "UK"},
	{"regno unito", "UK"},
	{"reino unido", "UK"},
	{"en_gb", "UK"},
	{"united arab emirates", "AE"},
	{"emirates", "AE"},
	{"saudi", "SA"},
	{"united states", "US"},
	{"en_us", "US"},
	{"deutschland", "DE"},
	{"germany", "DE"},
	{"de_de", "DE"},
	{"france", "FR"},
	{"fr_fr", "FR"},
	{"italia", "IT"},
	{"italy", "IT"},
	{"it_it", "IT"},
	{"españa", "ES"},
	{"espana", "ES"},
	{"spain", "ES"},
	{"es_es", "ES"},
	{"canada", "CA"},
	{"en_ca", "CA"},
	{"australia", "AU"},
	{"en_au", "AU"},
}

// FromDomain resolves a storefront domain such as "Amazon.co.uk" or
// "www.amazon.com.au" to a marketplace code.
func FromDomain(value string) (string, bool) {
	host := strings.ToLower(strings.TrimSpace(value))
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	if i := strings.IndexAny(host, "/ "); i >= 0 {
		host = host[:i]
	}
	if !strings.Contains(host, "amazon.") {
		return "", false
	}
	host = host[strings.Index(host, "amazon."):]

	suffix, _ := publicsuffix.PublicSuffix(host)
	if code, ok := suffixCodes[suffix]; ok {
		return code, true
	}
	// non-ICANN suffixes fall back to the last label
	if i := strings.LastIndex(host, "."); i >= 0 {
		if code, ok := suffixCodes[host[i+1:]]; ok {
			return code, true
		}
	}
	return "", false
}

// FromLocaleName resolves a display name or locale tag to a code.
func FromLocaleName(value string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(value))
	if lower == "" {
		return "", false
	}
	for _, ln := range localeNames {
		if strings.Contains(lower, ln.token) {
			return ln.code, true
		}
	}
	return "", false
}

// Detect resolves a marketplace cell using the domain first, then locale
// names, then a bare code or alias.
func Detect(value string) (string, bool) {
	if code, ok := FromDomain(value); ok {
		return code, true
	}
	if code, ok := FromLocaleName(value); ok {
		return code, true
	}
	if _, ok := Lookup(value); ok {
		return NormalizeCode(value), true
	}
	return "", false
}

// DetectFromFileName looks for a marketplace token in a file name, such as
// "2024-Jan-UK-transactions.xlsx" or "report_amazon.de.xlsx". Two-letter
// codes only count when written upper-case, so words like "de" in
// "Rapport de transactions" are ignored.
func DetectFromFileName(name string) (string, bool) {
	lower := strings.ToLower(name)
	if i := strings.Index(lower, "amazon."); i >= 0 {
		if code, ok := FromDomain(strings.TrimSuffix(strings.TrimSuffix(lower[i:], ".xlsx"), ".xls")); ok {
			return code, true
		}
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	tokens := strings.FieldsFunc(stem, func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || r == ' '
	})
	for _, tok := range tokens {
		if code, ok := fileNameCode(tok); ok {
			return code, true
		}
	}
	return FromLocaleName(lower)
}

func fileNameCode(tok string) (string, bool) {
	switch len(tok) {
	case 2:
		if tok != strings.ToUpper(tok) {
			return "", false
		}
	case 3:
	default:
		return "", false
	}
	if _, ok := Lookup(tok); !ok {
		return "", false
	}
	return NormalizeCode(tok), true
}
