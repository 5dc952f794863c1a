package dataprocessing

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/xuri/excelize/v2"

	"sellerpulse/pkg/contracts/domain"
)

// ParseAmount parses a report amount in either 1,234.56 or 1.234,56
// notation, with optional currency symbols, spaces, parentheses or a
// trailing minus. Unparseable input yields 0.
func ParseAmount(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	if strings.HasSuffix(s, "-") {
		negative = !negative
		s = strings.TrimSuffix(s, "-")
	}

	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-', r == '+':
			b.WriteRune(r)
		case (r == 'e' || r == 'E') && isExponentMarker(runes, i):
			b.WriteRune(r)
		}
	}
	s = b.String()

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 != 3 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	if negative {
		v = -v
	}
	return v
}

// isExponentMarker reports whether the e at i sits between a mantissa digit
// and an exponent, so currency codes such as EUR or SEK are dropped.
func isExponentMarker(runes []rune, i int) bool {
	if i == 0 || i+1 >= len(runes) || !unicode.IsDigit(runes[i-1]) {
		return false
	}
	next := runes[i+1]
	if (next == '-' || next == '+') && i+2 < len(runes) {
		next = runes[i+2]
	}
	return unicode.IsDigit(next)
}

// monthNames maps localized month names and abbreviations to English.
var monthNames = map[string]string{
	"jan": "Jan", "january": "Jan", "januar": "Jan", "janvier": "Jan", "janv": "Jan",
	"gennaio": "Jan", "gen": "Jan", "enero": "Jan", "ene": "Jan",
	"feb": "Feb", "february": "Feb", "februar": "Feb", "février": "Feb", "févr": "Feb",
	"fevr": "Feb", "febbraio": "Feb", "febrero": "Feb",
	"mar": "Mar", "march": "Mar", "märz": "Mar", "mär": "Mar", "mrz": "Mar", "mars": "Mar",
	"marzo": "Mar",
	"apr": "Apr", "april": "Apr", "avril": "Apr", "avr": "Apr", "aprile": "Apr", "abril": "Apr",
	"abr": "Apr",
	"may": "May", "mai": "May", "maggio": "May", "mag": "May", "mayo": "May",
	"jun": "Jun", "june": "Jun", "juni": "Jun", "juin": "Jun", "giugno": "Jun", "giu": "Jun",
	"junio": "Jun",
	"jul": "Jul", "july": "Jul", "juli": "Jul", "juillet": "Jul", "juil": "Jul", "luglio": "Jul",
	"lug": "Jul", "julio": "Jul",
	"aug": "Aug", "august": "Aug", "août": "Aug", "aout": "Aug", "agosto": "Aug", "ago": "Aug",
	"sep": "Sep", "sept": "Sep", "september": "Sep", "septembre": "Sep", "settembre": "Sep",
	"set": "Sep", "septiembre": "Sep", "setiembre": "Sep",
	"oct": "Oct", "october": "Oct", "okt": "Oct", "oktober": "Oct", "octobre": "Oct",
	"ottobre": "Oct", "ott": "Oct", "octubre": "Oct",
	"nov": "Nov", "november": "Nov", "novembre": "Nov", "noviembre": "Nov",
	"dec": "Dec", "december": "Dec", "dez": "Dec", "dezember": "Dec", "décembre": "Dec",
	"déc": "Dec", "dicembre": "Dec", "dic": "Dec", "diciembre": "Dec",
}

var namedLayouts = []string{
	"Jan 2, 2006 3:04:05 pm",
	"Jan 2, 2006 15:04:05",
	"Jan 2, 2006",
	"2 Jan 2006 15:04:05",
	"2 Jan 2006 3:04:05 pm",
	"2 Jan 2006",
	"2-Jan-2006 15:04:05",
	"2-Jan-2006",
}

var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"02.01.2006",
	"2.1.2006 15:04:05",
	"2.1.2006",
}

var dayFirstLayouts = []string{
	"2/1/2006 15:04:05",
	"2/1/2006 3:04:05 pm",
	"2/1/2006 15:04",
	"2/1/2006",
}

var monthFirstLayouts = []string{
	"1/2/2006 3:04:05 pm",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
}

// ParseDate parses a report timestamp. It understands English, German,
// French, Italian and Spanish month names, dd.mm.yyyy, ISO dates and Excel
// serial numbers; slash dates are read day-first when dayFirst is set.
// A trailing zone abbreviation is dropped so the wall-clock date the
// seller saw is kept.
func ParseDate(raw string, dayFirst bool) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial < 1 || serial > 2958465 {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	s = canonicalDateText(s)

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range namedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	slashLayouts := monthFirstLayouts
	if dayFirst {
		slashLayouts = dayFirstLayouts
	}
	for _, layout := range slashLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateOnly formats the wall-clock date of t as YYYY-MM-DD.
func DateOnly(t time.Time) string {
	return t.Format("2006-01-02")
}

// canonicalDateText lower-cases meridiem markers, translates month names
// and drops trailing time zone tokens.
func canonicalDateText(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("a.m.", "am", "p.m.", "pm", "a. m.", "am", "p. m.", "pm").Replace(s)

	tokens := strings.Fields(s)
	for i, tok := range tokens {
		core := strings.TrimRight(tok, ".,")
		if en, ok := monthNames[core]; ok {
			suffix := ""
			if strings.HasSuffix(tok, ",") {
				suffix = ","
			}
			tokens[i] = en + suffix
		}
	}

	for len(tokens) > 1 && isZoneToken(tokens[len(tokens)-1]) {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

func isZoneToken(tok string) bool {
	if tok == "am" || tok == "pm" {
		return false
	}
	if strings.HasPrefix(tok, "gmt") || strings.HasPrefix(tok, "utc") {
		return true
	}
	if (strings.HasPrefix(tok, "+") || strings.HasPrefix(tok, "-")) && len(tok) > 1 && unicode.IsDigit(rune(tok[1])) {
		return true
	}
	if _, ok := monthNames[tok]; ok {
		return false
	}
	for _, r := range tok {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return len(tok) >= 1 && len(tok) <= 5
}

// ParseFulfillment maps a fulfillment cell to a channel.
func ParseFulfillment(raw string) domain.Fulfillment {
	lower := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case lower == "":
		return domain.FulfillmentUnknown
	case strings.Contains(lower, "mixed") || strings.Contains(lower, "gemischt") || strings.Contains(lower, "mixte"):
		return domain.FulfillmentMixed
	case containsAny(lower, "seller", "merchant", "fbm", "mfn", "verkäufer", "vendeur", "venditore", "vendedor"):
		return domain.FulfillmentFBM
	case containsAny(lower, "amazon", "fba", "afn"):
		return domain.FulfillmentFBA
	default:
		return domain.FulfillmentUnknown
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
