package services

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Längen für Paketnamen und Tags im Katalog.
const (
	PackageNameMinLength = 2
	PackageNameMaxLength = 100
	TagMinLength         = 2
	TagMaxLength         = 100
)

var (
	nameSeparators  = regexp.MustCompile(`[ .:/]`)
	nameDisallowed  = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)
	hyphenRuns      = regexp.MustCompile(`-+`)
	trailingYear    = regexp.MustCompile(`.*?[_-]((?:\d{2,4}[-/])?\d{2,4})$`)
	tagDisallowed   = regexp.MustCompile(`[^a-zA-Z0-9\- ]`)
	asciiExceptions = strings.NewReplacer(
		"ß", "ss", "æ", "ae", "Æ", "AE", "œ", "oe", "Œ", "OE",
		"ø", "o", "Ø", "O", "đ", "d", "Đ", "D", "ł", "l", "Ł", "L",
		"þ", "th", "Þ", "TH",
	)
)

// SubstituteASCII ersetzt Umlaute und Akzente durch ihre ASCII-Basis.
func SubstituteASCII(s string) string {
	s = asciiExceptions.Replace(s)
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// MungeTitleToName erzeugt aus einem Titel (oder einer GUID) einen stabilen Paketnamen:
// ASCII, klein geschrieben, nur [a-z0-9-_], höchstens 100 Zeichen.
func MungeTitleToName(title string) string {
	name := SubstituteASCII(title)
	name = nameSeparators.ReplaceAllString(name, "-")
	name = strings.ToLower(nameDisallowed.ReplaceAllString(name, ""))
	name = hyphenRuns.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")

	maxLength := PackageNameMaxLength - 5
	if len(name) > maxLength {
		if m := trailingYear.FindStringSubmatch(name); m != nil {
			year := m[1]
			name = name[:maxLength-len(year)-1] + "-" + year
		} else {
			name = name[:maxLength]
		}
	}
	return mungeToLength(name, PackageNameMinLength, PackageNameMaxLength)
}

// MungeTag normalisiert einen Tag-Namen.
func MungeTag(tag string) string {
	tag = strings.TrimSpace(strings.ToLower(SubstituteASCII(tag)))
	tag = strings.ReplaceAll(tagDisallowed.ReplaceAllString(tag, ""), " ", "-")
	return mungeToLength(tag, TagMinLength, TagMaxLength)
}

func mungeToLength(s string, minLength, maxLength int) string {
	if len(s) < minLength {
		s += strings.Repeat("_", minLength-len(s))
	}
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	return s
}

// truncateRunes kürzt auf n Zeichen (nicht Bytes).
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
