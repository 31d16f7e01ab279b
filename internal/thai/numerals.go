// Package thai converts Thai-locale numerals and date text into forms
// the standard library can parse.
package thai

import "strings"

// Thai digits ๐..๙ occupy the contiguous range U+0E50..U+0E59.
const (
	thaiZero = '๐'
	thaiNine = '๙'
)

// NormalizeNumerals translates every Thai digit glyph to its ASCII 0-9
// counterpart and leaves all other characters unchanged. The mapping is a
// direct character translation, so applying it twice equals applying it once.
func NormalizeNumerals(text string) string {
	return strings.Map(func(r rune) rune {
		if r >= thaiZero && r <= thaiNine {
			return '0' + (r - thaiZero)
		}
		return r
	}, text)
}

// CleanAmount strips comma grouping and surrounding whitespace from a
// monetary amount so it can go through strconv.ParseFloat.
func CleanAmount(amount string) string {
	return strings.ReplaceAll(strings.TrimSpace(amount), ",", "")
}

// monthNames maps Thai month names to their two-digit numeric form.
var monthNames = map[string]string{
	"มกราคม":     "01",
	"กุมภาพันธ์": "02",
	"มีนาคม":     "03",
	"เมษายน":     "04",
	"พฤษภาคม":    "05",
	"มิถุนายน":   "06",
	"กรกฎาคม":    "07",
	"สิงหาคม":    "08",
	"กันยายน":    "09",
	"ตุลาคม":     "10",
	"พฤศจิกายน":  "11",
	"ธันวาคม":    "12",
}

// NormalizeDate converts Thai numerals and month names inside a date phrase
// to their numeric forms. Buddhist-era years are kept as extracted.
func NormalizeDate(text string) string {
	out := NormalizeNumerals(text)
	for name, number := range monthNames {
		out = strings.ReplaceAll(out, name, number)
	}
	return out
}
