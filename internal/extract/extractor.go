// Package extract pulls structured procurement fields out of raw document
// text with locale-aware pattern matching. Every sub-extraction is
// independently best-effort: a miss yields a nil field, never an error.
package extract

import (
	"regexp"
	"strings"
)

// Budget is a matched budget amount. Raw keeps the matched numeral string
// verbatim; Clean is the same string with comma grouping removed. Neither
// has Thai numerals converted; that is the caller's job before parsing.
type Budget struct {
	Raw   string
	Clean string
}

// Duration is a contract period. Years and Months are independent captures;
// at least one is non-nil when the struct itself is non-nil.
type Duration struct {
	Years  *string
	Months *string
}

// Submission holds the bid submission date phrase and time of day as
// extracted, without calendar reinterpretation.
type Submission struct {
	Date *string
	Time *string
}

// Contact holds whichever contact channels were found.
type Contact struct {
	Phone *string
	Email *string
}

// Fields is the result of one extraction pass. A nil field means the
// corresponding pattern did not match anywhere in the text.
type Fields struct {
	Budget     *Budget
	Quantity   *string
	Duration   *Duration
	Submission *Submission
	Contact    *Contact
}

// Patterns accept both ASCII and Thai digits since document text arrives
// unconverted. The date capture is greedy up to the last 4-digit year on
// the line to tolerate Buddhist-era years embedded mid-phrase.
var (
	budgetExpr   = regexp.MustCompile(`([0-9๐-๙,]+\.?[0-9๐-๙]*)\s*บาท`)
	quantityExpr = regexp.MustCompile(`จำนวน\s*([0-9๐-๙]+)`)
	yearsExpr    = regexp.MustCompile(`ระยะเวลา\s*([0-9๐-๙]+)\s*ปี`)
	monthsExpr   = regexp.MustCompile(`\(([0-9๐-๙]+)\s*เดือน\)`)
	dateExpr     = regexp.MustCompile(`วันที่\s*([0-9๐-๙]+.*[0-9๐-๙]{4})`)
	timeExpr     = regexp.MustCompile(`([0-9๐-๙]{2}[:.][0-9๐-๙]{2})\s*น`)
	phoneExpr    = regexp.MustCompile(`โทรศัพท์.*?([0-9๐-๙][0-9๐-๙\-]+)`)
	emailExpr    = regexp.MustCompile(`([a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+)`)
)

// Extract runs every sub-extraction over the full document text and
// returns whatever matched. Partial results are expected.
func Extract(text string) Fields {
	return Fields{
		Budget:     extractBudget(text),
		Quantity:   extractQuantity(text),
		Duration:   extractDuration(text),
		Submission: extractSubmission(text),
		Contact:    extractContact(text),
	}
}

func extractBudget(text string) *Budget {
	m := budgetExpr.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	raw := m[1]
	return &Budget{Raw: raw, Clean: strings.ReplaceAll(raw, ",", "")}
}

func extractQuantity(text string) *string {
	// First occurrence wins; documents repeat the keyword for line items.
	m := quantityExpr.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return &m[1]
}

func extractDuration(text string) *Duration {
	d := Duration{}
	if m := yearsExpr.FindStringSubmatch(text); m != nil {
		d.Years = &m[1]
	}
	if m := monthsExpr.FindStringSubmatch(text); m != nil {
		d.Months = &m[1]
	}
	if d.Years == nil && d.Months == nil {
		return nil
	}
	return &d
}

func extractSubmission(text string) *Submission {
	s := Submission{}
	if m := dateExpr.FindStringSubmatch(text); m != nil {
		date := strings.TrimSpace(m[1])
		s.Date = &date
	}
	if m := timeExpr.FindStringSubmatch(text); m != nil {
		s.Time = &m[1]
	}
	if s.Date == nil && s.Time == nil {
		return nil
	}
	return &s
}

func extractContact(text string) *Contact {
	c := Contact{}
	if m := phoneExpr.FindStringSubmatch(text); m != nil {
		c.Phone = &m[1]
	}
	if m := emailExpr.FindStringSubmatch(text); m != nil {
		c.Email = &m[1]
	}
	if c.Phone == nil && c.Email == nil {
		return nil
	}
	return &c
}
