package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/Lawguy81/cnslr-legal-platform/internal/models"
)

const longDate = "January 2, 2006"

var dateLayouts = []string{"2006-01-02", "01/02/2006", "1/2/2006", longDate}

// filler reads answers for a template and records the first malformed value.
type filler struct {
	answers models.Answers
	err     error
}

func (f *filler) fail(field string, err error) {
	if f.err == nil {
		f.err = &TemplateError{Field: field, Err: err}
	}
}

// placeholder builds the bracketed token for a missing value, "[TICKET NUMBER]".
func placeholder(name string) string {
	return "[" + strings.ToUpper(humanize(name)) + "]"
}

func (f *filler) has(name string) bool {
	return f.answers.Has(name)
}

func (f *filler) raw(name string) string {
	return f.answers.String(name)
}

// text returns the answer or its placeholder.
func (f *filler) text(name string) string {
	if v := f.raw(name); v != "" {
		return v
	}
	return placeholder(name)
}

// upper is text with the answer upper-cased.
func (f *filler) upper(name string) string {
	if v := f.raw(name); v != "" {
		return strings.ToUpper(v)
	}
	return placeholder(name)
}

// date formats a date answer as "January 2, 2006".
func (f *filler) date(name string) string {
	v := f.raw(name)
	if v == "" {
		return placeholder(name)
	}
	t, err := parseDate(v)
	if err != nil {
		f.fail(name, err)
		return v
	}
	return t.Format(longDate)
}

func (f *filler) number(name string) (float64, bool) {
	v := f.raw(name)
	if v == "" {
		return 0, false
	}
	n, err := parseAmount(v)
	if err != nil {
		f.fail(name, err)
		return 0, false
	}
	return n, true
}

// money formats a numeric answer as "$1,234.50".
func (f *filler) money(name string) string {
	n, ok := f.number(name)
	if !ok {
		return placeholder(name)
	}
	return formatMoney(n)
}

// integer returns a whole-number answer.
func (f *filler) integer(name string) (int, bool) {
	n, ok := f.number(name)
	if !ok {
		return 0, false
	}
	if n != float64(int(n)) {
		f.fail(name, fmt.Errorf("%v is not a whole number", n))
		return 0, false
	}
	return int(n), true
}

// choice maps an option value through table. Missing answers give the
// placeholder, values outside the table give fallback.
func (f *filler) choice(name string, table map[string]string, fallback string) string {
	v := f.raw(name)
	if v == "" {
		return placeholder(name)
	}
	if s, ok := table[v]; ok {
		return s
	}
	return fallback
}

func (f *filler) yes(name string) bool {
	return strings.EqualFold(f.raw(name), "yes")
}

// name joins given, optional middle and family name answers.
func (f *filler) name(first, middle, last string) string {
	parts := []string{f.text(first)}
	if m := f.raw(middle); m != "" {
		parts = append(parts, m)
	}
	parts = append(parts, f.text(last))
	return strings.Join(parts, " ")
}

// cityLine formats "City, ST 12345".
func (f *filler) cityLine(city, state, zip string) string {
	return fmt.Sprintf("%s, %s %s", f.text(city), f.text(state), f.text(zip))
}

func parseDate(v string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not a date", v)
}

func parseAmount(v string) (float64, error) {
	clean := strings.NewReplacer("$", "", ",", "", " ", "").Replace(v)
	n, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", v)
	}
	return n, nil
}

func formatMoney(n float64) string {
	s := strconv.FormatFloat(n, 'f', 2, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String() + "." + frac
}

// humanize turns a camelCase field name into "Camel Case".
func humanize(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		if i == 0 {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
