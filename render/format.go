package render

import (
	"html/template"
	"time"

	"github.com/dustin/go-humanize"
)

// legislation.gov.uk dates are plain ISO dates.
const isoDate = "2006-01-02"

var funcs = template.FuncMap{
	"longdate": LongDate,
	"ago":      ago,
	"comma": func(n int) string {
		return humanize.Comma(int64(n))
	},
}

// LongDate formats 2024-09-24 as 24 September 2024. Anything else is returned
// as is.
func LongDate(s string) string {
	t, err := time.Parse(isoDate, s)
	if err != nil {
		return s
	}
	return t.Format("2 January 2006")
}

func ago(s string) string {
	t, err := time.Parse(isoDate, s)
	if err != nil {
		return ""
	}
	return humanize.Time(t)
}
