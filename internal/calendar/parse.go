package calendar

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// parseIndexNumber pulls the court index number out of a calendar entry's
// text, which opens "Index Number: <index> ...". The third whitespace field
// is the index itself.
func parseIndexNumber(entryText string) (string, error) {
	fields := strings.Fields(entryText)
	if len(fields) < 3 {
		return "", eris.Errorf("calendar: short entry %q", entryText)
	}
	return fields[2], nil
}

var hearingDateLayouts = []string{"January 2,2006", "January 2, 2006"}

// parseHearingDate recovers the hearing date from a calendar link's onclick
// argument list. The date is split across two quoted arguments, e.g.
// ...,'Friday June 14','2024',...; arguments six and seven carry it, with
// the weekday prepended.
func parseHearingDate(onclick string) (time.Time, error) {
	parts := strings.Split(onclick, ",")
	if len(parts) < 8 {
		return time.Time{}, eris.Errorf("calendar: short onclick %q", onclick)
	}
	raw := strings.Join(parts[6:8], ",")
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "'", ""))

	// Drop the leading weekday.
	if i := strings.IndexByte(raw, ' '); i > 0 {
		raw = raw[i+1:]
	}

	for _, layout := range hearingDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, eris.Errorf("calendar: unparseable hearing date %q", raw)
}
