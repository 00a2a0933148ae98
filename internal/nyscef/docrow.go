package nyscef

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// DocRow is one candidate document in the results table: its download link
// and the date the court recorded it as filed.
type DocRow struct {
	URL      string
	Received time.Time
}

// parseReceivedDate parses the received-date cell, tolerating the formats
// the site has been seen to use.
func parseReceivedDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range receivedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, eris.Errorf("nyscef: unparseable received date %q", s)
}

// containsFold is a case-insensitive substring check, used for the
// challenge-page title marker.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// pickCandidate selects the row to attempt: the last one in document order,
// which carries the most recent received date. Ties are not expected, but
// if present last-in-document-order still wins, keeping the choice
// deterministic. Validation of the received date happens after the pick;
// a rejected candidate is not replaced by an earlier row.
func pickCandidate(rows []DocRow) (DocRow, bool) {
	if len(rows) == 0 {
		return DocRow{}, false
	}
	return rows[len(rows)-1], true
}
