// Package extract parses structured fields out of raw OCR text. Every
// function is pure and returns the zero value when the text has no match;
// "not found" is never an error.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// Labeled block/lot phrasing as it appears in a Notice of Sale. Matched
	// first because the bare shorthand below has a far higher false-positive
	// rate.
	blockLotLabeled = regexp.MustCompile(`(?i)Block\s*[: ]\s*(\d+)\D*?Lots?\s*[: ]\s*(\d+)`)
	// Bare "NNN-NN" shorthand common on scanned cover forms.
	blockLotBare = regexp.MustCompile(`(\d{3,5})-(\d{1,4})`)

	// Court index number format, see the e-filing system's published index
	// number formats. First match wins.
	indexNumberPat = regexp.MustCompile(`\d{5,6}/\d{4}E?`)

	// A currency amount standing on its own line.
	judgementPat = regexp.MustCompile(`(?m)^\s*\$(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)\s*$`)

	// Address phrasing varies between notices; anchors are tried in order.
	addressPats = []*regexp.Regexp{
		regexp.MustCompile(`(?i)premises\s+known\s+as\s+(\d+[^,\n]+(?:,[^,\n]+)*?,\s*(?:NY|New York)\s+\d{5})`),
		regexp.MustCompile(`(?i)prem\.?\s*k/a\s+(\d+[^,\n]+(?:,[^,\n]+)*?,\s*(?:NY|New York)\s+\d{5})`),
		regexp.MustCompile(`(?i)lying\s+and\s+being\s+at\s+(\d+[^,\n]+(?:,[^,\n]+)*?,\s*(?:NY|New York)\s+\d{5})`),
	}
)

// BlockLot extracts the tax block and lot. The labeled pattern is consulted
// first; only when it fails does the bare "NNN-NN" fallback run. Returns
// ("", "") when neither matches.
func BlockLot(text string) (block, lot string) {
	if m := blockLotLabeled.FindStringSubmatch(text); m != nil {
		return m[1], m[2]
	}
	if m := blockLotBare.FindStringSubmatch(text); m != nil {
		return m[1], m[2]
	}
	return "", ""
}

// IndexNumber extracts the first court index number, or "" if none.
func IndexNumber(text string) string {
	return indexNumberPat.FindString(text)
}

// Judgement extracts a judgment amount from a standalone currency line,
// with grouping separators stripped. Returns 0, false when absent.
func Judgement(text string) (float64, bool) {
	m := judgementPat.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}

// Address extracts the property address following one of the known phrase
// anchors, up to the state/zip terminator. Addresses in the exclude list
// (case-insensitive) are skipped; courts often insert their own address
// near the anchors. Best-effort: returns "" when nothing usable matches.
func Address(text string, exclude []string) string {
	excluded := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		excluded[strings.ToLower(strings.TrimSpace(e))] = true
	}

	for _, pat := range addressPats {
		for _, m := range pat.FindAllStringSubmatch(text, -1) {
			candidate := strings.TrimSpace(m[1])
			if excluded[strings.ToLower(candidate)] {
				continue
			}
			return candidate
		}
	}
	return ""
}
