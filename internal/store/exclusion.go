package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ExclusionLog is the append-only list of dead cases, one line per entry in
// the form "<index_number> <reason>". Future runs consult it before opening
// any browser session, so a discontinued case never costs another network
// round-trip.
type ExclusionLog struct {
	path string
}

// OpenExclusionLog points at <dataDir>/foreclosures/excluded_cases.log.
// The file is created lazily on first append.
func OpenExclusionLog(dataDir string) *ExclusionLog {
	return &ExclusionLog{path: filepath.Join(dataDir, "foreclosures", "excluded_cases.log")}
}

// Excluded returns the set of excluded index numbers.
func (l *ExclusionLog) Excluded() (map[string]bool, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, eris.Wrapf(err, "store: open %s", l.path)
	}
	defer f.Close()

	out := map[string]bool{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) > 0 {
			out[fields[0]] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrapf(err, "store: scan %s", l.path)
	}
	return out, nil
}

// Append records a case as permanently excluded.
func (l *ExclusionLog) Append(indexNumber, reason string) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return eris.Wrapf(err, "store: mkdir for %s", l.path)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return eris.Wrapf(err, "store: open %s", l.path)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s %s\n", indexNumber, reason); err != nil {
		return eris.Wrapf(err, "store: append %s", l.path)
	}
	return nil
}
