package store

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// CourtAddresses loads <dataDir>/foreclosures/court_addresses.log, one
// address per line. Notices frequently print the courthouse's own address
// near the phrases the extractor anchors on, so these are filtered out of
// address candidates. A missing file is an empty list.
func CourtAddresses(dataDir string) ([]string, error) {
	path := filepath.Join(dataDir, "foreclosures", "court_addresses.log")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: open %s", path)
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			out = append(out, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrapf(err, "store: scan %s", path)
	}
	return out, nil
}
