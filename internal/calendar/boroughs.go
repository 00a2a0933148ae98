package calendar

import (
	_ "embed"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/ivoytov/manhattan/internal/model"
)

//go:embed boroughs.yaml
var boroughsYAML []byte

// CourtPart identifies a borough's foreclosure-auction calendar in the
// court system's civil calendar search: the court's ID and the ID of its
// auction part. Both are option values of the calendar search form.
type CourtPart struct {
	CourtID    string `yaml:"court_id"`
	CalendarID string `yaml:"calendar_id"`
}

// courtParts decodes the embedded borough table at startup. A malformed
// table or a borough without an entry is a programming error, hence panic.
func courtParts() map[model.Borough]CourtPart {
	var raw map[string]CourtPart
	if err := yaml.Unmarshal(boroughsYAML, &raw); err != nil {
		panic(eris.Wrap(err, "calendar: embedded borough table"))
	}
	out := make(map[model.Borough]CourtPart, len(raw))
	for name, part := range raw {
		borough, err := model.ParseBorough(name)
		if err != nil {
			panic(eris.Wrap(err, "calendar: embedded borough table"))
		}
		out[borough] = part
	}
	for _, b := range model.AllBoroughs {
		if _, ok := out[b]; !ok {
			panic(eris.Errorf("calendar: no court part for %s", b))
		}
	}
	return out
}
