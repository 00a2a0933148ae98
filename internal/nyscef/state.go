package nyscef

import "github.com/rotisserie/eris"

// State is the session's position in the filing-system protocol. The remote
// site is stateful, so transitions are validated: jumping steps corrupts
// the site-side form state in ways that only show up rows later.
type State int

const (
	Idle State = iota
	Searching
	CaseSelected
	DocumentTypeSelected
	ResultsListed
	Downloading
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Searching:
		return "searching"
	case CaseSelected:
		return "case_selected"
	case DocumentTypeSelected:
		return "document_type_selected"
	case ResultsListed:
		return "results_listed"
	case Downloading:
		return "downloading"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// transitions lists the legal next states. CaseSelected is re-entered after
// each document type completes (or its candidate is rejected) because the
// search form must be cleared between type selections.
var transitions = map[State][]State{
	Idle:                 {Searching},
	Searching:            {CaseSelected},
	CaseSelected:         {DocumentTypeSelected, Done},
	DocumentTypeSelected: {ResultsListed},
	ResultsListed:        {Downloading, CaseSelected},
	Downloading:          {CaseSelected, Done},
	Done:                 {},
	Failed:               {},
}

// canTransition reports whether moving from one state to another is legal.
// Failed is reachable from everywhere except the terminal states.
func canTransition(from, to State) bool {
	if to == Failed {
		return from != Done && from != Failed
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// to moves the session to the next state, erroring on an illegal jump.
func (s *Session) to(next State) error {
	if !canTransition(s.state, next) {
		return eris.Errorf("nyscef: illegal transition %s -> %s", s.state, next)
	}
	s.state = next
	return nil
}
