package nyscef

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{Idle, Searching, true},
		{Searching, CaseSelected, true},
		{CaseSelected, DocumentTypeSelected, true},
		{CaseSelected, Done, true},
		{DocumentTypeSelected, ResultsListed, true},
		{ResultsListed, Downloading, true},
		{ResultsListed, CaseSelected, true},
		{Downloading, CaseSelected, true},
		{Downloading, Done, true},

		{Idle, CaseSelected, false},
		{Searching, Downloading, false},
		{Done, Searching, false},
		{Failed, Searching, false},

		{Idle, Failed, true},
		{Searching, Failed, true},
		{Downloading, Failed, true},
		{Done, Failed, false},
		{Failed, Failed, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, canTransition(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestSessionToRejectsIllegalJump(t *testing.T) {
	s := &Session{state: Idle}

	assert.NoError(t, s.to(Searching))
	assert.Equal(t, Searching, s.State())

	err := s.to(Downloading)
	assert.Error(t, err)
	assert.Equal(t, Searching, s.State(), "state unchanged after rejected jump")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "results_listed", ResultsListed.String())
	assert.Equal(t, "unknown", State(99).String())
}
