package nyscef

import (
	"context"
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
)

// Session failure taxonomy. Every error here is terminal for the current
// case (or filing) only; the reconcile driver catches them at the per-case
// boundary and moves on.
var (
	// ErrCaseNotFound: the filing system returned no result row for the
	// index number. Not retried automatically.
	ErrCaseNotFound = eris.New("nyscef: case not found")

	// ErrChallengeUnresolved: the anti-automation challenge was still up
	// after the poll budget. Expected to clear on a later run.
	ErrChallengeUnresolved = eris.New("nyscef: challenge unresolved")

	// ErrNoValidDocumentLink: the results table had rows but none passed
	// received-date validation. The right document may simply not exist yet.
	ErrNoValidDocumentLink = eris.New("nyscef: no valid document link")

	// ErrDocumentTooSmall: the downloaded body was below the minimum size,
	// which in practice means an error page rather than a scanned filing.
	ErrDocumentTooSmall = eris.New("nyscef: document too small")

	// ErrNetworkTimeout: a navigation or fetch exceeded its bound.
	ErrNetworkTimeout = eris.New("nyscef: network timeout")
)

// DiscontinuedError marks a case as permanently dead: the filing system
// lists a discontinuance document for it. The session has already appended
// the exclusion marker by the time this error is returned.
type DiscontinuedError struct {
	IndexNumber string
}

func (e *DiscontinuedError) Error() string {
	return fmt.Sprintf("nyscef: case %s discontinued", e.IndexNumber)
}

// asTimeout maps context deadline errors onto ErrNetworkTimeout so callers
// see the taxonomy instead of raw context plumbing.
func asTimeout(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return eris.Wrap(ErrNetworkTimeout, err.Error())
	}
	return err
}
