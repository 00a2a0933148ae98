package model

import (
	"strings"
	"time"
)

// DateLayout is the on-disk date format shared by every CSV store.
const DateLayout = "2006-01-02"

// Case is one foreclosure-auction case as tracked by the registry. Cases are
// created when first seen on the court calendar and amended in place as
// filings are found; they are never deleted.
type Case struct {
	IndexNumber string  // court index number, e.g. 705281/2016
	Borough     Borough
	AuctionDate time.Time
	CaseName    string
}

// SafeIndex returns the index number with the filesystem-unsafe slash
// replaced by a dash, as used in saledocs/ file names.
func (c Case) SafeIndex() string {
	return SafeIndex(c.IndexNumber)
}

// Key returns the canonical dedupe key for a case. Borough is part of the
// key because index numbers are only unique within a county.
func (c Case) Key() string {
	return string(c.Borough) + "|" + c.IndexNumber
}

// SafeIndex converts an index number to its filesystem-safe form.
func SafeIndex(indexNumber string) string {
	return strings.ReplaceAll(indexNumber, "/", "-")
}

// Lot is one tax parcel attached to a case. A case may hold several lots.
type Lot struct {
	IndexNumber string
	Borough     Borough
	Block       string
	Lot         string
	Address     string
}

// AuctionResult holds the financial outcome of a completed auction, filled
// in from the Surplus Money Form.
type AuctionResult struct {
	IndexNumber string
	AuctionDate time.Time
	Judgement   string
	UpsetPrice  string
	WinningBid  string
}

// ExtractedRecord is the structured output of OCR plus field extraction for
// one filing. Every field is independently best-effort: a miss on one field
// never blocks the others, so any of them may be empty.
type ExtractedRecord struct {
	Block          string
	Lot            string
	Address        string
	IndexNumber    string
	JudgmentAmount string
}
