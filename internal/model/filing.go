package model

// FilingType is a closed enum of the court document types the pipeline
// acquires. Iteration over AllFilingTypes is order-significant: whichever
// type comes first is fetched first within a case, which keeps re-runs
// deterministic.
type FilingType int

const (
	NoticeOfSale FilingType = iota
	SurplusMoneyForm
)

// AllFilingTypes lists every filing type in fetch order.
var AllFilingTypes = []FilingType{NoticeOfSale, SurplusMoneyForm}

// DocTypeDiscontinuance is the document-type selector value whose presence
// in a case's type list marks the case as permanently discontinued.
const DocTypeDiscontinuance = "971"

// Code returns the document-type selector value recognized by the filing
// system for this type.
func (t FilingType) Code() string {
	switch t {
	case NoticeOfSale:
		return "1163"
	case SurplusMoneyForm:
		return "1722"
	}
	return ""
}

// Dir returns the subdirectory under saledocs/ where documents of this type
// are stored.
func (t FilingType) Dir() string {
	switch t {
	case NoticeOfSale:
		return "noticeofsale"
	case SurplusMoneyForm:
		return "surplusmoney"
	}
	return ""
}

// LinkText returns the anchor text the results table uses for documents of
// this type.
func (t FilingType) LinkText() string {
	switch t {
	case NoticeOfSale:
		return "NOTICE OF SALE"
	case SurplusMoneyForm:
		return "SURPLUS MONEY FORM"
	}
	return ""
}

func (t FilingType) String() string {
	switch t {
	case NoticeOfSale:
		return "notice_of_sale"
	case SurplusMoneyForm:
		return "surplus_money_form"
	}
	return "unknown"
}
