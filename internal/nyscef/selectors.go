package nyscef

// The filing system's DOM contract lives entirely in this file. It is owned
// by the external site and changes without notice; when it does, this is
// the only file that should need updating.

const caseSearchURL = "https://iapps.courts.state.ny.us/nyscef/CaseSearch"

const (
	// Search form.
	selIndexField     = "#txtCaseIdentifierNumber"
	selCountySelect   = "select#selCountyCourt"
	selSearchButton   = `input[name="btnSubmit"]`
	selClearButton    = `input[name="btnClear"]`
	selResultCaseLink = "#form > table.NewSearchResults > tbody > tr > td:nth-child(1) > a"

	// Document narrowing form on the case detail page.
	selDocTypeSelect   = "select#selDocumentType"
	selDocTypeOptions  = "select#selDocumentType option"
	selNarrowButton    = `input[name="btnNarrow"]`
	optionValueByValue = `option[value=%q]`
)

// Document results table. Rows are matched by their anchor text; the
// received-date sits in the third cell of the same row.
const (
	xpathDocRows   = `//tr[td//a[normalize-space(text())=%q]]`
	xpathRowLink   = `.//a`
	xpathRowRecvTd = `.//td[3]`
)

// receivedDateLayouts are the date renderings observed in the results
// table, tried in order.
var receivedDateLayouts = []string{
	"01/02/2006",
	"01/02/06",
	"January 2, 2006",
}
