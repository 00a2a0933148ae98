// Package nyscef drives the court e-filing system's case search through a
// remote headless browser and downloads the filings a case still needs.
// One session serves one case; the remote site keeps server-side form
// state, so the session walks an explicit protocol state machine and clears
// the form between document types.
package nyscef

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ivoytov/manhattan/internal/config"
	"github.com/ivoytov/manhattan/internal/filing"
	"github.com/ivoytov/manhattan/internal/model"
	"github.com/ivoytov/manhattan/internal/resilience"
)

// ExclusionAppender records permanently dead cases for future runs.
type ExclusionAppender interface {
	Append(indexNumber, reason string) error
}

// Session is a connected browser session scoped to a single case.
type Session struct {
	cfg   config.BrowserConfig
	class *filing.Classifier
	excl  ExclusionAppender
	dl    *Downloader
	log   *zap.Logger

	browser *rod.Browser
	page    *rod.Page
	state   State
	kase    model.Case
}

// Open connects to the remote browser endpoint and opens a fresh page for
// the given case. Connecting is the one step that is safe to retry; from
// here on every navigation is single-shot.
func Open(ctx context.Context, cfg config.BrowserConfig, class *filing.Classifier, excl ExclusionAppender, dl *Downloader, kase model.Case) (*Session, error) {
	var browser *rod.Browser
	err := resilience.Do(ctx, resilience.DefaultRetryConfig(), "browser connect", func(ctx context.Context) error {
		b := rod.New().ControlURL(cfg.Endpoint).Context(ctx)
		if err := b.Connect(); err != nil {
			return resilience.NewTransientError(err)
		}
		browser = b
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "nyscef: connect %s", cfg.Endpoint)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		browser.Close()
		return nil, eris.Wrap(err, "nyscef: new page")
	}

	return &Session{
		cfg:     cfg,
		class:   class,
		excl:    excl,
		dl:      dl,
		log:     zap.L().With(zap.String("index_number", kase.IndexNumber), zap.String("borough", string(kase.Borough))),
		browser: browser,
		page:    page.Context(ctx),
		state:   Idle,
		kase:    kase,
	}, nil
}

// Close releases the page and the browser connection.
func (s *Session) Close() {
	if s.page != nil {
		_ = s.page.Close()
	}
	if s.browser != nil {
		_ = s.browser.Close()
	}
}

// State returns the session's current protocol state.
func (s *Session) State() State { return s.state }

// FetchFilings runs the full protocol for the case: search, select, then
// for each still-missing filing type select its document code, pick a
// candidate row, validate its received date, and download. It returns the
// filing types actually downloaded. A missing or invalid candidate for one
// type does not stop the others; case-level failures (not found,
// discontinued, challenge, timeout) abort with an error from the taxonomy.
func (s *Session) FetchFilings(ctx context.Context, missing []model.FilingType) ([]model.FilingType, error) {
	got, err := s.fetchFilings(ctx, missing)
	if err != nil {
		s.state = Failed
		return got, err
	}
	return got, s.to(Done)
}

func (s *Session) fetchFilings(ctx context.Context, missing []model.FilingType) ([]model.FilingType, error) {
	if err := s.search(ctx); err != nil {
		return nil, err
	}
	if err := s.selectCase(); err != nil {
		return nil, err
	}
	if err := s.checkDiscontinued(); err != nil {
		return nil, err
	}

	var got []model.FilingType
	for _, ft := range missing {
		downloaded, err := s.fetchOne(ctx, ft)
		if err != nil {
			return got, err
		}
		if downloaded {
			got = append(got, ft)
		}
	}
	return got, nil
}

// search navigates to the case search form, waits out any anti-automation
// challenge, and submits the index number and county.
func (s *Session) search(ctx context.Context) error {
	if err := s.to(Searching); err != nil {
		return err
	}

	page := s.page.Timeout(s.cfg.NavTimeout())
	defer page.CancelTimeout()

	if err := page.Navigate(caseSearchURL); err != nil {
		return asTimeout(eris.Wrap(err, "nyscef: navigate search"))
	}
	if err := page.WaitLoad(); err != nil {
		return asTimeout(eris.Wrap(err, "nyscef: load search"))
	}

	if err := s.awaitChallenge(ctx); err != nil {
		return err
	}

	indexField, err := page.Element(selIndexField)
	if err != nil {
		return asTimeout(eris.Wrap(err, "nyscef: index field"))
	}
	if err := indexField.Input(s.kase.IndexNumber); err != nil {
		return eris.Wrap(err, "nyscef: fill index number")
	}

	county, err := page.Element(selCountySelect)
	if err != nil {
		return asTimeout(eris.Wrap(err, "nyscef: county selector"))
	}
	sel := fmt.Sprintf(optionValueByValue, s.kase.Borough.CountyCode())
	if err := county.Select([]string{sel}, true, rod.SelectorTypeCSSSector); err != nil {
		return eris.Wrapf(err, "nyscef: select county %s", s.kase.Borough)
	}

	if err := s.clickAndSettle(page, selSearchButton); err != nil {
		return asTimeout(eris.Wrap(err, "nyscef: submit search"))
	}
	return nil
}

// selectCase clicks the first (and only expected) result row. No row means
// the case has no match in the filing system at all.
func (s *Session) selectCase() error {
	if err := s.to(CaseSelected); err != nil {
		return err
	}

	page := s.page.Timeout(s.cfg.SettleTimeout())
	defer page.CancelTimeout()

	has, link, err := page.Has(selResultCaseLink)
	if err != nil {
		return asTimeout(eris.Wrap(err, "nyscef: result row"))
	}
	if !has {
		return ErrCaseNotFound
	}

	nav := s.page.Timeout(s.cfg.NavTimeout())
	defer nav.CancelTimeout()
	wait := nav.WaitNavigation(proto.PageLifecycleEventNameNetworkAlmostIdle)
	if err := link.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return eris.Wrap(err, "nyscef: click case link")
	}
	wait()
	return nil
}

// checkDiscontinued scans the document-type selector's option values. A
// discontinuance code means the case is permanently dead: the exclusion
// marker is written here so future runs filter the case before ever
// reaching the network.
func (s *Session) checkDiscontinued() error {
	page := s.page.Timeout(s.cfg.SettleTimeout())
	defer page.CancelTimeout()

	options, err := page.Elements(selDocTypeOptions)
	if err != nil {
		return asTimeout(eris.Wrap(err, "nyscef: document type options"))
	}
	for _, opt := range options {
		val, err := opt.Attribute("value")
		if err != nil || val == nil {
			continue
		}
		if *val == model.DocTypeDiscontinuance {
			if err := s.excl.Append(s.kase.IndexNumber, "Discontinued"); err != nil {
				return eris.Wrap(err, "nyscef: record discontinued")
			}
			return &DiscontinuedError{IndexNumber: s.kase.IndexNumber}
		}
	}
	return nil
}

// fetchOne handles a single filing type: narrow to its document code, pick
// the candidate row, validate, download, then clear the form for the next
// type. Returns false (with nil error) when no acceptable document exists
// this run.
func (s *Session) fetchOne(ctx context.Context, ft model.FilingType) (bool, error) {
	if err := s.to(DocumentTypeSelected); err != nil {
		return false, err
	}

	page := s.page.Timeout(s.cfg.SettleTimeout())
	typeSel, err := page.Element(selDocTypeSelect)
	page.CancelTimeout()
	if err != nil {
		return false, asTimeout(eris.Wrap(err, "nyscef: document type selector"))
	}
	sel := fmt.Sprintf(optionValueByValue, ft.Code())
	if err := typeSel.Select([]string{sel}, true, rod.SelectorTypeCSSSector); err != nil {
		return false, eris.Wrapf(err, "nyscef: select document type %s", ft)
	}

	nav := s.page.Timeout(s.cfg.NavTimeout())
	err = s.clickAndSettle(nav, selNarrowButton)
	nav.CancelTimeout()
	if err != nil {
		return false, asTimeout(eris.Wrap(err, "nyscef: narrow results"))
	}

	if err := s.to(ResultsListed); err != nil {
		return false, err
	}

	rows, err := s.listRows(ft)
	if err != nil {
		return false, err
	}

	candidate, ok := pickCandidate(rows)
	if !ok || !s.class.AcceptReceivedDate(ft, candidate.Received, s.kase.AuctionDate) {
		// Single-shot per filing: no earlier row is tried. A future run may
		// find a better document once the court publishes one.
		s.log.Warn("no valid document link",
			zap.String("filing_type", ft.String()),
			zap.Int("rows", len(rows)),
			zap.Error(ErrNoValidDocumentLink),
		)
		return false, s.resetForm()
	}

	if err := s.to(Downloading); err != nil {
		return false, err
	}

	dest := s.class.Path(ft, s.kase.IndexNumber)
	cookies, err := s.cookies()
	if err != nil {
		return false, err
	}
	if err := s.dl.Fetch(ctx, candidate.URL, cookies, dest); err != nil {
		return false, asTimeout(eris.Wrapf(err, "nyscef: download %s", ft))
	}

	s.log.Info("filing downloaded",
		zap.String("filing_type", ft.String()),
		zap.String("path", dest),
		zap.Time("received", candidate.Received),
	)
	return true, s.resetForm()
}

// listRows enumerates the results table's (link, received-date) pairs for
// the filing type, in document order.
func (s *Session) listRows(ft model.FilingType) ([]DocRow, error) {
	page := s.page.Timeout(s.cfg.SettleTimeout())
	defer page.CancelTimeout()

	trs, err := page.ElementsX(fmt.Sprintf(xpathDocRows, ft.LinkText()))
	if err != nil {
		return nil, asTimeout(eris.Wrap(err, "nyscef: result rows"))
	}

	var rows []DocRow
	for _, tr := range trs {
		a, err := tr.ElementX(xpathRowLink)
		if err != nil {
			continue
		}
		href, err := a.Attribute("href")
		if err != nil || href == nil || *href == "" {
			continue
		}
		td, err := tr.ElementX(xpathRowRecvTd)
		if err != nil {
			continue
		}
		text, err := td.Text()
		if err != nil {
			continue
		}
		received, err := parseReceivedDate(text)
		if err != nil {
			s.log.Debug("skipping row with unparseable received date", zap.String("cell", text))
			continue
		}
		rows = append(rows, DocRow{URL: *href, Received: received})
	}
	return rows, nil
}

// resetForm clicks the clear button so the next document-type selection
// starts from a clean site-side form, then re-enters CaseSelected.
func (s *Session) resetForm() error {
	page := s.page.Timeout(s.cfg.SettleTimeout())
	defer page.CancelTimeout()

	if err := s.clickAndSettle(page, selClearButton); err != nil {
		return asTimeout(eris.Wrap(err, "nyscef: clear form"))
	}
	return s.to(CaseSelected)
}

// awaitChallenge handles the anti-automation challenge page. Instead of a
// blind sleep it polls the page title a bounded number of times, awaiting
// out-of-band resolution; the typed outcome is either resolution (nil) or
// ErrChallengeUnresolved.
func (s *Session) awaitChallenge(ctx context.Context) error {
	blocked, err := s.challengeUp()
	if err != nil || !blocked {
		return err
	}

	s.log.Info("challenge page detected, awaiting resolution",
		zap.Int("max_polls", s.cfg.ChallengeMaxPolls),
		zap.Duration("poll", s.cfg.ChallengePoll()),
	)
	for i := 0; i < s.cfg.ChallengeMaxPolls; i++ {
		select {
		case <-ctx.Done():
			return asTimeout(ctx.Err())
		case <-time.After(s.cfg.ChallengePoll()):
		}
		blocked, err = s.challengeUp()
		if err != nil {
			return err
		}
		if !blocked {
			s.log.Info("challenge resolved", zap.Int("polls", i+1))
			return nil
		}
	}
	return ErrChallengeUnresolved
}

func (s *Session) challengeUp() (bool, error) {
	info, err := s.page.Info()
	if err != nil {
		return false, asTimeout(eris.Wrap(err, "nyscef: page info"))
	}
	return s.cfg.ChallengeMarker != "" && containsFold(info.Title, s.cfg.ChallengeMarker), nil
}

// clickAndSettle clicks an element and waits for the resulting navigation
// to go network-almost-idle within the page's current timeout.
func (s *Session) clickAndSettle(page *rod.Page, selector string) error {
	el, err := page.Element(selector)
	if err != nil {
		return err
	}
	wait := page.WaitNavigation(proto.PageLifecycleEventNameNetworkAlmostIdle)
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return err
	}
	wait()
	return nil
}

// cookies copies the browser's cookie jar for the direct document fetch,
// which happens over plain HTTP rather than through the page.
func (s *Session) cookies() ([]*http.Cookie, error) {
	raw, err := s.page.Cookies(nil)
	if err != nil {
		return nil, eris.Wrap(err, "nyscef: cookies")
	}
	out := make([]*http.Cookie, 0, len(raw))
	for _, c := range raw {
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return out, nil
}
