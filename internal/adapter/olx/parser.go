package olx

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/listing-monitor/internal/entity"
	"github.com/user/listing-monitor/internal/repository"
	"github.com/user/listing-monitor/pkg/config"
	"github.com/user/listing-monitor/pkg/utils"
)

// Markup lists the selectors and phrases that identify the site's pages.
// Phrases are matched case-insensitively as substrings.
type Markup struct {
	StaleTitleSelector       string
	StaleTitlePhrase         string
	StaleDescriptionSelector string
	StaleDescriptionPhrase   string
	ResultsCountSelector     string
	ResultsCountPhrase       string
	CandidateSelector        string
	DescriptionSelector      string
	DescriptionPhrase        string
	TitleSelector            string
	IDSelector               string
}

// MarkupFromConfig copies the markup section of the configuration.
func MarkupFromConfig(c config.MarkupConfig) Markup {
	return Markup{
		StaleTitleSelector:       c.StaleTitleSelector,
		StaleTitlePhrase:         c.StaleTitlePhrase,
		StaleDescriptionSelector: c.StaleDescriptionSelector,
		StaleDescriptionPhrase:   c.StaleDescriptionPhrase,
		ResultsCountSelector:     c.ResultsCountSelector,
		ResultsCountPhrase:       c.ResultsCountPhrase,
		CandidateSelector:        c.CandidateSelector,
		DescriptionSelector:      c.DescriptionSelector,
		DescriptionPhrase:        c.DescriptionPhrase,
		TitleSelector:            c.TitleSelector,
		IDSelector:               c.IDSelector,
	}
}

// Parser implements repository.SearchPageParser and repository.ItemPageParser.
type Parser struct {
	markup Markup
}

func NewParser(m Markup) *Parser {
	return &Parser{markup: m}
}

// CheckSearchPage tells a results page from the stale-browser interstitial and
// from anything else.
func (p *Parser) CheckSearchPage(body []byte) error {
	doc, err := parse(body)
	if err != nil {
		return err
	}
	return p.check(doc, "search", p.markup.ResultsCountSelector, p.markup.ResultsCountPhrase)
}

// ExtractCandidates returns the absolute, de-duplicated item links of a results page.
// Fragments are dropped so the same item always yields the same link.
func (p *Parser) ExtractCandidates(pageURL string, body []byte) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	doc, err := parse(body)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var links []string
	doc.Find(p.markup.CandidateSelector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" || strings.HasPrefix(href, "#") {
			return
		}
		abs, err := utils.ToAbsoluteURL(base, href)
		if err != nil {
			return
		}
		if i := strings.IndexByte(abs, '#'); i >= 0 {
			abs = abs[:i]
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	})
	return links, nil
}

// CheckItemPage tells an item page from the stale-browser interstitial and
// from anything else.
func (p *Parser) CheckItemPage(body []byte) error {
	doc, err := parse(body)
	if err != nil {
		return err
	}
	return p.check(doc, "item", p.markup.DescriptionSelector, p.markup.DescriptionPhrase)
}

// ExtractItem reads the site-assigned id ("ID: 123") and the title of an item page.
func (p *Parser) ExtractItem(body []byte) (*entity.ItemDetails, error) {
	doc, err := parse(body)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(doc.Find(p.markup.TitleSelector).First().Text())
	if title == "" {
		return nil, repository.NewPageStructureError("item", repository.ReasonMissingField)
	}

	var (
		id    int64
		found bool
	)
	doc.Find(p.markup.IDSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		id, found = parseID(s.Text())
		return !found
	})
	if !found {
		return nil, repository.NewPageStructureError("item", repository.ReasonMissingField)
	}
	return &entity.ItemDetails{ID: id, Title: title}, nil
}

func (p *Parser) check(doc *goquery.Document, page, markerSelector, markerPhrase string) error {
	if p.isStaleBrowser(doc) {
		return repository.NewPageStructureError(page, repository.ReasonStaleBrowser)
	}
	if containsPhrase(doc.Find(markerSelector), markerPhrase) {
		return nil
	}
	return repository.NewPageStructureError(page, repository.ReasonUnknown)
}

func (p *Parser) isStaleBrowser(doc *goquery.Document) bool {
	return containsPhrase(doc.Find(p.markup.StaleTitleSelector), p.markup.StaleTitlePhrase) &&
		containsPhrase(doc.Find(p.markup.StaleDescriptionSelector), p.markup.StaleDescriptionPhrase)
}

func containsPhrase(sel *goquery.Selection, phrase string) bool {
	phrase = strings.ToLower(phrase)
	found := false
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		found = strings.Contains(strings.ToLower(normalizeSpace(s.Text())), phrase)
		return !found
	})
	return found
}

// parseID accepts "ID: 123" and "ID 123".
func parseID(text string) (int64, bool) {
	fields := strings.Fields(strings.ReplaceAll(text, ":", " "))
	if len(fields) != 2 || !strings.EqualFold(fields[0], "id") {
		return 0, false
	}
	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func parse(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}
