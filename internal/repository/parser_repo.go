package repository

import "github.com/user/listing-monitor/internal/entity"

// SearchPageParser maps a search results page to candidate item links.
type SearchPageParser interface {
	// CheckSearchPage returns a *PageStructureError unless the page is a results page.
	CheckSearchPage(body []byte) error
	// ExtractCandidates returns absolute item links found on the page.
	ExtractCandidates(pageURL string, body []byte) ([]string, error)
}

// ItemPageParser maps an item page to its canonical id and title.
type ItemPageParser interface {
	// CheckItemPage returns a *PageStructureError unless the page is an item page.
	CheckItemPage(body []byte) error
	ExtractItem(body []byte) (*entity.ItemDetails, error)
}
