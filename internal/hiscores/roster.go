package hiscores

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	rowSelector  = "tr.personal-hiscores__row"
	nameSelector = "a"
	cellSelector = "td.right"
	nextSelector = "a.personal-hiscores__pagination-arrow--down"
)

// parseRosterPage extracts the ranking rows of page and whether the page links
// to a later one. Rows without a name link or score cell are skipped; a score
// that is not a number fails the whole page with ErrMalformedPage.
func parseRosterPage(r io.Reader, page int) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPage, err)
	}

	result := &Page{
		Entries: []Entry{},
		HasNext: hasNextPage(doc, page),
	}

	var rowErr error
	doc.Find(rowSelector).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		link := row.Find(nameSelector).First()
		if link.Length() == 0 {
			return true
		}
		// First right-aligned cell is the rank, second is the score
		cells := row.Find(cellSelector)
		if cells.Length() < 2 {
			return true
		}

		score, err := parseScore(cells.Eq(1).Text())
		if err != nil {
			rowErr = err
			return false
		}
		result.Entries = append(result.Entries, Entry{
			Name:  normaliseName(link.Text()),
			Score: score,
		})
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	return result, nil
}

// hasNextPage reports whether the "next" arrow points past page
func hasNextPage(doc *goquery.Document, page int) bool {
	href, ok := doc.Find(nextSelector).First().Attr("href")
	if !ok {
		return false
	}
	next, ok := pageFromHref(href)
	if !ok {
		return false
	}
	return next > page
}

func pageFromHref(href string) (int, bool) {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(u.Query().Get("page"))
	if err != nil {
		return 0, false
	}
	return n, true
}

func normaliseName(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
}

func parseScore(s string) (int, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, fmt.Errorf("%w: score %q", ErrMalformedPage, s)
	}
	return n, nil
}
