package scraper

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Tommy88/xparser/internal/domain/entity"
	"github.com/Tommy88/xparser/internal/observability/logging"
)

// RawEntry is one product card as read from the page, before validation.
type RawEntry struct {
	Key      string
	Title    string
	OldPrice string
	NewPrice string
	ImageURL string
}

// Page is the result of extracting one listing page.
type Page struct {
	Entries []RawEntry
	// NextURL is the href of the next-page link, possibly relative. Empty
	// when the listing has no pagination or the last page item is disabled.
	NextURL string
	// Cards counts matched cards, including ones dropped for lacking a key.
	Cards int
}

// Extract reads product cards and the next-page link from doc.
func Extract(doc *goquery.Document, p Profile) Page {
	var page Page

	doc.Find(p.CardSelector).Each(func(i int, card *goquery.Selection) {
		page.Cards++
		entry := RawEntry{
			Title:    attr(card, p.TitleAttr),
			OldPrice: text(card, p.OldPriceSelector, p.MissingValue),
			NewPrice: text(card, p.NewPriceSelector, p.MissingValue),
			ImageURL: image(card, p),
		}
		entry.Key = entryKey(card, entry.Title, p)
		if entry.Key == "" {
			slog.Debug("skipping card without key", slog.Int("index", i))
			return
		}
		page.Entries = append(page.Entries, entry)
	})

	page.NextURL = nextLink(doc, p)
	return page
}

// entryKey picks the product id, or the title for the title scheme. A card
// without an id falls back to its title.
func entryKey(card *goquery.Selection, title string, p Profile) string {
	if strings.EqualFold(p.KeyScheme, KeySchemeTitle) {
		return title
	}
	if id := attr(card, p.IDAttr); id != "" {
		return id
	}
	return title
}

func attr(s *goquery.Selection, name string) string {
	if name == "" {
		return ""
	}
	v, _ := s.Attr(name)
	return strings.TrimSpace(v)
}

func text(card *goquery.Selection, selector, missing string) string {
	if selector == "" {
		return missing
	}
	el := card.Find(selector).First()
	if el.Length() == 0 {
		return missing
	}
	return strings.TrimSpace(el.Text())
}

func image(card *goquery.Selection, p Profile) string {
	el := card.Find(p.ImageSelector).First()
	src, ok := el.Attr(p.ImageAttr)
	if !ok {
		return p.MissingValue
	}
	src = strings.TrimSpace(src)
	if p.ImageCutMarker != "" {
		if i := strings.Index(src, p.ImageCutMarker); i >= 0 {
			src = src[:i]
		}
	}
	return src
}

// nextLink looks at the last pagination item only. A disabled last item marks
// the final page.
func nextLink(doc *goquery.Document, p Profile) string {
	if p.PaginationSelector == "" {
		return ""
	}
	items := doc.Find(p.PaginationSelector)
	if items.Length() == 0 {
		return ""
	}
	last := items.Last()
	if p.DisabledClass != "" && last.HasClass(p.DisabledClass) {
		return ""
	}
	link := last
	if p.NextLinkSelector != "" {
		link = last.Find(p.NextLinkSelector).First()
	}
	href, _ := link.Attr("href")
	return strings.TrimSpace(href)
}

// Observe turns raw entries into a snapshot, dropping entries whose new price
// is not a price or whose image is not an absolute URL. Later duplicates of a
// key replace earlier ones. The second return value lists dropped keys.
func Observe(entries []RawEntry, freeToken string) (entity.Snapshot, []string) {
	snap := make(entity.Snapshot, len(entries))
	var dropped []string
	for _, e := range entries {
		a := entity.Attributes{
			Title:    e.Title,
			OldPrice: e.OldPrice,
			NewPrice: e.NewPrice,
			ImageURL: e.ImageURL,
		}
		if err := entity.ValidateAttributes(a, freeToken); err != nil {
			slog.Debug("skipping entry",
				slog.String("key", e.Key),
				logging.Error(err))
			dropped = append(dropped, e.Key)
			continue
		}
		snap[e.Key] = a
	}
	return snap, dropped
}
