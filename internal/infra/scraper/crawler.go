package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/Tommy88/xparser/internal/domain/entity"
	"github.com/Tommy88/xparser/internal/observability/logging"
	"github.com/Tommy88/xparser/internal/observability/metrics"
)

// ErrNoCards is returned when a listing page contains no product cards. It
// fails the whole crawl, not just the page.
var ErrNoCards = fmt.Errorf("no product cards on page: %w", entity.ErrNoEntries)

// DocumentFetcher fetches and parses one page.
type DocumentFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*goquery.Document, error)
}

// Reasons a crawl stops before reaching a page without a next link.
const (
	TruncatedOffSite  = "off_site"
	TruncatedMaxPages = "max_pages"
	TruncatedLoop     = "loop"
)

// CrawlStats describes a finished crawl.
type CrawlStats struct {
	Pages   int
	Cards   int
	Entries int
	Dropped int

	// Truncated is empty when the crawl reached the last page, otherwise the
	// reason it stopped early. Entries on unvisited pages are missing from
	// the snapshot.
	Truncated string
}

// Crawler walks a paginated listing and builds the observed snapshot.
type Crawler struct {
	fetcher DocumentFetcher
	profile Profile
}

// NewCrawler creates a crawler for profile.
func NewCrawler(fetcher DocumentFetcher, profile Profile) *Crawler {
	return &Crawler{fetcher: fetcher, profile: profile}
}

// Crawl fetches profile.URL and follows next-page links until the last page,
// a repeated URL, a link to another host or MaxPages. Any fetch failure or
// card-less page fails the whole crawl.
func (c *Crawler) Crawl(ctx context.Context) (entity.Snapshot, CrawlStats, error) {
	var (
		stats   CrawlStats
		entries []RawEntry
		visited = make(map[string]bool)
		current = c.profile.URL
	)
	if err := validatePageURL(current, ""); err != nil {
		return nil, stats, err
	}
	host := hostOf(current)

	for current != "" {
		if err := validatePageURL(current, host); err != nil {
			slog.Warn("refusing next page link, stopping crawl",
				slog.String("url", current),
				logging.Error(err))
			stats.Truncated = TruncatedOffSite
			break
		}
		if stats.Pages >= c.profile.MaxPages {
			slog.Warn("page limit reached, stopping crawl",
				slog.Int("max_pages", c.profile.MaxPages),
				slog.String("next_url", current))
			stats.Truncated = TruncatedMaxPages
			break
		}
		if visited[current] {
			slog.Warn("pagination loop detected", slog.String("url", current))
			stats.Truncated = TruncatedLoop
			break
		}
		visited[current] = true

		slog.Info("loading catalog page", slog.String("url", current))
		doc, err := c.fetcher.Fetch(ctx, current)
		if err != nil {
			return nil, stats, err
		}
		stats.Pages++

		page := Extract(doc, c.profile)
		if page.Cards == 0 {
			return nil, stats, fmt.Errorf("%w: %s", ErrNoCards, current)
		}
		stats.Cards += page.Cards
		entries = append(entries, page.Entries...)

		current = resolve(current, page.NextURL)
	}

	snap, dropped := Observe(entries, c.profile.FreeToken)
	stats.Entries = len(snap)
	stats.Dropped = len(dropped)
	return snap, stats, nil
}

// Observe crawls the catalog and returns the valid entries. It logs the crawl
// volume and records it in the catalog metrics.
func (c *Crawler) Observe(ctx context.Context) (entity.Snapshot, error) {
	snap, stats, err := c.Crawl(ctx)
	if err != nil {
		return nil, err
	}
	metrics.RecordCrawl(stats.Pages, stats.Entries, stats.Dropped)
	if stats.Truncated != "" {
		metrics.RecordCrawlTruncated(stats.Truncated)
	}
	slog.Info("catalog crawled",
		slog.String("profile", c.profile.Name),
		slog.Int("pages", stats.Pages),
		slog.Int("cards", stats.Cards),
		slog.Int("entries", stats.Entries),
		slog.Int("dropped", stats.Dropped),
		slog.String("truncated", stats.Truncated))
	return snap, nil
}

// resolve turns href into an absolute URL relative to base. An empty or
// unparsable href ends the crawl.
func resolve(base, href string) string {
	if href == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		slog.Warn("invalid next page link", slog.String("href", href), logging.Error(err))
		return ""
	}
	u := b.ResolveReference(ref)
	u.Fragment = ""
	return u.String()
}
