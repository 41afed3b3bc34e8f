// Package feed turns RSS and Atom documents into candidate items.
package feed

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadwatch/internal/fetcher"
	"github.com/sells-group/leadwatch/internal/model"
)

// DefaultURL is the feed polled when none is configured.
const DefaultURL = "https://techcrunch.com/feed/"

// Source yields candidate items for one run.
type Source interface {
	Fetch(ctx context.Context) ([]model.CandidateItem, error)
}

// RSS is a Source reading one RSS or Atom feed over HTTP.
type RSS struct {
	url     string
	fetcher fetcher.Fetcher
	maxBody int64
}

// NewRSS creates a Source for url. An empty url uses DefaultURL.
func NewRSS(url string, f fetcher.Fetcher) *RSS {
	if url == "" {
		url = DefaultURL
	}
	return &RSS{url: url, fetcher: f, maxBody: 10 << 20}
}

// URL returns the feed address.
func (r *RSS) URL() string { return r.url }

// Fetch downloads and parses the feed.
func (r *RSS) Fetch(ctx context.Context) ([]model.CandidateItem, error) {
	zap.L().Info("feed: fetching", zap.String("url", r.url))

	body, err := r.fetcher.Download(ctx, r.url)
	if err != nil {
		return nil, eris.Wrap(err, "feed: download")
	}
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(body, r.maxBody))
	if err != nil {
		return nil, eris.Wrap(err, "feed: read body")
	}

	title, items, err := Parse(ctx, data, r.url)
	if err != nil {
		return nil, err
	}
	zap.L().Info("feed: parsed",
		zap.String("feed", title),
		zap.Int("items", len(items)),
	)
	return items, nil
}

// feedHead holds the channel or feed fields read ahead of the items.
type feedHead struct {
	Title string `xml:"title"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	Date        string `xml:"http://purl.org/dc/elements/1.1/ date"`
}

type atomEntry struct {
	Title     string     `xml:"title"`
	Links     []atomLink `xml:"link"`
	ID        string     `xml:"id"`
	Summary   string     `xml:"summary"`
	Content   string     `xml:"content"`
	Updated   string     `xml:"updated"`
	Published string     `xml:"published"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

// Parse decodes an RSS channel, falling back to an Atom feed, and returns
// the feed title and its items in document order. Items are streamed by
// element name, so RSS 1.0 documents whose items sit beside the channel
// parse the same way as RSS 2.0.
func Parse(ctx context.Context, data []byte, feedURL string) (string, []model.CandidateItem, error) {
	head, ok, err := fetcher.DecodeFirstXML[feedHead](ctx, bytes.NewReader(data), "channel")
	if err != nil {
		return "", nil, eris.Wrap(err, "feed: decode rss")
	}
	if ok {
		rssItems, err := collect[rssItem](ctx, data, "item")
		if err != nil {
			return "", nil, eris.Wrap(err, "feed: decode rss items")
		}
		source := sourceLabel(head.Title)
		items := make([]model.CandidateItem, 0, len(rssItems))
		for _, it := range rssItems {
			link := strings.TrimSpace(it.Link)
			if link == "" && strings.HasPrefix(strings.TrimSpace(it.GUID), "http") {
				link = strings.TrimSpace(it.GUID)
			}
			published := firstNonEmpty(it.PubDate, it.Date)
			items = append(items, model.CandidateItem{
				Title:       CleanText(it.Title),
				URL:         link,
				Source:      source,
				FeedURL:     feedURL,
				Summary:     CleanText(it.Description),
				PublishedAt: ParseTime(published),
			})
		}
		return source, items, nil
	}

	head, ok, err = fetcher.DecodeFirstXML[feedHead](ctx, bytes.NewReader(data), "feed")
	if err != nil {
		return "", nil, eris.Wrap(err, "feed: decode atom")
	}
	if !ok {
		return "", nil, eris.New("feed: document is neither rss nor atom")
	}
	entries, err := collect[atomEntry](ctx, data, "entry")
	if err != nil {
		return "", nil, eris.Wrap(err, "feed: decode atom entries")
	}

	source := sourceLabel(head.Title)
	items := make([]model.CandidateItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, model.CandidateItem{
			Title:       CleanText(e.Title),
			URL:         e.link(),
			Source:      source,
			FeedURL:     feedURL,
			Summary:     CleanText(firstNonEmpty(e.Summary, e.Content)),
			PublishedAt: ParseTime(firstNonEmpty(e.Published, e.Updated)),
		})
	}
	return source, items, nil
}

// collect drains every element named elementName from data.
func collect[T any](ctx context.Context, data []byte, elementName string) ([]T, error) {
	outCh, errCh := fetcher.StreamXML[T](ctx, bytes.NewReader(data), elementName)
	var out []T
	for v := range outCh {
		out = append(out, v)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return out, nil
}

func (e atomEntry) link() string {
	for _, l := range e.Links {
		if l.Rel == "" || l.Rel == "alternate" {
			return strings.TrimSpace(l.Href)
		}
	}
	if len(e.Links) > 0 {
		return strings.TrimSpace(e.Links[0].Href)
	}
	return ""
}

func sourceLabel(title string) string {
	title = CleanText(title)
	if title == "" {
		return model.DefaultSource
	}
	return title
}

// CleanText strips markup from feed text and collapses whitespace.
func CleanText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

var timeLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	time.RFC3339Nano,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02",
}

// ParseTime parses the usual feed date formats. It returns the zero time
// when s is empty or unrecognized.
func ParseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
