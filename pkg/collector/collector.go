package collector

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/pkg/errors"
	"github.com/spursup/feedserver/pkg/feed"
	"github.com/spursup/feedserver/pkg/metrics"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// some feeds block default fetchers, so we present a real browser
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	defaultAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

	defaultConcurrency       = 4
	defaultSummaryLimit      = 400
	defaultMaxItems          = 250
	defaultFallbackThreshold = 12
)

// Collector fetches the configured feeds and turns them into a snapshot
type (
	Collector struct {
		l                 *zap.Logger
		httpClient        *http.Client
		filter            *Filter
		userAgent         string
		concurrency       int
		summaryLimit      int
		maxItems          int
		fallbackThreshold int
	}
	Option func(*Collector)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func New(l *zap.Logger, opts ...Option) *Collector {
	inst := &Collector{
		l:                 l.Named("collector"),
		httpClient:        http.DefaultClient,
		filter:            NewFilter(),
		userAgent:         defaultUserAgent,
		concurrency:       defaultConcurrency,
		summaryLimit:      defaultSummaryLimit,
		maxItems:          defaultMaxItems,
		fallbackThreshold: defaultFallbackThreshold,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithHTTPClient(v *http.Client) Option {
	return func(o *Collector) {
		o.httpClient = v
	}
}

func WithFilter(v *Filter) Option {
	return func(o *Collector) {
		o.filter = v
	}
}

func WithUserAgent(v string) Option {
	return func(o *Collector) {
		o.userAgent = v
	}
}

func WithConcurrency(v int) Option {
	return func(o *Collector) {
		o.concurrency = v
	}
}

func WithMaxItems(v int) Option {
	return func(o *Collector) {
		o.maxItems = v
	}
}

func WithFallbackThreshold(v int) Option {
	return func(o *Collector) {
		o.fallbackThreshold = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Collect fetches all feeds and assembles a snapshot. Individual feeds may
// fail without failing the collection, their errors are aggregated and
// logged. Collect only errors when every configured feed failed, so a flaky
// source can never wipe the served items.
func (c *Collector) Collect(ctx context.Context, feeds []feed.Feed) (*feed.Snapshot, error) {
	results := make([][]*feed.Item, len(feeds))
	errs := make([]error, len(feeds))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, f := range feeds {
		g.Go(func() error {
			start := time.Now()
			items, err := c.fetch(gCtx, f)
			metrics.FeedFetchDuration.WithLabelValues(f.Name).Observe(time.Since(start).Seconds())
			if err != nil {
				metrics.FeedFetchCounter.WithLabelValues(f.Name, "error").Inc()
				c.l.Warn("failed to fetch feed",
					zap.String("feed", f.Name),
					zap.String("url", f.URL),
					zap.Error(err),
				)
				errs[i] = errors.Wrapf(err, "feed %q", f.Name)
				return nil
			}
			metrics.FeedFetchCounter.WithLabelValues(f.Name, "success").Inc()
			c.l.Debug("fetched feed",
				zap.String("feed", f.Name),
				zap.Int("entries", len(items)),
			)
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	failed := multierr.Combine(errs...)
	if len(feeds) > 0 && len(multierr.Errors(failed)) == len(feeds) {
		return nil, errors.Wrap(failed, "all feeds failed")
	}

	var (
		raw    []*feed.Item
		strict []*feed.Item
	)
	for _, items := range results {
		for _, it := range items {
			raw = append(raw, it)
			if c.filter.StrictKeep(it.Text()) {
				strict = append(strict, it)
			}
		}
	}

	items := dedupe(strict)

	// if the strict pass leaves the list too light, top it up with plain
	// SC/GC mentions from the raw entries
	if len(items) < c.fallbackThreshold {
		var extra []*feed.Item
		for _, it := range raw {
			if c.filter.FallbackKeep(it.Text()) {
				extra = append(extra, it)
			}
		}
		items = dedupe(append(items, extra...))
	}

	sortItems(items)
	if len(items) > c.maxItems {
		items = items[:c.maxItems]
	}

	if failed != nil {
		c.l.Warn("collection finished with partial failures", zap.Error(failed))
	}
	c.l.Info("collection finished",
		zap.Int("raw", len(raw)),
		zap.Int("items", len(items)),
	)

	return feed.NewSnapshot(items), nil
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

// fetch loads and parses a single feed. The first attempt sends browser
// headers, a failing feed gets one plain retry.
func (c *Collector) fetch(ctx context.Context, f feed.Feed) ([]*feed.Item, error) {
	items, err := c.fetchOnce(ctx, f, true)
	if err != nil && ctx.Err() == nil {
		c.l.Debug("fetch with browser headers failed, retrying plain",
			zap.String("feed", f.Name),
			zap.Error(err),
		)
		items, err = c.fetchOnce(ctx, f, false)
	}
	return items, err
}

func (c *Collector) fetchOnce(ctx context.Context, f feed.Feed, browserHeaders bool) ([]*feed.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create feed request")
	}
	if browserHeaders {
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", defaultAccept)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get feed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("bad response code from feed: %s", resp.Status)
	}

	parsed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse feed")
	}

	items := make([]*feed.Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		items = append(items, c.normalize(f, entry))
	}
	return items, nil
}

func (c *Collector) normalize(f feed.Feed, entry *gofeed.Item) *feed.Item {
	link := entry.Link
	if link == "" {
		link = entry.GUID
	}

	summary := entry.Description
	if strings.TrimSpace(summary) == "" {
		summary = entry.Content
	}
	summary = Truncate(StripHTML(summary), c.summaryLimit)

	published := entry.Published
	if published == "" {
		published = entry.Updated
	}

	var publishedAt time.Time
	if entry.PublishedParsed != nil {
		publishedAt = *entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		publishedAt = *entry.UpdatedParsed
	}

	return &feed.Item{
		Source:      f.Name,
		SourceURL:   f.URL,
		Title:       strings.TrimSpace(entry.Title),
		Link:        link,
		Summary:     summary,
		Published:   published,
		PublishedAt: publishedAt,
	}
}

// dedupe drops repeated items, first occurrence wins
func dedupe(items []*feed.Item) []*feed.Item {
	seen := make(map[string]struct{}, len(items))
	out := make([]*feed.Item, 0, len(items))
	for _, it := range items {
		k := it.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}

// sortItems orders newest first. Entries without a parsable date sort last,
// ties fall back to the raw published string.
func sortItems(items []*feed.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.PublishedAt.Equal(b.PublishedAt) {
			if a.PublishedAt.IsZero() {
				return false
			}
			if b.PublishedAt.IsZero() {
				return true
			}
			return a.PublishedAt.After(b.PublishedAt)
		}
		return a.Published > b.Published
	})
}
