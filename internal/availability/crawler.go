package availability

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/example/campwatch/internal/dates"
	"github.com/example/campwatch/internal/logger"
)

const defaultConcurrency = 4

// Crawler turns a region id into the tree of available parks, campgrounds
// and spots for each window. Every node visited costs one Fetcher call;
// siblings are fetched concurrently, at most Concurrency at a time per level.
type Crawler struct {
	Fetcher     Fetcher
	Titles      Titles
	Filter      Filter
	BookingURL  URLBuilder
	RegionID    int64
	Concurrency int
	Logger      logger.Logger
}

// Crawl returns one Weekend per window, in window order. The first failed
// query aborts the whole crawl.
func (c *Crawler) Crawl(ctx context.Context, windows []dates.Window) ([]Weekend, error) {
	out := make([]Weekend, len(windows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.limit())
	for i, w := range windows {
		g.Go(func() error {
			wk, err := c.CrawlWindow(gctx, w)
			if err != nil {
				return err
			}
			out[i] = wk
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// CrawlWindow resolves the available, included parks of the region for w.
// Excluded parks are never queried further.
func (c *Crawler) CrawlWindow(ctx context.Context, w dates.Window) (Weekend, error) {
	parkIDs, err := c.available(ctx, c.RegionID, LevelRegion, w)
	if err != nil {
		return Weekend{}, fmt.Errorf("crawl %s region %d: %w", w, c.RegionID, err)
	}
	c.log().Info("Available parks",
		logger.String("window", w.String()),
		logger.Strings("parks", c.titles(parkIDs)),
	)

	included := make([]int64, 0, len(parkIDs))
	for _, id := range parkIDs {
		if c.Filter.ShouldInclude(id) {
			included = append(included, id)
		}
	}

	parks := make([]Park, len(included))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.limit())
	for i, parkID := range included {
		g.Go(func() error {
			cgs, err := c.campgrounds(gctx, parkID, w)
			if err != nil {
				return fmt.Errorf("crawl %s park %d: %w", w, parkID, err)
			}
			parks[i] = Park{ID: parkID, Name: c.title(parkID), Campgrounds: cgs}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Weekend{}, err
	}

	return Weekend{StartDate: w.StartDate(), EndDate: w.EndDate(), Parks: parks}, nil
}

// Spots returns the available spot ids of a campground for w.
func (c *Crawler) Spots(ctx context.Context, campgroundID int64, w dates.Window) ([]int64, error) {
	return c.available(ctx, campgroundID, LevelCampground, w)
}

func (c *Crawler) campgrounds(ctx context.Context, parkID int64, w dates.Window) ([]Campground, error) {
	ids, err := c.available(ctx, parkID, LevelPark, w)
	if err != nil {
		return nil, err
	}

	out := make([]Campground, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.limit())
	for i, id := range ids {
		g.Go(func() error {
			spots, err := c.Spots(gctx, id, w)
			if err != nil {
				return fmt.Errorf("campground %d: %w", id, err)
			}
			out[i] = Campground{
				ID:    id,
				Name:  c.title(id),
				URL:   c.bookingURL(id, w),
				Key:   CampgroundKey(w, id),
				Spots: spots,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// available queries nodeID and keeps the children reported as available,
// sorted by id so repeated crawls produce the same order.
func (c *Crawler) available(ctx context.Context, nodeID int64, level Level, w dates.Window) ([]int64, error) {
	children, err := c.Fetcher.FetchChildren(ctx, nodeID, level, w)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(children))
	for _, ch := range children {
		if ch.Status == StatusAvailable {
			ids = append(ids, ch.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (c *Crawler) limit() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	return defaultConcurrency
}

func (c *Crawler) title(id int64) string {
	if c.Titles == nil {
		return ""
	}
	return c.Titles.Title(id)
}

func (c *Crawler) titles(ids []int64) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = c.title(id)
	}
	return out
}

func (c *Crawler) bookingURL(id int64, w dates.Window) string {
	if c.BookingURL == nil {
		return ""
	}
	return c.BookingURL(id, w)
}

func (c *Crawler) log() logger.Logger {
	if c.Logger == nil {
		return logger.NewNop()
	}
	return c.Logger
}
