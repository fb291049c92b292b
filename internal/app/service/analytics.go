package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sifan077/LinkPulse/internal/app/model"
	"github.com/sifan077/LinkPulse/internal/app/repository"
)

const recentClicksLimit = 10

// AnalyticsService builds click reports for links the caller owns.
type AnalyticsService interface {
	Report(ctx context.Context, ownerID, code string) (*model.AnalyticsReport, error)
}

type analyticsService struct {
	links  repository.LinkRepository
	clicks repository.ClickEventRepository
	loc    *time.Location
}

// NewAnalyticsService buckets clicks in loc; nil means UTC.
func NewAnalyticsService(links repository.LinkRepository, clicks repository.ClickEventRepository, loc *time.Location) AnalyticsService {
	if loc == nil {
		loc = time.UTC
	}
	return &analyticsService{links: links, clicks: clicks, loc: loc}
}

func (s *analyticsService) Report(ctx context.Context, ownerID, code string) (*model.AnalyticsReport, error) {
	link, err := s.links.GetByCodeForOwner(ctx, ownerID, code)
	if err != nil {
		return nil, fmt.Errorf("load link: %w", err)
	}

	events, err := s.clicks.ListByLink(ctx, link.ID)
	if err != nil {
		return nil, fmt.Errorf("list click events: %w", err)
	}

	report := Aggregate(link, events, s.loc)
	return &report, nil
}

// Aggregate computes the report for link from its events. It does not touch storage.
func Aggregate(link *model.ShortLink, events []model.ClickEvent, loc *time.Location) model.AnalyticsReport {
	if loc == nil {
		loc = time.UTC
	}

	report := model.AnalyticsReport{
		ShortCode:           link.ShortCode,
		LongURL:             link.LongURL,
		CreatedAt:           link.CreatedAt,
		LastClickedAt:       link.LastClickedAt,
		TotalClicks:         link.ClickCount,
		DailyDistribution:   make(map[string]int64),
		WeeklyDistribution:  make(map[string]int64),
		MonthlyDistribution: make(map[string]int64),
	}

	for _, e := range events {
		t := e.ClickedAt.In(loc)
		report.DailyDistribution[t.Format("2006-01-02")]++
		report.WeeklyDistribution[weekKey(t)]++
		report.MonthlyDistribution[t.Format("2006-01")]++
	}

	report.TopCountries = topCounts(events, func(e *model.ClickEvent) *string { return e.Country })
	report.TopCities = topCounts(events, func(e *model.ClickEvent) *string { return e.City })
	report.TopReferrers = topCounts(events, func(e *model.ClickEvent) *string { return e.Referrer })
	report.TopBrowsers = topCounts(events, func(e *model.ClickEvent) *string { return e.Browser })
	report.TopDevices = topCounts(events, func(e *model.ClickEvent) *string { return e.DeviceType })
	report.RecentClicks = recentClicks(events, recentClicksLimit)

	return report
}

// weekKey renders YYYY-WW where weeks start on Sunday and days before the
// first Sunday of the year fall in week 00.
func weekKey(t time.Time) string {
	yday := t.YearDay() - 1
	week := (yday + 7 - int(t.Weekday())) / 7
	return fmt.Sprintf("%04d-%02d", t.Year(), week)
}

func topCounts(events []model.ClickEvent, field func(*model.ClickEvent) *string) []model.CountEntry {
	counts := make(map[string]int64)
	for i := range events {
		v := field(&events[i])
		if v == nil || *v == "" {
			continue
		}
		counts[*v]++
	}

	entries := make([]model.CountEntry, 0, len(counts))
	for name, n := range counts {
		entries = append(entries, model.CountEntry{Name: name, Count: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}

func recentClicks(events []model.ClickEvent, limit int) []model.ClickEvent {
	sorted := make([]model.ClickEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ClickedAt.After(sorted[j].ClickedAt)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
