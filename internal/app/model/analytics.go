package model

import "time"

// CountEntry is one row of a grouped count, e.g. a country and its clicks.
type CountEntry struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// AnalyticsReport summarises every stored click of a single short link.
type AnalyticsReport struct {
	ShortCode     string     `json:"short_code"`
	LongURL       string     `json:"long_url"`
	CreatedAt     time.Time  `json:"created_at"`
	LastClickedAt *time.Time `json:"last_clicked_at"`
	TotalClicks   int64      `json:"total_clicks"`

	DailyDistribution   map[string]int64 `json:"daily_distribution"`
	WeeklyDistribution  map[string]int64 `json:"weekly_distribution"`
	MonthlyDistribution map[string]int64 `json:"monthly_distribution"`

	TopCountries []CountEntry `json:"top_countries"`
	TopCities    []CountEntry `json:"top_cities"`
	TopReferrers []CountEntry `json:"top_referrers"`
	TopBrowsers  []CountEntry `json:"top_browsers"`
	TopDevices   []CountEntry `json:"top_devices"`

	RecentClicks []ClickEvent `json:"recent_clicks"`
}
