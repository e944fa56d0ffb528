package models

// NewsItem is one headline from a ticker's news table.
type NewsItem struct {
	// Timestamp is "YYYY-MM-DD HH:MM" in 24-hour form.
	Timestamp string `json:"timestamp"`
	Headline  string `json:"headline"`
	URL       string `json:"url"`
	Source    string `json:"source"`
}

// SiteNews is one headline from the site-wide news page.
type SiteNews struct {
	Date     string `json:"date"`
	Headline string `json:"headline"`
	URL      string `json:"url"`
}
