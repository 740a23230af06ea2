// Define an interface for all scrapers
// Ensure consistency

package scraper

import (
	"context"
	"errors"
	"time"

	"go-safe-scraper/internal/browser"
)

type Job struct {
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	URL         string    `json:"url"`
	Location    string    `json:"location"`
	Salary      string    `json:"salary"`
	Techstack   string    `json:"techstack,omitempty"`
	Description string    `json:"description,omitempty"`
	Source      string    `json:"source"`
	PostedDate  string    `json:"posted_date"`
	MatchScore  int       `json:"match_score"`
	ScrapedAt   time.Time `json:"scraped_at"`
}

// ErrBlocked means the site answered with a bot challenge or captcha.
var ErrBlocked = errors.New("blocked by anti-bot protection")

// Scraper defines the interface that all platform scrapers must implement
type Scraper interface {
	// Scrape jobs from the platform using an open session
	Scrape(ctx context.Context, s *browser.Session) ([]Job, error)

	// Name is the platform name (TopCV, ITviec, ...)
	Name() string
}

// Dedupe keeps the first job for every URL.
func Dedupe(jobs []Job) []Job {
	unique := make([]Job, 0, len(jobs))
	seen := make(map[string]bool, len(jobs))
	for _, job := range jobs {
		if seen[job.URL] {
			continue
		}
		seen[job.URL] = true
		unique = append(unique, job)
	}
	return unique
}
