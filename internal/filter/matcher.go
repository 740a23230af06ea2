package filter

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"go-safe-scraper/internal/config"
	"go-safe-scraper/internal/scraper"
)

var (
	levelRegex      = regexp.MustCompile(`\b(fresher|intern|junior|entry[\s-]?level|graduate|trainee)\b`)
	techStackRegex  = regexp.MustCompile(`\b(docker|kubernetes|aws|gcp|microservices|rest\s*api|grpc|backend|back-end)\b`)
	experienceRegex = regexp.MustCompile(`\b([3-9]|\d{2,})\s*(\+|plus)?\s*(nam|years?|yoe)\b`)
)

// DefaultLocations are preferred when the config lists none.
var DefaultLocations = []string{"can tho", "remote", "tu xa", "ho chi minh", "hcm", "saigon", "sai gon", "tphcm"}

// Matcher decides which scraped jobs are worth sending and ranks them.
type Matcher struct {
	keywords  *regexp.Regexp
	exclude   *regexp.Regexp
	locations []string
	maxAge    time.Duration
	now       func() time.Time
}

func NewMatcher(cfg config.SearchConfig) *Matcher {
	locations := DefaultLocations
	if len(cfg.Locations) > 0 {
		locations = make([]string, len(cfg.Locations))
		for i, l := range cfg.Locations {
			locations[i] = Normalize(l)
		}
	}
	maxAge := time.Duration(cfg.MaxAgeDays) * 24 * time.Hour
	if maxAge <= 0 {
		maxAge = 60 * 24 * time.Hour
	}
	return &Matcher{
		keywords:  wordsRegex(cfg.Keywords),
		exclude:   wordsRegex(cfg.ExcludeKeywords),
		locations: locations,
		maxAge:    maxAge,
		now:       time.Now,
	}
}

// wordsRegex matches any of words as whole words, or nil for none.
func wordsRegex(words []string) *regexp.Regexp {
	var parts []string
	for _, w := range words {
		w = Normalize(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		fields := strings.Fields(w)
		for i, f := range fields {
			fields[i] = regexp.QuoteMeta(f)
		}
		parts = append(parts, strings.Join(fields, `\s+`))
	}
	if len(parts) == 0 {
		return nil
	}
	return regexp.MustCompile(`\b(` + strings.Join(parts, "|") + `)\b`)
}

func jobText(job scraper.Job) string {
	return Normalize(job.Title + " " + job.Description)
}

// Include reports whether job mentions a keyword, avoids exclusions, does
// not ask for 3+ years and is recent enough.
func (m *Matcher) Include(job scraper.Job) bool {
	text := jobText(job)
	if m.keywords != nil && !m.keywords.MatchString(text) {
		return false
	}
	if m.exclude != nil && m.exclude.MatchString(text) {
		return false
	}
	if experienceRegex.MatchString(text) {
		return false
	}
	return IsRecent(job.PostedDate, m.now(), m.maxAge)
}

// Score ranks a job from 0 to 10.
func (m *Matcher) Score(job scraper.Job) int {
	score := 0
	text := Normalize(job.Title + " " + job.Description + " " + job.Company)

	if m.keywords != nil && m.keywords.MatchString(text) {
		score += 3
	}
	if levelRegex.MatchString(text) {
		score += 3
	}
	if m.preferredLocation(Normalize(job.Location)) {
		score += 2
	}
	if techStackRegex.MatchString(text) {
		score += 1
	}
	if experienceRegex.MatchString(text) {
		score -= 5
	}

	return min(max(score, 0), 10)
}

func (m *Matcher) preferredLocation(location string) bool {
	for _, loc := range m.locations {
		if strings.Contains(location, loc) {
			return true
		}
	}
	return false
}

// Apply keeps included jobs, sets their MatchScore and returns them best first.
func (m *Matcher) Apply(jobs []scraper.Job) []scraper.Job {
	var out []scraper.Job
	for _, job := range jobs {
		if !m.Include(job) {
			continue
		}
		job.MatchScore = m.Score(job)
		out = append(out, job)
	}
	sortByScore(out)
	return out
}

func sortByScore(jobs []scraper.Job) {
	slices.SortStableFunc(jobs, func(a, b scraper.Job) int {
		return b.MatchScore - a.MatchScore
	})
}
