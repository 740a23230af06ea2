package scraper

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"go-safe-scraper/internal/browser"

	"github.com/PuerkitoBio/goquery"
)

// Site describes a job board's search page well enough to scrape it.
// Card and field selectors are CSS and are applied to the page HTML; the
// ElementRefs are resolved live in the browser.
type Site struct {
	Name    string
	BaseURL string
	// SearchURL may contain {slug} (golang-developer) and {query} (golang+developer).
	SearchURL string

	// Ready appears once result cards are rendered.
	Ready browser.ElementRef
	// Empty, if set, marks a "no results" page.
	Empty browser.ElementRef
	// Captcha, if set, marks a captcha challenge.
	Captcha browser.ElementRef
	// Dismiss, if set, is a modal close button clicked when present.
	Dismiss browser.ElementRef

	Card     string
	Title    string
	Link     string
	Company  string
	Salary   string
	Location string
	Posted   string

	DefaultSalary string
	Techstack     string
	MaxPerQuery   int
	// TrimQuery drops tracking parameters so one job keeps one URL.
	TrimQuery bool
}

// SearchURLFor fills the SearchURL placeholders for keyword.
func (s Site) SearchURLFor(keyword string) string {
	words := strings.Fields(strings.ToLower(keyword))
	kw := strings.Join(words, " ")
	r := strings.NewReplacer(
		"{slug}", strings.Join(words, "-"),
		"{query}", url.QueryEscape(kw),
	)
	return r.Replace(s.SearchURL)
}

// ParseListings extracts job cards from a rendered search page.
func ParseListings(html string, site Site, now time.Time) ([]Job, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse %s listing: %w", site.Name, err)
	}
	base, _ := url.Parse(site.BaseURL)

	var jobs []Job
	doc.Find(site.Card).EachWithBreak(func(i int, card *goquery.Selection) bool {
		if site.MaxPerQuery > 0 && len(jobs) >= site.MaxPerQuery {
			return false
		}
		title := field(card, site.Title)
		if title == "" {
			return true
		}
		linkSel := site.Link
		if linkSel == "" {
			linkSel = site.Title
		}
		href, _ := card.Find(linkSel).First().Attr("href")

		salary := field(card, site.Salary)
		if salary == "" {
			salary = site.DefaultSalary
		}
		posted := field(card, site.Posted)
		if posted == "" {
			posted = "Recent"
		}
		jobs = append(jobs, Job{
			Title:      title,
			Company:    field(card, site.Company),
			URL:        resolve(base, href, site.TrimQuery),
			Location:   field(card, site.Location),
			Salary:     salary,
			Techstack:  site.Techstack,
			Source:     site.Name,
			PostedDate: posted,
			ScrapedAt:  now,
		})
		return true
	})
	return jobs, nil
}

// field returns the whitespace-collapsed text of the first match.
func field(card *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.Join(strings.Fields(card.Find(selector).First().Text()), " ")
}

func resolve(base *url.URL, href string, trimQuery bool) string {
	href = strings.TrimSpace(href)
	if href == "" || base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	abs := base.ResolveReference(ref)
	if trimQuery {
		abs.RawQuery = ""
		abs.Fragment = ""
	}
	return abs.String()
}
