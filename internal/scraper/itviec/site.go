package itviec

import (
	"go-safe-scraper/internal/browser"
	"go-safe-scraper/internal/scraper"
)

const Name = "ITViec"

// Site returns the itviec.com search page layout.
func Site() scraper.Site {
	return scraper.Site{
		Name:      Name,
		BaseURL:   "https://itviec.com/",
		SearchURL: "https://itviec.com/it-jobs/{slug}",

		Ready:   browser.CSS("div.job-card"),
		Empty:   browser.CSS(`div[data-jobs--filter-target="searchNoInfo"]:not(.d-none)`),
		Captcha: browser.CSS(`iframe[src*="challenges.cloudflare.com"]`),

		Card:     "div.job-card",
		Title:    "h3",
		Link:     "h3 a, a[href*='/it-jobs/']",
		Company:  "a.text-rich-grey, span.text-rich-grey",
		Salary:   "div.salary span.ips-2",
		Location: "div.text-rich-grey[title]",

		DefaultSalary: "Sign in to view",
		MaxPerQuery:   20,
	}
}

func New(keywords []string, opts ...scraper.ListingOption) *scraper.ListingScraper {
	return scraper.NewListingScraper(Site(), keywords, opts...)
}
