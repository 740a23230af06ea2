package topcv

import (
	"go-safe-scraper/internal/browser"
	"go-safe-scraper/internal/scraper"
)

const Name = "TopCV"

// Site returns the TopCV.vn search page layout.
func Site() scraper.Site {
	return scraper.Site{
		Name:      Name,
		BaseURL:   "https://www.topcv.vn/",
		SearchURL: "https://www.topcv.vn/tim-viec-lam-{slug}?sort=new&type_keyword=1&sba=1",

		Ready:   browser.CSS(".job-item-search-result, .job-item"),
		Empty:   browser.CSS(".none-suitable-job"),
		Captcha: browser.CSS(".captcha, .recaptcha, [data-captcha]"),
		Dismiss: browser.CSS("#modal-survey-reliability .btn-cancel"),

		Card:     ".job-item-search-result, .job-item",
		Title:    "h3.title a, .title-block a, a.title",
		Company:  ".company-name, a.company",
		Salary:   ".title-salary, .salary",
		Location: ".address, .location, .label-address",

		DefaultSalary: "Negotiable",
		MaxPerQuery:   20,
	}
}

func New(keywords []string, opts ...scraper.ListingOption) *scraper.ListingScraper {
	return scraper.NewListingScraper(Site(), keywords, opts...)
}
