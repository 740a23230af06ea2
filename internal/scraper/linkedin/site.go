package linkedin

import (
	"go-safe-scraper/internal/browser"
	"go-safe-scraper/internal/scraper"
)

const Name = "LinkedIn"

// Site returns LinkedIn's public job search, which needs no login. Entry
// level (f_E=1,2) postings from the last month in Vietnam.
func Site() scraper.Site {
	return scraper.Site{
		Name:      Name,
		BaseURL:   "https://www.linkedin.com/",
		SearchURL: "https://www.linkedin.com/jobs/search/?keywords={query}&location=Vietnam&geoId=104195383&f_E=1%2C2&f_TPR=r2592000",

		Ready:   browser.CSS("ul.jobs-search__results-list > li"),
		Empty:   browser.CSS(".jobs-search-no-results-banner, .results__container--no-results"),
		Captcha: browser.CSS("#captcha-internal, form#challenge-form"),
		Dismiss: browser.CSS("button.contextual-sign-in-modal__modal-dismiss, button.modal__dismiss"),

		Card:     "ul.jobs-search__results-list > li",
		Title:    "h3.base-search-card__title",
		Link:     "a.base-card__full-link",
		Company:  "h4.base-search-card__subtitle",
		Location: ".job-search-card__location",
		Posted:   "time",

		MaxPerQuery: 10,
		TrimQuery:   true,
	}
}

func New(keywords []string, opts ...scraper.ListingOption) *scraper.ListingScraper {
	return scraper.NewListingScraper(Site(), keywords, opts...)
}
