package linkedin

import (
	"testing"
	"time"

	"go-safe-scraper/internal/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const guestSearchHTML = `<html><body><ul class="jobs-search__results-list">
<li><div class="base-card base-search-card">
  <a class="base-card__full-link" href="https://vn.linkedin.com/jobs/view/golang-developer-at-acme-4329358250?position=1&amp;refId=abc&amp;trackingId=xyz"></a>
  <h3 class="base-search-card__title"> Golang Developer </h3>
  <h4 class="base-search-card__subtitle"><a>Acme</a></h4>
  <span class="job-search-card__location">Ho Chi Minh City, Vietnam</span>
  <time datetime="2026-10-10">6 days ago</time>
</div></li>
<li><div class="base-card base-search-card">
  <a class="base-card__full-link" href="https://vn.linkedin.com/jobs/view/go-intern-at-beta-4329358251?position=2&amp;refId=def"></a>
  <h3 class="base-search-card__title">Go Intern</h3>
  <h4 class="base-search-card__subtitle"><a>Beta</a></h4>
</div></li>
</ul></body></html>`

func TestParseGuestSearch(t *testing.T) {
	jobs, err := scraper.ParseListings(guestSearchHTML, Site(), time.Now())
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, "Golang Developer", jobs[0].Title)
	assert.Equal(t, "Acme", jobs[0].Company)
	assert.Equal(t, "https://vn.linkedin.com/jobs/view/golang-developer-at-acme-4329358250", jobs[0].URL)
	assert.Equal(t, "Ho Chi Minh City, Vietnam", jobs[0].Location)
	assert.Equal(t, "6 days ago", jobs[0].PostedDate)
	assert.Equal(t, Name, jobs[0].Source)

	assert.Equal(t, "https://vn.linkedin.com/jobs/view/go-intern-at-beta-4329358251", jobs[1].URL)
	assert.Equal(t, "Recent", jobs[1].PostedDate)
}

func TestSearchURL(t *testing.T) {
	assert.Equal(t,
		"https://www.linkedin.com/jobs/search/?keywords=fresher+golang&location=Vietnam&geoId=104195383&f_E=1%2C2&f_TPR=r2592000",
		Site().SearchURLFor("Fresher Golang"))
}
