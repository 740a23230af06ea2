package itviec

import (
	"testing"
	"time"

	"go-safe-scraper/internal/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchHTML = `<html><body>
<div class="job-card">
  <h3><a href="/it-jobs/golang-developer-acme-1234">Golang Developer</a></h3>
  <a class="text-rich-grey">Acme Vietnam</a>
  <div class="salary"><span class="ips-2">1,000 - 2,000 USD</span></div>
  <div class="text-rich-grey" title="Ho Chi Minh">Ho Chi Minh</div>
</div>
<div class="job-card">
  <h3>Go Backend Engineer</h3>
  <a href="/it-jobs/go-backend-engineer-beta-5678">details</a>
  <span class="text-rich-grey">Beta</span>
</div>
</body></html>`

func TestParseSearch(t *testing.T) {
	jobs, err := scraper.ParseListings(searchHTML, Site(), time.Now())
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, "Golang Developer", jobs[0].Title)
	assert.Equal(t, "https://itviec.com/it-jobs/golang-developer-acme-1234", jobs[0].URL)
	assert.Equal(t, "Acme Vietnam", jobs[0].Company)
	assert.Equal(t, "1,000 - 2,000 USD", jobs[0].Salary)
	assert.Equal(t, "Ho Chi Minh", jobs[0].Location)

	assert.Equal(t, "https://itviec.com/it-jobs/go-backend-engineer-beta-5678", jobs[1].URL)
	assert.Equal(t, "Sign in to view", jobs[1].Salary)
}

func TestSearchURL(t *testing.T) {
	assert.Equal(t, "https://itviec.com/it-jobs/go-developer", Site().SearchURLFor("Go Developer"))
}
