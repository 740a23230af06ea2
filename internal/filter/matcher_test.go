package filter

import (
	"testing"
	"time"

	"go-safe-scraper/internal/config"
	"go-safe-scraper/internal/scraper"

	"github.com/stretchr/testify/assert"
)

func newTestMatcher() *Matcher {
	m := NewMatcher(config.SearchConfig{
		Keywords:        []string{"golang", "go developer"},
		ExcludeKeywords: []string{"senior", "lead"},
	})
	m.now = func() time.Time { return time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC) }
	return m
}

func TestCalculateMatchScore(t *testing.T) {
	tests := []struct {
		name     string
		job      scraper.Job
		expected int
	}{
		{
			name: "Perfect match",
			job: scraper.Job{
				Title:       "Junior Golang Developer",
				Description: "Docker, Kubernetes, Remote",
				Location:    "Can Tho",
			},
			expected: 9,
		},
		{
			name: "Senior penalty",
			job: scraper.Job{
				Title:       "Senior Golang Developer with 5 years exp",
				Description: "Remote",
			},
			expected: 0,
		},
		{
			name: "Vietnamese location with diacritics",
			job: scraper.Job{
				Title:    "Go Developer",
				Location: "Thành phố Hồ Chí Minh",
			},
			expected: 5,
		},
	}

	m := newTestMatcher()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, m.Score(tt.job))
		})
	}
}

func TestMatcher_Include(t *testing.T) {
	m := newTestMatcher()
	tests := []struct {
		name string
		job  scraper.Job
		want bool
	}{
		{"keyword", scraper.Job{Title: "Golang Engineer"}, true},
		{"multi word keyword", scraper.Job{Title: "Go  Developer (Intern)"}, true},
		{"no keyword", scraper.Job{Title: "Java Developer"}, false},
		{"go inside another word", scraper.Job{Title: "Google Ads Specialist"}, false},
		{"excluded", scraper.Job{Title: "Senior Golang Engineer"}, false},
		{"experience in vietnamese", scraper.Job{Title: "Golang Dev", Description: "Yêu cầu 3 năm kinh nghiệm"}, false},
		{"old post", scraper.Job{Title: "Golang Dev", PostedDate: "2026-01-01"}, false},
		{"fresh post", scraper.Job{Title: "Golang Dev", PostedDate: "10/10/2026"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Include(tt.job))
		})
	}
}

func TestMatcher_Apply(t *testing.T) {
	m := newTestMatcher()
	jobs := []scraper.Job{
		{Title: "Golang Developer", URL: "a"},
		{Title: "PHP Developer", URL: "b"},
		{Title: "Junior Golang Developer", Location: "Remote", URL: "c"},
	}
	got := m.Apply(jobs)
	if assert.Len(t, got, 2) {
		assert.Equal(t, "c", got[0].URL)
		assert.Equal(t, 8, got[0].MatchScore)
		assert.Equal(t, 3, got[1].MatchScore)
	}
}

func TestMatcher_ConfiguredLocations(t *testing.T) {
	m := NewMatcher(config.SearchConfig{Keywords: []string{"golang"}, Locations: []string{"Đà Nẵng"}})
	assert.Equal(t, 5, m.Score(scraper.Job{Title: "Golang", Location: "da nang"}))
	assert.Equal(t, 3, m.Score(scraper.Job{Title: "Golang", Location: "Remote"}))
}

func TestIsRecent(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	maxAge := 60 * 24 * time.Hour
	tests := map[string]bool{
		"":                     true,
		"Recent":               true,
		"2026-10-01":           true,
		"2026-10-01T08:00:00Z": true,
		"2026-06-01":           false,
		"2026-12-01":           false,
		"01/10/2026":           true,
		"01/01/2026":           false,
		"Posted in 2025":       true,
		"Posted in 2023":       false,
		"yesterday":            true,
	}
	for in, want := range tests {
		assert.Equal(t, want, IsRecent(in, now, maxAge), in)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "can tho", Normalize("Cần Thơ"))
	assert.Equal(t, "da nang", Normalize("Đà Nẵng"))
	assert.Equal(t, "golang", Normalize("GoLang"))
}
