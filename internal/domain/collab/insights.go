// internal/domain/collab/insights.go
package collab

import (
	"time"

	"github.com/dalemusser/remixhub/internal/domain/models"
)

const (
	day          = 24 * time.Hour
	recentWindow = 7 * day
)

// Insights are point-in-time metrics derived from a collaboration. Nothing
// here is stored; every call recomputes from current state.
type Insights struct {
	AgeDays    int        `json:"age_days"`
	Engagement Engagement `json:"engagement"`
	Quality    Quality    `json:"quality"`
	Flags      Flags      `json:"flags"`
}

type Engagement struct {
	VersionsPerDay      float64 `json:"versions_per_day"`
	CommentsPerDay      float64 `json:"comments_per_day"`
	CollaboratorsPerDay float64 `json:"collaborators_per_day"`
	TotalViews          int64   `json:"total_views"`
	TotalForks          int64   `json:"total_forks"`
}

type Quality struct {
	AverageVersionQuality float64 `json:"average_version_quality"` // approved 10, pending 5
	Retention             float64 `json:"retention"`               // share of collaborators active in the last 7 days
	CompletionScore       int     `json:"completion_score"`
}

type Flags struct {
	IsHot          bool `json:"is_hot"`
	IsTrending     bool `json:"is_trending"`
	NeedsAttention bool `json:"needs_attention"`
	IsSuccessful   bool `json:"is_successful"`
}

var completionScores = map[models.CollaborationStatus]int{
	models.StatusDraft:     0,
	models.StatusActive:    25,
	models.StatusReviewing: 75,
	models.StatusCompleted: 100,
	models.StatusCancelled: 0,
}

// ComputeInsights derives engagement, quality and activity flags as of now.
// Age is counted in whole days with a floor of one.
func ComputeInsights(c *models.Collaboration, now time.Time) Insights {
	age := now.Sub(c.CreatedAt)
	days := int(age / day)
	if days < 1 {
		days = 1
	}
	d := float64(days)

	comments := 0
	for _, cm := range c.Comments {
		comments += 1 + len(cm.Replies)
	}

	var in Insights
	in.AgeDays = days
	in.Engagement = Engagement{
		VersionsPerDay:      float64(len(c.Versions)) / d,
		CommentsPerDay:      float64(comments) / d,
		CollaboratorsPerDay: float64(len(c.Collaborators)) / d,
		TotalViews:          c.Stats.TotalViews,
		TotalForks:          c.Stats.TotalForks,
	}

	if len(c.Versions) > 0 {
		sum := 0
		for _, v := range c.Versions {
			if v.Approved {
				sum += 10
			} else {
				sum += 5
			}
		}
		in.Quality.AverageVersionQuality = float64(sum) / float64(len(c.Versions))
	}
	if len(c.Collaborators) > 0 {
		active := 0
		for _, cb := range c.Collaborators {
			if now.Sub(cb.LastActive) <= recentWindow {
				active++
			}
		}
		in.Quality.Retention = float64(active) / float64(len(c.Collaborators))
	}
	in.Quality.CompletionScore = completionScores[c.Status]

	recent := 0
	for _, v := range c.Versions {
		if now.Sub(v.CreatedAt) <= recentWindow {
			recent++
		}
	}
	in.Flags = Flags{
		IsHot:          recent > 5,
		IsTrending:     len(c.Collaborators) > 3 && c.Stats.TotalViews > 100,
		NeedsAttention: age > recentWindow && len(c.Versions) == 0,
		IsSuccessful:   c.Status == models.StatusCompleted && c.Stats.TotalForks >= 1,
	}
	return in
}
