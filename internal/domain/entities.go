package domain

import (
	"fmt"
	"time"
)

// Clip represents a short vertical video (reel) attached to a project.
type Clip struct {
	ID          string        // Server-assigned unique identifier
	Title       string        // Display title
	Description string        // Caption shown under the player
	ProjectID   string        // Owning project ID ("" for standalone reels)
	VideoURL    string        // Playback URL (resolved by the media pipeline)
	ThumbURL    string        // Poster image URL
	Duration    time.Duration // Total runtime
	CreatedAt   int64         // Unix timestamp when published

	LikeCount int  // Number of likes; never negative
	IsLiked   bool // Whether the current user has liked this clip
}

func (c Clip) RecordID() string { return c.ID }

func (c Clip) WithRecordID(id string) Clip {
	c.ID = id
	return c
}

func (c Clip) LikeState() (bool, int) { return c.IsLiked, c.LikeCount }

func (c Clip) WithLikeState(liked bool, count int) Clip {
	c.IsLiked = liked
	c.LikeCount = count
	return c
}

// FormattedDuration returns the duration in a human-readable format
func (c Clip) FormattedDuration() string {
	mins := int(c.Duration.Minutes())
	secs := int(c.Duration.Seconds()) % 60
	if mins > 0 {
		return fmt.Sprintf("%dm %ds", mins, secs)
	}
	return fmt.Sprintf("%ds", secs)
}

// Project represents a real-estate orientation project (a development
// being toured/presented).
type Project struct {
	ID        string
	Name      string
	Developer string // Developer/builder company name
	Address   string
	City      string
	UnitCount int    // Number of units in the development
	ThumbURL  string // Cover image URL
	UpdatedAt int64  // Unix timestamp of last server-side change

	LikeCount int // Favorites count
	IsLiked   bool
}

func (p Project) RecordID() string { return p.ID }

func (p Project) WithRecordID(id string) Project {
	p.ID = id
	return p
}

func (p Project) LikeState() (bool, int) { return p.IsLiked, p.LikeCount }

func (p Project) WithLikeState(liked bool, count int) Project {
	p.IsLiked = liked
	p.LikeCount = count
	return p
}

// Episode represents one installment of a project's orientation series.
type Episode struct {
	ID          string
	ProjectID   string
	Title       string
	Summary     string
	Seq         int // Episode number within the project, 1-based
	VideoURL    string
	Duration    time.Duration
	PublishedAt int64

	LikeCount int
	IsLiked   bool
}

func (e Episode) RecordID() string { return e.ID }

func (e Episode) WithRecordID(id string) Episode {
	e.ID = id
	return e
}

func (e Episode) LikeState() (bool, int) { return e.IsLiked, e.LikeCount }

func (e Episode) WithLikeState(liked bool, count int) Episode {
	e.IsLiked = liked
	e.LikeCount = count
	return e
}

// EpisodeCode returns the formatted episode label (e.g., "EP03")
func (e Episode) EpisodeCode() string {
	return fmt.Sprintf("EP%02d", e.Seq)
}

// NewsItem represents a news/announcement article.
type NewsItem struct {
	ID          string
	Title       string
	Body        string
	Source      string // Publisher name
	URL         string // Canonical article URL
	ThumbURL    string
	PublishedAt int64

	LikeCount int
	IsLiked   bool
}

func (n NewsItem) RecordID() string { return n.ID }

func (n NewsItem) WithRecordID(id string) NewsItem {
	n.ID = id
	return n
}

func (n NewsItem) LikeState() (bool, int) { return n.IsLiked, n.LikeCount }

func (n NewsItem) WithLikeState(liked bool, count int) NewsItem {
	n.IsLiked = liked
	n.LikeCount = count
	return n
}
