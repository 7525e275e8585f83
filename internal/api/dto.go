package api

// listResponse is the envelope for every paginated collection endpoint.
type listResponse[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total,omitempty"`
}

// clipDTO mirrors the wire shape of a clip (reel)
type clipDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ProjectID   string `json:"projectId,omitempty"`
	VideoURL    string `json:"videoUrl,omitempty"`
	ThumbURL    string `json:"thumbUrl,omitempty"`
	DurationSec int    `json:"duration,omitempty"` // Seconds
	CreatedAt   int64  `json:"createdAt,omitempty"`
	LikeCount   int    `json:"likeCount"`
	IsLiked     bool   `json:"isLiked,omitempty"`
}

// projectDTO mirrors the wire shape of an orientation project
type projectDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Developer string `json:"developer,omitempty"`
	Address   string `json:"address,omitempty"`
	City      string `json:"city,omitempty"`
	UnitCount int    `json:"unitCount,omitempty"`
	ThumbURL  string `json:"thumbUrl,omitempty"`
	UpdatedAt int64  `json:"updatedAt,omitempty"`
	LikeCount int    `json:"likeCount"`
	IsLiked   bool   `json:"isLiked,omitempty"`
}

// episodeDTO mirrors the wire shape of a project episode
type episodeDTO struct {
	ID          string `json:"id"`
	ProjectID   string `json:"projectId"`
	Title       string `json:"title"`
	Summary     string `json:"summary,omitempty"`
	Seq         int    `json:"seq,omitempty"`
	VideoURL    string `json:"videoUrl,omitempty"`
	DurationSec int    `json:"duration,omitempty"`
	PublishedAt int64  `json:"publishedAt,omitempty"`
	LikeCount   int    `json:"likeCount"`
	IsLiked     bool   `json:"isLiked,omitempty"`
}

// newsDTO mirrors the wire shape of a news article
type newsDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Body        string `json:"body,omitempty"`
	Source      string `json:"source,omitempty"`
	URL         string `json:"url,omitempty"`
	ThumbURL    string `json:"thumbUrl,omitempty"`
	PublishedAt int64  `json:"publishedAt,omitempty"`
	LikeCount   int    `json:"likeCount"`
	IsLiked     bool   `json:"isLiked,omitempty"`
}
