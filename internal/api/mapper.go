package api

import (
	"time"

	"github.com/casaview/casa/internal/domain"
)

func mapClip(d clipDTO) domain.Clip {
	return domain.Clip{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		ProjectID:   d.ProjectID,
		VideoURL:    d.VideoURL,
		ThumbURL:    d.ThumbURL,
		Duration:    time.Duration(d.DurationSec) * time.Second,
		CreatedAt:   d.CreatedAt,
		LikeCount:   d.LikeCount,
		IsLiked:     d.IsLiked,
	}
}

func mapProject(d projectDTO) domain.Project {
	return domain.Project{
		ID:        d.ID,
		Name:      d.Name,
		Developer: d.Developer,
		Address:   d.Address,
		City:      d.City,
		UnitCount: d.UnitCount,
		ThumbURL:  d.ThumbURL,
		UpdatedAt: d.UpdatedAt,
		LikeCount: d.LikeCount,
		IsLiked:   d.IsLiked,
	}
}

func mapEpisode(d episodeDTO) domain.Episode {
	return domain.Episode{
		ID:          d.ID,
		ProjectID:   d.ProjectID,
		Title:       d.Title,
		Summary:     d.Summary,
		Seq:         d.Seq,
		VideoURL:    d.VideoURL,
		Duration:    time.Duration(d.DurationSec) * time.Second,
		PublishedAt: d.PublishedAt,
		LikeCount:   d.LikeCount,
		IsLiked:     d.IsLiked,
	}
}

func mapNews(d newsDTO) domain.NewsItem {
	return domain.NewsItem{
		ID:          d.ID,
		Title:       d.Title,
		Body:        d.Body,
		Source:      d.Source,
		URL:         d.URL,
		ThumbURL:    d.ThumbURL,
		PublishedAt: d.PublishedAt,
		LikeCount:   d.LikeCount,
		IsLiked:     d.IsLiked,
	}
}

func mapSlice[D, T any](in []D, f func(D) T) []T {
	out := make([]T, len(in))
	for i, d := range in {
		out[i] = f(d)
	}
	return out
}
