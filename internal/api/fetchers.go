package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/casaview/casa/internal/domain"
	"github.com/casaview/casa/internal/resource"
)

func pageQuery(page, pageSize int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))
	return q
}

func fetchList[D, T any](ctx context.Context, c *Client, path string, page, pageSize int, mapFn func(D) T) ([]T, error) {
	body, err := c.doRequest(ctx, http.MethodGet, path, pageQuery(page, pageSize), nil, "")
	if err != nil {
		return nil, err
	}
	resp, err := decode[listResponse[D]](c, body)
	if err != nil {
		return nil, err
	}
	return mapSlice(resp.Items, mapFn), nil
}

func fetchOne[D, T any](ctx context.Context, c *Client, path string, mapFn func(D) T) (T, error) {
	var zero T
	body, err := c.doRequest(ctx, http.MethodGet, path, nil, nil, "")
	if err != nil {
		return zero, err
	}
	dto, err := decode[D](c, body)
	if err != nil {
		return zero, err
	}
	return mapFn(dto), nil
}

// sendLike posts or deletes the like resource for an item. The response
// body is not relied upon; the server does not return authoritative
// counts for these endpoints.
func (c *Client) sendLike(ctx context.Context, path string, kind resource.MutationKind) error {
	method := http.MethodPost
	if kind == resource.MutationUnlike {
		method = http.MethodDelete
	}
	_, err := c.doRequest(ctx, method, path, nil, nil, "")
	return err
}

// ClipFetcher exposes the clip endpoints as a resource.Fetcher.
type ClipFetcher struct{ c *Client }

func (c *Client) Clips() ClipFetcher { return ClipFetcher{c} }

func (f ClipFetcher) FetchPage(ctx context.Context, page, pageSize int) ([]domain.Clip, error) {
	return fetchList(ctx, f.c, "/v1/clips", page, pageSize, mapClip)
}

func (f ClipFetcher) FetchByID(ctx context.Context, id string) (domain.Clip, error) {
	return fetchOne(ctx, f.c, "/v1/clips/"+url.PathEscape(id), mapClip)
}

func (f ClipFetcher) SendMutation(ctx context.Context, id string, kind resource.MutationKind) error {
	return f.c.sendLike(ctx, "/v1/clips/"+url.PathEscape(id)+"/like", kind)
}

// ProjectFetcher exposes the project endpoints as a resource.Fetcher.
type ProjectFetcher struct{ c *Client }

func (c *Client) Projects() ProjectFetcher { return ProjectFetcher{c} }

func (f ProjectFetcher) FetchPage(ctx context.Context, page, pageSize int) ([]domain.Project, error) {
	return fetchList(ctx, f.c, "/v1/projects", page, pageSize, mapProject)
}

func (f ProjectFetcher) FetchByID(ctx context.Context, id string) (domain.Project, error) {
	return fetchOne(ctx, f.c, "/v1/projects/"+url.PathEscape(id), mapProject)
}

func (f ProjectFetcher) SendMutation(ctx context.Context, id string, kind resource.MutationKind) error {
	return f.c.sendLike(ctx, "/v1/projects/"+url.PathEscape(id)+"/favorite", kind)
}

// EpisodeFetcher exposes one project's episode endpoints as a
// resource.Fetcher. Each project gets its own fetcher (and cache scope).
type EpisodeFetcher struct {
	c         *Client
	projectID string
}

func (c *Client) Episodes(projectID string) EpisodeFetcher {
	return EpisodeFetcher{c: c, projectID: projectID}
}

// EpisodeFetcher satisfies projects.EpisodeSource.
func (c *Client) EpisodeFetcher(projectID string) resource.Fetcher[domain.Episode] {
	return c.Episodes(projectID)
}

func (f EpisodeFetcher) FetchPage(ctx context.Context, page, pageSize int) ([]domain.Episode, error) {
	path := "/v1/projects/" + url.PathEscape(f.projectID) + "/episodes"
	return fetchList(ctx, f.c, path, page, pageSize, mapEpisode)
}

func (f EpisodeFetcher) FetchByID(ctx context.Context, id string) (domain.Episode, error) {
	return fetchOne(ctx, f.c, "/v1/episodes/"+url.PathEscape(id), mapEpisode)
}

func (f EpisodeFetcher) SendMutation(ctx context.Context, id string, kind resource.MutationKind) error {
	return f.c.sendLike(ctx, "/v1/episodes/"+url.PathEscape(id)+"/like", kind)
}

// NewsFetcher exposes the news endpoints as a resource.Fetcher.
type NewsFetcher struct{ c *Client }

func (c *Client) News() NewsFetcher { return NewsFetcher{c} }

func (f NewsFetcher) FetchPage(ctx context.Context, page, pageSize int) ([]domain.NewsItem, error) {
	return fetchList(ctx, f.c, "/v1/news", page, pageSize, mapNews)
}

func (f NewsFetcher) FetchByID(ctx context.Context, id string) (domain.NewsItem, error) {
	return fetchOne(ctx, f.c, "/v1/news/"+url.PathEscape(id), mapNews)
}

func (f NewsFetcher) SendMutation(ctx context.Context, id string, kind resource.MutationKind) error {
	return f.c.sendLike(ctx, "/v1/news/"+url.PathEscape(id)+"/like", kind)
}
