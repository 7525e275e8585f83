package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/casaview/casa/internal/api"
	"github.com/casaview/casa/internal/clips"
	"github.com/casaview/casa/internal/config"
	"github.com/casaview/casa/internal/domain"
	"github.com/casaview/casa/internal/log"
	"github.com/casaview/casa/internal/news"
	"github.com/casaview/casa/internal/projects"
	"github.com/casaview/casa/internal/resource"
	"github.com/casaview/casa/internal/search"
	"github.com/casaview/casa/internal/store"
)

// Version is set at build time via -ldflags
var Version = "dev"

const usage = `usage: casa [flags] <command> [args]

commands:
  clips [page]              list the reel feed
  projects [page]           list orientation projects
  episodes <projectID>      list a project's episodes
  news [page]               list news
  like <kind> <id>          like a clip/project/news item
  like episode <projectID> <id>
  unlike <kind> <id>        remove a like
  search <query>            fuzzy-search cached titles
  stats                     print cache occupancy
  clear                     drop all cached data
`

func main() {
	var showVersion bool
	var pageSize int
	var refresh bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.IntVar(&pageSize, "size", 20, "page size for list commands")
	flag.BoolVar(&refresh, "refresh", false, "bypass the cache freshness check")
	flag.Parse()

	if showVersion {
		fmt.Printf("casa %s\n", Version)
		return
	}

	if err := run(flag.Args(), pageSize, refresh); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, pageSize int, refresh bool) error {
	if len(args) == 0 {
		fmt.Print(usage)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := log.Setup(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.Null()
	}
	slog.SetDefault(logger)
	logger.Info("starting casa", "version", Version)

	if !cfg.IsConfigured() {
		return fmt.Errorf("server url and token are not configured (see %s)", "~/.config/casa/config.yaml")
	}

	client := api.NewClient(cfg.Server.URL, cfg.Server.Token, cfg.Cache.RequestTimeout, logger)

	blobs, err := store.New(cfg.Cache.Dir, cfg.Server.URL)
	if err != nil {
		return fmt.Errorf("failed to open cache store: %w", err)
	}
	defer blobs.Close()

	opts := []resource.Option{
		resource.WithExpiryWindow(cfg.Cache.ExpiryWindow),
		resource.WithItemCapacity(cfg.Cache.ItemCapacity),
		resource.WithPageCapacity(cfg.Cache.PageCapacity),
	}
	if !cfg.Server.MutationsEnabled {
		opts = append(opts, resource.WithLocalMutations())
	}

	clipSvc := clips.NewService(resource.New("clips", client.Clips(), blobs, logger, opts...), client, logger)
	defer clipSvc.Close()
	projectSvc := projects.NewService(resource.New("projects", client.Projects(), blobs, logger, opts...), client, blobs, logger, opts...)
	defer projectSvc.Close()
	newsSvc := news.NewService(resource.New("news", client.News(), blobs, logger, opts...), logger)
	defer newsSvc.Close()

	ctx := context.Background()
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "clips":
		items, err := clipSvc.List(ctx, pageArg(rest), pageSize, refresh)
		if err != nil {
			return err
		}
		for _, c := range items {
			fmt.Printf("%-12s %6d likes  %s\n", c.ID, c.LikeCount, c.Title)
		}
		return nil

	case "projects":
		items, err := projectSvc.List(ctx, pageArg(rest), pageSize, refresh)
		if err != nil {
			return err
		}
		for _, p := range items {
			fmt.Printf("%-12s %-24s %s, %s\n", p.ID, p.Name, p.Address, p.City)
		}
		return nil

	case "episodes":
		if len(rest) == 0 {
			return fmt.Errorf("episodes: project id required")
		}
		items, err := projectSvc.Episodes(ctx, rest[0], pageArg(rest[1:]), pageSize, refresh)
		if err != nil {
			return err
		}
		for _, e := range items {
			fmt.Printf("%-12s %s  %s\n", e.ID, e.EpisodeCode(), e.Title)
		}
		return nil

	case "news":
		items, err := newsSvc.List(ctx, pageArg(rest), pageSize, refresh)
		if err != nil {
			return err
		}
		for _, n := range items {
			fmt.Printf("%-12s [%s] %s\n", n.ID, n.Source, n.Title)
		}
		return nil

	case "like", "unlike":
		if len(rest) < 2 {
			return fmt.Errorf("%s: kind and id required", cmd)
		}
		if rest[0] == "episode" {
			if len(rest) < 3 {
				return fmt.Errorf("%s episode: project id and episode id required", cmd)
			}
			var e domain.Episode
			var err error
			if cmd == "like" {
				e, err = projectSvc.LikeEpisode(ctx, rest[1], rest[2])
			} else {
				e, err = projectSvc.UnlikeEpisode(ctx, rest[1], rest[2])
			}
			if err != nil {
				return err
			}
			fmt.Printf("%s now has %d likes\n", e.ID, e.LikeCount)
			return nil
		}
		return runMutation(ctx, cmd, rest[0], rest[1], clipSvc, projectSvc, newsSvc)

	case "search":
		if len(rest) == 0 {
			return fmt.Errorf("search: query required")
		}
		return runSearch(ctx, strings.Join(rest, " "), pageSize, clipSvc, projectSvc, newsSvc, logger)

	case "stats":
		fmt.Printf("clips:    %+v\n", clipSvc.Stats())
		fmt.Printf("projects: %+v\n", projectSvc.Stats())
		fmt.Printf("news:     %+v\n", newsSvc.Stats())
		return nil

	case "clear":
		clipSvc.ClearCache()
		projectSvc.ClearCache()
		newsSvc.ClearCache()
		fmt.Println("cache cleared")
		return nil

	default:
		fmt.Print(usage)
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func runMutation(ctx context.Context, verb, kind, id string, clipSvc *clips.Service, projectSvc *projects.Service, newsSvc *news.Service) error {
	like := verb == "like"
	switch kind {
	case "clip":
		if like {
			c, err := clipSvc.Like(ctx, id)
			if err != nil {
				return err
			}
			fmt.Printf("%s now has %d likes\n", c.ID, c.LikeCount)
			return nil
		}
		c, err := clipSvc.Unlike(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("%s now has %d likes\n", c.ID, c.LikeCount)
		return nil
	case "project":
		var p domain.Project
		var err error
		if like {
			p, err = projectSvc.Favorite(ctx, id)
		} else {
			p, err = projectSvc.Unfavorite(ctx, id)
		}
		if err != nil {
			return err
		}
		fmt.Printf("%s now has %d favorites\n", p.ID, p.LikeCount)
		return nil
	case "news":
		var n domain.NewsItem
		var err error
		if like {
			n, err = newsSvc.Like(ctx, id)
		} else {
			n, err = newsSvc.Unlike(ctx, id)
		}
		if err != nil {
			return err
		}
		fmt.Printf("%s now has %d likes\n", n.ID, n.LikeCount)
		return nil
	default:
		return fmt.Errorf("unknown kind: %s (want clip, project, or news)", kind)
	}
}

// runSearch warms page one of each feed, indexes the titles, and queries
// locally. Fetch failures are fine; search runs over whatever is cached.
func runSearch(ctx context.Context, query string, pageSize int, clipSvc *clips.Service, projectSvc *projects.Service, newsSvc *news.Service, logger *slog.Logger) error {
	searchSvc := search.NewService(logger)

	if cs, err := clipSvc.List(ctx, 1, pageSize, false); err == nil {
		items := make([]search.Item, len(cs))
		for i, c := range cs {
			items[i] = search.Item{ID: c.ID, Title: c.Title, Kind: search.KindClip}
		}
		searchSvc.Index(items)
	}
	if ps, err := projectSvc.List(ctx, 1, pageSize, false); err == nil {
		items := make([]search.Item, len(ps))
		for i, p := range ps {
			items[i] = search.Item{ID: p.ID, Title: p.Name, Kind: search.KindProject}
		}
		searchSvc.Index(items)
	}
	if ns, err := newsSvc.List(ctx, 1, pageSize, false); err == nil {
		items := make([]search.Item, len(ns))
		for i, n := range ns {
			items[i] = search.Item{ID: n.ID, Title: n.Title, Kind: search.KindNews}
		}
		searchSvc.Index(items)
	}

	for _, r := range searchSvc.Query(query) {
		fmt.Printf("%-8s %-12s %s\n", r.Kind, r.ID, r.Title)
	}
	return nil
}

func pageArg(args []string) int {
	if len(args) == 0 {
		return 1
	}
	if n, err := strconv.Atoi(args[0]); err == nil && n >= 1 {
		return n
	}
	return 1
}
