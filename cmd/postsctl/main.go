// Package main provides a CLI that resolves a page URL query against the posts API.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"postsmanager/internal/cache"
	"postsmanager/internal/config"
	"postsmanager/internal/featureflags"
	"postsmanager/internal/filter"
	"postsmanager/internal/gateway"
	"postsmanager/internal/query"

	"gopkg.in/yaml.v3"
)

type postLine struct {
	ID     uint     `yaml:"id"`
	Title  string   `yaml:"title"`
	Author string   `yaml:"author,omitempty"`
	Likes  int      `yaml:"likes"`
	Tags   []string `yaml:"tags,flow"`
}

type report struct {
	Query   string       `yaml:"query"`
	State   filter.State `yaml:"state"`
	Mode    query.Mode   `yaml:"mode"`
	Total   int          `yaml:"total"`
	CanNext bool         `yaml:"canNext"`
	CanPrev bool         `yaml:"canPrev"`
	Posts   []postLine   `yaml:"posts"`
}

func main() {
	rawQuery := flag.String("query", "", "page URL query string, e.g. \"skip=10&tag=love\"")
	baseURL := flag.String("base", "", "remote API base URL (defaults to API_BASE_URL)")
	timeout := flag.Duration("timeout", 15*time.Second, "overall deadline")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if strings.TrimSpace(*baseURL) != "" {
		cfg.APIBaseURL = *baseURL
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rep, err := resolve(ctx, cfg, *rawQuery)
	if err != nil {
		fmt.Fprintf(os.Stderr, "query failed: %v\n", err)
		os.Exit(1)
	}
	if err := write(os.Stdout, rep); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
		os.Exit(1)
	}
}

// resolve hydrates rawQuery and reads the active mode once, in-process.
func resolve(ctx context.Context, cfg *config.Config, rawQuery string) (*report, error) {
	store, err := cache.NewLocalStore(cfg.LocalCacheSize)
	if err != nil {
		return nil, err
	}
	gw := gateway.New(cfg.APIBaseURL, cfg.UpstreamTimeout())
	reader := query.NewReader(gw, cache.New(store), cfg.CacheTTL(), featureflags.NewManager(cfg.FeatureFlags))

	state := filter.Hydrate(rawQuery)
	plan := query.Select(state)
	res, err := reader.Read(ctx, plan, "postsctl")
	if err != nil {
		return nil, err
	}

	rep := &report{
		Query:   filter.Encode(state),
		State:   state,
		Mode:    plan.Mode,
		Total:   res.Total,
		CanNext: state.CanNext(res.Total),
		CanPrev: state.CanPrev(),
		Posts:   make([]postLine, 0, len(res.Posts)),
	}
	for _, p := range res.Posts {
		line := postLine{ID: p.ID, Title: p.Title, Likes: p.Likes(), Tags: p.Tags}
		if p.Author != nil {
			line.Author = p.Author.Username
		}
		rep.Posts = append(rep.Posts, line)
	}
	return rep, nil
}

func write(w io.Writer, rep *report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return err
	}
	return enc.Close()
}
