package query

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"postsmanager/internal/cache"
	"postsmanager/internal/featureflags"
	"postsmanager/internal/filter"
	"postsmanager/internal/models"
	"postsmanager/internal/observability"

	"golang.org/x/sync/errgroup"
)

// Source is the subset of the remote gateway the reader needs.
type Source interface {
	ListPosts(ctx context.Context, limit, skip int) (*models.PostsPage, error)
	SearchPosts(ctx context.Context, query string) (*models.PostsPage, error)
	PostsByTag(ctx context.Context, tag string) (*models.PostsPage, error)
	ListAuthors(ctx context.Context) ([]*models.User, error)
}

// Reader executes a Plan through the cached-read store.
type Reader struct {
	src   Source
	cache *cache.Cache
	ttl   time.Duration
	flags *featureflags.Manager
}

// NewReader creates a Reader. A zero ttl uses cache.DefaultTTL.
func NewReader(src Source, c *cache.Cache, ttl time.Duration, flags *featureflags.Manager) *Reader {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	if c == nil {
		c = cache.New(nil)
	}
	return &Reader{src: src, cache: c, ttl: ttl, flags: flags}
}

// Read runs only the plan's fetch. List and tag results are joined with their
// authors; search results are joined only when search_author_enrichment is on
// for subject.
func (r *Reader) Read(ctx context.Context, plan Plan, subject string) (Result, error) {
	ctx, span := observability.GetTraceLayer().TraceServiceCall(ctx, "QueryReader", "Read."+string(plan.Mode))
	var err error
	defer func() { observability.EndSpan(span, err) }()

	enrich := plan.Mode != ModeSearch || r.flags.Enabled(featureflags.SearchAuthorEnrichment, subject)

	var (
		page    models.PostsPage
		authors []*models.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.cache.Aside(gctx, plan.CacheKey(), &page, r.ttl, func(ctx context.Context) error {
			fetched, err := r.fetch(ctx, plan)
			if err != nil {
				return err
			}
			page = *fetched
			return nil
		})
	})
	if enrich {
		g.Go(func() error {
			var err error
			authors, err = r.authors(gctx)
			return err
		})
	}
	if err = g.Wait(); err != nil {
		return Result{}, err
	}

	posts := page.Posts
	if posts == nil {
		posts = []*models.Post{}
	}
	if enrich {
		joinAuthors(posts, authors)
	}
	sortPosts(posts, plan.SortBy, plan.SortOrder)
	return Result{Posts: posts, Total: page.Total}, nil
}

func (r *Reader) fetch(ctx context.Context, plan Plan) (*models.PostsPage, error) {
	switch plan.Mode {
	case ModeSearch:
		return r.src.SearchPosts(ctx, plan.Query)
	case ModeTag:
		return r.src.PostsByTag(ctx, plan.Tag)
	default:
		return r.src.ListPosts(ctx, plan.Limit, plan.Skip)
	}
}

func (r *Reader) authors(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	err := r.cache.Aside(ctx, cache.AuthorsKey(), &users, r.ttl, func(ctx context.Context) error {
		fetched, err := r.src.ListAuthors(ctx)
		if err != nil {
			return err
		}
		users = fetched
		return nil
	})
	return users, err
}

// joinAuthors attaches the author summary to every post whose userId is known.
func joinAuthors(posts []*models.Post, authors []*models.User) {
	byID := make(map[uint]*models.User, len(authors))
	for _, a := range authors {
		byID[a.ID] = &models.User{ID: a.ID, Username: a.Username, Image: a.Image}
	}
	for _, p := range posts {
		if a, ok := byID[p.UserID]; ok {
			p.Author = a
		}
	}
}

// sortPosts orders posts in place. Equal keys keep server order.
func sortPosts(posts []*models.Post, sortBy, order string) {
	var compare func(a, b *models.Post) int
	switch sortBy {
	case filter.SortID:
		compare = func(a, b *models.Post) int { return cmp.Compare(a.ID, b.ID) }
	case filter.SortTitle:
		compare = func(a, b *models.Post) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	case filter.SortReactions:
		compare = func(a, b *models.Post) int { return cmp.Compare(a.Likes(), b.Likes()) }
	default:
		return
	}
	if order == filter.OrderDesc {
		asc := compare
		compare = func(a, b *models.Post) int { return asc(b, a) }
	}
	slices.SortStableFunc(posts, compare)
}
