package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"postsmanager/internal/models"
)

// Upstream is an in-memory, dummyjson-compatible API served over httptest.
// Unlike dummyjson it persists writes, so read-after-write can be asserted.
type Upstream struct {
	server *httptest.Server

	mu            sync.Mutex
	users         []*models.User
	posts         []*models.Post
	comments      map[uint][]*models.Comment
	tags          []models.Tag
	nextPostID    uint
	nextCommentID uint
	hits          map[string]int
	failures      map[string]int
	hooks         map[string]func(*http.Request)
	likeEcho      func(requested int) int
	bareEcho      bool
}

// NewUpstream starts a fake API seeded with 5 users and 25 posts.
func NewUpstream(t testing.TB) *Upstream {
	return NewUpstreamWith(t, NewFixtures(7, 5, 25))
}

// NewUpstreamWith starts a fake API serving fx. The server is closed on test cleanup.
func NewUpstreamWith(t testing.TB, fx *Fixtures) *Upstream {
	t.Helper()

	u := &Upstream{
		users:    fx.Users,
		posts:    fx.Posts,
		comments: fx.Comments,
		tags:     fx.Tags,
		hits:     make(map[string]int),
		failures: make(map[string]int),
		hooks:    make(map[string]func(*http.Request)),
	}
	for _, p := range u.posts {
		u.nextPostID = max(u.nextPostID, p.ID)
	}
	for _, list := range u.comments {
		for _, c := range list {
			u.nextCommentID = max(u.nextCommentID, c.ID)
		}
	}

	mux := http.NewServeMux()
	u.handle(mux, "GET /posts", u.listPosts)
	u.handle(mux, "GET /posts/search", u.searchPosts)
	u.handle(mux, "GET /posts/tag/{tag}", u.postsByTag)
	u.handle(mux, "GET /posts/tags", u.listTags)
	u.handle(mux, "POST /posts/add", u.createPost)
	u.handle(mux, "PUT /posts/{id}", u.updatePost)
	u.handle(mux, "DELETE /posts/{id}", u.deletePost)
	u.handle(mux, "GET /users", u.listUsers)
	u.handle(mux, "GET /users/{id}", u.getUser)
	u.handle(mux, "GET /comments/post/{id}", u.commentsForPost)
	u.handle(mux, "POST /comments/add", u.createComment)
	u.handle(mux, "PUT /comments/{id}", u.updateComment)
	u.handle(mux, "PATCH /comments/{id}", u.likeComment)
	u.handle(mux, "DELETE /comments/{id}", u.deleteComment)

	u.server = httptest.NewServer(mux)
	t.Cleanup(u.server.Close)
	return u
}

// URL is the base URL to hand to gateway.New.
func (u *Upstream) URL() string {
	return u.server.URL
}

// Hits returns how many requests matched pattern (e.g. "GET /posts/search").
func (u *Upstream) Hits(pattern string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[pattern]
}

// TotalHits returns the number of requests served so far.
func (u *Upstream) TotalHits() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	n := 0
	for _, v := range u.hits {
		n += v
	}
	return n
}

// FailWith makes every request matching pattern answer status. Zero clears it.
func (u *Upstream) FailWith(pattern string, status int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if status == 0 {
		delete(u.failures, pattern)
		return
	}
	u.failures[pattern] = status
}

// Before runs fn ahead of every request matching pattern, outside the fake's lock.
// Tests use it to hold a request in flight.
func (u *Upstream) Before(pattern string, fn func(*http.Request)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if fn == nil {
		delete(u.hooks, pattern)
		return
	}
	u.hooks[pattern] = fn
}

// SetLikeEcho replaces the likes value echoed by PATCH /comments/{id}. Nil restores the
// real echo. The stored count is always the requested one.
func (u *Upstream) SetLikeEcho(fn func(requested int) int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.likeEcho = fn
}

// SetBareEcho makes comment update and like echoes omit postId.
func (u *Upstream) SetBareEcho(on bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.bareEcho = on
}

// Comments returns a copy of the stored comments of postID.
func (u *Upstream) Comments(postID uint) []models.Comment {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]models.Comment, 0, len(u.comments[postID]))
	for _, c := range u.comments[postID] {
		out = append(out, *c)
	}
	return out
}

// Post returns a copy of the stored post, or false when absent.
func (u *Upstream) Post(id uint) (models.Post, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if p := u.findPost(id); p != nil {
		return *p, true
	}
	return models.Post{}, false
}

func (u *Upstream) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.hits[pattern]++
		status := u.failures[pattern]
		hook := u.hooks[pattern]
		u.mu.Unlock()

		if hook != nil {
			hook(r)
		}
		if status != 0 {
			writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
			return
		}

		u.mu.Lock()
		defer u.mu.Unlock()
		h(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter, what string, id uint) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"message": what + " with id '" + strconv.FormatUint(uint64(id), 10) + "' not found",
	})
}

func pathID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	return uint(id), err == nil
}

func queryInt(r *http.Request, key string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil {
		return v
	}
	return def
}

func (u *Upstream) findPost(id uint) *models.Post {
	for _, p := range u.posts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (u *Upstream) findComment(id uint) *models.Comment {
	for _, list := range u.comments {
		for _, c := range list {
			if c.ID == id {
				return c
			}
		}
	}
	return nil
}

func (u *Upstream) listPosts(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 30)
	skip := queryInt(r, "skip", 0)
	total := len(u.posts)

	start := min(max(skip, 0), total)
	end := total
	if limit > 0 {
		end = min(start+limit, total)
	}
	writeJSON(w, http.StatusOK, models.PostsPage{Posts: u.posts[start:end], Total: total, Skip: skip, Limit: end - start})
}

func (u *Upstream) searchPosts(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("q"))
	matches := []*models.Post{}
	for _, p := range u.posts {
		if strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Body), q) {
			matches = append(matches, p)
		}
	}
	writeJSON(w, http.StatusOK, models.PostsPage{Posts: matches, Total: len(matches), Limit: len(matches)})
}

func (u *Upstream) postsByTag(w http.ResponseWriter, r *http.Request) {
	tag := r.PathValue("tag")
	matches := []*models.Post{}
	for _, p := range u.posts {
		for _, t := range p.Tags {
			if t == tag {
				matches = append(matches, p)
				break
			}
		}
	}
	writeJSON(w, http.StatusOK, models.PostsPage{Posts: matches, Total: len(matches), Limit: len(matches)})
}

func (u *Upstream) listTags(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, u.tags)
}

func (u *Upstream) createPost(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	u.nextPostID++
	post := &models.Post{ID: u.nextPostID, Title: req.Title, Body: req.Body, UserID: req.UserID}
	u.posts = append(u.posts, post)
	writeJSON(w, http.StatusCreated, post)
}

func (u *Upstream) updatePost(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	post := u.findPost(id)
	if post == nil {
		notFound(w, "Post", id)
		return
	}
	var req models.UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Body != nil {
		post.Body = *req.Body
	}
	if req.UserID != nil {
		post.UserID = *req.UserID
	}
	if req.Tags != nil {
		post.Tags = req.Tags
	}
	writeJSON(w, http.StatusOK, post)
}

func (u *Upstream) deletePost(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	for i, p := range u.posts {
		if p.ID == id {
			u.posts = append(u.posts[:i], u.posts[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"id": id, "isDeleted": true})
			return
		}
	}
	notFound(w, "Post", id)
}

func (u *Upstream) listUsers(w http.ResponseWriter, r *http.Request) {
	users := u.users
	if r.URL.Query().Get("select") != "" {
		users = make([]*models.User, 0, len(u.users))
		for _, usr := range u.users {
			users = append(users, &models.User{ID: usr.ID, Username: usr.Username, Image: usr.Image})
		}
	}
	writeJSON(w, http.StatusOK, models.UsersPage{Users: users, Total: len(users)})
}

func (u *Upstream) getUser(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	for _, usr := range u.users {
		if usr.ID == id {
			writeJSON(w, http.StatusOK, usr)
			return
		}
	}
	notFound(w, "User", id)
}

func (u *Upstream) commentsForPost(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	list := u.comments[id]
	if list == nil {
		list = []*models.Comment{}
	}
	writeJSON(w, http.StatusOK, models.CommentsPage{Comments: list, Total: len(list)})
}

func (u *Upstream) createComment(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	u.nextCommentID++
	comment := &models.Comment{ID: u.nextCommentID, Body: req.Body, PostID: req.PostID, UserID: req.UserID}
	for _, usr := range u.users {
		if usr.ID == req.UserID {
			comment.User = models.CommentUser{ID: usr.ID, Username: usr.Username}
		}
	}
	u.comments[req.PostID] = append(u.comments[req.PostID], comment)
	writeJSON(w, http.StatusCreated, comment)
}

func (u *Upstream) updateComment(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	comment := u.findComment(id)
	if comment == nil {
		notFound(w, "Comment", id)
		return
	}
	var req struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	comment.Body = req.Body
	echo := *comment
	if u.bareEcho {
		echo.PostID = 0
	}
	writeJSON(w, http.StatusOK, echo)
}

func (u *Upstream) likeComment(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	comment := u.findComment(id)
	if comment == nil {
		notFound(w, "Comment", id)
		return
	}
	var req struct {
		Likes int `json:"likes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	comment.Likes = req.Likes
	echo := *comment
	if u.likeEcho != nil {
		echo.Likes = u.likeEcho(req.Likes)
	}
	if u.bareEcho {
		echo.PostID = 0
	}
	writeJSON(w, http.StatusOK, echo)
}

func (u *Upstream) deleteComment(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	for postID, list := range u.comments {
		for i, c := range list {
			if c.ID == id {
				u.comments[postID] = append(list[:i], list[i+1:]...)
				writeJSON(w, http.StatusOK, map[string]any{"id": id, "isDeleted": true})
				return
			}
		}
	}
	notFound(w, "Comment", id)
}
