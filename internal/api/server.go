// Package api exposes the configured accounts over a JSON HTTP
// surface, one route tree per platform.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/hmdqr/FastSM/internal/model"
	"github.com/hmdqr/FastSM/internal/platform"
)

// Capability surfaces beyond the core platform.Account contract.
// Handlers probe for them with a type assertion and answer 404 when
// the account's platform has no such concept.
type publicTimeliner interface {
	LocalTimeline(ctx context.Context, page platform.Page) []*model.Status
	FederatedTimeline(ctx context.Context, page platform.Page) []*model.Status
}

type feedBrowser interface {
	FeedTimeline(ctx context.Context, feedID string, page platform.Page) []*model.Status
	SavedFeeds(ctx context.Context) []model.Feed
	SearchFeeds(ctx context.Context, query string, limit int) []model.Feed
}

type quotePoster interface {
	Quote(ctx context.Context, quoted *model.Status, text, visibility string) *model.Status
}

// Server routes requests to the account for the platform named in the
// URL. Adapter calls never fail transport-wise, so most handlers just
// serialize whatever the adapter returned.
type Server struct {
	accounts map[string]platform.Account
	log      zerolog.Logger
}

func NewServer(accounts map[string]platform.Account, log zerolog.Logger) *Server {
	return &Server{accounts: accounts, log: log}
}

// Router builds the route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(newRateLimiter(100, time.Minute).middleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/platforms", s.handlePlatforms)

		r.Route("/{platform}", func(r chi.Router) {
			r.Get("/me", s.handleMe)
			r.Get("/features", s.handleFeatures)

			r.Get("/timelines/home", s.handleHomeTimeline)
			r.Get("/timelines/mentions", s.handleMentions)
			r.Get("/timelines/local", s.handleLocalTimeline)
			r.Get("/timelines/federated", s.handleFederatedTimeline)
			r.Get("/timelines/feed", s.handleFeedTimeline)
			r.Get("/feeds", s.handleSavedFeeds)
			r.Get("/search/feeds", s.handleSearchFeeds)
			r.Get("/notifications", s.handleNotifications)
			r.Get("/favourites", s.handleFavourites)
			r.Get("/conversations", s.handleConversations)
			r.Get("/timelines/user", s.handleUserStatuses)
			r.Get("/timelines/list", s.handleListTimeline)
			r.Get("/search/statuses", s.handleSearchStatuses)

			// Status ids can be at:// uris, so they travel as query
			// parameters rather than path segments.
			r.Get("/status", s.handleStatus)
			r.Get("/context", s.handleContext)
			r.Post("/statuses", s.handlePost)
			r.Post("/statuses/quote", s.handleQuote)
			r.Post("/statuses/{action}", s.handleStatusAction)

			r.Get("/user", s.handleUser)
			r.Get("/search/users", s.handleSearchUsers)
			r.Get("/followers", s.handleFollowers)
			r.Get("/following", s.handleFollowing)
			r.Post("/graph/{action}", s.handleGraphAction)

			r.Get("/lists", s.handleLists)
			r.Get("/lists/{listID}/members", s.handleListMembers)
			r.Post("/lists/{listID}/members", s.handleListAdd)
			r.Delete("/lists/{listID}/members", s.handleListRemove)
		})
	})

	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error":   errorType,
		"message": message,
	}); err != nil {
		s.log.Error().Err(err).Msg("failed to encode error response")
	}
}

// account resolves the platform path parameter; a nil return means the
// 404 was already written.
func (s *Server) account(w http.ResponseWriter, r *http.Request) platform.Account {
	name := chi.URLParam(r, "platform")
	acct, ok := s.accounts[name]
	if !ok {
		s.writeError(w, http.StatusNotFound, "UnknownPlatform", "no account configured for platform "+name)
		return nil
	}
	return acct
}

func pageFromQuery(r *http.Request) platform.Page {
	q := r.URL.Query()
	page := platform.Page{
		MaxID:   q.Get("max_id"),
		SinceID: q.Get("since_id"),
		MinID:   q.Get("min_id"),
		Cursor:  q.Get("cursor"),
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		page.Limit = limit
	}
	return page
}

func limitFromQuery(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return 40
	}
	return limit
}

func (s *Server) handlePlatforms(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(s.accounts))
	for name := range s.accounts {
		names = append(names, name)
	}
	s.writeJSON(w, map[string]any{"platforms": names})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	s.writeJSON(w, acct.Me())
}

func (s *Server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	s.writeJSON(w, map[string]any{
		"features":  acct.Features(),
		"max_chars": acct.MaxChars(),
	})
}

func (s *Server) handleHomeTimeline(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	s.writeJSON(w, acct.HomeTimeline(r.Context(), pageFromQuery(r)))
}

func (s *Server) handleMentions(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	s.writeJSON(w, acct.Mentions(r.Context(), pageFromQuery(r)))
}

func (s *Server) handleLocalTimeline(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	pt, ok := acct.(publicTimeliner)
	if !ok {
		s.writeError(w, http.StatusNotFound, "Unsupported", "platform has no local timeline")
		return
	}
	s.writeJSON(w, pt.LocalTimeline(r.Context(), pageFromQuery(r)))
}

func (s *Server) handleFederatedTimeline(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	pt, ok := acct.(publicTimeliner)
	if !ok {
		s.writeError(w, http.StatusNotFound, "Unsupported", "platform has no federated timeline")
		return
	}
	s.writeJSON(w, pt.FederatedTimeline(r.Context(), pageFromQuery(r)))
}

func (s *Server) handleFeedTimeline(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	fb, ok := acct.(feedBrowser)
	if !ok {
		s.writeError(w, http.StatusNotFound, "Unsupported", "platform has no feeds")
		return
	}
	feedID := r.URL.Query().Get("feed")
	if feedID == "" {
		s.writeError(w, http.StatusBadRequest, "InvalidRequest", "feed is required")
		return
	}
	s.writeJSON(w, fb.FeedTimeline(r.Context(), feedID, pageFromQuery(r)))
}

func (s *Server) handleSavedFeeds(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	fb, ok := acct.(feedBrowser)
	if !ok {
		s.writeError(w, http.StatusNotFound, "Unsupported", "platform has no feeds")
		return
	}
	s.writeJSON(w, fb.SavedFeeds(r.Context()))
}

func (s *Server) handleSearchFeeds(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	fb, ok := acct.(feedBrowser)
	if !ok {
		s.writeError(w, http.StatusNotFound, "Unsupported", "platform has no feeds")
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "InvalidRequest", "q is required")
		return
	}
	s.writeJSON(w, fb.SearchFeeds(r.Context(), query, limitFromQuery(r)))
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	s.writeJSON(w, acct.Notifications(r.Context(), pageFromQuery(r)))
}

func (s *Server) handleFavourites(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	s.writeJSON(w, acct.Favourites(r.Context(), pageFromQuery(r)))
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	s.writeJSON(w, acct.Conversations(r.Context(), pageFromQuery(r)))
}

func (s *Server) handleUserStatuses(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		s.writeError(w, http.StatusBadRequest, "InvalidRequest", "user_id is required")
		return
	}
	s.writeJSON(w, acct.UserStatuses(r.Context(), userID, pageFromQuery(r)))
}

func (s *Server) handleListTimeline(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	listID := r.URL.Query().Get("list_id")
	if listID == "" {
		s.writeError(w, http.StatusBadRequest, "InvalidRequest", "list_id is required")
		return
	}
	s.writeJSON(w, acct.ListTimeline(r.Context(), listID, pageFromQuery(r)))
}

func (s *Server) handleSearchStatuses(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "InvalidRequest", "q is required")
		return
	}
	s.writeJSON(w, acct.SearchStatuses(r.Context(), query, pageFromQuery(r)))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "InvalidRequest", "id is required")
		return
	}
	st := acct.Status(r.Context(), id)
	if st == nil {
		s.writeError(w, http.StatusNotFound, "StatusNotFound", "status not found")
		return
	}
	s.writeJSON(w, st)
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "InvalidRequest", "id is required")
		return
	}
	s.writeJSON(w, acct.StatusContext(r.Context(), id))
}

type postRequest struct {
	Text        string   `json:"text"`
	InReplyToID string   `json:"in_reply_to_id,omitempty"`
	Visibility  string   `json:"visibility,omitempty"`
	SpoilerText string   `json:"spoiler_text,omitempty"`
	Labels      []string `json:"labels,omitempty"`
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "InvalidRequest", "malformed request body")
		return
	}
	if req.Text == "" {
		s.writeError(w, http.StatusBadRequest, "InvalidRequest", "text is required")
		return
	}
	st := acct.Post(r.Context(), platform.PostRequest{
		Text:        req.Text,
		InReplyToID: req.InReplyToID,
		Visibility:  req.Visibility,
		SpoilerText: req.SpoilerText,
		Labels:      req.Labels,
	})
	if st == nil {
		s.writeError(w, http.StatusBadGateway, "PostFailed", "the post was not created")
		return
	}
	s.writeJSON(w, st)
}

type quoteRequest struct {
	QuotedID   string `json:"quoted_id"`
	Text       string `json:"text"`
	Visibility string `json:"visibility,omitempty"`
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	qp, ok := acct.(quotePoster)
	if !ok || !acct.Features().QuotePosts {
		s.writeError(w, http.StatusNotFound, "Unsupported", "platform has no quote posts")
		return
	}
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "InvalidRequest", "malformed request body")
		return
	}
	if req.QuotedID == "" || req.Text == "" {
		s.writeError(w, http.StatusBadRequest, "InvalidRequest", "quoted_id and text are required")
		return
	}
	quoted := acct.Status(r.Context(), req.QuotedID)
	if quoted == nil {
		s.writeError(w, http.StatusNotFound, "StatusNotFound", "quoted status not found")
		return
	}
	st := qp.Quote(r.Context(), quoted, req.Text, req.Visibility)
	if st == nil {
		s.writeError(w, http.StatusBadGateway, "PostFailed", "the quote was not created")
		return
	}
	s.writeJSON(w, st)
}

func (s *Server) handleStatusAction(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "InvalidRequest", "id is required")
		return
	}

	var ok bool
	switch action := chi.URLParam(r, "action"); action {
	case "boost":
		ok = acct.Boost(r.Context(), id)
	case "unboost":
		ok = acct.Unboost(r.Context(), id)
	case "favourite":
		ok = acct.Favourite(r.Context(), id)
	case "unfavourite":
		ok = acct.Unfavourite(r.Context(), id)
	case "delete":
		ok = acct.DeleteStatus(r.Context(), id)
	default:
		s.writeError(w, http.StatusBadRequest, "InvalidRequest", "unknown action "+action)
		return
	}
	s.writeJSON(w, map[string]bool{"ok": ok})
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "InvalidRequest", "id is required")
		return
	}
	u := acct.User(r.Context(), id)
	if u == nil {
		s.writeError(w, http.StatusNotFound, "UserNotFound", "user not found")
		return
	}
	s.writeJSON(w, u)
}

func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "InvalidRequest", "q is required")
		return
	}
	s.writeJSON(w, acct.SearchUsers(r.Context(), query, limitFromQuery(r)))
}

func (s *Server) handleFollowers(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "InvalidRequest", "id is required")
		return
	}
	s.writeJSON(w, acct.Followers(r.Context(), id, limitFromQuery(r)))
}

func (s *Server) handleFollowing(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "InvalidRequest", "id is required")
		return
	}
	s.writeJSON(w, acct.Following(r.Context(), id, limitFromQuery(r)))
}

func (s *Server) handleGraphAction(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "InvalidRequest", "id is required")
		return
	}

	var ok bool
	switch action := chi.URLParam(r, "action"); action {
	case "follow":
		ok = acct.Follow(r.Context(), id)
	case "unfollow":
		ok = acct.Unfollow(r.Context(), id)
	case "block":
		ok = acct.Block(r.Context(), id)
	case "unblock":
		ok = acct.Unblock(r.Context(), id)
	case "mute":
		ok = acct.Mute(r.Context(), id)
	case "unmute":
		ok = acct.Unmute(r.Context(), id)
	default:
		s.writeError(w, http.StatusBadRequest, "InvalidRequest", "unknown action "+action)
		return
	}
	s.writeJSON(w, map[string]bool{"ok": ok})
}

func (s *Server) handleLists(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	s.writeJSON(w, acct.Lists(r.Context()))
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	s.writeJSON(w, acct.ListMembers(r.Context(), chi.URLParam(r, "listID")))
}

func (s *Server) handleListAdd(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		s.writeError(w, http.StatusBadRequest, "InvalidRequest", "user_id is required")
		return
	}
	ok := acct.AddToList(r.Context(), chi.URLParam(r, "listID"), userID)
	s.writeJSON(w, map[string]bool{"ok": ok})
}

func (s *Server) handleListRemove(w http.ResponseWriter, r *http.Request) {
	acct := s.account(w, r)
	if acct == nil {
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		s.writeError(w, http.StatusBadRequest, "InvalidRequest", "user_id is required")
		return
	}
	ok := acct.RemoveFromList(r.Context(), chi.URLParam(r, "listID"), userID)
	s.writeJSON(w, map[string]bool{"ok": ok})
}
