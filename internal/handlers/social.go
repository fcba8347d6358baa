package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"voxvid-client/internal/backend"
)

// socialPage renders the feed, loading the first page on demand. A
// failed fetch shows the empty state; feed reads carry no error
// banner.
func (a *App) socialPage(w http.ResponseWriter, r *http.Request) {
	if len(a.feed.Videos()) == 0 {
		if err := a.feed.LoadMore(r.Context()); err != nil {
			a.logger.Warn("failed to load feed", "error", err)
		}
	}

	a.render(w, "social.html", socialPage{
		Title:       "Social",
		Videos:      a.feed.Videos(),
		HasMore:     a.feed.HasMore(),
		ActiveIndex: a.feed.ActiveIndex(),
		Muted:       a.preferences().Muted,
	})
}

// socialMore appends the next page and returns the full loaded list.
// The page script calls this when scrolling nears the end.
func (a *App) socialMore(w http.ResponseWriter, r *http.Request) {
	if err := a.feed.LoadMore(r.Context()); err != nil {
		a.respondJSON(w, http.StatusBadGateway, map[string]string{"error": backend.UserMessage(err)})
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]any{
		"videos":   a.feed.Videos(),
		"has_more": a.feed.HasMore(),
	})
}

// socialActivate marks the video at the scrolled-to index as playing;
// the view side effect fires at most once per video per session.
func (a *App) socialActivate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	index, err := strconv.Atoi(r.FormValue("index"))
	if err != nil || index < 0 {
		a.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid index"})
		return
	}

	a.feed.Activate(r.Context(), index)

	if a.feed.NearEnd(index) {
		if err := a.feed.LoadMore(r.Context()); err != nil {
			a.logger.Warn("failed to extend feed", "error", err)
		}
	}
	a.respondJSON(w, http.StatusOK, map[string]any{"active": index, "has_more": a.feed.HasMore()})
}

func (a *App) socialLike(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		a.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid video id"})
		return
	}

	video, err := a.feed.ToggleLike(r.Context(), id)
	if err != nil {
		a.respondJSON(w, http.StatusBadGateway, map[string]string{"error": backend.UserMessage(err)})
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]any{
		"is_liked":    video.IsLiked,
		"likes_count": video.LikesCount,
	})
}
