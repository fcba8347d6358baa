// Package feed holds the session state of the social video feed:
// page-by-page accumulation, like toggles applied in place, and the
// once-per-session view gate.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"voxvid-client/internal/models"
)

// API is the slice of the backend client the feed needs.
type API interface {
	SocialVideos(ctx context.Context, page, pageSize int) (models.FeedPage, error)
	LikeVideo(ctx context.Context, id int64) (bool, error)
	RecordView(ctx context.Context, id int64) (views int, isNew bool, err error)
}

type Session struct {
	logger   *slog.Logger
	api      API
	pageSize int

	mu      sync.Mutex
	videos  []models.FeedVideo
	page    int
	hasMore bool
	viewed  map[int64]struct{}
	active  int
}

func NewSession(logger *slog.Logger, api API, pageSize int) *Session {
	if pageSize <= 0 {
		pageSize = 12
	}
	return &Session{
		logger:   logger,
		api:      api,
		pageSize: pageSize,
		hasMore:  true,
		viewed:   make(map[int64]struct{}),
	}
}

// LoadMore fetches the next page. The first page replaces the list,
// later pages append. No-op once the server reports no next page.
func (s *Session) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	if !s.hasMore {
		s.mu.Unlock()
		return nil
	}
	next := s.page + 1
	s.mu.Unlock()

	page, err := s.api.SocialVideos(ctx, next, s.pageSize)
	if err != nil {
		return fmt.Errorf("failed to load feed page %d: %w", next, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if next == 1 {
		s.videos = page.Results
	} else {
		s.videos = append(s.videos, page.Results...)
	}
	s.page = next
	s.hasMore = page.Next != nil
	return nil
}

// Videos returns a copy of the loaded list.
func (s *Session) Videos() []models.FeedVideo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.FeedVideo, len(s.videos))
	copy(out, s.videos)
	return out
}

func (s *Session) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

// NearEnd reports whether index is close enough to the end of the
// loaded set that the next page should be requested.
func (s *Session) NearEnd(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore && index >= len(s.videos)-2
}

// Activate marks the video at index as the one playing and issues the
// view side effect, at most once per video for this session.
func (s *Session) Activate(ctx context.Context, index int) {
	s.mu.Lock()
	if index < 0 || index >= len(s.videos) {
		s.mu.Unlock()
		return
	}
	s.active = index
	video := s.videos[index]
	if _, seen := s.viewed[video.ID]; seen {
		s.mu.Unlock()
		return
	}
	s.viewed[video.ID] = struct{}{}
	s.mu.Unlock()

	views, isNew, err := s.api.RecordView(ctx, video.ID)
	if err != nil {
		s.logger.Warn("failed to record view", "video_id", video.ID, "error", err)
		return
	}
	if isNew {
		s.mu.Lock()
		for i := range s.videos {
			if s.videos[i].ID == video.ID {
				s.videos[i].ViewsCount = views
			}
		}
		s.mu.Unlock()
	}
}

// ActiveIndex returns the currently playing position so a re-render
// resumes in place.
func (s *Session) ActiveIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// ToggleLike flips the like on the server and applies the answer to the
// in-memory record. Returns the updated video.
func (s *Session) ToggleLike(ctx context.Context, id int64) (models.FeedVideo, error) {
	liked, err := s.api.LikeVideo(ctx, id)
	if err != nil {
		return models.FeedVideo{}, fmt.Errorf("failed to toggle like: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.videos {
		if s.videos[i].ID != id {
			continue
		}
		if liked != s.videos[i].IsLiked {
			if liked {
				s.videos[i].LikesCount++
			} else if s.videos[i].LikesCount > 0 {
				s.videos[i].LikesCount--
			}
			s.videos[i].IsLiked = liked
		}
		return s.videos[i], nil
	}
	return models.FeedVideo{}, fmt.Errorf("video %d not loaded", id)
}

// Reset drops the loaded pages but keeps the view gate: returning to
// the feed within one session must not re-count views.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos = nil
	s.page = 0
	s.hasMore = true
	s.active = 0
}
