package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"voxvid-client/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeAPI serves a fixed catalog in pages and counts side effects.
type fakeAPI struct {
	videos    []models.FeedVideo
	viewCalls map[int64]int
	likes     map[int64]bool
	failViews bool
}

func newFakeAPI(n int) *fakeAPI {
	f := &fakeAPI{viewCalls: make(map[int64]int), likes: make(map[int64]bool)}
	for i := 1; i <= n; i++ {
		f.videos = append(f.videos, models.FeedVideo{
			ID:         int64(i),
			Name:       fmt.Sprintf("video %d", i),
			ViewsCount: 10 * i,
		})
	}
	return f
}

func (f *fakeAPI) SocialVideos(ctx context.Context, page, pageSize int) (models.FeedPage, error) {
	start := (page - 1) * pageSize
	if start >= len(f.videos) {
		return models.FeedPage{Count: len(f.videos)}, nil
	}
	end := start + pageSize
	if end > len(f.videos) {
		end = len(f.videos)
	}
	out := models.FeedPage{Results: f.videos[start:end], Count: len(f.videos)}
	if end < len(f.videos) {
		next := fmt.Sprintf("/api/social/videos/?page=%d", page+1)
		out.Next = &next
	}
	return out, nil
}

func (f *fakeAPI) LikeVideo(ctx context.Context, id int64) (bool, error) {
	f.likes[id] = !f.likes[id]
	return f.likes[id], nil
}

func (f *fakeAPI) RecordView(ctx context.Context, id int64) (int, bool, error) {
	if f.failViews {
		return 0, false, fmt.Errorf("view endpoint down")
	}
	f.viewCalls[id]++
	return int(10*id) + 1, f.viewCalls[id] == 1, nil
}

func TestLoadMorePaginates(t *testing.T) {
	api := newFakeAPI(5)
	s := NewSession(testLogger(), api, 2)
	ctx := context.Background()

	require.NoError(t, s.LoadMore(ctx))
	require.Len(t, s.Videos(), 2)
	require.True(t, s.HasMore())

	require.NoError(t, s.LoadMore(ctx))
	require.Len(t, s.Videos(), 4)

	require.NoError(t, s.LoadMore(ctx))
	require.Len(t, s.Videos(), 5)
	require.False(t, s.HasMore())

	// Exhausted feeds stay put.
	require.NoError(t, s.LoadMore(ctx))
	require.Len(t, s.Videos(), 5)
}

func TestNearEnd(t *testing.T) {
	api := newFakeAPI(6)
	s := NewSession(testLogger(), api, 3)
	require.NoError(t, s.LoadMore(context.Background()))

	require.False(t, s.NearEnd(0))
	require.True(t, s.NearEnd(1))
	require.True(t, s.NearEnd(2))

	require.NoError(t, s.LoadMore(context.Background()))
	require.False(t, s.HasMore())
	require.False(t, s.NearEnd(5), "no next page means nothing to prefetch")
}

func TestActivateRecordsViewOncePerVideo(t *testing.T) {
	api := newFakeAPI(3)
	s := NewSession(testLogger(), api, 10)
	ctx := context.Background()
	require.NoError(t, s.LoadMore(ctx))

	s.Activate(ctx, 0)
	s.Activate(ctx, 1)
	s.Activate(ctx, 0)
	s.Activate(ctx, 0)

	require.Equal(t, 1, api.viewCalls[1])
	require.Equal(t, 1, api.viewCalls[2])
	require.Equal(t, 0, api.viewCalls[3])
	require.Equal(t, 0, s.ActiveIndex())
}

func TestActivateAppliesFreshViewCount(t *testing.T) {
	api := newFakeAPI(2)
	s := NewSession(testLogger(), api, 10)
	ctx := context.Background()
	require.NoError(t, s.LoadMore(ctx))

	s.Activate(ctx, 0)
	require.Equal(t, 11, s.Videos()[0].ViewsCount)
}

func TestActivateOutOfRangeIsIgnored(t *testing.T) {
	api := newFakeAPI(2)
	s := NewSession(testLogger(), api, 10)
	ctx := context.Background()
	require.NoError(t, s.LoadMore(ctx))

	s.Activate(ctx, -1)
	s.Activate(ctx, 99)
	require.Equal(t, 0, s.ActiveIndex())
	require.Empty(t, api.viewCalls)
}

func TestViewGateSurvivesFailedCall(t *testing.T) {
	api := newFakeAPI(1)
	api.failViews = true
	s := NewSession(testLogger(), api, 10)
	ctx := context.Background()
	require.NoError(t, s.LoadMore(ctx))

	s.Activate(ctx, 0)
	api.failViews = false
	s.Activate(ctx, 0)

	// The gate fires on first activation; a transient failure does not
	// re-arm it within the session.
	require.Equal(t, 0, api.viewCalls[1])
}

func TestToggleLike(t *testing.T) {
	api := newFakeAPI(1)
	s := NewSession(testLogger(), api, 10)
	ctx := context.Background()
	require.NoError(t, s.LoadMore(ctx))

	v, err := s.ToggleLike(ctx, 1)
	require.NoError(t, err)
	require.True(t, v.IsLiked)
	require.Equal(t, 1, v.LikesCount)

	v, err = s.ToggleLike(ctx, 1)
	require.NoError(t, err)
	require.False(t, v.IsLiked)
	require.Equal(t, 0, v.LikesCount)
}

func TestToggleLikeUnknownVideo(t *testing.T) {
	api := newFakeAPI(1)
	s := NewSession(testLogger(), api, 10)
	_, err := s.ToggleLike(context.Background(), 999)
	require.Error(t, err)
}

func TestResetKeepsViewGate(t *testing.T) {
	api := newFakeAPI(2)
	s := NewSession(testLogger(), api, 10)
	ctx := context.Background()
	require.NoError(t, s.LoadMore(ctx))

	s.Activate(ctx, 0)
	s.Reset()
	require.Empty(t, s.Videos())
	require.True(t, s.HasMore())

	require.NoError(t, s.LoadMore(ctx))
	s.Activate(ctx, 0)
	require.Equal(t, 1, api.viewCalls[1], "views do not re-count after a reset")
}
