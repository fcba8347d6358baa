package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMapStatus(t *testing.T) {
	cases := []struct {
		status string
		want   Phase
	}{
		{"done", PhaseCompleted},
		{"completed", PhaseCompleted},
		{"DONE", PhaseCompleted},
		{"  Completed  ", PhaseCompleted},
		{"processing", PhaseProcessing},
		{"created", PhaseProcessing},
		{"Processing", PhaseProcessing},
		{"pending", PhasePending},
		{"", PhasePending},
		{"failed", PhasePending},
		{"some-future-status", PhasePending},
	}
	for _, tc := range cases {
		t.Run("status_"+tc.status, func(t *testing.T) {
			require.Equal(t, tc.want, MapStatus(tc.status))
		})
	}
}

func TestMapStatusIdempotent(t *testing.T) {
	// Feeding a derived phase back through the mapper must not change it.
	for _, status := range []string{"done", "completed", "processing", "created", "pending", "", "weird"} {
		first := MapStatus(status)
		require.Equal(t, first, MapStatus(string(first)), "status %q", status)
	}
}

func TestMapServerProject(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	rec := ServerProject{
		ID:           42,
		Name:         "Launch teaser",
		Status:       "processing",
		TalkID:       "tlk_abc",
		ScriptInput:  "Hello world",
		SourceURL:    "https://cdn.example.com/avatar.png",
		ImagePreview: "aGVsbG8=",
		ResultURL:    "",
		IsPublic:     true,
		CreatedAt:    created,
	}

	p := MapServerProject(rec)
	require.Equal(t, "42", p.ID)
	require.Equal(t, PhaseProcessing, p.Phase)
	require.Equal(t, "processing", p.Status)
	require.Equal(t, "tlk_abc", p.TalkID)
	require.Equal(t, "Hello world", p.ScriptText)
	require.Equal(t, "https://cdn.example.com/avatar.png", p.SourceImage)
	require.Equal(t, "aGVsbG8=", p.ImagePreview)
	require.True(t, p.IsPublic)
	require.Equal(t, created, p.CreatedAt)
}

func TestMapServerProjectsPreservesOrder(t *testing.T) {
	recs := []ServerProject{{ID: 3}, {ID: 1}, {ID: 2}}
	projects := MapServerProjects(recs)
	require.Len(t, projects, 3)
	require.Equal(t, "3", projects[0].ID)
	require.Equal(t, "1", projects[1].ID)
	require.Equal(t, "2", projects[2].ID)
}

func TestViewableDetail(t *testing.T) {
	require.True(t, Project{Phase: PhaseCompleted, ResultURL: "https://x/v.mp4"}.ViewableDetail())
	require.False(t, Project{Phase: PhaseCompleted}.ViewableDetail())
	require.False(t, Project{Phase: PhaseProcessing, ResultURL: "https://x/v.mp4"}.ViewableDetail())
}

func TestInFlight(t *testing.T) {
	require.True(t, Project{Phase: PhaseProcessing, TalkID: "tlk"}.InFlight())
	require.False(t, Project{Phase: PhaseProcessing}.InFlight())
	require.False(t, Project{Phase: PhasePending, TalkID: "tlk"}.InFlight())
	require.False(t, Project{Phase: PhaseCompleted, TalkID: "tlk"}.InFlight())
}

func TestVoiceOptionPreviewAudio(t *testing.T) {
	v := VoiceOption{Variants: []VoiceVariant{
		{Language: "English"},
		{Language: "Spanish", PreviewAudio: "https://x/es.mp3"},
	}}
	require.Equal(t, "https://x/es.mp3", v.PreviewAudio())
	require.Empty(t, VoiceOption{}.PreviewAudio())
}
