package models

import "time"

// Phase is the client-side view of a remote render job's status. It is
// derived from the server status string and never advanced locally.
type Phase string

const (
	PhaseDraft      Phase = "draft"
	PhasePending    Phase = "pending"
	PhaseProcessing Phase = "processing"
	PhaseCompleted  Phase = "completed"
)

// ServerProject is the raw record returned by the VoxVid API for a video
// generation job.
type ServerProject struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	SourceURL     string    `json:"source_url"`
	ScriptInput   string    `json:"script_input"`
	TalkID        string    `json:"talk_id"`
	Status        string    `json:"status"`
	ResultURL     string    `json:"result_url"`
	AudioURL      string    `json:"audio_url"`
	ImagePreview  string    `json:"original_image_base64"`
	IsPublic      bool      `json:"is_public"`
	VoiceProvider string    `json:"voice_provider"`
	VoiceID       string    `json:"voice_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// Project is the client projection of a ServerProject.
type Project struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Phase        Phase     `json:"phase"`
	Status       string    `json:"status"`
	TalkID       string    `json:"talk_id"`
	ScriptText   string    `json:"script_text"`
	SourceImage  string    `json:"source_image"`
	ImagePreview string    `json:"image_preview,omitempty"`
	ResultURL    string    `json:"result_url"`
	IsPublic     bool      `json:"is_public"`
	CreatedAt    time.Time `json:"created_at"`
}

// ViewableDetail reports whether the project can be opened on the detail
// page: only completed projects with a playable result qualify.
func (p Project) ViewableDetail() bool {
	return p.Phase == PhaseCompleted && p.ResultURL != ""
}

// InFlight reports whether the poller should be watching this project.
func (p Project) InFlight() bool {
	return p.Phase == PhaseProcessing && p.TalkID != ""
}

// PhaseEvent is pushed to browser subscribers over WebSocket whenever a
// watched project changes.
type PhaseEvent struct {
	ProjectID string `json:"project_id"`
	Phase     Phase  `json:"phase"`
	Status    string `json:"status"`
	ResultURL string `json:"result_url,omitempty"`
	Message   string `json:"message,omitempty"`
}

// VoiceVariant is one language/locale rendition of a synthetic voice.
type VoiceVariant struct {
	Language     string `json:"language"`
	Locale       string `json:"locale"`
	PreviewAudio string `json:"preview_audio,omitempty"`
}

// VoiceOption is a provider-scoped catalog entry. Read-only; fetched per
// provider and kept only for the session.
type VoiceOption struct {
	VoiceID  string         `json:"voice_id"`
	Name     string         `json:"name"`
	Gender   string         `json:"gender"`
	Provider string         `json:"provider"`
	Variants []VoiceVariant `json:"variants"`
}

// PreviewAudio returns the first variant preview URL, if any.
func (v VoiceOption) PreviewAudio() string {
	for _, variant := range v.Variants {
		if variant.PreviewAudio != "" {
			return variant.PreviewAudio
		}
	}
	return ""
}

// UserInfo identifies the author of a public video.
type UserInfo struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// FeedVideo is a public video in the social feed.
type FeedVideo struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	ResultURL  string   `json:"result_url"`
	ScriptText string   `json:"script_input"`
	ViewsCount int      `json:"views_count"`
	LikesCount int      `json:"likes_count"`
	IsLiked    bool     `json:"is_liked"`
	User       UserInfo `json:"user_info"`
	Provider   string   `json:"voice_provider,omitempty"`
	CreatedAt  string   `json:"created_at"`
}

// FeedPage is one page of the paginated social listing.
type FeedPage struct {
	Results []FeedVideo `json:"results"`
	Next    *string     `json:"next"`
	Count   int         `json:"count"`
}

// Profile is the authenticated user's account record.
type Profile struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Preferences is the user-preferences blob persisted locally.
type Preferences struct {
	Muted           bool   `json:"muted"`
	DefaultProvider string `json:"default_provider"`
	FeedPageSize    int    `json:"feed_page_size"`
}

// DefaultPreferences returns the values used before the user saves any.
func DefaultPreferences() Preferences {
	return Preferences{DefaultProvider: "heygen", FeedPageSize: 12}
}
