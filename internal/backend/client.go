// Package backend is the HTTP client for the remote VoxVid API. It is a
// deliberately thin wrapper: bearer attachment, JSON and multipart
// encoding, and error classification. No retries, no caching.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"voxvid-client/internal/models"
	"voxvid-client/internal/session"
)

// TokenSource supplies the current access token. Satisfied by
// *session.Manager.
type TokenSource interface {
	AccessToken() (string, bool)
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *slog.Logger
}

func NewClient(logger *slog.Logger, baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
		logger:  logger,
	}
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	User   models.Profile      `json:"user"`
	Tokens session.TokenBundle `json:"tokens"`
}

func (c *Client) Register(ctx context.Context, username, email, password, firstName, lastName string) (AuthResponse, error) {
	var out AuthResponse
	err := c.postJSON(ctx, "/api/auth/register/", false, map[string]string{
		"username":   username,
		"email":      email,
		"password":   password,
		"first_name": firstName,
		"last_name":  lastName,
	}, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, usernameOrEmail, password string) (AuthResponse, error) {
	var out AuthResponse
	err := c.postJSON(ctx, "/api/auth/login/", false, map[string]string{
		"username": usernameOrEmail,
		"password": password,
	}, &out)
	return out, err
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.postJSON(ctx, "/api/auth/password-reset/request/", false, map[string]string{"email": email}, nil)
}

func (c *Client) VerifyPasswordReset(ctx context.Context, email, otp, newPassword string) error {
	return c.postJSON(ctx, "/api/auth/password-reset/verify/", false, map[string]string{
		"email":        email,
		"otp":          otp,
		"new_password": newPassword,
	}, nil)
}

func (c *Client) Me(ctx context.Context) (models.Profile, error) {
	var out models.Profile
	err := c.getJSON(ctx, "/api/auth/me/", &out)
	return out, err
}

func (c *Client) UpdateProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	var out models.Profile
	err := c.do(ctx, http.MethodPut, "/api/profile/", true, jsonBody(p), "application/json", &out)
	return out, err
}

func (c *Client) ListProjects(ctx context.Context) ([]models.ServerProject, error) {
	var out []models.ServerProject
	err := c.getJSON(ctx, "/api/videos/", &out)
	return out, err
}

func (c *Client) GetProject(ctx context.Context, id string) (models.ServerProject, error) {
	var out models.ServerProject
	err := c.getJSON(ctx, "/api/videos/"+url.PathEscape(id)+"/", &out)
	return out, err
}

// RefreshProjectStatus asks the server to re-check the render job and
// returns the refreshed record. This is the poller's endpoint.
func (c *Client) RefreshProjectStatus(ctx context.Context, id string) (models.ServerProject, error) {
	var out models.ServerProject
	err := c.postJSON(ctx, "/api/videos/"+url.PathEscape(id)+"/update/", true, nil, &out)
	return out, err
}

func (c *Client) TogglePublish(ctx context.Context, id string) (bool, error) {
	var out struct {
		IsPublic bool `json:"is_public"`
	}
	err := c.postJSON(ctx, "/api/videos/"+url.PathEscape(id)+"/publish/", true, nil, &out)
	return out.IsPublic, err
}

func (c *Client) SocialVideos(ctx context.Context, page, pageSize int) (models.FeedPage, error) {
	var out models.FeedPage
	path := fmt.Sprintf("/api/social/videos/?page=%d&page_size=%d", page, pageSize)
	err := c.getJSON(ctx, path, &out)
	return out, err
}

func (c *Client) LikeVideo(ctx context.Context, id int64) (bool, error) {
	var out struct {
		IsLiked bool `json:"is_liked"`
	}
	err := c.postJSON(ctx, fmt.Sprintf("/api/social/videos/%d/like/", id), true, nil, &out)
	return out.IsLiked, err
}

// RecordView reports a watch of a public video. The server counts each
// viewer once; is_new_view says whether this call changed the count.
func (c *Client) RecordView(ctx context.Context, id int64) (views int, isNew bool, err error) {
	var out struct {
		IsNewView  bool `json:"is_new_view"`
		ViewsCount int  `json:"views_count"`
	}
	err = c.postJSON(ctx, fmt.Sprintf("/api/social/videos/%d/view/", id), true, nil, &out)
	return out.ViewsCount, out.IsNewView, err
}

func (c *Client) EnhanceScript(ctx context.Context, script string) (string, error) {
	var out struct {
		Enhanced string `json:"enhanced_script"`
	}
	err := c.postJSON(ctx, "/api/ai/enhance/", true, map[string]string{"script": script}, &out)
	return out.Enhanced, err
}

// wireVoice tolerates the two catalog shapes providers return: a flat
// entry with one language, or an entry carrying a languages list.
type wireVoice struct {
	VoiceID      string                `json:"voice_id"`
	Name         string                `json:"name"`
	Gender       string                `json:"gender"`
	Language     string                `json:"language"`
	Locale       string                `json:"locale"`
	PreviewAudio string                `json:"preview_audio"`
	Languages    []models.VoiceVariant `json:"languages"`
}

func (c *Client) Voices(ctx context.Context, provider string) ([]models.VoiceOption, error) {
	var out struct {
		Data struct {
			Voices []wireVoice `json:"voices"`
		} `json:"data"`
	}
	path := "/api/voices/?provider=" + url.QueryEscape(provider)
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}

	voices := make([]models.VoiceOption, 0, len(out.Data.Voices))
	for _, wv := range out.Data.Voices {
		v := models.VoiceOption{
			VoiceID:  wv.VoiceID,
			Name:     wv.Name,
			Gender:   wv.Gender,
			Provider: provider,
			Variants: wv.Languages,
		}
		if len(v.Variants) == 0 {
			v.Variants = []models.VoiceVariant{{
				Language:     wv.Language,
				Locale:       wv.Locale,
				PreviewAudio: wv.PreviewAudio,
			}}
		}
		voices = append(voices, v)
	}
	return voices, nil
}

// CreateVideoRequest carries every field the wizard collected. File
// fields are paths to the staged preview files.
type CreateVideoRequest struct {
	ProjectName    string
	InputType      string // "text" or "audio"
	Script         string
	VoiceID        string
	VoiceName      string
	AudioPath      string
	AvatarPath     string
	BackgroundPath string
	BackgroundType string // "image" or "video"
	AvatarShape    string // "square" or "circle"
	NeedSubtitles  bool
	AvatarScale    float64
	AvatarX        float64
	AvatarY        float64
}

// CreateVideo submits the whole wizard result as one multipart request.
// The submission is atomic from the client's perspective: on any error
// nothing was created that the client needs to clean up.
func (c *Client) CreateVideo(ctx context.Context, req CreateVideoRequest) (models.ServerProject, error) {
	var out models.ServerProject

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	fields := map[string]string{
		"project_name":    req.ProjectName,
		"input_type":      req.InputType,
		"avatar_shape":    req.AvatarShape,
		"background_type": req.BackgroundType,
		"need_subtitles":  strconv.FormatBool(req.NeedSubtitles),
		"avatar_scale":    strconv.FormatFloat(req.AvatarScale, 'f', 2, 64),
		"avatar_x":        strconv.FormatFloat(req.AvatarX, 'f', 2, 64),
		"avatar_y":        strconv.FormatFloat(req.AvatarY, 'f', 2, 64),
	}
	if req.InputType == "text" {
		fields["script"] = req.Script
		fields["voice_id"] = req.VoiceID
		fields["voice_name"] = req.VoiceName
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return out, fmt.Errorf("failed to write multipart field %s: %w", name, err)
		}
	}

	files := []struct{ field, path string }{
		{"audio_file", req.AudioPath},
		{"avatar_file", req.AvatarPath},
		{"background_file", req.BackgroundPath},
	}
	for _, f := range files {
		if f.path == "" {
			continue
		}
		if f.field == "audio_file" && req.InputType != "audio" {
			continue
		}
		if err := attachFile(mw, f.field, f.path); err != nil {
			return out, err
		}
	}

	if err := mw.Close(); err != nil {
		return out, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	err := c.do(ctx, http.MethodPost, "/api/heygen/create/", true, body, mw.FormDataContentType(), &out)
	return out, err
}

func attachFile(mw *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", field, err)
	}
	defer f.Close()

	part, err := mw.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to create %s part: %w", field, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to copy %s: %w", field, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, true, nil, "", out)
}

func (c *Client) postJSON(ctx context.Context, path string, auth bool, payload any, out any) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		body = jsonBody(payload)
		contentType = "application/json"
	}
	return c.do(ctx, http.MethodPost, path, auth, body, contentType, out)
}

func jsonBody(payload any) io.Reader {
	raw, _ := json.Marshal(payload)
	return bytes.NewReader(raw)
}

func (c *Client) do(ctx context.Context, method, path string, auth bool, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &Error{Kind: NetworkFailure, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth {
		token, ok := c.tokens.AccessToken()
		if !ok {
			return &Error{Kind: Unauthorized, Detail: "not signed in"}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: NetworkFailure, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return &Error{Kind: NetworkFailure, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.classify(resp.StatusCode, raw)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: ServerRejected, Status: resp.StatusCode, Err: fmt.Errorf("malformed response body: %w", err)}
	}
	return nil
}

func (c *Client) classify(status int, raw []byte) error {
	detail := serverDetail(raw)
	apiErr := &Error{Status: status, Detail: detail}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		apiErr.Kind = Unauthorized
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		apiErr.Kind = ValidationFailure
	default:
		apiErr.Kind = ServerRejected
	}
	c.logger.Warn("api call rejected", "status", status, "kind", apiErr.Kind, "detail", detail)
	return apiErr
}

func serverDetail(raw []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return ""
}
