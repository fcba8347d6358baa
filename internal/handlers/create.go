package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"voxvid-client/internal/backend"
	"voxvid-client/internal/models"
	"voxvid-client/internal/wizard"
)

// createPage shows the wizard at its current step, starting a fresh
// draft when none is active or when ?restart=1 is passed.
func (a *App) createPage(w http.ResponseWriter, r *http.Request) {
	draft := a.wizard.Current()
	if draft == nil || r.URL.Query().Get("restart") == "1" {
		draft = a.wizard.Start()
	}
	a.renderWizard(w, r, draft, "")
}

// createStep applies the posted fields to the draft and then moves
// forward or backward. Validation failures re-render the same step
// with a blocking message; back is always allowed.
func (a *App) createStep(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}

	draft, err := a.wizard.Update(func(d *wizard.Draft) { applyFormFields(d, r) })
	if err != nil {
		http.Redirect(w, r, "/create", http.StatusSeeOther)
		return
	}

	if r.FormValue("action") == "back" {
		draft = a.wizard.Back()
		a.renderWizard(w, r, draft, "")
		return
	}

	advanced, err := a.wizard.Advance()
	if err != nil {
		a.renderWizard(w, r, draft, err.Error())
		return
	}
	a.renderWizard(w, r, advanced, "")
}

func applyFormFields(d *wizard.Draft, r *http.Request) {
	setString := func(field *string, name string) {
		if r.Form.Has(name) {
			*field = r.FormValue(name)
		}
	}
	setString(&d.ProjectName, "project_name")
	setString(&d.Script, "script")
	setString(&d.VoiceID, "voice_id")
	setString(&d.VoiceName, "voice_name")
	setString(&d.VoiceProvider, "voice_provider")

	if v := r.FormValue("input_type"); v == wizard.InputText || v == wizard.InputAudio {
		d.InputType = v
	}
	if v := r.FormValue("avatar_shape"); v == "square" || v == "circle" {
		d.AvatarShape = v
	}
	if v := r.FormValue("background_type"); v == "image" || v == "video" {
		d.BackgroundType = v
	}
	if r.Form.Has("need_subtitles") {
		d.NeedSubtitles = r.FormValue("need_subtitles") == "on" || r.FormValue("need_subtitles") == "true"
	}
	setFloat := func(field *float64, name string, min, max float64) {
		if !r.Form.Has(name) {
			return
		}
		if v, err := strconv.ParseFloat(r.FormValue(name), 64); err == nil && v >= min && v <= max {
			*field = v
		}
	}
	setFloat(&d.AvatarScale, "avatar_scale", 0.1, 3)
	setFloat(&d.AvatarX, "avatar_x", -0.5, 0.5)
	setFloat(&d.AvatarY, "avatar_y", -0.5, 0.5)
}

// createUpload stages a media file into one of the draft slots. The
// previous file for that slot is removed before the new one is
// written.
func (a *App) createUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUploadBytes+1024)
	if err := r.ParseMultipartForm(a.maxUploadBytes); err != nil {
		a.logger.Warn("invalid multipart upload", "error", err)
		a.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "upload is invalid or too large"})
		return
	}

	slot := r.FormValue("slot")
	if slot != wizard.SlotAudio && slot != wizard.SlotAvatar && slot != wizard.SlotBackground {
		a.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown upload slot"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		a.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "a file is required"})
		return
	}
	defer file.Close()

	draft := a.wizard.Current()
	if draft == nil {
		a.respondJSON(w, http.StatusConflict, map[string]string{"error": "no active draft"})
		return
	}

	path, err := a.media.Stage(draft.ID, slot, header.Filename, file)
	if err != nil {
		a.logger.Error("failed to stage upload", "slot", slot, "error", err)
		a.respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save upload"})
		return
	}

	if _, err := a.wizard.Update(func(d *wizard.Draft) {
		switch slot {
		case wizard.SlotAudio:
			d.AudioPath = path
		case wizard.SlotAvatar:
			d.AvatarPath = path
		case wizard.SlotBackground:
			d.BackgroundPath = path
		}
	}); err != nil {
		a.media.Remove(path)
		a.respondJSON(w, http.StatusConflict, map[string]string{"error": "draft was discarded"})
		return
	}

	a.respondJSON(w, http.StatusOK, map[string]string{"slot": slot, "name": header.Filename})
}

// createRemoveMedia drops one staged file from the draft.
func (a *App) createRemoveMedia(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	slot := r.FormValue("slot")

	_, err := a.wizard.Update(func(d *wizard.Draft) {
		switch slot {
		case wizard.SlotAudio:
			a.media.Remove(d.AudioPath)
			d.AudioPath = ""
		case wizard.SlotAvatar:
			a.media.Remove(d.AvatarPath)
			d.AvatarPath = ""
		case wizard.SlotBackground:
			a.media.Remove(d.BackgroundPath)
			d.BackgroundPath = ""
		}
	})
	if err != nil {
		a.respondJSON(w, http.StatusConflict, map[string]string{"error": "no active draft"})
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]string{"slot": slot})
}

// enhanceScript runs the draft script through the AI enhancement
// endpoint and stores the result back on the draft.
func (a *App) enhanceScript(w http.ResponseWriter, r *http.Request) {
	draft := a.wizard.Current()
	if draft == nil {
		a.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "no active draft"})
		return
	}

	// The page posts the on-screen text so edits the user has not
	// stepped past yet are enhanced too.
	script := draft.Script
	if err := r.ParseForm(); err == nil && r.Form.Has("script") {
		script = r.FormValue("script")
	}
	if strings.TrimSpace(script) == "" {
		a.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "write a script first"})
		return
	}

	enhanced, err := a.api.EnhanceScript(r.Context(), script)
	if err != nil {
		a.respondJSON(w, http.StatusBadGateway, map[string]string{"error": backend.UserMessage(err)})
		return
	}

	if _, err := a.wizard.Update(func(d *wizard.Draft) { d.Script = enhanced }); err != nil {
		a.respondJSON(w, http.StatusConflict, map[string]string{"error": "draft was discarded"})
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]string{"script": enhanced})
}

// createSubmit sends the whole draft as one request. On success the
// draft is dropped and the user lands on the list, where the next
// fetch picks the new job up for polling. On failure the user stays on
// Review with everything intact.
func (a *App) createSubmit(w http.ResponseWriter, r *http.Request) {
	req, err := a.wizard.BuildRequest()
	if err != nil {
		a.renderWizard(w, r, a.wizard.Current(), err.Error())
		return
	}

	if _, err := a.api.CreateVideo(r.Context(), req); err != nil {
		a.logger.Warn("video submission rejected", "error", err)
		a.renderWizard(w, r, a.wizard.Current(), backend.UserMessage(err))
		return
	}

	a.wizard.Discard()
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

// listVoices serves the provider catalog, cached per provider for the
// session, with optional gender and text filters.
func (a *App) listVoices(w http.ResponseWriter, r *http.Request) {
	provider := r.URL.Query().Get("provider")
	if provider == "" {
		provider = a.preferences().DefaultProvider
	}

	voices, err := a.cachedVoices(r, provider)
	if err != nil {
		a.respondJSON(w, http.StatusBadGateway, map[string]string{"error": backend.UserMessage(err)})
		return
	}

	gender := strings.ToLower(r.URL.Query().Get("gender"))
	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	a.respondJSON(w, http.StatusOK, map[string]any{
		"provider": provider,
		"voices":   filterVoices(voices, gender, query),
	})
}

func (a *App) cachedVoices(r *http.Request, provider string) ([]models.VoiceOption, error) {
	a.mu.RLock()
	cached, ok := a.voices[provider]
	a.mu.RUnlock()
	if ok {
		return cached, nil
	}

	voices, err := a.api.Voices(r.Context(), provider)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.voices[provider] = voices
	a.mu.Unlock()
	return voices, nil
}

func filterVoices(voices []models.VoiceOption, gender, query string) []models.VoiceOption {
	if gender == "" && query == "" {
		return voices
	}
	out := make([]models.VoiceOption, 0, len(voices))
	for _, v := range voices {
		if gender != "" && gender != "all" && strings.ToLower(v.Gender) != gender {
			continue
		}
		if query != "" && !voiceMatches(v, query) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func voiceMatches(v models.VoiceOption, query string) bool {
	if strings.Contains(strings.ToLower(v.Name), query) {
		return true
	}
	for _, variant := range v.Variants {
		if strings.Contains(strings.ToLower(variant.Language), query) {
			return true
		}
	}
	return false
}

func (a *App) renderWizard(w http.ResponseWriter, r *http.Request, draft *wizard.Draft, errMsg string) {
	if draft == nil {
		http.Redirect(w, r, "/create?restart=1", http.StatusSeeOther)
		return
	}

	page := createPage{
		Title: "Create Video",
		Draft: draft,
		Steps: wizard.Steps(draft),
		Error: errMsg,
	}
	if draft.Step == wizard.StepVoice {
		provider := draft.VoiceProvider
		if provider == "" {
			provider = a.preferences().DefaultProvider
		}
		if voices, err := a.cachedVoices(r, provider); err == nil {
			page.Voices = voices
		} else {
			a.logger.Warn("failed to load voice catalog", "provider", provider, "error", err)
		}
	}
	a.render(w, "create.html", page)
}
