package handlers

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"voxvid-client/internal/models"
	"voxvid-client/internal/wizard"
)

//go:embed templates/*.html
var templateFS embed.FS

func parseTemplates() *template.Template {
	funcs := template.FuncMap{
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006")
		},
		"title": func(s string) string {
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
		"compact": func(n int) string {
			if n > 999 {
				return fmt.Sprintf("%.1fK", float64(n)/1000)
			}
			return strconv.Itoa(n)
		},
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

func (a *App) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.templates.ExecuteTemplate(w, name, data); err != nil {
		a.logger.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}

// Page payloads.

type authPage struct {
	Title   string
	Error   string
	Notice  string
	Email   string
	OTPSent bool
}

type homePage struct {
	Title    string
	Projects []models.Project
}

type projectPage struct {
	Title   string
	Project models.Project
}

type createPage struct {
	Title  string
	Draft  *wizard.Draft
	Steps  []wizard.Step
	Error  string
	Voices []models.VoiceOption
}

type socialPage struct {
	Title       string
	Videos      []models.FeedVideo
	HasMore     bool
	ActiveIndex int
	Muted       bool
}

type profilePage struct {
	Title   string
	Profile models.Profile
	Error   string
	Notice  string
}

type settingsPage struct {
	Title  string
	Prefs  models.Preferences
	Notice string
}
