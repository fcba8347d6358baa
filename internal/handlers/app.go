package handlers

import (
	"context"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"voxvid-client/internal/backend"
	"voxvid-client/internal/feed"
	"voxvid-client/internal/models"
	"voxvid-client/internal/poller"
	"voxvid-client/internal/session"
	"voxvid-client/internal/store"
	"voxvid-client/internal/wizard"
)

// App owns the router and the per-session client state: the last
// observed project list, websocket subscribers per project id, the
// wizard draft and the feed session.
type App struct {
	logger *slog.Logger
	router *chi.Mux

	session *session.Manager
	api     *backend.Client
	poller  *poller.Poller
	wizard  *wizard.Manager
	media   *wizard.MediaStore
	feed    *feed.Session
	store   *store.Store

	templates *template.Template

	maxUploadBytes int64
	appCtx         context.Context

	mu       sync.RWMutex
	projects map[string]models.Project
	subs     map[string]map[*websocket.Conn]struct{}
	voices   map[string][]models.VoiceOption

	upgrader websocket.Upgrader
}

type Options struct {
	Logger         *slog.Logger
	Session        *session.Manager
	API            *backend.Client
	Media          *wizard.MediaStore
	Store          *store.Store
	PollInterval   time.Duration
	MaxUploadBytes int64
	FeedPageSize   int
}

func NewApp(ctx context.Context, opts Options) *App {
	if opts.FeedPageSize <= 0 {
		prefs := models.DefaultPreferences()
		_, _ = opts.Store.Get(store.KeyPreferences, &prefs)
		opts.FeedPageSize = prefs.FeedPageSize
	}

	app := &App{
		logger:         opts.Logger,
		router:         chi.NewRouter(),
		session:        opts.Session,
		api:            opts.API,
		media:          opts.Media,
		store:          opts.Store,
		wizard:         wizard.NewManager(opts.Media),
		feed:           feed.NewSession(opts.Logger, opts.API, opts.FeedPageSize),
		maxUploadBytes: opts.MaxUploadBytes,
		appCtx:         ctx,
		projects:       make(map[string]models.Project),
		subs:           make(map[string]map[*websocket.Conn]struct{}),
		voices:         make(map[string][]models.VoiceOption),
		templates:      parseTemplates(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	app.poller = poller.New(opts.Logger, opts.API, opts.PollInterval, app.applyProjectUpdate)

	// Expiry-driven sign-out tears down everything session-scoped.
	app.session.Subscribe(func() {
		app.poller.StopAll()
		app.feed.Reset()
		app.wizard.Discard()
	})

	app.registerRoutes()
	return app
}

func (a *App) Router() http.Handler {
	return a.router
}

func (a *App) registerRoutes() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.RealIP)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Timeout(5 * time.Minute))

	a.router.Get("/", a.index)
	a.router.Get("/login", a.loginPage)
	a.router.Post("/login", a.login)
	a.router.Get("/signup", a.signupPage)
	a.router.Post("/signup", a.signup)
	a.router.Get("/forgot-password", a.forgotPage)
	a.router.Post("/forgot-password", a.requestReset)
	a.router.Post("/forgot-password/verify", a.verifyReset)
	a.router.Post("/logout", a.logout)
	a.router.Get("/healthz", a.health)

	a.router.Group(func(r chi.Router) {
		r.Use(a.session.Guard)

		r.Get("/home", a.home)
		r.Get("/project/{id}", a.projectDetail)
		r.Post("/project/{id}/publish", a.togglePublish)
		r.Get("/ws/{id}", a.projectWS)

		r.Get("/create", a.createPage)
		r.Post("/create/step", a.createStep)
		r.Post("/create/upload", a.createUpload)
		r.Post("/create/remove", a.createRemoveMedia)
		r.Post("/create/enhance", a.enhanceScript)
		r.Post("/create/submit", a.createSubmit)
		r.Get("/voices", a.listVoices)

		r.Get("/social", a.socialPage)
		r.Get("/social/more", a.socialMore)
		r.Post("/social/activate", a.socialActivate)
		r.Post("/social/{id}/like", a.socialLike)

		r.Get("/profile", a.profilePage)
		r.Post("/profile", a.updateProfile)
		r.Get("/settings", a.settingsPage)
		r.Post("/settings", a.saveSettings)
	})

	staticFS := http.FileServer(http.Dir("web/static"))
	a.router.Handle("/static/*", http.StripPrefix("/static/", staticFS))
}

func (a *App) index(w http.ResponseWriter, r *http.Request) {
	if a.session.IsAuthenticated() {
		http.Redirect(w, r, "/home", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "timestamp": time.Now().Format(time.RFC3339)})
}

/// applyProjectUpdate is the poller sink: last write wins on the
// in-memory record, then subscribers of that project hear about it.
func (a *App) applyProjectUpdate(project models.Project) {
	a.mu.Lock()
	a.projects[project.ID] = project
	a.mu.Unlock()

	event := models.PhaseEvent{
		ProjectID: project.ID,
		Phase:     project.Phase,
		Status:    project.Status,
		ResultURL: project.ResultURL,
	}
	if project.Phase == models.PhaseCompleted {
		event.Message = "video ready"
	}
	a.broadcast(project.ID, event)
}

func (a *App) projectByID(id string) (models.Project, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	project, ok := a.projects[id]
	return project, ok
}

func (a *App) setProjects(projects []models.Project) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.projects = make(map[string]models.Project, len(projects))
	for _, p := range projects {
		a.projects[p.ID] = p
	}
}

// projectWS streams phase events for one project to the browser. The
// first frame is the current state so a page that attaches late still
// renders something.
func (a *App) projectWS(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	project, ok := a.projectByID(projectID)
	if !ok {
		http.Error(w, "project not found", http.StatusNotFound)
		return
	}

	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	a.mu.Lock()
	if a.subs[projectID] == nil {
		a.subs[projectID] = make(map[*websocket.Conn]struct{})
	}
	a.subs[projectID][conn] = struct{}{}
	a.mu.Unlock()

	_ = conn.WriteJSON(models.PhaseEvent{
		ProjectID: project.ID,
		Phase:     project.Phase,
		Status:    project.Status,
		ResultURL: project.ResultURL,
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	a.mu.Lock()
	delete(a.subs[projectID], conn)
	a.mu.Unlock()
	_ = conn.Close()
}

func (a *App) broadcast(projectID string, evt models.PhaseEvent) {
	a.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(a.subs[projectID]))
	for c := range a.subs[projectID] {
		conns = append(conns, c)
	}
	a.mu.RUnlock()

	for _, c := range conns {
		if err := c.WriteJSON(evt); err != nil {
			a.mu.Lock()
			delete(a.subs[projectID], c)
			a.mu.Unlock()
			_ = c.Close()
		}
	}
}

func (a *App) respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Error("failed to encode json", "error", err)
	}
}
