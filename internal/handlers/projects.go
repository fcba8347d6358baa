package handlers

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"voxvid-client/internal/backend"
	"voxvid-client/internal/models"
)

// home lists the user's projects and puts every in-flight one under
// watch. A failed fetch degrades to the empty state; list reads never
// show an error banner.
func (a *App) home(w http.ResponseWriter, r *http.Request) {
	recs, err := a.api.ListProjects(r.Context())
	if err != nil {
		if backend.KindOf(err) == backend.Unauthorized {
			a.session.SignOut()
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		a.logger.Warn("failed to load projects", "error", err)
		a.render(w, "home.html", homePage{Title: "Your Projects"})
		return
	}

	projects := models.MapServerProjects(recs)
	a.setProjects(projects)
	a.poller.WatchAll(a.appCtx, projects)

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})
	a.render(w, "home.html", homePage{Title: "Your Projects", Projects: projects})
}

// projectDetail is only reachable for completed projects with a
// playable result; everything else bounces back to the list.
func (a *App) projectDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := a.api.GetProject(r.Context(), id)
	if err != nil {
		a.logger.Warn("failed to load project", "project_id", id, "error", err)
		http.Redirect(w, r, "/home", http.StatusSeeOther)
		return
	}
	project := models.MapServerProject(rec)
	if !project.ViewableDetail() {
		http.Redirect(w, r, "/home", http.StatusSeeOther)
		return
	}

	a.mu.Lock()
	a.projects[project.ID] = project
	a.mu.Unlock()

	a.render(w, "project.html", projectPage{Title: project.Name, Project: project})
}

// togglePublish flips the public flag. Independent of phase handling:
// the record is otherwise immutable once completed.
func (a *App) togglePublish(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	isPublic, err := a.api.TogglePublish(r.Context(), id)
	if err != nil {
		a.logger.Warn("failed to toggle publish flag", "project_id", id, "error", err)
		http.Redirect(w, r, "/project/"+id, http.StatusSeeOther)
		return
	}

	a.mu.Lock()
	if project, ok := a.projects[id]; ok {
		project.IsPublic = isPublic
		a.projects[id] = project
	}
	a.mu.Unlock()

	http.Redirect(w, r, "/project/"+id, http.StatusSeeOther)
}
