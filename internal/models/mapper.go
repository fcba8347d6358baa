package models

import (
	"strconv"
	"strings"
)

// MapStatus derives the client phase from a server status string. Total
// over any input: unknown or empty statuses are treated as Pending.
func MapStatus(status string) Phase {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "done", "completed":
		return PhaseCompleted
	case "processing", "created":
		return PhaseProcessing
	default:
		return PhasePending
	}
}

// MapServerProject converts a server record into the client projection.
// Pure function; never fails.
func MapServerProject(rec ServerProject) Project {
	return Project{
		ID:           strconv.FormatInt(rec.ID, 10),
		Name:         rec.Name,
		Phase:        MapStatus(rec.Status),
		Status:       rec.Status,
		TalkID:       rec.TalkID,
		ScriptText:   rec.ScriptInput,
		SourceImage:  rec.SourceURL,
		ImagePreview: rec.ImagePreview,
		ResultURL:    rec.ResultURL,
		IsPublic:     rec.IsPublic,
		CreatedAt:    rec.CreatedAt,
	}
}

// MapServerProjects maps a full listing, newest first order preserved.
func MapServerProjects(recs []ServerProject) []Project {
	projects := make([]Project, 0, len(recs))
	for _, rec := range recs {
		projects = append(projects, MapServerProject(rec))
	}
	return projects
}
