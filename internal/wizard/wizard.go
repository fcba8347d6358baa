// Package wizard implements the multi-step project creation flow. The
// step order and its one conditional branch are data (a directed step
// graph), not inline conditionals, so the flow is testable without any
// rendering.
package wizard

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"voxvid-client/internal/backend"
)

type Step string

const (
	StepName    Step = "name"
	StepContent Step = "content"
	StepImage   Step = "image"
	StepVoice   Step = "voice"
	StepReview  Step = "review"
)

const (
	InputText  = "text"
	InputAudio = "audio"
)

// Draft accumulates everything the wizard collects. Media fields hold
// paths to staged preview files owned by the MediaStore.
type Draft struct {
	ID   string
	Step Step

	ProjectName string
	InputType   string
	Script      string

	AudioPath      string
	AvatarPath     string
	BackgroundPath string
	BackgroundType string
	AvatarShape    string
	NeedSubtitles  bool

	VoiceID       string
	VoiceName     string
	VoiceProvider string

	AvatarScale float64
	AvatarX     float64
	AvatarY     float64
}

func newDraft() *Draft {
	return &Draft{
		ID:             uuid.NewString(),
		Step:           StepName,
		InputType:      InputText,
		AvatarShape:    "square",
		BackgroundType: "image",
		AvatarScale:    1,
	}
}

// edge is one forward transition. A nil when-predicate always matches;
// edges are tried in order, first match wins.
type edge struct {
	from Step
	to   Step
	when func(*Draft) bool
}

var forwardEdges = []edge{
	{from: StepName, to: StepContent},
	{from: StepContent, to: StepImage},
	{from: StepImage, to: StepVoice, when: func(d *Draft) bool { return d.InputType == InputText }},
	{from: StepImage, to: StepReview, when: func(d *Draft) bool { return d.InputType == InputAudio }},
	{from: StepVoice, to: StepReview},
}

// validators gate the forward transition out of each step.
var validators = map[Step]func(*Draft) error{
	StepName: func(d *Draft) error {
		if strings.TrimSpace(d.ProjectName) == "" {
			return fmt.Errorf("please enter a project name")
		}
		return nil
	},
	StepContent: func(d *Draft) error {
		switch d.InputType {
		case InputText:
			if strings.TrimSpace(d.Script) == "" {
				return fmt.Errorf("please enter a script")
			}
		case InputAudio:
			if d.AudioPath == "" {
				return fmt.Errorf("please upload or record audio")
			}
		default:
			return fmt.Errorf("unknown content type %q", d.InputType)
		}
		return nil
	},
	StepImage: func(d *Draft) error {
		if d.AvatarPath == "" {
			return fmt.Errorf("please upload an avatar image")
		}
		return nil
	},
	StepVoice: func(d *Draft) error {
		if d.VoiceID == "" {
			return fmt.Errorf("please select a voice")
		}
		return nil
	},
	StepReview: func(d *Draft) error { return nil },
}

// Advance validates the current step and moves the draft forward along
// the first matching edge. The draft is unchanged on error.
func Advance(d *Draft) error {
	validate, ok := validators[d.Step]
	if !ok {
		return fmt.Errorf("unknown step %q", d.Step)
	}
	if err := validate(d); err != nil {
		return err
	}
	for _, e := range forwardEdges {
		if e.from != d.Step {
			continue
		}
		if e.when == nil || e.when(d) {
			d.Step = e.to
			return nil
		}
	}
	return fmt.Errorf("no forward transition from %q", d.Step)
}

// Back moves to the previous step. Backward transitions are always
// allowed; on the first step it is a no-op.
func Back(d *Draft) {
	for _, e := range forwardEdges {
		if e.to != d.Step {
			continue
		}
		if e.when == nil || e.when(d) {
			d.Step = e.from
			return
		}
	}
}

// Steps lists the path this draft takes through the graph, for the
// progress indicator.
func Steps(d *Draft) []Step {
	path := []Step{StepName}
	probe := Draft{Step: StepName, InputType: d.InputType}
	for probe.Step != StepReview {
		moved := false
		for _, e := range forwardEdges {
			if e.from == probe.Step && (e.when == nil || e.when(&probe)) {
				probe.Step = e.to
				path = append(path, e.to)
				moved = true
				break
			}
		}
		if !moved {
			break
		}
	}
	return path
}

// validateAll re-runs every gate on the submit path. Catches drafts
// whose earlier answers were invalidated by later edits.
func validateAll(d *Draft) error {
	steps := Steps(d)
	for _, step := range steps {
		if step == StepReview {
			continue
		}
		if err := validators[step](d); err != nil {
			return err
		}
	}
	return nil
}

// Manager guards the single active draft. The client is a one-user
// application, so one draft at a time mirrors the one-tab wizard of the
// browser build.
type Manager struct {
	mu    sync.Mutex
	media *MediaStore
	draft *Draft
}

func NewManager(media *MediaStore) *Manager {
	return &Manager{media: media}
}

// Start begins a new draft, discarding any previous one along with its
// staged media.
func (m *Manager) Start() *Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draft != nil {
		m.media.RemoveAll(m.draft)
	}
	m.draft = newDraft()
	copy := *m.draft
	return &copy
}

// Current returns a copy of the active draft, or nil.
func (m *Manager) Current() *Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draft == nil {
		return nil
	}
	copy := *m.draft
	return &copy
}

// Update applies fn to the active draft under the lock.
func (m *Manager) Update(fn func(*Draft)) (*Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draft == nil {
		return nil, fmt.Errorf("no active draft")
	}
	fn(m.draft)
	copy := *m.draft
	return &copy, nil
}

// Advance moves the active draft forward, returning the validation
// error verbatim for the UI.
func (m *Manager) Advance() (*Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draft == nil {
		return nil, fmt.Errorf("no active draft")
	}
	if err := Advance(m.draft); err != nil {
		return nil, err
	}
	copy := *m.draft
	return &copy, nil
}

// Back moves the active draft one step backward.
func (m *Manager) Back() *Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draft == nil {
		return nil
	}
	Back(m.draft)
	copy := *m.draft
	return &copy
}

// Discard drops the draft and its staged media.
func (m *Manager) Discard() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draft != nil {
		m.media.RemoveAll(m.draft)
		m.draft = nil
	}
}

// BuildRequest validates the whole draft and packages it for
// submission. The draft stays active until Discard, so a failed submit
// leaves the user on Review with everything intact.
func (m *Manager) BuildRequest() (backend.CreateVideoRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draft == nil {
		return backend.CreateVideoRequest{}, fmt.Errorf("no active draft")
	}
	if err := validateAll(m.draft); err != nil {
		return backend.CreateVideoRequest{}, err
	}
	d := m.draft
	return backend.CreateVideoRequest{
		ProjectName:    strings.TrimSpace(d.ProjectName),
		InputType:      d.InputType,
		Script:         strings.TrimSpace(d.Script),
		VoiceID:        d.VoiceID,
		VoiceName:      d.VoiceName,
		AudioPath:      d.AudioPath,
		AvatarPath:     d.AvatarPath,
		BackgroundPath: d.BackgroundPath,
		BackgroundType: d.BackgroundType,
		AvatarShape:    d.AvatarShape,
		NeedSubtitles:  d.NeedSubtitles,
		AvatarScale:    d.AvatarScale,
		AvatarX:        d.AvatarX,
		AvatarY:        d.AvatarY,
	}, nil
}
