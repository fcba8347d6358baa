package wizard

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	media, err := NewMediaStore(testLogger(), t.TempDir())
	require.NoError(t, err)
	return NewManager(media)
}

func TestStepsForTextInput(t *testing.T) {
	d := &Draft{InputType: InputText}
	require.Equal(t, []Step{StepName, StepContent, StepImage, StepVoice, StepReview}, Steps(d))
}

func TestStepsForAudioInputSkipVoice(t *testing.T) {
	d := &Draft{InputType: InputAudio}
	require.Equal(t, []Step{StepName, StepContent, StepImage, StepReview}, Steps(d))
}

func TestAdvanceBlockedByEmptyName(t *testing.T) {
	d := newDraft()
	err := Advance(d)
	require.Error(t, err)
	require.Equal(t, StepName, d.Step)

	d.ProjectName = "  "
	require.Error(t, Advance(d))
	require.Equal(t, StepName, d.Step)
}

func TestTextPathWalk(t *testing.T) {
	d := newDraft()
	d.ProjectName = "Demo"
	require.NoError(t, Advance(d))
	require.Equal(t, StepContent, d.Step)

	require.Error(t, Advance(d), "empty script must block")
	d.Script = "Hello there"
	require.NoError(t, Advance(d))
	require.Equal(t, StepImage, d.Step)

	require.Error(t, Advance(d), "missing avatar must block")
	d.AvatarPath = "/tmp/avatar.png"
	require.NoError(t, Advance(d))
	require.Equal(t, StepVoice, d.Step)

	require.Error(t, Advance(d), "missing voice must block")
	d.VoiceID = "voice-1"
	require.NoError(t, Advance(d))
	require.Equal(t, StepReview, d.Step)
}

func TestAudioPathSkipsVoiceStep(t *testing.T) {
	d := newDraft()
	d.ProjectName = "Demo"
	d.InputType = InputAudio
	require.NoError(t, Advance(d))

	require.Error(t, Advance(d), "missing audio must block")
	d.AudioPath = "/tmp/audio.mp3"
	require.NoError(t, Advance(d))
	require.Equal(t, StepImage, d.Step)

	d.AvatarPath = "/tmp/avatar.png"
	require.NoError(t, Advance(d))
	require.Equal(t, StepReview, d.Step, "audio drafts go straight to review")
}

func TestBackWalksEdgesInReverse(t *testing.T) {
	d := newDraft()
	d.Step = StepReview

	Back(d)
	require.Equal(t, StepVoice, d.Step, "text drafts return to the voice step")

	d.InputType = InputAudio
	d.Step = StepReview
	Back(d)
	require.Equal(t, StepImage, d.Step, "audio drafts return to the image step")
}

func TestBackOnFirstStepIsNoOp(t *testing.T) {
	d := newDraft()
	Back(d)
	require.Equal(t, StepName, d.Step)
}

func TestBackNeverValidates(t *testing.T) {
	d := newDraft()
	d.Step = StepImage
	// Nothing filled in; going back must still work.
	Back(d)
	require.Equal(t, StepContent, d.Step)
}

func TestManagerStartDiscardsPreviousDraft(t *testing.T) {
	m := newTestManager(t)

	first := m.Start()
	second := m.Start()
	require.NotEqual(t, first.ID, second.ID)

	current := m.Current()
	require.NotNil(t, current)
	require.Equal(t, second.ID, current.ID)
}

func TestManagerAdvanceReturnsValidationError(t *testing.T) {
	m := newTestManager(t)
	m.Start()

	_, err := m.Advance()
	require.Error(t, err)
	require.Contains(t, err.Error(), "project name")

	_, err = m.Update(func(d *Draft) { d.ProjectName = "Demo" })
	require.NoError(t, err)

	draft, err := m.Advance()
	require.NoError(t, err)
	require.Equal(t, StepContent, draft.Step)
}

func TestManagerDiscardClearsDraft(t *testing.T) {
	m := newTestManager(t)
	m.Start()
	m.Discard()
	require.Nil(t, m.Current())

	_, err := m.Advance()
	require.Error(t, err)
}

func TestBuildRequestValidatesWholeDraft(t *testing.T) {
	m := newTestManager(t)
	m.Start()
	_, err := m.Update(func(d *Draft) {
		d.ProjectName = " Demo "
		d.Script = " Say hi "
		d.AvatarPath = "/tmp/avatar.png"
		d.Step = StepReview
	})
	require.NoError(t, err)

	// Voice never chosen; the review-time check must catch it.
	_, err = m.BuildRequest()
	require.Error(t, err)
	require.Contains(t, err.Error(), "voice")

	_, err = m.Update(func(d *Draft) {
		d.VoiceID = "voice-1"
		d.VoiceName = "Alloy"
	})
	require.NoError(t, err)

	req, err := m.BuildRequest()
	require.NoError(t, err)
	require.Equal(t, "Demo", req.ProjectName)
	require.Equal(t, "Say hi", req.Script)
	require.Equal(t, "voice-1", req.VoiceID)

	// A failed submit keeps the draft; only Discard drops it.
	require.NotNil(t, m.Current())
}

func TestBuildRequestAudioDraftNeedsNoVoice(t *testing.T) {
	m := newTestManager(t)
	m.Start()
	_, err := m.Update(func(d *Draft) {
		d.ProjectName = "Demo"
		d.InputType = InputAudio
		d.AudioPath = "/tmp/audio.mp3"
		d.AvatarPath = "/tmp/avatar.png"
		d.Step = StepReview
	})
	require.NoError(t, err)

	req, err := m.BuildRequest()
	require.NoError(t, err)
	require.Equal(t, InputAudio, req.InputType)
	require.Empty(t, req.VoiceID)
}

func TestNewDraftDefaults(t *testing.T) {
	d := newDraft()
	require.Equal(t, StepName, d.Step)
	require.Equal(t, InputText, d.InputType)
	require.Equal(t, "square", d.AvatarShape)
	require.Equal(t, "image", d.BackgroundType)
	require.Equal(t, float64(1), d.AvatarScale)
	require.False(t, strings.TrimSpace(d.ID) == "")
}
