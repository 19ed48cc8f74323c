// Package scene tracks the top-level application mode and the pacing
// flags the simulation loop consults every pass.
package scene

// Mode is the top-level screen the application is showing.
type Mode uint8

const (
	ModeTitle Mode = iota
	ModeGameplay
	ModeEditor
)

func (m Mode) String() string {
	switch m {
	case ModeTitle:
		return "title"
	case ModeGameplay:
		return "gameplay"
	case ModeEditor:
		return "editor"
	default:
		return "unknown"
	}
}

// Speed is the player-selected simulation pace.
type Speed uint8

const (
	SpeedNormal Speed = iota
	SpeedFastForward
	SpeedExtraFast
)

// Multiplier returns the logic-tick multiplier for the speed.
func (s Speed) Multiplier() int {
	switch s {
	case SpeedFastForward:
		return 3
	case SpeedExtraFast:
		return 9
	default:
		return 1
	}
}

// Tutorial is the tutorial playback state.
type Tutorial uint8

const (
	TutorialNone Tutorial = iota
	TutorialPlaying
	TutorialRecording
)

// Manager holds the current scene flags. Like the rest of the
// simulation state it belongs to the loop goroutine.
type Manager struct {
	mode     Mode
	speed    Speed
	paused   bool
	tutorial Tutorial
	age      int
}

// NewManager starts in title mode at normal speed.
func NewManager() *Manager {
	return &Manager{}
}

// Mode returns the current scene mode.
func (m *Manager) Mode() Mode { return m.mode }

// SetMode switches the scene mode and restarts the scene age.
func (m *Manager) SetMode(mode Mode) {
	m.mode = mode
	m.age = 0
}

// Speed returns the selected simulation pace.
func (m *Manager) Speed() Speed { return m.speed }

// SetSpeed selects the simulation pace.
func (m *Manager) SetSpeed(s Speed) { m.speed = s }

// Paused reports whether the simulation is paused.
func (m *Manager) Paused() bool { return m.paused }

// SetPaused pauses or resumes the simulation.
func (m *Manager) SetPaused(p bool) { m.paused = p }

// Tutorial returns the tutorial playback state.
func (m *Manager) Tutorial() Tutorial { return m.tutorial }

// SetTutorial switches the tutorial playback state.
func (m *Manager) SetTutorial(t Tutorial) { m.tutorial = t }

// Gameplay reports whether boundary logic and autosaves should run.
func (m *Manager) Gameplay() bool { return m.mode == ModeGameplay }

// Age returns the number of pass units since the last mode switch.
func (m *Manager) Age() int { return m.age }

// GrowAge advances the scene age, saturating well below overflow.
func (m *Manager) GrowAge(by int) {
	const maxAge = 0xFFFF
	if by < 1 {
		by = 1
	}
	m.age += by
	if m.age > maxAge {
		m.age = maxAge
	}
}
