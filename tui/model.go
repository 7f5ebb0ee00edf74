package tui

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"cuedeck/audio"
	"cuedeck/deck"
	"cuedeck/dmx"
	"cuedeck/input"
	"cuedeck/session"
	"cuedeck/theme"
)

type mode int

const (
	modePlay mode = iota
	modeEdit
	modePorts
	modeAssign
)

// InputKind for text input
type inputKind int

const (
	inputNone inputKind = iota
	inputImportPath
	inputRenameClip
	inputRenameScene
	inputSessionName
)

const (
	columnClips = iota
	columnScenes
)

type Model struct {
	Deck     *deck.Deck
	Router   *deck.Router
	Bindings deck.Bindings
	Levels   *dmx.Levels
	Scenes   *dmx.SceneStore
	Tx       *dmx.Transmitter
	Queue    *audio.Queue
	Theme    *theme.Theme

	SessionName string
	Silent      bool

	mode     mode
	column   int
	clipIdx  int
	sceneIdx int

	inputMode   inputKind
	inputBuffer string

	confirmMsg    string
	confirmAction func()

	ports   []dmx.PortInfo
	portIdx int

	notice   string
	quitting bool
}

type UpdateMsg struct{}

type statusTickMsg time.Time

func NewModel(d *deck.Deck, r *deck.Router, b deck.Bindings, levels *dmx.Levels, scenes *dmx.SceneStore, tx *dmx.Transmitter, q *audio.Queue, th *theme.Theme) Model {
	return Model{
		Deck:     d,
		Router:   r,
		Bindings: b,
		Levels:   levels,
		Scenes:   scenes,
		Tx:       tx,
		Queue:    q,
		Theme:    th,
	}
}

// SetNotice seeds the status line (session load warnings from main).
func (m *Model) SetNotice(s string) {
	m.notice = s
}

func ListenForUpdates(d *deck.Deck) tea.Cmd {
	return func() tea.Msg {
		<-d.UpdateChan
		return UpdateMsg{}
	}
}

func statusTick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ListenForUpdates(m.Deck),
		statusTick(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case UpdateMsg:
		m.clampCursors()
		return m, ListenForUpdates(m.Deck)

	case statusTickMsg:
		// transmitter frame counter and decode backlog roll on their own
		return m, statusTick()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	// Confirmation dialog takes over
	if m.confirmAction != nil {
		switch key {
		case "y", "Y":
			m.confirmAction()
			m.confirmAction = nil
			m.confirmMsg = ""
			m.clampCursors()
		case "n", "N", "esc", "q":
			m.confirmAction = nil
			m.confirmMsg = ""
		}
		return m, nil
	}

	// Text input takes over
	if m.inputMode != inputNone {
		switch key {
		case "enter":
			m.commitInput()
		case "esc":
			m.inputMode = inputNone
			m.inputBuffer = ""
		case "backspace":
			if len(m.inputBuffer) > 0 {
				m.inputBuffer = m.inputBuffer[:len(m.inputBuffer)-1]
			}
		default:
			// Only accept printable characters
			if len(key) == 1 && key[0] >= 32 && key[0] < 127 {
				m.inputBuffer += key
			}
		}
		return m, nil
	}

	switch m.mode {
	case modePlay:
		return m.handlePlayKey(key)
	case modeEdit:
		return m.handleEditKey(key)
	case modePorts:
		return m.handlePortsKey(key)
	case modeAssign:
		return m.handleAssignKey(key)
	}
	return m, nil
}

func (m Model) handlePlayKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "tab":
		m.mode = modeEdit
		m.notice = ""
		return m, nil
	case "ctrl+s":
		m.inputMode = inputSessionName
		m.inputBuffer = m.SessionName
		return m, nil
	}

	// Everything else is a performance trigger.
	if p, ok := input.FromTerminal(key); ok {
		m.Router.Handle(p)
	}
	return m, nil
}

func (m Model) handleEditKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "tab":
		m.mode = modePlay
		m.notice = ""
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "ctrl+s":
		m.inputMode = inputSessionName
		m.inputBuffer = m.SessionName
	case "esc":
		m.notice = ""

	case "h", "left":
		m.column = columnClips
	case "l", "right":
		m.column = columnScenes
	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)

	case "enter", " ":
		if m.column == columnClips {
			if c, ok := m.selectedClip(); ok {
				if c.State == deck.StatePlaying {
					m.Deck.Stop(c.ID)
				} else {
					m.Deck.Play(c.ID)
				}
			}
		} else if sc, ok := m.selectedScene(); ok {
			if err := m.Scenes.Recall(sc.ID); err == nil {
				m.notice = fmt.Sprintf("recalled %s", sc.Name)
			}
		}

	case "i":
		m.inputMode = inputImportPath
		m.inputBuffer = ""

	case "r":
		if m.column == columnClips {
			if c, ok := m.selectedClip(); ok {
				m.inputMode = inputRenameClip
				m.inputBuffer = c.Name
			}
		} else if sc, ok := m.selectedScene(); ok {
			m.inputMode = inputRenameScene
			m.inputBuffer = sc.Name
		}

	case "d":
		m.armRemove()

	case "a":
		if m.column == columnClips {
			if _, ok := m.selectedClip(); ok {
				m.mode = modeAssign
			}
		}

	case "x":
		if m.column == columnClips {
			if c, ok := m.selectedClip(); ok {
				m.Deck.AssignKey(c.ID, "")
				m.notice = fmt.Sprintf("%s unbound", c.Name)
			}
		}

	case "o":
		if m.column == columnClips {
			if c, ok := m.selectedClip(); ok {
				m.Deck.SetLoop(c.ID, !c.Loop)
			}
		}

	case "c":
		if m.column == columnClips {
			if c, ok := m.selectedClip(); ok {
				m.Deck.SetStartCue(c.ID, c.Playhead)
				m.notice = fmt.Sprintf("%s cue set to %s", c.Name, fmtTime(c.Playhead))
			}
		} else if sc, ok := m.selectedScene(); ok {
			m.cycleSceneColor(sc)
		}

	case "C":
		if m.column == columnClips {
			if c, ok := m.selectedClip(); ok {
				m.Deck.SetStartCue(c.ID, 0)
			}
		}

	case "=", "+":
		if c, ok := m.selectedClip(); ok && m.column == columnClips {
			m.Deck.NudgeVolume(c.ID, m.Bindings.Step)
		}
	case "-", "_":
		if c, ok := m.selectedClip(); ok && m.column == columnClips {
			m.Deck.NudgeVolume(c.ID, -m.Bindings.Step)
		}

	case "n":
		sc := m.Scenes.Create()
		m.column = columnScenes
		m.sceneIdx = len(m.Scenes.Scenes()) - 1
		m.notice = fmt.Sprintf("created %s", sc.Name)

	case "R":
		if sc, ok := m.selectedScene(); ok {
			if err := m.Scenes.Record(sc.ID); err == nil {
				m.notice = fmt.Sprintf("recorded live levels into %s", sc.Name)
			}
		}

	case "L":
		if m.column == columnScenes {
			m.toggleSceneLink()
		}

	case "b":
		m.Levels.Blackout()
		m.notice = "blackout"
	case "F":
		m.Levels.Full()
		m.notice = "full on"
	case "t":
		if err := m.Tx.SendNow(); err != nil {
			m.notice = fmt.Sprintf("send failed: %v", err)
		} else {
			m.notice = "frame sent"
		}

	case "p":
		ports, err := dmx.ListPorts()
		if err != nil {
			m.notice = fmt.Sprintf("port scan failed: %v", err)
			return m, nil
		}
		m.ports = ports
		m.portIdx = 0
		m.mode = modePorts
	}

	return m, nil
}

func (m Model) handlePortsKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "j", "down":
		if m.portIdx < len(m.ports) {
			m.portIdx++
		}
	case "k", "up":
		if m.portIdx > 0 {
			m.portIdx--
		}
	case "enter", " ":
		// Index 0 is "no output"; entries follow.
		if m.portIdx == 0 {
			m.Tx.SelectPort("")
			m.notice = "lighting output disabled"
		} else {
			p := m.ports[m.portIdx-1]
			m.Tx.SelectPort(p.Path)
			m.notice = fmt.Sprintf("lighting output → %s", p.Path)
		}
		m.mode = modeEdit
	case "esc", "q", "p":
		m.mode = modeEdit
	}
	return m, nil
}

func (m Model) handleAssignKey(key string) (tea.Model, tea.Cmd) {
	if key == "esc" {
		m.mode = modeEdit
		return m, nil
	}

	c, ok := m.selectedClip()
	if !ok {
		m.mode = modeEdit
		return m, nil
	}

	p, ok := input.FromTerminal(key)
	if !ok {
		m.notice = fmt.Sprintf("%q is not a bindable key", key)
		return m, nil
	}

	m.Deck.AssignKey(c.ID, p.Code)
	m.notice = fmt.Sprintf("%s → %s", input.DisplayName(p.Code), c.Name)
	if m.isGlobalKey(p.Code) {
		m.notice += " (shadowed by a global control key)"
	}
	m.mode = modeEdit
	return m, nil
}

func (m *Model) commitInput() {
	text := m.inputBuffer
	kind := m.inputMode
	m.inputMode = inputNone
	m.inputBuffer = ""

	switch kind {
	case inputImportPath:
		if text == "" {
			return
		}
		data, err := os.ReadFile(text)
		if err != nil {
			m.notice = fmt.Sprintf("import failed: %v", err)
			return
		}
		id := m.Deck.Import(text, data)
		m.Deck.SetFocused(id)
		m.column = columnClips
		m.clipIdx = len(m.Deck.Clips()) - 1
		m.notice = fmt.Sprintf("imported %s", text)

	case inputRenameClip:
		if c, ok := m.selectedClip(); ok && text != "" {
			m.Deck.Rename(c.ID, text)
		}

	case inputRenameScene:
		if sc, ok := m.selectedScene(); ok && text != "" {
			m.Scenes.Update(sc.ID, text, "", nil)
		}

	case inputSessionName:
		m.SessionName = text
		doc := session.Collect(text, m.Deck, m.Scenes, m.Levels, m.Tx.Port())
		path, err := session.SaveToDir(doc)
		if err != nil {
			m.notice = fmt.Sprintf("save failed: %v", err)
			return
		}
		m.notice = fmt.Sprintf("saved %s", path)
	}
}

func (m *Model) armRemove() {
	if m.column == columnClips {
		c, ok := m.selectedClip()
		if !ok {
			return
		}
		m.confirmMsg = fmt.Sprintf("Remove clip '%s'?", c.Name)
		m.confirmAction = func() { m.Deck.Remove(c.ID) }
	} else {
		sc, ok := m.selectedScene()
		if !ok {
			return
		}
		m.confirmMsg = fmt.Sprintf("Remove scene '%s'?", sc.Name)
		m.confirmAction = func() { m.Scenes.Remove(sc.ID) }
	}
}

// cycleSceneColor steps the scene through the default palette.
func (m *Model) cycleSceneColor(sc dmx.Scene) {
	next := dmx.NextPaletteColor(sc.Color)
	m.Scenes.Update(sc.ID, "", next, nil)
}

func (m *Model) toggleSceneLink() {
	sc, ok := m.selectedScene()
	if !ok {
		return
	}
	if sc.LinkedClipID != "" {
		empty := ""
		m.Scenes.Update(sc.ID, "", "", &empty)
		m.notice = fmt.Sprintf("%s unlinked", sc.Name)
		return
	}
	focused := m.Deck.Focused()
	if focused == "" {
		m.notice = "select a clip first (link remembers which song a look belongs to)"
		return
	}
	m.Scenes.Update(sc.ID, "", "", &focused)
	if c, ok := m.Deck.Clip(focused); ok {
		m.notice = fmt.Sprintf("%s linked to %s", sc.Name, c.Name)
	}
}

func (m *Model) moveCursor(delta int) {
	if m.column == columnClips {
		n := len(m.Deck.Clips())
		if n == 0 {
			return
		}
		m.clipIdx = clamp(m.clipIdx+delta, 0, n-1)
		clips := m.Deck.Clips()
		m.Deck.SetFocused(clips[m.clipIdx].ID)
	} else {
		n := len(m.Scenes.Scenes())
		if n == 0 {
			return
		}
		m.sceneIdx = clamp(m.sceneIdx+delta, 0, n-1)
	}
}

func (m *Model) clampCursors() {
	if n := len(m.Deck.Clips()); n == 0 {
		m.clipIdx = 0
	} else if m.clipIdx >= n {
		m.clipIdx = n - 1
	}
	if n := len(m.Scenes.Scenes()); n == 0 {
		m.sceneIdx = 0
	} else if m.sceneIdx >= n {
		m.sceneIdx = n - 1
	}
}

func (m Model) selectedClip() (deck.Clip, bool) {
	clips := m.Deck.Clips()
	if len(clips) == 0 {
		return deck.Clip{}, false
	}
	idx := clamp(m.clipIdx, 0, len(clips)-1)
	return clips[idx], true
}

func (m Model) selectedScene() (dmx.Scene, bool) {
	scenes := m.Scenes.Scenes()
	if len(scenes) == 0 {
		return dmx.Scene{}, false
	}
	idx := clamp(m.sceneIdx, 0, len(scenes)-1)
	return scenes[idx], true
}

func (m Model) isGlobalKey(code string) bool {
	switch code {
	case m.Bindings.PauseAll, m.Bindings.VolumeDown, m.Bindings.VolumeUp,
		m.Bindings.FocusedUp, m.Bindings.FocusedDown:
		return true
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
