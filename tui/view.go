package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"cuedeck/deck"
	"cuedeck/dmx"
	"cuedeck/input"
	"cuedeck/widgets"
)

const meterWidth = 10

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(m.renderHeader())
	out.WriteString("\n")

	if m.notice != "" {
		noticeStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())
		out.WriteString(noticeStyle.Render("  " + m.notice))
		out.WriteString("\n")
	}
	out.WriteString("\n")

	// Dialogs take over the body
	if m.confirmAction != nil {
		out.WriteString(m.renderConfirm())
		return out.String()
	}
	if m.inputMode != inputNone {
		out.WriteString(m.renderInput())
		return out.String()
	}

	switch m.mode {
	case modePlay:
		out.WriteString(m.renderPlayBody())
	case modeEdit, modeAssign:
		out.WriteString(m.renderEditBody())
	case modePorts:
		out.WriteString(m.renderPortsBody())
	}

	return out.String()
}

func (m Model) renderHeader() string {
	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	errStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	modeName := "PLAY"
	if m.mode != modePlay {
		modeName = "EDIT"
	}

	st := m.Tx.Status()
	wire := st.State.String()
	switch st.State {
	case dmx.StateStreaming:
		wire = fmt.Sprintf("%s %s (%df)", wire, st.Port, st.FramesSent)
	case dmx.StateError:
		wire = errStyle.Render(fmt.Sprintf("error: %s", st.LastError))
	}

	name := m.SessionName
	if name == "" {
		name = "(unsaved)"
	}

	header := fmt.Sprintf("cuedeck  %s  %s  wire: %s", modeName, name, wire)
	if n := m.Queue.Active() + m.Queue.Backlog(); n > 0 {
		header += fmt.Sprintf("  decoding: %d", n)
	}
	if m.Silent {
		header += "  [silent]"
	}
	return headerStyle.Render(header)
}

func (m Model) renderPlayBody() string {
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())

	var out strings.Builder
	clips := m.Deck.Clips()
	if len(clips) == 0 {
		out.WriteString(dimStyle.Render("  no clips loaded - tab into edit mode, then i to import"))
		out.WriteString("\n")
	}
	focused := m.Deck.Focused()
	for _, c := range clips {
		out.WriteString(m.renderClipRow(c, c.ID == focused, true))
		out.WriteString("\n")
	}

	out.WriteString("\n")
	out.WriteString(m.renderLightingLine())
	out.WriteString("\n\n")

	help := fmt.Sprintf("keys fire clips (alt layers)  %s:pause all  %s/%s:volume of playing  tab:edit  ctrl+s:save  ctrl+c:quit",
		input.DisplayName(m.Bindings.PauseAll),
		input.DisplayName(m.Bindings.VolumeDown),
		input.DisplayName(m.Bindings.VolumeUp))
	out.WriteString(dimStyle.Render(help))
	return out.String()
}

func (m Model) renderEditBody() string {
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	titleStyle := lipgloss.NewStyle().Foreground(m.Theme.FG()).Bold(true)

	var left strings.Builder
	left.WriteString(titleStyle.Render("CLIPS"))
	left.WriteString("\n")
	clips := m.Deck.Clips()
	if len(clips) == 0 {
		left.WriteString(dimStyle.Render("  (none)"))
		left.WriteString("\n")
	}
	for i, c := range clips {
		cursor := "  "
		if i == clamp(m.clipIdx, 0, len(clips)-1) {
			if m.column == columnClips {
				cursor = "> "
			} else {
				cursor = "* "
			}
		}
		left.WriteString(cursor + m.renderClipRow(c, false, false))
		left.WriteString("\n")
	}

	var right strings.Builder
	right.WriteString(titleStyle.Render("SCENES"))
	right.WriteString("\n")
	scenes := m.Scenes.Scenes()
	if len(scenes) == 0 {
		right.WriteString(dimStyle.Render("  (none)"))
		right.WriteString("\n")
	}
	for i, sc := range scenes {
		cursor := "  "
		if i == clamp(m.sceneIdx, 0, len(scenes)-1) {
			if m.column == columnScenes {
				cursor = "> "
			} else {
				cursor = "* "
			}
		}
		right.WriteString(cursor + m.renderSceneRow(sc))
		right.WriteString("\n")
	}

	leftBox := lipgloss.NewStyle().Width(56).Render(left.String())
	body := lipgloss.JoinHorizontal(lipgloss.Top, leftBox, right.String())

	var out strings.Builder
	out.WriteString(body)
	out.WriteString("\n")
	out.WriteString(m.renderLightingLine())
	out.WriteString("\n\n")

	if m.mode == modeAssign {
		promptStyle := lipgloss.NewStyle().Foreground(m.Theme.Cursor())
		name := ""
		if c, ok := m.selectedClip(); ok {
			name = c.Name
		}
		out.WriteString(promptStyle.Render(fmt.Sprintf("press a key to bind to %s (esc cancels)", name)))
		out.WriteString("\n")
		return out.String()
	}

	out.WriteString(widgets.RenderKeyHelp([]widgets.KeySection{
		{Title: "clips", Keys: []widgets.KeyBinding{
			{Key: "enter", Desc: "audition / stop"},
			{Key: "i", Desc: "import file"},
			{Key: "a / x", Desc: "bind key / unbind"},
			{Key: "o", Desc: "toggle loop"},
			{Key: "c / C", Desc: "cue here / cue to 0"},
			{Key: "+ / -", Desc: "volume"},
		}},
		{Title: "scenes + lighting", Keys: []widgets.KeyBinding{
			{Key: "n", Desc: "new scene"},
			{Key: "enter", Desc: "recall"},
			{Key: "R", Desc: "record live levels"},
			{Key: "c / L", Desc: "cycle color / link clip"},
			{Key: "b / F / t", Desc: "blackout / full / send now"},
			{Key: "p", Desc: "pick output port"},
		}},
		{Keys: []widgets.KeyBinding{
			{Key: "hjkl", Desc: "navigate"},
			{Key: "r / d", Desc: "rename / remove"},
			{Key: "tab / q", Desc: "play mode / quit"},
		}},
	}))
	return out.String()
}

func (m Model) renderPortsBody() string {
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	titleStyle := lipgloss.NewStyle().Foreground(m.Theme.FG()).Bold(true)

	var out strings.Builder
	out.WriteString(titleStyle.Render("SELECT LIGHTING OUTPUT"))
	out.WriteString("\n")

	rows := []string{"(no output)"}
	for _, p := range m.ports {
		rows = append(rows, p.Label())
	}
	for i, row := range rows {
		cursor := "  "
		if i == m.portIdx {
			cursor = "> "
		}
		out.WriteString(cursor + row)
		out.WriteString("\n")
	}

	out.WriteString("\n")
	out.WriteString(dimStyle.Render("jk:navigate  enter:select  esc:cancel"))
	return out.String()
}

// renderClipRow draws one clip. wide includes the key badge up front
// for the performance surface.
func (m Model) renderClipRow(c deck.Clip, focused, wide bool) string {
	stateStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	glyph := m.Theme.Symbols.Stopped
	switch c.State {
	case deck.StatePlaying:
		glyph = m.Theme.Symbols.Playing
		stateStyle = lipgloss.NewStyle().Foreground(m.Theme.Active())
	case deck.StatePaused:
		glyph = m.Theme.Symbols.Paused
		stateStyle = lipgloss.NewStyle().Foreground(m.Theme.Warning())
	}

	badge := "   "
	if c.Key != "" {
		badge = fmt.Sprintf("[%s]", input.DisplayName(c.Key))
	}

	name := c.Name
	if len(name) > 20 {
		name = name[:17] + "..."
	}

	meter := widgets.Meter(c.Volume, meterWidth, m.Theme.Symbols.MeterFull, m.Theme.Symbols.MeterEmpty, m.Theme.Accent())

	timepos := fmt.Sprintf("%s / %s", fmtTime(c.Playhead), fmtTime(c.Duration))
	if c.DecodeErr != "" {
		timepos = lipgloss.NewStyle().Foreground(m.Theme.Warning()).Render("decode failed")
	} else if c.Duration == 0 {
		timepos = "decoding..."
	}

	loop := " "
	if c.Loop {
		loop = "⟳"
	}

	focusMark := " "
	if focused {
		focusMark = lipgloss.NewStyle().Foreground(m.Theme.Cursor()).Render("›")
	}

	if wide {
		return fmt.Sprintf("  %s %-5s %s %-20s %s  %s %s",
			focusMark, badge, stateStyle.Render(string(glyph)), name, meter, timepos, loop)
	}

	// loudness hint so quiet files stand out before audition
	energy := strings.Repeat(" ", 4)
	if c.Duration > 0 {
		energy = widgets.Meter(c.Energy, 4, m.Theme.Symbols.MeterFull, m.Theme.Symbols.MeterEmpty, m.Theme.Muted())
	}
	return fmt.Sprintf("%s %-20s %-5s %s %s %s %s",
		stateStyle.Render(string(glyph)), name, badge, meter, energy, timepos, loop)
}

func (m Model) renderSceneRow(sc dmx.Scene) string {
	name := sc.Name
	if len(name) > 16 {
		name = name[:13] + "..."
	}

	active := string(m.Theme.Symbols.SceneIdle)
	if sc.ID == m.Scenes.ActiveID() {
		active = lipgloss.NewStyle().Foreground(m.Theme.Success()).Render(string(m.Theme.Symbols.SceneActive))
	}

	link := ""
	if sc.LinkedClipID != "" {
		if c, ok := m.Deck.Clip(sc.LinkedClipID); ok {
			link = lipgloss.NewStyle().Foreground(m.Theme.Muted()).Render(" → " + c.Name)
		}
	}

	return fmt.Sprintf("%s %s %-16s%s", widgets.Swatch(sc.Color), active, name, link)
}

func (m Model) renderLightingLine() string {
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())

	lit := 0
	snap := m.Levels.Snapshot()
	for _, v := range snap {
		if v > 0 {
			lit++
		}
	}

	scene := "none"
	if id := m.Scenes.ActiveID(); id != "" {
		for _, sc := range m.Scenes.Scenes() {
			if sc.ID == id {
				scene = sc.Name
				break
			}
		}
	}

	return dimStyle.Render(fmt.Sprintf("  lighting: %d/%d channels lit  scene: %s", lit, dmx.ChannelCount, scene))
}

func (m Model) renderConfirm() string {
	var out strings.Builder
	out.WriteString("─────────────────────────────────────────────────\n")
	out.WriteString(fmt.Sprintf("\n%s\n\n", m.confirmMsg))
	out.WriteString("  [y] Yes    [n] No\n")
	out.WriteString("\n─────────────────────────────────────────────────\n")
	return out.String()
}

func (m Model) renderInput() string {
	var label string
	switch m.inputMode {
	case inputImportPath:
		label = "Audio file path"
	case inputRenameClip:
		label = "Rename clip to"
	case inputRenameScene:
		label = "Rename scene to"
	case inputSessionName:
		label = "Save session as"
	}

	var out strings.Builder
	out.WriteString("─────────────────────────────────────────────────\n")
	out.WriteString(fmt.Sprintf("\n%s: %s_\n", label, m.inputBuffer))
	out.WriteString("\n[enter] confirm  [esc] cancel\n")
	out.WriteString("\n─────────────────────────────────────────────────\n")
	return out.String()
}

func fmtTime(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	mins := int(sec) / 60
	rest := sec - float64(mins*60)
	return fmt.Sprintf("%d:%04.1f", mins, rest)
}
