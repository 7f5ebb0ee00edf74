package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"cuedeck/audio"
	"cuedeck/config"
	"cuedeck/debug"
	"cuedeck/deck"
	"cuedeck/dmx"
	"cuedeck/input"
	"cuedeck/session"
	"cuedeck/theme"
	"cuedeck/tui"
)

func main() {
	sessionPath := flag.String("session", "", "session file to load on startup")
	palettePath := flag.String("palette", "", "GIMP .gpl palette for the UI theme")
	debugFlag := flag.Bool("debug", false, "log to ~/.config/cuedeck/debug.log")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *debugFlag || cfg.Debug {
		debug.Enable()
		defer debug.Disable()
	}

	th := theme.New(theme.LoadGPLOrDefault(*palettePath))

	// Audio output. A dead output device degrades to silent running;
	// the transport still works.
	var sink deck.Sink
	silent := true
	if cfg.Audio.Enabled {
		sp := audio.NewSpeaker()
		sink = sp
		silent = !sp.Enabled()
	}

	// Decode workers and the clip deck
	queue := audio.NewQueue(2)
	d := deck.New(sink, queue)
	d.StartRuntime()
	defer d.StopRuntime()

	// Lighting: live levels, scene store, serial transmit loop
	levels := dmx.NewLevels()
	scenes := dmx.NewSceneStore(levels)
	d.OnClipRemoved = scenes.DetachClip

	tx := dmx.NewTransmitter(levels)
	if cfg.DMX.DebounceMS > 0 {
		tx.Debounce = time.Duration(cfg.DMX.DebounceMS) * time.Millisecond
	}
	tx.Start()
	defer tx.Stop()
	if cfg.DMX.Port != "" {
		tx.SelectPort(cfg.DMX.Port)
	}

	bindings := bindingsFromConfig(cfg.Keys)
	router := deck.NewRouter(d, bindings)

	// MIDI trigger input (handles hot-plug)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.MIDI.Enabled {
		src := input.NewMIDISource(cfg.MIDI.Notes)
		go src.Run(ctx)
		go func() {
			for p := range src.Presses() {
				router.Handle(p)
			}
		}()
	}

	fmt.Println("cuedeck")
	fmt.Println("Plug a USB DMX interface any time - pick it from the port list in edit mode")
	fmt.Println("")

	m := tui.NewModel(d, router, bindings, levels, scenes, tx, queue, th)
	m.Silent = silent

	if *sessionPath != "" {
		doc, err := session.Load(*sessionPath)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		warnings := session.Apply(doc, d, scenes, levels)
		if doc.SelectedInterface != "" {
			tx.SelectPort(doc.SelectedInterface)
		}
		m.SessionName = doc.Name
		if len(warnings) > 0 {
			for _, w := range warnings {
				debug.Log("session", "load warning: %s", w)
			}
			m.SetNotice(fmt.Sprintf("loaded with %d warning(s): %s",
				len(warnings), strings.Join(warnings, "; ")))
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// bindingsFromConfig overlays configured control keys on the defaults.
// Codes normalize the same way clip key assignments do, so numpad
// aliases work here too.
func bindingsFromConfig(k config.KeysConfig) deck.Bindings {
	b := deck.DefaultBindings()
	if v := input.NormalizeCode(k.PauseAll); v != "" {
		b.PauseAll = v
	}
	if v := input.NormalizeCode(k.VolumeDownAll); v != "" {
		b.VolumeDown = v
	}
	if v := input.NormalizeCode(k.VolumeUpAll); v != "" {
		b.VolumeUp = v
	}
	if v := input.NormalizeCode(k.FocusedUp); v != "" {
		b.FocusedUp = v
	}
	if v := input.NormalizeCode(k.FocusedDown); v != "" {
		b.FocusedDown = v
	}
	if k.Step > 0 {
		b.Step = k.Step
	}
	return b
}
