// Package session persists the console's working state as a JSON
// document: the clip deck, the live lighting levels, the scene store,
// and the selected output interface.
package session

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"cuedeck/deck"
	"cuedeck/dmx"
	"cuedeck/input"
)

// CurrentVersion is the document schema version this build writes.
const CurrentVersion = 2

// Document is the persisted session shape. Optional fields carry
// omitempty so older readers skip what they do not know.
type Document struct {
	Version           int           `json:"version"`
	Name              string        `json:"name"`
	Items             []Item        `json:"items"`
	DMXLevels         []int         `json:"dmxLevels,omitempty"`
	Scenes            []SceneRecord `json:"scenes,omitempty"`
	SelectedInterface string        `json:"selectedInterface,omitempty"`
	ActiveSceneID     string        `json:"activeSceneId,omitempty"`
}

// Item is one clip entry. Volume is a pointer so a document that omits
// the field gets the deck default instead of zero.
type Item struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Volume      *float64 `json:"volume,omitempty"`
	StartPoint  float64  `json:"startPoint"`
	IsLooping   bool     `json:"isLooping"`
	AssignedKey string   `json:"assignedKey,omitempty"`
	Path        string   `json:"path,omitempty"`
}

// SceneRecord is one stored lighting scene.
type SceneRecord struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Color        string `json:"color"`
	Levels       []int  `json:"levels"`
	LinkedItemID string `json:"linkedItemId,omitempty"`
}

// Collect captures the live console state into a document.
func Collect(name string, d *deck.Deck, store *dmx.SceneStore, levels *dmx.Levels, selectedPort string) *Document {
	doc := &Document{
		Version:           CurrentVersion,
		Name:              name,
		Items:             []Item{},
		SelectedInterface: selectedPort,
		ActiveSceneID:     store.ActiveID(),
	}

	for _, c := range d.Clips() {
		v := c.Volume
		doc.Items = append(doc.Items, Item{
			ID:          c.ID,
			Name:        c.Name,
			Volume:      &v,
			StartPoint:  c.StartCue,
			IsLooping:   c.Loop,
			AssignedKey: c.Key,
			Path:        c.Path,
		})
	}

	live := levels.Snapshot()
	doc.DMXLevels = levelsToInts(live)

	for _, sc := range store.Scenes() {
		doc.Scenes = append(doc.Scenes, SceneRecord{
			ID:           sc.ID,
			Name:         sc.Name,
			Color:        sc.Color,
			Levels:       levelsToInts(sc.Levels),
			LinkedItemID: sc.LinkedClipID,
		})
	}
	return doc
}

// Apply rebuilds the deck, scene store and live levels from a parsed
// document. Every repair or dropped entry becomes a warning; the load
// itself proceeds with whatever is recoverable. Decoding is
// re-submitted for each item whose source file is still readable.
// The selected interface is left on the document for the caller.
func Apply(doc *Document, d *deck.Deck, store *dmx.SceneStore, levels *dmx.Levels) []string {
	var warnings []string

	if doc.Version > CurrentVersion {
		warnings = append(warnings, fmt.Sprintf(
			"session version %d is newer than this build writes (%d); loading what is recognizable",
			doc.Version, CurrentVersion))
	}
	if doc.Items == nil {
		warnings = append(warnings, "session has no item list (pre-v2 document); audio deck not restored")
	}

	d.Reset()
	itemIDs := make(map[string]bool)
	keyOwner := make(map[string]string)
	for _, it := range doc.Items {
		if it.ID != "" && itemIDs[it.ID] {
			warnings = append(warnings, fmt.Sprintf("duplicate item id %s; keeping the first", it.ID))
			continue
		}

		vol := deck.DefaultVolume
		if it.Volume != nil {
			vol = *it.Volume
		}
		id := d.Add(deck.Clip{
			ID:       it.ID,
			Name:     it.Name,
			Path:     it.Path,
			Key:      it.AssignedKey,
			Volume:   vol,
			StartCue: it.StartPoint,
			Loop:     it.IsLooping,
		})
		itemIDs[id] = true

		if key := input.NormalizeCode(it.AssignedKey); key != "" {
			if prev, taken := keyOwner[key]; taken {
				warnings = append(warnings, fmt.Sprintf("key %s assigned to both %q and %q; %q keeps it", key, prev, it.Name, it.Name))
			}
			keyOwner[key] = it.Name
		}

		if it.Path != "" {
			data, err := os.ReadFile(it.Path)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: source not readable: %v", it.Name, err))
			} else {
				d.SubmitDecode(id, data)
			}
		}
	}

	if doc.DMXLevels != nil {
		live, exact := repairLevels(doc.DMXLevels)
		if !exact {
			warnings = append(warnings, fmt.Sprintf("dmxLevels has %d entries, want %d; repaired", len(doc.DMXLevels), dmx.ChannelCount))
		}
		levels.Load(live)
	}

	var scenes []dmx.Scene
	for _, rec := range doc.Scenes {
		lv, exact := repairLevels(rec.Levels)
		if !exact {
			warnings = append(warnings, fmt.Sprintf("scene %q has %d levels, want %d; repaired", rec.Name, len(rec.Levels), dmx.ChannelCount))
		}
		sc := dmx.Scene{
			ID:           rec.ID,
			Name:         rec.Name,
			Color:        rec.Color,
			Levels:       lv,
			LinkedClipID: rec.LinkedItemID,
		}
		if sc.ID == "" {
			sc.ID = uuid.NewString()
			warnings = append(warnings, fmt.Sprintf("scene %q has no id; assigned a fresh one", rec.Name))
		}
		if sc.LinkedClipID != "" && !itemIDs[sc.LinkedClipID] {
			warnings = append(warnings, fmt.Sprintf("scene %q links to missing item %s; link cleared", rec.Name, sc.LinkedClipID))
			sc.LinkedClipID = ""
		}
		scenes = append(scenes, sc)
	}
	store.Restore(scenes)

	if doc.ActiveSceneID != "" {
		found := false
		for _, sc := range scenes {
			if sc.ID == doc.ActiveSceneID {
				found = true
				break
			}
		}
		if found {
			store.SetActiveID(doc.ActiveSceneID)
		} else {
			warnings = append(warnings, fmt.Sprintf("active scene %s not in document; none active", doc.ActiveSceneID))
		}
	}

	return warnings
}

func levelsToInts(levels [dmx.ChannelCount]byte) []int {
	out := make([]int, len(levels))
	for i, v := range levels {
		out[i] = int(v)
	}
	return out
}

// repairLevels coerces a stored level list into the fixed channel
// array, clamping values and tolerating wrong lengths.
func repairLevels(in []int) (out [dmx.ChannelCount]byte, exact bool) {
	for i := 0; i < len(in) && i < dmx.ChannelCount; i++ {
		v := in[i]
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		out[i] = byte(v)
	}
	return out, len(in) == dmx.ChannelCount
}
