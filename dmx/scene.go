package dmx

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// scenePalette colors new scenes in creation order. Picked to stay
// readable on both dark and light terminal themes.
var scenePalette = [...]string{
	"#E4572E", "#F3A712", "#A8C686", "#669BBC", "#9B5DE5",
	"#F15BB5", "#00BBF9", "#00F5D4", "#FEE440", "#C1121F",
}

// NextPaletteColor returns the palette entry after the given color,
// wrapping at the end. Colors outside the palette start it over.
func NextPaletteColor(color string) string {
	for i, c := range scenePalette {
		if c == color {
			return scenePalette[(i+1)%len(scenePalette)]
		}
	}
	return scenePalette[0]
}

// Scene is a named snapshot of the full channel buffer. LinkedClipID
// is an informational association with a clip ("this look belongs to
// this song"); recalling is always manual.
type Scene struct {
	ID           string
	Name         string
	Color        string
	Levels       [ChannelCount]byte
	LinkedClipID string
}

// SceneStore owns the scene list and the active-scene marker. At most
// one scene is active; recalling another deactivates the previous one.
type SceneStore struct {
	mu       sync.Mutex
	levels   *Levels
	scenes   []*Scene
	activeID string
	created  int
}

func NewSceneStore(levels *Levels) *SceneStore {
	return &SceneStore{levels: levels}
}

// Create snapshots the live levels into a new scene with an ordinal
// name and the next palette color.
func (s *SceneStore) Create() *Scene {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.created++
	sc := &Scene{
		ID:     uuid.NewString(),
		Name:   fmt.Sprintf("Scene %d", s.created),
		Color:  scenePalette[(s.created-1)%len(scenePalette)],
		Levels: s.levels.Snapshot(),
	}
	s.scenes = append(s.scenes, sc)
	return sc
}

// Record overwrites the scene's stored levels with the live buffer.
// The live buffer itself is untouched.
func (s *SceneStore) Record(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc := s.find(id)
	if sc == nil {
		return fmt.Errorf("record scene: no scene %s", id)
	}
	sc.Levels = s.levels.Snapshot()
	return nil
}

// Recall loads the scene's levels into the live buffer and marks it
// the active scene. Recalling the same scene again is a no-op apart
// from the (idempotent) buffer load.
func (s *SceneStore) Recall(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc := s.find(id)
	if sc == nil {
		return fmt.Errorf("recall scene: no scene %s", id)
	}
	s.levels.Load(sc.Levels)
	s.activeID = sc.ID
	return nil
}

// Update renames, recolors, or relinks a scene. Empty name and color
// leave those fields alone; link always applies (pass "" to unlink).
func (s *SceneStore) Update(id, name, color string, linkedClipID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc := s.find(id)
	if sc == nil {
		return fmt.Errorf("update scene: no scene %s", id)
	}
	if name != "" {
		sc.Name = name
	}
	if color != "" {
		sc.Color = color
	}
	if linkedClipID != nil {
		sc.LinkedClipID = *linkedClipID
	}
	return nil
}

// Remove deletes a scene, clearing the active marker if it held it.
func (s *SceneStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sc := range s.scenes {
		if sc.ID == id {
			s.scenes = append(s.scenes[:i], s.scenes[i+1:]...)
			if s.activeID == id {
				s.activeID = ""
			}
			return
		}
	}
}

// DetachClip clears the link on every scene that references the clip.
// Called when a clip is removed; the scenes themselves survive.
func (s *SceneStore) DetachClip(clipID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sc := range s.scenes {
		if sc.LinkedClipID == clipID {
			sc.LinkedClipID = ""
		}
	}
}

// Scenes returns a snapshot of the scene list in creation order.
func (s *SceneStore) Scenes() []Scene {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Scene, len(s.scenes))
	for i, sc := range s.scenes {
		out[i] = *sc
	}
	return out
}

// ActiveID returns the id of the active scene, "" if none.
func (s *SceneStore) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// SetActiveID restores the active marker (session load). Unknown ids
// clear it.
func (s *SceneStore) SetActiveID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" && s.find(id) == nil {
		id = ""
	}
	s.activeID = id
}

// Restore replaces the scene list wholesale (session load). The
// creation counter continues past the restored count so new scenes
// keep getting fresh ordinals.
func (s *SceneStore) Restore(scenes []Scene) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scenes = s.scenes[:0]
	for i := range scenes {
		sc := scenes[i]
		s.scenes = append(s.scenes, &sc)
	}
	s.created = len(scenes)
	s.activeID = ""
}

func (s *SceneStore) find(id string) *Scene {
	for _, sc := range s.scenes {
		if sc.ID == id {
			return sc
		}
	}
	return nil
}
