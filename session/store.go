package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const timestampLayout = "2006-01-02_15-04-05"

// Info describes one saved session file (for listing).
type Info struct {
	Path      string
	Name      string
	Timestamp time.Time
}

// SessionsDir returns the default save directory.
func SessionsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "cuedeck", "sessions"), nil
}

// Save writes a document to an explicit path, creating parent
// directories as needed.
func Save(doc *Document, path string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// SaveToDir writes a timestamped file into the sessions directory,
// named after the document, and returns its path.
func SaveToDir(doc *Document) (string, error) {
	dir, err := SessionsDir()
	if err != nil {
		return "", err
	}
	name := time.Now().Format(timestampLayout)
	if doc.Name != "" {
		name += "_" + sanitizeFilename(doc.Name)
	}
	path := filepath.Join(dir, name+".json")
	return path, Save(doc, path)
}

// Load reads and parses a session document. Unparseable JSON is a hard
// error; structural problems inside a parsed document surface as
// warnings from Apply instead.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", filepath.Base(path), err)
	}
	return &doc, nil
}

// List returns the saved sessions in the sessions directory, newest
// first.
func List() ([]Info, error) {
	dir, err := SessionsDir()
	if err != nil {
		return nil, err
	}
	return listDir(dir)
}

func listDir(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Info{}, nil
		}
		return nil, err
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}

		// Filename: 2024-01-15_14-30-00.json or 2024-01-15_14-30-00_name.json
		base := strings.TrimSuffix(name, ".json")
		if len(base) < len(timestampLayout) {
			continue
		}
		ts, err := time.Parse(timestampLayout, base[:len(timestampLayout)])
		if err != nil {
			continue
		}

		sessionName := ""
		if len(base) > len(timestampLayout)+1 && base[len(timestampLayout)] == '_' {
			sessionName = base[len(timestampLayout)+1:]
		}

		infos = append(infos, Info{
			Path:      filepath.Join(dir, name),
			Name:      sessionName,
			Timestamp: ts,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Timestamp.After(infos[j].Timestamp)
	})
	return infos, nil
}

// Delete removes a saved session file.
func Delete(path string) error {
	return os.Remove(path)
}

// sanitizeFilename strips characters that are problematic in filenames.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, " ", "-")
	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ReplaceAll(name, "\\", "-")
	name = strings.ReplaceAll(name, ":", "-")
	for _, bad := range []string{"*", "?", "\"", "<", ">", "|"} {
		name = strings.ReplaceAll(name, bad, "")
	}
	return name
}
