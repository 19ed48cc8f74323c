// Package save reads and writes session images. The on-disk format is
// versioned gzipped JSON, published with a temp file and rename so an
// interrupted write never leaves a truncated save under the final
// name.
package save

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ironhaul/server/internal/gamestate"
	"ironhaul/server/internal/world"
)

// ErrUnsupportedVersion reports a save image written by an
// incompatible format revision.
var ErrUnsupportedVersion = errors.New("unsupported save version")

// FormatVersion identifies the on-disk layout.
const FormatVersion = 1

// Extension is the canonical save file suffix.
const Extension = ".ihsv"

// Game is the complete serializable session image.
type Game struct {
	Version  int                `json:"version"`
	SavedAt  time.Time          `json:"savedAt"`
	Scenario string             `json:"scenario"`
	State    gamestate.Snapshot `json:"state"`
	World    world.Snapshot     `json:"world"`
}

// Writer persists one session image.
type Writer interface {
	Write(path string, game Game) error
}

// FileWriter is the default Writer. The zero value is ready to use.
type FileWriter struct{}

func (FileWriter) Write(path string, game Game) error {
	if game.Version == 0 {
		game.Version = FormatVersion
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create save directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "save-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp save: %w", err)
	}
	defer os.Remove(tmp.Name())

	gz := gzip.NewWriter(tmp)
	if err := json.NewEncoder(gz).Encode(game); err != nil {
		tmp.Close()
		return fmt.Errorf("encode save: %w", err)
	}
	if err := gz.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp save: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish save: %w", err)
	}
	return nil
}

var _ Writer = FileWriter{}

// Read loads and validates a session image.
func Read(path string) (Game, error) {
	f, err := os.Open(path)
	if err != nil {
		return Game{}, fmt.Errorf("open save: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return Game{}, fmt.Errorf("read save header: %w", err)
	}
	defer gz.Close()

	var game Game
	if err := json.NewDecoder(gz).Decode(&game); err != nil {
		return Game{}, fmt.Errorf("decode save: %w", err)
	}
	if game.Version != FormatVersion {
		return Game{}, fmt.Errorf("%w %d", ErrUnsupportedVersion, game.Version)
	}
	return game, nil
}
