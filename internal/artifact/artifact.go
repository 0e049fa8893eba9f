// Package artifact persists a trained model together with the team mapping
// tables it was trained against.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/yourusername/mlb-predictor/internal/ml"
	"github.com/yourusername/mlb-predictor/internal/team"
)

var (
	// ErrUnsupportedFormat indicates an artifact extension with no codec
	ErrUnsupportedFormat = errors.New("unsupported artifact format")

	// ErrClassNotRegistered indicates the model predicts an id the tables do not map
	ErrClassNotRegistered = errors.New("model class not in team tables")
)

// Format is an on-disk encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// FormatForPath picks the codec from the file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".msgpack", ".mp":
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Bundle is everything needed to serve predictions. Model is nil for a
// tables-only artifact used with a remote classifier.
type Bundle struct {
	Version  string             `json:"version"`
	AbbrToID map[string]team.ID `json:"abbr_to_id"`
	IDToAbbr map[team.ID]string `json:"id_to_abbr"`
	Model    *ml.EnsembleModel  `json:"model,omitempty"`
}

// NewBundle snapshots a registry's tables.
func NewBundle(version string, reg *team.Registry, model *ml.EnsembleModel) *Bundle {
	return &Bundle{
		Version:  version,
		AbbrToID: reg.AbbrToID(),
		IDToAbbr: reg.IDToAbbr(),
		Model:    model,
	}
}

// Registry rebuilds the registry from the stored tables.
func (b *Bundle) Registry() (*team.Registry, error) {
	return team.FromTables(b.AbbrToID, b.IDToAbbr)
}

// Validate checks the tables agree and every model class maps to a team.
func (b *Bundle) Validate() error {
	if _, err := b.Registry(); err != nil {
		return err
	}
	if b.Model == nil {
		return nil
	}
	if err := b.Model.Validate(); err != nil {
		return err
	}
	for _, id := range b.Model.Classes {
		if _, ok := b.IDToAbbr[id]; !ok {
			return fmt.Errorf("%w: %d", ErrClassNotRegistered, id)
		}
	}
	return nil
}

// Encode writes the bundle in the given format.
func Encode(w io.Writer, b *Bundle, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		return enc.Encode(b)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Decode reads and validates a bundle.
func Decode(r io.Reader, format Format) (*Bundle, error) {
	var b Bundle
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&b); err != nil {
			return nil, fmt.Errorf("failed to decode artifact: %w", err)
		}
	case FormatMsgpack:
		dec := msgpack.NewDecoder(r)
		dec.SetCustomStructTag("json")
		if err := dec.Decode(&b); err != nil {
			return nil, fmt.Errorf("failed to decode artifact: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Save writes the bundle atomically, choosing the codec by extension.
func Save(path string, b *Bundle) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := Encode(f, b, format); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// Load reads and validates the bundle at path.
func Load(path string) (*Bundle, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Decode(f, format)
}
