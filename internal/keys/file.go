package keys

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"
)

const fileVersion = 1

// File is the on-disk shape of keybindings.toml.
type File struct {
	Version  int                 `toml:"version"`
	Bindings map[string][]string `toml:"bindings"`
}

// LoadFile reads keybindings.toml at path and returns defaults with the
// user's overrides applied. A missing file is created from the defaults. A
// file missing some actions is rewritten with them filled in.
func LoadFile(path string, defaults []Binding) ([]Binding, error) {
	defaultKeys := ByAction(defaults)
	if err := ensureFile(path, defaultKeys); err != nil {
		return nil, err
	}

	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	changed, err := mergeFile(&f, defaultKeys)
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	if changed {
		if err := writeFile(path, f); err != nil {
			return nil, err
		}
	}
	return Apply(defaults, f.Bindings), nil
}

func ensureFile(path string, bindings map[string][]string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create keybindings dir: %w", err)
	}
	return writeFile(path, File{Version: fileVersion, Bindings: bindings})
}

func writeFile(path string, f File) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(f); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// mergeFile validates f against the known actions and fills in missing ones.
// It reports whether f differs from what was read.
func mergeFile(f *File, defaults map[string][]string) (bool, error) {
	if f.Version == 0 {
		f.Version = fileVersion
	}
	if f.Version != fileVersion {
		return false, fmt.Errorf("unsupported version %d", f.Version)
	}

	merged := cloneActionMap(defaults)
	for action, keys := range f.Bindings {
		a := strings.TrimSpace(action)
		if !isValidActionID(a) {
			return false, fmt.Errorf("invalid action %q", action)
		}
		if _, exists := defaults[a]; !exists {
			return false, fmt.Errorf("unknown action %q", a)
		}
		if len(keys) == 0 {
			return false, fmt.Errorf("action %q: keys are required", a)
		}
		out := make([]string, 0, len(keys))
		for _, key := range keys {
			k := normalizeKey(key)
			if k == "" {
				return false, fmt.Errorf("action %q: key cannot be empty", a)
			}
			out = append(out, k)
		}
		merged[a] = out
	}

	changed := !maps.EqualFunc(f.Bindings, merged, slices.Equal[[]string])
	f.Bindings = merged
	return changed, nil
}

func cloneActionMap(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for action, keys := range in {
		out[action] = append([]string(nil), keys...)
	}
	return out
}

func isValidActionID(action string) bool {
	if action == "" {
		return false
	}
	for i, ch := range action {
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) {
			continue
		}
		if ch == '-' && i > 0 && i < len(action)-1 {
			continue
		}
		return false
	}
	return true
}
