// Package registry exposes the list of model identifiers the inference
// backend can serve. The list is loaded once at startup and never changes
// for the life of the process.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"chatd/internal/common/fsutil"
)

// Registry is an immutable, ordered list of model ids.
type Registry struct {
	models       []string
	defaultModel string
	source       string
}

// Open builds the registry. A non-empty static list is used as is. Otherwise
// the JSON array at path is read; if the file does not exist it is first
// created holding [defaultModel].
func Open(path, defaultModel string, static []string) (*Registry, error) {
	defaultModel = strings.TrimSpace(defaultModel)
	if len(static) > 0 {
		return newRegistry(static, defaultModel, "static"), nil
	}
	if path == "" {
		return nil, fmt.Errorf("models file path is required")
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if defaultModel == "" {
			return nil, fmt.Errorf("models file %s missing and no default model configured", path)
		}
		if err := bootstrap(path, defaultModel); err != nil {
			return nil, err
		}
		return newRegistry([]string{defaultModel}, defaultModel, path), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read models file: %w", err)
	}
	var models []string
	if err := json.Unmarshal(b, &models); err != nil {
		return nil, fmt.Errorf("parse models file %s: %w", path, err)
	}
	return newRegistry(models, defaultModel, path), nil
}

func bootstrap(path, model string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create models dir: %w", err)
	}
	b, err := json.Marshal([]string{model})
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(path, b, 0o644); err != nil {
		return fmt.Errorf("write models file: %w", err)
	}
	return nil
}

func newRegistry(models []string, defaultModel, source string) *Registry {
	out := make([]string, 0, len(models))
	seen := make(map[string]struct{}, len(models))
	for _, m := range models {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return &Registry{models: out, defaultModel: defaultModel, source: source}
}

// List returns a copy of the model ids in their configured order.
func (r *Registry) List() []string {
	out := make([]string, len(r.models))
	copy(out, r.models)
	return out
}

// Default returns the model used when a request names none: the configured
// default, else the first listed model, else "".
func (r *Registry) Default() string {
	if r.defaultModel != "" {
		return r.defaultModel
	}
	if len(r.models) > 0 {
		return r.models[0]
	}
	return ""
}

// Source describes where the list came from ("static" or the file path).
func (r *Registry) Source() string { return r.source }
