package prompt

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"
	"time"

	"swapsignal/internal/logger"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

const (
	IntentTemplate    = "intent"
	RecommendTemplate = "recommend"
)

//go:embed defaults/*.yaml
var defaultFS embed.FS

// Template is one instruction pair: a fixed system text and a user message template.
type Template struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
	System      string `yaml:"system"`
	User        string `yaml:"user"`

	userTpl *template.Template
}

// Render executes the user template against data.
func (t Template) Render(data any) (string, error) {
	if t.userTpl == nil {
		return "", fmt.Errorf("template %s not compiled", t.ID)
	}
	var buf bytes.Buffer
	if err := t.userTpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.ID, err)
	}
	return buf.String(), nil
}

// Registry holds the compiled templates. Embedded defaults are always present; files in the
// override directory replace them by id and are reloaded when they change.
type Registry struct {
	dir string

	mu        sync.RWMutex
	templates map[string]Template
	loadedAt  time.Time
}

// NewRegistry loads the embedded defaults and, when dir is set, the *.yaml overrides in it.
func NewRegistry(dir string) (*Registry, error) {
	r := &Registry{dir: strings.TrimSpace(dir)}
	if err := r.reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Get returns the template for id.
func (r *Registry) Get(id string) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tpl, ok := r.templates[strings.TrimSpace(id)]
	return tpl, ok
}

// MustGet is Get for ids that are guaranteed by the embedded defaults.
func (r *Registry) MustGet(id string) Template {
	tpl, ok := r.Get(id)
	if !ok {
		panic(fmt.Sprintf("prompt template %q missing", id))
	}
	return tpl
}

// LoadedAt reports when the current set was loaded.
func (r *Registry) LoadedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loadedAt
}

func (r *Registry) reload() error {
	next := make(map[string]Template)
	embedded, err := fs.Glob(defaultFS, "defaults/*.yaml")
	if err != nil {
		return err
	}
	for _, name := range embedded {
		raw, err := defaultFS.ReadFile(name)
		if err != nil {
			return err
		}
		tpl, err := parseTemplate(name, raw)
		if err != nil {
			return err
		}
		next[tpl.ID] = tpl
	}
	if r.dir != "" {
		files, err := filepath.Glob(filepath.Join(r.dir, "*.yaml"))
		if err != nil {
			return err
		}
		for _, name := range files {
			raw, err := os.ReadFile(name)
			if err != nil {
				return fmt.Errorf("read prompt override %s: %w", name, err)
			}
			tpl, err := parseTemplate(name, raw)
			if err != nil {
				return err
			}
			next[tpl.ID] = tpl
			logger.Infof("prompt template %s overridden by %s", tpl.ID, name)
		}
	}
	r.mu.Lock()
	r.templates = next
	r.loadedAt = time.Now()
	r.mu.Unlock()
	return nil
}

func parseTemplate(name string, raw []byte) (Template, error) {
	var tpl Template
	if err := yaml.Unmarshal(raw, &tpl); err != nil {
		return Template{}, fmt.Errorf("parse prompt template %s: %w", name, err)
	}
	tpl.ID = strings.TrimSpace(tpl.ID)
	if tpl.ID == "" {
		tpl.ID = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	if strings.TrimSpace(tpl.System) == "" {
		return Template{}, fmt.Errorf("prompt template %s: system text is empty", name)
	}
	compiled, err := template.New(tpl.ID).Option("missingkey=error").Parse(tpl.User)
	if err != nil {
		return Template{}, fmt.Errorf("compile prompt template %s: %w", name, err)
	}
	tpl.userTpl = compiled
	return tpl, nil
}

// Watch reloads overrides on file changes until ctx is done. A failed reload keeps the
// previous set. Without an override directory it returns immediately.
func (r *Registry) Watch(ctx context.Context) error {
	if r.dir == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(r.dir); err != nil {
		return fmt.Errorf("watch prompt dir %s: %w", r.dir, err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(evt.Name) != ".yaml" {
				continue
			}
			if err := r.reload(); err != nil {
				logger.Errorf("prompt template reload failed: %v", err)
				continue
			}
			logger.Infof("prompt templates reloaded after %s", evt)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("prompt watcher error: %v", err)
		}
	}
}
