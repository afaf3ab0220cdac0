package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/vk/attrbridge/internal/engine"
)

// Module is the interface that all engine modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the engine runtimes of a single application instance.
type Registry struct {
	runtimes   map[string]*engine.Runtime
	extensions map[string]string
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		runtimes:   make(map[string]*engine.Runtime),
		extensions: make(map[string]string),
	}
}

// RegisterEngine registers the factory of a language's engine together with
// the file extensions (".hcl", ".expr.yaml") its scripts use. The engine is
// not created until its runtime is first used.
func (r *Registry) RegisterEngine(lang string, exts []string, factory func() engine.Engine) {
	lang = strings.ToLower(lang)
	if _, exists := r.runtimes[lang]; exists {
		panic(fmt.Sprintf("engine for language '%s' already registered", lang))
	}
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if owner, exists := r.extensions[ext]; exists {
			panic(fmt.Sprintf("extension '%s' already registered by language '%s'", ext, owner))
		}
		r.extensions[ext] = lang
	}
	slog.Debug("Registering script engine.", "language", lang, "extensions", exts)
	r.runtimes[lang] = engine.NewRuntime(lang, factory)
}

// Languages returns the registered language names, sorted.
func (r *Registry) Languages() []string {
	names := make([]string, 0, len(r.runtimes))
	for name := range r.runtimes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Runtime returns the runtime registered for lang.
func (r *Registry) Runtime(lang string) (*engine.Runtime, bool) {
	rt, ok := r.runtimes[strings.ToLower(lang)]
	return rt, ok
}

// ForPath returns the runtime whose extension is the longest suffix of path.
func (r *Registry) ForPath(path string) (*engine.Runtime, bool) {
	lower := strings.ToLower(path)
	best := ""
	for ext := range r.extensions {
		if strings.HasSuffix(lower, ext) && len(ext) > len(best) {
			best = ext
		}
	}
	if best == "" {
		return nil, false
	}
	return r.runtimes[r.extensions[best]], true
}

// Resolve selects a runtime by explicit language when lang is set, and by
// the script path otherwise.
func (r *Registry) Resolve(lang, path string) (*engine.Runtime, error) {
	if lang != "" {
		rt, ok := r.Runtime(lang)
		if !ok {
			return nil, fmt.Errorf("no engine registered for language '%s' (known: %s)", lang, strings.Join(r.Languages(), ", "))
		}
		return rt, nil
	}
	rt, ok := r.ForPath(path)
	if !ok {
		return nil, fmt.Errorf("no engine registered for script '%s' (known: %s)", path, strings.Join(r.Languages(), ", "))
	}
	return rt, nil
}
