// Package prompt renders model prompt templates. Templates use
// ${variable} placeholders; rendering a prompt with an unbound
// variable is an error, since a partially filled prompt silently
// degrades model output.
package prompt

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// placeholderPattern matches ${varname} - varname can contain
// alphanumeric and underscore.
var placeholderPattern = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Template is a named prompt template.
type Template struct {
	Name string
	Text string
}

// New creates a template.
func New(name, text string) Template {
	return Template{Name: name, Text: text}
}

// Variables returns the distinct placeholder names in the template,
// sorted.
func (t Template) Variables() []string {
	seen := make(map[string]struct{})
	for _, m := range placeholderPattern.FindAllStringSubmatch(t.Text, -1) {
		seen[m[1]] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render substitutes vars into the template. All placeholders must be
// bound; unbound placeholders produce an *UnboundVariableError.
func (t Template) Render(vars map[string]any) (string, error) {
	var missing []string
	result := placeholderPattern.ReplaceAllStringFunc(t.Text, func(match string) string {
		name := match[2 : len(match)-1]
		if val, ok := vars[name]; ok {
			return fmt.Sprintf("%v", val)
		}
		missing = append(missing, name)
		return match
	})
	if len(missing) > 0 {
		return "", &UnboundVariableError{Template: t.Name, Names: missing}
	}
	return result, nil
}

// MustRender renders the template and panics on unbound variables.
// Use only with templates whose inputs are fixed at compile time.
func (t Template) MustRender(vars map[string]any) string {
	result, err := t.Render(vars)
	if err != nil {
		panic(fmt.Sprintf("prompt: %v", err))
	}
	return result
}

// UnboundVariableError reports placeholders that had no binding.
type UnboundVariableError struct {
	Template string
	Names    []string
}

func (e *UnboundVariableError) Error() string {
	if len(e.Names) == 1 {
		return fmt.Sprintf("prompt %q: unbound variable: %s", e.Template, e.Names[0])
	}
	return fmt.Sprintf("prompt %q: unbound variables: %s", e.Template, strings.Join(e.Names, ", "))
}

// Library is a concurrency-safe collection of named templates. It lets
// callers override the built-in prompts without recompiling.
type Library struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewLibrary creates a library seeded with the given templates.
func NewLibrary(templates ...Template) *Library {
	lib := &Library{templates: make(map[string]Template, len(templates))}
	for _, t := range templates {
		lib.templates[t.Name] = t
	}
	return lib
}

// Register adds or replaces a template. Registering a template with an
// empty name is an error.
func (l *Library) Register(t Template) error {
	if t.Name == "" {
		return fmt.Errorf("prompt: template name must not be empty")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.templates[t.Name] = t
	return nil
}

// Get returns the named template.
func (l *Library) Get(name string) (Template, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.templates[name]
	return t, ok
}

// Render looks up the named template and renders it in one step.
func (l *Library) Render(name string, vars map[string]any) (string, error) {
	t, ok := l.Get(name)
	if !ok {
		return "", fmt.Errorf("prompt: unknown template %q", name)
	}
	return t.Render(vars)
}

// Names returns the registered template names, sorted.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.templates))
	for name := range l.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
