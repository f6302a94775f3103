package view

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/odyssey-erp/userdir/internal/shared"
)

// Engine renders named views with their model as JSON documents.
type Engine struct {
	views map[string]struct{}
}

// TemplateData contains values shared across views.
type TemplateData struct {
	Title       string               `json:"title"`
	CSRFToken   string               `json:"csrf_token,omitempty"`
	Flash       *shared.FlashMessage `json:"flash,omitempty"`
	CurrentPath string               `json:"path"`
	Data        any                  `json:"data,omitempty"`
}

type document struct {
	View string `json:"view"`
	TemplateData
}

// NewEngine registers the set of view names the engine may render.
func NewEngine(names ...string) (*Engine, error) {
	views := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("view: empty view name")
		}
		if _, dup := views[name]; dup {
			return nil, fmt.Errorf("view: %s registered twice", name)
		}
		views[name] = struct{}{}
	}
	return &Engine{views: views}, nil
}

// Has reports whether name was registered.
func (e *Engine) Has(name string) bool {
	if e == nil {
		return false
	}
	_, ok := e.views[name]
	return ok
}

// Render writes the named view and status. Unknown names fail before anything is written.
func (e *Engine) Render(w http.ResponseWriter, name string, status int, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("view engine not initialised")
	}
	if !e.Has(name) {
		return fmt.Errorf("view: unknown view %q", name)
	}
	body, err := json.Marshal(document{View: name, TemplateData: data})
	if err != nil {
		return fmt.Errorf("view: encode %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write(append(body, '\n'))
	return err
}
