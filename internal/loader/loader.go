// Package loader reads panel configuration documents and turns them into a
// template registry. Documents are JSON (comments and trailing commas
// allowed) or YAML. Every document is checked against a JSON Schema and then
// for referential integrity before a registry is returned.
package loader

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/jask/panelflow/internal/handler"
	"github.com/jask/panelflow/internal/panel"
)

var (
	ErrConfigNotFound    = errors.New("configuration document not found")
	ErrConfigUnreadable  = errors.New("configuration document unreadable")
	ErrMalformed         = errors.New("malformed configuration document")
	ErrSchema            = errors.New("configuration document violates schema")
	ErrUnknownEntryPanel = errors.New("unknown entry panel")
	ErrUnknownHandler    = handler.ErrUnknownHandler
	ErrUnknownLinkTarget = errors.New("unknown link target")
	ErrDuplicateWidget   = errors.New("duplicate widget id")
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://panelflow.local/document.schema.json"

var documentSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return c.Compile(schemaURL)
})

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the document format from the file extension. Anything
// that is not .yaml or .yml is read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

type document struct {
	EntryPanel string        `json:"entryPanel"`
	Panels     []panelRecord `json:"panels"`
}

type panelRecord struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Handler     string         `json:"handler_class_name"`
	Widgets     []widgetRecord `json:"widgets"`
}

type widgetRecord struct {
	ID            string   `json:"id"`
	Type          string   `json:"type"`
	Title         string   `json:"title"`
	Value         any      `json:"value"`
	Handler       string   `json:"handler_class_name"`
	Placeholder   string   `json:"placeholder"`
	Options       []string `json:"options"`
	TargetPanelID string   `json:"target_panel_id"`
	Description   string   `json:"description"`
}

// Load reads the document at path and builds a registry. handlers is the set
// of handler ids the document may reference.
func Load(path string, handlers handler.Registry) (*panel.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigUnreadable, path, err)
	}
	reg, err := Parse(data, FormatFromPath(path), handlers)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// Parse builds a registry from document bytes.
func Parse(data []byte, format Format, handlers handler.Registry) (*panel.Registry, error) {
	raw, err := normalize(data, format)
	if err != nil {
		return nil, err
	}
	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	templates, err := buildTemplates(doc.Panels)
	if err != nil {
		return nil, err
	}
	reg, err := panel.NewRegistry(doc.EntryPanel, templates)
	if err != nil {
		return nil, err
	}
	if err := checkIntegrity(reg, handlers); err != nil {
		return nil, err
	}
	return reg, nil
}

// normalize returns plain JSON for either input format.
func normalize(data []byte, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		out, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return out, nil
	case FormatJSON, "":
		out := jsonc.ToJSON(data)
		if !json.Valid(out) {
			return nil, fmt.Errorf("%w: invalid JSON", ErrMalformed)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrMalformed, format)
	}
}

func validateSchema(raw []byte) error {
	sch, err := documentSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return nil
}

func buildTemplates(records []panelRecord) ([]*panel.Template, error) {
	out := make([]*panel.Template, 0, len(records))
	for _, p := range records {
		tpl := &panel.Template{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			HandlerID:   p.Handler,
			Widgets:     make([]panel.Widget, 0, len(p.Widgets)),
		}
		seen := make(map[string]bool, len(p.Widgets))
		for _, w := range p.Widgets {
			if seen[w.ID] {
				return nil, fmt.Errorf("%w: %q in panel %q", ErrDuplicateWidget, w.ID, p.ID)
			}
			seen[w.ID] = true
			widget, err := buildWidget(w)
			if err != nil {
				return nil, fmt.Errorf("panel %q: %w", p.ID, err)
			}
			tpl.Widgets = append(tpl.Widgets, widget)
		}
		out = append(out, tpl)
	}
	return out, nil
}

func buildWidget(w widgetRecord) (panel.Widget, error) {
	kind, err := panel.ParseKind(w.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: widget %q: %v", ErrSchema, w.ID, err)
	}
	base := panel.WidgetBase{ID: w.ID, Title: w.Title, Value: w.Value, HandlerID: w.Handler}
	switch kind {
	case panel.KindTextInput:
		return &panel.TextInput{WidgetBase: base, Placeholder: w.Placeholder}, nil
	case panel.KindButton:
		return &panel.Button{WidgetBase: base}, nil
	case panel.KindOptionSelect:
		options := w.Options
		if options == nil {
			options = []string{}
		}
		return &panel.OptionSelect{WidgetBase: base, Options: options}, nil
	case panel.KindPanelLink:
		return &panel.PanelLink{WidgetBase: base, TargetPanelID: w.TargetPanelID, Description: w.Description}, nil
	}
	return nil, fmt.Errorf("%w: widget %q: unhandled kind %q", ErrSchema, w.ID, kind)
}

// checkIntegrity reports every dangling reference at once.
func checkIntegrity(reg *panel.Registry, handlers handler.Registry) error {
	var errs []error
	panelIDs := reg.IDs()
	handlerIDs := handlers.IDs()

	if _, ok := reg.Lookup(reg.EntryID()); !ok {
		errs = append(errs, fmt.Errorf("%w: %q%s", ErrUnknownEntryPanel, reg.EntryID(), suggest(reg.EntryID(), panelIDs)))
	}
	for _, id := range panelIDs {
		tpl, _ := reg.Lookup(id)
		if tpl.HandlerID != "" && !handlers.Has(tpl.HandlerID) {
			errs = append(errs, fmt.Errorf("%w: %q for panel %q%s", ErrUnknownHandler, tpl.HandlerID, id, suggest(tpl.HandlerID, handlerIDs)))
		}
		for _, w := range tpl.Widgets {
			base := w.Base()
			if base.HandlerID != "" && !handlers.Has(base.HandlerID) {
				errs = append(errs, fmt.Errorf("%w: %q for widget %q%s", ErrUnknownHandler, base.HandlerID, base.ID, suggest(base.HandlerID, handlerIDs)))
			}
			if link, ok := w.(*panel.PanelLink); ok {
				if _, found := reg.Lookup(link.TargetPanelID); !found {
					errs = append(errs, fmt.Errorf("%w: %q for link %q%s", ErrUnknownLinkTarget, link.TargetPanelID, base.ID, suggest(link.TargetPanelID, panelIDs)))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// suggest returns a "did you mean" hint when a candidate is within three
// edits of name.
func suggest(name string, candidates []string) string {
	best := ""
	bestDistance := 4
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(name, c); d < bestDistance {
			bestDistance = d
			best = c
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", best)
}
