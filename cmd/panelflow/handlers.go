package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jask/panelflow/internal/handler"
	"github.com/jask/panelflow/internal/panel"
)

var errNoPath = errors.New("enter a file path first")

func demoHandlers() handler.Registry {
	return handler.Registry{
		"MainMenuHandler":    mainMenuHandler,
		"FilesHandler":       filesHandler,
		handler.FollowLinkID: handler.FollowLink,
	}
}

func mainMenuHandler(_, form map[string]any) handler.Handler {
	return handler.HandlerFunc(func(widgetID string, value any) (handler.Instruction, error) {
		switch widgetID {
		case "settings_button":
			return handler.To("settings_panel"), nil
		case "files_button":
			return handler.To("files_panel"), nil
		case "name_input":
			if name, ok := value.(string); ok {
				form["greeting"] = "hello " + strings.TrimSpace(name)
			}
		}
		return nil, nil
	})
}

// filesHandler opens a preview panel built at runtime for the entered path.
func filesHandler(context, form map[string]any) handler.Handler {
	return handler.HandlerFunc(func(widgetID string, _ any) (handler.Instruction, error) {
		if widgetID != "open_button" {
			return nil, nil
		}
		path, _ := form["file_path_input"].(string)
		path = strings.TrimSpace(path)
		if path == "" {
			return nil, errNoPath
		}
		kind, _ := form["file_type_select"].(string)
		if kind == "" {
			kind = "Text"
		}
		desc := fmt.Sprintf("%s file", kind)
		if g, ok := context["greeting"].(string); ok && g != "" {
			desc = g + ", " + strings.ToLower(desc)
		}
		return handler.ToPanel(&panel.Template{
			ID:          "file_preview",
			Title:       path,
			Description: desc,
			Widgets: []panel.Widget{
				&panel.TextInput{WidgetBase: panel.WidgetBase{ID: "preview_note", Title: "Note"}, Placeholder: "notes about " + path},
			},
		}), nil
	})
}
