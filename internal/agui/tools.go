package agui

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Frontend tool names.
const (
	ToolSetThemeColor = "setThemeColor"
	ToolFullSend      = "full_send"
)

// FrontendTools lists the tools the board answers itself.
func FrontendTools() []Tool {
	return []Tool{
		{
			Name:        ToolSetThemeColor,
			Description: "Set the theme color of the page.",
			Parameters: json.RawMessage(`{"type":"object","properties":{"themeColor":{"type":"string",` +
				`"description":"The theme color to set. Make sure to pick nice colors."}},"required":["themeColor"]}`),
		},
		{
			Name:        ToolFullSend,
			Description: "Mark every todo as done. The user is asked to confirm first.",
			Parameters:  json.RawMessage(`{"type":"object","properties":{}}`),
		},
	}
}

// IsFrontendTool reports whether name is answered by the board.
func IsFrontendTool(name string) bool {
	return name == ToolSetThemeColor || name == ToolFullSend
}

// ThemeColorArgs parses setThemeColor arguments.
func ThemeColorArgs(raw string) (string, error) {
	var args struct {
		ThemeColor string `json:"themeColor"`
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return "", fmt.Errorf("agui: %s arguments: %w", ToolSetThemeColor, err)
	}
	color := strings.TrimSpace(args.ThemeColor)
	if color == "" {
		return "", errors.New("agui: themeColor is required")
	}
	return color, nil
}
