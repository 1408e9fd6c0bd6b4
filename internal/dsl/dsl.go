// Package dsl reads the YAML workflow documents exchanged by export and
// import. It only checks the document's structure; graph validation belongs
// to the workflow service.
package dsl

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Default icon values the service fills in when a document omits them.
const (
	DefaultIconType       = "emoji"
	DefaultIcon           = "🤖"
	DefaultIconBackground = "#FFEAD5"
)

// App is the app block of a workflow document.
type App struct {
	Name           string `yaml:"name" json:"name"`
	Mode           string `yaml:"mode" json:"mode"`
	Description    string `yaml:"description" json:"description"`
	IconType       string `yaml:"icon_type" json:"icon_type"`
	Icon           string `yaml:"icon" json:"icon"`
	IconBackground string `yaml:"icon_background" json:"icon_background"`
}

// Document is the part of a workflow document the workbench cares about.
type Document struct {
	Version string `yaml:"version" json:"version"`
	Kind    string `yaml:"kind" json:"kind"`
	App     App    `yaml:"app" json:"app"`
}

// ValidationError reports a malformed workflow document.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid workflow document: %s: %v", e.Reason, e.Err)
	}
	return "invalid workflow document: " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Parse decodes content and checks that it is a mapping with an app block
// carrying a name and a mode. Icon fields get the service defaults.
func Parse(content string) (*Document, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &ValidationError{Reason: "content is empty"}
	}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(content), &root); err != nil {
		return nil, &ValidationError{Reason: "not valid YAML", Err: err}
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, &ValidationError{Reason: "document must be a mapping"}
	}

	var raw map[string]interface{}
	if err := root.Decode(&raw); err != nil {
		return nil, &ValidationError{Reason: "not valid YAML", Err: err}
	}
	appRaw, ok := raw["app"]
	if !ok {
		return nil, &ValidationError{Reason: "missing app section"}
	}
	if _, ok := appRaw.(map[string]interface{}); !ok {
		return nil, &ValidationError{Reason: "app section must be a mapping"}
	}

	var doc Document
	if err := root.Decode(&doc); err != nil {
		return nil, &ValidationError{Reason: "unexpected field types", Err: err}
	}
	if strings.TrimSpace(doc.App.Name) == "" {
		return nil, &ValidationError{Reason: "app name is empty"}
	}
	if strings.TrimSpace(doc.App.Mode) == "" {
		return nil, &ValidationError{Reason: "app mode is empty"}
	}

	if doc.App.IconType == "" {
		doc.App.IconType = DefaultIconType
	}
	if doc.App.Icon == "" {
		doc.App.Icon = DefaultIcon
	}
	if doc.App.IconBackground == "" {
		doc.App.IconBackground = DefaultIconBackground
	}
	return &doc, nil
}

// SafeFilename turns a workflow name into a .yml filename, keeping letters,
// digits, '-' and '_' and replacing spaces with underscores. Names with
// nothing usable fall back to workflow-<first 8 chars of id>.
func SafeFilename(name, id string) string {
	var b strings.Builder
	for _, r := range name {
		if r == ' ' || r == '-' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	safe := strings.ReplaceAll(strings.TrimSpace(b.String()), " ", "_")
	if safe == "" {
		short := id
		if len(short) > 8 {
			short = short[:8]
		}
		safe = "workflow-" + short
	}
	return safe + ".yml"
}
