// Package plugin runs external hook programs when blinktalk events happen,
// for example forwarding a spoken "TV 켜다" to a home-automation bridge.
package plugin

import (
	"encoding/json"
	"slices"
)

// EventUtterance is sent when a sentence has been spoken.
const EventUtterance = "utterance"

// Manifest describes a plugin's metadata and the events it subscribes to.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Events       []string        `json:"events"`
	Config       json.RawMessage `json:"config,omitempty"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Handles reports whether the manifest subscribes to event.
func (m Manifest) Handles(event string) bool {
	return slices.Contains(m.Events, event)
}

// Request is written as JSON to the plugin's stdin.
type Request struct {
	Event     string          `json:"event"`
	Sentence  string          `json:"sentence"`
	Raw       string          `json:"raw,omitempty"`
	Category  string          `json:"category,omitempty"`
	Subject   string          `json:"subject,omitempty"`
	CoreWord  string          `json:"coreWord,omitempty"`
	Predicate string          `json:"predicate,omitempty"`
	Question  bool            `json:"question,omitempty"`
	Config    json.RawMessage `json:"config,omitempty"`
}

// Response is read as JSON from the plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
