// Package main provides a system control hook for macOS.
// Sentences from the object category drive the local machine: the TV
// core word maps to output volume and media keys, the light core word to
// screen brightness. Other sentences are acknowledged and ignored.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
)

// Request is the hook input written by blinktalk.
type Request struct {
	Event     string `json:"event"`
	Sentence  string `json:"sentence"`
	Category  string `json:"category"`
	CoreWord  string `json:"coreWord"`
	Predicate string `json:"predicate"`
}

// Response is the hook output read by blinktalk.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type actionHandler func() error

// actionHandlers maps "coreWord/predicate" of the object category to an action.
var actionHandlers = map[string]actionHandler{
	"tv/up":         volumeUp,
	"tv/down":       volumeDown,
	"tv/turn_off":   volumeMute,
	"tv/turn_on":    mediaPlayPause,
	"light/bright":  brightnessUp,
	"light/dark":    brightnessDown,
	"light/turn_on": brightnessUp,
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	if req.Event != "utterance" || req.Category != "object" {
		writeResponse(true, "", "ignored")
		return
	}

	key := req.CoreWord + "/" + req.Predicate
	handler, ok := actionHandlers[key]
	if !ok {
		writeResponse(true, "", "ignored")
		return
	}

	if err := handler(); err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", key, err))
		return
	}
	writeResponse(true, "", key)
}

func writeErrorResponse(errMsg string) {
	writeResponse(false, errMsg, "")
}

func writeResponse(success bool, errMsg, action string) {
	resp := Response{Success: success, Error: errMsg}
	if action != "" {
		resp.Data, _ = json.Marshal(map[string]string{"action": action})
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

func volumeUp() error {
	return runAppleScript(`set volume output volume ((output volume of (get volume settings)) + 10)`)
}

func volumeDown() error {
	return runAppleScript(`set volume output volume ((output volume of (get volume settings)) - 10)`)
}

func volumeMute() error {
	return runAppleScript(`set volume output muted true`)
}

func brightnessUp() error {
	return runAppleScript(`tell application "System Events" to key code 144`)
}

func brightnessDown() error {
	return runAppleScript(`tell application "System Events" to key code 145`)
}

// mediaPlayPause sends the play/pause media key.
func mediaPlayPause() error {
	return runAppleScript(`tell application "System Events" to key code 100`)
}
