// Package main provides a keyboard hook for macOS.
// It types each spoken sentence into the focused application via AppleScript,
// so a message composed by gaze can land in a chat or document.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Request is the hook input written by blinktalk.
type Request struct {
	Event    string          `json:"event"`
	Sentence string          `json:"sentence"`
	Question bool            `json:"question"`
	Config   json.RawMessage `json:"config"`
}

// Response is the hook output read by blinktalk.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config controls what is typed after the sentence.
type Config struct {
	// Submit presses return after typing.
	Submit bool `json:"submit"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	if req.Event != "utterance" {
		writeErrorResponse(fmt.Sprintf("unsupported event: %s", req.Event))
		return
	}

	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("invalid config: %v", err))
			return
		}
	}

	text := strings.TrimSpace(req.Sentence)
	if text == "" {
		writeErrorResponse("sentence is required")
		return
	}
	if req.Question && !strings.HasSuffix(text, "?") {
		text += "?"
	}

	if err := runAppleScript(buildTypeScript(text, cfg.Submit)); err != nil {
		writeErrorResponse(fmt.Sprintf("typing failed: %v", err))
		return
	}

	writeSuccessResponse()
}

// buildTypeScript generates an AppleScript that types text, optionally followed by return.
func buildTypeScript(text string, submit bool) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(text)
	script := fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, escaped)
	if submit {
		script += "\n" + `tell application "System Events" to key code 36`
	}
	return script
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
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
