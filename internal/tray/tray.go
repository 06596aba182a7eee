// Package tray provides the system tray menu of the blinktalk board.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// maxTitleRunes bounds the last-sentence menu title.
const maxTitleRunes = 32

// Tray represents the system tray application.
type Tray struct {
	onToggle func(tracking bool)
	onOpen   func()
	onQuit   func()
	tracking bool
	last     string
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuLast   *systray.MenuItem
}

// New creates a new Tray with tracking shown as stopped.
func New() *Tray {
	return &Tray{}
}

// OnToggle sets the callback called with the requested tracking state.
func (t *Tray) OnToggle(fn func(tracking bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback called when the board should be opened.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
func (t *Tray) onReady() {
	systray.SetTitle("Blinktalk")
	systray.SetTooltip("Blinktalk gaze communication board")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.tracking), "Start or stop gaze tracking")
	systray.AddSeparator()
	t.menuLast = systray.AddMenuItem(lastTitle(t.last), "Last spoken sentence")
	t.menuLast.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Board...", "Open the board in the browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Blinktalk")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle asks for the opposite of the shown tracking state. The menu
// updates when SetTracking reports the outcome.
func (t *Tray) handleToggle() {
	t.mu.RLock()
	want := !t.tracking
	callback := t.onToggle
	t.mu.RUnlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(want)
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetTracking updates the toggle to the actual tracking state.
func (t *Tray) SetTracking(tracking bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tracking = tracking
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(tracking))
	}
}

// SetLastSentence shows the most recent spoken sentence.
func (t *Tray) SetLastSentence(sentence string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = sentence
	if t.menuLast != nil {
		t.menuLast.SetTitle(lastTitle(sentence))
	}
}

// Tracking returns the tracking state shown in the menu.
func (t *Tray) Tracking() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tracking
}

func toggleTitle(tracking bool) string {
	if tracking {
		return "● Tracking"
	}
	return "○ Tracking off"
}

func lastTitle(sentence string) string {
	if sentence == "" {
		return "Last: none"
	}
	r := []rune(sentence)
	if len(r) > maxTitleRunes {
		return "Last: " + string(r[:maxTitleRunes-1]) + "…"
	}
	return "Last: " + sentence
}
