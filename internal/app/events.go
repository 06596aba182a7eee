package app

import (
	"github.com/ayusman/blinktalk/internal/blink"
	"github.com/ayusman/blinktalk/internal/gaze"
	"github.com/ayusman/blinktalk/internal/plugin"
	"github.com/ayusman/blinktalk/internal/selection"
	"github.com/ayusman/blinktalk/internal/store"
)

// Event kinds sent to the Publisher.
const (
	EventCursor      = "cursor"
	EventZone        = "zone"
	EventBlink       = "blink"
	EventCommand     = "command"
	EventSelection   = "selection"
	EventUtterance   = "utterance"
	EventTracking    = "tracking"
	EventCalibration = "calibration"
	EventGaze        = "gaze"
)

// Publisher receives live events for the UI. Publish must not block.
type Publisher interface {
	Publish(kind string, payload any)
}

type zonePayload struct {
	From gaze.Zone `json:"from"`
	To   gaze.Zone `json:"to"`
}

type gazePayload struct {
	Visible bool `json:"visible"`
}

type commandPayload struct {
	Name string `json:"name"`
}

type blinkPayload struct {
	blink.Event
	Threshold float64 `json:"threshold"`
}

// observer forwards dispatcher notifications to the publisher.
type observer struct {
	a *App
}

func (o observer) ZoneChanged(from, to gaze.Zone) {
	o.a.publish(EventZone, zonePayload{From: from, To: to})
}

func (o observer) CommandFired(name string) {
	o.a.logger.Debug("command", "name", name)
	o.a.publish(EventCommand, commandPayload{Name: name})
}

func (o observer) GazeChanged(visible bool) {
	if !visible {
		o.a.logger.Debug("gaze lost")
	}
	o.a.publish(EventGaze, gazePayload{Visible: visible})
}

func (a *App) publish(kind string, payload any) {
	if a.publisher != nil {
		a.publisher.Publish(kind, payload)
	}
}

func (a *App) publishTracking() {
	a.publish(EventTracking, a.Status())
}

// handleUtterance records a finished sentence and hands it to hooks and listeners.
func (a *App) handleUtterance(u selection.Utterance) {
	rec := store.Utterance{
		SessionID: a.Status().Session,
		Raw:       u.Raw,
		Sentence:  u.Sentence,
		Category:  u.Category,
		Subject:   u.Subject,
		CoreWord:  u.CoreWord,
		Predicate: u.Predicate,
		Question:  u.Question,
		Enhanced:  u.Enhanced,
	}
	if a.store != nil {
		if err := a.store.Utterances().Create(&rec); err != nil {
			a.logger.Warn("failed to record utterance", "error", err)
		}
	}
	a.logger.Info("utterance", "sentence", rec.Sentence, "enhanced", rec.Enhanced)
	a.publish(EventUtterance, rec)

	if a.hooks != nil {
		a.hooks.Fire(plugin.Request{
			Event:     plugin.EventUtterance,
			Sentence:  rec.Sentence,
			Raw:       rec.Raw,
			Category:  rec.Category,
			Subject:   rec.Subject,
			CoreWord:  rec.CoreWord,
			Predicate: rec.Predicate,
			Question:  rec.Question,
		})
	}

	a.listenersMu.RLock()
	listeners := a.listeners
	a.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn(rec)
	}
}
