package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/blinktalk/internal/capture"
	"github.com/ayusman/blinktalk/internal/detector"
)

// runPipeline is the frame loop. It exits when stopCh is closed or when the
// detector cannot be recovered.
//
// Pipeline logic:
//  1. Read a frame on every tick and keep it for the preview stream
//  2. In active mode run detection on every FrameSkip-th frame, in idle mode on every frame
//  3. Feed the landmarks to the gaze estimator and the blink classifier,
//     their output to the dispatcher and from there to the selection machine
//  4. After IdleTimeout without a face drop to IdleFPS, switch back on the first face
//  5. After MaxConsecutiveErrors failed detections restart the detector once
func (a *App) runPipeline(stopCh chan struct{}, done chan struct{}) {
	defer close(done)

	t := a.settings.Tracking
	idle := false
	lastFace := time.Now()
	frames := 0
	errs := 0

	ticker := time.NewTicker(frameInterval(t.ActiveFPS))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}

		frames++
		process := idle || t.FrameSkip <= 1 || frames%t.FrameSkip == 0

		now := time.Now()
		face, err := a.processFrame(now, process)
		switch {
		case errors.Is(err, errNoFrame):
			a.logger.Debug("no frame available", "error", err)
			continue
		case err != nil:
			errs++
			a.logger.Debug("frame failed", "error", err, "consecutive", errs)
			if t.MaxConsecutiveErrors > 0 && errs >= t.MaxConsecutiveErrors {
				errs = 0
				if !a.recoverDetector(stopCh) {
					return
				}
			}
			continue
		case !process:
			continue
		}
		errs = 0

		if face {
			lastFace = now
			if idle {
				idle = false
				a.setCadence(ticker, t.ActiveFPS)
			}
		} else if !idle && now.Sub(lastFace) >= t.IdleTimeout {
			idle = true
			a.setCadence(ticker, t.IdleFPS)
		}
		a.setFace(face)
	}
}

// errNoFrame wraps camera read failures, which do not count towards a detector restart.
var errNoFrame = errors.New("no frame")

// processFrame reads one frame and, when process is set, runs it through the
// tracking components. A panic inside the frame is turned into an error.
func (a *App) processFrame(now time.Time, process bool) (face bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in frame: %v", r)
		}
	}()

	frame, err := a.camera.ReadFrame()
	if err != nil {
		return false, fmt.Errorf("%w: %w", errNoFrame, err)
	}
	defer frame.Close()

	a.preview.update(frame)
	if !process {
		return false, nil
	}

	lm, err := a.detector.Detect(frame)
	if err != nil {
		return false, fmt.Errorf("detect: %w", err)
	}
	a.track(lm, now)
	return lm != nil, nil
}

// track advances gaze, blink and dispatch by one frame. lm may be nil.
func (a *App) track(lm *detector.FaceLandmarks, now time.Time) {
	a.trackMu.Lock()
	defer a.trackMu.Unlock()

	if sample, ok := a.estimator.Update(lm); ok {
		a.dispatcher.HandleCursor(sample.Position.X, now)
		a.publish(EventCursor, sample)
	} else {
		a.dispatcher.HandleNoGaze()
	}

	for _, ev := range a.classifier.Update(lm, now) {
		a.publish(EventBlink, blinkPayload{Event: ev, Threshold: a.classifier.Threshold()})
		a.dispatcher.HandleBlink(ev)
	}
}

// recoverDetector restarts the detector after a run of failures. On failure
// tracking is disabled and false is returned.
func (a *App) recoverDetector(stopCh chan struct{}) bool {
	a.logger.Warn("restarting detector after repeated failures")
	if err := a.detector.Close(); err != nil {
		a.logger.Debug("error closing detector", "error", err)
	}
	err := a.initDetector()
	if err == nil {
		return true
	}
	a.logger.Error("detector restart failed", "error", err)

	a.mu.Lock()
	if a.stopCh != stopCh {
		// Stop is already tearing the loop down.
		a.mu.Unlock()
		return false
	}
	a.stopCh = nil
	a.done = nil
	a.state = StateDisabled
	a.message = msgRestart
	a.fps = 0
	a.face = false
	a.mu.Unlock()

	a.release()
	a.publishTracking()
	return false
}

func (a *App) setCadence(ticker *time.Ticker, fps int) {
	ticker.Reset(frameInterval(fps))
	a.camera.SetFPS(fps)

	a.mu.Lock()
	a.fps = fps
	a.mu.Unlock()

	a.logger.Debug("frame rate changed", "fps", fps)
	a.publishTracking()
}

func (a *App) setFace(face bool) {
	a.mu.Lock()
	a.face = face
	a.mu.Unlock()
}

func frameInterval(fps int) time.Duration {
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	return time.Second / time.Duration(fps)
}
