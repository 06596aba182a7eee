package app

import (
	"errors"
	"fmt"

	"github.com/ayusman/blinktalk/internal/gaze"
)

// samplesPerTarget is how many gaze ratios RecordCalibration collects per target.
const samplesPerTarget = 1

var (
	// ErrNoGaze is returned when a calibration step needs a gaze sample and none has been seen.
	ErrNoGaze = errors.New("no gaze sample yet")

	// ErrNotCalibrating is returned by RecordCalibration outside a calibration flow.
	ErrNotCalibrating = errors.New("calibration not started")
)

// CalibrationStatus describes the calibration flow.
type CalibrationStatus struct {
	Active   bool           `json:"active"`
	Target   *gaze.Position `json:"target,omitempty"`
	Recorded int            `json:"recorded"`
	Total    int            `json:"total"`
	Matrix   *gaze.Matrix   `json:"matrix,omitempty"`
}

// QuickCalibrate treats the current cursor as the screen center.
func (a *App) QuickCalibrate() error {
	a.trackMu.Lock()
	ok := a.estimator.QuickCalibrate()
	dx, dy := a.estimator.Offsets()
	a.trackMu.Unlock()
	if !ok {
		return ErrNoGaze
	}
	a.logger.Info("quick calibration applied", "offset_x", dx, "offset_y", dy)
	a.publish(EventCalibration, a.Calibration())
	return nil
}

// StartCalibration begins the five-target flow and returns the first target.
func (a *App) StartCalibration() CalibrationStatus {
	a.trackMu.Lock()
	w, h := a.estimator.Screen()
	a.calibrator = gaze.NewCalibrator(w, h, samplesPerTarget)
	a.trackMu.Unlock()

	st := a.Calibration()
	a.publish(EventCalibration, st)
	return st
}

// RecordCalibration records the latest gaze ratio for the current target.
// When the last target is recorded the transform is fitted and installed.
// Calibration lives as long as the App; nothing is written to the store.
func (a *App) RecordCalibration() (CalibrationStatus, error) {
	a.trackMu.Lock()
	if a.calibrator == nil {
		a.trackMu.Unlock()
		return a.Calibration(), ErrNotCalibrating
	}
	r, ok := a.estimator.LastRatio()
	if !ok {
		a.trackMu.Unlock()
		return a.Calibration(), ErrNoGaze
	}
	a.calibrator.Add(r)

	var fitted *gaze.Matrix
	var fitErr error
	if a.calibrator.Done() {
		fitted, fitErr = a.calibrator.Fit()
		a.calibrator = nil
		if fitErr == nil {
			a.estimator.SetMatrix(fitted)
		}
	}
	a.trackMu.Unlock()

	if fitErr != nil {
		return a.Calibration(), fmt.Errorf("fit calibration: %w", fitErr)
	}
	if fitted != nil {
		a.logger.Info("calibration fitted", "matrix", fitted)
	}

	st := a.Calibration()
	a.publish(EventCalibration, st)
	return st, nil
}

// ResetCalibration drops the fitted transform and the quick offsets.
func (a *App) ResetCalibration() {
	a.trackMu.Lock()
	a.estimator.ResetCalibration()
	a.calibrator = nil
	a.trackMu.Unlock()

	a.publish(EventCalibration, a.Calibration())
}

// Calibration returns the state of the calibration flow.
func (a *App) Calibration() CalibrationStatus {
	a.trackMu.Lock()
	defer a.trackMu.Unlock()

	st := CalibrationStatus{Matrix: a.estimator.Matrix()}
	if a.calibrator == nil {
		return st
	}
	st.Active = true
	st.Recorded, st.Total = a.calibrator.Progress()
	if t, ok := a.calibrator.Target(); ok {
		st.Target = &t
	}
	return st
}
