package speech

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

// Player plays PCM on the default output device.
type Player struct {
	mu  sync.Mutex
	ctx *malgo.AllocatedContext
}

var _ Output = (*Player)(nil)

// NewPlayer initialises the audio backend.
func NewPlayer() (*Player, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	return &Player{ctx: ctx}, nil
}

// Play blocks until pcm has been played or ctx is cancelled.
// Calls are serialised. After Close it returns ErrNoDevice.
func (p *Player) Play(ctx context.Context, pcm []byte, sampleRate int) error {
	if len(pcm) == 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctx == nil {
		return ErrNoDevice
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatS16
	cfg.Playback.Channels = 1
	cfg.SampleRate = uint32(sampleRate)
	cfg.Alsa.NoMMap = 1

	done := make(chan struct{})
	var once sync.Once
	offset := 0
	onSend := func(out, _ []byte, _ uint32) {
		n := copy(out, pcm[offset:])
		offset += n
		clear(out[n:])
		if offset >= len(pcm) {
			once.Do(func() { close(done) })
		}
	}

	device, err := malgo.InitDevice(p.ctx.Context, cfg, malgo.DeviceCallbacks{Data: onSend})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("speech: start device: %w", err)
	}

	select {
	case <-done:
	case <-ctx.Done():
		_ = device.Stop()
		return ctx.Err()
	}
	return device.Stop()
}

// Close releases the audio backend.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctx == nil {
		return nil
	}
	err := p.ctx.Uninit()
	p.ctx.Free()
	p.ctx = nil
	return err
}
