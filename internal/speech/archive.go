package speech

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/youpy/go-wav"
)

// Archive stores spoken utterances as mono 16-bit WAV files.
type Archive struct {
	dir string
}

// NewArchive creates dir if needed.
func NewArchive(dir string) (*Archive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("speech: create archive dir: %w", err)
	}
	return &Archive{dir: dir}, nil
}

// Path returns the file path for id.
func (a *Archive) Path(id string) string {
	return filepath.Join(a.dir, id+".wav")
}

// Save writes little-endian PCM as <id>.wav and returns its path.
func (a *Archive) Save(id string, pcm []byte, sampleRate int) (string, error) {
	samples := make([]wav.Sample, len(pcm)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		samples[i] = wav.Sample{Values: [2]int{int(v), 0}}
	}

	path := a.Path(id)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("speech: create wav: %w", err)
	}
	defer f.Close()

	w := wav.NewWriter(f, uint32(len(samples)), 1, uint32(sampleRate), 16)
	if err := w.WriteSamples(samples); err != nil {
		return "", fmt.Errorf("speech: write wav: %w", err)
	}
	return path, nil
}
