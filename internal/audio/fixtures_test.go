package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeTestWAV writes a 16-bit PCM WAV of a sine tone to a temp file. With
// two channels the right channel carries the inverted left signal scaled by
// rightGain, so the mono downmix is predictable.
func writeTestWAV(t *testing.T, sampleRate, channels int, seconds, freq, amp, rightGain float64) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)

	frames := int(float64(sampleRate) * seconds)
	data := make([]int, 0, frames*channels)
	for i := 0; i < frames; i++ {
		v := amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
		data = append(data, int(math.Round(v*32767)))
		if channels == 2 {
			data = append(data, int(math.Round(v*rightGain*32767)))
		}
	}

	buf := &goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encoding WAV fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("closing WAV fixture: %v", err)
	}

	return path
}
