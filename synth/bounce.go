package synth

import (
	"io"
	"math"

	wav "github.com/youpy/go-wav"
)

// Bounce renders frames stereo frames from src into a standard 16-bit
// PCM WAV file written to w. It is offline-only tooling — never called
// from the audio callback — used by the demo's bounce command and by
// a determinism test that renders the same input twice and compares
// the bytes (§8's "constant command input => bit-identical output" is
// easiest to pin down from a rendered file).
func Bounce(w io.Writer, src Source, sampleRate float64, frames int) error {
	const channels = 2
	const bitsPerSample = 16

	left := make([]float32, frames)
	right := make([]float32, frames)
	src.Process([][]float32{left, right})

	writer := wav.NewWriter(w, uint32(frames), uint16(channels), uint32(sampleRate), uint16(bitsPerSample))

	samples := make([]byte, frames*channels*2)
	for i := 0; i < frames; i++ {
		putInt16LE(samples[i*4:], floatToPCM16(left[i]))
		putInt16LE(samples[i*4+2:], floatToPCM16(right[i]))
	}
	_, err := writer.Write(samples)
	return err
}

func floatToPCM16(f float32) int16 {
	v := float64(f) * 32767
	if v > 32767 {
		v = 32767
	}
	if v < -32768 {
		v = -32768
	}
	return int16(math.Round(v))
}

func putInt16LE(b []byte, v int16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}
