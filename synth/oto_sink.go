package synth

import (
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// OtoSink is a push-mode stereo output backend built on oto, behind the
// same Source contract as Sink. It exists for hosts where PortAudio's
// cgo dependency is undesirable (mobile, CI), following the shape of
// IntuitionEngine's OtoPlayer: an io.Reader oto.Player pulls from, fed
// by calling the registered sources' Process once per Read.
type OtoSink struct {
	ctx     *oto.Context
	player  *oto.Player
	sources []Source

	mu  sync.Mutex
	buf [][]float32 // two mono scratch channels, reused across Read calls
}

// NewOtoSink opens an oto context for sampleRate, stereo, float32 samples.
func NewOtoSink(sampleRate int) (*OtoSink, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	s := &OtoSink{ctx: ctx, buf: [][]float32{nil, nil}}
	s.player = ctx.NewPlayer(s)
	return s, nil
}

// AddSources registers the engines this sink pulls from, in order.
func (s *OtoSink) AddSources(sources ...Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = append(s.sources, sources...)
}

// Start begins playback.
func (s *OtoSink) Start() { s.player.Play() }

// Stop halts playback and releases the player.
func (s *OtoSink) Stop() error {
	s.player.Pause()
	return s.player.Close()
}

// Read implements io.Reader for oto.Player: p holds interleaved stereo
// float32 samples, little-endian, four bytes per channel per frame.
func (s *OtoSink) Read(p []byte) (int, error) {
	const bytesPerFrame = 8 // 2 channels * 4 bytes
	frames := len(p) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}

	s.mu.Lock()
	if cap(s.buf[0]) < frames {
		s.buf[0] = make([]float32, frames)
		s.buf[1] = make([]float32, frames)
	}
	left, right := s.buf[0][:frames], s.buf[1][:frames]
	for i := range left {
		left[i] = 0
		right[i] = 0
	}
	for _, src := range s.sources {
		src.Process([][]float32{left, right})
	}
	for i := 0; i < frames; i++ {
		putFloat32LE(p[i*8:], left[i])
		putFloat32LE(p[i*8+4:], right[i])
	}
	s.mu.Unlock()

	return frames * bytesPerFrame, nil
}

func putFloat32LE(b []byte, f float32) {
	bits := math.Float32bits(f)
	b[0] = byte(bits)
	b[1] = byte(bits >> 8)
	b[2] = byte(bits >> 16)
	b[3] = byte(bits >> 24)
}
