package synth

import (
	"github.com/gordonklaus/portaudio"
)

// Source is anything that can render a block of audio into a callback
// buffer holding one slice per channel (non-interleaved, as PortAudio's
// [][]float32 callback passes it). Engine implements this.
type Source interface {
	Process([][]float32)
}

// Sink is a live PortAudio output stream, following the teacher's
// pull-mode wiring in sink.go: PortAudio calls Process directly from
// its own realtime thread whenever it needs more samples.
type Sink struct {
	sources []Source
	stream  *portaudio.Stream
}

// NewSink opens the default output device at sampleRate with frames
// of bufferSize samples per channel.
func NewSink(sampleRate float64, bufferSize int) (*Sink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	var s Sink
	stream, err := portaudio.OpenDefaultStream(0, 2, sampleRate, bufferSize, s.Process)
	if err != nil {
		return nil, err
	}
	s.stream = stream
	return &s, nil
}

func (s *Sink) Start() error {
	return s.stream.Start()
}

func (s *Sink) Stop() error {
	s.stream.Close()
	portaudio.Terminate()
	return nil
}

// AddSources registers the engines this sink pulls from, in order.
func (s *Sink) AddSources(sources ...Source) {
	s.sources = append(s.sources, sources...)
}

// Process is PortAudio's pull callback: zero the buffer, then let
// every source add its contribution.
func (s *Sink) Process(samples [][]float32) {
	for i := range samples {
		for j := range samples[i] {
			samples[i][j] = 0
		}
	}
	for _, source := range s.sources {
		source.Process(samples)
	}
}
