package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/electricazimuth/play-synth/synth"
)

func main() {
	var (
		poolSize   = flag.Int("voices", 16, "polyphony (voice pool size)")
		sampleRate = flag.Float64("rate", 48000, "sample rate in Hz")
		bufferSize = flag.Int("buffer", 512, "frames per audio callback")
	)
	flag.Parse()

	library := synth.NewFactoryLibrary()
	engine, err := synth.NewEngine(*poolSize, *sampleRate, library)
	if err != nil {
		log.Fatal(err)
	}

	sink, err := synth.NewSink(*sampleRate, *bufferSize)
	if err != nil {
		log.Fatal(err)
	}
	sink.AddSources(engine)
	if err := sink.Start(); err != nil {
		log.Fatal(err)
	}
	defer sink.Stop()

	fmt.Println("synthdemo: type 'help' for commands")
	if err := repl(engine); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
