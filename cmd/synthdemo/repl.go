package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/electricazimuth/play-synth/synth"
)

// repl drives the engine's control-thread API from a plain
// whitespace-split command line, replacing the teacher's dub
// pattern-description mini-language, which belongs to the generative
// step-sequencer this engine doesn't have.
func repl(engine *synth.Engine) error {
	rl, err := readline.New("synth> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			return nil
		}
		if err != nil {
			return err
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if err := dispatch(engine, fields); err != nil {
			fmt.Println("error:", err)
		}
	}
}

func dispatch(engine *synth.Engine, fields []string) error {
	switch fields[0] {
	case "help":
		printHelp()
	case "fire":
		return cmdFire(engine, fields[1:])
	case "sustain":
		return cmdSustain(engine, fields[1:])
	case "release":
		return cmdRelease(engine, fields[1:])
	case "bounce":
		return cmdBounce(engine, fields[1:])
	case "allof", "alloff":
		if !engine.AllOff() {
			return fmt.Errorf("command queue full")
		}
	case "volume":
		return cmdSetFloat(fields[1:], engine.Params().SetMasterVolume)
	case "headroom":
		return cmdSetFloat(fields[1:], engine.Params().SetHeadroom)
	case "bend":
		return cmdSetFloat(fields[1:], engine.Params().SetPitchBend)
	case "stats":
		printStats(engine)
	default:
		return fmt.Errorf("unknown command: %s", fields[0])
	}
	return nil
}

func printHelp() {
	fmt.Println(`commands:
  fire <preset> <pitch> [velocity] [gain] [pan] [duration]
  sustain <key> <preset> <pitch> [velocity] [gain] [pan]
  release <key>
  bounce <preset> <pitch> <frames> <file.wav>
  allof
  volume <0..2>
  headroom <0.1..4>
  bend <-48..48>
  stats`)
}

func cmdFire(engine *synth.Engine, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: fire <preset> <pitch> [velocity] [gain] [pan] [duration]")
	}
	pitch, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("pitch: %w", err)
	}
	velocity, gain, pan, duration := 1.0, 1.0, 0.5, 0.0
	optional := []*float64{&velocity, &gain, &pan, &duration}
	for i, a := range args[2:] {
		if i >= len(optional) {
			break
		}
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return fmt.Errorf("argument %d: %w", i+3, err)
		}
		*optional[i] = v
	}
	if !engine.Fire(args[0], pitch, velocity, gain, pan, duration) {
		return fmt.Errorf("command queue full")
	}
	return nil
}

func cmdSustain(engine *synth.Engine, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: sustain <key> <preset> <pitch> [velocity] [gain] [pan]")
	}
	key, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("key: %w", err)
	}
	pitch, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("pitch: %w", err)
	}
	velocity, gain, pan := 1.0, 1.0, 0.5
	optional := []*float64{&velocity, &gain, &pan}
	for i, a := range args[3:] {
		if i >= len(optional) {
			break
		}
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return fmt.Errorf("argument %d: %w", i+4, err)
		}
		*optional[i] = v
	}
	if !engine.SustainStart(key, args[1], pitch, velocity, gain, pan) {
		return fmt.Errorf("command queue full")
	}
	return nil
}

func cmdBounce(engine *synth.Engine, args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: bounce <preset> <pitch> <frames> <file.wav>")
	}
	pitch, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("pitch: %w", err)
	}
	frames, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("frames: %w", err)
	}
	f, err := os.Create(args[3])
	if err != nil {
		return err
	}
	defer f.Close()

	if !engine.Fire(args[0], pitch, 1.0, 1.0, 0.5, 0) {
		return fmt.Errorf("command queue full")
	}
	return synth.Bounce(f, engine, engine.SampleRate(), frames)
}

func cmdRelease(engine *synth.Engine, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: release <key>")
	}
	key, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("key: %w", err)
	}
	if !engine.SustainRelease(key) {
		return fmt.Errorf("command queue full")
	}
	return nil
}

func cmdSetFloat(args []string, set func(float64) error) error {
	if len(args) != 1 {
		return fmt.Errorf("expected one numeric argument")
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return err
	}
	return set(v)
}

func printStats(engine *synth.Engine) {
	diag := engine.Diagnostics()
	fmt.Printf("active voices: %d/%d\n", engine.ActiveVoiceCount(), engine.PoolSize())
	fmt.Printf("dropped (unknown preset): %d\n", diag.DroppedUnknownPreset())
	fmt.Printf("dropped (invalid): %d\n", diag.DroppedInvalid())
	fmt.Printf("queue overflow: %d\n", diag.QueueOverflow())
}
