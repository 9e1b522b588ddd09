// Command audiothreadctl runs a standalone audio mixing engine with a
// drumkit step sequencer wired in as one of its sources, reading
// drum samples from a YAML kit manifest on disk.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agalue/audiothread-go/internal/audio"
	"github.com/agalue/audiothread-go/internal/drumseq"
	"github.com/agalue/audiothread-go/internal/mixer"
	"github.com/agalue/audiothread-go/internal/wavfile"
)

func main() {
	cfg, err := parseFlags()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	log.SetFlags(log.Ltime)
	log.SetOutput(os.Stdout)

	log.Printf("audiothreadctl starting (stream=%q, rate=%d, channels=%d, quality=%v)",
		cfg.streamName, cfg.samplerate, cfg.channels, cfg.quality)

	outputSpec, err := audio.NewAudioSpec(cfg.samplerate, cfg.channels)
	if err != nil {
		log.Fatalf("invalid output spec: %v", err)
	}

	mixerOpts := mixer.DefaultOpts().
		WithName(cfg.streamName).
		WithSpec(outputSpec).
		WithConversionQuality(cfg.quality).
		WithBufferSize(cfg.bufferSize)

	mixerHandle := mixer.Spawn(&mixerOpts)

	events := drumseq.NewEventSlot()
	drumHandle, err := drumseq.Spawn(mixerHandle, events)
	if err != nil {
		log.Fatalf("failed to start drum render thread: %v", err)
	}

	if cfg.kitManifest != "" {
		kit, err := wavfile.LoadKit(cfg.kitManifest)
		if err != nil {
			log.Fatalf("failed to load kit manifest %q: %v", cfg.kitManifest, err)
		}
		log.Printf("loaded kit manifest %q (%d samples)", cfg.kitManifest, len(kit.Labels()))
		drumHandle.Send(drumseq.LoadSampleSet{Loader: kit})
	} else {
		log.Printf("no -kit given, drum render thread has no samples loaded")
	}

	bpm, err := drumseq.NewBPM(cfg.bpm)
	if err != nil {
		log.Fatalf("invalid -bpm: %v", err)
	}
	swing, err := drumseq.NewSwing(cfg.swing)
	if err != nil {
		log.Fatalf("invalid -swing: %v", err)
	}
	drumHandle.Send(drumseq.SetTempo{BPM: bpm})
	drumHandle.Send(drumseq.SetSwing{Swing: swing})

	if cfg.demoBeat {
		seq := demoSequence(bpm, swing)
		drumHandle.Send(drumseq.SetSequence{Sequence: seq})
		log.Printf("loaded demo four-on-the-floor sequence")
	}

	drumHandle.Send(drumseq.Play{})
	log.Println("drum render thread playing, Ctrl+C to quit")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	stopEvents := make(chan struct{})
	go logStepEvents(events, stopEvents)

	<-sigCh
	log.Println("shutting down...")
	close(stopEvents)

	drumHandle.Send(drumseq.Shutdown{})
	drumHandle.Wait()

	mixerHandle.Send(mixer.Shutdown{})
	mixerHandle.Wait()

	log.Println("shutdown complete")
}

// logStepEvents polls events for new step/trigger activity and logs it,
// standing in for the UI a real frontend would drive off the same slot.
func logStepEvents(events *drumseq.EventSlot, stop <-chan struct{}) {
	lastStep := -1
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ev, ok := events.Latest()
			if !ok || ev.Step == lastStep {
				continue
			}
			lastStep = ev.Step
			if len(ev.Labels) > 0 {
				log.Printf("step %d: %v", ev.Step, ev.Labels)
			}
		}
	}
}

// demoSequence builds a simple four-on-the-floor kick with closed hihats
// on the off-beats, so the binary produces audible output with no
// sequence-editing client attached.
func demoSequence(bpm drumseq.BPM, swing drumseq.Swing) *drumseq.DrumkitSequence {
	timespec, err := drumseq.NewTimeSpecWithSwing(bpm.Get(), 4, 4, swing.Get())
	if err != nil {
		panic(err) // bpm/swing already validated by the caller
	}

	seq := drumseq.New(timespec, drumseq.NoteSixteenth)
	for step := 0; step < seq.Len(); step += 4 {
		seq.SetStepTrigger(step, drumseq.BassDrum, 1.0)
	}
	for step := 2; step < seq.Len(); step += 4 {
		seq.SetStepTrigger(step, drumseq.ClosedHihat, 0.6)
	}
	return seq
}
