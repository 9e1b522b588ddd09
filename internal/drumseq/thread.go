package drumseq

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/agalue/audiothread-go/internal/audio"
	"github.com/agalue/audiothread-go/internal/mixer"
)

// shutdownTimeout bounds how long the render thread waits, after a
// Shutdown message, for the mixer to stop pulling before giving up and
// exiting anyway.
const shutdownTimeout = 3 * time.Second

// controlLoopInterval is how long the render thread sleeps between
// iterations when there is nothing immediately to do.
const controlLoopInterval = 2 * time.Millisecond

// Message is the union of commands the drum render thread accepts.
type Message interface {
	isMessage()
}

// Play resumes rendering from the current position.
type Play struct{}

func (Play) isMessage() {}

// Pause stops rendering without resetting position.
type Pause struct{}

func (Pause) isMessage() {}

// Stop pauses rendering and resets playback position to step 0.
type Stop struct{}

func (Stop) isMessage() {}

// Shutdown asks the render thread to disconnect from the mixer and exit.
type Shutdown struct{}

func (Shutdown) isMessage() {}

// LoadSampleSet asynchronously loads a new sample cache generation.
type LoadSampleSet struct {
	Loader DrumkitSampleLoader
}

func (LoadSampleSet) isMessage() {}

// SetTempo changes the sequence's BPM.
type SetTempo struct{ BPM BPM }

func (SetTempo) isMessage() {}

// SetSwing changes the sequence's swing amount.
type SetSwing struct{ Swing Swing }

func (SetSwing) isMessage() {}

// SetSequence replaces the sequence being rendered.
type SetSequence struct{ Sequence *DrumkitSequence }

func (SetSequence) isMessage() {}

// ResetSequence resets playback position without pausing.
type ResetSequence struct{}

func (ResetSequence) isMessage() {}

// ClearSequence removes every trigger from every step.
type ClearSequence struct{}

func (ClearSequence) isMessage() {}

// EditSequenceClearStep removes every trigger from one step.
type EditSequenceClearStep struct{ Step int }

func (EditSequenceClearStep) isMessage() {}

// EditSequenceSetStepTrigger sets one step's trigger for a label.
type EditSequenceSetStepTrigger struct {
	Step      int
	Label     DrumkitLabel
	Amplitude float32
}

func (EditSequenceSetStepTrigger) isMessage() {}

// EditSequenceUnsetStepTrigger removes one step's trigger for a label.
type EditSequenceUnsetStepTrigger struct {
	Step  int
	Label DrumkitLabel
}

func (EditSequenceUnsetStepTrigger) isMessage() {}

// EventSlot holds the most recently published sequencer event. Publish
// overwrites whatever was previously there; Latest returns the newest
// value, or ok=false if nothing has been published yet. This is the
// single-value "latest wins" channel a UI can poll for step/label
// highlighting, without the render thread ever blocking on a listener.
type EventSlot struct {
	mu    sync.Mutex
	value *DrumkitSequenceEvent
}

// NewEventSlot builds an empty EventSlot.
func NewEventSlot() *EventSlot {
	return &EventSlot{}
}

func (s *EventSlot) publish(ev DrumkitSequenceEvent) {
	s.mu.Lock()
	s.value = &ev
	s.mu.Unlock()
}

// Latest returns the most recently published event, if any.
func (s *EventSlot) Latest() (DrumkitSequenceEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.value == nil {
		return DrumkitSequenceEvent{}, false
	}
	return *s.value, true
}

// Handle lets a caller drive a running drum render thread and wait for
// it to exit.
type Handle struct {
	tx   chan Message
	done chan struct{}
}

// Send delivers a message to the render thread.
func (h *Handle) Send(msg Message) {
	h.tx <- msg
}

// Wait blocks until the render thread has exited.
func (h *Handle) Wait() {
	<-h.done
}

// Spawn registers a drumkit sequence as an externally-pushed source on
// mixerHandle's output spec, then starts the render thread goroutine.
// eventTx may be nil if the caller does not need step/label events.
func Spawn(mixerHandle *mixer.Handle, eventTx *EventSlot) (*Handle, error) {
	specRx := make(chan audio.AudioSpec, 1)
	mixerHandle.Send(mixer.GetOutputSpec{Reply: specRx})

	var outputSpec audio.AudioSpec
	select {
	case outputSpec = <-specRx:
	case <-time.After(1 * time.Second):
		return nil, fmt.Errorf("drumseq: timed out waiting for mixer output spec")
	}

	log.Printf("drumseq: output spec: %s", outputSpec)

	bufSize := (int(outputSpec.Samplerate.Get()) / 8) * 2
	buffer := make([]float32, bufSize)
	ring := audio.NewRing(bufSize)
	pullRequestCh := make(chan mixer.PullRequest, 16)

	log.Printf("drumseq: render buffer size (frames): %d", len(buffer)/2)

	mixerHandle.Send(mixer.CreateExternallyPushed{Setup: mixer.ExternallyPushedSetup{
		Name:          "DrumkitSequence",
		Spec:          outputSpec,
		Buffer:        ring,
		PullRequestTx: pullRequestCh,
	}})

	renderer := NewDrumkitSequenceRenderer(outputSpec.Samplerate)

	h := &Handle{
		tx:   make(chan Message, 64),
		done: make(chan struct{}),
	}

	go func() {
		defer close(h.done)
		runLoop(renderer, buffer, ring, pullRequestCh, h.tx, eventTx)
	}()

	return h, nil
}

// runLoop is the render thread's body: on every iteration it drains
// pending control messages, answers at most one pull request from the
// mixer by rendering (or, if paused, zero-filling) enough frames to top
// up the ring buffer, and flushes any sequencer events whose scheduled
// time has arrived. A Shutdown message starts a grace period in which
// the thread ignores further control messages and waits for the next
// pull request, answers it with Disconnect and exits, giving up
// unconditionally once shutdownTimeout elapses.
func runLoop(renderer *DrumkitSequenceRenderer, buffer []float32, ring *audio.Ring, pullRequestRx chan mixer.PullRequest, controlRx chan Message, eventTx *EventSlot) {
	paused := true
	shuttingDown := false
	var shutdownRequestedAt time.Time
	var pendingEvents []DrumkitSequenceEvent

	for {
		if !shuttingDown {
			if quit := drainControl(controlRx, renderer, &paused, &shuttingDown, &shutdownRequestedAt); quit {
				return
			}
		} else {
			select {
			case _, ok := <-controlRx:
				if ok {
					log.Printf("drumseq: message received after shutdown request")
				}
			default:
			}
		}

		select {
		case req := <-pullRequestRx:
			if shuttingDown {
				trySendReply(req, mixer.PullReply{Disconnect: true})
				return
			}

			numVacant := ring.VacantLen()
			if numVacant > len(buffer) {
				numVacant = len(buffer)
			}

			if !paused {
				_, newEvents := renderer.Render(buffer[:numVacant])
				pendingEvents = append(pendingEvents, newEvents...)
			} else {
				for i := 0; i < numVacant; i++ {
					buffer[i] = 0
				}
			}

			ring.PushSlice(buffer[:numVacant])

			if !trySendReply(req, mixer.PullReply{FramesProvided: numVacant / 2}) {
				log.Printf("drumseq: pull reply channel disconnected unexpectedly")
				return
			}
		default:
		}

		if shuttingDown && time.Since(shutdownRequestedAt) >= shutdownTimeout {
			log.Printf("drumseq: forcibly shutting down drum render thread")
			return
		}

		if eventTx != nil {
			now := time.Now()
			for len(pendingEvents) > 0 && !pendingEvents[0].Time.After(now) {
				eventTx.publish(pendingEvents[0])
				pendingEvents = pendingEvents[1:]
			}
		}

		time.Sleep(controlLoopInterval)
	}
}

func trySendReply(req mixer.PullRequest, reply mixer.PullReply) bool {
	select {
	case req.Reply <- reply:
		return true
	default:
		return false
	}
}

// drainControl processes every control message already queued, without
// blocking. It returns true if the control channel has disconnected and
// the render thread should exit immediately.
func drainControl(controlRx chan Message, renderer *DrumkitSequenceRenderer, paused, shuttingDown *bool, shutdownRequestedAt *time.Time) bool {
	for {
		select {
		case msg, ok := <-controlRx:
			if !ok {
				log.Printf("drumseq: control channel disconnected unexpectedly")
				return true
			}

			switch m := msg.(type) {
			case Play:
				*paused = false
			case Pause:
				*paused = true
			case Stop:
				*paused = true
				renderer.ResetSequence()
			case Shutdown:
				*shuttingDown = true
				*shutdownRequestedAt = time.Now()
			case LoadSampleSet:
				renderer.LoadSamplesAsync(m.Loader)
			case SetTempo:
				renderer.SetTempo(m.BPM)
			case SetSwing:
				renderer.SetSwing(m.Swing)
			case SetSequence:
				renderer.SetSequence(m.Sequence)
			case ResetSequence:
				renderer.ResetSequence()
			case ClearSequence:
				renderer.SequenceClear()
			case EditSequenceClearStep:
				renderer.SequenceClearStep(m.Step)
			case EditSequenceSetStepTrigger:
				renderer.SequenceSetStepTrigger(m.Step, m.Label, m.Amplitude)
			case EditSequenceUnsetStepTrigger:
				renderer.SequenceUnsetStepTrigger(m.Step, m.Label)
			}

			if *shuttingDown {
				return false
			}
		default:
			return false
		}
	}
}
