package mixer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gen2brain/malgo"

	"github.com/agalue/audiothread-go/internal/audio"
)

// startupTimeout bounds how long device/context initialization may take
// before the mixer gives up and panics. Unlike a PulseAudio-style
// mainloop whose readiness arrives asynchronously via state callbacks,
// malgo's Init calls are synchronous; this timeout wraps them to
// preserve the same fail-fast startup semantics.
const startupTimeout = 5 * time.Second

// commandBatchWindow is how long the mixer blocks waiting for the first
// command of a batch before continuing its write-ready housekeeping.
const commandBatchWindow = 2 * time.Millisecond

// housekeepingInterval is how often the mixer drops completed sources
// and logs a playing-source-count change.
const housekeepingInterval = 1 * time.Second

// Handle lets a caller drive a running mixer and wait for it to exit.
type Handle struct {
	tx   chan Message
	done chan struct{}
}

// Send delivers a message to the mixer. While the mixer goroutine is
// running it drains its channel every commandBatchWindow; once it has
// exited, Send blocks as soon as the channel's 64-message buffer is full.
func (h *Handle) Send(msg Message) {
	h.tx <- msg
}

// Wait blocks until the mixer goroutine has exited.
func (h *Handle) Wait() {
	<-h.done
}

// Spawn starts the mixer goroutine and returns a Handle to control it.
// opts may be nil to use DefaultOpts.
func Spawn(opts *Opts) *Handle {
	o := DefaultOpts()
	if opts != nil {
		o = *opts
	}

	h := &Handle{
		tx:   make(chan Message, 64),
		done: make(chan struct{}),
	}

	go func() {
		defer close(h.done)
		threadloop(h.tx, o)
	}()

	return h
}

type engine struct {
	opts       Opts
	quality    audio.Quality
	outputSpec audio.AudioSpec

	mu     sync.Mutex
	groups map[audio.AudioSpec]*group

	// scratch is the write callback's reusable mix buffer: malgo invokes
	// Data serially on a single backend thread, so reusing one slice
	// across calls (growing only when a larger buffer is requested)
	// means the output buffer is not reallocated per call. Groups that
	// need channel or rate conversion still allocate inside
	// mixToGivenSpec.
	scratch []float32
}

// writeBuffer returns e.scratch sized to exactly numSamples, growing the
// underlying array only when the requested size exceeds its capacity.
func (e *engine) writeBuffer(numSamples int) []float32 {
	if cap(e.scratch) < numSamples {
		e.scratch = make([]float32, numSamples)
	}
	return e.scratch[:numSamples]
}

func threadloop(rx chan Message, opts Opts) {
	log.Printf("mixer: starting up (%q, %s, quality=%v, buffer=%d frames)",
		opts.StreamName, opts.Spec, opts.ConversionQuality, opts.BufferSize)

	e := &engine{
		opts:       opts,
		quality:    opts.ConversionQuality,
		outputSpec: opts.Spec,
		groups:     make(map[audio.AudioSpec]*group),
	}

	ctx, device, err := e.startDevice()
	if err != nil {
		panic(fmt.Errorf("mixer: fatal startup failure: %w", err))
	}

	defer func() {
		log.Printf("mixer: shutting down gracefully")
		device.Stop()
		device.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
	}()

	if err := device.Start(); err != nil {
		panic(fmt.Errorf("mixer: fatal startup failure starting device: %w", err))
	}

	sinceCleanup := time.Now()
	sourcesPlayingPrev := -1

	for {
		messages, err := recvAll(rx, commandBatchWindow)
		if err != nil {
			log.Printf("mixer: message channel disconnected, shutting down")
			return
		}

		quit := false
		for _, msg := range messages {
			if e.dispatch(msg) {
				quit = true
				break
			}
		}
		if quit {
			return
		}

		e.mu.Lock()
		for _, g := range e.groups {
			for _, s := range g.sources {
				if ep, ok := s.(*externallyPushed); ok {
					ep.update()
				}
			}
		}
		e.mu.Unlock()

		if time.Since(sinceCleanup) >= housekeepingInterval {
			sinceCleanup = time.Now()

			e.mu.Lock()
			total := 0
			for _, g := range e.groups {
				g.dropCompletedSources()
				total += g.sourcesLen()
			}
			e.mu.Unlock()

			if total != sourcesPlayingPrev {
				log.Printf("mixer: %d sources playing", total)
				sourcesPlayingPrev = total
			}
		}
	}
}

// dispatch handles one control message. It returns true if the mixer
// should shut down.
func (e *engine) dispatch(msg Message) bool {
	switch m := msg.(type) {
	case Shutdown:
		return true

	case DropAll:
		e.mu.Lock()
		e.groups = make(map[audio.AudioSpec]*group)
		e.mu.Unlock()

	case PlayFileDecoded:
		e.addSource(m.Source.spec(), m.Source)

	case CreateExternallyPushed:
		ps := newExternallyPushed(m.Setup)
		e.addSource(m.Setup.Spec, ps)

	case GetOutputSpec:
		select {
		case m.Reply <- e.outputSpec:
		default:
			log.Printf("mixer: failed to provide output spec: reply channel not ready")
		}
	}
	return false
}

func (e *engine) addSource(spec audio.AudioSpec, s source) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, ok := e.groups[spec]
	if !ok {
		g = newGroup(spec, e.outputSpec, e.quality)
		e.groups[spec] = g
	}
	if err := g.addSource(s); err != nil {
		log.Printf("mixer: failed to add source: %v", err)
	}
}

// writeReady is the mixer's data callback: it zeroes the output buffer
// and mixes every group into it, using mixToSameSpec directly for groups
// already at the output spec and mixToGivenSpec (with conversion) for
// everything else.
func (e *engine) writeReady(out []float32) {
	for i := range out {
		out[i] = 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for spec, g := range e.groups {
		if spec == e.outputSpec {
			for _, s := range g.sources {
				s.mixToSameSpec(out)
			}
		} else {
			g.mixToGivenSpec(e.outputSpec, out)
		}
	}
}

// startDevice allocates the malgo context and playback device under a
// fail-fast timeout, wiring writeReady as the device's data callback.
func (e *engine) startDevice() (*malgo.AllocatedContext, *malgo.Device, error) {
	type result struct {
		ctx    *malgo.AllocatedContext
		device *malgo.Device
		err    error
	}

	resultCh := make(chan result, 1)

	go func() {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
			log.Printf("mixer: malgo: %s", msg)
		})
		if err != nil {
			resultCh <- result{err: fmt.Errorf("failed to initialize audio context: %w", err)}
			return
		}

		deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
		deviceConfig.Playback.Format = malgo.FormatF32
		deviceConfig.Playback.Channels = uint32(e.outputSpec.Channels.Get())
		deviceConfig.SampleRate = e.outputSpec.Samplerate.Get()
		deviceConfig.PeriodSizeInFrames = uint32(e.opts.BufferSize)

		callbacks := malgo.DeviceCallbacks{
			Data: func(pOutput, pInput []byte, framecount uint32) {
				floatsPerFrame := int(e.outputSpec.Channels.Get())
				out := e.writeBuffer(int(framecount) * floatsPerFrame)
				e.writeReady(out)
				float32ToBytes(out, pOutput)
			},
			Stop: func() {
				log.Printf("mixer: device stopped")
			},
		}

		device, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
		if err != nil {
			ctx.Uninit()
			ctx.Free()
			resultCh <- result{err: fmt.Errorf("failed to initialize playback device: %w", err)}
			return
		}

		resultCh <- result{ctx: ctx, device: device}
	}()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	select {
	case r := <-resultCh:
		return r.ctx, r.device, r.err
	case <-timeoutCtx.Done():
		return nil, nil, fmt.Errorf("audio device startup exceeded %s", startupTimeout)
	}
}

// recvAll blocks up to timeout for the first message, then drains every
// further message already queued without blocking again. It returns
// (nil, nil) on a plain timeout with no messages, and an error if the
// channel is closed.
func recvAll(rx chan Message, timeout time.Duration) ([]Message, error) {
	select {
	case msg, ok := <-rx:
		if !ok {
			return nil, audio.ErrChannelDisconnected
		}

		messages := []Message{msg}

		for {
			select {
			case msg, ok := <-rx:
				if !ok {
					return messages, audio.ErrChannelDisconnected
				}
				messages = append(messages, msg)
			default:
				return messages, nil
			}
		}

	case <-time.After(timeout):
		return nil, nil
	}
}
