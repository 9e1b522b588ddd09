package mixer

import (
	"io"
	"log"

	"github.com/agalue/audiothread-go/internal/audio"
)

// Decoder is the opaque, packet-at-a-time interleaved-sample producer a
// FileDecoded source drives. Concrete decoders (e.g. internal/wavfile)
// live outside this package; the mixer only ever sees this contract.
type Decoder interface {
	// Spec returns the stream's native audio spec.
	Spec() audio.AudioSpec
	// Decode returns the next packet of interleaved samples in Spec's
	// format, io.EOF when the stream is exhausted, or another error on
	// decode failure (treated the same as EOF: the source completes).
	Decode() ([]float32, error)
}

// source is implemented by every concrete source kind the mixer mixes.
type source interface {
	spec() audio.AudioSpec
	streamState() audio.StreamState
	mixToSameSpec(out []float32)
}

// FileDecoded is a source driven by a Decoder, with a small prebuffer so
// a packet larger than the caller's mix request doesn't get dropped.
type FileDecoded struct {
	name        string
	decoder     Decoder
	audioSpec   audio.AudioSpec
	state       audio.StreamState
	prebuf      []float32
	prebufIndex int
}

// NewFileDecoded wraps a Decoder as a mixer source.
func NewFileDecoded(name string, decoder Decoder) *FileDecoded {
	return &FileDecoded{
		name:      name,
		decoder:   decoder,
		audioSpec: decoder.Spec(),
		state:     audio.StreamStateStreaming,
	}
}

func (f *FileDecoded) spec() audio.AudioSpec            { return f.audioSpec }
func (f *FileDecoded) streamState() audio.StreamState   { return f.state }

// mixToSameSpec drains any prebuffered packet first, then pulls further
// packets from the decoder until out is full or the decoder is
// exhausted, at which point the source transitions to Complete.
func (f *FileDecoded) mixToSameSpec(out []float32) {
	if f.state == audio.StreamStateComplete {
		return
	}

	pos := 0
	for pos < len(out) {
		if f.prebufIndex >= len(f.prebuf) {
			packet, err := f.decoder.Decode()
			if err != nil {
				if err != io.EOF {
					log.Printf("mixer: source %q decode error, treating as end of stream: %v", f.name, err)
				}
				f.state = audio.StreamStateComplete
				return
			}
			f.prebuf = packet
			f.prebufIndex = 0
			if len(packet) == 0 {
				continue
			}
		}

		n := len(out) - pos
		if avail := len(f.prebuf) - f.prebufIndex; avail < n {
			n = avail
		}

		for i := 0; i < n; i++ {
			out[pos+i] += f.prebuf[f.prebufIndex+i]
		}

		pos += n
		f.prebufIndex += n
	}
}

// ExternallyPushedSetup describes a pulled source to be created by the
// mixer: the spec it will mix at, the ring it reads from, and the
// channel the mixer sends pull requests on when the ring runs low.
type ExternallyPushedSetup struct {
	Name           string
	Spec           audio.AudioSpec
	Buffer         *audio.Ring
	PullRequestTx  chan<- PullRequest
}

// PullRequest asks a producer to top up a pulled source's ring buffer.
// The producer replies on Reply once it has pushed more samples (or
// signals Disconnect if it is shutting down).
type PullRequest struct {
	Reply chan<- PullReply
}

// PullReply is the producer's response to a PullRequest.
type PullReply struct {
	// FramesProvided is the number of frames pushed, when not disconnecting.
	FramesProvided int
	// Disconnect, when true, tells the mixer this source is done for good.
	Disconnect bool
}

// externallyPushed is a source fed by an external producer (e.g. the
// drum render thread) through a ring buffer, using a pull-request /
// pull-reply backpressure protocol: whenever the ring drops below half
// full, the mixer asks the producer for more.
type externallyPushed struct {
	name           string
	audioSpec      audio.AudioSpec
	state          audio.StreamState
	buffer         *audio.Ring
	pullRequestTx  chan<- PullRequest
	pullReplyRx    chan PullReply
	pullPending    bool
}

func newExternallyPushed(setup ExternallyPushedSetup) *externallyPushed {
	return &externallyPushed{
		name:          setup.Name,
		audioSpec:     setup.Spec,
		state:         audio.StreamStateStreaming,
		buffer:        setup.Buffer,
		pullRequestTx: setup.PullRequestTx,
		pullReplyRx:   make(chan PullReply, 1),
	}
}

func (p *externallyPushed) spec() audio.AudioSpec          { return p.audioSpec }
func (p *externallyPushed) streamState() audio.StreamState { return p.state }

func (p *externallyPushed) mixToSameSpec(out []float32) {
	p.buffer.AddInto(out)
}

// fractionFilled reports how full the ring buffer currently is, in [0,1].
func (p *externallyPushed) fractionFilled() float32 {
	return float32(p.buffer.OccupiedLen()) / float32(p.buffer.Capacity())
}

// update is called once per mixer iteration for every externally-pushed
// source: it checks for a pending pull reply, and issues a new pull
// request once the buffer drops below half full.
func (p *externallyPushed) update() {
	if p.state != audio.StreamStateStreaming {
		return
	}

	if p.pullPending {
		select {
		case reply := <-p.pullReplyRx:
			if reply.Disconnect {
				log.Printf("mixer: pulled source %q disconnected gracefully", p.name)
				p.state = audio.StreamStateComplete
			} else {
				p.pullPending = false
			}
		default:
		}
		return
	}

	if p.fractionFilled() < 0.5 {
		p.sendPullRequest()
	}
}

func (p *externallyPushed) sendPullRequest() {
	select {
	case p.pullRequestTx <- PullRequest{Reply: p.pullReplyRx}:
		p.pullPending = true
	default:
		log.Printf("mixer: pulled source %q channel disconnected unexpectedly", p.name)
		p.state = audio.StreamStateComplete
	}
}
