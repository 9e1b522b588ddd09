package drumseq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agalue/audiothread-go/internal/audio"
	"github.com/agalue/audiothread-go/internal/mixer"
)

func TestEventSlotPublishLatest(t *testing.T) {
	slot := NewEventSlot()

	_, ok := slot.Latest()
	assert.False(t, ok)

	slot.publish(DrumkitSequenceEvent{Step: 3})
	ev, ok := slot.Latest()
	require.True(t, ok)
	assert.Equal(t, 3, ev.Step)

	slot.publish(DrumkitSequenceEvent{Step: 7})
	ev, ok = slot.Latest()
	require.True(t, ok)
	assert.Equal(t, 7, ev.Step)
}

func TestRunLoopRendersOnPullRequestWhenPlaying(t *testing.T) {
	sr := mustSamplerate(t, 8000)
	renderer := NewDrumkitSequenceRenderer(sr)
	renderer.SequenceSetStepTrigger(0, BassDrum, 1.0)

	bufSize := 64
	buffer := make([]float32, bufSize)
	ring := audio.NewRing(bufSize)
	pullRequestRx := make(chan mixer.PullRequest, 4)
	controlRx := make(chan Message, 4)

	done := make(chan struct{})
	go func() {
		defer close(done)
		runLoop(renderer, buffer, ring, pullRequestRx, controlRx, nil)
	}()

	controlRx <- Play{}

	reply := make(chan mixer.PullReply, 1)
	pullRequestRx <- mixer.PullRequest{Reply: reply}

	select {
	case r := <-reply:
		assert.Greater(t, r.FramesProvided, 0)
		assert.False(t, r.Disconnect)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for pull reply")
	}

	assert.Greater(t, ring.OccupiedLen(), 0)

	controlRx <- Shutdown{}

	select {
	case <-done:
	case <-time.After(4 * time.Second):
		t.Fatal("render thread did not exit after shutdown")
	}
}
