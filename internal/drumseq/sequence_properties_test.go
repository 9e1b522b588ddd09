package drumseq

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/agalue/audiothread-go/internal/audio"
)

// TestSetStepTriggerIdempotentProperty checks that setting a step's
// trigger for a label twice, at any two amplitudes, leaves exactly one
// trigger for that label at that step, carrying the second amplitude.
func TestSetStepTriggerIdempotentProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seq := Default()
		n := rapid.IntRange(0, seq.Len()-1).Draw(t, "step")
		label := DrumkitLabel(rapid.IntRange(0, int(numDrumkitLabels)-1).Draw(t, "label"))
		a1 := rapid.Float32().Draw(t, "amplitude1")
		a2 := rapid.Float32().Draw(t, "amplitude2")

		seq.SetStepTrigger(n, label, a1)
		seq.SetStepTrigger(n, label, a2)

		info, ok := seq.Step(n, mustSamplerate44100(t))
		if !ok {
			t.Fatalf("Step(%d) not ok", n)
		}

		count := 0
		var amplitude float32
		for _, trig := range info.Triggers {
			if trig.Label == label {
				count++
				amplitude = trig.Amplitude
			}
		}
		if count != 1 {
			t.Fatalf("got %d triggers for label %v at step %d, want 1", count, label, n)
		}
		if amplitude != a2 {
			t.Fatalf("trigger amplitude = %v, want %v", amplitude, a2)
		}
	})
}

// TestClearStepProperty checks that clear_step(n) always leaves step n
// with no triggers, regardless of what was there before.
func TestClearStepProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seq := Default()
		n := rapid.IntRange(0, seq.Len()-1).Draw(t, "step")
		numTriggers := rapid.IntRange(0, int(numDrumkitLabels)).Draw(t, "numTriggers")

		for i := 0; i < numTriggers; i++ {
			seq.SetStepTrigger(n, DrumkitLabel(i), 1.0)
		}

		seq.ClearStep(n)

		info, ok := seq.Step(n, mustSamplerate44100(t))
		if !ok {
			t.Fatalf("Step(%d) not ok", n)
		}
		if len(info.Triggers) != 0 {
			t.Fatalf("step %d has %d triggers after ClearStep, want 0", n, len(info.Triggers))
		}
	})
}

// TestStepLengthSwingFormulaProperty checks step(n).LengthInSamples
// always equals samples_per_note(rate, base) * (1 + (-1)^n * swing).
func TestStepLengthSwingFormulaProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bpm := rapid.Uint16Range(1, 300).Draw(t, "bpm")
		swingVal := rapid.Float64Range(0.0, 1.0).Draw(t, "swing")

		timespec, err := NewTimeSpecWithSwing(bpm, 4, 4, swingVal)
		if err != nil {
			t.Fatalf("NewTimeSpecWithSwing: %v", err)
		}

		seq := New(timespec, NoteSixteenth)
		n := rapid.IntRange(0, seq.Len()-1).Draw(t, "step")
		rate := mustSamplerate44100(t)

		info, ok := seq.Step(n, rate)
		if !ok {
			t.Fatalf("Step(%d) not ok", n)
		}

		sign := 1.0
		if n%2 != 0 {
			sign = -1.0
		}
		want := timespec.SamplesPerNote(rate, NoteSixteenth) * (1.0 + sign*swingVal)

		if diff := info.LengthInSamples - want; diff > 1e-6 || diff < -1e-6 {
			t.Fatalf("step(%d).LengthInSamples = %v, want %v", n, info.LengthInSamples, want)
		}
	})
}

func mustSamplerate44100(t *rapid.T) audio.Samplerate {
	sr, err := audio.NewSamplerate(44100)
	if err != nil {
		t.Fatalf("NewSamplerate: %v", err)
	}
	return sr
}
