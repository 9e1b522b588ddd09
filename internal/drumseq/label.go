package drumseq

// DrumkitLabel identifies one of the fixed roles a drumkit sample set
// can assign a sample to. It is the key used both by DrumkitSequence's
// step triggers and by DrumkitSampleLoader.
type DrumkitLabel int

const (
	BassDrum DrumkitLabel = iota
	Snare
	ClosedHihat
	OpenHihat
	Crash
	Ride
	Shaker
	Rimshot
	Clap
	Tom1
	Tom2
	Tom3
	Perc1
	Perc2
	Perc3
	Perc4

	numDrumkitLabels
)

var drumkitLabelNames = [numDrumkitLabels]string{
	BassDrum:    "BassDrum",
	Snare:       "Snare",
	ClosedHihat: "ClosedHihat",
	OpenHihat:   "OpenHihat",
	Crash:       "Crash",
	Ride:        "Ride",
	Shaker:      "Shaker",
	Rimshot:     "Rimshot",
	Clap:        "Clap",
	Tom1:        "Tom1",
	Tom2:        "Tom2",
	Tom3:        "Tom3",
	Perc1:       "Perc1",
	Perc2:       "Perc2",
	Perc3:       "Perc3",
	Perc4:       "Perc4",
}

func (l DrumkitLabel) String() string {
	if l < 0 || int(l) >= len(drumkitLabelNames) {
		return "Unknown"
	}
	return drumkitLabelNames[l]
}

// AllDrumkitLabels returns every label in declaration order.
func AllDrumkitLabels() []DrumkitLabel {
	out := make([]DrumkitLabel, numDrumkitLabels)
	for i := range out {
		out[i] = DrumkitLabel(i)
	}
	return out
}
