package wavfile

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/agalue/audiothread-go/internal/drumseq"
)

// kitManifest is the on-disk shape of a drumkit sample-set manifest: a
// flat mapping from DrumkitLabel name to a WAV file path, relative to
// the manifest's own directory.
type kitManifest struct {
	Samples map[string]string `yaml:"samples"`
}

var labelByName = func() map[string]drumseq.DrumkitLabel {
	m := make(map[string]drumseq.DrumkitLabel)
	for _, l := range drumseq.AllDrumkitLabels() {
		m[l.String()] = l
	}
	return m
}()

// Kit is a drumseq.DrumkitSampleLoader backed by WAV files named in a
// YAML manifest, e.g.:
//
//	samples:
//	  BassDrum: kick.wav
//	  Snare: snare.wav
//	  ClosedHihat: hihat.wav
type Kit struct {
	paths map[drumseq.DrumkitLabel]string
}

// LoadKit reads a manifest file at manifestPath and returns a Kit ready
// to load the WAV files it names. Paths in the manifest are resolved
// relative to the manifest file's directory.
func LoadKit(manifestPath string) (*Kit, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("wavfile: reading manifest %q: %w", manifestPath, err)
	}

	var manifest kitManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("wavfile: parsing manifest %q: %w", manifestPath, err)
	}

	dir := filepath.Dir(manifestPath)
	paths := make(map[drumseq.DrumkitLabel]string, len(manifest.Samples))

	for name, relPath := range manifest.Samples {
		label, ok := labelByName[name]
		if !ok {
			return nil, fmt.Errorf("wavfile: manifest %q names unknown label %q", manifestPath, name)
		}
		paths[label] = filepath.Join(dir, relPath)
	}

	return &Kit{paths: paths}, nil
}

// Labels implements drumseq.DrumkitSampleLoader.
func (k *Kit) Labels() []drumseq.DrumkitLabel {
	labels := make([]drumseq.DrumkitLabel, 0, len(k.paths))
	for l := range k.paths {
		labels = append(labels, l)
	}
	return labels
}

// LoadSample implements drumseq.DrumkitSampleLoader by decoding the WAV
// file assigned to label.
func (k *Kit) LoadSample(label drumseq.DrumkitLabel) (drumseq.SampleMetadata, []float32, bool) {
	path, ok := k.paths[label]
	if !ok {
		return drumseq.SampleMetadata{}, nil, false
	}

	decoder, err := Load(path)
	if err != nil {
		return drumseq.SampleMetadata{}, nil, false
	}

	data, err := decoder.Decode()
	if err != nil {
		return drumseq.SampleMetadata{}, nil, false
	}

	spec := decoder.Spec()
	meta := drumseq.SampleMetadata{
		Channels:   spec.Channels.Get(),
		Samplerate: spec.Samplerate.Get(),
	}

	return meta, data, true
}
