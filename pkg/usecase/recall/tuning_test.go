package recall

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
)

func TestLoadTuningOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yml")
	body := []byte(`
weights:
  semantic: 0.5
  importance: 0.2
base_cap: 10
peak_floor: 0.9
`)
	gt.NoError(t, os.WriteFile(path, body, 0o600))

	tuning, err := LoadTuning(path)
	gt.NoError(t, err)

	gt.V(t, tuning.Weights.Semantic).Equal(0.5)
	gt.V(t, tuning.Weights.Importance).Equal(0.2)
	gt.V(t, tuning.BaseCap).Equal(10)
	gt.V(t, tuning.PeakFloor).Equal(0.9)

	// Untouched fields keep their defaults.
	defaults := DefaultTuning()
	gt.V(t, tuning.Weights.Recency).Equal(defaults.Weights.Recency)
	gt.V(t, tuning.SemanticThreshold).Equal(defaults.SemanticThreshold)
	gt.V(t, tuning.SessionBufferSize).Equal(defaults.SessionBufferSize)
}

func TestLoadTuningMissingFile(t *testing.T) {
	_, err := LoadTuning(filepath.Join(t.TempDir(), "absent.yml"))
	gt.Error(t, err)
}

func TestLoadTuningMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yml")
	gt.NoError(t, os.WriteFile(path, []byte("weights: ["), 0o600))

	_, err := LoadTuning(path)
	gt.Error(t, err)
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	w := DefaultTuning().Weights
	sum := w.Semantic + w.Importance + w.Recency + w.Entity + w.Emotion + w.MultiSource + w.Pattern
	gt.True(t, sum > 0.999 && sum < 1.001)
}
