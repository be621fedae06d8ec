package recall

import (
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// Weights are the scoring weights; they sum to 1 before the integrity vector
// scales the importance and recency terms.
type Weights struct {
	Semantic    float64 `yaml:"semantic"`
	Importance  float64 `yaml:"importance"`
	Recency     float64 `yaml:"recency"`
	Entity      float64 `yaml:"entity"`
	Emotion     float64 `yaml:"emotion"`
	MultiSource float64 `yaml:"multi_source"`
	Pattern     float64 `yaml:"pattern"`
}

// Tuning collects every adjustable constant of the pipeline. The multiplier
// sequence (affinity, gravity, entity wells, context boosts, single clamp at
// the end) is tuned policy rather than a fixed contract, so it lives here.
type Tuning struct {
	Weights Weights `yaml:"weights"`

	BaseCap           int           `yaml:"base_cap"`
	SessionBufferSize int           `yaml:"session_buffer_size"`
	StreamTimeout     time.Duration `yaml:"stream_timeout"`

	ImportanceFloor float64 `yaml:"importance_floor"`
	KeywordFloor    float64 `yaml:"keyword_floor"`
	PeakFloor       float64 `yaml:"peak_floor"`
	FusedCapFactor  int     `yaml:"fused_cap_factor"`

	SemanticThreshold    float64 `yaml:"semantic_threshold"`
	SemanticThresholdMin float64 `yaml:"semantic_threshold_min"`
	SemanticThresholdMax float64 `yaml:"semantic_threshold_max"`
	SemanticStep         float64 `yaml:"semantic_step"`
	SemanticRaiseAt      int     `yaml:"semantic_raise_at"`
	SemanticLowerAt      int     `yaml:"semantic_lower_at"`

	VerifiedBoost    float64 `yaml:"verified_boost"`
	UnverifiedCut    float64 `yaml:"unverified_cut"`
	AffinityScale    float64 `yaml:"affinity_scale"`
	AffinityHighCut  float64 `yaml:"affinity_high_cut"`
	AffinityExtra    float64 `yaml:"affinity_extra"`
	GravityMassCap   float64 `yaml:"gravity_mass_cap"`
	EntityWellScale  float64 `yaml:"entity_well_scale"`
	EntityWellCap    float64 `yaml:"entity_well_cap"`
	RecentEntityBump float64 `yaml:"recent_entity_bump"`
	CurrentEntityBump float64 `yaml:"current_entity_bump"`
	TopicBump        float64 `yaml:"topic_bump"`
	EmotionBump      float64 `yaml:"emotion_bump"`
	AnchorBiasBump    float64 `yaml:"anchor_bias_bump"`
	AnalyticalBump    float64 `yaml:"analytical_bump"`
	PreferredTypeBump float64 `yaml:"preferred_type_bump"`
	PatternHitBonus   float64 `yaml:"pattern_hit_bonus"`
}

// DefaultTuning returns the shipped constants.
func DefaultTuning() Tuning {
	return Tuning{
		Weights: Weights{
			Semantic:    0.35,
			Importance:  0.30,
			Recency:     0.10,
			Entity:      0.10,
			Emotion:     0.05,
			MultiSource: 0.05,
			Pattern:     0.05,
		},

		BaseCap:           50,
		SessionBufferSize: 100,
		StreamTimeout:     3 * time.Second,

		ImportanceFloor: 0.4,
		KeywordFloor:    0.1,
		PeakFloor:       0.85,
		FusedCapFactor:  6,

		SemanticThreshold:    0.35,
		SemanticThresholdMin: 0.20,
		SemanticThresholdMax: 0.55,
		SemanticStep:         0.10,
		SemanticRaiseAt:      400,
		SemanticLowerAt:      50,

		VerifiedBoost:     1.5,
		UnverifiedCut:     0.5,
		AffinityScale:     1.5,
		AffinityHighCut:   0.7,
		AffinityExtra:     1.5,
		GravityMassCap:    2.0,
		EntityWellScale:   0.5,
		EntityWellCap:     3.0,
		RecentEntityBump:  3.0,
		CurrentEntityBump: 2.0,
		TopicBump:         1.5,
		EmotionBump:       1.2,
		AnchorBiasBump:    1.5,
		AnalyticalBump:    1.3,
		PreferredTypeBump: 1.1,
		PatternHitBonus:   0.25,
	}
}

// LoadTuning overlays a YAML file on the defaults.
func LoadTuning(path string) (Tuning, error) {
	tuning := DefaultTuning()

	data, err := os.ReadFile(path)
	if err != nil {
		return tuning, goerr.Wrap(err, "failed to read tuning file", goerr.V("path", path))
	}
	if err := yaml.Unmarshal(data, &tuning); err != nil {
		return tuning, goerr.Wrap(err, "failed to parse tuning file", goerr.V("path", path))
	}
	return tuning, nil
}
