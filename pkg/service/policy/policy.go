package policy

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/halcyonlabs/mnemo/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/open-policy-agent/opa/v1/rego"
)

// Decision is the policy's view of how a recall call should be gated and
// shaped. Zero values leave the engine's own defaults in place.
type Decision struct {
	Status         model.IntegrityStatus `json:"status"`
	TopK           int                   `json:"top_k"`
	AnchorEntities []string              `json:"anchor_entities"`
	PreferredTypes []string              `json:"preferred_types"`
	AnchorBias     bool                  `json:"anchor_bias"`
}

// Provider evaluates an optional rego policy (data.mnemo.gate) against the
// integrity state. When no policy is configured every call falls through to
// the engine's hardcoded conservative behavior.
type Provider struct {
	query *rego.PreparedEvalQuery
}

// New loads all .rego files from policyDir and prepares the gate query. An
// empty dir (or no matching files) yields a provider that never overrides.
func New(ctx context.Context, policyDir string) (*Provider, error) {
	if policyDir == "" {
		return &Provider{}, nil
	}

	files, err := filepath.Glob(filepath.Join(policyDir, "*.rego"))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to glob policy files")
	}
	if len(files) == 0 {
		return &Provider{}, nil
	}

	options := []func(*rego.Rego){rego.Query("data.mnemo.gate")}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read policy file", goerr.V("path", file))
		}
		options = append(options, rego.Module(file, string(data)))
	}

	prepared, err := rego.New(options...).PrepareForEval(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to prepare gate query")
	}
	return &Provider{query: &prepared}, nil
}

// Enabled reports whether a policy is loaded.
func (p *Provider) Enabled() bool {
	return p.query != nil
}

// Decide evaluates the gate policy for the given integrity state. With no
// policy loaded it returns nil, nil.
func (p *Provider) Decide(ctx context.Context, state model.IntegrityState) (*Decision, error) {
	if p.query == nil {
		return nil, nil
	}

	input := map[string]any{
		"risk":   state.Risk,
		"status": string(state.Status),
		"vector": state.Vector[:],
	}

	rs, err := p.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to evaluate gate policy")
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return nil, nil
	}

	raw, err := json.Marshal(rs[0].Expressions[0].Value)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal gate result")
	}

	var decision Decision
	if err := json.Unmarshal(raw, &decision); err != nil {
		return nil, goerr.Wrap(err, "failed to decode gate result")
	}
	return &decision, nil
}
