package policy_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/halcyonlabs/mnemo/pkg/model"
	"github.com/halcyonlabs/mnemo/pkg/service/policy"
	"github.com/m-mizutani/gt"
)

const gatePolicy = `package mnemo.gate

status := "locked" if {
	input.risk >= 0.9
}

top_k := 5 if {
	input.risk >= 0.5
}

anchor_bias := true if {
	input.status == "protected"
}
`

func writePolicy(t *testing.T, body string) string {
	dir := t.TempDir()
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "gate.rego"), []byte(body), 0o600))
	return dir
}

func TestProviderDisabledWithoutDir(t *testing.T) {
	ctx := context.Background()
	p, err := policy.New(ctx, "")
	gt.NoError(t, err)
	gt.False(t, p.Enabled())

	decision, err := p.Decide(ctx, model.DefaultIntegrityState())
	gt.NoError(t, err)
	gt.V(t, decision).Nil()
}

func TestProviderDisabledWithEmptyDir(t *testing.T) {
	ctx := context.Background()
	p, err := policy.New(ctx, t.TempDir())
	gt.NoError(t, err)
	gt.False(t, p.Enabled())
}

func TestProviderDecide(t *testing.T) {
	ctx := context.Background()
	p, err := policy.New(ctx, writePolicy(t, gatePolicy))
	gt.NoError(t, err)
	gt.True(t, p.Enabled())

	decision, err := p.Decide(ctx, model.IntegrityState{
		Risk:   0.95,
		Status: model.IntegrityProtected,
	})
	gt.NoError(t, err)
	gt.V(t, decision).NotNil()
	gt.V(t, decision.Status).Equal(model.IntegrityLocked)
	gt.V(t, decision.TopK).Equal(5)
	gt.True(t, decision.AnchorBias)
}

func TestProviderDecideNoMatch(t *testing.T) {
	ctx := context.Background()
	p, err := policy.New(ctx, writePolicy(t, gatePolicy))
	gt.NoError(t, err)

	decision, err := p.Decide(ctx, model.IntegrityState{
		Risk:   0.1,
		Status: model.IntegrityActive,
	})
	gt.NoError(t, err)
	gt.V(t, decision).NotNil()
	gt.V(t, decision.Status).Equal(model.IntegrityStatus(""))
	gt.V(t, decision.TopK).Equal(0)
	gt.False(t, decision.AnchorBias)
}

func TestProviderRejectsBrokenPolicy(t *testing.T) {
	ctx := context.Background()
	_, err := policy.New(ctx, writePolicy(t, "package mnemo.gate\n\nstatus := {"))
	gt.Error(t, err)
}
