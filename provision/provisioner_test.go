package provision

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	ostypes "github.com/aws/aws-sdk-go-v2/service/opensearch/types"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/poiesic/searchrag/cloud"
	"github.com/poiesic/searchrag/cloud/cloudtest"
	"github.com/poiesic/searchrag/core"
	"github.com/poiesic/searchrag/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	clients *cloud.Clients
	domains *cloudtest.FakeDomains
	secrets *cloudtest.FakeSecrets
	states  *badger.StateRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	states, backend, err := badger.NewMemoryStateRepository()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	clients, domains, secrets, _ := cloudtest.NewClients()
	return &fixture{clients: clients, domains: domains, secrets: secrets, states: states}
}

func (f *fixture) provisioner(t *testing.T, cfg DomainConfig, opts ...Option) *Provisioner {
	t.Helper()
	base := []Option{
		WithPollInterval(time.Millisecond),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	p, err := NewProvisioner(cfg, f.clients, f.states, append(base, opts...)...)
	require.NoError(t, err)
	return p
}

func (f *fixture) apply(t *testing.T, p *Provisioner) *Outputs {
	t.Helper()
	ctx := context.Background()
	plan, err := p.Plan(ctx)
	require.NoError(t, err)
	out, err := p.Apply(ctx, plan)
	require.NoError(t, err)
	return out
}

func deleteSecretInput(name string) *secretsmanager.DeleteSecretInput {
	return &secretsmanager.DeleteSecretInput{SecretId: aws.String(name)}
}

func TestNewProvisioner_InvalidConfig(t *testing.T) {
	f := newFixture(t)
	cfg := DefaultDomainConfig()
	cfg.InstanceCount = 0

	_, err := NewProvisioner(cfg, f.clients, f.states)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestPlan_FreshAccount(t *testing.T) {
	f := newFixture(t)
	p := f.provisioner(t, DefaultDomainConfig())

	plan, err := p.Plan(context.Background())
	require.NoError(t, err)

	assert.True(t, plan.HasChanges())
	assert.Nil(t, plan.State)
	assert.Equal(t, "123456789012", plan.Identity.Account)
	assert.Contains(t, plan.Policy, "arn:aws:es:eu-central-1:123456789012:domain/rag/*")

	_, ok := plan.Find(ResourceSecret, ActionCreate)
	assert.True(t, ok)
	_, ok = plan.Find(ResourceDomain, ActionCreate)
	assert.True(t, ok)

	add, change := plan.Counts()
	assert.Equal(t, 2, add)
	assert.Equal(t, 0, change)

	assert.NotContains(t, f.domains.Calls(), "CreateDomain")
	assert.NotContains(t, f.secrets.Calls(), "CreateSecret")
}

func TestPlan_DomainBeingDeleted(t *testing.T) {
	f := newFixture(t)
	f.domains.Put(&ostypes.DomainStatus{DomainName: aws.String("rag"), Deleted: aws.Bool(true)})
	p := f.provisioner(t, DefaultDomainConfig())

	_, err := p.Plan(context.Background())
	assert.ErrorIs(t, err, ErrDomainDeleting)
}

func TestApply_CreatesSecretAndDomain(t *testing.T) {
	f := newFixture(t)
	appliedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg := DefaultDomainConfig()
	cfg.Tags = map[string]string{"project": "rag"}
	p := f.provisioner(t, cfg, WithClock(func() time.Time { return appliedAt }))

	out := f.apply(t, p)

	t.Run("password requested from secrets manager", func(t *testing.T) {
		req := f.secrets.PasswordRequest()
		require.NotNil(t, req)
		assert.Equal(t, int64(32), aws.ToInt64(req.PasswordLength))
		assert.Equal(t, `"'\/@`, aws.ToString(req.ExcludeCharacters))
		assert.True(t, aws.ToBool(req.RequireEachIncludedType))
	})

	t.Run("secret holds the master password", func(t *testing.T) {
		password, ok := f.secrets.Value("rag-master-credential")
		require.True(t, ok)
		assert.Len(t, password, 32)

		master := f.domains.MasterUser("rag")
		require.NotNil(t, master)
		assert.Equal(t, "rag", aws.ToString(master.MasterUserName))
		assert.Equal(t, password, aws.ToString(master.MasterUserPassword))

		tags := f.secrets.Tags("rag-master-credential")
		require.Len(t, tags, 1)
		assert.Equal(t, "project", aws.ToString(tags[0].Key))
	})

	t.Run("outputs", func(t *testing.T) {
		endpoint := f.domains.Endpoint("rag")
		assert.Equal(t, "rag", out.DomainName)
		assert.Equal(t, "arn:aws:es:eu-central-1:123456789012:domain/rag", out.DomainARN)
		assert.Equal(t, endpoint, out.Endpoint)
		assert.Equal(t, "https://"+endpoint, out.EndpointURL)
		assert.Equal(t, "https://"+endpoint+"/_dashboards", out.DashboardURL)
		assert.Equal(t, "rag-master-credential", out.SecretName)
	})

	t.Run("state recorded", func(t *testing.T) {
		state, err := f.states.LoadState(context.Background(), "rag")
		require.NoError(t, err)
		require.NotNil(t, state)
		assert.Equal(t, f.domains.Endpoint("rag"), state.Endpoint)
		assert.Equal(t, DefaultEngineVersion, state.EngineVersion)
		assert.Equal(t, "rag-master-credential", state.SecretName)
		assert.NotEmpty(t, state.SecretARN)
		digest, err := cfg.Digest()
		require.NoError(t, err)
		assert.Equal(t, digest, state.ConfigDigest)
		assert.True(t, appliedAt.Equal(state.AppliedAt))
	})

	t.Run("second plan is empty", func(t *testing.T) {
		plan, err := p.Plan(context.Background())
		require.NoError(t, err)
		assert.False(t, plan.HasChanges())
		require.NotNil(t, plan.State)
	})
}

func TestApply_UpdateSendsOnlyChangedSections(t *testing.T) {
	f := newFixture(t)
	f.apply(t, f.provisioner(t, DefaultDomainConfig()))

	cfg := DefaultDomainConfig()
	cfg.InstanceCount = 2
	cfg.VolumeSize = 20
	p := f.provisioner(t, cfg)

	plan, err := p.Plan(context.Background())
	require.NoError(t, err)

	change, ok := plan.Find(ResourceDomain, ActionUpdate)
	require.True(t, ok)
	fields := map[string]FieldDiff{}
	for _, d := range change.Diffs {
		fields[d.Field] = d
	}
	require.Len(t, fields, 2)
	assert.Equal(t, "1", fields["instance_count"].From)
	assert.Equal(t, "2", fields["instance_count"].To)
	assert.Equal(t, "10", fields["volume_size"].From)
	assert.Equal(t, "20", fields["volume_size"].To)

	_, err = p.Apply(context.Background(), plan)
	require.NoError(t, err)

	live := f.domains.Get("rag")
	assert.Equal(t, int32(2), aws.ToInt32(live.ClusterConfig.InstanceCount))
	assert.Equal(t, int32(20), aws.ToInt32(live.EBSOptions.VolumeSize))
	assert.Contains(t, f.domains.Calls(), "UpdateDomainConfig")
	assert.NotContains(t, f.secrets.Calls(), "GetSecretValue")

	plan, err = p.Plan(context.Background())
	require.NoError(t, err)
	assert.False(t, plan.HasChanges())
}

func TestApply_PolicyDrift(t *testing.T) {
	f := newFixture(t)
	p := f.provisioner(t, DefaultDomainConfig())
	f.apply(t, p)

	f.domains.Get("rag").AccessPolicies = aws.String(`{"Version":"2012-10-17","Statement":[]}`)

	plan, err := p.Plan(context.Background())
	require.NoError(t, err)
	change, ok := plan.Find(ResourceDomain, ActionUpdate)
	require.True(t, ok)
	require.Len(t, change.Diffs, 1)
	assert.Equal(t, "access_policy", change.Diffs[0].Field)

	_, err = p.Apply(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, plan.Policy, aws.ToString(f.domains.Get("rag").AccessPolicies))
}

func TestApply_Upgrade(t *testing.T) {
	f := newFixture(t)
	f.apply(t, f.provisioner(t, DefaultDomainConfig()))

	cfg := DefaultDomainConfig()
	cfg.EngineVersion = "OpenSearch_2.15"
	p := f.provisioner(t, cfg)

	plan, err := p.Plan(context.Background())
	require.NoError(t, err)

	change, ok := plan.Find(ResourceDomain, ActionUpgrade)
	require.True(t, ok)
	assert.Equal(t, DefaultEngineVersion, change.Diffs[0].From)
	_, ok = plan.Find(ResourceDomain, ActionUpdate)
	assert.False(t, ok)

	add, changed := plan.Counts()
	assert.Equal(t, 0, add)
	assert.Equal(t, 1, changed)

	_, err = p.Apply(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, "OpenSearch_2.15", aws.ToString(f.domains.Get("rag").EngineVersion))
	assert.Contains(t, f.domains.Calls(), "UpgradeDomain")

	state, err := f.states.LoadState(context.Background(), "rag")
	require.NoError(t, err)
	assert.Equal(t, "OpenSearch_2.15", state.EngineVersion)
}

func TestApply_UpdateThenUpgradeWithoutWait(t *testing.T) {
	f := newFixture(t)
	f.apply(t, f.provisioner(t, DefaultDomainConfig()))

	cfg := DefaultDomainConfig()
	cfg.InstanceCount = 2
	cfg.EngineVersion = "OpenSearch_2.15"
	f.domains.ReadyAfter = 2
	p := f.provisioner(t, cfg, WithoutWait())

	plan, err := p.Plan(context.Background())
	require.NoError(t, err)
	_, ok := plan.Find(ResourceDomain, ActionUpdate)
	require.True(t, ok)
	_, ok = plan.Find(ResourceDomain, ActionUpgrade)
	require.True(t, ok)

	_, err = p.Apply(context.Background(), plan)
	require.NoError(t, err)

	live := f.domains.Get("rag")
	assert.Equal(t, "OpenSearch_2.15", aws.ToString(live.EngineVersion))
	assert.Equal(t, int32(2), aws.ToInt32(live.ClusterConfig.InstanceCount))

	var ops []string
	for _, c := range f.domains.Calls() {
		if c == "UpdateDomainConfig" || c == "UpgradeDomain" || c == "DescribeDomain" {
			ops = append(ops, c)
		}
	}
	update := indexOf(ops, "UpdateDomainConfig")
	upgrade := indexOf(ops, "UpgradeDomain")
	require.GreaterOrEqual(t, update, 0)
	require.Greater(t, upgrade, update+1, "the domain is described between update and upgrade")
}

func indexOf(values []string, want string) int {
	for i, v := range values {
		if v == want {
			return i
		}
	}
	return -1
}

func TestApply_RestoresScheduledSecret(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.secrets.Put("rag-master-credential", "kept-password")
	_, err := f.clients.Secrets.DeleteSecret(ctx, deleteSecretInput("rag-master-credential"))
	require.NoError(t, err)

	p := f.provisioner(t, DefaultDomainConfig())
	plan, err := p.Plan(ctx)
	require.NoError(t, err)

	change, ok := plan.Find(ResourceSecret, ActionRestore)
	require.True(t, ok)
	require.Len(t, change.Diffs, 1)
	assert.Equal(t, "deletion", change.Diffs[0].Field)

	_, err = p.Apply(ctx, plan)
	require.NoError(t, err)

	assert.Contains(t, f.secrets.Calls(), "RestoreSecret")
	assert.NotContains(t, f.secrets.Calls(), "GetRandomPassword")
	assert.Equal(t, "kept-password", aws.ToString(f.domains.MasterUser("rag").MasterUserPassword))
}

func TestApply_ReusesSecretCreatedConcurrently(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.provisioner(t, DefaultDomainConfig())

	plan, err := p.Plan(ctx)
	require.NoError(t, err)
	_, ok := plan.Find(ResourceSecret, ActionCreate)
	require.True(t, ok)

	f.secrets.Put("rag-master-credential", "someone-elses")

	out, err := p.Apply(ctx, plan)
	require.NoError(t, err)
	assert.Equal(t, "someone-elses", aws.ToString(f.domains.MasterUser("rag").MasterUserPassword))
	assert.Equal(t, "rag-master-credential", out.SecretName)

	state, err := f.states.LoadState(ctx, "rag")
	require.NoError(t, err)
	assert.Contains(t, state.SecretARN, ":secret:rag-master-credential-")
}

func TestApply_PlanMismatch(t *testing.T) {
	f := newFixture(t)
	plan, err := f.provisioner(t, DefaultDomainConfig()).Plan(context.Background())
	require.NoError(t, err)

	cfg := DefaultDomainConfig()
	cfg.InstanceCount = 2
	_, err = f.provisioner(t, cfg).Apply(context.Background(), plan)
	assert.ErrorIs(t, err, ErrPlanMismatch)
	assert.NotContains(t, f.domains.Calls(), "CreateDomain")
}

func TestApply_WaitsForDomain(t *testing.T) {
	f := newFixture(t)
	f.domains.ReadyAfter = 3
	p := f.provisioner(t, DefaultDomainConfig())

	out := f.apply(t, p)
	assert.Equal(t, f.domains.Endpoint("rag"), out.Endpoint)

	describes := 0
	for _, c := range f.domains.Calls() {
		if c == "DescribeDomain" {
			describes++
		}
	}
	assert.GreaterOrEqual(t, describes, 4)
}

func TestApply_WithoutWait(t *testing.T) {
	f := newFixture(t)
	f.domains.ReadyAfter = 5
	p := f.provisioner(t, DefaultDomainConfig(), WithoutWait())

	out := f.apply(t, p)
	assert.Empty(t, out.Endpoint)
	assert.Empty(t, out.EndpointURL)
	assert.True(t, aws.ToBool(f.domains.Get("rag").Processing))
}

func TestApply_WaitTimeout(t *testing.T) {
	f := newFixture(t)
	f.domains.ReadyAfter = 1 << 30
	p := f.provisioner(t, DefaultDomainConfig(), WithWaitTimeout(20*time.Millisecond))

	plan, err := p.Plan(context.Background())
	require.NoError(t, err)
	_, err = p.Apply(context.Background(), plan)
	assert.ErrorIs(t, err, ErrWaitTimeout)
}

func TestDestroy(t *testing.T) {
	ctx := context.Background()

	t.Run("schedules secret deletion", func(t *testing.T) {
		f := newFixture(t)
		p := f.provisioner(t, DefaultDomainConfig())
		f.apply(t, p)

		report, err := p.Destroy(ctx, DestroyOptions{RecoveryDays: 7})
		require.NoError(t, err)
		assert.True(t, report.DomainDeleted)
		assert.True(t, report.SecretDeleted)
		assert.Equal(t, "rag-master-credential", report.SecretName)

		assert.Nil(t, f.domains.Get("rag"))
		assert.True(t, f.secrets.Exists("rag-master-credential"))
		_, live := f.secrets.Value("rag-master-credential")
		assert.False(t, live)

		state, err := f.states.LoadState(ctx, "rag")
		require.NoError(t, err)
		assert.Nil(t, state)
	})

	t.Run("force deletes secret", func(t *testing.T) {
		f := newFixture(t)
		p := f.provisioner(t, DefaultDomainConfig())
		f.apply(t, p)

		_, err := p.Destroy(ctx, DestroyOptions{ForceDeleteSecret: true})
		require.NoError(t, err)
		assert.False(t, f.secrets.Exists("rag-master-credential"))
	})

	t.Run("nothing to destroy", func(t *testing.T) {
		f := newFixture(t)
		p := f.provisioner(t, DefaultDomainConfig())

		report, err := p.Destroy(ctx, DestroyOptions{})
		require.NoError(t, err)
		assert.False(t, report.DomainDeleted)
		assert.False(t, report.SecretDeleted)
	})

	t.Run("invalid recovery window", func(t *testing.T) {
		f := newFixture(t)
		p := f.provisioner(t, DefaultDomainConfig())

		_, err := p.Destroy(ctx, DestroyOptions{RecoveryDays: 3})
		assert.ErrorIs(t, err, ErrInvalidRecoveryWindow)
		assert.Empty(t, f.domains.Calls())
	})

	t.Run("uses secret name from state", func(t *testing.T) {
		f := newFixture(t)
		cfg := DefaultDomainConfig()
		cfg.SecretName = "custom-secret"
		f.apply(t, f.provisioner(t, cfg))

		report, err := f.provisioner(t, DefaultDomainConfig()).Destroy(ctx, DestroyOptions{ForceDeleteSecret: true})
		require.NoError(t, err)
		assert.Equal(t, "custom-secret", report.SecretName)
		assert.False(t, f.secrets.Exists("custom-secret"))
	})
}

func TestOutputs(t *testing.T) {
	ctx := context.Background()

	t.Run("from live domain", func(t *testing.T) {
		f := newFixture(t)
		p := f.provisioner(t, DefaultDomainConfig())
		f.apply(t, p)

		out, err := p.Outputs(ctx)
		require.NoError(t, err)
		assert.Equal(t, "https://"+f.domains.Endpoint("rag"), out.EndpointURL)
	})

	t.Run("falls back to state", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.states.SaveState(ctx, &core.DomainState{
			DomainName: "rag",
			Region:     "eu-central-1",
			Endpoint:   "search-rag-old.eu-central-1.es.amazonaws.com",
			SecretName: "old-secret",
		}))
		p := f.provisioner(t, DefaultDomainConfig())

		out, err := p.Outputs(ctx)
		require.NoError(t, err)
		assert.Equal(t, "https://search-rag-old.eu-central-1.es.amazonaws.com/_dashboards", out.DashboardURL)
		assert.Equal(t, "old-secret", out.SecretName)
	})

	t.Run("not provisioned", func(t *testing.T) {
		f := newFixture(t)
		p := f.provisioner(t, DefaultDomainConfig())

		_, err := p.Outputs(ctx)
		assert.ErrorIs(t, err, ErrNotProvisioned)
	})
}

func TestProvisioner_SecretName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.provisioner(t, DefaultDomainConfig())

	name, err := p.SecretName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rag-master-credential", name)

	require.NoError(t, f.states.SaveState(ctx, &core.DomainState{
		DomainName: "rag",
		Region:     "eu-central-1",
		SecretName: "old-secret",
	}))
	name, err = p.SecretName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "old-secret", name)
}

func TestPlan_Render(t *testing.T) {
	f := newFixture(t)
	p := f.provisioner(t, DefaultDomainConfig())

	t.Run("create", func(t *testing.T) {
		plan, err := p.Plan(context.Background())
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, plan.Render(&buf))
		text := buf.String()

		assert.Contains(t, text, `+ secret "rag-master-credential": create`)
		assert.Contains(t, text, `+ domain "rag": create`)
		assert.Contains(t, text, "Plan: 2 to add, 0 to change.")
		assert.NotContains(t, text, "\x1b[")
	})

	t.Run("update", func(t *testing.T) {
		f.apply(t, p)
		cfg := DefaultDomainConfig()
		cfg.InstanceCount = 2
		plan, err := f.provisioner(t, cfg).Plan(context.Background())
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, plan.Render(&buf))
		text := buf.String()

		assert.Contains(t, text, `~ domain "rag": update`)
		assert.Contains(t, text, "instance_count: 1 -> 2")
		assert.Contains(t, text, "Plan: 0 to add, 1 to change.")
	})

	t.Run("no changes", func(t *testing.T) {
		plan, err := p.Plan(context.Background())
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, plan.Render(&buf))
		assert.Contains(t, buf.String(), "No changes.")
	})
}

func TestOutputs_Render(t *testing.T) {
	out := newOutputs("rag", "arn:aws:es:eu-central-1:1:domain/rag", "search-rag.example.com", "rag-master-credential")

	var buf bytes.Buffer
	require.NoError(t, out.Render(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, `endpoint_url  = "https://search-rag.example.com"`, lines[3])
	assert.Equal(t, `secret_name   = "rag-master-credential"`, lines[5])
}
