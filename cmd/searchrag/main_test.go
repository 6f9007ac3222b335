package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	ostypes "github.com/aws/aws-sdk-go-v2/service/opensearch/types"
	"github.com/poiesic/searchrag"
	"github.com/poiesic/searchrag/ai/mock"
	"github.com/poiesic/searchrag/cloud/cloudtest"
	"github.com/poiesic/searchrag/config"
	"github.com/poiesic/searchrag/core"
	"github.com/poiesic/searchrag/index"
	"github.com/poiesic/searchrag/index/indextest"
	"github.com/poiesic/searchrag/ingestion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

type testEnv struct {
	dir        string
	configPath string
	domains    *cloudtest.FakeDomains
	secrets    *cloudtest.FakeSecrets
	cluster    *indextest.Cluster
	provider   *mock.MockProvider
	out        bytes.Buffer
	errOut     bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clients, domains, secrets, _ := cloudtest.NewClients()
	env := &testEnv{
		dir:      t.TempDir(),
		domains:  domains,
		secrets:  secrets,
		cluster:  indextest.NewCluster(t),
		provider: mock.NewMockProvider("Components all the way down.").(*mock.MockProvider),
	}
	env.configPath = filepath.Join(env.dir, "searchrag.yaml")

	cfg := config.Default()
	cfg.StateDir = filepath.Join(env.dir, "state")
	cfg.Paths.Pages = filepath.Join(env.dir, "pages.json")
	cfg.Paths.PDF = filepath.Join(env.dir, "missing.pdf")
	cfg.Index.Settings.Dimension = 2
	require.NoError(t, config.Save(env.configPath, cfg))

	prev := openStack
	openStack = func(ctx context.Context, cfg *config.Config) (*searchrag.Stack, error) {
		return searchrag.Open(ctx, cfg,
			searchrag.WithClients(clients),
			searchrag.WithAIProvider(env.provider),
			searchrag.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
			searchrag.WithIndexConfig(func(cc *index.ClientConfig) {
				cc.Addresses = []string{env.cluster.URL()}
				cc.MaxRetries = 0
			}),
		)
	}
	t.Cleanup(func() { openStack = prev })
	return env
}

func (e *testEnv) run(input string, args ...string) error {
	e.out.Reset()
	e.errOut.Reset()
	app := newApp()
	app.Writer = &e.out
	app.ErrWriter = &e.errOut
	app.Reader = strings.NewReader(input)
	return app.Run(append([]string{"searchrag", "--log-level", "error", "--config", e.configPath}, args...))
}

// seedDomain registers a ready domain whose master password the fake cluster accepts.
func (e *testEnv) seedDomain() {
	e.domains.Put(&ostypes.DomainStatus{
		DomainName: aws.String("rag"),
		ARN:        aws.String("arn:aws:es:eu-central-1:123456789012:domain/rag"),
		Endpoint:   aws.String(e.domains.Endpoint("rag")),
		Processing: aws.Bool(false),
	})
	e.secrets.Put("rag-master-credential", indextest.Password)
}

func findCommand(app *cli.App, name string) *cli.Command {
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	return nil
}

func TestAppCommands(t *testing.T) {
	app := newApp()
	for _, name := range []string{
		"init", "plan", "apply", "destroy", "output", "endpoint", "secret",
		"embed", "create-index", "ingest", "check-index", "delete-indices", "ask",
	} {
		assert.NotNil(t, findCommand(app, name), name)
	}

	t.Run("recovery-days defaults to 30", func(t *testing.T) {
		cmd := findCommand(app, "destroy")
		var flag *cli.Int64Flag
		for _, f := range cmd.Flags {
			if f, ok := f.(*cli.Int64Flag); ok && f.Name == "recovery-days" {
				flag = f
			}
		}
		require.NotNil(t, flag)
		assert.Equal(t, int64(30), flag.Value)
	})

	t.Run("config flag reads SEARCHRAG_CONFIG", func(t *testing.T) {
		var flag *cli.StringFlag
		for _, f := range app.Flags {
			if f, ok := f.(*cli.StringFlag); ok && f.Name == "config" {
				flag = f
			}
		}
		require.NotNil(t, flag)
		assert.Equal(t, []string{"SEARCHRAG_CONFIG"}, flag.EnvVars)
		assert.Equal(t, "searchrag.yaml", flag.Value)
	})
}

func TestSetupLogger(t *testing.T) {
	env := newTestEnv(t)
	app := newApp()
	app.Writer = &env.out
	app.ErrWriter = &env.errOut

	err := app.Run([]string{"searchrag", "--log-level", "verbose", "--config", env.configPath, "endpoint"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid log level "verbose"`)
}

func TestInitCommand(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.dir, "fresh", "searchrag.yaml")

	app := func(args ...string) error {
		a := newApp()
		a.Writer = &env.out
		a.ErrWriter = &env.errOut
		return a.Run(append([]string{"searchrag", "--config", path, "--region", "us-east-1"}, args...))
	}

	require.NoError(t, app("init"))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", cfg.Region)

	err = app("init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, app("init", "--force"))
}

func TestProvisionCommands(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.run("", "plan"))
	assert.Contains(t, env.out.String(), "Plan: 2 to add, 0 to change.")
	assert.Contains(t, env.errOut.String(), "Domain: rag")

	t.Run("apply needs a yes", func(t *testing.T) {
		err := env.run("no\n", "apply")
		require.ErrorIs(t, err, errCancelled)
		assert.Nil(t, env.domains.Get("rag"))
	})

	require.NoError(t, env.run("yes\n", "apply"))
	assert.Contains(t, env.out.String(), "Apply complete.")
	assert.Contains(t, env.out.String(), `secret_name   = "rag-master-credential"`)
	require.NotNil(t, env.domains.Get("rag"))

	require.NoError(t, env.run("", "apply"))
	assert.Contains(t, env.out.String(), "No changes.")

	require.NoError(t, env.run("", "output", "--json"))
	var out map[string]string
	require.NoError(t, json.Unmarshal(env.out.Bytes(), &out))
	assert.Equal(t, "rag", out["domain_name"])
	assert.Equal(t, env.domains.Endpoint("rag"), out["endpoint"])

	require.NoError(t, env.run("", "output", "--all"))
	assert.True(t, strings.HasPrefix(env.out.String(),
		"rag\teu-central-1\t"+env.domains.Endpoint("rag")+"\trag-master-credential\t"))

	require.NoError(t, env.run("", "endpoint"))
	assert.Equal(t, "Endpoint: "+env.domains.Endpoint("rag")+"\n", env.out.String())

	require.NoError(t, env.run("", "secret"))
	password, ok := env.secrets.Value("rag-master-credential")
	require.True(t, ok)
	assert.Contains(t, env.out.String(), "Secret name: rag-master-credential")
	assert.Contains(t, env.out.String(), "Secret value: "+strings.Repeat("*", len(password)))
	assert.NotContains(t, env.out.String(), password)

	t.Run("destroy prompt names the recorded secret", func(t *testing.T) {
		cfg, err := config.Load(env.configPath)
		require.NoError(t, err)
		cfg.Domain.SecretName = "renamed-credential"
		require.NoError(t, config.Save(env.configPath, cfg))
		t.Cleanup(func() {
			cfg.Domain.SecretName = ""
			require.NoError(t, config.Save(env.configPath, cfg))
		})

		err = env.run("no\n", "destroy")
		require.ErrorIs(t, err, errCancelled)
		assert.Contains(t, env.out.String(), `destroy domain "rag" and secret "rag-master-credential"?`)
		assert.NotContains(t, env.out.String(), "renamed-credential")
		assert.NotNil(t, env.domains.Get("rag"))
	})

	require.NoError(t, env.run("", "destroy", "--auto-approve", "--force-delete-secret"))
	assert.Contains(t, env.out.String(), "Deleted domain rag")
	assert.Contains(t, env.out.String(), "Deleted secret rag-master-credential")
	assert.Nil(t, env.domains.Get("rag"))

	require.NoError(t, env.run("", "destroy", "--auto-approve"))
	assert.Contains(t, env.out.String(), "Nothing to destroy.")

	require.NoError(t, env.run("", "output", "--all"))
	assert.Equal(t, "No domains recorded.\n", env.out.String())
}

func TestIndexCommands(t *testing.T) {
	env := newTestEnv(t)
	env.seedDomain()

	require.NoError(t, env.run("", "create-index"))
	assert.Equal(t, "Index rag created\n", env.out.String())
	assert.Contains(t, env.errOut.String(), "Shards: 3, replicas: 2, space: cosinesimil, dimension: 2")

	err := env.run("", "create-index")
	assert.ErrorIs(t, err, index.ErrIndexExists)

	pages := []core.Page{
		{PageNumber: 1, Text: "React uses components.", Vector: []float32{0.1, 0.2}},
		{PageNumber: 2, Text: "State flows down.", Vector: []float32{0.3, 0.4}},
		{PageNumber: 3, Text: "Page that failed to embed."},
		{PageNumber: 4, Text: "Embedded by another model.", Vector: []float32{0.1, 0.2, 0.3}},
	}
	pagesPath := filepath.Join(env.dir, "pages.json")
	require.NoError(t, ingestion.WritePages(pagesPath, pages))

	require.NoError(t, env.run("", "ingest", "--workers", "2"))
	assert.Contains(t, env.out.String(), "Indexed 2 pages into rag (1 skipped, 1 failed)")
	assert.Equal(t, 2, env.cluster.DocumentCount("rag"))

	require.NoError(t, env.run("", "check-index", "--samples", "1"))
	assert.Contains(t, env.out.String(), "Index: rag")
	assert.Contains(t, env.out.String(), "Documents: 2")
	assert.Contains(t, env.out.String(), "Sample documents (1):")
	assert.Contains(t, env.out.String(), "<2-dimensional vector>")

	require.NoError(t, env.run("", "ask", "--question", "What does React use?", "--top-k", "1"))
	assert.Contains(t, env.out.String(), "Question: What does React use?")
	assert.Contains(t, env.out.String(), "Answer: Components all the way down.")
	assert.Contains(t, env.out.String(), "Sources: 1 pages")

	env.cluster.AddIndex(".kibana_1")
	env.cluster.AddIndex("scratch")
	require.NoError(t, env.run("", "delete-indices", "--index", "scratch"))
	assert.Equal(t, "Deleted index scratch\n", env.out.String())

	require.NoError(t, env.run("", "delete-indices"))
	assert.Contains(t, env.out.String(), "Deleted index rag")
	assert.Contains(t, env.out.String(), "Skipped system index .kibana_1")
	assert.Equal(t, []string{".kibana_1"}, env.cluster.Indices())
}

func TestEmbedCommand(t *testing.T) {
	env := newTestEnv(t)

	err := env.run("", "embed")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, env.errOut.String(), "PDF: "+filepath.Join(env.dir, "missing.pdf"))

	err = env.run("", "embed", "--pdf", filepath.Join(env.dir, "other.pdf"), "--workers", "0")
	require.Error(t, err)
}
