// Package fixtures gates tests that need a real node and a compiled SRC20
// artifact.
package fixtures

import (
	"context"
	"os"
	"testing"

	"github.com/Mohsinsiddi/src20kit/internal/config"
	"github.com/Mohsinsiddi/src20kit/internal/src20"
	"github.com/stretchr/testify/require"
)

// LiveConfig returns a config for the node in SRC20_NODE_URL unlocked with
// SRC20_SECRET_KEY and deploying SRC20_ARTIFACT. The test is skipped when any
// of them is missing or the artifact file does not exist.
func LiveConfig(t *testing.T) *config.Config {
	t.Helper()
	for _, k := range []string{config.EnvNodeURL, config.EnvSecretKey, config.EnvArtifact} {
		if os.Getenv(k) == "" {
			t.Skipf("%s not set, skipping live-node test", k)
		}
	}
	if _, err := os.Stat(os.Getenv(config.EnvArtifact)); err != nil {
		t.Skipf("artifact unavailable: %v", err)
	}

	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	return cfg
}

// LiveEnv connects a harness Env to the live node.
func LiveEnv(t *testing.T) *src20.Env {
	t.Helper()
	env, err := src20.NewEnv(context.Background(), LiveConfig(t), nil)
	require.NoError(t, err)
	return env
}
