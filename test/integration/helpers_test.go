// Package integration runs the quiz API end to end through pkg/client. The
// replica tests start two servers on a shared miniredis; the backend tests
// talk to real services and are skipped unless BODYMAP_INTEGRATION_TEST is
// set.
package integration

import (
	"context"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/BodyMap-Insight/internal/bootstrap"
	"github.com/turtacn/BodyMap-Insight/internal/config"
	"github.com/turtacn/BodyMap-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/BodyMap-Insight/pkg/client"
)

const (
	// EnvIntegrationEnabled enables the tests that need real backends. The
	// backends themselves are configured through the usual BODYMAP_* variables.
	EnvIntegrationEnabled = "BODYMAP_INTEGRATION_TEST"

	// TestTimeout bounds a single integration test.
	TestTimeout = 60 * time.Second
)

// SkipIfNoIntegration skips the calling test when the integration flag is unset.
func SkipIfNoIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv(EnvIntegrationEnabled) == "" {
		t.Skipf("skipping integration test: set %s=1 to enable", EnvIntegrationEnabled)
	}
}

// Replica is one running server and a client pointed at it.
type Replica struct {
	App    *bootstrap.App
	Server *httptest.Server
	Client *client.Client
}

// StartReplica boots an App from cfg behind an httptest server. Both are
// closed when the test ends.
func StartReplica(t *testing.T, cfg *config.Config) *Replica {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	app, err := bootstrap.New(ctx, cfg, logging.NewNopLogger(), bootstrap.WithVersion("integration"))
	require.NoError(t, err)
	server := httptest.NewServer(app.Handler())
	t.Cleanup(func() {
		server.Close()
		require.NoError(t, app.Close())
	})

	c, err := client.NewClient(server.URL, client.WithRetryMax(0), client.WithTimeout(10*time.Second))
	require.NoError(t, err)
	return &Replica{App: app, Server: server, Client: c}
}

// StartMiniredis runs an in-process Redis for the duration of the test.
func StartMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	return miniredis.RunT(t)
}

// EnvConfig loads the configuration from BODYMAP_* variables. The test is
// skipped when the integration flag or any of required is unset.
func EnvConfig(t *testing.T, required ...string) *config.Config {
	t.Helper()
	SkipIfNoIntegration(t)
	for _, key := range required {
		if os.Getenv(key) == "" {
			t.Skipf("skipping: %s not set", key)
		}
	}
	cfg, err := config.LoadFromEnv()
	require.NoError(t, err)
	cfg.Server.Mode = "test"
	return cfg
}

// testContext returns a context bounded by TestTimeout.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	t.Cleanup(cancel)
	return ctx
}
