// End-to-end tests against a running server. Set BODYMAP_E2E_BASE_URL to run
// them; otherwise every test is skipped.
package e2e_test

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/turtacn/BodyMap-Insight/pkg/client"
)

// testEnv holds the shared resources of the e2e run.
type testEnv struct {
	baseURL    string
	httpClient *http.Client
	sdkClient  *client.Client
}

var env *testEnv

func TestMain(m *testing.M) {
	baseURL := os.Getenv("BODYMAP_E2E_BASE_URL")
	if baseURL != "" {
		var err error
		env, err = setupTestEnv(baseURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "E2E test setup failed: %v\n", err)
			os.Exit(1)
		}
	}
	os.Exit(m.Run())
}

func setupTestEnv(baseURL string) (*testEnv, error) {
	if err := waitForHealthy(baseURL, 30*time.Second); err != nil {
		return nil, err
	}
	sdk, err := client.NewClient(baseURL, client.WithTimeout(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("create SDK client: %w", err)
	}
	return &testEnv{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		sdkClient: sdk,
	}, nil
}

// waitForHealthy polls /readyz until it answers 200 or timeout elapses.
func waitForHealthy(baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	hc := &http.Client{Timeout: 2 * time.Second}
	for time.Now().Before(deadline) {
		resp, err := hc.Get(baseURL + "/readyz")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("service at %s not ready after %v", baseURL, timeout)
}

// requireEnv skips the test when no server is configured.
func requireEnv(t *testing.T) *testEnv {
	t.Helper()
	if env == nil {
		t.Skip("skipping e2e test: BODYMAP_E2E_BASE_URL not set")
	}
	return env
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	t.Cleanup(cancel)
	return ctx
}
