package gate_test

import (
	"context"
	"flag"
	"fmt"
	"maps"
	"net/http"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/bwirakes/temu-v2/pkg/gatesdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helpers for the session gate end-to-end tests: image
 * build, container setup and page visit assertions.
 */

const (
	testImageName = "temu-gate-test:latest"
	testPassword  = "password123"
)

// TestMain builds the Docker image once before all tests and removes it
// afterwards.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		fmt.Fprintln(os.Stdout, "skipping e2e tests in short mode")
		os.Exit(0)
	}

	fmt.Fprintf(os.Stdout, "Building session gate Docker image...")
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up session gate Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	cmd := exec.CommandContext(context.Background(), "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/gate/Dockerfile",
		"../../../")
	cmd.Stdout = os.Stdout
	return cmd.Run()
}

func cleanupDockerImage() {
	_ = exec.CommandContext(context.Background(), "docker", "rmi", "-f", testImageName).Run()
}

// setupGateContainer starts the service with relaxed rate limits unless env
// overrides them, and returns its base URL.
func setupGateContainer(t *testing.T, env map[string]string) string {
	t.Helper()
	ctx := context.Background()

	vars := map[string]string{
		"ENV":                       "test",
		"LOG_LEVEL":                 "info",
		"SESSION_ISSUER":            "temu-e2e",
		"SESSION_REFRESH_AFTER":     "1s",
		"RATELIMIT_SIGNIN_REQUESTS": "1000",
		"RATELIMIT_SIGNUP_REQUESTS": "1000",
	}
	maps.Copy(vars, env)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        testImageName,
			ExposedPorts: []string{"8080/tcp"},
			Env:          vars,
			WaitingFor: wait.ForHTTP("/livez").
				WithPort("8080/tcp").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)
	host, err := container.Host(ctx)
	require.NoError(t, err)

	return fmt.Sprintf("http://%s:%s", host, mappedPort.Port())
}

// requireRedirect asserts that loading path redirects to location.
func requireRedirect(t *testing.T, s *gatesdk.Session, path, location string) {
	t.Helper()
	v, err := s.Visit(t.Context(), path)
	require.NoError(t, err)
	require.Equal(t, http.StatusFound, v.StatusCode, "GET %s", path)
	require.Equal(t, location, v.Location, "GET %s", path)
}

// requireAllowed asserts that path is served.
func requireAllowed(t *testing.T, s *gatesdk.Session, path string) {
	t.Helper()
	v, err := s.Visit(t.Context(), path)
	require.NoError(t, err)
	require.True(t, v.Allowed(), "GET %s redirected to %q", path, v.Location)
}

func signUp(t *testing.T, client *gatesdk.SDKClient, email, userType string) *gatesdk.Session {
	t.Helper()
	s, user, err := client.SignUp(t.Context(), gatesdk.SignUpRequest{
		Email:    email,
		Name:     "E2E User",
		Password: testPassword,
		UserType: userType,
	})
	require.NoError(t, err)
	require.Equal(t, userType, user.UserType)
	return s
}
