package credentials_test

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/fieldbank/pkg/credsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcexec "github.com/testcontainers/testcontainers-go/exec"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helpers for the credentials service end-to-end tests.
 * The service runs in a container with the log mailer, so emails are read
 * back from the container logs.
 */

const (
	testImageName = "fieldbank-credentials-test:latest"

	adminEmail    = "ops@fieldbank.example"
	adminPassword = "correct horse battery staple"
	signingKey    = "e2e-signing-key-0123456789abcdef0123"
	fingerprint   = "e2e-device"
)

var (
	codeRe  = regexp.MustCompile(`verification code is (\d{6})`)
	tokenRe = regexp.MustCompile(`token=([A-Za-z0-9_-]+)`)
)

// TestMain builds the Docker image once before all tests and removes it
// afterwards. -short skips the suite.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		fmt.Fprintln(os.Stdout, "skipping end-to-end tests in short mode")
		os.Exit(0)
	}

	fmt.Fprintf(os.Stdout, "Building Credentials Service Docker image...")
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Credentials Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	cmd := exec.CommandContext(context.Background(), "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/credentials/Dockerfile",
		"../../../")
	cmd.Stdout = os.Stdout
	return cmd.Run()
}

func cleanupDockerImage() {
	_ = exec.CommandContext(context.Background(), "docker", "rmi", "-f", testImageName).Run()
}

type service struct {
	container testcontainers.Container
	client    *credsdk.SDKClient
}

// setupService starts the service. Rate limits are relaxed unless env
// overrides them, since tests make many requests from one address.
func setupService(t *testing.T, env map[string]string) *service {
	t.Helper()
	ctx := context.Background()

	containerEnv := map[string]string{
		"ENV":          "dev",
		"LOG_LEVEL":    "info",
		"LOG_FORMAT":   "json",
		"MAILER":       "log",
		"SIGNING_KEY":  signingKey,
		"MASTER_KEY":   "e2e-master-key",
		"APP_BASE_URL": "https://dash.fieldbank.example",

		"OTP_SEND_COOLDOWN": "0s",
		"OTP_SEND_MAX":      "100",

		"RATELIMIT_STRICT_REQUESTS":   "1000",
		"RATELIMIT_STRICT_WINDOW_SEC": "60",
		"RATELIMIT_STRICT_BURST":      "1000",
		"RATELIMIT_MODERATE_REQUESTS": "1000",
		"RATELIMIT_MODERATE_BURST":    "1000",
	}
	for k, v := range env {
		containerEnv[k] = v
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        testImageName,
			ExposedPorts: []string{"8080/tcp"},
			Env:          containerEnv,
			WaitingFor: wait.ForHTTP("/livez").
				WithPort("8080/tcp").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)
	host, err := container.Host(ctx)
	require.NoError(t, err)

	return &service{
		container: container,
		client:    credsdk.NewSDKClient(fmt.Sprintf("http://%s:%s", host, mappedPort.Port())),
	}
}

// bootstrapAdmin runs credentialsctl inside the container.
func (s *service) bootstrapAdmin(t *testing.T) {
	t.Helper()

	script := fmt.Sprintf("printf '%%s\\n%%s\\n' '%s' '%s' | credentialsctl bootstrap-admin --email %s",
		adminPassword, adminPassword, adminEmail)
	code, out, err := s.container.Exec(t.Context(), []string{"sh", "-c", script}, tcexec.Multiplexed())
	require.NoError(t, err)

	output, _ := io.ReadAll(out)
	require.Equal(t, 0, code, "bootstrap-admin failed: %s", output)
}

// lastMailBody returns the newest logged email body for to. Recipients are
// masked in the logs, so tests give each one a distinct first letter.
func (s *service) lastMailBody(t *testing.T, to string) string {
	t.Helper()
	masked := to[:1] + "***" + to[strings.LastIndex(to, "@"):]

	var body string
	require.Eventually(t, func() bool {
		rc, err := s.container.Logs(t.Context())
		if err != nil {
			return false
		}
		defer rc.Close()

		body = ""
		sc := bufio.NewScanner(rc)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			line := sc.Bytes()
			if i := strings.IndexByte(string(line), '{'); i > 0 {
				line = line[i:]
			}
			var entry struct {
				Msg   string `json:"msg"`
				Email string `json:"email"`
				Body  string `json:"body"`
			}
			if json.Unmarshal(line, &entry) != nil {
				continue
			}
			if entry.Msg == "email not sent, log dispatcher" && entry.Email == masked {
				body = entry.Body
			}
		}
		return body != ""
	}, 5*time.Second, 100*time.Millisecond, "no email logged for %s", to)

	return body
}

func (s *service) lastCode(t *testing.T, to string) string {
	t.Helper()
	m := codeRe.FindStringSubmatch(s.lastMailBody(t, to))
	require.Len(t, m, 2)
	return m[1]
}

func (s *service) lastLinkToken(t *testing.T, to string) string {
	t.Helper()
	m := tokenRe.FindStringSubmatch(s.lastMailBody(t, to))
	require.Len(t, m, 2)
	return m[1]
}

// login signs in, answering the emailed challenge when one is required.
func (s *service) login(t *testing.T, email, password string) *credsdk.Session {
	t.Helper()
	ctx := t.Context()

	sess, err := s.client.Login(ctx, credsdk.LoginRequest{Email: email, Password: password, Fingerprint: fingerprint})
	var challenge *credsdk.ChallengeRequiredError
	if err == nil {
		return sess
	}
	require.ErrorAs(t, err, &challenge)

	sess, err = s.client.CompleteChallenge(ctx, challenge, credsdk.VerifyOTPRequest{
		Code:           s.lastCode(t, email),
		RememberDevice: true,
		Fingerprint:    fingerprint,
	})
	require.NoError(t, err)
	return sess
}

func (s *service) adminSession(t *testing.T) *credsdk.Session {
	t.Helper()
	s.bootstrapAdmin(t)
	return s.login(t, adminEmail, adminPassword)
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *credsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}

// assertAPIError checks err carries the given status and code.
func assertAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var apiErr *credsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.StatusCode, apiErr.Error())
	require.Equal(t, code, apiErr.ErrorResponse.Error)
}
