package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/yegors/sso-sentinel/pkg/logger"
)

// Client invokes the external SSO authority CLI. Each operation runs
// one external process synchronously; callers are responsible for not
// overlapping invocations (the monitor's in-flight guard does this).
type Client struct {
	binary  string
	profile string
	timeout time.Duration
	logger  *logger.Logger
}

// callerIdentityResponse matches the JSON emitted by the authority's
// identity check (sts get-caller-identity --output json).
type callerIdentityResponse struct {
	UserID  string `json:"UserId"`
	Account string `json:"Account"`
	Arn     string `json:"Arn"`
}

// NewClient creates a new authority client
func NewClient(binary, profile string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		binary:  binary,
		profile: profile,
		timeout: timeout,
		logger:  log.Named("authority"),
	}
}

// profileArgs appends the --profile flag when a profile is configured
func (c *Client) profileArgs(args []string) []string {
	if c.profile != "" {
		args = append(args, "--profile", c.profile)
	}
	return args
}

// Check probes the authority for session validity. Launch failures,
// non-zero exits and unparseable output all fold into an
// unauthenticated outcome; the cause is retained for logging only.
func (c *Client) Check(ctx context.Context) Outcome {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := c.profileArgs([]string{"sts", "get-caller-identity", "--output", "json"})
	cmd := exec.CommandContext(ctx, c.binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		c.logger.Warn("Failed to start authority check process",
			logger.String("binary", c.binary),
			logger.Error(err))
		return FailureOutcome(FailureLaunch, err.Error())
	}

	if err := cmd.Wait(); err != nil {
		c.logger.Debug("Authority check reported invalid session",
			logger.Duration("duration", time.Since(start)),
			logger.String("stderr", stderr.String()),
			logger.Error(err))
		return FailureOutcome(FailureExit, stderr.String())
	}

	id, err := parseIdentity(stdout.Bytes())
	if err != nil {
		c.logger.Warn("Failed to parse authority identity payload",
			logger.Error(err))
		return FailureOutcome(FailureParse, err.Error())
	}

	c.logger.Debug("Authority check succeeded",
		logger.String("account", id.Account),
		logger.Duration("duration", time.Since(start)))

	return SuccessOutcome(id)
}

// parseIdentity decodes the identity check payload. An empty payload
// counts as a parse failure even when the JSON itself is valid.
func parseIdentity(data []byte) (Identity, error) {
	var resp callerIdentityResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return Identity{}, fmt.Errorf("failed to decode identity payload: %w", err)
	}
	if resp.UserID == "" && resp.Account == "" && resp.Arn == "" {
		return Identity{}, fmt.Errorf("empty identity payload")
	}
	return Identity{
		UserID:  resp.UserID,
		Account: resp.Account,
		RoleARN: resp.Arn,
	}, nil
}

// Login runs the authority's interactive login flow. The session is
// not trusted to be valid on success; a follow-up Check reconciles
// status either way.
func (c *Client) Login(ctx context.Context) error {
	return c.run(ctx, c.profileArgs([]string{"sso", "login"}))
}

// Logout revokes the current session.
func (c *Client) Logout(ctx context.Context) error {
	return c.run(ctx, c.profileArgs([]string{"sso", "logout"}))
}

// run executes one authority subcommand to completion
func (c *Client) run(ctx context.Context, args []string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.binary, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	c.logger.Info("Running authority command",
		logger.String("binary", c.binary),
		logger.Any("args", args))

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("authority command failed: %s: %w", stderr.String(), err)
		}
		return fmt.Errorf("authority command failed: %w", err)
	}
	return nil
}
