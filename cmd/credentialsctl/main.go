// Command credentialsctl is the operator tool for the credentials service.
//
// Commands that touch the database directly (bootstrap-admin, reconcile,
// sweep) read the same environment as the service. The rest go through the
// HTTP API with an admin access token.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const usage = `usage: credentialsctl <command> [flags]

Local commands (use the service environment):
  bootstrap-admin  create the first administrator
  reconcile        run one status reconciliation pass
  sweep            run one housekeeping sweep

API commands (need --url and --token, or CREDENTIALS_URL and CREDENTIALS_TOKEN):
  login            sign in and print an access token
  invite           invite someone to a role
  list             list invitations
  cancel           cancel a pending invitation
  resend           email a pending invitation again
  delete           delete an invitation that was never accepted
  reset-password   send a password reset link
  health           check service readiness
`

// errUsage makes run print the usage text and exit 2.
var errUsage = errors.New("invalid usage")

type command func(ctx context.Context, args []string, io ioStreams) error

var commands = map[string]command{
	"bootstrap-admin": runBootstrapAdmin,
	"reconcile":       runReconcile,
	"sweep":           runSweep,
	"login":           runLogin,
	"invite":          runInvite,
	"list":            runList,
	"cancel":          runCancel,
	"resend":          runResend,
	"delete":          runDelete,
	"reset-password":  runResetPassword,
	"health":          runHealth,
}

type ioStreams struct {
	in  io.Reader
	out io.Writer
	err io.Writer

	// lines buffers in for prompts that are not read from a terminal.
	lines *bufio.Reader
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], ioStreams{in: os.Stdin, out: os.Stdout, err: os.Stderr}))
}

func run(ctx context.Context, args []string, s ioStreams) int {
	s.lines = bufio.NewReader(s.in)

	if len(args) == 0 {
		fmt.Fprint(s.err, usage)
		return 2
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(s.err, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	if err := cmd(ctx, args[1:], s); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(s.err, usage)
			return 2
		}
		fmt.Fprintf(s.err, "error: %v\n", err)
		return 1
	}
	return 0
}
