package main

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/app"
	"github.com/aussiebroadwan/fieldbank/pkg/slogx"
)

// loadConfig is a test seam.
var loadConfig = app.LoadConfig

// openApp opens the service's store with logs on stderr, so stdout only
// carries command output.
func openApp(s ioStreams) (*app.Application, error) {
	cfg := loadConfig()
	cfg.LogOutput = s.err
	if cfg.LogLevel == "info" {
		cfg.LogLevel = "warn"
	}
	return app.New(cfg)
}

func runBootstrapAdmin(ctx context.Context, args []string, s ioStreams) error {
	fs := newFlagSet("bootstrap-admin", s)
	email := fs.String("email", "", "administrator email")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := required("email", *email); err != nil {
		return err
	}

	a, err := openApp(s)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx = slogx.WithContext(ctx, a.Logger())

	done, err := a.Bootstrap().IsBootstrapped(ctx)
	if err != nil {
		return err
	}
	if done {
		return fmt.Errorf("an administrator already exists, invite new admins instead")
	}

	password, err := promptSecret(s, "Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptSecret(s, "Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	ident, err := a.Bootstrap().BootstrapAdmin(ctx, *email, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "created administrator %s (%s)\n", ident.Email, ident.ID)
	return nil
}

func runReconcile(ctx context.Context, args []string, s ioStreams) error {
	fs := newFlagSet("reconcile", s)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	a, err := openApp(s)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.Reconciler().ReconcileOnce(slogx.WithContext(ctx, a.Logger()))
	if err != nil {
		return err
	}
	return printJSON(s.out, report)
}

func runSweep(ctx context.Context, args []string, s ioStreams) error {
	fs := newFlagSet("sweep", s)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	a, err := openApp(s)
	if err != nil {
		return err
	}
	defer a.Close()

	return printJSON(s.out, a.Housekeeping().Sweep(slogx.WithContext(ctx, a.Logger())))
}
