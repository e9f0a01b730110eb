package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/aussiebroadwan/fieldbank/pkg/credsdk"
)

type apiFlags struct {
	url   *string
	token *string
}

func addAPIFlags(fs *flag.FlagSet, needToken bool) apiFlags {
	f := apiFlags{
		url: fs.String("url", envOr("CREDENTIALS_URL", "http://localhost:8080"), "service base URL"),
	}
	if needToken {
		f.token = fs.String("token", os.Getenv("CREDENTIALS_TOKEN"), "admin access token")
	}
	return f
}

func (f apiFlags) client() *credsdk.SDKClient {
	return credsdk.NewSDKClient(*f.url)
}

func (f apiFlags) session() (*credsdk.Session, error) {
	if *f.token == "" {
		return nil, errors.New("an access token is required, pass --token or set CREDENTIALS_TOKEN")
	}
	return f.client().NewSession(&credsdk.TokenResponse{AccessToken: *f.token}), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// runLogin signs in interactively and prints the access token, for use as
// CREDENTIALS_TOKEN.
func runLogin(ctx context.Context, args []string, s ioStreams) error {
	fs := newFlagSet("login", s)
	api := addAPIFlags(fs, false)
	email := fs.String("email", "", "account email")
	fingerprint := fs.String("fingerprint", "credentialsctl", "device fingerprint")
	remember := fs.Bool("remember", false, "trust this device after the code is accepted")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := required("email", *email); err != nil {
		return err
	}

	password, err := promptSecret(s, "Password: ")
	if err != nil {
		return err
	}

	client := api.client()
	sess, err := client.Login(ctx, credsdk.LoginRequest{Email: *email, Password: password, Fingerprint: *fingerprint})

	var challenge *credsdk.ChallengeRequiredError
	if errors.As(err, &challenge) {
		fmt.Fprintf(s.err, "A sign-in code was sent to %s.\n", *email)
		code, perr := promptLine(s, "Code: ")
		if perr != nil {
			return perr
		}
		sess, err = client.CompleteChallenge(ctx, challenge, credsdk.VerifyOTPRequest{
			Code:           code,
			RememberDevice: *remember,
			Fingerprint:    *fingerprint,
		})
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(s.out, sess.AccessToken())
	return nil
}

func runInvite(ctx context.Context, args []string, s ioStreams) error {
	fs := newFlagSet("invite", s)
	api := addAPIFlags(fs, true)
	email := fs.String("email", "", "invitee email")
	role := fs.String("role", "", "admin, specialist or bank_viewer")
	scope := fs.String("scope", "", "bank id, required for specialist and bank_viewer")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := required("email", *email); err != nil {
		return err
	}
	if err := required("role", *role); err != nil {
		return err
	}

	sess, err := api.session()
	if err != nil {
		return err
	}

	out, err := sess.IssueInvitation(ctx, credsdk.IssueInvitationRequest{Email: *email, Role: *role, ScopeID: *scope})
	if credsdk.HasCode(err, credsdk.ErrorCodeDeliveryFailed) && out != nil {
		fmt.Fprintf(s.err, "invitation %s was stored but the email failed, retry with: credentialsctl resend --id %s\n",
			out.InvitationID, out.InvitationID)
		return err
	}
	if err != nil {
		return err
	}
	return printJSON(s.out, out)
}

func runList(ctx context.Context, args []string, s ioStreams) error {
	fs := newFlagSet("list", s)
	api := addAPIFlags(fs, true)
	var f credsdk.ListInvitationsFilter
	fs.StringVar(&f.Email, "email", "", "filter by email")
	fs.StringVar(&f.ScopeID, "scope", "", "filter by bank id")
	fs.StringVar(&f.Kind, "kind", "", "invitation or password_reset")
	fs.StringVar(&f.Status, "status", "", "pending, accepted, cancelled or expired")
	fs.IntVar(&f.Limit, "limit", 0, "maximum rows")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	sess, err := api.session()
	if err != nil {
		return err
	}

	invs, err := sess.ListInvitations(ctx, f)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(s.out, invs)
	}

	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tKIND\tROLE\tSCOPE\tSTATUS\tEXPIRES")
	for _, inv := range invs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			inv.ID, inv.Email, inv.Kind, dash(inv.Role), dash(inv.ScopeID), inv.Status,
			inv.ExpiresAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// idCommand covers the commands that act on one invitation id.
func idCommand(name string, act func(ctx context.Context, sess *credsdk.Session, id string) (string, error)) command {
	return func(ctx context.Context, args []string, s ioStreams) error {
		fs := newFlagSet(name, s)
		api := addAPIFlags(fs, true)
		id := fs.String("id", "", "invitation id")
		if err := parseFlags(fs, args); err != nil {
			return err
		}
		if err := required("id", *id); err != nil {
			return err
		}

		sess, err := api.session()
		if err != nil {
			return err
		}
		msg, err := act(ctx, sess, *id)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, msg)
		return nil
	}
}

var (
	runCancel = idCommand("cancel", func(ctx context.Context, sess *credsdk.Session, id string) (string, error) {
		return "cancelled " + id, sess.CancelInvitation(ctx, id)
	})
	runResend = idCommand("resend", func(ctx context.Context, sess *credsdk.Session, id string) (string, error) {
		_, err := sess.ResendInvitation(ctx, id)
		return "resent " + id, err
	})
	runDelete = idCommand("delete", func(ctx context.Context, sess *credsdk.Session, id string) (string, error) {
		return "deleted " + id, sess.DeleteInvitation(ctx, id)
	})
)

func runResetPassword(ctx context.Context, args []string, s ioStreams) error {
	fs := newFlagSet("reset-password", s)
	api := addAPIFlags(fs, true)
	email := fs.String("email", "", "account email")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := required("email", *email); err != nil {
		return err
	}

	sess, err := api.session()
	if err != nil {
		return err
	}
	if err := sess.SendPasswordReset(ctx, *email); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "password reset sent to %s\n", *email)
	return nil
}

func runHealth(ctx context.Context, args []string, s ioStreams) error {
	fs := newFlagSet("health", s)
	api := addAPIFlags(fs, false)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	health, err := api.client().GetReadiness(ctx)
	if err != nil {
		return err
	}
	return printJSON(s.out, health)
}
