package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/fieldbank/pkg/slogx"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/endpoints"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
	"github.com/kelseyhightower/envconfig"
)

const charSet = "UTF-8"

// SESConfig is read from SES_* environment variables. Credentials come from
// the usual AWS chain and are not part of it.
type SESConfig struct {
	From     string `required:"true"`
	Region   string `default:"ap-southeast-2"`
	Endpoint string

	// ConfigurationSet carries the open/click tracking settings. It is left
	// off messages that ask for DisableTracking.
	ConfigurationSet string            `split_words:"true"`
	DefaultTags      map[string]string `split_words:"true"`
}

func LoadSESConfig() (SESConfig, error) {
	var cfg SESConfig
	if err := envconfig.Process("SES", &cfg); err != nil {
		return SESConfig{}, err
	}
	return cfg, nil
}

type SESDispatcher struct {
	config SESConfig
	client sesiface.SESAPI
}

// NewSESDispatcher builds a session for cfg. A non-empty Endpoint overrides
// the regional SES endpoint, which is how local SES emulators are used.
func NewSESDispatcher(ctx context.Context, cfg SESConfig) (*SESDispatcher, error) {
	resolver := func(service, region string, optFns ...func(*endpoints.Options)) (endpoints.ResolvedEndpoint, error) {
		if service == endpoints.EmailServiceID && cfg.Endpoint != "" {
			return endpoints.ResolvedEndpoint{
				URL:           cfg.Endpoint,
				SigningRegion: region,
			}, nil
		}
		return endpoints.DefaultResolver().EndpointFor(service, region, optFns...)
	}

	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String(cfg.Region),
		EndpointResolver: endpoints.ResolverFunc(resolver),
	})
	if err != nil {
		return nil, fmt.Errorf("ses: new session: %w", err)
	}

	log := slogx.FromContext(ctx)
	if creds, err := sess.Config.Credentials.Get(); err != nil {
		log.Warn("no AWS credentials found, SES sends will fail", slog.Any("err", err))
	} else {
		log.Info("AWS credentials found", slog.String("provider", creds.ProviderName))
	}

	return NewSESDispatcherWithClient(cfg, ses.New(sess)), nil
}

func NewSESDispatcherWithClient(cfg SESConfig, client sesiface.SESAPI) *SESDispatcher {
	return &SESDispatcher{config: cfg, client: client}
}

func (d *SESDispatcher) tags(extra map[string]string) []*ses.MessageTag {
	all := make(map[string]string, len(d.config.DefaultTags)+len(extra))
	for k, v := range d.config.DefaultTags {
		all[k] = v
	}
	for k, v := range extra {
		all[k] = v
	}

	out := make([]*ses.MessageTag, 0, len(all))
	for k, v := range all {
		if k == "" || v == "" {
			continue
		}
		out = append(out, &ses.MessageTag{Name: aws.String(k), Value: aws.String(v)})
	}
	return out
}

func (d *SESDispatcher) buildInput(msg Message) *ses.SendEmailInput {
	body := &ses.Body{}
	if msg.HTML != "" {
		body.Html = &ses.Content{Charset: aws.String(charSet), Data: aws.String(msg.HTML)}
	}
	if msg.Text != "" {
		body.Text = &ses.Content{Charset: aws.String(charSet), Data: aws.String(msg.Text)}
	}

	input := &ses.SendEmailInput{
		Destination: &ses.Destination{ToAddresses: []*string{aws.String(msg.To)}},
		Message: &ses.Message{
			Body:    body,
			Subject: &ses.Content{Charset: aws.String(charSet), Data: aws.String(msg.Subject)},
		},
		Source: aws.String(d.config.From),
		Tags:   d.tags(msg.Tags),
	}
	if d.config.ConfigurationSet != "" && !msg.DisableTracking {
		input.ConfigurationSetName = aws.String(d.config.ConfigurationSet)
	}
	return input
}

func (d *SESDispatcher) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}

	out, err := d.client.SendEmailWithContext(ctx, d.buildInput(msg))
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok {
			return fmt.Errorf("ses: %s: %w", aerr.Code(), err)
		}
		return fmt.Errorf("ses: %w", err)
	}

	slogx.FromContext(ctx).Debug("SES email sent",
		slog.String("message_id", aws.StringValue(out.MessageId)),
		slog.String("subject", msg.Subject),
	)
	return nil
}
