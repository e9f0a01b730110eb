// Package mailertest holds test doubles for the mailer package.
package mailertest

import (
	"context"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/mailer"
	"github.com/stretchr/testify/mock"
)

// MockDispatcher is a testify mock for services that send mail.
type MockDispatcher struct {
	mock.Mock
}

var _ mailer.Dispatcher = (*MockDispatcher)(nil)

func (m *MockDispatcher) Send(ctx context.Context, msg mailer.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
