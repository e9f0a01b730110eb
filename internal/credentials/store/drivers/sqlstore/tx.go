package sqlstore

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/store"
)

type txStore struct {
	tx *sql.Tx
	q  querier
}

func newTx(tx *sql.Tx, d Dialect) *txStore {
	return &txStore{
		tx: tx,
		q:  querier{db: tx, d: d},
	}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // outer DB stays open

// Ping is a no-op for transactions. The connection is already established
// when the transaction is created.
func (t *txStore) Ping(ctx context.Context) error {
	return nil
}

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) Invitations() store.Invitations       { return &invitationsRepo{q: t.q} }
func (t *txStore) Profiles() store.Profiles             { return &profilesRepo{q: t.q} }
func (t *txStore) Identities() store.Identities         { return &identitiesRepo{q: t.q} }
func (t *txStore) OTPCodes() store.OTPCodes             { return &otpCodesRepo{q: t.q} }
func (t *txStore) TrustedDevices() store.TrustedDevices { return &trustedDevicesRepo{q: t.q} }

func (t *txStore) ApplyMigrations() error { return nil } // migrations run before any tx
