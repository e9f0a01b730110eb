package sqlstore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/domain"
)

const invitationColumns = `id, token_hash, token_sealed, email, role, scope_id, kind, user_id, invited_by, status,
	clicks_count, last_clicked_at, completed_at, delivered_at, expires_at, created_at, updated_at`

type invitationsRepo struct {
	q querier
}

func scanInvitation(row scanner) (domain.Invitation, error) {
	var (
		inv                            domain.Invitation
		role, kind, status             string
		lastClicked, completed, delivd sql.NullTime
	)
	err := row.Scan(
		&inv.ID, &inv.TokenHash, &inv.TokenSealed, &inv.Email, &role, &inv.ScopeID, &kind,
		&inv.UserID, &inv.InvitedBy, &status, &inv.ClicksCount,
		&lastClicked, &completed, &delivd, &inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}

	inv.Role = domain.Role(role)
	inv.Kind = domain.InvitationKind(kind)
	inv.Status = domain.InvitationStatus(status)
	inv.LastClickedAt = mapNullTimePtr(lastClicked)
	inv.CompletedAt = mapNullTimePtr(completed)
	inv.DeliveredAt = mapNullTimePtr(delivd)
	inv.ExpiresAt = inv.ExpiresAt.UTC()
	inv.CreatedAt = inv.CreatedAt.UTC()
	inv.UpdatedAt = inv.UpdatedAt.UTC()
	return inv, nil
}

func (r *invitationsRepo) list(ctx context.Context, query string, args ...any) ([]domain.Invitation, error) {
	rows, err := r.q.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	_, err := r.q.exec(ctx, `
		INSERT INTO invitations (`+invitationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.TokenHash, inv.TokenSealed, inv.Email, string(inv.Role), inv.ScopeID, string(inv.Kind),
		inv.UserID, inv.InvitedBy, string(inv.Status), inv.ClicksCount,
		mapOptionalTime(inv.LastClickedAt), mapOptionalTime(inv.CompletedAt), mapOptionalTime(inv.DeliveredAt),
		inv.ExpiresAt.UTC(), inv.CreatedAt.UTC(), inv.UpdatedAt.UTC(),
	)
	return r.q.mapUnique(err)
}

func (r *invitationsRepo) GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error) {
	return scanInvitation(r.q.queryRow(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE id = ?`, id))
}

func (r *invitationsRepo) GetInvitationByTokenHash(ctx context.Context, hash string) (domain.Invitation, error) {
	return scanInvitation(r.q.queryRow(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE token_hash = ?`, hash))
}

func (r *invitationsRepo) ListPendingInvitations(
	ctx context.Context,
	email string,
	role domain.Role,
	scopeID string,
	kind domain.InvitationKind,
) ([]domain.Invitation, error) {
	return r.list(ctx, `
		SELECT `+invitationColumns+` FROM invitations
		WHERE email = ? AND role = ? AND scope_id = ? AND kind = ? AND status = 'pending'
		ORDER BY created_at DESC`,
		email, string(role), scopeID, string(kind),
	)
}

func (r *invitationsRepo) ListInvitations(ctx context.Context, f domain.InvitationFilter) ([]domain.Invitation, error) {
	var (
		where []string
		args  []any
	)
	if f.Email != "" {
		where = append(where, "email = ?")
		args = append(args, f.Email)
	}
	if f.ScopeID != "" {
		where = append(where, "scope_id = ?")
		args = append(args, f.ScopeID)
	}
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}

	query := `SELECT ` + invitationColumns + ` FROM invitations`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	return r.list(ctx, query, args...)
}

func (r *invitationsRepo) RecordInvitationClick(ctx context.Context, id string, at time.Time) error {
	_, err := r.q.exec(ctx, `
		UPDATE invitations SET clicks_count = clicks_count + 1, last_clicked_at = ?, updated_at = ?
		WHERE id = ?`,
		at.UTC(), at.UTC(), id,
	)
	return err
}

func (r *invitationsRepo) MarkInvitationDelivered(ctx context.Context, id string, at time.Time) error {
	_, err := r.q.exec(ctx, `UPDATE invitations SET delivered_at = ?, updated_at = ? WHERE id = ?`, at.UTC(), at.UTC(), id)
	return err
}

func (r *invitationsRepo) ClaimInvitation(ctx context.Context, id string, now time.Time) (bool, error) {
	return r.q.affected(ctx, `
		UPDATE invitations SET status = 'accepted', completed_at = ?, updated_at = ?
		WHERE id = ? AND status = 'pending' AND expires_at >= ?`,
		now.UTC(), now.UTC(), id, now.UTC(),
	)
}

func (r *invitationsRepo) RevertInvitationClaim(ctx context.Context, id string, at time.Time) error {
	_, err := r.q.exec(ctx, `
		UPDATE invitations SET status = 'pending', completed_at = NULL, updated_at = ?
		WHERE id = ? AND status = 'accepted'`,
		at.UTC(), id,
	)
	return err
}

func (r *invitationsRepo) CancelInvitation(ctx context.Context, id string, at time.Time) (bool, error) {
	return r.q.affected(ctx, `
		UPDATE invitations SET status = 'cancelled', updated_at = ?
		WHERE id = ? AND status = 'pending'`,
		at.UTC(), id,
	)
}

func (r *invitationsRepo) ExpireInvitation(ctx context.Context, id string, at time.Time) (bool, error) {
	return r.q.affected(ctx, `
		UPDATE invitations SET status = 'expired', updated_at = ?
		WHERE id = ? AND status = 'pending' AND expires_at < ?`,
		at.UTC(), id, at.UTC(),
	)
}

func (r *invitationsRepo) ExpireStaleInvitations(ctx context.Context, now time.Time) (int64, error) {
	return r.q.count(ctx, `
		UPDATE invitations SET status = 'expired', updated_at = ?
		WHERE status = 'pending' AND expires_at < ?`,
		now.UTC(), now.UTC(),
	)
}

func (r *invitationsRepo) DeleteInvitation(ctx context.Context, id string) (bool, error) {
	return r.q.affected(ctx, `DELETE FROM invitations WHERE id = ? AND status <> 'accepted'`, id)
}
