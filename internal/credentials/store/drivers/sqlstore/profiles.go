package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/fieldbank/internal/credentials/domain"
)

const profileColumns = `id, user_id, role, scope_id, invitation_status, invited_by, invited_at, accepted_at, updated_at`

type profilesRepo struct {
	q querier
}

func scanProfile(row scanner) (domain.Profile, error) {
	var (
		p            domain.Profile
		role, status string
		acceptedAt   sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.UserID, &role, &p.ScopeID, &status, &p.InvitedBy, &p.InvitedAt, &acceptedAt, &p.UpdatedAt); err != nil {
		return domain.Profile{}, mapNotFound(err)
	}
	p.Role = domain.Role(role)
	p.InvitationStatus = domain.ProfileStatus(status)
	p.AcceptedAt = mapNullTimePtr(acceptedAt)
	p.InvitedAt = p.InvitedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func (r *profilesRepo) list(ctx context.Context, query string, args ...any) ([]domain.Profile, error) {
	rows, err := r.q.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *profilesRepo) UpsertPendingProfile(ctx context.Context, p domain.Profile) error {
	_, err := r.q.exec(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES (?, ?, ?, ?, 'pending', ?, ?, NULL, ?)
		ON CONFLICT (user_id, scope_id) DO UPDATE SET
			role = excluded.role,
			invitation_status = 'pending',
			invited_by = excluded.invited_by,
			invited_at = excluded.invited_at,
			accepted_at = NULL,
			updated_at = excluded.updated_at`,
		p.ID, p.UserID, string(p.Role), p.ScopeID, p.InvitedBy, p.InvitedAt.UTC(), p.UpdatedAt.UTC(),
	)
	return err
}

func (r *profilesRepo) GetProfile(ctx context.Context, userID, scopeID string) (domain.Profile, error) {
	return scanProfile(r.q.queryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = ? AND scope_id = ?`, userID, scopeID))
}

func (r *profilesRepo) ListProfilesByStatus(ctx context.Context, status domain.ProfileStatus) ([]domain.Profile, error) {
	return r.list(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE invitation_status = ? ORDER BY invited_at, id`, string(status))
}

func (r *profilesRepo) ListProfilesForUser(ctx context.Context, userID string) ([]domain.Profile, error) {
	return r.list(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = ? ORDER BY invited_at, id`, userID)
}

func (r *profilesRepo) TransitionProfileStatus(
	ctx context.Context,
	userID, scopeID string,
	from, to domain.ProfileStatus,
	at time.Time,
) (bool, error) {
	if to == domain.ProfileAccepted {
		return r.q.affected(ctx, `
			UPDATE profiles SET invitation_status = ?, accepted_at = ?, updated_at = ?
			WHERE user_id = ? AND scope_id = ? AND invitation_status = ?`,
			string(to), at.UTC(), at.UTC(), userID, scopeID, string(from),
		)
	}
	return r.q.affected(ctx, `
		UPDATE profiles SET invitation_status = ?, updated_at = ?
		WHERE user_id = ? AND scope_id = ? AND invitation_status = ?`,
		string(to), at.UTC(), userID, scopeID, string(from),
	)
}

func (r *profilesRepo) CountProfilesByRole(ctx context.Context, role domain.Role) (int64, error) {
	var n int64
	err := r.q.queryRow(ctx,
		`SELECT COUNT(*) FROM profiles WHERE role = ? AND invitation_status = 'accepted'`, string(role)).Scan(&n)
	return n, err
}
