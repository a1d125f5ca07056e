package access

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) RouteActionExists(ctx context.Context, routeName, actionName string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM route_actions ra
    JOIN routes r ON r.id = ra.route_id
    JOIN actions a ON a.id = ra.action_id
    WHERE r.route_name = $1 AND a.action_name = $2
  `, routeName, actionName).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) UpsertGrant(ctx context.Context, adminID, routeName, actionName string) error {
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO admin_route_actions (admin_id, route_id, action_id)
    SELECT $1, r.id, a.id
    FROM routes r, actions a
    WHERE r.route_name = $2 AND a.action_name = $3
    ON CONFLICT (admin_id, route_id, action_id) DO UPDATE SET action_id = EXCLUDED.action_id
  `, adminID, routeName, actionName)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("grant %s/%s: %w", routeName, actionName, ErrUnknownRouteAction)
	}
	return nil
}

func (s *Store) DeleteGrants(ctx context.Context, adminID, routeName string, actions []string) (int, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
    DELETE FROM admin_route_actions ara
    USING routes r, actions a
    WHERE ara.route_id = r.id AND ara.action_id = a.id
      AND ara.admin_id = $1 AND r.route_name = $2 AND a.action_name = ANY($3)
  `, adminID, routeName, actions)
	if err != nil {
		return 0, err
	}

	var remaining int
	err = tx.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM admin_route_actions ara
    JOIN routes r ON r.id = ara.route_id
    WHERE ara.admin_id = $1 AND r.route_name = $2
  `, adminID, routeName).Scan(&remaining)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return remaining, nil
}

func (s *Store) GrantedActions(ctx context.Context, adminID, routeName string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT a.action_name
    FROM admin_route_actions ara
    JOIN routes r ON r.id = ara.route_id
    JOIN actions a ON a.id = ara.action_id
    WHERE ara.admin_id = $1 AND r.route_name = $2
    ORDER BY a.action_name
  `, adminID, routeName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

func (s *Store) GrantedByRoute(ctx context.Context, adminID string) (map[string][]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT r.route_name, a.action_name
    FROM admin_route_actions ara
    JOIN routes r ON r.id = ara.route_id
    JOIN actions a ON a.id = ara.action_id
    WHERE ara.admin_id = $1
    ORDER BY r.route_name, a.action_name
  `, adminID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grouped := map[string][]string{}
	for rows.Next() {
		var route, action string
		if err := rows.Scan(&route, &action); err != nil {
			return nil, err
		}
		grouped[route] = append(grouped[route], action)
	}
	return grouped, rows.Err()
}

func (s *Store) RouteActions(ctx context.Context, routeName string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT a.action_name
    FROM route_actions ra
    JOIN routes r ON r.id = ra.route_id
    JOIN actions a ON a.id = ra.action_id
    WHERE r.route_name = $1
    ORDER BY a.action_name
  `, routeName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

func (s *Store) HasOpenRequest(ctx context.Context, adminID, routeName, actionName string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM admin_access_requests req
    JOIN routes r ON r.id = req.route_id
    JOIN actions a ON a.id = req.action_id
    WHERE req.admin_id = $1 AND r.route_name = $2 AND a.action_name = $3
      AND req.status IN ('pending', 'approved')
  `, adminID, routeName, actionName).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) InsertRequest(ctx context.Context, adminID, routeName, actionName string) (Request, error) {
	var req Request
	err := s.DB.QueryRow(ctx, `
    INSERT INTO admin_access_requests (admin_id, route_id, action_id, status)
    SELECT $1, r.id, a.id, 'pending'
    FROM routes r, actions a
    WHERE r.route_name = $2 AND a.action_name = $3
    RETURNING id, admin_id, status, requested_at
  `, adminID, routeName, actionName).Scan(&req.ID, &req.AdminID, &req.Status, &req.RequestedAt)
	if err == pgx.ErrNoRows {
		return Request{}, fmt.Errorf("request %s/%s: %w", routeName, actionName, ErrUnknownRouteAction)
	}
	if err != nil {
		return Request{}, err
	}
	req.RouteName = routeName
	req.ActionName = actionName
	return req, nil
}

func (s *Store) RequestsByAdmin(ctx context.Context, adminID string) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT req.id, req.admin_id, r.route_name, a.action_name, req.status,
           req.requested_at, req.reviewed_at, req.reviewed_by
    FROM admin_access_requests req
    JOIN routes r ON r.id = req.route_id
    JOIN actions a ON a.id = req.action_id
    WHERE req.admin_id = $1
    ORDER BY req.requested_at DESC
  `, adminID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []Request
	for rows.Next() {
		var req Request
		if err := rows.Scan(&req.ID, &req.AdminID, &req.RouteName, &req.ActionName, &req.Status,
			&req.RequestedAt, &req.ReviewedAt, &req.ReviewedBy); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func (s *Store) PendingRequests(ctx context.Context) ([]PendingRequest, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT req.id, req.admin_id, r.route_name, a.action_name, req.status, req.requested_at,
           p.email, p.first_name || ' ' || p.last_name
    FROM admin_access_requests req
    JOIN routes r ON r.id = req.route_id
    JOIN actions a ON a.id = req.action_id
    JOIN admins adm ON adm.id = req.admin_id
    JOIN persons p ON p.id = adm.person_id
    WHERE req.status = 'pending'
    ORDER BY req.requested_at ASC
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []PendingRequest
	for rows.Next() {
		var req PendingRequest
		if err := rows.Scan(&req.ID, &req.AdminID, &req.RouteName, &req.ActionName, &req.Status,
			&req.RequestedAt, &req.AdminEmail, &req.AdminName); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// ApproveRequest flips a pending request to approved and materializes the
// grant in one transaction. The second return value is false when the
// request was not pending.
func (s *Store) ApproveRequest(ctx context.Context, requestID, reviewerID string) (ReviewOutcome, bool, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return ReviewOutcome{}, false, err
	}
	defer tx.Rollback(ctx)

	outcome, applied, err := decideRequest(ctx, tx, requestID, reviewerID, StatusApproved)
	if err != nil || !applied {
		return ReviewOutcome{}, false, err
	}

	_, err = tx.Exec(ctx, `
    INSERT INTO admin_route_actions (admin_id, route_id, action_id)
    SELECT req.admin_id, req.route_id, req.action_id
    FROM admin_access_requests req
    WHERE req.id = $1
    ON CONFLICT (admin_id, route_id, action_id) DO UPDATE SET action_id = EXCLUDED.action_id
  `, requestID)
	if err != nil {
		return ReviewOutcome{}, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return ReviewOutcome{}, false, err
	}
	return outcome, true, nil
}

func (s *Store) RejectRequest(ctx context.Context, requestID, reviewerID string) (ReviewOutcome, bool, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return ReviewOutcome{}, false, err
	}
	defer tx.Rollback(ctx)

	outcome, applied, err := decideRequest(ctx, tx, requestID, reviewerID, StatusRejected)
	if err != nil || !applied {
		return ReviewOutcome{}, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return ReviewOutcome{}, false, err
	}
	return outcome, true, nil
}

// decideRequest performs the status-guarded transition. A request that is
// no longer pending affects zero rows, which callers surface as already
// handled.
func decideRequest(ctx context.Context, tx pgx.Tx, requestID, reviewerID, status string) (ReviewOutcome, bool, error) {
	var outcome ReviewOutcome
	err := tx.QueryRow(ctx, `
    UPDATE admin_access_requests req
    SET status = $3, reviewed_at = now(), reviewed_by = $2
    FROM routes r, actions a, admins adm, persons p
    WHERE req.id = $1 AND req.status = 'pending'
      AND r.id = req.route_id AND a.id = req.action_id
      AND adm.id = req.admin_id AND p.id = adm.person_id
    RETURNING req.id, req.admin_id, p.email, r.route_name, a.action_name, req.status
  `, requestID, reviewerID, status).Scan(
		&outcome.RequestID, &outcome.AdminID, &outcome.AdminEmail,
		&outcome.RouteName, &outcome.ActionName, &outcome.Status)
	if err == pgx.ErrNoRows {
		return ReviewOutcome{}, false, nil
	}
	if err != nil {
		return ReviewOutcome{}, false, err
	}
	return outcome, true, nil
}

func scanStrings(rows pgx.Rows) ([]string, error) {
	var values []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, rows.Err()
}
