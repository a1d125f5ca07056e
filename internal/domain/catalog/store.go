package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

const uniqueViolation = "23505"

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) CreateRoute(ctx context.Context, routeName, description string) (Route, error) {
	var route Route
	err := s.DB.QueryRow(ctx, `
    INSERT INTO routes (route_name, description) VALUES ($1, $2)
    RETURNING id, route_name, description, created_at
  `, routeName, description).Scan(&route.ID, &route.RouteName, &route.Description, &route.CreatedAt)
	if isUniqueViolation(err) {
		return Route{}, ErrDuplicate
	}
	if err != nil {
		return Route{}, err
	}
	return route, nil
}

// UpdateRoute renames a route and replaces its description. Grants and
// requests reference the route by id, so a rename carries them along.
func (s *Store) UpdateRoute(ctx context.Context, routeName, newName, description string) (Route, error) {
	var route Route
	err := s.DB.QueryRow(ctx, `
    UPDATE routes SET route_name = $2, description = $3
    WHERE route_name = $1
    RETURNING id, route_name, description, created_at
  `, routeName, newName, description).Scan(&route.ID, &route.RouteName, &route.Description, &route.CreatedAt)
	if err == pgx.ErrNoRows {
		return Route{}, ErrNotFound
	}
	if isUniqueViolation(err) {
		return Route{}, ErrDuplicate
	}
	if err != nil {
		return Route{}, err
	}
	return route, nil
}

func (s *Store) ListRoutes(ctx context.Context) ([]RouteWithActions, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT r.id, r.route_name, r.description, r.created_at,
           COALESCE(array_agg(a.action_name ORDER BY a.action_name) FILTER (WHERE a.action_name IS NOT NULL), '{}')
    FROM routes r
    LEFT JOIN route_actions ra ON ra.route_id = r.id
    LEFT JOIN actions a ON a.id = ra.action_id
    GROUP BY r.id, r.route_name, r.description, r.created_at
    ORDER BY r.route_name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []RouteWithActions
	for rows.Next() {
		var route RouteWithActions
		if err := rows.Scan(&route.ID, &route.RouteName, &route.Description, &route.CreatedAt, &route.Actions); err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}
	return routes, rows.Err()
}

// DeleteRoute removes a route together with everything that references it:
// action associations, grants, and access requests. One transaction so a
// half-deleted route can never leak grants to an uncataloged name.
func (s *Store) DeleteRoute(ctx context.Context, routeName string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var routeID string
	err = tx.QueryRow(ctx, `SELECT id FROM routes WHERE route_name = $1`, routeName).Scan(&routeID)
	if err == pgx.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	steps := []string{
		`DELETE FROM admin_access_requests WHERE route_id = $1`,
		`DELETE FROM admin_route_actions WHERE route_id = $1`,
		`DELETE FROM route_actions WHERE route_id = $1`,
		`DELETE FROM routes WHERE id = $1`,
	}
	for _, stmt := range steps {
		if _, err := tx.Exec(ctx, stmt, routeID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) CreateAction(ctx context.Context, actionName, description string) (Action, error) {
	var action Action
	err := s.DB.QueryRow(ctx, `
    INSERT INTO actions (action_name, description) VALUES ($1, $2)
    RETURNING id, action_name, description, created_at
  `, actionName, description).Scan(&action.ID, &action.ActionName, &action.Description, &action.CreatedAt)
	if isUniqueViolation(err) {
		return Action{}, ErrDuplicate
	}
	if err != nil {
		return Action{}, err
	}
	return action, nil
}

// UpdateAction renames an action and replaces its description.
func (s *Store) UpdateAction(ctx context.Context, actionName, newName, description string) (Action, error) {
	var action Action
	err := s.DB.QueryRow(ctx, `
    UPDATE actions SET action_name = $2, description = $3
    WHERE action_name = $1
    RETURNING id, action_name, description, created_at
  `, actionName, newName, description).Scan(&action.ID, &action.ActionName, &action.Description, &action.CreatedAt)
	if err == pgx.ErrNoRows {
		return Action{}, ErrNotFound
	}
	if isUniqueViolation(err) {
		return Action{}, ErrDuplicate
	}
	if err != nil {
		return Action{}, err
	}
	return action, nil
}

// DeleteAction removes an action together with everything that references
// it: route associations, grants, and access requests. Same shape as
// DeleteRoute so no grant can outlive its cataloged action.
func (s *Store) DeleteAction(ctx context.Context, actionName string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var actionID string
	err = tx.QueryRow(ctx, `SELECT id FROM actions WHERE action_name = $1`, actionName).Scan(&actionID)
	if err == pgx.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	steps := []string{
		`DELETE FROM admin_access_requests WHERE action_id = $1`,
		`DELETE FROM admin_route_actions WHERE action_id = $1`,
		`DELETE FROM route_actions WHERE action_id = $1`,
		`DELETE FROM actions WHERE id = $1`,
	}
	for _, stmt := range steps {
		if _, err := tx.Exec(ctx, stmt, actionID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) ListActions(ctx context.Context) ([]Action, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, action_name, description, created_at FROM actions ORDER BY action_name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []Action
	for rows.Next() {
		var action Action
		if err := rows.Scan(&action.ID, &action.ActionName, &action.Description, &action.CreatedAt); err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, rows.Err()
}

// AssociateAction links an action to a route. Idempotent.
func (s *Store) AssociateAction(ctx context.Context, routeName, actionName string) error {
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO route_actions (route_id, action_id)
    SELECT r.id, a.id FROM routes r, actions a
    WHERE r.route_name = $1 AND a.action_name = $2
    ON CONFLICT (route_id, action_id) DO UPDATE SET action_id = EXCLUDED.action_id
  `, routeName, actionName)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DissociateAction unlinks an action from a route and revokes every grant
// and open request that referenced the pair.
func (s *Store) DissociateAction(ctx context.Context, routeName, actionName string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var routeID, actionID string
	err = tx.QueryRow(ctx, `
    SELECT r.id, a.id FROM routes r, actions a
    WHERE r.route_name = $1 AND a.action_name = $2
  `, routeName, actionName).Scan(&routeID, &actionID)
	if err == pgx.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM admin_access_requests WHERE route_id = $1 AND action_id = $2 AND status = 'pending'`,
		routeID, actionID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM admin_route_actions WHERE route_id = $1 AND action_id = $2`,
		routeID, actionID); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM route_actions WHERE route_id = $1 AND action_id = $2`,
		routeID, actionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return tx.Commit(ctx)
}

func (s *Store) ActionsForRoute(ctx context.Context, routeName string) ([]string, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `SELECT COUNT(1) FROM routes WHERE route_name = $1`, routeName).Scan(&count); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrNotFound
	}

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

	actions := []string{}
	for rows.Next() {
		var action string
		if err := rows.Scan(&action); err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
