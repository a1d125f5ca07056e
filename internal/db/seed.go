package db

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"staffcore/internal/auth"
	"staffcore/internal/platform/config"
)

// DefaultCatalog lists the protectable routes and the actions each one
// supports. Seeding only ever adds; operator changes through the catalog
// API are never overwritten.
var DefaultCatalog = map[string][]string{
	"manage_routes":       {"create", "view", "update", "delete"},
	"manage_actions":      {"create", "view", "update", "delete"},
	"route_associations":  {"create", "view", "delete"},
	"admin_permissions":   {"view"},
	"grant_access":        {"grant_access"},
	"remove_access":       {"remove_access"},
	"review_requests":     {"view", "approve", "reject"},
	"admin_directory":     {"view"},
	"registrations":       {"view", "verify", "reject"},
	"employee_management": {"view", "create", "update", "delete_employee"},
	"admin_management":    {"delete_admin"},
	"team_management":     {"view", "create", "update", "delete_team"},
	"audit_trail":         {"view", "export"},
}

func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if err := ensureCatalog(ctx, pool); err != nil {
		return err
	}

	if cfg.SeedSuperAdminEmail != "" {
		if err := ensureSuperAdmin(ctx, pool, cfg.SeedSuperAdminEmail, cfg.SeedSuperAdminPassword); err != nil {
			return err
		}
	}

	return nil
}

func ensureCatalog(ctx context.Context, pool *pgxpool.Pool) error {
	for routeName, actionNames := range DefaultCatalog {
		var routeID string
		err := pool.QueryRow(ctx, "SELECT id FROM routes WHERE route_name = $1", routeName).Scan(&routeID)
		if err != nil {
			err = pool.QueryRow(ctx, "INSERT INTO routes (route_name) VALUES ($1) RETURNING id", routeName).Scan(&routeID)
			if err != nil {
				return err
			}
		}

		for _, actionName := range actionNames {
			var actionID string
			err := pool.QueryRow(ctx, "SELECT id FROM actions WHERE action_name = $1", actionName).Scan(&actionID)
			if err != nil {
				err = pool.QueryRow(ctx, "INSERT INTO actions (action_name) VALUES ($1) RETURNING id", actionName).Scan(&actionID)
				if err != nil {
					return err
				}
			}

			if _, err := pool.Exec(ctx, `
        INSERT INTO route_actions (route_id, action_id)
        VALUES ($1, $2)
        ON CONFLICT (route_id, action_id) DO NOTHING
      `, routeID, actionID); err != nil {
				return err
			}
		}
	}
	return nil
}

func ensureSuperAdmin(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	var count int
	if err := pool.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM admins adm
    JOIN persons p ON p.id = adm.person_id
    WHERE p.email = $1
  `, email).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var personID string
	if err := tx.QueryRow(ctx, `
    INSERT INTO persons (email, first_name, last_name)
    VALUES ($1, 'System', 'Administrator')
    ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
    RETURNING id
  `, email).Scan(&personID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
    INSERT INTO admins (person_id, password_hash, role, verified)
    VALUES ($1, $2, $3, true)
  `, personID, hash, auth.RoleSuperAdmin); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	slog.Info("seeded super admin", "email", email)
	return nil
}
