package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("entity not found")
)

const foreignKeyViolation = "23503"

// BlockedError reports referencing rows that prevent a delete, either
// found up front by a non-forced team delete or raised by the database
// when a cascade misses a table.
type BlockedError struct {
	Dependencies []Dependency
}

type Dependency struct {
	Table       string `json:"table"`
	Count       int    `json:"count"`
	Description string `json:"description"`
}

func (e *BlockedError) Error() string {
	if len(e.Dependencies) == 1 {
		return fmt.Sprintf("delete blocked by %s", e.Dependencies[0].Description)
	}
	return fmt.Sprintf("delete blocked by %d dependent record sets", len(e.Dependencies))
}

// TeamDeleteResult reports what a forced team delete removed per table.
type TeamDeleteResult struct {
	TeamID   string         `json:"teamId"`
	TeamName string         `json:"teamName"`
	Removed  map[string]int `json:"removed,omitempty"`
}

type Service struct {
	DB *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

// DeleteEmployee runs the employee cascade in one transaction. The person
// record is removed too once the last account referencing it is gone.
func (s *Service) DeleteEmployee(ctx context.Context, employeeID string) error {
	return s.deleteEntity(ctx, EmployeePlan, employeeID)
}

// DeleteAdmin runs the admin cascade, including the employee record held
// by the same person.
func (s *Service) DeleteAdmin(ctx context.Context, adminID string) error {
	return s.deleteEntity(ctx, AdminPlan, adminID)
}

func (s *Service) deleteEntity(ctx context.Context, plan Plan, entityID string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var personID *string
	if err := tx.QueryRow(ctx, plan.Lookup, entityID).Scan(&personID); err == pgx.ErrNoRows {
		return ErrNotFound
	} else if err != nil {
		return err
	}

	for _, step := range plan.Steps {
		if _, err := tx.Exec(ctx, step.SQL, entityID); err != nil {
			return wrapFKViolation(err)
		}
	}

	// The person row goes once no account references it anymore.
	if personID != nil {
		if _, err := tx.Exec(ctx, `
      DELETE FROM persons p
      WHERE p.id = $1
        AND NOT EXISTS (SELECT 1 FROM admins WHERE person_id = p.id)
        AND NOT EXISTS (SELECT 1 FROM employees WHERE person_id = p.id)
    `, *personID); err != nil {
			return wrapFKViolation(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	slog.Info("entity deleted", "entity", plan.Entity, "id", entityID)
	return nil
}

// DeleteTeam removes a team. Without force it refuses when dependent rows
// exist and reports them; with force it runs the full cascade.
func (s *Service) DeleteTeam(ctx context.Context, teamID string, force bool) (TeamDeleteResult, error) {
	var teamName string
	err := s.DB.QueryRow(ctx, `SELECT name FROM teams WHERE id = $1`, teamID).Scan(&teamName)
	if err == pgx.ErrNoRows {
		return TeamDeleteResult{}, ErrNotFound
	}
	if err != nil {
		return TeamDeleteResult{}, err
	}
	result := TeamDeleteResult{TeamID: teamID, TeamName: teamName}

	if !force {
		deps, err := s.teamDependencies(ctx, teamID)
		if err != nil {
			return TeamDeleteResult{}, err
		}
		if len(deps) > 0 {
			return TeamDeleteResult{}, &BlockedError{Dependencies: deps}
		}
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return TeamDeleteResult{}, err
	}
	defer tx.Rollback(ctx)

	removed := map[string]int{}
	for _, step := range TeamPlan.Steps {
		tag, err := tx.Exec(ctx, step.SQL, teamID)
		if err != nil {
			return TeamDeleteResult{}, wrapFKViolation(err)
		}
		if n := int(tag.RowsAffected()); n > 0 && step.Table != TeamPlan.Root {
			removed[step.Table] += n
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return TeamDeleteResult{}, err
	}
	if len(removed) > 0 {
		result.Removed = removed
	}
	slog.Info("team deleted", "id", teamID, "name", teamName, "force", force)
	return result, nil
}

func (s *Service) teamDependencies(ctx context.Context, teamID string) ([]Dependency, error) {
	var deps []Dependency
	for _, check := range TeamBlockingChecks {
		var count int
		if err := s.DB.QueryRow(ctx, check.SQL, teamID).Scan(&count); err != nil {
			return nil, err
		}
		if count > 0 {
			deps = append(deps, Dependency{
				Table:       check.Table,
				Count:       count,
				Description: fmt.Sprintf("%d %s", count, check.Description),
			})
		}
	}
	return deps, nil
}

// VerifyCoverage compares each plan against the foreign keys the database
// actually holds and returns, per entity, the referencing tables the plan
// does not touch. Run at startup so a schema migration cannot silently
// leave a cascade incomplete.
func (s *Service) VerifyCoverage(ctx context.Context) (map[string][]string, error) {
	uncovered := map[string][]string{}
	for _, plan := range []Plan{EmployeePlan, AdminPlan, TeamPlan} {
		referencing, err := s.referencingTables(ctx, plan.Root)
		if err != nil {
			return nil, err
		}
		covered := plan.Covered()
		var missing []string
		for _, table := range referencing {
			if _, ok := covered[table]; !ok {
				missing = append(missing, table)
			}
		}
		if len(missing) > 0 {
			uncovered[plan.Entity] = missing
		}
	}
	return uncovered, nil
}

func (s *Service) referencingTables(ctx context.Context, table string) ([]string, error) {
	// Only NO ACTION / RESTRICT constraints can block a delete; ON DELETE
	// CASCADE and SET NULL take care of themselves.
	rows, err := s.DB.Query(ctx, `
    SELECT DISTINCT con.conrelid::regclass::text
    FROM pg_constraint con
    WHERE con.contype = 'f'
      AND con.confrelid = $1::regclass
      AND con.confdeltype IN ('a', 'r')
  `, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func wrapFKViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return &BlockedError{Dependencies: []Dependency{{
			Table:       pgErr.TableName,
			Count:       1,
			Description: fmt.Sprintf("rows in %s still reference this record", pgErr.TableName),
		}}}
	}
	return err
}
