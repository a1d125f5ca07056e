package directory

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

const adminColumns = `
    adm.id, adm.person_id, p.email, p.first_name, p.last_name,
    adm.role, adm.verified, adm.password_hash, adm.totp_secret, adm.created_at`

// RegisterAdmin creates an unverified admin account. The person record is
// reused when the email already belongs to one, so an existing employee
// can register as an admin without forking their identity.
func (s *Store) RegisterAdmin(ctx context.Context, email, firstName, lastName, passwordHash, role string) (Admin, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Admin{}, err
	}
	defer tx.Rollback(ctx)

	personID, err := upsertPerson(ctx, tx, email, firstName, lastName)
	if err != nil {
		return Admin{}, err
	}

	var adminID string
	err = tx.QueryRow(ctx, `
    INSERT INTO admins (person_id, password_hash, role, verified)
    VALUES ($1, $2, $3, false)
    RETURNING id
  `, personID, passwordHash, role).Scan(&adminID)
	if isUniqueViolation(err) {
		return Admin{}, ErrDuplicate
	}
	if err != nil {
		return Admin{}, err
	}

	admin, err := adminByID(ctx, tx, adminID)
	if err != nil {
		return Admin{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Admin{}, err
	}
	return admin, nil
}

func (s *Store) AdminByEmail(ctx context.Context, email string) (Admin, error) {
	var admin Admin
	err := s.DB.QueryRow(ctx, `
    SELECT `+adminColumns+`
    FROM admins adm
    JOIN persons p ON p.id = adm.person_id
    WHERE p.email = $1
  `, email).Scan(
		&admin.ID, &admin.PersonID, &admin.Email, &admin.FirstName, &admin.LastName,
		&admin.Role, &admin.Verified, &admin.PasswordHash, &admin.TOTPSecret, &admin.CreatedAt)
	if err == pgx.ErrNoRows {
		return Admin{}, ErrNotFound
	}
	if err != nil {
		return Admin{}, err
	}
	return admin, nil
}

func (s *Store) AdminByID(ctx context.Context, adminID string) (Admin, error) {
	admin, err := adminByID(ctx, s.DB, adminID)
	if err == pgx.ErrNoRows {
		return Admin{}, ErrNotFound
	}
	return admin, err
}

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func adminByID(ctx context.Context, q queryer, adminID string) (Admin, error) {
	var admin Admin
	err := q.QueryRow(ctx, `
    SELECT `+adminColumns+`
    FROM admins adm
    JOIN persons p ON p.id = adm.person_id
    WHERE adm.id = $1
  `, adminID).Scan(
		&admin.ID, &admin.PersonID, &admin.Email, &admin.FirstName, &admin.LastName,
		&admin.Role, &admin.Verified, &admin.PasswordHash, &admin.TOTPSecret, &admin.CreatedAt)
	return admin, err
}

func (s *Store) ListAdmins(ctx context.Context) ([]Admin, error) {
	return s.listAdmins(ctx, `WHERE adm.verified = true`)
}

func (s *Store) PendingAdmins(ctx context.Context) ([]Admin, error) {
	return s.listAdmins(ctx, `WHERE adm.verified = false`)
}

func (s *Store) listAdmins(ctx context.Context, where string) ([]Admin, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+adminColumns+`
    FROM admins adm
    JOIN persons p ON p.id = adm.person_id
    `+where+`
    ORDER BY p.email
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []Admin
	for rows.Next() {
		var admin Admin
		if err := rows.Scan(
			&admin.ID, &admin.PersonID, &admin.Email, &admin.FirstName, &admin.LastName,
			&admin.Role, &admin.Verified, &admin.PasswordHash, &admin.TOTPSecret, &admin.CreatedAt); err != nil {
			return nil, err
		}
		admins = append(admins, admin)
	}
	return admins, rows.Err()
}

// VerifyAdmin accepts a pending registration, assigning the final role.
func (s *Store) VerifyAdmin(ctx context.Context, adminID, role string) (Admin, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE admins SET verified = true, role = $2 WHERE id = $1 AND verified = false
  `, adminID, role)
	if err != nil {
		return Admin{}, err
	}
	if tag.RowsAffected() == 0 {
		return Admin{}, ErrNotFound
	}
	return s.AdminByID(ctx, adminID)
}

// RejectAdmin removes an unverified registration. The person row goes too
// unless an employee record still references it.
func (s *Store) RejectAdmin(ctx context.Context, adminID string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var personID string
	err = tx.QueryRow(ctx, `SELECT person_id FROM admins WHERE id = $1 AND verified = false`, adminID).Scan(&personID)
	if err == pgx.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM admins WHERE id = $1`, adminID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
    DELETE FROM persons p
    WHERE p.id = $1
      AND NOT EXISTS (SELECT 1 FROM employees WHERE person_id = p.id)
      AND NOT EXISTS (SELECT 1 FROM admins WHERE person_id = p.id)
  `, personID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *Store) SetTOTPSecret(ctx context.Context, adminID string, encryptedSecret []byte) error {
	tag, err := s.DB.Exec(ctx, `UPDATE admins SET totp_secret = $2 WHERE id = $1`, adminID, encryptedSecret)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordTwoFactorVerification notes a successful TOTP check.
func (s *Store) RecordTwoFactorVerification(ctx context.Context, adminID string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO two_factor_verifications (admin_id) VALUES ($1)
  `, adminID)
	return err
}

func (s *Store) CreateEmployee(ctx context.Context, email, firstName, lastName, position string) (Employee, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Employee{}, err
	}
	defer tx.Rollback(ctx)

	personID, err := upsertPerson(ctx, tx, email, firstName, lastName)
	if err != nil {
		return Employee{}, err
	}

	var emp Employee
	err = tx.QueryRow(ctx, `
    INSERT INTO employees (person_id, position)
    VALUES ($1, $2)
    RETURNING id, person_id, position, status, created_at
  `, personID, position).Scan(&emp.ID, &emp.PersonID, &emp.Position, &emp.Status, &emp.CreatedAt)
	if isUniqueViolation(err) {
		return Employee{}, ErrDuplicate
	}
	if err != nil {
		return Employee{}, err
	}
	emp.Email = email
	emp.FirstName = firstName
	emp.LastName = lastName

	if err := tx.Commit(ctx); err != nil {
		return Employee{}, err
	}
	return emp, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT e.id, e.person_id, p.email, p.first_name, p.last_name, e.position, e.team_id,
           e.status, e.date_terminated, e.created_at
    FROM employees e
    JOIN persons p ON p.id = e.person_id
    ORDER BY p.email
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var emp Employee
		if err := rows.Scan(&emp.ID, &emp.PersonID, &emp.Email, &emp.FirstName, &emp.LastName,
			&emp.Position, &emp.TeamID, &emp.Status, &emp.DateTerminated, &emp.CreatedAt); err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// SetEmployeeStatus applies a soft status change. Terminating stamps the
// termination date; moving back to active or inactive clears it.
func (s *Store) SetEmployeeStatus(ctx context.Context, employeeID, status string) (Employee, error) {
	var emp Employee
	err := s.DB.QueryRow(ctx, `
    UPDATE employees e SET
      status = $2,
      date_terminated = CASE WHEN $2 = 'terminated' THEN now() ELSE NULL END
    FROM persons p
    WHERE e.id = $1 AND p.id = e.person_id
    RETURNING e.id, e.person_id, p.email, p.first_name, p.last_name, e.position, e.team_id,
              e.status, e.date_terminated, e.created_at
  `, employeeID, status).Scan(&emp.ID, &emp.PersonID, &emp.Email, &emp.FirstName, &emp.LastName,
		&emp.Position, &emp.TeamID, &emp.Status, &emp.DateTerminated, &emp.CreatedAt)
	if err == pgx.ErrNoRows {
		return Employee{}, ErrNotFound
	}
	if err != nil {
		return Employee{}, err
	}
	return emp, nil
}

func (s *Store) CreateTeam(ctx context.Context, name string) (Team, error) {
	var team Team
	err := s.DB.QueryRow(ctx, `
    INSERT INTO teams (name) VALUES ($1)
    RETURNING id, name, created_at
  `, name).Scan(&team.ID, &team.Name, &team.CreatedAt)
	if isUniqueViolation(err) {
		return Team{}, ErrDuplicate
	}
	if err != nil {
		return Team{}, err
	}
	return team, nil
}

func (s *Store) ListTeams(ctx context.Context) ([]Team, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, team_lead_admin_id, team_lead_employee_id, created_at
    FROM teams ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		var team Team
		if err := rows.Scan(&team.ID, &team.Name, &team.TeamLeadAdminID, &team.TeamLeadEmployeeID, &team.CreatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (s *Store) AddTeamMember(ctx context.Context, teamID, employeeID string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO team_members (team_id, employee_id)
    VALUES ($1, $2)
    ON CONFLICT (team_id, employee_id) DO NOTHING
  `, teamID, employeeID)
	return err
}

func upsertPerson(ctx context.Context, tx pgx.Tx, email, firstName, lastName string) (string, error) {
	var personID string
	err := tx.QueryRow(ctx, `
    INSERT INTO persons (email, first_name, last_name)
    VALUES ($1, $2, $3)
    ON CONFLICT (email) DO UPDATE SET first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name
    RETURNING id
  `, email, firstName, lastName).Scan(&personID)
	return personID, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
