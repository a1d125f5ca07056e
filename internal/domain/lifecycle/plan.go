// Package lifecycle removes employees, admins, and teams together with
// every row that references them. Each entity has a fixed, ordered plan
// of parameterized statements; nothing about the cascade is assembled
// from request input.
package lifecycle

// Step is one statement in a cascade. SQL takes the root entity id as $1.
type Step struct {
	// Table is the table the step touches, used for coverage checks
	// and progress reporting.
	Table string
	SQL   string
}

// Check counts rows that would block a non-forced delete.
type Check struct {
	Table       string
	Description string
	SQL         string
}

// Plan is the complete cascade for one entity type. Steps run in order
// inside a single transaction; the final step removes the root row.
type Plan struct {
	Entity string
	Root   string
	// Lookup resolves the root row's person_id, or proves the row exists.
	Lookup string
	Steps  []Step
}

// Covered returns every table the plan touches, including the root.
func (p Plan) Covered() map[string]struct{} {
	covered := make(map[string]struct{}, len(p.Steps)+1)
	covered[p.Root] = struct{}{}
	for _, step := range p.Steps {
		covered[step.Table] = struct{}{}
	}
	return covered
}

// EmployeePlan removes an employee and, when the same person also holds
// an admin account, that admin's grant and request rows as well. Child
// rows go before their parents: breaks before attendance logs, goal
// children before goals, and the employee row last.
var EmployeePlan = Plan{
	Entity: "employee",
	Root:   "employees",
	Lookup: `SELECT person_id FROM employees WHERE id = $1`,
	Steps: []Step{
		{Table: "teams", SQL: `UPDATE teams SET team_lead_employee_id = NULL WHERE team_lead_employee_id = $1`},
		{Table: "employee_breaks", SQL: `DELETE FROM employee_breaks WHERE employee_id = $1`},
		{Table: "attendance_logs", SQL: `DELETE FROM attendance_logs WHERE employee_id = $1`},
		{Table: "goal_action_plans", SQL: `DELETE FROM goal_action_plans WHERE goal_id IN (SELECT id FROM goals WHERE employee_id = $1)`},
		{Table: "goal_evaluations", SQL: `DELETE FROM goal_evaluations WHERE goal_id IN (SELECT id FROM goals WHERE employee_id = $1)`},
		{Table: "badge_assignments", SQL: `DELETE FROM badge_assignments WHERE employee_id = $1`},
		{Table: "bonuses_incentives", SQL: `DELETE FROM bonuses_incentives WHERE employee_id = $1`},
		{Table: "expense_claims", SQL: `DELETE FROM expense_claims WHERE employee_id = $1`},
		{Table: "goal_progress", SQL: `DELETE FROM goal_progress WHERE employee_id = $1`},
		{Table: "goal_progress_notes", SQL: `DELETE FROM goal_progress_notes WHERE employee_id = $1`},
		{Table: "goal_progress_percentage", SQL: `DELETE FROM goal_progress_percentage WHERE employee_id = $1`},
		{Table: "survey_responses", SQL: `DELETE FROM survey_responses WHERE employee_id = $1`},
		{Table: "savings_plans", SQL: `DELETE FROM savings_plans WHERE employee_id = $1`},
		{Table: "assessment_answers", SQL: `DELETE FROM assessment_answers WHERE employee_id = $1`},
		{Table: "survey_assignments", SQL: `DELETE FROM survey_assignments WHERE employee_id = $1`},
		{Table: "ticket_responses", SQL: `DELETE FROM ticket_responses WHERE employee_id = $1`},
		{Table: "goals", SQL: `DELETE FROM goals WHERE employee_id = $1`},
		{Table: "team_members", SQL: `DELETE FROM team_members WHERE employee_id = $1`},
		{Table: "payroll", SQL: `DELETE FROM payroll WHERE employee_id = $1`},
		{Table: "tax_records", SQL: `DELETE FROM tax_records WHERE employee_id = $1`},
		{Table: "feedback_requests", SQL: `DELETE FROM feedback_requests WHERE employee_id = $1`},
		{Table: "alert_reads", SQL: `DELETE FROM alert_reads WHERE alert_id IN (SELECT id FROM alerts WHERE employee_id = $1)`},
		{Table: "alerts", SQL: `DELETE FROM alerts WHERE employee_id = $1`},
		{Table: "meetings", SQL: `DELETE FROM meetings WHERE employee_id = $1`},
		{Table: "announcements", SQL: `DELETE FROM announcements WHERE employee_id = $1`},
		{Table: "bank_details", SQL: `DELETE FROM bank_details WHERE employee_id = $1`},

		// The same person may also hold an admin account; its grant,
		// request, and membership rows go with the employee.
		{Table: "teams", SQL: `UPDATE teams SET team_lead_admin_id = NULL WHERE team_lead_admin_id IN (
        SELECT a.id FROM admins a JOIN employees e ON e.person_id = a.person_id WHERE e.id = $1)`},
		{Table: "team_members", SQL: `DELETE FROM team_members WHERE admin_id IN (
        SELECT a.id FROM admins a JOIN employees e ON e.person_id = a.person_id WHERE e.id = $1)`},
		{Table: "admin_route_actions", SQL: `DELETE FROM admin_route_actions WHERE admin_id IN (
        SELECT a.id FROM admins a JOIN employees e ON e.person_id = a.person_id WHERE e.id = $1)`},
		{Table: "admin_access_requests", SQL: `DELETE FROM admin_access_requests WHERE admin_id IN (
        SELECT a.id FROM admins a JOIN employees e ON e.person_id = a.person_id WHERE e.id = $1)`},
		{Table: "two_factor_verifications", SQL: `DELETE FROM two_factor_verifications WHERE admin_id IN (
        SELECT a.id FROM admins a JOIN employees e ON e.person_id = a.person_id WHERE e.id = $1)`},
		{Table: "admins", SQL: `DELETE FROM admins WHERE person_id IN (SELECT person_id FROM employees WHERE id = $1)`},

		{Table: "employees", SQL: `DELETE FROM employees WHERE id = $1`},
	},
}

// AdminPlan is the mirror image of the cross-identity half of
// EmployeePlan: the admin's own rows go first, then the employee record
// held by the same person with all of its dependents.
var AdminPlan = Plan{
	Entity: "admin",
	Root:   "admins",
	Lookup: `SELECT person_id FROM admins WHERE id = $1`,
	Steps: []Step{
		{Table: "teams", SQL: `UPDATE teams SET team_lead_admin_id = NULL WHERE team_lead_admin_id = $1`},
		{Table: "team_members", SQL: `DELETE FROM team_members WHERE admin_id = $1`},
		{Table: "admin_route_actions", SQL: `DELETE FROM admin_route_actions WHERE admin_id = $1`},
		{Table: "admin_access_requests", SQL: `DELETE FROM admin_access_requests WHERE admin_id = $1`},
		{Table: "two_factor_verifications", SQL: `DELETE FROM two_factor_verifications WHERE admin_id = $1`},

		{Table: "teams", SQL: `UPDATE teams SET team_lead_employee_id = NULL WHERE team_lead_employee_id IN (
        SELECT e.id FROM employees e JOIN admins a ON a.person_id = e.person_id WHERE a.id = $1)`},
		{Table: "employee_breaks", SQL: `DELETE FROM employee_breaks WHERE employee_id IN (
        SELECT e.id FROM employees e JOIN admins a ON a.person_id = e.person_id WHERE a.id = $1)`},
		{Table: "attendance_logs", SQL: `DELETE FROM attendance_logs WHERE employee_id IN (
        SELECT e.id FROM employees e JOIN admins a ON a.person_id = e.person_id WHERE a.id = $1)`},
		{Table: "goal_action_plans", SQL: `DELETE FROM goal_action_plans WHERE goal_id IN (
        SELECT g.id FROM goals g JOIN employees e ON e.id = g.employee_id JOIN admins a ON a.person_id = e.person_id WHERE a.id = $1)`},
		{Table: "goal_evaluations", SQL: `DELETE FROM goal_evaluations WHERE goal_id IN (
        SELECT g.id FROM goals g JOIN employees e ON e.id = g.employee_id JOIN admins a ON a.person_id = e.person_id WHERE a.id = $1)`},
		{Table: "badge_assignments", SQL: `DELETE FROM badge_assignments WHERE employee_id IN (
        SELECT e.id FROM employees e JOIN admins a ON a.person_id = e.person_id WHERE a.id = $1)`},
		{Table: "bonuses_incentives", SQL: `DELETE FROM bonuses_incentives WHERE employee_id IN (
        SELECT e.id FROM employees e JOIN admins a ON a.person_id = e.person_id WHERE a.id = $1)`},
		{Table: "expense_claims", SQL: `DELETE FROM expense_claims WHERE employee_id IN (
        SELECT e.id FROM employees e JOIN admins a ON a.person_id = e.person_id WHERE a.id = $1)`},
		{Table: "goal_progress", SQL: `DELETE FROM goal_progress WHERE employee_id IN (
        SELECT e.id FROM employees e JOIN admins a ON a.person_id = e.person_id WHERE a.id = $1)`},
		{Table: "goal_progress_notes", SQL: `DELETE FROM goal_progress_notes WHERE employee_id IN (
        SELECT e.id FROM employees e JOIN admins a ON a.person_id = e.person_id WHERE a.id = $1)`},
		{Table: "goal_progress_percentage", SQL: `DELETE FROM goal_progress_percentage WHERE employee_id IN (
        SELECT e.id FROM employees e JOIN admins a ON a.person_id = e.person_id WHERE a.id = $1)`},
		{Table: "survey_responses", SQL: `DELETE FROM survey_responses WHERE employee_id IN (
        SELECT e.id FROM employees e JOIN admins a ON a.person_id = e.person_id WHERE a.id = $1)`},
		{Table: "savings_plans", SQL: `DELETE FROM savings_plans WHERE employee_id IN (
        SELECT e.id FROM employees e JOIN admins a ON a.person_id = e.person_id WHERE a.id = $1)`},
		{Table: "assessment_answers", SQL: `DELETE FROM assessment_answers WHERE employee_id IN (
        SELECT e.id FROM employees e JOIN admins a ON a.person_id = e.person_id WHERE a.id = $1)`},
		{Table: "survey_assignments", SQL: `DELETE FROM survey_assignments WHERE employee_id IN (
        SELECT e.id FROM employees e JOIN admins a ON a.person_id = e.person_id WHERE a.id = $1)`},
		{Table: "ticket_responses", SQL: `DELETE FROM ticket_responses WHERE employee_id IN (
        SELECT e.id FROM employees e JOIN admins a ON a.person_id = e.person_id WHERE a.id = $1)`},
		{Table: "goals", SQL: `DELETE FROM goals WHERE employee_id IN (
        SELECT e.id FROM employees e JOIN admins a ON a.person_id = e.person_id WHERE a.id = $1)`},
		{Table: "team_members", SQL: `DELETE FROM team_members WHERE employee_id IN (
        SELECT e.id FROM employees e JOIN admins a ON a.person_id = e.person_id WHERE a.id = $1)`},
		{Table: "payroll", SQL: `DELETE FROM payroll WHERE employee_id IN (
        SELECT e.id FROM employees e JOIN admins a ON a.person_id = e.person_id WHERE a.id = $1)`},
		{Table: "tax_records", SQL: `DELETE FROM tax_records WHERE employee_id IN (
        SELECT e.id FROM employees e JOIN admins a ON a.person_id = e.person_id WHERE a.id = $1)`},
		{Table: "feedback_requests", SQL: `DELETE FROM feedback_requests WHERE employee_id IN (
        SELECT e.id FROM employees e JOIN admins a ON a.person_id = e.person_id WHERE a.id = $1)`},
		{Table: "alert_reads", SQL: `DELETE FROM alert_reads WHERE alert_id IN (
        SELECT al.id FROM alerts al JOIN employees e ON e.id = al.employee_id JOIN admins a ON a.person_id = e.person_id WHERE a.id = $1)`},
		{Table: "alerts", SQL: `DELETE FROM alerts WHERE employee_id IN (
        SELECT e.id FROM employees e JOIN admins a ON a.person_id = e.person_id WHERE a.id = $1)`},
		{Table: "meetings", SQL: `DELETE FROM meetings WHERE employee_id IN (
        SELECT e.id FROM employees e JOIN admins a ON a.person_id = e.person_id WHERE a.id = $1)`},
		{Table: "announcements", SQL: `DELETE FROM announcements WHERE employee_id IN (
        SELECT e.id FROM employees e JOIN admins a ON a.person_id = e.person_id WHERE a.id = $1)`},
		{Table: "bank_details", SQL: `DELETE FROM bank_details WHERE employee_id IN (
        SELECT e.id FROM employees e JOIN admins a ON a.person_id = e.person_id WHERE a.id = $1)`},
		{Table: "employees", SQL: `DELETE FROM employees WHERE person_id IN (SELECT person_id FROM admins WHERE id = $1)`},

		{Table: "admins", SQL: `DELETE FROM admins WHERE id = $1`},
	},
}

// TeamPlan removes a team. Members are unassigned, not deleted; alerts
// and goals take their child rows with them.
var TeamPlan = Plan{
	Entity: "team",
	Root:   "teams",
	Steps: []Step{
		{Table: "goal_progress", SQL: `DELETE FROM goal_progress WHERE team_id = $1`},
		{Table: "goal_progress_notes", SQL: `DELETE FROM goal_progress_notes WHERE team_id = $1`},
		{Table: "goal_progress_percentage", SQL: `DELETE FROM goal_progress_percentage WHERE team_id = $1`},
		{Table: "badge_assignments", SQL: `DELETE FROM badge_assignments WHERE team_id = $1`},
		{Table: "team_members", SQL: `DELETE FROM team_members WHERE team_id = $1`},
		{Table: "employees", SQL: `UPDATE employees SET team_id = NULL WHERE team_id = $1`},
		{Table: "event_participants", SQL: `DELETE FROM event_participants WHERE team_id = $1`},
		{Table: "alert_reads", SQL: `DELETE FROM alert_reads WHERE alert_id IN (SELECT id FROM alerts WHERE team_id = $1)`},
		{Table: "alerts", SQL: `DELETE FROM alerts WHERE team_id = $1`},
		{Table: "goal_action_plans", SQL: `DELETE FROM goal_action_plans WHERE goal_id IN (SELECT id FROM goals WHERE team_id = $1)`},
		{Table: "goal_evaluations", SQL: `DELETE FROM goal_evaluations WHERE goal_id IN (SELECT id FROM goals WHERE team_id = $1)`},
		{Table: "goals", SQL: `DELETE FROM goals WHERE team_id = $1`},
		{Table: "feedback_requests", SQL: `DELETE FROM feedback_requests WHERE team_id = $1`},
		{Table: "announcements", SQL: `DELETE FROM announcements WHERE team_id = $1`},
		{Table: "meetings", SQL: `DELETE FROM meetings WHERE team_id = $1`},
		{Table: "tasks", SQL: `DELETE FROM tasks WHERE team_id = $1`},
		{Table: "teams", SQL: `DELETE FROM teams WHERE id = $1`},
	},
}

// TeamBlockingChecks list what stops a non-forced team delete. Each count
// takes the team id as $1.
var TeamBlockingChecks = []Check{
	{Table: "goal_progress", Description: "goal progress records", SQL: `SELECT COUNT(1) FROM goal_progress WHERE team_id = $1`},
	{Table: "goal_progress_notes", Description: "goal progress notes", SQL: `SELECT COUNT(1) FROM goal_progress_notes WHERE team_id = $1`},
	{Table: "goal_progress_percentage", Description: "goal progress percentages", SQL: `SELECT COUNT(1) FROM goal_progress_percentage WHERE team_id = $1`},
	{Table: "badge_assignments", Description: "badge assignments", SQL: `SELECT COUNT(1) FROM badge_assignments WHERE team_id = $1`},
	{Table: "employees", Description: "employees assigned", SQL: `SELECT COUNT(1) FROM employees WHERE team_id = $1`},
	{Table: "team_members", Description: "team members", SQL: `SELECT COUNT(1) FROM team_members WHERE team_id = $1`},
	{Table: "alerts", Description: "alerts", SQL: `SELECT COUNT(1) FROM alerts WHERE team_id = $1`},
	{Table: "goals", Description: "goals", SQL: `SELECT COUNT(1) FROM goals WHERE team_id = $1`},
	{Table: "event_participants", Description: "event participants", SQL: `SELECT COUNT(1) FROM event_participants WHERE team_id = $1`},
}
