package lifecycle

import (
	"strings"
	"testing"
)

func stepIndex(t *testing.T, plan Plan, table string) int {
	t.Helper()
	for i, step := range plan.Steps {
		if step.Table == table {
			return i
		}
	}
	t.Fatalf("plan %s has no step for %s", plan.Entity, table)
	return -1
}

func TestEmployeePlanChildTablesBeforeParents(t *testing.T) {
	ordered := [][2]string{
		{"employee_breaks", "attendance_logs"},
		{"goal_action_plans", "goals"},
		{"goal_evaluations", "goals"},
		{"alert_reads", "alerts"},
		{"admins", "employees"},
	}
	for _, pair := range ordered {
		if stepIndex(t, EmployeePlan, pair[0]) > stepIndex(t, EmployeePlan, pair[1]) {
			t.Errorf("%s must be deleted before %s", pair[0], pair[1])
		}
	}
}

func TestPlansEndWithRootDeletion(t *testing.T) {
	for _, plan := range []Plan{EmployeePlan, AdminPlan, TeamPlan} {
		last := plan.Steps[len(plan.Steps)-1]
		if last.Table != plan.Root {
			t.Errorf("plan %s: last step touches %s, want root %s", plan.Entity, last.Table, plan.Root)
		}
		if !strings.HasPrefix(strings.TrimSpace(last.SQL), "DELETE FROM "+plan.Root) {
			t.Errorf("plan %s: last step must delete the root row: %s", plan.Entity, last.SQL)
		}
	}
}

func TestPersonPlansCarryLookup(t *testing.T) {
	for _, plan := range []Plan{EmployeePlan, AdminPlan} {
		if !strings.Contains(plan.Lookup, "person_id") || !strings.Contains(plan.Lookup, "$1") {
			t.Errorf("plan %s lookup must resolve person_id by bound id: %q", plan.Entity, plan.Lookup)
		}
	}
}

func TestPlanStepsUseOnlyBoundParameters(t *testing.T) {
	for _, plan := range []Plan{EmployeePlan, AdminPlan, TeamPlan} {
		for _, step := range plan.Steps {
			if !strings.Contains(step.SQL, "$1") {
				t.Errorf("plan %s step %s does not bind the entity id", plan.Entity, step.Table)
			}
			if strings.Contains(step.SQL, "%s") || strings.Contains(step.SQL, "%d") {
				t.Errorf("plan %s step %s interpolates identifiers", plan.Entity, step.Table)
			}
		}
	}
}

func TestTeamPlanUnassignsRatherThanDeletesEmployees(t *testing.T) {
	idx := stepIndex(t, TeamPlan, "employees")
	sql := strings.TrimSpace(TeamPlan.Steps[idx].SQL)
	if !strings.HasPrefix(sql, "UPDATE employees SET team_id = NULL") {
		t.Fatalf("team delete must unassign employees, got: %s", sql)
	}
}

func TestTeamBlockingChecksMatchPlanCoverage(t *testing.T) {
	covered := TeamPlan.Covered()
	for _, check := range TeamBlockingChecks {
		if _, ok := covered[check.Table]; !ok {
			t.Errorf("blocking check table %s is not handled by the forced cascade", check.Table)
		}
	}
}

func TestAdminPlanRemovesGrantsAndRequests(t *testing.T) {
	for _, table := range []string{"admin_route_actions", "admin_access_requests", "two_factor_verifications"} {
		stepIndex(t, AdminPlan, table)
	}
}
