package access

import "time"

// MatchMode controls how a set of required actions is evaluated against
// an admin's grants.
type MatchMode string

const (
	// MatchAny allows the request when at least one required action is
	// granted on the route.
	MatchAny MatchMode = "any"
	// MatchAll requires every listed action to be granted.
	MatchAll MatchMode = "all"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// RoutePermissions is one route with the actions to grant or revoke on it.
type RoutePermissions struct {
	RouteName string   `json:"route"`
	Actions   []string `json:"actions"`
}

// RequestItem is a single route/action pair an admin asks access for.
type RequestItem struct {
	RouteName  string `json:"route"`
	ActionName string `json:"action"`
}

// Request is a pending or decided access request.
type Request struct {
	ID          string     `json:"id"`
	AdminID     string     `json:"adminId"`
	RouteName   string     `json:"route"`
	ActionName  string     `json:"action"`
	Status      string     `json:"status"`
	RequestedAt time.Time  `json:"requestedAt"`
	ReviewedAt  *time.Time `json:"reviewedAt,omitempty"`
	ReviewedBy  *string    `json:"reviewedBy,omitempty"`
}

// PendingRequest carries requester identity for the review queue.
type PendingRequest struct {
	Request
	AdminEmail string `json:"adminEmail"`
	AdminName  string `json:"adminName"`
}

// ReviewOutcome is returned after a decision so callers can audit and
// notify the requester.
type ReviewOutcome struct {
	RequestID  string `json:"requestId"`
	AdminID    string `json:"adminId"`
	AdminEmail string `json:"adminEmail"`
	RouteName  string `json:"route"`
	ActionName string `json:"action"`
	Status     string `json:"status"`
}

// RoutePermissionView splits a route's cataloged actions into those the
// admin already holds and those still available to grant.
type RoutePermissionView struct {
	RouteName string   `json:"route"`
	Available []string `json:"available"`
	Granted   []string `json:"granted"`
}
