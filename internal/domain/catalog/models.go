package catalog

import "time"

// Route is a named protectable surface. Grants and access requests refer
// to routes by this name, never by URL path.
type Route struct {
	ID          string    `json:"id"`
	RouteName   string    `json:"routeName"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Action is a verb that can be associated with routes.
type Action struct {
	ID          string    `json:"id"`
	ActionName  string    `json:"actionName"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RouteWithActions is a route and its associated action names, used by
// catalog listings.
type RouteWithActions struct {
	Route
	Actions []string `json:"actions"`
}
