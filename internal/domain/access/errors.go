package access

import "errors"

var (
	// ErrAlreadyHandled means the request was not pending when the
	// decision arrived, or does not exist at all. The two cases are
	// deliberately indistinguishable to the caller.
	ErrAlreadyHandled = errors.New("request not found or already handled")

	// ErrUnknownRouteAction means the route/action pair is not in the
	// catalog, so no grant may reference it.
	ErrUnknownRouteAction = errors.New("route/action pair is not cataloged")

	ErrInvalidDecision = errors.New("decision must be approve or reject")
)
