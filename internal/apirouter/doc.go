// Package apirouter decides which backend serves an /api request and falls back to the other one on failure.
//
// The dashboard API is served by two implementations:
//   - the primary ("go") backend, which implements a growing subset of the endpoints
//   - the secondary ("legacy") backend, which implements all of them
//
// The Table lists the endpoints the primary implements. It is a static lookup table scanned in order,
// first match wins.
//
// # Selection
//
// Router.Plan returns the ordered backends to try for a request. In auto mode an endpoint found in the table
// goes to the primary first, anything else goes straight to the secondary. The primary and secondary modes
// force the choice (used for per-tenant pilots and for debugging).
//
// # Fallback
//
// Router.Do tries the planned backends in order. A transport error or a 404, 501, 502, 503 or 504 from
// the primary moves on to the secondary. POST and PATCH requests are only retried on 404/501 (the request
// was not processed) or when the caller supplied an Idempotency-Key header.
//
// Repeated primary failures mark the primary unhealthy for a cooldown period so that auto mode stops
// paying the failed round trip on every request.
package apirouter
