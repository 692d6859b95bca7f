// Package internal provides the core types and implementation for portal.
//
// This package is internal and should not be used directly. Import
// "github.com/dmitrymomot/portal" instead, which re-exports the public API.
//
// # Core Types
//
//   - Portal: bootstrap state shared by all requests, the chi router and the server lifecycle
//   - Scope: the state of one request, created by Portal.Middleware
//   - CursorContext: the ambient item and the snapshot stack loops save it on
//   - Loops, Loop: named loops over a content.Provider in two flavors
//   - Zones, Zone: memoized classification of the resolved request
//   - Routes, RouteMatch: virtual routes claiming path prefixes
//   - Theme: html/template pages and templ components rendering a Scope
//
// # Request Flow
//
// Portal.Middleware builds a Scope for every request and stores it in the
// request context. The site handler classifies the zone and picks the theme
// page for it. When there is none, or the request was not found, the matched
// virtual route and the template filters may supply one. The page renders
// through templ. Template funcs open loops when ranged over; a loop restores
// the ambient item it found when it ends or is broken out of.
//
// # Concurrency
//
// Portal is immutable after New. A Scope and everything it owns belong to one
// request and are not safe for concurrent use.
package internal
