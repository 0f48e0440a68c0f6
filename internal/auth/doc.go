// Package auth provides authentication for the coaching platform.
//
// Accounts live in the local database with Argon2id password hashing.
// Authorization is a two-tier model: the coach holds the admin flag and
// manages clients, automations and homework; clients reach only their
// own portal data.
//
// Fiber middleware is provided for route protection:
//   - RequireAuth: any signed-in account
//   - RequireAdmin: the coach only
package auth
