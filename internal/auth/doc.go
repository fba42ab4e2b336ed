// Package auth provides authentication for the Pitchside admin API.
//
// It implements a 2-tier role model (viewer → admin) with:
//   - Argon2id password hashing (OWASP 2025 recommendation)
//   - Short-lived JWT access tokens, validated by signature only
//
// Accounts are declared in configuration rather than a database: the admin
// surface exists to trigger refreshes and inspect component status, so a
// handful of operator accounts with pre-hashed passwords is enough. There
// is no self-service signup and no session storage to migrate.
package auth
