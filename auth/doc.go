// Package auth provides account credentials for the directory: signup,
// login and bearer token verification.
//
// Passwords are stored as bcrypt hashes in a SQLite users table. Tokens are
// HS256 JWTs carrying the user id and expire after seven days. Verification
// re-reads the user so plan changes are visible immediately.
package auth
