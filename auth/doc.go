// Package auth implements signup, login, session lookup and logout on top
// of a userstore.Store.
//
// Passwords are never kept, only a digest of them. The default digest is an
// unsalted SHA-256 because that is the format existing stores were written
// with, changing it would lock every existing user out. Argon2id can be
// enabled for new accounts and both formats are accepted on login.
//
// Sessions are random opaque tokens kept in memory for as long as the
// process lives. There is no expiration, a restart logs everybody out.
//
// A session only holds the user id, the user itself is resolved on every
// lookup. If the user vanished from the store the session is stale and
// is treated exactly like an unknown token.
package auth
