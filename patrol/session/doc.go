// Package session keeps analysis sessions in memory.
//
// Sessions use 4-character hex IDs generated from crypto/rand. Lookups are
// case-insensitive. Nothing is written to disk; idle sessions are dropped by
// CleanupExpiredSessions.
package session
