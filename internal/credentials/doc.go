// Package credentials owns the WHOOP OAuth2 credential lifecycle: durable
// single-record storage of the access/refresh token pair and a manager that
// hands out non-expired access tokens, refreshing through the vendor's token
// endpoint when needed.
//
// Supports two storage backends with different security and deployment tradeoffs:
//   - File: Local filesystem storage with atomic writes and secure permissions
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//
// The manager is the single owner of the in-memory record; exactly one record
// is active per process. Refreshes are serialized, so concurrent callers that
// find an expired record share one refresh instead of racing the vendor's
// refresh-token rotation.
package credentials
