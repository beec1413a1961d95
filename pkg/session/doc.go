// Package session ties configuration, the allow list and the connection
// manager together.
//
// A Gate is built once from a Config. Each call to Open checks a candidate
// URL against the allow list and, when it passes, starts a connection to the
// canonical form of that URL. The returned Session belongs to the caller,
// who must Close it; there is no registry of open sessions.
package session
