// Package auth resolves the acting user of a request from a session cookie
// and gates non-public routes behind it.
package auth
