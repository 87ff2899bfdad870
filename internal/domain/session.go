/**
 * @description
 * Core identity types for the session service. The PAN (primary account
 * number) doubles as both account identifier and bearer credential for all
 * account-scoped requests against the banking API.
 */
package domain

// Session is the client's current identity. A zero-value Session means no
// user is signed in.
type Session struct {
	PAN string `json:"pan"`
}

// IsAuthenticated reports whether the session carries a usable credential.
func (s Session) IsAuthenticated() bool {
	return s.PAN != ""
}
