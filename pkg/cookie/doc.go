// Package cookie signs and verifies cookie values with HMAC-SHA256.
//
// A portal does not log users in itself. The application that does writes the
// user id with [Manager.SetSigned]; the portal reads it back with
// [Manager.GetSigned] and rejects values that were tampered with:
//
//	m := cookie.New(cookie.WithSecret(os.Getenv("PORTAL_COOKIE_SECRET")))
//	_ = m.SetSigned(w, "portal_user", "42", 86400)
//	id, err := m.GetSigned(r, "portal_user")
package cookie
