package session

import "net/http"

// Guard protects page routes. An unauthenticated visitor is redirected
// to the login page; the handler chain is never reached and no error is
// surfaced. Expired bundles are cleared by the manager as a side effect
// of the check.
func (m *Manager) Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.IsAuthenticated() {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
