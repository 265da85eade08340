package middleware

import "net/http"

// NoCache marks every API response as non-cacheable so stale session or
// ride state never survives in an intermediary.
func NoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
