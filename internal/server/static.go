package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
)

// spaHandler serves the frontend build from staticDir. Paths that do not
// match a file fall back to index.html so client-side routes survive a
// reload.
func spaHandler(staticDir string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(staticDir))

	return func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Join(staticDir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
	}
}
