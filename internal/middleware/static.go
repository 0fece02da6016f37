package middleware

import (
	"net/http"
	"os"
	"path/filepath"
)

const fallbackSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 200 200"><rect width="200" height="200" fill="#f0f0f0"/><path d="M40 150h120v10H40zm10-60h20v55H50zm30 0h20v55H80zm30 0h20v55h-20zm30 0h20v55h-20zM100 40 40 80h120z" fill="#999"/><text x="100" y="185" text-anchor="middle" font-family="Arial" font-size="14" fill="#666">LEDGER</text></svg>`

// StaticFileServer serves files out of dir (account icons, receipt assets)
// and falls back to a placeholder image when the file does not exist.
func StaticFileServer(dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean(r.URL.Path))

		if _, err := os.Stat(path); err == nil {
			w.Header().Set("Cache-Control", "public, max-age=2592000")
			http.ServeFile(w, r, path)
			return
		}

		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.Write([]byte(fallbackSVG))
	})
}
