package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

// UIHandler serves a built UI from ui/dist when one exists, next to the
// working directory or the executable, and an API index page otherwise.
func UIHandler(port int) http.Handler {
	if uiPath := findUIPath(); uiPath != "" {
		return &spaHandler{root: uiPath}
	}

	// Fallback to the endpoint list
	return indexPage(port)
}

// findUIPath looks for the UI dist directory in common locations.
func findUIPath() string {
	// Check relative to working directory
	if info, err := os.Stat("ui/dist/index.html"); err == nil && !info.IsDir() {
		return "ui/dist"
	}

	// Check relative to executable
	if exe, err := os.Executable(); err == nil {
		uiPath := filepath.Join(filepath.Dir(exe), "ui", "dist")
		if info, err := os.Stat(filepath.Join(uiPath, "index.html")); err == nil && !info.IsDir() {
			return uiPath
		}
	}

	return ""
}

// spaHandler serves a single-page application, falling back to index.html for routes.
type spaHandler struct {
	root string
}

func (h *spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Clean the path
	p := path.Clean(r.URL.Path)
	if p == "/" {
		p = "/index.html"
	}

	// Unknown routes get index.html so client-side routing works
	filePath := filepath.Join(h.root, filepath.FromSlash(p))
	if info, err := os.Stat(filePath); err != nil || info.IsDir() {
		filePath = filepath.Join(h.root, "index.html")
	}

	// Hashed assets never change
	switch path.Ext(filePath) {
	case ".js", ".css":
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	}

	http.ServeFile(w, r, filePath)
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <title>abilens</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
               max-width: 800px; margin: 50px auto; padding: 20px; }
        .api-list { background: #f5f5f5; padding: 20px; border-radius: 8px; }
        .api-list a { display: block; margin: 10px 0; color: #0066cc; }
        pre { background: #f0f0f0; padding: 10px; border-radius: 4px; overflow-x: auto; }
    </style>
</head>
<body>
    <h1>abilens API Server</h1>
    <div class="api-list">
        <h3>Available Endpoints:</h3>
        <a href="/api/stats">GET /api/stats</a> - Index statistics
        <a href="/api/contracts">GET /api/contracts</a> - Indexed contracts
        <a href="/api/contracts?failed=true">GET /api/contracts?failed=true</a> - Rejected ABI files
        <a href="/api/search?query=Event">GET /api/search?query=Event</a> - Search types
        <a href="/api/health">GET /api/health</a> - Health check
    </div>
    <h3>Example Usage:</h3>
    <pre>
# Contract summary, functions and parsed abi
curl http://localhost:{{PORT}}/api/contracts/1
curl http://localhost:{{PORT}}/api/contracts/1/functions
curl 'http://localhost:{{PORT}}/api/contracts/1/abi?path=structures&pretty=true'

# A type with members, tags and references
curl http://localhost:{{PORT}}/api/contracts/1/types/core::integer::u256

# Type dependency graph
curl 'http://localhost:{{PORT}}/api/graph/1/Event?depth=3&hideCore=true'
    </pre>
</body>
</html>`

// indexPage lists the API endpoints when no UI is built.
func indexPage(port int) http.HandlerFunc {
	page := strings.ReplaceAll(indexHTML, "{{PORT}}", strconv.Itoa(port))
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(page))
	}
}
