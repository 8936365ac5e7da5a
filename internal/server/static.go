package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bobmcallan/marketview/internal/common"
)

// staticHandler serves the pre-built dashboard bundle. Paths that do not
// name a file fall back to index.html so client-side routes resolve.
type staticHandler struct {
	dir    string
	files  http.Handler
	logger *common.Logger
}

func newStaticHandler(dir string, logger *common.Logger) http.Handler {
	return &staticHandler{dir: dir, files: http.FileServer(http.Dir(dir)), logger: logger}
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		WriteErrorWithCode(w, http.StatusMethodNotAllowed, "Method not allowed", "method_not_allowed")
		return
	}

	clean := path.Clean("/" + r.URL.Path)
	if clean != "/" {
		full := filepath.Join(h.dir, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			h.files.ServeHTTP(w, r)
			return
		}
	}

	index := filepath.Join(h.dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		h.logger.Warn().Str("dir", h.dir).Msg("Dashboard bundle not found")
		WriteErrorWithCode(w, http.StatusNotFound, "Dashboard bundle not found", "not_found")
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, index)
}
