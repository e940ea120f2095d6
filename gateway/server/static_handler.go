package server

import (
	"net/http"
	"path"
	"strings"

	"code.cloudfoundry.org/lager/v3"
)

// StaticHandler serves the files below one directory for one URL prefix.
// It only ever answers GET and HEAD; a directory yields 404 rather than a
// listing or an index file, and path traversal cannot leave the root.
type StaticHandler struct {
	logger lager.Logger
	prefix string
	root   http.FileSystem
}

func NewStaticHandler(logger lager.Logger, prefix string, dir string) *StaticHandler {
	return &StaticHandler{
		logger: logger,
		prefix: prefix,
		root:   http.Dir(dir),
	}
}

func (h *StaticHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	name := path.Clean("/" + strings.TrimPrefix(r.URL.Path, h.prefix))

	f, err := h.root.Open(name)
	if err != nil {
		h.logger.Debug("file-not-found", lager.Data{"path": r.URL.Path})
		http.NotFound(w, r)
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		h.logger.Debug("not-a-servable-file", lager.Data{"path": r.URL.Path})
		http.NotFound(w, r)
		return
	}

	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
