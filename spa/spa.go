// Package spa serves the frontend: files under /static and the index page
// for every other GET path so client side routing works on reload.
package spa

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/andrebq/connectia/internal/logutil"
	"github.com/cespare/xxhash/v2"
	"github.com/julienschmidt/httprouter"
)

type (
	noListing struct {
		fs http.FileSystem
	}
)

// IndexPath returns the location of the index page inside staticDir
func IndexPath(staticDir string) string {
	return filepath.Join(staticDir, "frontend", "index.html")
}

func AsHandler(ctx context.Context, staticDir string) (http.Handler, error) {
	st, err := os.Stat(staticDir)
	if err != nil {
		return nil, fmt.Errorf("unable to open static dir %v, cause %w", staticDir, err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("static dir %v is not a directory", staticDir)
	}
	index := IndexPath(staticDir)
	if _, err := os.Stat(index); err != nil {
		log := logutil.GetOrDefault(ctx)
		log.Warn().Str("index", index).Msg("Frontend index not found, only static files will be served")
	}

	router := httprouter.New()
	router.ServeFiles("/static/*filepath", noListing{fs: http.Dir(staticDir)})
	idx := serveIndex(index)
	router.HandlerFunc("GET", "/", idx)
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "GET", "HEAD":
			idx(w, r)
		default:
			http.NotFound(w, r)
		}
	})
	router.HandleMethodNotAllowed = false
	return router, nil
}

func serveIndex(index string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, err := os.ReadFile(index)
		if os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		} else if err != nil {
			log := logutil.GetOrDefault(r.Context())
			log.Error().Err(err).Str("index", index).Msg("Unable to read frontend index")
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		etag := fmt.Sprintf(`"%016x"`, xxhash.Sum64(content))
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "no-cache")
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		http.ServeContent(w, r, "index.html", time.Time{}, bytes.NewReader(content))
	}
}

// Open hides directory listings, directories are only served when they
// contain an index.html
func (n noListing) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if st.IsDir() {
		idx, err := n.fs.Open(filepath.ToSlash(filepath.Join(name, "index.html")))
		if err != nil {
			f.Close()
			return nil, os.ErrNotExist
		}
		idx.Close()
	}
	return f, nil
}
