package v1

import (
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	cacheControlStatic = "public, max-age=86400"
	notFoundPage       = "404.html"
	notFoundText       = "404 Not Found"
)

// pageRoutes maps the site's clean URLs to files in the public directory.
var pageRoutes = map[string]string{
	"/":          "index.html",
	"/about":     "about.html",
	"/portfolio": "portfolio.html",
	"/blog":      "blog.html",
	"/contact":   "contact.html",
}

type PagesHandler struct {
	fs http.FileSystem
}

// NewPagesHandler serves the HTML pages, static assets and the 404 page from publicDir.
func NewPagesHandler(r *gin.Engine, publicDir string) {
	handler := &PagesHandler{fs: http.Dir(publicDir)}

	for route, file := range pageRoutes {
		r.Match([]string{http.MethodGet, http.MethodHead}, route, handler.page(file))
	}
	r.NoRoute(handler.Static)
}

func (h *PagesHandler) page(file string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.serveFile(c, "/"+file) {
			h.NotFound(c)
		}
	}
}

// Static serves GET and HEAD requests for files under the public directory.
// Everything else, including dotfiles, is a 404.
func (h *PagesHandler) Static(c *gin.Context) {
	method := c.Request.Method
	if (method == http.MethodGet || method == http.MethodHead) && !hasDotSegment(c.Request.URL.Path) {
		if h.serveFile(c, c.Request.URL.Path) {
			return
		}
	}
	h.NotFound(c)
}

// NotFound renders 404.html, or plain text when the page is missing.
func (h *PagesHandler) NotFound(c *gin.Context) {
	f, err := h.fs.Open("/" + notFoundPage)
	if err != nil {
		c.String(http.StatusNotFound, notFoundText)
		return
	}
	defer f.Close()

	c.DataFromReader(http.StatusNotFound, -1, "text/html; charset=utf-8", f, nil)
}

// serveFile writes name with the static cache header. A directory resolves to
// its index.html. It reports false when nothing was served.
func (h *PagesHandler) serveFile(c *gin.Context, name string) bool {
	f, err := h.fs.Open(name)
	if err != nil {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return false
	}
	if stat.IsDir() {
		f.Close()
		return h.serveFile(c, path.Join(name, "index.html"))
	}
	defer f.Close()

	c.Header("Cache-Control", cacheControlStatic)
	http.ServeContent(c.Writer, c.Request, stat.Name(), stat.ModTime(), f)
	return true
}

func hasDotSegment(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

// publicDirExists is used at startup to warn about a missing asset root.
func publicDirExists(dir string) bool {
	stat, err := os.Stat(dir)
	return err == nil && stat.IsDir()
}
