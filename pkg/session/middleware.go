package session

import (
	"sync"

	"portfolio-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

const contextKey = "session"

// sessionWriter saves the session right before the first byte of the
// response goes out, while headers can still carry the cookie.
type sessionWriter struct {
	gin.ResponseWriter
	once sync.Once
	save func()
}

func (w *sessionWriter) commit() {
	w.once.Do(w.save)
}

func (w *sessionWriter) WriteHeaderNow() {
	w.commit()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *sessionWriter) Write(data []byte) (int, error) {
	w.commit()
	return w.ResponseWriter.Write(data)
}

func (w *sessionWriter) WriteString(s string) (int, error) {
	w.commit()
	return w.ResponseWriter.WriteString(s)
}

func (w *sessionWriter) Flush() {
	w.commit()
	w.ResponseWriter.Flush()
}

// Middleware attaches the visitor's session to the gin context.
func Middleware(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := m.Load(c.Request)
		if err != nil {
			logger.Log.Warn("Session load failed", "error", err, "path", c.Request.URL.Path)
		}
		c.Set(contextKey, sess)

		underlying := c.Writer
		w := &sessionWriter{ResponseWriter: underlying}
		w.save = func() {
			if err := m.Save(c.Request.Context(), underlying, sess); err != nil {
				logger.Log.Error("Session save failed", "error", err)
			}
		}
		c.Writer = w

		c.Next()

		if !underlying.Written() {
			w.commit()
		}
	}
}

// Get returns the session attached by Middleware, or nil.
func Get(c *gin.Context) *Session {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*Session)
	return sess
}
