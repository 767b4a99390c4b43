// Package web is a thin layer over gin that lets handlers return errors and
// share a request scoped context.
package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler is the signature every route handler in the application uses.
type Handler func(c *Context) error

// Middleware wraps a Handler with extra behaviour.
type Middleware func(Handler) Handler

// App is the entrypoint into the web application. It embeds the gin engine so
// plain gin handlers (static files, health checks) can still be registered.
type App struct {
	*gin.Engine
	log *zap.Logger
	mw  []Middleware
}

// NewApp creates an App that runs mw around every handler registered with
// Handle and its verb helpers.
func NewApp(log *zap.Logger, mw ...Middleware) *App {
	engine := gin.New()
	engine.ContextWithFallback = true

	return &App{
		Engine: engine,
		log:    log,
		mw:     mw,
	}
}

// Handle registers handler for method and path. Route level middleware runs
// inside the application wide middleware.
func (a *App) Handle(method, path string, handler Handler, mw ...Middleware) {
	handler = wrapMiddleware(mw, handler)
	handler = wrapMiddleware(a.mw, handler)

	a.Engine.Handle(method, path, func(gc *gin.Context) {
		c := &Context{
			Context: gc,
			Ctx:     gc.Request.Context(),
			Start:   time.Now(),
		}

		if err := handler(c); err != nil {
			if gc.Writer.Status() >= http.StatusInternalServerError {
				a.log.Error("request failed",
					zap.String("method", gc.Request.Method),
					zap.String("path", gc.FullPath()),
					zap.Error(err))
				return
			}
			a.log.Debug("request rejected",
				zap.String("method", gc.Request.Method),
				zap.String("path", gc.FullPath()),
				zap.Int("status", gc.Writer.Status()),
				zap.Error(err))
		}
	})
}

func (a *App) Get(path string, handler Handler, mw ...Middleware) {
	a.Handle(http.MethodGet, path, handler, mw...)
}

func (a *App) Post(path string, handler Handler, mw ...Middleware) {
	a.Handle(http.MethodPost, path, handler, mw...)
}

func (a *App) Put(path string, handler Handler, mw ...Middleware) {
	a.Handle(http.MethodPut, path, handler, mw...)
}

func (a *App) Patch(path string, handler Handler, mw ...Middleware) {
	a.Handle(http.MethodPatch, path, handler, mw...)
}

func (a *App) Delete(path string, handler Handler, mw ...Middleware) {
	a.Handle(http.MethodDelete, path, handler, mw...)
}

// Log returns the application logger.
func (a *App) Log() *zap.Logger {
	return a.log
}

// wrapMiddleware builds the chain so that mw[0] is the outermost wrapper.
func wrapMiddleware(mw []Middleware, handler Handler) Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		if h := mw[i]; h != nil {
			handler = h(handler)
		}
	}

	return handler
}
