package server

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/coolbeans/lawlinks/pkg/logging"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

var errInternal = errors.New("internal error")

type ctxKey int

const requestIDKey ctxKey = iota

// RequestIDFrom returns the request id stored in ctx, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type middleware func(http.Handler) http.Handler

// chain wraps h so that the first middleware is the outermost.
func chain(h http.Handler, mws ...middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// requestID keeps an incoming X-Request-ID or generates one, and echoes it
// on the response.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// statusRecorder captures the status code and bytes written.
type statusRecorder struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += int64(n)
	return n, err
}

func requestLogging(logger logging.Logger) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rec, r)

			fields := []logging.Field{
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Int("status", rec.statusCode),
				logging.Duration("duration", time.Since(start)),
				logging.Any("bytes", rec.bytesWritten),
				logging.String("remote_addr", r.RemoteAddr),
				logging.String("request_id", RequestIDFrom(r.Context())),
			}
			switch {
			case rec.statusCode >= 500:
				logger.Error("HTTP request completed with server error", fields...)
			case rec.statusCode >= 400:
				logger.Warn("HTTP request completed with client error", fields...)
			default:
				logger.Info("HTTP request completed", fields...)
			}
		})
	}
}

// recovery turns a handler panic into a 500 reply.
func recovery(logger logging.Logger) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}
					logger.Error("panic in handler",
						logging.Any("panic", p),
						logging.String("stack", string(debug.Stack())),
						logging.String("request_id", RequestIDFrom(r.Context())),
					)
					writeError(w, http.StatusInternalServerError, errInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
