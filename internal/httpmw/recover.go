package httpmw

import (
	"fmt"
	"net/http"

	"github.com/vicompany/hardened-web/internal/log"
	"github.com/vicompany/hardened-web/internal/xerrors"
)

// Recover turns a handler panic into a logged error and a 500 response.
// onPanic, if set, runs after logging (metrics).
// http.ErrAbortHandler is re-panicked so net/http can abort the connection.
func Recover(L log.Logger, onPanic func()) func(http.Handler) http.Handler {
	if L == nil {
		L = log.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}

				var err error
				switch x := v.(type) {
				case error:
					err = xerrors.WithStack(x)
				default:
					err = xerrors.Newf("panic: %s", fmt.Sprint(x))
				}

				L.With(
					"http.request.method", r.Method,
					"url.path", r.URL.Path,
					"request_id", RequestIDFromContext(r.Context()),
				).Error(r.Context(), err, "httpserver panic recovered")

				if onPanic != nil {
					onPanic()
				}

				w.Header().Set("Cache-Control", "no-store")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
