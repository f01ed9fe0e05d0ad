package access

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-oneservis/internal/session"
)

var publicPaths = map[string]bool{
	"/":               true,
	"/login":          true,
	"/api/auth/login": true,
	"/api/test":       true,
}

var staticPrefixes = []string{"/static/", "/favicon", "/robots.txt"}

// Guard is the global session check. Every non-public request must carry a
// token that verifies; its profile is then available via ProfileFromContext.
type Guard struct {
	codec  *session.Codec
	logger *zap.SugaredLogger
}

func NewGuard(codec *session.Codec, logger *zap.SugaredLogger) *Guard {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Guard{codec: codec, logger: logger}
}

// IsPublic reports whether path is reachable without a session.
func IsPublic(path string) bool {
	if publicPaths[path] {
		return true
	}
	for _, p := range staticPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := session.TokenFromRequest(r)

		if IsPublic(r.URL.Path) {
			// a valid session still rides along so / and /login can redirect
			if token != "" {
				if p, err := g.codec.Verify(token); err == nil {
					r = r.WithContext(WithProfile(r.Context(), p))
				}
			}
			next.ServeHTTP(w, r)
			return
		}

		if token == "" {
			reject(w, r)
			return
		}
		p, err := g.codec.Verify(token)
		if err != nil {
			g.logger.Debugw("rejected session token", "path", r.URL.Path, "err", err)
			g.codec.ClearCookie(w)
			reject(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithProfile(r.Context(), p)))
	})
}
