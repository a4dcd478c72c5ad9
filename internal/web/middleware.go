package web

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/erazemk/oprema/internal/auth"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

type webContextKey string

const webClaimsKey webContextKey = "webclaims"

// CookieAuthMiddleware validates JWT from cookie, checks token revocation,
// and adds claims to context.
func CookieAuthMiddleware(secret string, db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("token")
			if err != nil || cookie.Value == "" {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			claims, err := auth.ParseSession(secret, cookie.Value)
			if err != nil {
				clearAuthCookie(w)
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			revoked, err := store.IsSessionRevoked(r.Context(), db, claims.ID)
			if err != nil {
				slog.Error("failed to check token revocation", "error", err)
				clearAuthCookie(w)
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if revoked {
				clearAuthCookie(w)
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), webClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// clearAuthCookie clears the authentication cookie with consistent attributes.
func clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// GetWebClaims retrieves the JWT claims from web context.
func GetWebClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(webClaimsKey).(*auth.Claims)
	return claims
}

func webActor(r *http.Request) model.Actor {
	claims := GetWebClaims(r.Context())
	if claims == nil {
		return model.Actor{}
	}
	return claims.Actor()
}

// requireRole writes 403 and returns false when the user's role is below minimum.
func requireRole(w http.ResponseWriter, r *http.Request, minimum string) bool {
	claims := GetWebClaims(r.Context())
	if claims == nil || !model.RoleAtLeast(claims.Role, minimum) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}

// redirectNotice redirects to target with a success message for the next page.
func redirectNotice(w http.ResponseWriter, r *http.Request, target, notice string) {
	redirectWith(w, r, target, "notice", notice)
}

// redirectError redirects to target with an error message for the next page.
func redirectError(w http.ResponseWriter, r *http.Request, target, message string) {
	redirectWith(w, r, target, "error", message)
}

func redirectWith(w http.ResponseWriter, r *http.Request, target, key, message string) {
	u, err := url.Parse(target)
	if err != nil {
		u = &url.URL{Path: "/"}
	}
	q := u.Query()
	q.Set(key, message)
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusSeeOther)
}

// formID parses an id from a form or query value. Missing or malformed values
// yield 0.
func formID(value string) int64 {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

func pathID(r *http.Request) (int64, bool) {
	id := formID(r.PathValue("id"))
	return id, id > 0
}

// marathonAccess checks the current user may see the marathon. On failure
// it redirects to the dashboard with a notice and returns false.
func (s *Server) marathonAccess(w http.ResponseWriter, r *http.Request, marathonID int64) bool {
	ok, err := store.CanAccessMarathon(r.Context(), s.DB, webActor(r), marathonID)
	if err != nil {
		slog.Error("failed to check marathon access", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return false
	}
	if !ok {
		redirectError(w, r, "/", "You are not assigned to this marathon.")
		return false
	}
	return true
}
