package api

import (
	"context"
	"net/http"
	"runtime/debug"

	"crimetrack/core/auth"
	"crimetrack/core/rbac"
	"crimetrack/core/store"
)

const sessionCookie = "crimetrack_session"

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if s.logger != nil {
					s.logger.Errorf("PANIC %s %s: %v\n%s", r.Method, r.URL.Path, rec, string(debug.Stack()))
				}
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// sessionMiddleware resolves the session cookie and stores the record in the
// request context. Unauthenticated requests pass through; guards reject them.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		rec, err := s.sessionManager.Resolve(r.Context(), cookie.Value)
		if err != nil || rec == nil {
			next.ServeHTTP(w, r)
			return
		}
		_ = s.sessionManager.Refresh(r.Context(), rec.ID)
		ctx := context.WithValue(r.Context(), auth.SessionContextKey, rec)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(r *http.Request) *store.SessionRecord {
	val := r.Context().Value(auth.SessionContextKey)
	if val == nil {
		return nil
	}
	rec, _ := val.(*store.SessionRecord)
	return rec
}

// requirePermission gates a handler on an action-level permission for the
// session's role.
func (s *Server) requirePermission(perm rbac.Permission) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			sess := sessionFrom(r)
			if sess == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !s.policy.Allowed(sess.Role, perm) {
				if s.logger != nil {
					s.logger.Printf("PERM fail %s %s user=%s role=%s need=%s", r.Method, r.URL.Path, sess.Username, sess.Role, perm)
				}
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		}
	}
}
