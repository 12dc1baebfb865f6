package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"autoassist/internal/auth"
	"autoassist/internal/domain"
	"autoassist/internal/metrics"

	"github.com/google/uuid"
)

const headerRequestID = "X-Request-ID"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	claimsKey
)

// actorHandler is a handler that runs for an authenticated caller.
type actorHandler func(w http.ResponseWriter, r *http.Request, actor domain.Actor)

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func claimsFrom(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// requestID keeps a sane incoming X-Request-ID or assigns a new one.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(headerRequestID))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(route, recorder.status, dur)
		s.logger.Info().
			Str("request_id", requestIDFrom(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("dur", dur).
			Msg("http request")
	})
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error().
					Interface("panic", rec).
					Str("request_id", requestIDFrom(r.Context())).
					Str("path", r.URL.Path).
					Msg("handler panic")
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(token), true
}

// authenticate resolves the caller from the Authorization header. present is
// false when no credentials were sent at all.
func (s *Server) authenticate(r *http.Request) (actor domain.Actor, claims *auth.Claims, present bool, status int, msg string) {
	token, present := bearerToken(r)
	if !present {
		return domain.Actor{}, nil, false, http.StatusUnauthorized, "authorization required"
	}
	if token == "" {
		return domain.Actor{}, nil, true, http.StatusUnauthorized, "bearer token required"
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		return domain.Actor{}, nil, true, http.StatusUnauthorized, "invalid or expired token"
	}
	actor, err = claims.Actor()
	if err != nil {
		return domain.Actor{}, nil, true, http.StatusUnauthorized, "invalid or expired token"
	}

	if s.sessions != nil {
		revoked, err := s.sessions.IsTokenRevoked(r.Context(), actor.TokenID)
		if err != nil {
			s.logger.Error().Err(err).Msg("check token revocation")
			return domain.Actor{}, nil, true, http.StatusInternalServerError, "internal error"
		}
		if revoked {
			return domain.Actor{}, nil, true, http.StatusUnauthorized, "token has been revoked"
		}
	}
	return actor, claims, true, 0, ""
}

func (s *Server) authed(h actorHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, claims, _, status, msg := s.authenticate(r)
		if status != 0 {
			writeError(w, status, msg)
			return
		}
		ctx := domain.WithActor(r.Context(), actor)
		ctx = context.WithValue(ctx, claimsKey, claims)
		h(w, r.WithContext(ctx), actor)
	})
}

// managers restricts a route to staff and administrators.
func (s *Server) managers(h actorHandler) http.Handler {
	return s.authed(func(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
		if err := actor.RequireManager(r.Method + " " + r.URL.Path); err != nil {
			s.fail(w, r, err)
			return
		}
		h(w, r, actor)
	})
}

// advisory guards the AI routes: the advisor must be enabled and the caller
// within the daily quota.
func (s *Server) advisory(h actorHandler) http.Handler {
	return s.authed(func(w http.ResponseWriter, r *http.Request, actor domain.Actor) {
		if s.svc.Advisor == nil || !s.svc.Advisor.Enabled() {
			writeError(w, http.StatusServiceUnavailable, "advisory service is disabled")
			return
		}
		if quota := s.opts.AdvisorDailyQuota; quota > 0 && s.sessions != nil {
			key := "advisor:" + strconv.FormatInt(actor.UserID, 10)
			allowed, err := s.sessions.CheckRateLimit(r.Context(), key, quota, 24*time.Hour)
			if err != nil {
				s.logger.Warn().Err(err).Str("key", key).Msg("advisor quota check failed")
			} else if !allowed {
				writeError(w, http.StatusTooManyRequests, "daily advisory quota reached")
				return
			}
		}
		h(w, r, actor)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
