package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/learnloop/learnloop/internal/auth/federation"
	"github.com/learnloop/learnloop/internal/auth/service"
	"github.com/learnloop/learnloop/internal/auth/store"
	"github.com/learnloop/learnloop/pkg/httpx"
	"github.com/learnloop/learnloop/pkg/jwtx"
	"github.com/learnloop/learnloop/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	codec        *jwtx.Codec
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	Cookies     CookiePolicy
	FrontendURL string

	SessionService      *service.SessionService
	RefreshService      *service.RefreshService
	VerificationService *service.VerificationService
	FederationService   *service.FederationService
	Providers           federation.Registry
}

func NewRouter(
	codec *jwtx.Codec,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		codec:        codec,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSessions()
	r.registerVerification()
	r.registerOAuth()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSessions() {
	sessionHandler := &SessionHandler{
		Sessions: r.SessionService,
		Cookies:  r.Cookies,
	}
	refreshHandler := &RefreshHandler{
		Refresh:  r.RefreshService,
		Sessions: r.SessionService,
		Cookies:  r.Cookies,
	}
	meHandler := &MeHandler{Sessions: r.SessionService}

	// Credential endpoints get the strict limit (brute force prevention)
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(sessionHandler.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(sessionHandler.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))

	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(refreshHandler.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		))
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(refreshHandler.HandleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		))

	r.Mux.Handle("GET /v1/auth/me",
		httpx.Chain(meHandler,
			httpx.AuthnMiddleware(r.codec),
			httpx.RateLimitByAccount(httpx.ModerateLimit),
		))
}

func (r *Router) registerVerification() {
	handler := &VerificationHandler{Verifications: r.VerificationService}

	r.Mux.Handle("POST /v1/auth/verify-email",
		httpx.Chain(http.HandlerFunc(handler.HandleVerifyEmail),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		))
	r.Mux.Handle("POST /v1/auth/resend-verification",
		httpx.Chain(http.HandlerFunc(handler.HandleResendVerification),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
	r.Mux.Handle("POST /v1/auth/forgot-password",
		httpx.Chain(http.HandlerFunc(handler.HandleForgotPassword),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
	r.Mux.Handle("POST /v1/auth/reset-password",
		httpx.Chain(http.HandlerFunc(handler.HandleResetPassword),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
	r.Mux.Handle("GET /v1/auth/reset-password/validate",
		httpx.Chain(http.HandlerFunc(handler.HandleValidateReset),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		))
}

func (r *Router) registerOAuth() {
	if len(r.Providers) == 0 {
		return
	}

	handler := &OAuthHandler{
		Providers:   r.Providers,
		Federation:  r.FederationService,
		Sessions:    r.SessionService,
		Cookies:     r.Cookies,
		FrontendURL: r.FrontendURL,
	}

	r.Mux.Handle("GET /v1/auth/oauth/{provider}",
		httpx.Chain(http.HandlerFunc(handler.HandleStart),
			httpx.RateLimitByIP(httpx.LenientLimit),
		))
	r.Mux.Handle("GET /v1/auth/oauth/{provider}/callback",
		httpx.Chain(http.HandlerFunc(handler.HandleCallback),
			httpx.RateLimitByIP(httpx.LenientLimit),
		))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.codec))
}
