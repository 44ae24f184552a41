package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/passguard/internal/auth/service"
	"github.com/aussiebroadwan/passguard/internal/auth/store"
	"github.com/aussiebroadwan/passguard/pkg/httpx"
	"github.com/aussiebroadwan/passguard/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/aussiebroadwan/passguard/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	AuthService   *service.AuthService
	Authenticator *service.Authenticator

	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerIdentity()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			passguard Identity Service API
//	@version		0.1.0
//	@description	Username and password identity service issuing HS256 signed access tokens and single use refresh tokens.
//	@description
//	@description				Accounts are locked after repeated failed logins and passwords expire after a configured number of days.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/passguard
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerIdentity() {
	h := &IdentityHandler{AuthService: r.AuthService}

	authn := AuthnMiddleware(r.Authenticator)
	gate := PasswordExpiryGate(r.AuthService)

	// POST /login - strict rate limit by IP + username to slow brute force
	r.Mux.Handle("POST /api/identity/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "username"),
		),
	)

	// POST /register - strict rate limit by IP (public signup endpoint)
	r.Mux.Handle("POST /api/identity/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /refreshToken - moderate rate limit by IP
	r.Mux.Handle("POST /api/identity/refreshToken",
		httpx.Chain(http.HandlerFunc(h.HandleRefreshToken),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /changePassword - authenticated, reachable with an expired password
	r.Mux.Handle("POST /api/identity/changePassword",
		httpx.Chain(http.HandlerFunc(h.HandleChangePassword),
			authn,
			httpx.RateLimitBySubject(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /api/identity/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			authn,
			gate,
			httpx.RateLimitBySubject(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("GET /api/identity/profile",
		httpx.Chain(http.HandlerFunc(h.HandleProfile),
			authn,
			gate,
			httpx.RateLimitBySubject(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	if r.Gatherer != nil {
		r.Mux.Handle("GET /metrics", promhttp.HandlerFor(r.Gatherer, promhttp.HandlerOpts{}))
	}
}
