package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/zinema-api/internal/application/auth"
	"github.com/zinema-api/internal/application/user"
	"github.com/zinema-api/internal/config"
	"github.com/zinema-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/zinema-api/internal/infrastructure/jwt"
	s3infra "github.com/zinema-api/internal/infrastructure/s3"
	"github.com/zinema-api/internal/infrastructure/smtp"
	"github.com/zinema-api/internal/transport/http/handler"
	appmiddleware "github.com/zinema-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    *dynamo.UserRepo
	AvatarStore *s3infra.Store
	Mailer      smtp.Mailer
	JWTProvider *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)

	// 5 requests/second with a burst of 10 on the sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	userSvc := user.NewService(deps.UserRepo, deps.AvatarStore)
	authSvc := auth.NewService(deps.UserRepo, deps.Mailer, deps.JWTProvider, cfg.ResetPasswordURL)

	healthH := handler.NewHealthHandler()
	userH := handler.NewUserHandler(userSvc)
	authH := handler.NewAuthHandler(authSvc)
	recoveryH := handler.NewPasswordRecoveryHandler(authSvc)

	r.Get("/health-check/ping", healthH.Ping)

	r.Route("/users", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.With(sensitiveRL.Limit).Post("/register", userH.Register)
		r.With(sensitiveRL.Limit).Post("/login", authH.Login)
		r.With(sensitiveRL.Limit).Post("/request-password-reset", recoveryH.RequestReset)
		r.With(sensitiveRL.Limit).Post("/reset-password", recoveryH.ResetPassword)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/getUser", userH.Get)
			r.Put("/updateUser", userH.Update)
			r.Delete("/deleteUser", userH.Delete)
			r.Put("/avatar", userH.UploadAvatar)
		})
	})

	return r
}
