package router

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/plantcare/plantcare-api/internal/handler"
	"github.com/plantcare/plantcare-api/internal/metrics"
	"github.com/plantcare/plantcare-api/internal/middleware"
	"github.com/plantcare/plantcare-api/internal/repository"
	"github.com/plantcare/plantcare-api/internal/revocation"
	"github.com/plantcare/plantcare-api/internal/service"
)

type Options struct {
	DB        *sql.DB
	Inference service.Inference
	Denylist  revocation.Denylist

	// AuthLimiter throttles the unauthenticated auth routes; nil disables it.
	AuthLimiter *middleware.Limiter

	JWTSecret         string
	SignupTokenExpiry time.Duration
	SigninTokenExpiry time.Duration
	CORSOrigin        string
	Uploads           handler.UploadOptions
}

func New(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: splitOrigins(opts.CORSOrigin),
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if opts.DB == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("database unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/metrics", metrics.Handler())

	// Without a database only health and metrics are served.
	if opts.DB == nil {
		r.HandleFunc("/api/*", handler.HandleUnavailable)
		return r
	}

	userRepo := repository.NewUserRepository(opts.DB)
	plantRepo := repository.NewPlantRepository(opts.DB)
	versionRepo := repository.NewVersionRepository(opts.DB)

	authHandler := handler.NewAuthHandler(service.NewAuthService(
		userRepo, opts.Denylist, opts.JWTSecret, opts.SignupTokenExpiry, opts.SigninTokenExpiry,
	))
	plantHandler := handler.NewPlantHandler(service.NewPlantService(plantRepo, opts.Inference), opts.Uploads)
	versionHandler := handler.NewVersionHandler(service.NewVersionService(plantRepo, versionRepo, opts.Inference), opts.Uploads)

	requireAuth := middleware.JWTAuth(opts.JWTSecret, opts.Denylist)

	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if opts.AuthLimiter != nil {
				r.Use(opts.AuthLimiter.Handler)
			}
			r.Post("/signup", authHandler.HandleSignup)
			r.Post("/signin", authHandler.HandleSignin)
		})
		r.With(requireAuth).Post("/signout", authHandler.HandleSignout)
	})

	r.Route("/api/plants", func(r chi.Router) {
		r.Use(requireAuth)

		r.Post("/predict", plantHandler.HandlePredict)
		r.Post("/heatmap", plantHandler.HandleUploadHeatmap)
		r.Post("/", plantHandler.HandleCreate)
		r.Get("/", plantHandler.HandleList)

		r.Route("/{id_plant}", func(r chi.Router) {
			r.Get("/", plantHandler.HandleGet)
			r.Put("/", plantHandler.HandleUpdate)
			r.Delete("/", plantHandler.HandleDelete)
			r.Get("/image", plantHandler.HandleImage)
			r.Get("/heatmapdb", plantHandler.HandleStoredHeatmap)

			r.Route("/versions", func(r chi.Router) {
				r.Post("/", versionHandler.HandleCreate)
				r.Get("/", versionHandler.HandleList)
				r.Get("/{versionId}", versionHandler.HandleGet)
				r.Put("/{versionId}", versionHandler.HandleUpdate)
				r.Delete("/{versionId}", versionHandler.HandleDelete)
				r.Get("/{versionId}/heatmap", versionHandler.HandleHeatmap)
			})
		})
	})

	return r
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
