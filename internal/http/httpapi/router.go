package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"designstudio/internal/http/handlers"
	"designstudio/internal/middleware"
)

// Options configures the middleware stack.
type Options struct {
	Logger          zerolog.Logger
	JWTSecret       string
	CORSOrigins     []string
	RateLimitPerMin int
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	// StaticDir is served under /static when set.
	StaticDir string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.CORSOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	if dir := strings.TrimSpace(opts.StaticDir); dir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(dir)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(
			middleware.AuthJWT(opts.JWTSecret),
			middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
			middleware.RateLimit(opts.RateLimitPerMin, time.Minute),
		)

		r.Get("/categories", app.Categories)
		r.Get("/credits", app.Credits)

		r.Route("/designs", func(r chi.Router) {
			r.Post("/generate", app.GenerateDesigns)
			r.Post("/quote", app.QuoteDesign)
			r.Post("/recolor", app.RecolorDesign)
		})

		r.Route("/models", func(r chi.Router) {
			r.Post("/", app.StartModel)
			r.Get("/{task_id}", app.GetModel)
			r.Delete("/{task_id}", app.CancelModel)
		})

		r.Route("/submissions", func(r chi.Router) {
			r.Post("/", app.CreateSubmission)
			r.Get("/{id}", app.GetSubmission)
		})
	})

	return r
}
