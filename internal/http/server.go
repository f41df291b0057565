package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"momo/internal/core"
	"momo/internal/log"
	"momo/internal/middleware/ratelimit"
	"momo/internal/middleware/security"
	"momo/internal/middleware/trace"
	"momo/internal/services"
	appweb "momo/web"
)

// Dashboard is what the handlers need from the dashboard service.
type Dashboard interface {
	Load(ctx context.Context) (*services.Snapshot, error)
	View(ctx context.Context, f core.Filter, now time.Time) (services.DashboardView, error)
	Transactions(ctx context.Context, f core.Filter) ([]core.Transaction, error)
	Charts(ctx context.Context, f core.Filter) (core.Charts, error)
	Types(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (services.Stats, error)
	Get(ctx context.Context, id int64) (core.Transaction, error)
}

// Options tunes the server. The zero value is usable.
type Options struct {
	Logger             *log.Logger
	RateLimitPerMinute int
	// Ready is an extra readiness probe for the backing store.
	Ready func(ctx context.Context) error
	// RequestTimeout bounds each dashboard load made on behalf of a request.
	RequestTimeout time.Duration
	// Now is the clock used for "this month"; defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	http.Server
	templates *template.Template
	dashboard Dashboard
	ready     func(ctx context.Context) error
	logger    *log.Logger
	timeout   time.Duration
	now       func() time.Time
	started   time.Time

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, dashboard Dashboard, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		dashboard:        dashboard,
		ready:            opts.Ready,
		logger:           logger.WithComponent(log.ComponentHTTP),
		timeout:          timeout,
		now:              now,
		started:          time.Now(),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		securityDetector: security.NewDetector(logger),
	}
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP)

	t, err := parseTemplates()
	if err != nil {
		s.logger.Warn("Failed parsing templates",
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeConfiguration)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	limited := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.onRateLimit)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	// UI partials
	mux.Handle("GET /ui/dashboard", limited(http.HandlerFunc(s.handleDashboardPartial)))
	mux.Handle("GET /ui/transactions/{id}", limited(http.HandlerFunc(s.handleTransactionDetail)))

	// JSON API, same shape as the upstream API the remote backend reads.
	mux.Handle("GET /api/transactions", limited(http.HandlerFunc(s.handleAPITransactions)))
	mux.Handle("GET /api/transaction-types", limited(http.HandlerFunc(s.handleAPITransactionTypes)))
	mux.Handle("GET /api/summary", limited(http.HandlerFunc(s.handleAPISummary)))
	mux.Handle("GET /api/charts", limited(http.HandlerFunc(s.handleAPICharts)))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Handler = s.securityDetector.Middleware(
		headers.Middleware(
			log.Middleware(s.logger)(
				s.traceMiddleware.Middleware(mux))))

	return s
}

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
}

var templateFuncs = template.FuncMap{
	"rwf":    core.FormatRWF,
	"number": formatCount,
}

// onRateLimit answers in the format of the rejected endpoint.
func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeAPIError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}
	ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please try again later.").
		TriggerErrorNotification("Too many requests").
		Write(w)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
