package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"kameti/internal/core"
	applog "kameti/internal/log"
	"kameti/internal/middleware/ratelimit"
	"kameti/internal/middleware/security"
	"kameti/internal/middleware/trace"
	"kameti/internal/services"
)

// Options configures the API server.
type Options struct {
	Logger    *applog.Logger
	RateLimit ratelimit.Config
	// Clock supplies today for reads without ?today=; defaults to the
	// service clock.
	Clock core.Clock
	// TrustedProxies are CIDRs, beyond the private ranges, whose forwarding
	// headers name the client.
	TrustedProxies []string
}

type Server struct {
	http.Server
	svc      *services.LedgerService
	clock    core.Clock
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Tracer
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer builds the API server around svc.
func NewServer(addr string, svc *services.LedgerService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.Config{Component: applog.ComponentHTTP})
	}
	clock := opts.Clock
	if clock == nil {
		clock = serviceClock{svc}
	}

	s := &Server{
		svc:      svc,
		clock:    clock,
		limiter:  ratelimit.NewLimiter(opts.RateLimit),
		detector: security.NewDetector(),
		started:  time.Now(),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", applog.FieldError, err)
		}
	}
	s.tracer = trace.New(s.detector.ExtractClientIP, logger)

	mux := http.NewServeMux()
	s.routes(mux)

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, _ *http.Request) {
		TooManyRequestsError().Write(w)
	})(h)
	h = s.detector.Middleware(h)
	h = security.Headers(security.APIHeaders, security.DefaultHSTS)(h)
	h = applog.Middleware(logger, trace.RequestID)(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /api/members", s.handleListMembers)
	mux.HandleFunc("POST /api/members", s.handleCreateMember)
	mux.HandleFunc("GET /api/members/{id}", s.handleGetMember)
	mux.HandleFunc("PUT /api/members/{id}", s.handleUpdateMember)

	mux.HandleFunc("GET /api/committees", s.handleListCommittees)
	mux.HandleFunc("POST /api/committees", s.handleCreateCommittee)
	mux.HandleFunc("GET /api/committees/{id}", s.handleGetCommittee)
	mux.HandleFunc("GET /api/committees/{id}/summary", s.handleCommitteeSummary)
	mux.HandleFunc("POST /api/committees/{id}/payments", s.handleRecordCommitteePayment)
	mux.HandleFunc("POST /api/committees/{id}/payments/{pid}/clear", s.handleClearCommitteePayment)
	mux.HandleFunc("GET /api/committees/{id}/payments/{pid}/receipt", s.handleCommitteeReceipt)
	mux.HandleFunc("POST /api/committees/{id}/turns/{slot}/toggle", s.handleToggleTurn)
	mux.HandleFunc("POST /api/committees/{id}/turns/{slot}/move", s.handleMoveTurn)

	mux.HandleFunc("GET /api/installments", s.handleListInstallments)
	mux.HandleFunc("POST /api/installments", s.handleCreateInstallment)
	mux.HandleFunc("GET /api/installments/{id}", s.handleGetInstallment)
	mux.HandleFunc("GET /api/installments/{id}/summary", s.handleInstallmentSummary)
	mux.HandleFunc("POST /api/installments/{id}/payments", s.handleRecordInstallmentPayment)
	mux.HandleFunc("PUT /api/installments/{id}/payments/{pid}", s.handleCorrectInstallmentPayment)
	mux.HandleFunc("DELETE /api/installments/{id}/payments/{pid}", s.handleRemoveInstallmentPayment)
	mux.HandleFunc("GET /api/installments/{id}/payments/{pid}/receipt", s.handleInstallmentReceipt)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/notifications", s.handleNotifications)
	mux.HandleFunc("GET /api/export.xlsx", s.handleExport)
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// Stats returns request counters for diagnostics.
func (s *Server) Stats() trace.Stats {
	return s.tracer.Stats()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":     "ok",
		"today":      s.clock.Today(),
		"uptime":     time.Since(s.started).Round(time.Second).String(),
		"requests":   s.tracer.Stats().Requests,
		"rejected":   s.limiter.Rejected(),
		"suspicious": s.detector.SuspiciousCount(),
		"timestamp":  time.Now().Format(time.RFC3339),
	}).Write(w)
}

// fail logs err with request context and writes its mapped response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp := errorResponse(err)
	if resp.statusCode >= http.StatusInternalServerError {
		applog.NewRequestLogger(applog.FromContext(r.Context())).
			Failed(r.Context(), "Request failed", op, err)
	} else {
		applog.FromContext(r.Context()).DebugContext(r.Context(), "Request rejected",
			applog.FieldOperation, op, applog.FieldError, err)
	}
	if body, ok := resp.body.(ErrorBody); ok {
		body.RequestID = requestID(r)
		resp.Body(body)
	}
	resp.Write(w)
}

type serviceClock struct {
	svc *services.LedgerService
}

func (c serviceClock) Today() core.Date {
	return c.svc.Today()
}
