package http

import (
	"bytes"
	"net/http"

	applog "kameti/internal/log"
	"kameti/internal/middleware/trace"
	"kameti/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	today, err := parseToday(r, s.clock)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	sum, err := s.svc.Dashboard(r.Context(), today)
	if err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Body(sum).Write(w)
}

// handleNotifications returns the alert report; ?view=feed flattens it.
func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	today, err := parseToday(r, s.clock)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	rep, err := s.svc.Notifications(r.Context(), today)
	if err != nil {
		s.fail(w, r, applog.OpScan, err)
		return
	}
	if r.URL.Query().Get("view") == "feed" {
		NewJSONResponse().Body(map[string]any{
			"today":  today,
			"count":  rep.Count(),
			"alerts": rep.Alerts(),
		}).Write(w)
		return
	}
	NewJSONResponse().Body(rep).Write(w)
}

func (s *Server) handleCommitteeReceipt(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.CommitteeReceipt(r.Context(), r.PathValue("id"), r.PathValue("pid"))
	if err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}
	writeReceipt(w, r, rec)
}

func (s *Server) handleInstallmentReceipt(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.InstallmentReceipt(r.Context(), r.PathValue("id"), r.PathValue("pid"))
	if err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}
	writeReceipt(w, r, rec)
}

// writeReceipt renders JSON, or plain text with ?format=text.
func writeReceipt(w http.ResponseWriter, r *http.Request, rec report.Receipt) {
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(rec.Text()))
		return
	}
	NewJSONResponse().Body(rec).Write(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	today, err := parseToday(r, s.clock)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	// Buffer so a failed export still gets a proper error status.
	var buf bytes.Buffer
	if err := s.svc.Export(r.Context(), &buf, today); err != nil {
		s.fail(w, r, applog.OpExport, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="kameti-`+today.String()+`.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}

func requestID(r *http.Request) string {
	return trace.FromContext(r.Context())
}
