package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"finhelper/internal/core"
	"finhelper/internal/log"
	"finhelper/internal/transfer"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	key, err := parseMonthParam(r.URL.Query(), "month", s.finance.ActiveMonth())
	if err != nil {
		s.fail(w, r, "summary", err)
		return
	}
	OK(s.finance.Summary(key)).Write(w)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	OK(s.finance.History()).Write(w)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	a, err := parseMonthParam(query, "a", "")
	if err != nil {
		s.fail(w, r, "compare", err)
		return
	}
	b, err := parseMonthParam(query, "b", "")
	if err != nil {
		s.fail(w, r, "compare", err)
		return
	}

	cmp, err := s.finance.Compare(a, b)
	if err != nil {
		s.fail(w, r, "compare", err)
		return
	}
	OK(cmp).Write(w)
}

// handleExport streams the full backup as a JSON attachment. The body is
// buffered so a failure can still be reported as JSON.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.finance.Export(r.Context(), &buf); err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}

	name := "FinHelper_backup_" + strconv.FormatInt(time.Now().UnixMilli(), 10) + ".json"
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleReport returns the single-month report as JSON, or as a spreadsheet
// with format=xlsx.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	key, err := parseMonthParam(r.URL.Query(), "month", s.finance.ActiveMonth())
	if err != nil {
		s.fail(w, r, "report", err)
		return
	}
	report := s.finance.Report(key)

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		OK(report).Write(w)
	case "xlsx":
		var buf bytes.Buffer
		if err := transfer.WriteWorkbook(&buf, report); err != nil {
			s.fail(w, r, "report", err)
			return
		}
		w.Header().Set("Content-Type", transfer.WorkbookContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", transfer.WorkbookName(key)))
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	default:
		s.fail(w, r, "report", &core.ValidationError{Field: "format", Err: fmt.Errorf("unsupported format %q", format)})
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	res, err := s.finance.Import(r.Context(), body)
	if err != nil {
		s.fail(w, r, log.OpImport, err)
		return
	}
	OK(map[string]any{"import": res, "state": s.finance.State()}).Write(w)
}
