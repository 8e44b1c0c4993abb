package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/drew/databoard/internal/chart"
	"github.com/drew/databoard/internal/dashboard"
	"github.com/drew/databoard/internal/export"
	"github.com/drew/databoard/internal/images"
	"github.com/drew/databoard/internal/model"
	"github.com/drew/databoard/internal/results"
	"go.uber.org/zap"
)

// selectionFromQuery reads ?parameter=&height=, falling back to def for
// missing values
func selectionFromQuery(r *http.Request, def model.Selection) (model.Selection, error) {
	q := r.URL.Query()
	p, h := q.Get("parameter"), q.Get("height")
	if p == "" {
		p = string(def.Parameter)
	}
	if h == "" {
		h = string(def.Height)
	}
	return model.ParseSelection(p, h)
}

func selectionQuery(sel model.Selection) string {
	v := url.Values{}
	v.Set("parameter", string(sel.Parameter))
	v.Set("height", string(sel.Height))
	return v.Encode()
}

// statusFor maps a section error to an HTTP status
func statusFor(kind results.Kind) int {
	switch kind {
	case results.KindFileNotFound, results.KindEmptyResult:
		return http.StatusNotFound
	case results.KindInvalidSelection:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) pageOptions(sel model.Selection) dashboard.PageOptions {
	q := selectionQuery(sel)
	return dashboard.PageOptions{
		SelectionURL: func(other model.Selection) string {
			return "/?" + selectionQuery(other)
		},
		ChartURL: "/chart." + s.chartFormat + "?" + q,
		ImageURL: "/image?" + q,
		CSVURL:   "/export.csv?" + q,
		XLSXURL:  "/export.xlsx?" + q,
	}
}

// invalidResult is shown when the query names an unknown parameter or height
func (s *Server) invalidResult(err error) *results.Result {
	sel := s.defaultSel
	spec := s.renderer.Metric(sel.Parameter)
	spec.Summary, spec.Definition = "", ""

	res := &results.Result{Selection: sel, Metric: spec}
	sections := []results.Section{results.SectionChart, results.SectionTable}
	if spec.HasImage {
		sections = append(sections, results.SectionImage)
	}
	for _, sec := range sections {
		res.Errors = append(res.Errors, results.SectionError{
			Section: sec,
			Kind:    results.KindInvalidSelection,
			Message: err.Error(),
		})
	}
	return res
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	var res *results.Result

	sel, err := selectionFromQuery(r, s.defaultSel)
	if err != nil {
		status = http.StatusBadRequest
		res = s.invalidResult(err)
	} else {
		res = s.renderer.Render(sel)
	}

	// Render first so a template failure can still become a 500
	var buf bytes.Buffer
	if err := dashboard.Page(&buf, res, s.pageOptions(res.Selection)); err != nil {
		s.logger.Error("failed to render page", zap.Error(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleChart(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sel, err := selectionFromQuery(r, s.defaultSel)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		res := s.renderer.Render(sel)
		if e := res.Err(results.SectionChart); e != nil {
			s.writeJSONError(w, statusFor(e.Kind), e.Message)
			return
		}

		data, err := chart.Violin(res.Chart, format)
		if err != nil {
			s.logger.Error("failed to draw chart", zap.String("selection", sel.Key()), zap.Error(err))
			s.writeJSONError(w, statusFor(results.Classify(err)), err.Error())
			return
		}

		w.Header().Set("Content-Type", chart.ContentType(format))
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(data)
	}
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	sel, err := selectionFromQuery(r, s.defaultSel)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.images != nil && s.renderer.Metric(sel.Parameter).HasImage {
		var data []byte
		ref, err := s.images.Resolve(sel)
		if err == nil {
			data, err = images.ReadFile(ref)
		}
		if err == nil {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(data)
			return
		}
		s.logger.Debug("serving placeholder image", zap.String("selection", sel.Key()), zap.Error(err))
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(images.Placeholder())
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	sel, err := selectionFromQuery(r, s.defaultSel)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.renderer.Render(sel))
}

func (s *Server) handleExport(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sel, err := selectionFromQuery(r, s.defaultSel)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		res := s.renderer.Render(sel)
		if e := res.Err(results.SectionTable); e != nil {
			s.writeJSONError(w, statusFor(e.Kind), e.Message)
			return
		}

		var buf bytes.Buffer
		if err := export.Write(&buf, res.Table, format, sel.Key()); err != nil {
			s.logger.Error("export failed", zap.String("format", format), zap.Error(err))
			s.writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}

		w.Header().Set("Content-Type", export.ContentType(format))
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(sel, format)))
		_, _ = w.Write(buf.Bytes())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if s.catalog != nil {
		resp["datasets"] = s.catalog.Status()
	}
	s.writeJSON(w, http.StatusOK, resp)
}
