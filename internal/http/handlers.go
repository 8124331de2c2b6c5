package http

import (
	"bytes"
	"net/http"
	"time"

	"salesdash/internal/core"
	"salesdash/internal/export"
	applog "salesdash/internal/log"
	"salesdash/internal/services"
	"salesdash/internal/trades"
)

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.reports.Projects(r.Context())
	if err != nil {
		writeServiceError(w, r, applog.ComponentReport, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (s *Server) buildReport(w http.ResponseWriter, r *http.Request) (*services.Report, bool) {
	params, err := ParseReportParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	rep, err := s.reports.Query(r.Context(), params.Query, params.Types...)
	if err != nil {
		writeServiceError(w, r, applog.ComponentReport, applog.OpBuild, err)
		return nil, false
	}
	s.events.LogReportBuilt(r.Context(), rep.Project, rep.AsOf, rep.Result.Records, rep.Cached)
	return rep, true
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.buildReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newReportResponse(rep))
}

func (s *Server) handleReportXLSX(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.buildReport(w, r)
	if !ok {
		return
	}
	if rep.Empty() {
		writeJSON(w, http.StatusOK, newReportResponse(rep))
		return
	}
	writeXLSX(w, r, exportName("분양현황", rep.Title(), time.Now()), func(buf *bytes.Buffer) error {
		return export.WriteReport(buf, rep.Title(), rep.Result)
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	project := sanitizeInput(r.URL.Query().Get("project"))
	if err := s.reports.RequestRefresh(r.Context(), project, "api"); err != nil {
		writeServiceError(w, r, applog.ComponentReport, applog.OpRefresh, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "queued", "project": project})
}

func (s *Server) handleListPairs(w http.ResponseWriter, r *http.Request) {
	if s.pairs == nil {
		writeError(w, http.StatusServiceUnavailable, "pair registry not configured")
		return
	}
	pairs, err := s.pairs.ListPairs(r.Context())
	if err != nil {
		writeServiceError(w, r, applog.ComponentPairs, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pairs": pairViews(pairs)})
}

func (s *Server) handleAppendPair(w http.ResponseWriter, r *http.Request) {
	if s.pairs == nil {
		writeError(w, http.StatusServiceUnavailable, "pair registry not configured")
		return
	}
	body := NewRequestBodyParser(r)
	if err := body.Parse(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pair := core.ProjectPair{Main: body.Get("main"), Option: body.Get("option")}
	if err := pair.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "본공사 코드와 옵션공사 코드를 모두 입력해 주세요.")
		return
	}

	ref, err := s.pairs.AppendPair(r.Context(), pair)
	if err != nil {
		writeServiceError(w, r, applog.ComponentPairs, applog.OpAppend, err)
		return
	}
	s.events.LogPairAppended(r.Context(), pair.Main, pair.Option, ref)
	writeJSON(w, http.StatusCreated, map[string]any{
		"pair":    pairView{Main: pair.Main, Option: pair.Option},
		"row_ref": ref,
	})
}

func (s *Server) searchTrades(w http.ResponseWriter, r *http.Request) (tradesResponse, bool) {
	if s.trades == nil {
		writeError(w, http.StatusServiceUnavailable, "trades database not configured")
		return tradesResponse{}, false
	}
	params, err := ParseTradeParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return tradesResponse{}, false
	}
	res, err := s.trades.Search(r.Context(), params)
	if err != nil {
		writeServiceError(w, r, applog.ComponentTrades, applog.OpSearch, err)
		return tradesResponse{}, false
	}
	return newTradesResponse(res), true
}

func handleTradeKinds(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"kinds": trades.Kinds()})
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.searchTrades(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTradesXLSX(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.searchTrades(w, r)
	if !ok {
		return
	}
	if resp.Empty {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	kind := sanitizeInput(r.URL.Query().Get("kind"))
	writeXLSX(w, r, exportName("실거래가", kind, time.Now()), func(buf *bytes.Buffer) error {
		return export.WriteRows(buf, kind, resp.Columns, resp.Rows)
	})
}
