package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"salesdash/internal/core"
	applog "salesdash/internal/log"
	"salesdash/internal/sales"
	"salesdash/internal/services"
	"salesdash/internal/trades"
)

// EmptyMessage is shown when a query selects no records.
const EmptyMessage = "조회된 결과가 없습니다."

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

// statusFor maps service errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	// Fetch timeouts arrive wrapped in a SourceError and must win over it.
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, errBadRequest),
		errors.Is(err, core.ErrEmptyPairCode),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, trades.ErrUnknownKind),
		errors.Is(err, trades.ErrMissingRegion),
		errors.Is(err, trades.ErrInvalidArea):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrSourceUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, services.ErrRefreshUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeServiceError logs err and answers with the mapped status. Source
// failures keep their message so the dashboard can show which upstream failed.
func writeServiceError(w http.ResponseWriter, r *http.Request, component, op string, err error) {
	status := statusFor(err)
	if status >= 500 {
		fields := applog.NewFields()
		fields[applog.FieldStatusCode] = status
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, component, op, fields)
	}
	writeError(w, status, err.Error())
}

// reportResponse is the JSON body of the report endpoint.
type reportResponse struct {
	*services.Report
	// PaidSeries feeds the payment-completion chart; points before the first
	// completed payment are left out.
	PaidSeries []sales.Point `json:"paid_series"`
	Empty      bool          `json:"empty"`
	Message    string        `json:"message,omitempty"`
}

func newReportResponse(rep *services.Report) reportResponse {
	resp := reportResponse{Report: rep, Empty: rep.Empty(), PaidSeries: rep.Result.Series.PaidActivity()}
	if resp.Empty {
		resp.Message = EmptyMessage
	}
	return resp
}

type pairView struct {
	Main   string `json:"main"`
	Option string `json:"option"`
}

func pairViews(pairs []core.ProjectPair) []pairView {
	out := make([]pairView, len(pairs))
	for i, p := range pairs {
		out[i] = pairView{Main: p.Main, Option: p.Option}
	}
	return out
}

type tradesResponse struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
	Empty   bool     `json:"empty"`
	Message string   `json:"message,omitempty"`
}

func newTradesResponse(res trades.Result) tradesResponse {
	resp := tradesResponse{Columns: res.Columns, Rows: res.Rows, Empty: res.Empty()}
	if resp.Columns == nil {
		resp.Columns = []string{}
	}
	if resp.Rows == nil {
		resp.Rows = [][]any{}
	}
	if resp.Empty {
		resp.Message = EmptyMessage
	}
	return resp
}

// writeXLSX renders into a buffer first so a failed export still gets a JSON error.
func writeXLSX(w http.ResponseWriter, r *http.Request, filename string, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		writeServiceError(w, r, applog.ComponentExport, applog.OpExport, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", contentDisposition(filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// contentDisposition gives an ASCII fallback name plus the RFC 5987 UTF-8 name.
func contentDisposition(filename string) string {
	fallback := strings.Map(func(r rune) rune {
		if r > 126 || r < 32 || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, filename)
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, fallback, url.PathEscape(filename))
}

func exportName(prefix, title string, now time.Time) string {
	name := strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(strings.TrimSpace(title))
	if name == "" {
		name = prefix
	} else {
		name = prefix + "_" + name
	}
	return name + "_" + now.Format("20060102") + ".xlsx"
}
