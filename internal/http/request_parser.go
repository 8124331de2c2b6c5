// Package http provides the JSON and xlsx API of the sales dashboard.
//
// This file holds the parsing and validation of query strings and request
// bodies shared by the handlers.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"salesdash/internal/core"
	"salesdash/internal/trades"
)

const maxBodyBytes = 1 << 20

// errBadRequest marks parse failures that map to 400.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// ReportParams is the parsed query of the report endpoints.
type ReportParams struct {
	Query core.Query
	Types []core.ProductType
}

// ParseReportParams reads project, as_of and the optional comma separated
// types filter.
func ParseReportParams(query url.Values) (ReportParams, error) {
	var p ReportParams
	p.Query.Project = sanitizeInput(query.Get("project"))

	if v := sanitizeInput(query.Get("as_of")); v != "" {
		m, err := core.ParseMonth(v)
		if err != nil {
			return p, badRequest("as_of %q is not a month", v)
		}
		p.Query.AsOf = &m
	}

	for _, v := range query["types"] {
		for _, t := range strings.Split(v, ",") {
			if t = sanitizeInput(t); t != "" {
				p.Types = append(p.Types, core.ProductType(t))
			}
		}
	}
	return p, nil
}

// ParseTradeParams reads the lookup filters. ex_min and ex_max default to the
// 59..85 m² band, since to the end of the month two months back.
func ParseTradeParams(query url.Values) (trades.Params, error) {
	p := trades.Params{
		Kind:    trades.Kind(sanitizeInput(query.Get("kind"))),
		Sido:    sanitizeInput(query.Get("sido")),
		Sigungu: sanitizeInput(query.Get("sigungu")),
		Dong:    sanitizeInput(query.Get("dong")),
	}

	var err error
	if p.AreaMin, err = parseFloatParam(query, "ex_min", trades.DefaultAreaMin); err != nil {
		return p, err
	}
	if p.AreaMax, err = parseFloatParam(query, "ex_max", trades.DefaultAreaMax); err != nil {
		return p, err
	}
	if v := sanitizeInput(query.Get("since")); v != "" {
		since, err := time.Parse("2006-01-02", v)
		if err != nil {
			return p, badRequest("since %q is not a date (YYYY-MM-DD)", v)
		}
		p.Since = since
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return p, nil
}

func parseFloatParam(query url.Values, key string, def float64) (float64, error) {
	v := sanitizeInput(query.Get(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, badRequest("%s %q is not a number", key, v)
	}
	return f, nil
}

// RequestBodyParser reads a JSON or form encoded body once.
type RequestBodyParser struct {
	body     []byte
	err      error
	parsed   bool
	jsonData map[string]any
	formData url.Values
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body as JSON when it looks like an object, as form data otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}
	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}
	if body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(body), &p.jsonData); err != nil {
			p.err = badRequest("invalid JSON body")
		}
		return p.err
	}

	p.formData, p.err = url.ParseQuery(body)
	if p.err != nil {
		p.err = badRequest("invalid form body")
	}
	return p.err
}

// Get returns a trimmed value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput trims whitespace and drops control characters.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		return r
	}, s))
}
