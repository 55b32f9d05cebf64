package fhir

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/hrygo/agenthub/ai/internal/httpapi"
)

// Validation is the outcome of $validate for one resource.
type Validation struct {
	Type     string
	Valid    bool
	Errors   []string
	Warnings []string
}

// Creation is the outcome of creating one resource.
type Creation struct {
	Type     string
	OK       bool
	ServerID string
	URL      string
	Message  string
}

// server talks to a FHIR R4 REST endpoint.
type server struct {
	base string
	http *httpapi.Client
}

func newServer(base string) *server {
	return &server{
		base: strings.TrimRight(base, "/"),
		http: httpapi.New("FHIR", httpapi.WithTimeout(DefaultTimeout)),
	}
}

// post returns the reply body for both 2xx and error statuses; FHIR servers
// describe failures in an OperationOutcome.
func (s *server) post(ctx context.Context, url string, body any) (gjson.Result, int, error) {
	res, err := s.http.PostJSON(ctx, url, body)
	if err == nil {
		return res, 200, nil
	}
	var se *httpapi.StatusError
	if errors.As(err, &se) && gjson.ValidBytes(se.Body) {
		return gjson.ParseBytes(se.Body), se.StatusCode, nil
	}
	return gjson.Result{}, 0, err
}

func (s *server) Validate(ctx context.Context, r Resource) Validation {
	v := Validation{Type: r.Type()}
	outcome, status, err := s.post(ctx, fmt.Sprintf("%s/%s/$validate", s.base, v.Type), r)
	if err != nil {
		v.Errors = []string{fmt.Sprintf("Validation request failed: %v", err)}
		return v
	}
	for _, issue := range outcome.Get("issue").Array() {
		diag := issue.Get("diagnostics").String()
		switch issue.Get("severity").String() {
		case "error", "fatal":
			if diag == "" {
				diag = "Unknown error"
			}
			v.Errors = append(v.Errors, diag)
		case "warning":
			v.Warnings = append(v.Warnings, diag)
		}
	}
	if status >= 300 && len(v.Errors) == 0 {
		v.Errors = []string{issueText(outcome, status)}
	}
	v.Valid = len(v.Errors) == 0
	return v
}

func (s *server) Create(ctx context.Context, r Resource) Creation {
	c := Creation{Type: r.Type()}
	body, status, err := s.post(ctx, fmt.Sprintf("%s/%s", s.base, c.Type), r.withoutID())
	switch {
	case err != nil:
		c.Message = fmt.Sprintf("POST failed: %v", err)
	case status >= 300:
		c.Message = issueText(body, status)
	default:
		c.OK = true
		c.ServerID = body.Get("id").String()
		if c.ServerID == "" {
			c.ServerID = "?"
		}
		c.URL = fmt.Sprintf("%s/%s/%s", s.base, c.Type, c.ServerID)
		c.Message = fmt.Sprintf("Created %s/%s", c.Type, c.ServerID)
	}
	return c
}

// Transaction posts a transaction or batch Bundle to the server root and
// returns the locations of the created entries.
func (s *server) Transaction(ctx context.Context, bundle Resource) ([]string, error) {
	body, status, err := s.post(ctx, s.base, bundle)
	if err != nil {
		return nil, fmt.Errorf("bundle post: %w", err)
	}
	if status >= 300 {
		return nil, errors.New(issueText(body, status))
	}
	var locations []string
	for _, e := range body.Get("entry").Array() {
		locations = append(locations, e.Get("response.location").String())
	}
	return locations, nil
}

func issueText(body gjson.Result, status int) string {
	var diags []string
	for _, issue := range body.Get("issue").Array() {
		if sev := issue.Get("severity").String(); sev == "error" || sev == "fatal" {
			diags = append(diags, issue.Get("diagnostics").String())
		}
	}
	if msg := strings.Join(diags, "; "); msg != "" {
		return msg
	}
	return fmt.Sprintf("HTTP %d", status)
}
