// Package agents defines the contract every routable agent implements and
// the closed vocabulary of agent names the hub knows about.
package agents

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

// Agent names. The set is closed: the classifier, the registry and the
// tool catalogue only ever deal in these values.
const (
	RAG        = "rag"
	Multimodal = "multimodal"
	NASA       = "nasa"
	General    = "general"
	Weather    = "weather"
	Traffic    = "traffic"
	SQL        = "sql"
	Viz        = "viz"
	CICP       = "cicp"
	IDA        = "ida"
	FHIR       = "fhir"
	Banking    = "banking"
)

// Vocabulary lists every routable agent in canonical order.
var Vocabulary = []string{
	RAG, Multimodal, NASA, General, Weather, Traffic,
	SQL, Viz, CICP, IDA, FHIR, Banking,
}

// Fallback is the agent used whenever nothing else applies.
const Fallback = General

var vocabularySet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Vocabulary))
	for _, name := range Vocabulary {
		m[name] = struct{}{}
	}
	return m
}()

// IsKnown reports whether name belongs to the vocabulary.
func IsKnown(name string) bool {
	_, ok := vocabularySet[name]
	return ok
}

// ErrMissingInput is returned by agents that cannot work without a file or query.
var ErrMissingInput = errors.New("missing required input")

// Request is a single dispatch to one agent.
type Request struct {
	Query     string
	FilePath  string
	History   string
	SessionID string
}

// HasFile reports whether a file is attached to the request.
func (r *Request) HasFile() bool {
	return r != nil && r.FilePath != ""
}

// Response is what an agent returns.
type Response struct {
	Content string

	// HoldSession asks the orchestrator to route the next turn of this
	// session straight back to the same agent (multi-step collection flows).
	HoldSession bool
}

// Text builds a plain response.
func Text(content string) *Response {
	return &Response{Content: content}
}

// Agent is implemented by every handler the hub can dispatch to.
type Agent interface {
	// Name returns the vocabulary name of the agent.
	Name() string

	// Description is a one-line capability summary shown to the classifier.
	Description() string

	// Invoke handles one request. Errors are isolated per agent by the caller.
	Invoke(ctx context.Context, req *Request) (*Response, error)
}

// File extension sets shared by routing, the claims flow and uploads.
var (
	ImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp"}

	DocumentExtensions = []string{".txt", ".md", ".pdf", ".csv", ".json", ".docx", ".xlsx"}
)

// Ext returns the lower-cased extension of path including the dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// IsImage reports whether path has an image extension.
func IsImage(path string) bool {
	return contains(ImageExtensions, Ext(path))
}

// IsDocument reports whether path has a document extension.
func IsDocument(path string) bool {
	return contains(DocumentExtensions, Ext(path))
}

func contains(list []string, v string) bool {
	if v == "" {
		return false
	}
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
