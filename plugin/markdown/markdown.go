// Package markdown renders agent replies to HTML.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// Service converts Markdown to HTML.
type Service interface {
	RenderHTML(source []byte) (string, error)
}

type options struct {
	hardWraps bool
	unsafe    bool
}

// Option configures the service.
type Option func(*options)

// WithHardWraps renders single newlines as <br>.
func WithHardWraps() Option {
	return func(o *options) { o.hardWraps = true }
}

// WithUnsafeHTML passes raw HTML in the source through unchanged.
func WithUnsafeHTML() Option {
	return func(o *options) { o.unsafe = true }
}

type service struct {
	md goldmark.Markdown
}

// NewService creates a GitHub-flavoured renderer (tables, strikethrough,
// task lists and autolinks).
func NewService(opts ...Option) Service {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var htmlOpts []renderer.Option
	if o.hardWraps {
		htmlOpts = append(htmlOpts, html.WithHardWraps())
	}
	if o.unsafe {
		htmlOpts = append(htmlOpts, html.WithUnsafe())
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(htmlOpts...),
	)
	return &service{md: md}
}

func (s *service) RenderHTML(source []byte) (string, error) {
	var buf bytes.Buffer
	if err := s.md.Convert(source, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
