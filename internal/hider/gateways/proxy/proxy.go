// Package proxy serves the upstream site with blocked items hidden.
//
// HTML responses are parsed, run through an engine session and rendered
// back. Anything else passes through untouched, and so does any HTML that
// cannot be processed: the proxy never fails a page it could have shown.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/common/log"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/dom"
	"github.com/nekohacker591/deviantnotartblacklist/internal/hider/services/engine"
)

// maxDocumentBytes bounds how much HTML is buffered for filtering. Larger
// documents are served as they are.
const maxDocumentBytes = 10 << 20

// Engine is what the proxy needs from services/engine.
type Engine interface {
	Attach(doc *dom.Document) *engine.Session
	Reload(ctx context.Context) error
	Stats() engine.Stats
}

// Options configures a Proxy.
type Options struct {
	Upstream string
	Engine   Engine
	Logger   log.Logger
	// Transport is used for upstream requests; http.DefaultTransport when nil.
	Transport http.RoundTripper
}

// Proxy is an http.Handler.
type Proxy struct {
	engine  Engine
	logger  log.Logger
	reverse *httputil.ReverseProxy
	router  chi.Router
}

// New builds the proxy and its routes.
func New(opts Options) (*Proxy, error) {
	if opts.Engine == nil {
		return nil, errors.New("proxy: engine is required")
	}
	target, err := url.Parse(opts.Upstream)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, errors.New("proxy: upstream must be an absolute url")
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}

	p := &Proxy{engine: opts.Engine, logger: opts.Logger}

	rp := httputil.NewSingleHostReverseProxy(target)
	direct := rp.Director
	rp.Director = func(r *http.Request) {
		direct(r)
		r.Host = target.Host
		// the transport negotiates gzip itself and hands back plain bytes
		r.Header.Del("Accept-Encoding")
	}
	rp.ModifyResponse = p.filter
	rp.ErrorHandler = p.upstreamError
	if opts.Transport != nil {
		rp.Transport = opts.Transport
	}
	p.reverse = rp

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", p.health)
	r.Post("/admin/reload", p.reload)
	r.Handle("/*", rp)
	p.router = r
	return p, nil
}

// ServeHTTP implements http.Handler.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.router.ServeHTTP(w, r)
}

func (p *Proxy) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, p.engine.Stats())
}

func (p *Proxy) reload(w http.ResponseWriter, r *http.Request) {
	if err := p.engine.Reload(r.Context()); err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, p.engine.Stats())
}

func (p *Proxy) upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.Warn(map[string]any{
		"path":       r.URL.Path,
		"request_id": middleware.GetReqID(r.Context()),
		"error":      err.Error(),
	}, "upstream_error")
	w.WriteHeader(http.StatusBadGateway)
}

// filter rewrites HTML responses. Every early return leaves resp as it
// would have been served without the proxy.
func (p *Proxy) filter(resp *http.Response) error {
	if !isHTML(resp) {
		return nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
	resp.Body.Close()
	if err != nil {
		return err
	}
	restore := func() { setBody(resp, raw) }
	if len(raw) > maxDocumentBytes {
		p.logger.Debug(map[string]any{"path": resp.Request.URL.Path}, "document_too_large")
		restore()
		return nil
	}

	doc, err := dom.Parse(bytes.NewReader(raw))
	if err != nil {
		p.logger.Warn(map[string]any{"path": resp.Request.URL.Path, "error": err.Error()}, "document_parse_failed")
		restore()
		return nil
	}

	s := p.engine.Attach(doc)
	defer s.Close()
	if s.Passive() {
		restore()
		return nil
	}

	var out bytes.Buffer
	if err := doc.Render(&out); err != nil {
		p.logger.Warn(map[string]any{"path": resp.Request.URL.Path, "error": err.Error()}, "document_render_failed")
		restore()
		return nil
	}
	setBody(resp, out.Bytes())
	// the rewritten body no longer matches validators computed upstream
	resp.Header.Del("ETag")

	st := s.Stats()
	p.logger.Debug(map[string]any{
		"path":       resp.Request.URL.Path,
		"candidates": st.Scanner.Candidates,
		"hidden":     st.Hidden,
	}, "document_filtered")
	return nil
}

func isHTML(resp *http.Response) bool {
	if enc := resp.Header.Get("Content-Encoding"); enc != "" && enc != "identity" {
		return false
	}
	mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	return err == nil && mt == "text/html"
}

func setBody(resp *http.Response, b []byte) {
	resp.Body = io.NopCloser(bytes.NewReader(b))
	resp.ContentLength = int64(len(b))
	resp.Header.Set("Content-Length", strconv.Itoa(len(b)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
