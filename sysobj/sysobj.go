// Package sysobj implements the System Objects of spec.md §4.9: named
// external resources routed from a statement's object base, each declaring
// read/write capabilities. The registry/factory shape mirrors the teacher's
// tool-spec registration idiom (runtime/agent/tools): a name maps to a
// constructor, not a live singleton, so one object kind can be instantiated
// differently per statement (e.g. "file" bound to a different path each
// time).
package sysobj

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/arolang/aro/aroerr"
	"github.com/arolang/aro/cliparams"
	"github.com/arolang/aro/format"
	"github.com/arolang/aro/ports"
	"github.com/arolang/aro/value"
	"golang.org/x/time/rate"
)

// Registry is a concrete ports.SystemObjectRegistry.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ports.SystemObjectFactory
}

// New constructs a Registry with no identifiers registered.
func New() *Registry {
	return &Registry{factories: make(map[string]ports.SystemObjectFactory)}
}

// Register installs factory under identifier.
func (r *Registry) Register(identifier string, factory ports.SystemObjectFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[identifier] = factory
}

// Lookup returns the factory registered under identifier.
func (r *Registry) Lookup(identifier string) (ports.SystemObjectFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[identifier]
	return f, ok
}

// --- console / stderr / stdin -------------------------------------------------

type consoleObject struct {
	out io.Writer
	err io.Writer
}

func (c *consoleObject) Capabilities() ports.Capability { return ports.CapabilitySink }
func (c *consoleObject) Read(ctx context.Context, property string) (value.Value, error) {
	return value.Null, aroerr.New(aroerr.KindRuntimeError, "console is a sink, cannot be read")
}

// Write sends v.String() to stdout, or to stderr when the statement's
// specifier qualifier is "error" (spec §4.9). The qualifier is threaded
// through the factory closure rather than Write's signature, since each
// statement constructs its own console handle.
func (c *consoleObject) Write(ctx context.Context, v value.Value) error {
	_, err := fmt.Fprintln(c.out, v.String())
	return err
}

// NewConsoleFactory builds the "console" factory. specifiers[0] == "error"
// routes writes to stderr instead of stdout.
func NewConsoleFactory(stdout, stderr io.Writer) ports.SystemObjectFactory {
	return func(specifiers []string) (ports.SystemObject, error) {
		target := stdout
		if len(specifiers) > 0 && strings.EqualFold(specifiers[0], "error") {
			target = stderr
		}
		return &consoleObject{out: target, err: stderr}, nil
	}
}

type stderrObject struct{ w io.Writer }

func (s *stderrObject) Capabilities() ports.Capability { return ports.CapabilitySink }
func (s *stderrObject) Read(ctx context.Context, property string) (value.Value, error) {
	return value.Null, aroerr.New(aroerr.KindRuntimeError, "stderr is a sink, cannot be read")
}
func (s *stderrObject) Write(ctx context.Context, v value.Value) error {
	_, err := fmt.Fprintln(s.w, v.String())
	return err
}

// NewStderrFactory builds the "stderr" factory.
func NewStderrFactory(w io.Writer) ports.SystemObjectFactory {
	return func(specifiers []string) (ports.SystemObject, error) {
		return &stderrObject{w: w}, nil
	}
}

type stdinObject struct {
	mu     sync.Mutex
	reader *bufio.Reader
}

func (s *stdinObject) Capabilities() ports.Capability { return ports.CapabilitySource }
func (s *stdinObject) Read(ctx context.Context, property string) (value.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line, err := s.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return value.Null, aroerr.Wrap(err, "stdin read failed")
	}
	return value.String(strings.TrimRight(line, "\r\n")), nil
}
func (s *stdinObject) Write(ctx context.Context, v value.Value) error {
	return aroerr.New(aroerr.KindRuntimeError, "stdin is a source, cannot be written")
}

// NewStdinFactory builds the "stdin" factory over r.
func NewStdinFactory(r io.Reader) ports.SystemObjectFactory {
	obj := &stdinObject{reader: bufio.NewReader(r)}
	return func(specifiers []string) (ports.SystemObject, error) { return obj, nil }
}

// --- env -----------------------------------------------------------------

type envObject struct{}

func (e *envObject) Capabilities() ports.Capability { return ports.CapabilitySource }

// Read returns the named environment variable, or the full map when
// property is empty (spec §4.9).
func (e *envObject) Read(ctx context.Context, property string) (value.Value, error) {
	if property == "" {
		out := make(map[string]value.Value)
		for _, kv := range os.Environ() {
			if k, v, ok := strings.Cut(kv, "="); ok {
				out[k] = value.String(v)
			}
		}
		return value.Map(out), nil
	}
	return value.String(os.Getenv(property)), nil
}
func (e *envObject) Write(ctx context.Context, v value.Value) error {
	return aroerr.New(aroerr.KindRuntimeError, "env is a source, cannot be written")
}

// NewEnvFactory builds the "env" factory.
func NewEnvFactory() ports.SystemObjectFactory {
	obj := &envObject{}
	return func(specifiers []string) (ports.SystemObject, error) { return obj, nil }
}

// --- file ------------------------------------------------------------------

type fileObject struct {
	path string
	fmt  format.Format
}

func (f *fileObject) Capabilities() ports.Capability {
	return ports.CapabilitySource | ports.CapabilitySink
}

func (f *fileObject) Read(ctx context.Context, property string) (value.Value, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return value.Null, aroerr.Withf(aroerr.KindFileSystemError, map[string]any{"path": f.path}, "cannot read file %q: %v", f.path, err)
	}
	return format.Deserialize(data, f.fmt)
}

func (f *fileObject) Write(ctx context.Context, v value.Value) error {
	data, err := format.Serialize(v, f.fmt)
	if err != nil {
		return aroerr.Withf(aroerr.KindFileSystemError, map[string]any{"path": f.path}, "cannot serialize for file %q: %v", f.path, err)
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return aroerr.Withf(aroerr.KindFileSystemError, map[string]any{"path": f.path}, "cannot write file %q: %v", f.path, err)
	}
	return nil
}

// validatePath rejects ".." traversal sequences (spec §4.9).
func validatePath(path string) error {
	for _, part := range strings.Split(filepathToSlash(path), "/") {
		if part == ".." {
			return aroerr.Withf(aroerr.KindFileSystemError, map[string]any{"path": path, "subkind": "traversal"},
				"path %q contains a traversal sequence", path)
		}
	}
	return nil
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// NewFileFactory builds the "file" factory. The path comes from the
// statement's first specifier; format is derived from its extension unless
// overridden.
func NewFileFactory() ports.SystemObjectFactory {
	return func(specifiers []string) (ports.SystemObject, error) {
		if len(specifiers) == 0 {
			return nil, aroerr.New(aroerr.KindFileSystemError, "file object requires a path specifier")
		}
		path := specifiers[0]
		if err := validatePath(path); err != nil {
			return nil, err
		}
		return &fileObject{path: path, fmt: format.FromPath(path)}, nil
	}
}

// --- HTTP-handler sources: request/pathParameters/queryParameters/headers/body --

// HTTPContext is the data an HTTP-route feature set execution is given;
// RequestFactories binds the five HTTP-facing system objects against one
// shared context.
type HTTPContext struct {
	Method          string
	Path            string
	PathParameters  map[string]value.Value
	QueryParameters map[string]value.Value
	Headers         map[string]value.Value // keys already lowercased
	Body            value.Value
}

type httpMapObject struct {
	m map[string]value.Value
	caseInsensitive bool
}

func (h *httpMapObject) Capabilities() ports.Capability { return ports.CapabilitySource }
func (h *httpMapObject) Read(ctx context.Context, property string) (value.Value, error) {
	if property == "" {
		return value.Map(h.m), nil
	}
	key := property
	if h.caseInsensitive {
		key = strings.ToLower(property)
	}
	v, ok := h.m[key]
	if !ok {
		return value.Null, false2err(property)
	}
	return v, nil
}
func (h *httpMapObject) Write(ctx context.Context, v value.Value) error {
	return aroerr.New(aroerr.KindRuntimeError, "this object is a source, cannot be written")
}

func false2err(property string) error {
	return aroerr.Withf(aroerr.KindUndefinedVariable, map[string]any{"property": property}, "property %q not present", property)
}

type httpBodyObject struct{ v value.Value }

func (h *httpBodyObject) Capabilities() ports.Capability { return ports.CapabilitySource }
func (h *httpBodyObject) Read(ctx context.Context, property string) (value.Value, error) {
	if property == "" {
		return h.v, nil
	}
	if h.v.Kind != value.KindMap {
		return value.Null, false2err(property)
	}
	v, ok := h.v.Map[property]
	if !ok {
		return value.Null, false2err(property)
	}
	return v, nil
}
func (h *httpBodyObject) Write(ctx context.Context, v value.Value) error {
	return aroerr.New(aroerr.KindRuntimeError, "body is a source, cannot be written")
}

// NewHTTPFactories builds the request/pathParameters/queryParameters/headers/body
// factories bound to hc, registering them under their spec §4.9 identifiers.
func NewHTTPFactories(hc HTTPContext) map[string]ports.SystemObjectFactory {
	requestObj := &httpMapObject{m: map[string]value.Value{
		"method": value.String(hc.Method),
		"path":   value.String(hc.Path),
	}}
	headers := make(map[string]value.Value, len(hc.Headers))
	for k, v := range hc.Headers {
		headers[strings.ToLower(k)] = v
	}
	return map[string]ports.SystemObjectFactory{
		"request":         func([]string) (ports.SystemObject, error) { return requestObj, nil },
		"pathParameters":  func([]string) (ports.SystemObject, error) { return &httpMapObject{m: hc.PathParameters}, nil },
		"queryParameters": func([]string) (ports.SystemObject, error) { return &httpMapObject{m: hc.QueryParameters}, nil },
		"headers":         func([]string) (ports.SystemObject, error) { return &httpMapObject{m: headers, caseInsensitive: true}, nil },
		"body":            func([]string) (ports.SystemObject, error) { return &httpBodyObject{v: hc.Body}, nil },
	}
}

// --- event -----------------------------------------------------------------

type eventObject struct {
	eventType string
	payload   map[string]value.Value
}

func (e *eventObject) Capabilities() ports.Capability { return ports.CapabilitySource }
func (e *eventObject) Read(ctx context.Context, property string) (value.Value, error) {
	if property == "" || property == "type" {
		if property == "type" {
			return value.String(e.eventType), nil
		}
		out := make(map[string]value.Value, len(e.payload)+1)
		for k, v := range e.payload {
			out[k] = v
		}
		out["type"] = value.String(e.eventType)
		return value.Map(out), nil
	}
	v, ok := e.payload[property]
	if !ok {
		return value.Null, false2err(property)
	}
	return v, nil
}
func (e *eventObject) Write(ctx context.Context, v value.Value) error {
	return aroerr.New(aroerr.KindRuntimeError, "event is a source, cannot be written")
}

// NewEventFactory builds the "event" factory bound to one emitted event's
// type and payload (flattened into the object's top level, spec §4.9).
func NewEventFactory(eventType string, payload map[string]value.Value) ports.SystemObjectFactory {
	obj := &eventObject{eventType: eventType, payload: payload}
	return func([]string) (ports.SystemObject, error) { return obj, nil }
}

// --- shutdown ---------------------------------------------------------------

type shutdownObject struct {
	reason   string
	signal   string
	exitCode int
}

func (s *shutdownObject) Capabilities() ports.Capability { return ports.CapabilitySource }
func (s *shutdownObject) Read(ctx context.Context, property string) (value.Value, error) {
	m := map[string]value.Value{
		"reason":   value.String(s.reason),
		"signal":   value.String(s.signal),
		"exitCode": value.Int(int64(s.exitCode)),
	}
	if property == "" {
		return value.Map(m), nil
	}
	v, ok := m[property]
	if !ok {
		return value.Null, false2err(property)
	}
	return v, nil
}
func (s *shutdownObject) Write(ctx context.Context, v value.Value) error {
	return aroerr.New(aroerr.KindRuntimeError, "shutdown is a source, cannot be written")
}

// NewShutdownFactory builds the "shutdown" factory.
func NewShutdownFactory(reason, signal string, exitCode int) ports.SystemObjectFactory {
	obj := &shutdownObject{reason: reason, signal: signal, exitCode: exitCode}
	return func([]string) (ports.SystemObject, error) { return obj, nil }
}

// --- connection / packet (sockets) ------------------------------------------

// SocketContext carries one socket handler invocation's data.
type SocketContext struct {
	RemoteAddr string
	Payload    value.Value
	Send       func(v value.Value) error
}

type connectionObject struct{ addr string }

func (c *connectionObject) Capabilities() ports.Capability { return ports.CapabilitySource }
func (c *connectionObject) Read(ctx context.Context, property string) (value.Value, error) {
	return value.String(c.addr), nil
}
func (c *connectionObject) Write(ctx context.Context, v value.Value) error {
	return aroerr.New(aroerr.KindRuntimeError, "connection is a source, cannot be written")
}

type packetObject struct {
	payload value.Value
	send    func(value.Value) error
}

func (p *packetObject) Capabilities() ports.Capability {
	return ports.CapabilitySource | ports.CapabilitySink
}
func (p *packetObject) Read(ctx context.Context, property string) (value.Value, error) {
	return p.payload, nil
}
func (p *packetObject) Write(ctx context.Context, v value.Value) error {
	if p.send == nil {
		return aroerr.New(aroerr.KindRuntimeError, "packet has no send handle configured")
	}
	return p.send(v)
}

// NewSocketFactories builds the connection/packet factories bound to sc.
func NewSocketFactories(sc SocketContext) map[string]ports.SystemObjectFactory {
	return map[string]ports.SystemObjectFactory{
		"connection": func([]string) (ports.SystemObject, error) { return &connectionObject{addr: sc.RemoteAddr}, nil },
		"packet":     func([]string) (ports.SystemObject, error) { return &packetObject{payload: sc.Payload, send: sc.Send}, nil },
	}
}

// --- parameter (CLI) --------------------------------------------------------

type parameterObject struct{ store *cliparams.Store }

func (p *parameterObject) Capabilities() ports.Capability { return ports.CapabilitySource }
func (p *parameterObject) Read(ctx context.Context, property string) (value.Value, error) {
	if property == "" {
		return value.Map(p.store.All()), nil
	}
	v, ok := p.store.Get(property)
	if !ok {
		return value.Null, false2err(property)
	}
	return v, nil
}
func (p *parameterObject) Write(ctx context.Context, v value.Value) error {
	return aroerr.New(aroerr.KindRuntimeError, "parameter is a source, cannot be written")
}

// NewParameterFactory builds the "parameter" factory over store.
func NewParameterFactory(store *cliparams.Store) ports.SystemObjectFactory {
	obj := &parameterObject{store: store}
	return func([]string) (ports.SystemObject, error) { return obj, nil }
}

// --- url ---------------------------------------------------------------------

// HTTPDoer is the narrow client interface url needs, satisfied by
// *http.Client, so tests can supply a stub transport.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type urlObject struct {
	target string
	client HTTPDoer
}

func (u *urlObject) Capabilities() ports.Capability {
	return ports.CapabilitySource | ports.CapabilitySink
}

func (u *urlObject) Read(ctx context.Context, property string) (value.Value, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.target, nil)
	if err != nil {
		return value.Null, aroerr.Wrap(err, "building GET request")
	}
	req.Header.Set("Accept", "*/*")
	resp, err := u.client.Do(req)
	if err != nil {
		return value.Null, aroerr.Withf(aroerr.KindURLError, map[string]any{"url": u.target}, "GET %s failed: %v", u.target, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return value.Null, aroerr.Wrap(err, "reading response body")
	}
	f := format.FromContentType(resp.Header.Get("Content-Type"))
	return format.Deserialize(data, f)
}

func (u *urlObject) Write(ctx context.Context, v value.Value) error {
	data, err := format.Serialize(v, format.JSON)
	if err != nil {
		return aroerr.Wrap(err, "serializing request body")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.target, strings.NewReader(string(data)))
	if err != nil {
		return aroerr.Wrap(err, "building POST request")
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := u.client.Do(req)
	if err != nil {
		return aroerr.Withf(aroerr.KindURLError, map[string]any{"url": u.target}, "POST %s failed: %v", u.target, err)
	}
	defer resp.Body.Close()
	return nil
}

// rateLimitedClient wraps an *http.Client with a token-bucket admission gate
// (golang.org/x/time/rate), so a feature set issuing many url reads/writes in
// parallel-I/O mode (spec §5) cannot burst past a configured outbound rate.
// The bucket only throttles; the 30s per-request timeout lives on the
// underlying http.Client itself.
type rateLimitedClient struct {
	inner   *http.Client
	limiter *rate.Limiter
}

func (c *rateLimitedClient) Do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return c.inner.Do(req)
}

// defaultURLTimeout is the spec §5/§9 default for url system object requests
// absent an explicit per-statement override.
const defaultURLTimeout = 30 * time.Second

// defaultURLBurstRate bounds outbound url requests issued by parallel-I/O
// feature-set execution (spec §5) to a sustainable rate.
const defaultURLBurstRate = 20 // requests/sec

func defaultHTTPClient() HTTPDoer {
	return &rateLimitedClient{
		inner:   &http.Client{Timeout: defaultURLTimeout},
		limiter: rate.NewLimiter(rate.Limit(defaultURLBurstRate), defaultURLBurstRate),
	}
}

// NewURLFactory builds the "url" factory; client defaults to a rate-limited
// http.Client wrapped with the 30s timeout spec §5 mandates when nil is
// passed.
func NewURLFactory(client HTTPDoer) ports.SystemObjectFactory {
	return func(specifiers []string) (ports.SystemObject, error) {
		if len(specifiers) == 0 {
			return nil, aroerr.New(aroerr.KindURLError, "url object requires a target specifier")
		}
		c := client
		if c == nil {
			c = defaultHTTPClient()
		}
		return &urlObject{target: specifiers[0], client: c}, nil
	}
}
