// Package tracing sets up optional Zipkin tracing for inbound and outbound HTTP.
package tracing

import (
	"fmt"
	"net/http"
	"time"

	"github.com/openzipkin/zipkin-go"
	zipkinhttp "github.com/openzipkin/zipkin-go/middleware/http"
	"github.com/openzipkin/zipkin-go/reporter"
	httpreporter "github.com/openzipkin/zipkin-go/reporter/http"
)

// Tracing bundles the traced HTTP client, the server middleware and the
// reporter that must be closed on shutdown.
type Tracing struct {
	Client     *http.Client
	Middleware func(http.Handler) http.Handler
	reporter   reporter.Reporter
}

// Close flushes pending spans.
func (t *Tracing) Close() error {
	if t.reporter == nil {
		return nil
	}
	return t.reporter.Close()
}

// Init returns a Tracing for the collector at address (host:port). An empty
// address disables tracing: the client is plain and the middleware is a
// pass-through. timeout bounds outbound requests; zero means no limit.
func Init(address, serviceName, hostPort string, timeout time.Duration) (*Tracing, error) {
	base := &http.Client{Timeout: timeout}
	if address == "" {
		return &Tracing{
			Client:     base,
			Middleware: func(next http.Handler) http.Handler { return next },
		}, nil
	}

	rep := httpreporter.NewReporter("http://" + address + "/api/v2/spans")

	endpoint, err := zipkin.NewEndpoint(serviceName, hostPort)
	if err != nil {
		rep.Close()
		return nil, fmt.Errorf("creating local endpoint: %w", err)
	}

	tracer, err := zipkin.NewTracer(rep, zipkin.WithLocalEndpoint(endpoint))
	if err != nil {
		rep.Close()
		return nil, fmt.Errorf("creating tracer: %w", err)
	}

	serverMiddleware := zipkinhttp.NewServerMiddleware(
		tracer, zipkinhttp.TagResponseSize(true),
	)

	client, err := zipkinhttp.NewClient(tracer, zipkinhttp.WithClient(base), zipkinhttp.ClientTrace(true))
	if err != nil {
		rep.Close()
		return nil, fmt.Errorf("creating traced client: %w", err)
	}

	return &Tracing{
		Client:     client.Client,
		Middleware: serverMiddleware,
		reporter:   rep,
	}, nil
}
