package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

type Client struct {
	Client *github.Client
	HTTP   *http.Client

	// ToolName is sent with SARIF uploads. Empty lets GitHub take the name
	// from the SARIF driver.
	ToolName string
}

type options struct {
	verbose bool
	// log receives one line per API request and response when verbose is
	// set. It writes to stderr so stdout stays free for reports.
	log     *zap.SugaredLogger
	baseURL string
}

type Option func(*options)

func WithVerbose(enabled bool, log *zap.SugaredLogger) Option {
	return func(o *options) {
		o.verbose = enabled
		o.log = log
	}
}

// WithBaseURL points the client at a GitHub Enterprise Server API, e.g.
// https://ghe.example.com/api/v3/.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = strings.TrimSpace(baseURL)
	}
}

// loggingRoundTripper wraps an underlying transport and emits one line per
// request and response (including latency) when verbose logging is enabled.
type loggingRoundTripper struct {
	base http.RoundTripper
	log  *zap.SugaredLogger
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	t.log.Debugw("github api request", "method", req.Method, "url", req.URL.String())
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start).Truncate(time.Millisecond)
	if err != nil {
		t.log.Debugw("github api error", "after", dur, "error", err)
	} else {
		t.log.Debugw("github api response", "status", resp.StatusCode, "text", http.StatusText(resp.StatusCode), "took", dur)
	}
	return resp, err
}

func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("github client: ctx is nil")
	}

	o := &options{}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}
	if o.verbose && o.log == nil {
		o.log = zap.NewNop().Sugar()
	}

	transport := http.DefaultTransport
	if o.verbose {
		transport = &loggingRoundTripper{base: transport, log: o.log}
	}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		transport = &oauth2.Transport{Source: ts, Base: transport}
	}
	// Always provide an http.Client so verbose logging works even without a token.
	tc := &http.Client{Transport: transport}

	gc := github.NewClient(tc)
	if o.baseURL != "" {
		var err error
		gc, err = gc.WithEnterpriseURLs(o.baseURL, o.baseURL)
		if err != nil {
			return nil, fmt.Errorf("github client: invalid base URL %q: %w", o.baseURL, err)
		}
	}

	return &Client{
		Client: gc,
		HTTP:   tc,
	}, nil
}
