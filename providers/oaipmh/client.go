// Package oaipmh ist ein OAI-PMH 2.0 Client für die Verben, die der Harvester braucht:
// Identify, ListIdentifiers und GetRecord.
package oaipmh

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethgrid/pester"
	"go.uber.org/zap"
)

// Format der from/until Argumente (Sekundengranularität, UTC).
const DateFormat = "2006-01-02T15:04:05Z"

// Options steuern Authentifizierung und Transport eines Clients.
type Options struct {
	Username     string
	Password     string
	ForceHTTPGet bool
	MaxRetries   int
	Timeout      time.Duration
	Registry     *Registry
}

// Client spricht mit genau einem OAI-PMH-Endpunkt.
type Client struct {
	baseURL  string
	opts     Options
	http     *pester.Client
	registry *Registry
	logger   *zap.Logger
}

// NewClient erstellt einen Client für baseURL.
func NewClient(baseURL string, opts Options, logger *zap.Logger) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid OAI-PMH url %q: %w", baseURL, err)
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	registry := opts.Registry
	if registry == nil {
		registry = NewRegistry()
	}

	hc := pester.New()
	hc.Backoff = pester.ExponentialBackoff
	hc.MaxRetries = opts.MaxRetries
	hc.RetryOnHTTP429 = true
	hc.Timeout = opts.Timeout

	return &Client{
		baseURL:  baseURL,
		opts:     opts,
		http:     hc,
		registry: registry,
		logger:   logger.With(zap.String("oai_url", baseURL)),
	}, nil
}

// Identify ruft das Identify-Verb auf (Lebenszeichen des Endpunkts).
func (c *Client) Identify(ctx context.Context) (*Identify, error) {
	res, _, err := c.do(ctx, "Identify", url.Values{})
	if err != nil {
		return nil, err
	}
	if res.Identify == nil {
		return nil, &ProtocolError{Code: CodeBadResponse, Message: "Identify response without payload"}
	}
	return res.Identify, nil
}

// ListIdentifiers listet alle Header und folgt dabei Resumption-Tokens. fn wird pro
// Header aufgerufen; liefert fn false, endet die Aufzählung. noRecordsMatch ist eine
// leere Liste und kein Fehler.
func (c *Client) ListIdentifiers(ctx context.Context, args ListArgs, fn func(Header) bool) error {
	vals := url.Values{"metadataPrefix": {args.Prefix}}
	if args.From != nil {
		vals.Set("from", args.From.UTC().Format(DateFormat))
	}
	if args.Until != nil {
		vals.Set("until", args.Until.UTC().Format(DateFormat))
	}
	if args.Set != "" {
		vals.Set("set", args.Set)
	}

	for page := 1; ; page++ {
		res, _, err := c.do(ctx, "ListIdentifiers", vals)
		if IsCode(err, CodeNoRecordsMatch) {
			return nil
		}
		if err != nil {
			return err
		}
		if res.ListIdentifiers == nil {
			return &ProtocolError{Code: CodeBadResponse, Message: "ListIdentifiers response without payload"}
		}

		c.logger.Debug("ListIdentifiers page",
			zap.Int("page", page),
			zap.Int("headers", len(res.ListIdentifiers.Headers)))

		for _, h := range res.ListIdentifiers.Headers {
			if !fn(h) {
				return nil
			}
		}

		token := strings.TrimSpace(res.ListIdentifiers.ResumptionToken.Token)
		if token == "" {
			return nil
		}
		vals = url.Values{"resumptionToken": {token}}
	}
}

// GetRecord holt einen Datensatz und dekodiert dessen Metadaten mit dem Reader des Präfixes.
func (c *Client) GetRecord(ctx context.Context, identifier, prefix string) (*Record, error) {
	reader, ok := c.registry.Reader(prefix)
	if !ok {
		return nil, &ProtocolError{
			Code:    CodeCannotDisseminateFormat,
			Message: fmt.Sprintf("no metadata reader registered for %q", prefix),
		}
	}

	res, raw, err := c.do(ctx, "GetRecord", url.Values{
		"identifier":     {identifier},
		"metadataPrefix": {prefix},
	})
	if err != nil {
		return nil, err
	}
	if res.GetRecord == nil {
		return nil, &ProtocolError{Code: CodeBadResponse, Message: "GetRecord response without payload"}
	}

	rec := &Record{Header: res.GetRecord.Record.Header, Raw: string(raw)}
	if rec.Header.Deleted() {
		return rec, nil
	}
	md, err := reader.Read(res.GetRecord.Record.Metadata.Inner)
	if err != nil {
		return nil, err
	}
	rec.Metadata = md
	return rec, nil
}

// do führt eine Anfrage aus (POST-Formular oder GET) und dekodiert den Envelope.
func (c *Client) do(ctx context.Context, verb string, vals url.Values) (*Response, []byte, error) {
	vals.Set("verb", verb)

	var (
		req *http.Request
		err error
	)
	if c.opts.ForceHTTPGet {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+vals.Encode(), nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(vals.Encode()))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, nil, err
	}
	if c.opts.Username != "" {
		req.SetBasicAuth(c.opts.Username, c.opts.Password)
	}

	c.logger.Debug("OAI-PMH request", zap.String("verb", verb), zap.String("method", req.Method), zap.String("args", vals.Encode()))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, &HTTPError{URL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &HTTPError{URL: c.baseURL, StatusCode: resp.StatusCode, Status: resp.Status, Header: resp.Header, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, body, &HTTPError{
			URL:        c.baseURL,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Header:     resp.Header,
			Body:       string(body),
		}
	}

	res := &Response{}
	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(res); err != nil {
		return nil, body, &ProtocolError{Code: CodeBadResponse, Message: err.Error()}
	}
	if res.Error != nil {
		return nil, body, &ProtocolError{Code: res.Error.Code, Message: strings.TrimSpace(res.Error.Message)}
	}
	return res, body, nil
}
