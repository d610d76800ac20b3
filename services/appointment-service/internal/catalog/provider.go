package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var ErrNotFound = errors.New("availability template not found")

// Provider is the read-only availability catalog. The directory service owns
// the data; this side only ever looks templates up.
type Provider interface {
	GetTemplate(ctx context.Context, availabilityID string) (Template, error)
	ListTemplates(ctx context.Context, serviceID string) ([]Template, error)
}

// HTTPProvider reads the catalog from directory-service over HTTP. A gRPC
// provider exists behind the protogen build tag for deployments with
// generated protos.
type HTTPProvider struct {
	baseURL string
	http    *http.Client
}

func NewHTTPProvider(baseURL string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http: &http.Client{
			Timeout:   5 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (p *HTTPProvider) GetTemplate(ctx context.Context, availabilityID string) (Template, error) {
	var tmpl Template
	err := p.getJSON(ctx, "/api/v1/directory/availability/"+url.PathEscape(availabilityID), &tmpl)
	if err != nil {
		return Template{}, err
	}
	return tmpl, nil
}

func (p *HTTPProvider) ListTemplates(ctx context.Context, serviceID string) ([]Template, error) {
	var tmpls []Template
	err := p.getJSON(ctx, "/api/v1/directory/services/"+url.PathEscape(serviceID)+"/availability", &tmpls)
	if err != nil {
		return nil, err
	}
	return tmpls, nil
}

func (p *HTTPProvider) getJSON(ctx context.Context, path string, out any) error {
	if p.baseURL == "" {
		return errors.New("directory url not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("directory returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
