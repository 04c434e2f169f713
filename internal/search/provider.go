package search

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"strings"
	"time"

	"weyfar-booking/internal/config"
	"weyfar-booking/internal/logger"
	"weyfar-booking/internal/models"
)

// Offer is a priced travel option returned by the provider.
type Offer struct {
	ID        string             `json:"id"`
	Type      models.BookingType `json:"type"`
	BasePrice float64            `json:"base_price"`
	Currency  string             `json:"currency"`
	Carrier   string             `json:"carrier,omitempty"`
	Origin    string             `json:"origin,omitempty"`
	Dest      string             `json:"destination,omitempty"`
}

type Query struct {
	Type   models.BookingType
	Origin string
	Dest   string
	Date   time.Time
}

// Provider fetches offers from an external inventory service. When no
// provider URL is configured it serves deterministic local offers instead, so
// the rest of the system works in development without credentials.
type Provider struct {
	client *http.Client
	cfg    config.SearchConfig
	logger *logger.Logger
}

func NewProvider(client *http.Client, cfg config.SearchConfig) *Provider {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Provider{
		client: client,
		cfg:    cfg,
		logger: logger.NewLogger(),
	}
}

// SearchOffers returns priced offers for the query.
func (p *Provider) SearchOffers(ctx context.Context, q Query) ([]Offer, error) {
	if p.cfg.ProviderURL == "" {
		p.logger.Debug("SEARCH", "No provider URL configured, serving local offers")
		return p.localOffers(q), nil
	}

	base := strings.TrimSuffix(p.cfg.ProviderURL, "/")
	url := fmt.Sprintf("%s/v2/shopping/offers?type=%s&origin=%s&destination=%s&date=%s",
		base, q.Type, q.Origin, q.Dest, q.Date.Format("2006-01-02"))
	p.logger.Debug("SEARCH", fmt.Sprintf("Fetching offers: %s", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create offers request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Error("SEARCH", fmt.Sprintf("Offer provider error: %v", err))
		return nil, fmt.Errorf("offer provider error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			p.logger.Error("SEARCH", fmt.Sprintf("Failed to close offers response body: %v", err))
		}
	}(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		p.logger.Warn("SEARCH", fmt.Sprintf("No offers for %s %s-%s", q.Type, q.Origin, q.Dest))
		return []Offer{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		p.logger.Error("SEARCH", fmt.Sprintf("Offer provider returned status: %d", resp.StatusCode))
		return nil, fmt.Errorf("offer provider returned status: %d", resp.StatusCode)
	}

	var payload struct {
		Data []Offer `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode offers response: %w", err)
	}

	p.logger.Info("SEARCH", fmt.Sprintf("Fetched %d offers for %s %s-%s", len(payload.Data), q.Type, q.Origin, q.Dest))
	return payload.Data, nil
}

// localOffers derives a stable set of offers from the query so repeated
// searches price identically.
func (p *Provider) localOffers(q Query) []Offer {
	seed := fnv.New32a()
	seed.Write([]byte(string(q.Type) + q.Origin + q.Dest + q.Date.Format("2006-01-02")))
	base := 200 + float64(seed.Sum32()%800)

	offers := make([]Offer, 0, 3)
	for i := 0; i < 3; i++ {
		offers = append(offers, Offer{
			ID:        fmt.Sprintf("local-%s-%d", q.Type, i+1),
			Type:      q.Type,
			BasePrice: base + float64(i)*75,
			Currency:  "USD",
			Origin:    q.Origin,
			Dest:      q.Dest,
		})
	}
	return offers
}
