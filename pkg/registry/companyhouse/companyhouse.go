// Package companyhouse implements registry.CompanyPort against the UK
// Companies House public data API (HTTP Basic auth with the API key as
// username, empty password).
package companyhouse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/merchantiq/docverify/pkg/registry"
	sharederrors "github.com/merchantiq/docverify/pkg/shared/errors"
	sharedhttp "github.com/merchantiq/docverify/pkg/shared/http"
)

// Client implements registry.CompanyPort.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	log        *zap.Logger
	breaker    *gobreaker.CircuitBreaker
}

// NewClient builds a Client against baseURL (e.g.
// https://api.company-information.service.gov.uk) using timeout for every
// call.
func NewClient(baseURL, apiKey string, timeout time.Duration, log *zap.Logger) *Client {
	httpCfg := sharedhttp.RegistryClientConfig()
	if timeout > 0 {
		httpCfg.Timeout = timeout
	}
	return &Client{
		httpClient: sharedhttp.NewClient(httpCfg),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		log:        log,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "registry-companyhouse",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
		}),
	}
}

type profileResponse struct {
	CompanyName   string  `json:"company_name"`
	CompanyNumber string  `json:"company_number"`
	DateOfCreation *string `json:"date_of_creation"`
	RegisteredOfficeAddress struct {
		AddressLine1 string `json:"address_line_1"`
		AddressLine2 string `json:"address_line_2"`
		Locality     string `json:"locality"`
		PostalCode   string `json:"postal_code"`
		Country      string `json:"country"`
	} `json:"registered_office_address"`
}

type officersResponse struct {
	Items []officerItem `json:"items"`
}

type officerItem struct {
	Name        string `json:"name"`
	Role        string `json:"officer_role"`
	AppointedOn string `json:"appointed_on"`
	DateOfBirth *struct {
		Month int `json:"month"`
		Year  int `json:"year"`
	} `json:"date_of_birth"`
}

// GetProfile fetches and normalizes a company's registry profile.
func (c *Client) GetProfile(ctx context.Context, companyNumber string) (*registry.CompanyProfile, error) {
	var raw map[string]interface{}
	var parsed profileResponse

	if err := c.get(ctx, fmt.Sprintf("/company/%s", companyNumber), &raw, &parsed); err != nil {
		c.log.Warn("companies house profile lookup failed, leaving registry fields blank", zap.Error(err), zap.String("company_number", companyNumber))
		return nil, nil
	}

	address := composeAddress(
		parsed.RegisteredOfficeAddress.AddressLine1,
		parsed.RegisteredOfficeAddress.AddressLine2,
		parsed.RegisteredOfficeAddress.Locality,
		parsed.RegisteredOfficeAddress.PostalCode,
		parsed.RegisteredOfficeAddress.Country,
	)

	officers, err := c.GetOfficers(ctx, companyNumber)
	if err != nil {
		officers = nil
	}

	return &registry.CompanyProfile{
		Name:         parsed.CompanyName,
		Number:       parsed.CompanyNumber,
		Address:      address,
		CreationDate: parsed.DateOfCreation,
		Officers:     officers,
		Raw:          raw,
	}, nil
}

// GetOfficers fetches a company's officer listing, truncated to the top 10
// entries by listing order per §4.5.
func (c *Client) GetOfficers(ctx context.Context, companyNumber string) ([]registry.Officer, error) {
	var raw map[string]interface{}
	var parsed officersResponse
	if err := c.get(ctx, fmt.Sprintf("/company/%s/officers", companyNumber), &raw, &parsed); err != nil {
		return nil, err
	}

	items := parsed.Items
	if len(items) == 0 && raw != nil {
		// The typed shape missed every item (a schema drift the docs don't
		// mention); fall back to a defensive raw-field extraction so a
		// director match still has names to compare against.
		if names, err := extractStrings(".items[].name", raw); err == nil {
			for _, name := range names {
				items = append(items, officerItem{Name: name})
			}
		}
	}
	if len(items) > 10 {
		items = items[:10]
	}

	officers := make([]registry.Officer, 0, len(items))
	for _, item := range items {
		var dob *string
		if item.DateOfBirth != nil {
			s := fmt.Sprintf("%04d-%02d", item.DateOfBirth.Year, item.DateOfBirth.Month)
			dob = &s
		}
		appointedOn := item.AppointedOn
		officers = append(officers, registry.Officer{
			Name:        item.Name,
			DateOfBirth: dob,
			Role:        item.Role,
			AppointedOn: &appointedOn,
		})
	}
	return officers, nil
}

func (c *Client) get(ctx context.Context, path string, rawOut *map[string]interface{}, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return sharederrors.FailedToWithDetails("build companies house request", "companyhouse", path, err)
	}
	req.SetBasicAuth(c.apiKey, "")

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return nil, sharederrors.FailedToWithDetails("lookup company", "companyhouse", path, nil)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, sharederrors.FailedToWithDetails("call companies house", "companyhouse", fmt.Sprintf("status %d", resp.StatusCode), nil)
		}
		var body json.RawMessage
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, sharederrors.ParseError("companies house response", "json", err)
		}
		return body, nil
	})
	if err != nil {
		return err
	}

	body := result.(json.RawMessage)
	if rawOut != nil {
		_ = json.Unmarshal(body, rawOut)
	}
	return json.Unmarshal(body, out)
}

func composeAddress(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ", ")
}
