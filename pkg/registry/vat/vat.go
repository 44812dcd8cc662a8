// Package vat implements registry.VATPort against HMRC's VAT registration
// number lookup API, authenticated either by a statically configured
// server token or an OAuth2 client-credentials token cached until 5
// minutes before expiry.
package vat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/merchantiq/docverify/pkg/registry"
	sharederrors "github.com/merchantiq/docverify/pkg/shared/errors"
	sharedhttp "github.com/merchantiq/docverify/pkg/shared/http"
)

// tokenEarlyRefresh is how long before expiry a cached token is treated as
// stale, per §4.5's "cached until 5 minutes before expiry".
const tokenEarlyRefresh = 5 * time.Minute

// Client implements registry.VATPort.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	serverToken string
	oauthCfg    *clientcredentials.Config
	log         *zap.Logger
	breaker     *gobreaker.CircuitBreaker

	mu    sync.Mutex
	token *oauth2.Token
}

// NewClient builds a Client. If serverToken is non-empty it is used as a
// static bearer token and oauthCfg is ignored; otherwise oauthCfg drives
// OAuth2 client-credentials token acquisition.
func NewClient(baseURL, serverToken string, oauthCfg *clientcredentials.Config, log *zap.Logger) *Client {
	return &Client{
		httpClient:  sharedhttp.NewClient(sharedhttp.RegistryClientConfig()),
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		serverToken: serverToken,
		oauthCfg:    oauthCfg,
		log:         log,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "registry-vat",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
		}),
	}
}

type vatResponse struct {
	Target struct {
		Name             string `json:"name"`
		VATNumber        string `json:"vatNumber"`
		Address          struct {
			Line1 string `json:"line1"`
		} `json:"address"`
		RegistrationDate *string `json:"effectiveRegistrationDate"`
	} `json:"target"`
}

// CheckVAT looks up vatNumber. A 404 response returns a non-nil record with
// Valid=false. A 401 invalidates the cached token and returns (nil, nil)
// per §4.5's "never fails the job" contract.
func (c *Client) CheckVAT(ctx context.Context, vatNumber string) (*registry.VATRecord, error) {
	token, err := c.authToken(ctx)
	if err != nil {
		c.log.Warn("vat registry token acquisition failed, leaving registry fields blank", zap.Error(err))
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/organisations/vat/%s/information", c.baseURL, vatNumber), nil)
	if err != nil {
		return nil, nil
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.hmrc.1.0+json")

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusNotFound:
			return &registry.VATRecord{Valid: false}, nil
		case http.StatusUnauthorized:
			c.invalidateToken()
			return nil, sharederrors.AuthenticationError("vat registry rejected token")
		case http.StatusOK:
			var parsed vatResponse
			if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
				return nil, sharederrors.ParseError("vat registry response", "json", err)
			}
			return &registry.VATRecord{
				Name:             parsed.Target.Name,
				Address:          parsed.Target.Address.Line1,
				RegistrationDate: parsed.Target.RegistrationDate,
				Valid:            true,
			}, nil
		default:
			return nil, sharederrors.FailedToWithDetails("call vat registry", "vat", fmt.Sprintf("status %d", resp.StatusCode), nil)
		}
	})
	if err != nil {
		c.log.Warn("vat registry lookup failed, leaving registry fields blank", zap.Error(err), zap.String("vat_number", vatNumber))
		return nil, nil
	}
	return result.(*registry.VATRecord), nil
}

func (c *Client) authToken(ctx context.Context) (string, error) {
	if c.serverToken != "" {
		return c.serverToken, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != nil && time.Until(c.token.Expiry) > tokenEarlyRefresh {
		return c.token.AccessToken, nil
	}

	token, err := c.oauthCfg.Token(ctx)
	if err != nil {
		return "", sharederrors.AuthenticationError("oauth2 client-credentials exchange failed: " + err.Error())
	}
	c.token = token
	return token.AccessToken, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = nil
}
