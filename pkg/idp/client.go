package idp

import (
	"context"
	"crypto/hmac"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/shopkartlabs/shopkart-backend/pkg/config"
	pkgerrors "github.com/shopkartlabs/shopkart-backend/pkg/errors"
	"github.com/shopkartlabs/shopkart-backend/pkg/logger"
)

var (
	errPublicKeyRequired = errors.New("identity provider public key is required")
	errAPIKeyRequired    = errors.New("identity provider api key is required")
	errLoggerRequired    = errors.New("identity provider logger is required")
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the external identity provider: it verifies session tokens
// locally and fetches user profiles over the provider's REST API.
type Client struct {
	publicKey     *rsa.PublicKey
	issuer        string
	baseURL       string
	apiKey        string
	webhookSecret string
	http          httpDoer
	logger        *logger.Logger
}

// NewClient parses the configured PEM public key and prepares the API client.
func NewClient(cfg config.IdentityConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	pem := strings.TrimSpace(cfg.JWTPublicKeyPEM)
	if pem == "" {
		return nil, errPublicKeyRequired
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
	if err != nil {
		return nil, fmt.Errorf("parsing identity public key: %w", err)
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	return &Client{
		publicKey:     key,
		issuer:        strings.TrimSpace(cfg.Issuer),
		baseURL:       strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/"),
		apiKey:        apiKey,
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
		http:          &http.Client{Timeout: cfg.RequestTimeout},
		logger:        logg,
	}, nil
}

// SessionClaims is the subset of the provider session token read here.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// VerifySessionToken checks the RS256 signature and issuer and returns the
// external user id carried in the subject claim.
func (c *Client) VerifySessionToken(token string) (string, error) {
	claims := &SessionClaims{}
	parserOpts := []jwt.ParserOption{jwt.WithValidMethods([]string{"RS256"})}
	if c.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(c.issuer))
	}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return c.publicKey, nil
	}, parserOpts...)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid session token")
	}
	if claims.Subject == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "session token missing subject")
	}
	return claims.Subject, nil
}

// Profile is the provider-side user record.
type Profile struct {
	ExternalID string
	Email      string
	Name       string
	AvatarURL  string
}

type profilePayload struct {
	ID             string `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ImageURL       string `json:"image_url"`
	EmailAddresses []struct {
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
}

// FetchProfile loads the provider profile for an external user id.
func (c *Client) FetchProfile(ctx context.Context, externalID string) (*Profile, error) {
	if strings.TrimSpace(externalID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "external user id required")
	}

	url := fmt.Sprintf("%s/users/%s", c.baseURL, externalID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build profile request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch identity profile")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "identity profile not found")
	case resp.StatusCode >= 400:
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("identity provider returned status %d", resp.StatusCode))
	}

	var payload profilePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode identity profile")
	}
	return payload.toProfile(), nil
}

func (p *profilePayload) toProfile() *Profile {
	email := ""
	if len(p.EmailAddresses) > 0 {
		email = p.EmailAddresses[0].EmailAddress
	}
	name := strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
	return &Profile{
		ExternalID: p.ID,
		Email:      email,
		Name:       name,
		AvatarURL:  p.ImageURL,
	}
}

// VerifyWebhookSignature checks the provider's HMAC header over the raw body.
func (c *Client) VerifyWebhookSignature(body []byte, header string) bool {
	if c.webhookSecret == "" || header == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}
