package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestContext carries per-scenario HTTP state against a running server.
// Tokens are minted locally with the server's signing key, so the server
// must be started with the same INHERITX_JWT_* settings.
type TestContext struct {
	baseURL    string
	client     *http.Client
	signingKey []byte
	issuer     string
	audience   string

	identities map[string]string
	actingAs   string

	lastStatus int
	lastBody   []byte
}

func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		baseURL:    strings.TrimRight(baseURL, "/"),
		client:     &http.Client{Timeout: 10 * time.Second},
		signingKey: []byte(envOr("INHERITX_JWT_SIGNING_KEY", "dev-secret-key-change-in-production")),
		issuer:     envOr("INHERITX_JWT_ISSUER", "inheritx"),
		audience:   envOr("INHERITX_JWT_AUDIENCE", "inheritx-registry"),
		identities: map[string]string{},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.identities = map[string]string{}
	tc.actingAs = ""
	tc.lastStatus = 0
	tc.lastBody = nil
}

func (tc *TestContext) SetIdentity(name, address string) {
	tc.identities[name] = address
}

func (tc *TestContext) Identity(name string) (string, error) {
	addr, ok := tc.identities[name]
	if !ok {
		return "", fmt.Errorf("unknown identity %q", name)
	}
	return addr, nil
}

// ActAs selects the identity used for the bearer token on later requests.
// An empty name sends requests without a token.
func (tc *TestContext) ActAs(name string) error {
	if name != "" {
		if _, err := tc.Identity(name); err != nil {
			return err
		}
	}
	tc.actingAs = name
	return nil
}

func (tc *TestContext) token() (string, error) {
	if tc.actingAs == "" {
		return "", nil
	}
	addr := tc.identities[tc.actingAs]
	now := time.Now()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"caller": addr,
		"sub":    addr,
		"iss":    tc.issuer,
		"aud":    []string{tc.audience},
		"iat":    now.Unix(),
		"exp":    now.Add(time.Hour).Unix(),
		"jti":    fmt.Sprintf("e2e-%d", now.UnixNano()),
	}).SignedString(tc.signingKey)
}

func (tc *TestContext) do(method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, tc.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token, err := tc.token()
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) POST(path string, body any) error { return tc.do(http.MethodPost, path, body) }
func (tc *TestContext) PUT(path string, body any) error  { return tc.do(http.MethodPut, path, body) }
func (tc *TestContext) GET(path string) error            { return tc.do(http.MethodGet, path, nil) }
func (tc *TestContext) DELETE(path string) error         { return tc.do(http.MethodDelete, path, nil) }
func (tc *TestContext) GetLastStatusCode() int           { return tc.lastStatus }
func (tc *TestContext) GetLastResponseBody() []byte      { return tc.lastBody }

// GetResponseField reads a top-level field of the last JSON object response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var body map[string]any
	if err := json.Unmarshal(tc.lastBody, &body); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	v, ok := body[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response: %s", field, tc.lastBody)
	}
	return v, nil
}
