package hirez

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/smitebuilds/recommender/internal/models"
)

// Endpoint base URLs. Conquest data lives on the PC endpoint; the console
// endpoints speak the same protocol but quote their numerics.
const (
	EndpointPC   = "http://api.smitegame.com/smiteapi.svc"
	EndpointPS4  = "http://api.ps4.smitegame.com/smiteapi.svc"
	EndpointXbox = "http://api.xbox.smitegame.com/smiteapi.svc"
)

const responseFormat = "Json"

// ErrNoResult is returned when the API answers 200 with an empty payload,
// which is how it reports privacy-hidden players and unknown IDs.
var ErrNoResult = errors.New("request was successful, but returned no data")

// APIError is a payload-level failure reported through ret_msg.
type APIError struct {
	Method string
	RetMsg string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hirez %s: %s", e.Method, e.RetMsg)
}

// EndpointForName maps a config value ("pc", "ps4", "xbox") to its base URL.
func EndpointForName(name string) (string, error) {
	switch strings.ToLower(name) {
	case "", "pc":
		return EndpointPC, nil
	case "ps4":
		return EndpointPS4, nil
	case "xbox":
		return EndpointXbox, nil
	}
	return "", fmt.Errorf("unknown endpoint %q", name)
}

// Client is an authenticated Hi-Rez SMITE API client. Sessions are created
// lazily and recreated once when the API reports them expired, so callers
// never deal with session management.
type Client struct {
	devID      string
	authKey    string
	lang       int
	baseURL    string
	httpClient *http.Client
	logger     *zap.SugaredLogger

	minInterval time.Duration
	rateMu      sync.Mutex
	nextCall    time.Time

	sessionMu  sync.Mutex
	sessionID  string
	sessionAt  time.Time
	sessionTTL time.Duration

	now func() time.Time
}

// NewClient returns a client for the PC endpoint with default timeouts.
func NewClient(devID, authKey string, lang int, logger *zap.SugaredLogger) *Client {
	return &Client{
		devID:      devID,
		authKey:    authKey,
		lang:       lang,
		baseURL:    EndpointPC,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
		sessionTTL: 9 * time.Minute,
		now:        time.Now,
	}
}

// SetEndpoint switches the base URL. The cached session is dropped because
// sessions are endpoint-scoped.
func (c *Client) SetEndpoint(base string) {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	c.baseURL = base
	c.sessionID = ""
}

// SetSessionTTL overrides how long a cached session is trusted before a new
// one is created. The server side expires sessions after 15 minutes.
func (c *Client) SetSessionTTL(ttl time.Duration) {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	c.sessionTTL = ttl
}

// SetRateLimit spaces authenticated calls so a long collection run stays
// under the daily request quota. Zero disables pacing.
func (c *Client) SetRateLimit(perMinute int) {
	if perMinute <= 0 {
		c.minInterval = 0
		return
	}
	c.minInterval = time.Minute / time.Duration(perMinute)
}

func (c *Client) timestamp() string {
	return c.now().UTC().Format("20060102150405")
}

// signature is the MD5 hex digest of devID + method + authKey + timestamp.
func (c *Client) signature(method, ts string) string {
	sum := md5.Sum([]byte(c.devID + method + c.authKey + ts))
	return hex.EncodeToString(sum[:])
}

func (c *Client) throttle(ctx context.Context) error {
	if c.minInterval <= 0 {
		return nil
	}
	c.rateMu.Lock()
	now := time.Now()
	if c.nextCall.Before(now) {
		c.nextCall = now
	}
	wait := c.nextCall.Sub(now)
	c.nextCall = c.nextCall.Add(c.minInterval)
	c.rateMu.Unlock()

	if wait <= 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("request invalid, auth details may be incorrect (status 404)")
	case http.StatusBadRequest:
		return nil, fmt.Errorf("request invalid, bad request (status 400)")
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}

// ensureSession returns a session ID, creating one if none is cached or the
// cached one is past its TTL.
func (c *Client) ensureSession(ctx context.Context) (string, error) {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	if c.sessionID != "" && c.now().Sub(c.sessionAt) < c.sessionTTL {
		return c.sessionID, nil
	}
	return c.createSessionLocked(ctx)
}

// invalidateSession drops the cached session if it still matches the one a
// failed call used, then returns a fresh one.
func (c *Client) invalidateSession(ctx context.Context, stale string) (string, error) {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	if c.sessionID != stale {
		return c.sessionID, nil
	}
	return c.createSessionLocked(ctx)
}

func (c *Client) createSessionLocked(ctx context.Context) (string, error) {
	ts := c.timestamp()
	u := fmt.Sprintf("%s/createsession%s/%s/%s/%s",
		c.baseURL, responseFormat, c.devID, c.signature("createsession", ts), ts)

	body, err := c.get(ctx, u)
	if err != nil {
		return "", fmt.Errorf("createsession: %w", err)
	}

	var s models.Session
	if err := json.Unmarshal(body, &s); err != nil {
		return "", fmt.Errorf("createsession decode: %w", err)
	}
	if s.SessionID == "" {
		return "", &APIError{Method: "createsession", RetMsg: s.RetMsg}
	}

	c.sessionID = s.SessionID
	c.sessionAt = c.now()
	c.logger.Infow("Created Hi-Rez API session", "session_id", s.SessionID)
	return s.SessionID, nil
}

func (c *Client) buildURL(method, sessionID string, params []string) string {
	ts := c.timestamp()
	parts := []string{
		c.baseURL,
		method + responseFormat,
		c.devID,
		c.signature(method, ts),
		sessionID,
		ts,
	}
	for _, p := range params {
		// Cater for spaces in parameters. Commas stay literal because the
		// batch endpoints take comma-joined ID lists as one segment.
		parts = append(parts, strings.ReplaceAll(p, " ", "%20"))
	}
	return strings.Join(parts, "/")
}

// call performs an authenticated request and decodes the payload into out.
// A response reporting an invalid session is retried once on a new session.
func (c *Client) call(ctx context.Context, method string, out interface{}, params ...string) error {
	if err := c.throttle(ctx); err != nil {
		return err
	}

	sessionID, err := c.ensureSession(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	body, err := c.get(ctx, c.buildURL(method, sessionID, params))
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	if sessionExpired(body) {
		c.logger.Warnw("Session rejected, recreating", "method", method)
		if sessionID, err = c.invalidateSession(ctx, sessionID); err != nil {
			return fmt.Errorf("%s: %w", method, err)
		}
		if body, err = c.get(ctx, c.buildURL(method, sessionID, params)); err != nil {
			return fmt.Errorf("%s: %w", method, err)
		}
	}

	if emptyPayload(body) {
		return fmt.Errorf("%s: %w", method, ErrNoResult)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s decode: %w", method, err)
	}
	return nil
}

// sessionExpired detects the "Invalid session id." ret_msg without needing
// to know the payload shape.
func sessionExpired(body []byte) bool {
	return bytes.Contains(body, []byte("Invalid session id"))
}

// emptyPayload reports whether a 200 response carried no rows.
func emptyPayload(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	switch string(trimmed) {
	case "", "[]", "{}", "null":
		return true
	}
	return false
}
