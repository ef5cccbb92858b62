// Package ice resolves the STUN/TURN servers handed to peers before they
// start exchanging offers through the relay.
package ice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkglog "github.com/weiawesome/wes-io-live/relay-service/pkg/log"
)

// DefaultSTUN is prepended when no configured server speaks STUN.
const DefaultSTUN = "stun:stun.l.google.com:19302"

const cloudflareBaseURL = "https://rtc.live.cloudflare.com"

// Server is one entry of an RTCConfiguration iceServers list.
type Server struct {
	URLs       []string `json:"urls" mapstructure:"urls"`
	Username   string   `json:"username,omitempty" mapstructure:"username"`
	Credential string   `json:"credential,omitempty" mapstructure:"credential"`
}

// Config holds static servers and optional Cloudflare TURN credentials.
type Config struct {
	Servers   []Server      `mapstructure:"ice_servers"`
	TurnKeyID string        `mapstructure:"turn_key_id"`
	TurnKey   string        `mapstructure:"turn_key"`
	TurnTTL   time.Duration `mapstructure:"turn_ttl"`
}

// TURNProvider issues short-lived TURN credentials.
type TURNProvider interface {
	Credentials(ctx context.Context) (*Server, error)
}

// Resolve returns the configured servers, the TURN server from turn when
// one is given, and a STUN fallback if nothing else speaks STUN. A failing
// provider is logged and skipped.
func Resolve(ctx context.Context, cfg Config, turn TURNProvider) []Server {
	servers := make([]Server, 0, len(cfg.Servers)+2)
	servers = append(servers, cfg.Servers...)

	if turn != nil {
		l := pkglog.Ctx(ctx)
		s, err := turn.Credentials(ctx)
		if err != nil {
			l.Warn().Err(err).Msg("failed to get TURN credentials")
		} else if s != nil {
			l.Info().Int("urls", len(s.URLs)).Msg("TURN server added")
			servers = append(servers, *s)
		}
	}

	if !hasSTUN(servers) {
		servers = append([]Server{{URLs: []string{DefaultSTUN}}}, servers...)
	}
	return servers
}

func hasSTUN(servers []Server) bool {
	for _, s := range servers {
		for _, url := range s.URLs {
			if strings.HasPrefix(url, "stun:") || strings.HasPrefix(url, "stuns:") {
				return true
			}
		}
	}
	return false
}

// CloudflareTURN fetches credentials from the Cloudflare Realtime TURN API.
type CloudflareTURN struct {
	KeyID   string
	Key     string
	TTL     time.Duration
	BaseURL string
	Client  *http.Client
}

// NewCloudflareTURN returns a provider for cfg, or nil when no key is set.
func NewCloudflareTURN(cfg Config) *CloudflareTURN {
	if cfg.TurnKeyID == "" || cfg.TurnKey == "" {
		return nil
	}
	ttl := cfg.TurnTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CloudflareTURN{
		KeyID:   cfg.TurnKeyID,
		Key:     cfg.TurnKey,
		TTL:     ttl,
		BaseURL: cloudflareBaseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type cloudflareTURNResponse struct {
	ICEServers struct {
		URLs       []string `json:"urls"`
		Username   string   `json:"username"`
		Credential string   `json:"credential"`
	} `json:"iceServers"`
}

func (c *CloudflareTURN) Credentials(ctx context.Context) (*Server, error) {
	body, err := json.Marshal(map[string]int64{"ttl": int64(c.TTL / time.Second)})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/turn/keys/%s/credentials/generate", strings.TrimRight(c.BaseURL, "/"), c.KeyID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call TURN API: %w", err)
	}
	defer resp.Body.Close()

	// The API answers 201 on success.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("TURN API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var turnResp cloudflareTURNResponse
	if err := json.NewDecoder(resp.Body).Decode(&turnResp); err != nil {
		return nil, fmt.Errorf("failed to decode TURN response: %w", err)
	}
	if len(turnResp.ICEServers.URLs) == 0 {
		return nil, fmt.Errorf("TURN API returned no urls")
	}

	return &Server{
		URLs:       turnResp.ICEServers.URLs,
		Username:   turnResp.ICEServers.Username,
		Credential: turnResp.ICEServers.Credential,
	}, nil
}
