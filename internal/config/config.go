package config

import (
	"fmt"
	"os"
	"strings"
)

// Default configuration values (production)
const (
	DefaultDomain = "chat.onrender.com"
	DefaultSTUN   = "stun:stun.l.google.com:19302"
	DefaultTURN   = "" // Optional, empty by default
)

// Config holds client configuration.
type Config struct {
	// Domain is the signaling server domain.
	Domain string

	// WebSocketURL is constructed from domain.
	WebSocketURL string

	// HTTPBaseURL is the REST base for room-link issuance.
	HTTPBaseURL string

	// ICE servers for WebRTC.
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string

	// ForceRelay restricts ICE to relayed candidates.
	ForceRelay bool
}

// Options for loading config with CLI flag overrides.
type Options struct {
	Domain     string
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
	ForceRelay bool
}

func pick(flag, env, fallback string) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return fallback
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	domain := pick(opts.Domain, "CHAT_DOMAIN", DefaultDomain)

	// Local development servers speak plain ws/http.
	wsScheme, httpScheme := "wss", "https"
	if strings.HasPrefix(domain, "localhost") || strings.HasPrefix(domain, "127.0.0.1") {
		wsScheme, httpScheme = "ws", "http"
	}

	cfg := &Config{
		Domain:       domain,
		WebSocketURL: fmt.Sprintf("%s://%s/ws", wsScheme, domain),
		HTTPBaseURL:  fmt.Sprintf("%s://%s", httpScheme, domain),
		STUNServer:   pick(opts.STUNServer, "CHAT_STUN_SERVER", DefaultSTUN),
		TURNServer:   pick(opts.TURNServer, "CHAT_TURN_SERVER", DefaultTURN),
		TURNUser:     pick(opts.TURNUser, "CHAT_TURN_USERNAME", ""),
		TURNPass:     pick(opts.TURNPass, "CHAT_TURN_PASSWORD", ""),
		ForceRelay:   opts.ForceRelay,
	}

	if cfg.ForceRelay && cfg.TURNServer == "" {
		return nil, fmt.Errorf("cannot force relay mode without TURN server configured")
	}
	return cfg, nil
}

// RoomLink returns the shareable URL for a room id.
func (c *Config) RoomLink(roomID string) string {
	return fmt.Sprintf("%s/?room=%s", c.HTTPBaseURL, roomID)
}

// STUNServers returns STUN server URLs as strings.
func (c *Config) STUNServers() []string {
	return []string{c.STUNServer}
}

// TURNServers returns TURN server URLs if configured.
func (c *Config) TURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("%s:3478?transport=udp", c.TURNServer),
		fmt.Sprintf("%s:3478?transport=tcp", c.TURNServer),
	}
}
