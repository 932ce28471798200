package config

import (
	"strings"
	"testing"
)

func TestLoadPriority(t *testing.T) {
	t.Setenv("CHAT_DOMAIN", "env.example.com")
	t.Setenv("CHAT_STUN_SERVER", "stun:env.example.com:3478")

	// Flags beat environment.
	cfg, err := Load(Options{Domain: "flag.example.com"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Domain != "flag.example.com" {
		t.Errorf("domain = %q, want flag value", cfg.Domain)
	}

	// Environment beats defaults.
	if cfg.STUNServer != "stun:env.example.com:3478" {
		t.Errorf("stun = %q, want env value", cfg.STUNServer)
	}

	// Defaults fill whatever is left.
	t.Setenv("CHAT_DOMAIN", "")
	t.Setenv("CHAT_STUN_SERVER", "")
	cfg, err = Load(Options{})
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.Domain != DefaultDomain || cfg.STUNServer != DefaultSTUN {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadSchemes(t *testing.T) {
	cfg, err := Load(Options{Domain: "localhost:3000"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WebSocketURL != "ws://localhost:3000/ws" {
		t.Errorf("ws url = %q", cfg.WebSocketURL)
	}
	if cfg.HTTPBaseURL != "http://localhost:3000" {
		t.Errorf("http url = %q", cfg.HTTPBaseURL)
	}

	cfg, err = Load(Options{Domain: "chat.example.com"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !strings.HasPrefix(cfg.WebSocketURL, "wss://") || !strings.HasPrefix(cfg.HTTPBaseURL, "https://") {
		t.Errorf("deployed domain must use tls schemes: %q %q", cfg.WebSocketURL, cfg.HTTPBaseURL)
	}
	if got := cfg.RoomLink("movie-night"); got != "https://chat.example.com/?room=movie-night" {
		t.Errorf("room link = %q", got)
	}
}

func TestForceRelayRequiresTURN(t *testing.T) {
	if _, err := Load(Options{ForceRelay: true}); err == nil {
		t.Fatal("relay without TURN accepted")
	}
	if _, err := Load(Options{ForceRelay: true, TURNServer: "turn:turn.example.com"}); err != nil {
		t.Fatalf("relay with TURN rejected: %v", err)
	}
}

func TestTURNServerExpansion(t *testing.T) {
	cfg := &Config{TURNServer: "turn:turn.example.com"}
	urls := cfg.TURNServers()
	if len(urls) != 2 {
		t.Fatalf("urls = %v", urls)
	}
	if !strings.Contains(urls[0], "transport=udp") || !strings.Contains(urls[1], "transport=tcp") {
		t.Errorf("transports missing: %v", urls)
	}

	if (&Config{}).TURNServers() != nil {
		t.Error("no TURN configured should yield nil")
	}
}
