package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEndpoint(t *testing.T) {
	testCases := []struct {
		name    string
		raw     string
		want    Endpoint
		wantErr bool
	}{
		{
			name: "tcp4 with port",
			raw:  "tcp4://relay.example.com:7777",
			want: Endpoint{Scheme: "tcp4", Host: "relay.example.com", Port: 7777},
		},
		{
			name: "tcp4 numeric host",
			raw:  "tcp4://127.0.0.1:8000",
			want: Endpoint{Scheme: "tcp4", Host: "127.0.0.1", Port: 8000},
		},
		{
			name: "ws with port",
			raw:  "ws://relay.example.com:9000",
			want: Endpoint{Scheme: "ws", Host: "relay.example.com", Port: 9000},
		},
		{
			name: "ws default port",
			raw:  "ws://relay.example.com",
			want: Endpoint{Scheme: "ws", Host: "relay.example.com", Port: 80},
		},
		{
			name: "wss default port",
			raw:  "wss://relay.example.com",
			want: Endpoint{Scheme: "wss", Host: "relay.example.com", Port: 443},
		},
		{
			name: "surrounding whitespace",
			raw:  "  tcp4://h:1  ",
			want: Endpoint{Scheme: "tcp4", Host: "h", Port: 1},
		},
		{name: "unsupported scheme udp", raw: "udp://h:1", wantErr: true},
		{name: "unsupported scheme http", raw: "http://h:1", wantErr: true},
		{name: "no scheme", raw: "relay.example.com:7777", wantErr: true},
		{name: "tcp4 missing port", raw: "tcp4://relay.example.com", wantErr: true},
		{name: "missing host", raw: "tcp4://:7777", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ep, err := ParseEndpoint(tc.raw)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, ep)
		})
	}
}

func TestEndpointAddrAndURL(t *testing.T) {
	ep := Endpoint{Scheme: "tcp4", Host: "relay.example.com", Port: 7777}
	assert.Equal(t, "relay.example.com:7777", ep.Addr())
	assert.Equal(t, "tcp4://relay.example.com:7777", ep.URL())
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, Default().Validate())

	mutate := func(f func(*Config)) Config {
		c := Default()
		f(&c)
		return c
	}

	testCases := []struct {
		name string
		cfg  Config
	}{
		{"zero client frame size", mutate(func(c *Config) { c.MaxFrameSizeClient = 0 })},
		{"negative server frame size", mutate(func(c *Config) { c.MaxFrameSizeServer = -1 })},
		{"zero client budget", mutate(func(c *Config) { c.MaxReceivesPerTickClient = 0 })},
		{"zero server budget", mutate(func(c *Config) { c.MaxReceivesPerTickServer = 0 })},
		{"zero queue", mutate(func(c *Config) { c.QueueSize = 0 })},
		{"negative send rate", mutate(func(c *Config) { c.SendRatePerSec = -1 })},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.cfg.Validate())
		})
	}
}
