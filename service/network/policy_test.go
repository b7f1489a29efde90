package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func custom(t *testing.T, rawURL string) Config {
	t.Helper()
	cfg, err := Resolve(Custom, rawURL)
	require.NoError(t, err)
	return cfg
}

func TestEndpointPolicy_Presets(t *testing.T) {
	var p EndpointPolicy
	for _, cfg := range Presets() {
		if cfg.IsCustom() {
			continue
		}
		assert.NoError(t, p.Check(cfg), cfg.Type)
	}
}

func TestEndpointPolicy_CustomDisabled(t *testing.T) {
	var p EndpointPolicy
	err := p.Check(custom(t, "https://rpc.example.com"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEndpointNotAllowed)
	assert.ErrorIs(t, err, ErrInvalidSelection)
	assert.Contains(t, err.Error(), "disabled")
}

func TestEndpointPolicy_PrivateHosts(t *testing.T) {
	p := EndpointPolicy{AllowCustom: true}

	tests := []struct {
		url     string
		allowed bool
	}{
		{"https://rpc.example.com/?api-key=k", true},
		{"https://8.8.8.8", true},
		{"http://localhost:8899", false},
		{"http://LOCALHOST.:8899", false},
		{"http://rpc.localhost", false},
		{"http://127.0.0.1:8899", false},
		{"http://[::1]:8899", false},
		{"http://10.1.2.3", false},
		{"http://192.168.0.10:8080", false},
		{"http://169.254.169.254/latest/meta-data", false},
		{"http://0.0.0.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := p.Check(custom(t, tt.url))
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrEndpointNotAllowed)
		})
	}
}

func TestEndpointPolicy_AllowPrivateHosts(t *testing.T) {
	p := EndpointPolicy{AllowCustom: true, AllowPrivateHosts: true}
	assert.NoError(t, p.Check(custom(t, "http://127.0.0.1:8899")))
}

func TestEndpointPolicy_PresetList(t *testing.T) {
	hidden := EndpointPolicy{}.Presets()
	require.Len(t, hidden, 4)
	for _, cfg := range hidden {
		assert.False(t, cfg.IsCustom())
	}

	all := EndpointPolicy{AllowCustom: true}.Presets()
	require.Len(t, all, 5)
	assert.Equal(t, Custom, all[4].Type)
}
