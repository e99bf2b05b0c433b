package pricing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venslabs/sbomwatch/pkg/meter"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantErr    bool
		currency   string
		rate       float64
		wantPolicy meter.Policy
	}{
		{
			name:       "full",
			content:    "currency: USD\nperRequest: 0.1\ncountWhere: false\n",
			currency:   "USD",
			rate:       0.1,
			wantPolicy: meter.PolicyRoundTrips,
		},
		{
			name:       "defaults",
			content:    "{}\n",
			currency:   DefaultCurrency,
			rate:       DefaultPerRequest,
			wantPolicy: meter.PolicyEveryCall,
		},
		{
			name:       "free",
			content:    "perRequest: 0\n",
			currency:   DefaultCurrency,
			rate:       0,
			wantPolicy: meter.PolicyEveryCall,
		},
		{
			name:    "negative",
			content: "perRequest: -1\n",
			wantErr: true,
		},
		{
			name:    "malformed",
			content: "perRequest: [\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.content))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.currency, cfg.Currency)
			assert.InDelta(t, tt.rate, cfg.Rate(), 1e-9)
			assert.Equal(t, tt.wantPolicy, cfg.Policy())
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEstimate(t *testing.T) {
	cost := Default().Estimate(10)
	assert.Equal(t, DefaultCurrency, cost.Currency)
	assert.InDelta(t, 0.5, cost.Weekly, 1e-9)
	assert.InDelta(t, 2.0, cost.Monthly, 1e-9)
	assert.InDelta(t, 26.0, cost.Yearly, 1e-9)

	var nilCfg *Config
	assert.Equal(t, meter.PolicyEveryCall, nilCfg.Policy())
	assert.InDelta(t, DefaultPerRequest, nilCfg.Rate(), 1e-9)
}
