package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		env       map[string]string
		wantStore string
		wantErr   bool
	}{
		{"memory by default", map[string]string{}, StoreMemory, false},
		{"postgres when dsn set", map[string]string{"DB_DSN": "postgres://localhost/shop"}, StorePostgres, false},
		{"google without client", map[string]string{"STORE": StoreGoogle}, "", true},
		{"step not dividing an hour", map[string]string{"SEARCH_STEP_MINUTES": "7"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// без .env из рабочего каталога
			t.Chdir(t.TempDir())
			for _, key := range []string{"STORE", "DB_DSN", "SEARCH_STEP_MINUTES", "ADMIN_TOKEN"} {
				t.Setenv(key, "")
			}
			t.Setenv("ADMIN_TOKEN", "s3cret")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStore, cfg.Store)
			assert.Equal(t, "s3cret", cfg.AdminToken)
			assert.Equal(t, 10*time.Minute, cfg.SearchStep)
		})
	}
}
