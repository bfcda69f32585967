package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Freeeeeet/massage_booking/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadShopDefault(t *testing.T) {
	cat, err := LoadShop("")
	require.NoError(t, err)

	assert.Equal(t, "Asia/Taipei", cat.Location().String())
	assert.Equal(t, 3, cat.MaxPartySize())
	assert.Equal(t, 2, cat.Capacity(model.ResourceFoot))

	svc, err := cat.Lookup("combo100")
	require.NoError(t, err)
	assert.True(t, svc.IsComposite())
}

func TestLoadShopYAML(t *testing.T) {
	path := writeFile(t, "shop.yaml", `
max_party_size: 2
resources:
  body: 1
  foot: 4
services:
  - id: foot30
    label: 腳底按摩30分
    duration: 30
    resource: foot
  - id: duo
    label: 雙人套餐
    duration: 90
    parts:
      - service: foot30
        minutes: 30
      - service: body60
  - id: body60
    label: 全身指壓60分
    duration: 60
    resource: [body]
`)

	cat, err := LoadShop(path)
	require.NoError(t, err)

	// не заданное в файле берётся из умолчаний
	assert.Equal(t, "Asia/Taipei", cat.Location().String())
	assert.Len(t, cat.Practitioners(), 4)

	assert.Equal(t, 2, cat.MaxPartySize())
	assert.Equal(t, 1, cat.Capacity(model.ResourceBody))
	assert.Equal(t, 4, cat.Capacity(model.ResourceFoot))
	assert.Len(t, cat.Services(), 3)

	duo, err := cat.Lookup("duo")
	require.NoError(t, err)
	require.Len(t, duo.Components, 2)
	assert.Equal(t, 60, duo.Components[1].Minutes)

	_, err = cat.Lookup("body90")
	assert.ErrorIs(t, err, model.ErrInvalidService)
}

func TestLoadShopErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"missing file", "", ""},
		{"broken yaml", "broken.yaml", "services: [\n"},
		{"invalid catalog", "bad.yaml", "resources:\n  body: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "absent.yaml")
			if tt.file != "" {
				path = writeFile(t, tt.file, tt.body)
			}
			_, err := LoadShop(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadShopUnknownEventKind(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    model.ResourceKind
		counted bool
	}{
		{"default", "max_party_size: 2\n", model.ResourceBody, true},
		{"explicit foot", "unknown_event_kind: foot\n", model.ResourceFoot, true},
		{"disabled", "unknown_event_kind: \"\"\n", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, err := LoadShop(writeFile(t, "shop.yaml", tt.body))
			require.NoError(t, err)

			kind, counted := cat.UnknownEventKind()
			assert.Equal(t, tt.counted, counted)
			assert.Equal(t, tt.want, kind)
		})
	}

	_, err := LoadShop(writeFile(t, "bad.yaml", "unknown_event_kind: sauna\n"))
	assert.Error(t, err)
}
