package gcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveObjectStorageConfigFromEnv(t *testing.T) {
	cases := []struct {
		name     string
		mode     string
		host     string
		want     ObjectStorageMode
		inferred bool
		wantErr  bool
	}{
		{name: "default gcs", want: ObjectStorageModeGCS},
		{name: "explicit gcs ignores host", mode: "gcs", host: "http://fake-gcs:4443", want: ObjectStorageModeGCS},
		{name: "explicit emulator", mode: "gcs_emulator", host: "http://fake-gcs:4443", want: ObjectStorageModeGCSEmulator},
		{name: "host implies emulator", host: "http://fake-gcs:4443", want: ObjectStorageModeGCSEmulator, inferred: true},
		{name: "invalid mode", mode: "local", wantErr: true},
		{name: "emulator without host", mode: "gcs_emulator", wantErr: true},
		{name: "emulator host not a url", mode: "gcs_emulator", host: "fake-gcs:4443", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("OBJECT_STORAGE_MODE", tc.mode)
			t.Setenv("STORAGE_EMULATOR_HOST", tc.host)

			cfg, err := ResolveObjectStorageConfigFromEnv()
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, cfg.Mode)
			assert.Equal(t, tc.inferred, cfg.Inferred)
		})
	}
}

func TestClientOptionsFromEnv(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_JSON", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	assert.Empty(t, ClientOptionsFromEnv())

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/tmp/creds.json")
	assert.Len(t, ClientOptionsFromEnv(), 1)
}
