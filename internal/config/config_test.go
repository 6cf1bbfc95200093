/*
Copyright 2025 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsundsrud/talkboy/internal/playback"
)

func TestReadConfigWithFs(t *testing.T) {
	tests := []struct {
		name        string
		fileContent string
		filePath    string
		wantErr     bool
		wantConfig  *Config
	}{
		{
			name: "valid config",
			fileContent: `
[[project]]
name = "foo"
addr = "127.0.0.1"
port = 8080

[project.playback]

[project.playback.delay]
method = "none"

[[project]]
name = "bar"
port = 8081

[project.playback.delay]
method = "static"
millis = 500

[project.record]
uri = "https://www.google.com"
ignored_status_codes = [500]
`,
			filePath: "/test-config.toml",
			wantErr:  false,
			wantConfig: &Config{
				Projects: []ProjectConfig{
					{
						Name: "foo",
						Addr: "127.0.0.1",
						Port: 8080,
						Playback: &PlaybackConfig{
							Delay: &DelayConfig{Method: "none"},
						},
					},
					{
						Name: "bar",
						Port: 8081,
						Playback: &PlaybackConfig{
							Delay: &DelayConfig{Method: "static", Millis: 500},
						},
						Record: &RecordConfig{
							URI:                "https://www.google.com",
							IgnoredStatusCodes: []int{500},
						},
					},
				},
			},
		},
		{
			name:       "non-existent file",
			filePath:   "/non-existent.toml",
			wantErr:    true,
			wantConfig: nil,
		},
		{
			name:        "invalid toml",
			fileContent: "this is not = [ valid toml",
			filePath:    "/invalid.toml",
			wantErr:     true,
			wantConfig:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if tt.fileContent != "" {
				require.NoError(t, afero.WriteFile(fs, tt.filePath, []byte(tt.fileContent), 0o644))
			}

			got, err := ReadConfigWithFs(fs, tt.filePath)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantConfig, got)
		})
	}
}

func TestProjectConfig_SocketAssignsAscendingPorts(t *testing.T) {
	ports := newNextUnusedPort(DefaultStartPort)

	a := ProjectConfig{Name: "a"}
	addrA, err := a.socket(ports)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", addrA)

	b := ProjectConfig{Name: "b"}
	addrB, err := b.socket(ports)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8081", addrB)
}

func TestProjectConfig_SocketHonorsPinnedPort(t *testing.T) {
	ports := newNextUnusedPort(DefaultStartPort)

	pinned := ProjectConfig{Name: "pinned", Port: 8080}
	addr, err := pinned.socket(ports)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", addr)

	next := ProjectConfig{Name: "next"}
	addrNext, err := next.socket(ports)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8081", addrNext)
}

func TestResolveDelay(t *testing.T) {
	none := playback.DelayOptions{Method: playback.DelayNone}
	assert.Equal(t, none, resolveDelay(nil))
	assert.Equal(t, none, resolveDelay(&DelayConfig{Method: "none"}))
	assert.Equal(t, playback.DelayOptions{Method: playback.DelayStatic, Millis: 500},
		resolveDelay(&DelayConfig{Method: "static", Millis: 500}))
}
