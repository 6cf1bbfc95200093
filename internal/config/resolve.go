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
	"net/url"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/bsundsrud/talkboy/internal/loader"
	"github.com/bsundsrud/talkboy/internal/playback"
	"github.com/bsundsrud/talkboy/internal/proxy"
)

// ResolveProxyServers builds one recording Server per project that has a
// [project.record] section.
func (c *Config) ResolveProxyServers(archiveDir string, log zerolog.Logger) ([]*proxy.Server, error) {
	ports := newNextUnusedPort(DefaultStartPort)
	var servers []*proxy.Server
	for _, p := range c.Projects {
		if p.Record == nil {
			continue
		}
		addr, err := p.socket(ports)
		if err != nil {
			return nil, errors.Wrapf(err, "config: project %s", p.Name)
		}
		target, err := url.Parse(p.Record.URI)
		if err != nil {
			return nil, errors.Wrapf(err, "config: project %s has invalid record.uri", p.Name)
		}
		s, err := proxy.NewServer(p.Name, addr, target, archiveDir, p.Record.IgnoredStatusCodes, p.Record.Secrets, log)
		if err != nil {
			return nil, errors.Wrapf(err, "config: project %s", p.Name)
		}
		servers = append(servers, s)
	}
	return servers, nil
}

// ResolvePlaybackServers builds one playback Server per project that has a
// [project.playback] section, loading its archives from
// <archiveDir>/<project name>.
func (c *Config) ResolvePlaybackServers(fs afero.Fs, archiveDir string, log zerolog.Logger) ([]*playback.Server, error) {
	ports := newNextUnusedPort(DefaultStartPort)
	ld := loader.New(fs, log)

	var servers []*playback.Server
	for _, p := range c.Projects {
		if p.Playback == nil {
			continue
		}
		addr, err := p.socket(ports)
		if err != nil {
			return nil, errors.Wrapf(err, "config: project %s", p.Name)
		}

		delay := resolveDelay(p.Playback.Delay)

		dir := filepath.Join(archiveDir, p.Name)
		txs, err := ld.LoadAll(dir)
		if err != nil {
			return nil, errors.Wrapf(err, "config: project %s", p.Name)
		}

		servers = append(servers, playback.NewServer(p.Name, addr, txs, delay, log))
	}
	return servers, nil
}

func resolveDelay(d *DelayConfig) playback.DelayOptions {
	if d == nil {
		return playback.DelayOptions{Method: playback.DelayNone}
	}
	switch strings.ToLower(d.Method) {
	case "original":
		return playback.DelayOptions{Method: playback.DelayOriginal}
	case "static":
		return playback.DelayOptions{Method: playback.DelayStatic, Millis: d.Millis}
	default:
		return playback.DelayOptions{Method: playback.DelayNone}
	}
}
