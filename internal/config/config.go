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

// Package config reads a talkboy project file and resolves it into the
// concrete proxy and playback server configurations the cmd layer starts.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Config is the top-level project file: one or more named projects, each
// optionally recording against an upstream and/or replaying its archives.
type Config struct {
	Projects []ProjectConfig `toml:"project"`
}

// ProjectConfig describes one named endpoint. Addr/Port are optional; when
// omitted a port is auto-assigned starting at DefaultStartPort.
type ProjectConfig struct {
	Name     string          `toml:"name"`
	Addr     string          `toml:"addr"`
	Port     int             `toml:"port"`
	Playback *PlaybackConfig `toml:"playback"`
	Record   *RecordConfig   `toml:"record"`
}

// PlaybackConfig enables a playback server for a project.
type PlaybackConfig struct {
	Delay *DelayConfig `toml:"delay"`
}

// DelayConfig is the TOML encoding of a playback delay strategy, tagged by
// Method ("none", "original" or "static").
type DelayConfig struct {
	Method string `toml:"method"`
	Millis uint64 `toml:"millis"`
}

// RecordConfig enables a recording proxy for a project.
type RecordConfig struct {
	URI                string   `toml:"uri"`
	IgnoredStatusCodes []int    `toml:"ignored_status_codes"`
	Secrets            []string `toml:"secrets"`
}

// ReadConfig reads and parses a talkboy project file from the local
// filesystem.
func ReadConfig(filename string) (*Config, error) {
	return ReadConfigWithFs(afero.NewOsFs(), filename)
}

// ReadConfigWithFs reads and parses a talkboy project file from fs, so
// tests can supply an in-memory filesystem.
func ReadConfigWithFs(fs afero.Fs, filename string) (*Config, error) {
	buf, err := afero.ReadFile(fs, filename)
	if err != nil {
		return nil, errors.Wrapf(err, "config: reading %s", filename)
	}

	cfg := &Config{}
	if _, err := toml.Decode(string(buf), cfg); err != nil {
		return nil, errors.Wrapf(err, "config: parsing %s", filename)
	}
	return cfg, nil
}

// addr returns the project's configured address, defaulting to loopback.
func (p ProjectConfig) addr() string {
	if p.Addr == "" {
		return "127.0.0.1"
	}
	return p.Addr
}

func (p ProjectConfig) socket(ports *nextUnusedPort) (string, error) {
	port := p.Port
	if port == 0 {
		next, ok := ports.next()
		if !ok {
			return "", errors.New("config: ran out of ports to assign")
		}
		port = next
	} else {
		ports.observe(port)
	}
	return fmt.Sprintf("%s:%d", p.addr(), port), nil
}
