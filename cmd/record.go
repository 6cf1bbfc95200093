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

package cmd

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/bsundsrud/talkboy/internal/config"
	"github.com/bsundsrud/talkboy/internal/proxy"
)

var recordingDir string

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Run talkboy in record mode",
	Long: `Runs talkboy in record mode: every project with a [project.record]
section gets a proxy that forwards to its upstream and archives each
transaction under --recording-dir.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.ReadConfig(cfgFile)
		if err != nil {
			log.Fatal().Err(err).Msg("reading config")
		}

		servers, err := cfg.ResolveProxyServers(recordingDir, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("resolving proxy servers")
		}
		if len(servers) == 0 {
			log.Warn().Msg("no projects configured for recording")
			return
		}

		var wg sync.WaitGroup
		for _, s := range servers {
			wg.Add(1)
			go func(s *proxy.Server) {
				defer wg.Done()
				if err := s.ListenAndServe(); err != nil {
					log.Error().Err(err).Str("project", s.Name).Msg("proxy server stopped")
				}
			}(s)
		}
		wg.Wait()
	},
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().StringVar(&recordingDir, "recording-dir", "recordings", "Directory to store recorded requests and responses")
}
