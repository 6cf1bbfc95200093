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
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/bsundsrud/talkboy/internal/config"
	"github.com/bsundsrud/talkboy/internal/playback"
)

var replayRecordingDir string

// replayCmd represents the replay command
var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay recorded HTTP responses",
	Long: `Replay mode serves recorded HTTP responses for matching requests.
It listens on the configured source ports and returns recorded responses
when it finds a matching request. Returns a 404 error if no matching
recording is found.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.ReadConfig(cfgFile)
		if err != nil {
			log.Fatal().Err(err).Msg("reading config")
		}

		servers, err := cfg.ResolvePlaybackServers(afero.NewOsFs(), replayRecordingDir, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("resolving playback servers")
		}
		if len(servers) == 0 {
			log.Warn().Msg("no projects configured for playback")
			return
		}

		var wg sync.WaitGroup
		for _, s := range servers {
			wg.Add(1)
			go func(s *playback.Server) {
				defer wg.Done()
				if err := s.ListenAndServe(); err != nil {
					log.Error().Err(err).Msg("playback server stopped")
				}
			}(s)
		}
		wg.Wait()
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringVar(&replayRecordingDir, "recording-dir", "recordings", "Directory containing recorded requests and responses")
}
