// Copyright 2024 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2024 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"time"

	"logglobe/analysis"
	"logglobe/config"
	"logglobe/ctype"
	"logglobe/geoip"
	"logglobe/hitlog"
	"logglobe/notifications"
	"logglobe/pipeline"
	"logglobe/save"
	s3save "logglobe/save/s3"
	"logglobe/scripting"

	"github.com/rs/zerolog/log"
)

func createResolver(conf *config.Main) geoip.Resolver {
	var backend geoip.Resolver
	if conf.MMDBLookupPath != "" {
		backend = geoip.NewCmdResolver(
			conf.MMDBLookupPath, conf.GeoIPDbPath, conf.GeoLookupTimeout())

	} else {
		backend = geoip.NewDBResolver(conf.GeoIPDbPath)
	}
	return geoip.NewCachedResolver(backend)
}

func uploadSnapshot(ctx context.Context, conf *s3save.Conf, snapshot *hitlog.Snapshot) {
	data, err := save.EncodeSnapshot(snapshot)
	if err != nil {
		log.Error().Err(err).Msg("skipping s3 upload")
		return
	}
	uploader, err := s3save.NewUploader(ctx, conf)
	if err != nil {
		log.Error().Err(err).Msg("skipping s3 upload")
		return
	}
	if err := uploader.Upload(ctx, data); err != nil {
		log.Error().Err(err).Msg("s3 upload gave up")
	}
}

// buildRunReport creates the contents of the post-run notification:
// where the snapshot went, the run totals and - when burst detection
// flagged anything - the list of suspicious addresses.
func buildRunReport(
	conf *config.Main,
	snapshot *hitlog.Snapshot,
	stats pipeline.ProcStats,
) (map[string]any, []string) {
	suspicious := make([]string, 0, 10)
	for _, agg := range snapshot.IPs {
		if agg.Suspicious {
			suspicious = append(
				suspicious, fmt.Sprintf("%s (%d hits, %s)", agg.IP, agg.Count, agg.Country))
		}
	}
	paragraphs := []string{
		fmt.Sprintf("Snapshot written to %s.", conf.OutputPath),
		fmt.Sprintf(
			"Total hits: %d, unique IPs: %d, skipped lines: %d, dropped hits: %d.",
			snapshot.TotalHits, snapshot.UniqueIPs, stats.SkippedLines, stats.DroppedHits),
	}
	if len(suspicious) > 0 {
		paragraphs = append(
			paragraphs, "The following IP addresses show bursty traffic patterns:")
		paragraphs = append(paragraphs, suspicious...)
	}
	metadata := map[string]any{
		"srcPath":       conf.SrcPath,
		"outputPath":    conf.OutputPath,
		"totalHits":     snapshot.TotalHits,
		"uniqueIPs":     snapshot.UniqueIPs,
		"skippedLines":  stats.SkippedLines,
		"suspiciousIPs": len(suspicious),
	}
	return metadata, paragraphs
}

func sendRunReport(conf *config.Main, snapshot *hitlog.Snapshot, stats pipeline.ProcStats) {
	if conf.EmailNotification == nil && conf.ConomiNotification == nil {
		return
	}
	notifier, err := notifications.NewNotifier(
		conf.EmailNotification, conf.ConomiNotification, conf.TimezoneLocation())
	if err != nil {
		log.Error().Err(err).Msg("failed to create a notifier")
		return
	}
	metadata, paragraphs := buildRunReport(conf, snapshot, stats)
	err = notifier.SendNotification("Logglobe: snapshot run report", metadata, paragraphs...)
	if err != nil {
		log.Error().Err(err).Msg("failed to send a notification")
	}
}

func runSnapshotAction(conf *config.Main, options *ProcessOptions) {
	ctx := context.Background()
	resolver := createResolver(conf)
	defer resolver.Close()

	devices, err := ctype.NewClientTypeAnalyzer(conf.BotDefsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to run the snapshot action")
	}

	var script *scripting.Transformer
	scriptPath := conf.ScriptPath
	if options.scriptPath != "" {
		scriptPath = options.scriptPath
	}
	if scriptPath != "" {
		script, err = scripting.NewTransformer(scriptPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to run the snapshot action")
		}
		defer script.Close()
	}

	var bursts *analysis.BurstDetector
	if conf.BurstDetection != nil {
		bursts = analysis.NewBurstDetector(*conf.BurstDetection)
	}

	proc := &pipeline.SnapshotProc{
		Resolver: resolver,
		Devices:  devices,
		Script:   script,
		Bursts:   bursts,
		TailSize: conf.TailSize,
	}
	t0 := time.Now()
	snapshot, stats, err := proc.ProcessFile(ctx, conf.SrcPath, time.Now().UTC())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to run the snapshot action")
	}

	if options.dryRun {
		data, err := save.EncodeSnapshot(snapshot)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to run the snapshot action")
		}
		fmt.Println(string(data))

	} else {
		if err := save.WriteSnapshot(snapshot, conf.OutputPath); err != nil {
			log.Fatal().Err(err).Msg("failed to run the snapshot action")
		}
		if conf.S3.IsConfigured() {
			uploadSnapshot(ctx, conf.S3, snapshot)
		}
		sendRunReport(conf, snapshot, stats)
	}

	log.Info().
		Int("totalHits", snapshot.TotalHits).
		Int("uniqueIPs", snapshot.UniqueIPs).
		Int("skippedLines", stats.SkippedLines).
		Int("droppedHits", stats.DroppedHits).
		Float64("procTimeSecs", time.Since(t0).Seconds()).
		Msg("finished the snapshot action")
}
