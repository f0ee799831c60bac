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
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"logglobe/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	version   string
	buildDate string
	gitCommit string
)

// ProcessOptions groups the command line switches which modify
// a single run without being part of the stored configuration.
type ProcessOptions struct {
	dryRun     bool
	scriptPath string
}

func setupLog(path, level string) {
	lev, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lev = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lev)
	if path != "" {
		logf, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to initialize log file %s: %s\n", path, err)
			os.Exit(1)
		}
		log.Logger = log.Output(logf)

	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "2006-01-02T15:04:05.000",
		})
	}
}

func setup(confPath string) *config.Main {
	conf := config.Load(confPath)
	setupLog(conf.LogPath, conf.LogLevel)
	config.Validate(conf)
	return conf
}

func main() {
	procOpts := new(ProcessOptions)
	flag.BoolVar(
		&procOpts.dryRun, "dry-run", false,
		"write the snapshot to the standard output instead of the configured file")
	flag.StringVar(
		&procOpts.scriptPath, "script-path", "",
		"a Lua script applied to each processed hit (overrides the configured one)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr,
			"Logglobe - a utility for processing web access logs into a geolocated traffic snapshot\n\n"+
				"Usage:\n\t%s [options] [action] [config.json]\n\nAvailable actions:\n\t%s\n\nOptions:\n",
			filepath.Base(os.Args[0]),
			strings.Join([]string{
				config.ActionSnapshot, config.ActionVersion, config.ActionHelp}, ", "))
		flag.PrintDefaults()
	}
	flag.Parse()
	action := flag.Arg(0)

	switch action {
	case config.ActionHelp:
		help(flag.Arg(1))
	case config.ActionVersion:
		fmt.Printf("Logglobe %s\nbuild date: %s\nlast commit: %s\n", version, buildDate, gitCommit)
	case config.ActionSnapshot:
		conf := setup(flag.Arg(1))
		runSnapshotAction(conf, procOpts)
	default:
		fmt.Printf("Unknown action [%s]. Try -h for help\n", action)
		os.Exit(1)
	}
}
