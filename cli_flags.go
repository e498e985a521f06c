// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"os"
	"time"

	"github.com/peterbourgon/ff/v3"

	"github.com/nodemeter/nodemeter/internal/controller"
)

const (
	// Default values for CLI flags
	defaultArgSampleInterval      = 60 * time.Second
	defaultArgSelfMetricsInterval = 10 * time.Second
	defaultArgDiskPath            = "/"
)

// Help strings for command line arguments
var (
	collectionEndpointHelp = "The endpoint telemetry snapshots are published to. " +
		"If unset, snapshots are logged instead of sent."
	diskPathHelp          = "Filesystem path whose disk usage is sampled. Defaults to '/'."
	monitorContainersHelp = "Whether to account container runtime via the local " +
		"container engine. Defaults to true."
	pprofHelp               = "Listening address (e.g. localhost:6060) to serve pprof information."
	sampleIntervalHelp      = "Set the sampling interval for node telemetry. Defaults to 60s."
	selfMetricsIntervalHelp = "Set the reporting interval for the agent's own " +
		"resource usage. Defaults to 10s."
	tokenHelp   = "Bearer token sent with each publish request."
	verboseHelp = "Enable verbose logging and debugging capabilities."
	versionHelp = "Show version."
)

func parseArgs() (*controller.Config, error) {
	var args controller.Config

	fs := flag.NewFlagSet("nodemeter", flag.ExitOnError)

	// Please keep the parameters ordered alphabetically in the source-code.
	fs.StringVar(&args.CollectionEndpoint, "collection-endpoint", "",
		collectionEndpointHelp)
	fs.StringVar(&args.DiskPath, "disk-path", defaultArgDiskPath, diskPathHelp)
	fs.BoolVar(&args.MonitorContainers, "monitor-containers", true,
		monitorContainersHelp)
	fs.StringVar(&args.PprofAddr, "pprof", "", pprofHelp)
	fs.DurationVar(&args.SampleInterval, "sample-interval",
		defaultArgSampleInterval, sampleIntervalHelp)
	fs.DurationVar(&args.SelfMetricsInterval, "self-metrics-interval",
		defaultArgSelfMetricsInterval, selfMetricsIntervalHelp)
	fs.StringVar(&args.Token, "token", "", tokenHelp)

	fs.BoolVar(&args.VerboseMode, "v", false, verboseHelp+" (shorthand)")
	fs.BoolVar(&args.VerboseMode, "verbose", false, verboseHelp)
	fs.BoolVar(&args.Version, "version", false, versionHelp)

	fs.Usage = func() {
		fs.PrintDefaults()
	}

	args.Fs = fs

	return &args, ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("NODEMETER"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithIgnoreUndefined(true),
		ff.WithAllowMissingConfigFile(true),
	)
}
