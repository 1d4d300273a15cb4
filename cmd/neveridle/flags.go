package main

import (
	"flag"
	"io"
)

// AppFlags holds the parsed command line
type AppFlags struct {
	ConfigFile string
	CPUWorker  bool
	Once       bool
}

// ParseFlags parses args (without the program name)
func ParseFlags(args []string, output io.Writer) (AppFlags, error) {
	fs := flag.NewFlagSet("neveridle", flag.ContinueOnError)
	fs.SetOutput(output)

	configFile := fs.String("config", "", "Path to the JSON/YAML configuration file. If not set, searches default locations.")
	configFileAlias := fs.String("c", "", "Alias for -config")
	once := fs.Bool("once", false, "Run a single cycle and exit")
	// Hidden: set only when the binary re-executes itself as a CPU worker.
	cpuWorker := fs.Bool("cpu-worker", false, "")

	if err := fs.Parse(args); err != nil {
		return AppFlags{}, err
	}

	flags := AppFlags{
		ConfigFile: *configFile,
		CPUWorker:  *cpuWorker,
		Once:       *once,
	}
	if flags.ConfigFile == "" && *configFileAlias != "" {
		flags.ConfigFile = *configFileAlias
	}
	return flags, nil
}
