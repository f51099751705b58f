package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"pinbot/internal/di"
	"pinbot/internal/structures"
)

func main() {
	flags := &structures.CliFlags{}
	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "path to the YAML config file")
	flag.BoolVar(&flags.DebugMode, "debug", false, "mirror logs to the console")
	flag.Parse()

	if _, err := di.InitApp(flags); err != nil {
		fmt.Fprintf(os.Stderr, "pinbot: %s\n", err)
		os.Exit(1)
	}
}
