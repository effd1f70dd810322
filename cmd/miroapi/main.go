package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kbukum/miroapi/internal/app"
	"github.com/kbukum/miroapi/internal/config"
	"github.com/kbukum/miroapi/internal/version"
)

func main() {
	configFile := flag.String("config", "", "path to config.yml")
	envFile := flag.String("env", "", "path to .env file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetShortVersion())
		return
	}

	if err := run(*configFile, *envFile); err != nil {
		fmt.Fprintf(os.Stderr, "miroapi: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile, envFile string) error {
	var opts []config.LoaderOption
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}

	cfg, err := app.Load(opts...)
	if err != nil {
		return err
	}
	if cfg.Version == "" {
		cfg.Version = version.GetShortVersion()
	}

	rt, err := app.New(cfg)
	if err != nil {
		return err
	}
	return rt.Run(context.Background())
}
