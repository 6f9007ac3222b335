// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/searchrag"
	"github.com/poiesic/searchrag/config"
	"github.com/urfave/cli/v2"
)

// openStack is replaced in tests.
var openStack = func(ctx context.Context, cfg *config.Config) (*searchrag.Stack, error) {
	return searchrag.Open(ctx, cfg)
}

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "searchrag",
		Usage: "Provision an OpenSearch domain and answer questions over a PDF",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Value:   config.DefaultPath,
				EnvVars: []string{"SEARCHRAG_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "region",
				Usage:   "AWS region, overrides the configuration file",
				EnvVars: []string{"AWS_REGION"},
			},
		},
		Before:   setupLogger,
		Commands: append(provisionCommands(), documentCommands()...),
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// loadConfig reads the configuration file and applies the global overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if region := c.String("region"); region != "" {
		cfg.SetRegion(region)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withStack loads the configuration, opens the stack and runs fn.
func withStack(c *cli.Context, fn func(ctx context.Context, cfg *config.Config, stack *searchrag.Stack) error) error {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	stack, err := openStack(ctx, cfg)
	if err != nil {
		return err
	}
	defer stack.Close()

	return fn(ctx, cfg, stack)
}

// confirm asks for a literal "yes" on the app's reader.
func confirm(c *cli.Context, question string) (bool, error) {
	fmt.Fprintf(c.App.Writer, "%s\n  Only 'yes' will be accepted to approve.\n\n  Enter a value: ", question)
	line, err := bufio.NewReader(c.App.Reader).ReadString('\n')
	if err != nil && line == "" {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	fmt.Fprintln(c.App.Writer)
	return strings.TrimSpace(line) == "yes", nil
}
