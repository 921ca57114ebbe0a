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
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/draftkit"
	"github.com/poiesic/draftkit/config"
	"github.com/poiesic/draftkit/kb"
	"github.com/poiesic/draftkit/pipeline"
	"github.com/poiesic/draftkit/server"
)

func main() {
	app := &cli.App{
		Name:  "draftkit",
		Usage: "Email draft assistant with workspace knowledge and policy enforcement",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server",
				Action: serveCommand,
			},
			{
				Name:      "ingest",
				Usage:     "Ingest a document file into a workspace knowledge base",
				ArgsUsage: "FILE",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "workspace",
						Aliases:  []string{"w"},
						Usage:    "Workspace to ingest into",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Document title stored with each chunk",
					},
					&cli.StringFlag{
						Name:  "url",
						Usage: "Source URL stored with each chunk",
					},
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "Tag stored with each chunk (repeatable)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search a workspace knowledge base",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "workspace",
						Aliases:  []string{"w"},
						Usage:    "Workspace to search",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Maximum number of results (0 uses the configured default)",
					},
				},
			},
			{
				Name:      "draft",
				Usage:     "Generate a draft reply for a message summary",
				ArgsUsage: "SUMMARY...",
				Action:    draftCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "workspace",
						Aliases: []string{"w"},
						Usage:   "Workspace whose policy and knowledge base apply",
					},
					&cli.StringFlag{
						Name:  "thread",
						Usage: "Thread to continue (new thread if omitted)",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadAssistant(c *cli.Context) (*draftkit.Assistant, *config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}

	assistant, err := draftkit.NewAssistant(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return assistant, cfg, nil
}

func serveCommand(c *cli.Context) error {
	assistant, cfg, err := loadAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	srv := server.NewServer(
		assistant.Orchestrator(),
		assistant.KnowledgeBase(),
		assistant.PolicyRepository(),
		assistant.Resolver(),
		assistant.Reviews(),
		&cfg.Server,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(ctx)
	}
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one document file is required")
	}
	path := c.Args().First()

	contents, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	assistant, _, err := loadAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	stats, err := assistant.Ingest(c.Context, string(contents), c.String("workspace"), path, kb.DocumentMeta{
		Title: c.String("title"),
		URL:   c.String("url"),
		Tags:  c.StringSlice("tag"),
	})
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("Ingested %s: %d chunks, %d uploaded, %d duplicates skipped\n",
		path, stats.ChunksTotal, stats.ChunksUploaded, stats.DuplicatesSkipped)
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if query == "" {
		return fmt.Errorf("a search query is required")
	}

	assistant, _, err := loadAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	results, err := assistant.SearchKB(c.Context, query, c.String("workspace"), c.Int("top-k"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		label := hit.Source
		if hit.Title != "" {
			label = fmt.Sprintf("%s (%s)", hit.Title, hit.Source)
		}
		fmt.Printf("%d: %s [%0.3f]\n   %s\n", i+1, label, hit.Score, hit.Content)
	}
	return nil
}

func draftCommand(c *cli.Context) error {
	summary := strings.Join(c.Args().Slice(), " ")
	if summary == "" {
		return fmt.Errorf("a message summary is required")
	}

	assistant, _, err := loadAssistant(c)
	if err != nil {
		return err
	}
	defer assistant.Close()

	result, err := assistant.Draft(c.Context, pipeline.RunInput{
		MessageSummary: summary,
		WorkspaceID:    c.String("workspace"),
		ThreadID:       c.String("thread"),
	})
	if err != nil {
		return fmt.Errorf("draft failed: %w", err)
	}

	fmt.Printf("Thread: %s\n", result.ThreadID)
	fmt.Printf("Intent: %s (%.2f)\n", result.State.Intent, result.State.Confidence)
	fmt.Printf("Route:  %s\n\n", result.Route)
	fmt.Println(result.State.DraftHTML)
	if len(result.State.Violations) > 0 {
		fmt.Println("\nViolations:")
		for _, v := range result.State.Violations {
			fmt.Printf("  - %s\n", v)
		}
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
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

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
