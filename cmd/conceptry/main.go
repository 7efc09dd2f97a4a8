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
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/conceptry"
	"github.com/poiesic/conceptry/ai"
	"github.com/poiesic/conceptry/ai/mock"
	"github.com/poiesic/conceptry/ai/openai"
	"github.com/poiesic/conceptry/config"
	"github.com/poiesic/conceptry/core"
)

func main() {
	app := &cli.App{
		Name:  "conceptry",
		Usage: "Extract weighted concepts and semantic hierarchies from text",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "extract",
				Usage:     "Extract concepts from a text file (or stdin when no file is given)",
				ArgsUsage: "[file]",
				Action:    extractCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to a YAML extraction configuration",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "embeddinggemma",
					},
					&cli.BoolFlag{
						Name:  "mock-embedder",
						Usage: "Use a deterministic in-process embedder instead of a service",
					},
					&cli.IntFlag{
						Name:  "parallelism",
						Usage: "Run extraction strategies on a worker pool of this size",
					},
				},
			},
			{
				Name:      "corpus",
				Usage:     "Extract concepts, topics, and clusters across multiple text files",
				ArgsUsage: "file...",
				Action:    corpusCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to a YAML extraction configuration",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "embeddinggemma",
					},
					&cli.BoolFlag{
						Name:  "mock-embedder",
						Usage: "Use a deterministic in-process embedder instead of a service",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func extractCommand(c *cli.Context) error {
	text, err := readInput(c)
	if err != nil {
		return err
	}

	pipeline, cleanup, err := buildPipeline(c)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := pipeline.Extract(context.Background(), text)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	printConcepts(result.Concepts)
	return nil
}

func corpusCommand(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("corpus requires at least two files")
	}

	var docs []conceptry.Document
	for _, path := range c.Args().Slice() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		docs = append(docs, conceptry.Document{
			ID:   filepath.Base(path),
			Text: string(data),
		})
	}

	pipeline, cleanup, err := buildPipeline(c)
	if err != nil {
		return err
	}
	defer cleanup()

	corpus, err := pipeline.ExtractCorpus(context.Background(), docs)
	if err != nil {
		return fmt.Errorf("corpus extraction failed: %w", err)
	}

	printConcepts(corpus.Concepts)

	if len(corpus.Topics) > 0 {
		fmt.Printf("\n%d topics\n", len(corpus.Topics))
		for _, topic := range corpus.Topics {
			words := make([]string, 0, len(topic.Concepts))
			for _, tc := range topic.Concepts {
				words = append(words, tc.Text())
			}
			fmt.Printf("topic %d [%0.2f]: %s\n", topic.TopicID, topic.Coherence, strings.Join(words, ", "))
		}
	}
	if len(corpus.Clusters) > 0 {
		fmt.Printf("\n%d document clusters\n", len(corpus.Clusters))
		for _, cluster := range corpus.Clusters {
			names := make([]string, 0, len(cluster.Members))
			for _, m := range cluster.Members {
				names = append(names, docs[m].ID)
			}
			fmt.Printf("%s [%0.2f]: %s\n", cluster.ClusterID, cluster.Coherence, strings.Join(names, ", "))
		}
	}
	return nil
}

// buildPipeline assembles the pipeline from CLI flags. The returned
// cleanup releases everything the call created.
func buildPipeline(c *cli.Context) (*conceptry.Pipeline, func(), error) {
	cfg := core.DefaultStrategyConfiguration()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}

	var provider ai.AIProvider
	if c.Bool("mock-embedder") {
		provider = mock.NewMockProvider()
	} else {
		aiConfig := ai.NewConfig(
			ai.WithEmbeddingHost(c.String("embedding-host")),
			ai.WithEmbeddingModel(c.String("embedding-model")),
		)
		p, err := openai.NewProvider(aiConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("creating embedding provider: %w", err)
		}
		provider = p
	}

	opts := []conceptry.PipelineOption{conceptry.WithConfiguration(cfg)}
	if size := c.Int("parallelism"); size > 0 {
		opts = append(opts, conceptry.WithParallelStrategies(size))
	}

	pipeline, err := conceptry.NewPipeline(provider, opts...)
	if err != nil {
		provider.Close()
		return nil, nil, err
	}
	cleanup := func() {
		pipeline.Release()
		provider.Close()
	}
	return pipeline, cleanup, nil
}

func readInput(c *cli.Context) (string, error) {
	if c.NArg() > 0 {
		data, err := os.ReadFile(c.Args().First())
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", c.Args().First(), err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

func printConcepts(concepts []core.Concept) {
	fmt.Printf("%d concepts\n", len(concepts))
	for _, c := range concepts {
		indent := strings.Repeat("  ", c.ConceptLevel())
		fmt.Printf("%s%s (freq=%d)[%0.3f] via %s\n",
			indent, c.Text(), c.Frequency(), c.RelevanceScore(), c.Method())
		if parents := c.ParentConcepts(); len(parents) > 0 {
			fmt.Printf("%s  ^ %s\n", indent, strings.Join(parents, ", "))
		}
		if cluster := c.ClusterID(); cluster != "" {
			fmt.Printf("%s  @ %s\n", indent, cluster)
		}
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
