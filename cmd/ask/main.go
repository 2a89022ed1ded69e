package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"estatebot/internal/app"
	"estatebot/internal/config"
	"estatebot/internal/model"
	"estatebot/internal/observability"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "ask",
		Usage:     "Answer a single real estate question from the terminal",
		ArgsUsage: "<question words...>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "category",
				Aliases: []string{"c"},
				Usage:   "Restrict listings to rental or sale (default: detect from the question)",
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "Directory holding the CSV tables (overrides DATA_DIR)",
			},
			&cli.StringFlag{
				Name:  "provider",
				Usage: "Embedding provider, remote or hash (overrides EMBEDDING_PROVIDER)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the answer as JSON",
			},
		},
		Action: askCommand,
	}
}

type jsonAnswer struct {
	Category     string `json:"category"`
	Listings     string `json:"listings"`
	Buildings    string `json:"buildings"`
	Amenities    string `json:"amenities"`
	UsedFallback bool   `json:"used_fallback"`
	Reply        string `json:"reply"`
}

func askCommand(c *cli.Context) error {
	question := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(question) == "" {
		return errors.New("a question is required")
	}

	category, err := model.ParseCategoryName(c.String("category"))
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       c.String("log-level"),
		Format:      "console",
		Output:      c.App.ErrWriter,
		ServiceName: "estatebot-ask",
	})

	ctx := context.Background()
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer application.Close()

	answer := application.Ask(ctx, question, category)

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(jsonAnswer{
			Category:     answer.Query.Category.String(),
			Listings:     answer.Listings,
			Buildings:    answer.Buildings,
			Amenities:    answer.Amenities,
			UsedFallback: answer.UsedFallback,
			Reply:        answer.Reply,
		})
	}

	_, err = fmt.Fprintln(c.App.Writer, answer.Text())
	return err
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if dir := c.String("data-dir"); dir != "" {
		cfg.Data.Dir = dir
	}
	if provider := c.String("provider"); provider != "" {
		cfg.Embedding.Provider = provider
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
