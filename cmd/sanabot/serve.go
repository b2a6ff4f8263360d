package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/sanabot/internal/bootstrap"
	"github.com/at-ishikawa/sanabot/internal/telegram"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Telegram.Validate(); err != nil {
				return fmt.Errorf("cfg.Telegram.Validate() > %w", err)
			}

			app := bootstrap.New()
			return app.Run(cmd.Context(), func(ctx context.Context) error {
				store, closeStore, err := openSchemaStore(ctx, cfg)
				if err != nil {
					return err
				}
				app.AddShutdownHook(func(context.Context) error {
					slog.Info("closing analysis store")
					return closeStore()
				})

				fetcher, err := newFetcher(cfg, "")
				if err != nil {
					return err
				}
				app.AddShutdownHook(func(context.Context) error {
					return fetcher.Close()
				})

				tgBot, err := telegram.NewBot(telegram.Config{
					AppID:       cfg.Telegram.AppID,
					AppHash:     cfg.Telegram.AppHash,
					BotToken:    cfg.Telegram.BotToken,
					SessionFile: cfg.Telegram.SessionFile,
					Workers:     cfg.Telegram.Workers,
				}, newHandler(cfg, store, fetcher), slog.Default())
				if err != nil {
					return fmt.Errorf("telegram.NewBot() > %w", err)
				}

				slog.Info("starting sanabot",
					"store", cfg.Store.Backend,
					"analyzer", cfg.Analyzer.BaseURL,
				)
				if err := tgBot.Run(ctx); err != nil {
					return fmt.Errorf("tgBot.Run() > %w", err)
				}
				slog.Info("sanabot stopped")
				return nil
			})
		},
	}
}
