package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/twinchat/twinchat/internal/config"
	"github.com/twinchat/twinchat/internal/pkg/jwt"
	"github.com/twinchat/twinchat/internal/service"
	"github.com/twinchat/twinchat/internal/telegram"
)

func newTelegramClient(cfg *config.Config) *telegram.Client {
	return telegram.NewClient(cfg.Telegram.Token)
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func newAdminTokenCmd() *cobra.Command {
	var operator string
	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "mint a bearer token for the admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ttl := time.Duration(cfg.AdminTokenTTLHours) * time.Hour
			token, err := jwt.GenerateToken(operator, []byte(cfg.AdminSecret), ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&operator, "operator", "admin", "operator name recorded in the token")
	return cmd
}

func newWebhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "manage the bot webhook",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set",
			Short: "register the configured webhook url",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				if cfg.Telegram.WebhookURL == "" {
					return fmt.Errorf("telegram.webhook_url is required")
				}
				client := newTelegramClient(cfg)
				if err := client.SetWebhook(context.Background(), cfg.Telegram.WebhookURL, cfg.Telegram.SecretToken); err != nil {
					return err
				}
				fmt.Println("webhook set:", cfg.Telegram.WebhookURL)
				return nil
			},
		},
		&cobra.Command{
			Use:   "info",
			Short: "show the current webhook state",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				info, err := newTelegramClient(cfg).GetWebhookInfo(context.Background())
				if err != nil {
					return err
				}
				return printJSON(info)
			},
		},
		&cobra.Command{
			Use:   "delete",
			Short: "remove the webhook",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				if err := newTelegramClient(cfg).DeleteWebhook(context.Background()); err != nil {
					return err
				}
				fmt.Println("webhook deleted")
				return nil
			},
		},
	)
	return cmd
}

func newRagtestCmd() *cobra.Command {
	var userID, chatID string
	cmd := &cobra.Command{
		Use:   "ragtest [message]",
		Short: "run one message through the full pipeline and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.processor.Handle(context.Background(), &service.ProcessRequest{
				Text:   args[0],
				UserID: userID,
				ChatID: chatID,
			})
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "ragtest", "user id to run as")
	cmd.Flags().StringVar(&chatID, "chat", "ragtest", "chat id to run in")
	return cmd
}
