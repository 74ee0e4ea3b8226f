package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	appErr "github.com/twinchat/twinchat/internal/pkg/errors"
	"github.com/twinchat/twinchat/internal/service"
)

func withApp(fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(context.Background(), a)
}

func newKnowledgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "manage the knowledge base",
	}

	var scopeID, source string
	var tags []string
	addCmd := &cobra.Command{
		Use:   "add [text]",
		Short: "embed and store one knowledge entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				entry, err := a.knowledge.AddEntry(ctx, scopeID, args[0], source, tags, nil)
				if err != nil {
					return err
				}
				return printJSON(entry)
			})
		},
	}
	addCmd.Flags().StringVar(&scopeID, "scope", "", "owning scope id")
	addCmd.Flags().StringVar(&source, "source", "manual", "entry source label")
	addCmd.Flags().StringSliceVar(&tags, "tag", nil, "tags to attach")
	_ = addCmd.MarkFlagRequired("scope")

	var importScope, importKey string
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "bulk import a JSON file from the file store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				inserted, err := a.knowledge.Import(ctx, importKey, importScope)
				if err != nil {
					return err
				}
				fmt.Println("inserted:", inserted)
				return nil
			})
		},
	}
	importCmd.Flags().StringVar(&importKey, "key", "", "file store key of the import file")
	importCmd.Flags().StringVar(&importScope, "scope", "", "owning scope id")
	_ = importCmd.MarkFlagRequired("key")
	_ = importCmd.MarkFlagRequired("scope")

	var statsScope string
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "show knowledge base statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				stats, err := a.knowledge.Stats(ctx, statsScope)
				if err != nil {
					return err
				}
				return printJSON(stats)
			})
		},
	}
	statsCmd.Flags().StringVar(&statsScope, "scope", "", "scope id to summarize")
	_ = statsCmd.MarkFlagRequired("scope")

	var backfillLimit int
	backfillCmd := &cobra.Command{
		Use:   "backfill",
		Short: "embed rows that are missing a vector",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				filled, err := a.knowledge.BackfillPending(ctx, backfillLimit)
				if err != nil {
					return err
				}
				fmt.Println("filled:", filled)
				return nil
			})
		},
	}
	backfillCmd.Flags().IntVar(&backfillLimit, "limit", 32, "max rows per run")

	cmd.AddCommand(addCmd, importCmd, statsCmd, backfillCmd)
	return cmd
}

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "manage user profiles",
	}

	showCmd := &cobra.Command{
		Use:   "show [user-id]",
		Short: "print a user's profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				profile, err := a.profiles.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(profile)
			})
		},
	}

	update := &service.ProfileUpdate{}
	var style, length, mode string
	var threshold float64
	var useEmojis bool
	setCmd := &cobra.Command{
		Use:   "set [user-id]",
		Short: "update (or create) a user's profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("style") {
				update.CommunicationStyle = &style
			}
			if cmd.Flags().Changed("length") {
				update.ResponseLength = &length
			}
			if cmd.Flags().Changed("mode") {
				update.BotMode = &mode
			}
			if cmd.Flags().Changed("threshold") {
				update.RelevanceThreshold = &threshold
			}
			if cmd.Flags().Changed("emojis") {
				update.UseEmojis = &useEmojis
			}
			return withApp(func(ctx context.Context, a *app) error {
				profile, err := a.profiles.Update(ctx, args[0], update)
				if appErr.IsNotFound(err) {
					profile, err = a.profiles.Create(ctx, args[0], update)
				}
				if err != nil {
					return err
				}
				return printJSON(profile)
			})
		},
	}
	setCmd.Flags().StringVar(&style, "style", "", "communication style")
	setCmd.Flags().StringVar(&length, "length", "", "response length")
	setCmd.Flags().StringVar(&mode, "mode", "", "bot mode: silent, active or aggressive")
	setCmd.Flags().Float64Var(&threshold, "threshold", 0, "relevance threshold in [0,1]")
	setCmd.Flags().BoolVar(&useEmojis, "emojis", false, "allow emojis in replies")

	cmd.AddCommand(showCmd, setCmd)
	return cmd
}

func newConversationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conversation",
		Short: "inspect and manage conversations",
	}

	var listStatus string
	listCmd := &cobra.Command{
		Use:   "list [user-id]",
		Short: "list a user's conversations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				rows, err := a.conversations.List(ctx, args[0], listStatus)
				if err != nil {
					return err
				}
				return printJSON(rows)
			})
		},
	}
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status (empty for all)")

	var showLimit int
	showCmd := &cobra.Command{
		Use:   "show [conversation-id]",
		Short: "print a conversation with its latest messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				conv, messages, err := a.conversations.Show(ctx, args[0], showLimit)
				if err != nil {
					return err
				}
				return printJSON(map[string]interface{}{
					"conversation": conv,
					"messages":     messages,
				})
			})
		},
	}
	showCmd.Flags().IntVar(&showLimit, "limit", 50, "max messages to print")

	var clearUser, clearChat string
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "archive the active conversation and start a fresh one",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				conv, err := a.conversations.Clear(ctx, clearUser, clearChat)
				if err != nil {
					return err
				}
				return printJSON(conv)
			})
		},
	}
	clearCmd.Flags().StringVar(&clearUser, "user", "", "user id")
	clearCmd.Flags().StringVar(&clearChat, "chat", "", "chat id")
	_ = clearCmd.MarkFlagRequired("user")
	_ = clearCmd.MarkFlagRequired("chat")

	deleteCmd := &cobra.Command{
		Use:   "delete [conversation-id]",
		Short: "delete a conversation and all of its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				if err := a.conversations.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("deleted:", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(listCmd, showCmd, clearCmd, deleteCmd)
	return cmd
}
