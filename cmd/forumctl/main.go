// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Command forumctl submits posts and comments to a forumd server and
// follows each submission until the site rebuild publishing it is done.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"gitforum/internal/client"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadApp reads the config and creates an App. The caller must defer
// app.Close().
func loadApp(cmd *cobra.Command) (*App, error) {
	configPath, _, err := defaultPaths()
	if err != nil {
		return nil, err
	}
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		configPath = p
	}

	cfg, err := ReadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := NewApp(cfg, cmd.OutOrStdout())
	if err != nil {
		return nil, fmt.Errorf("initializing forumctl: %w", err)
	}
	return a, nil
}

func readImages(paths []string) ([]client.File, error) {
	files := make([]client.File, 0, len(paths))
	for _, p := range paths {
		f, err := client.ReadFile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// textArg returns the flag value, or the contents of the file named by
// fileFlag when set.
func textArg(cmd *cobra.Command, flag, fileFlag string) (string, error) {
	if p, _ := cmd.Flags().GetString(fileFlag); p != "" {
		data, err := os.ReadFile(p)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", fileFlag, err)
		}
		return string(data), nil
	}
	v, _ := cmd.Flags().GetString(flag)
	return v, nil
}

var rootCmd = &cobra.Command{
	Use:          "forumctl",
	Short:        "Post to a git-backed forum",
	SilenceUsage: true,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration with a new identity token",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, baseDir, err := defaultPaths()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		if p, _ := cmd.Flags().GetString("config"); p != "" {
			configPath = p
		}

		token := uuid.New().String()
		cfg := NewConfig(token, baseDir)
		if endpoint, _ := cmd.Flags().GetString("endpoint"); endpoint != "" {
			cfg.Endpoint = endpoint
		}

		if err := InitConfig(configPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration initialized at %s\n", configPath)
		fmt.Fprintf(out, "Endpoint: %s\n", cfg.Endpoint)
		fmt.Fprintf(out, "Token:    %s\n", token)
		return nil
	},
}

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Create a post, or edit one with --slug",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := textArg(cmd, "body", "body-file")
		if err != nil {
			return err
		}
		imagePaths, _ := cmd.Flags().GetStringSlice("image")
		images, err := readImages(imagePaths)
		if err != nil {
			return err
		}
		title, _ := cmd.Flags().GetString("title")
		slug, _ := cmd.Flags().GetString("slug")
		date, _ := cmd.Flags().GetString("date")
		deleted, _ := cmd.Flags().GetStringSlice("delete-image")

		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Post(cmd.Context(), client.PostRequest{
			Title:         title,
			Description:   body,
			Slug:          slug,
			PostDate:      date,
			DeletedImages: deleted,
			Images:        images,
		})
	},
}

var commentCmd = &cobra.Command{
	Use:   "comment POST_SLUG",
	Short: "Comment on a post, or edit a comment with --id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message, err := textArg(cmd, "message", "message-file")
		if err != nil {
			return err
		}
		req := client.CommentRequest{PostSlug: args[0], Message: message}
		req.PostDate, _ = cmd.Flags().GetString("date")
		req.CommentID, _ = cmd.Flags().GetString("id")
		if p, _ := cmd.Flags().GetString("image"); p != "" {
			f, err := client.ReadFile(p)
			if err != nil {
				return err
			}
			req.Image = &f
		}

		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Comment(cmd.Context(), req)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete POST_SLUG",
	Short: "Delete a post with its comments, or one comment with --comment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := client.DeleteRequest{PostSlug: args[0]}
		req.PostDate, _ = cmd.Flags().GetString("date")
		req.CommentID, _ = cmd.Flags().GetString("comment")

		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Delete(cmd.Context(), req)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check pending submissions once",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Status(cmd.Context())
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Wait until every pending submission is published",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = a.Watch(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default $FORUMCTL_CONFIG or ~/.config/forumctl.toml)")

	rootCmd.AddCommand(initCmd)
	initCmd.Flags().String("endpoint", "", "Forum API endpoint")

	rootCmd.AddCommand(postCmd)
	postCmd.Flags().StringP("title", "t", "", "Post title")
	postCmd.Flags().StringP("body", "b", "", "Post body (markdown)")
	postCmd.Flags().String("body-file", "", "Read the post body from a file")
	postCmd.Flags().String("slug", "", "Slug of the post to edit")
	postCmd.Flags().String("date", "", "Post date (YYYY-MM-DD) when --slug has none")
	postCmd.Flags().StringSliceP("image", "i", nil, "Image to attach (repeatable)")
	postCmd.Flags().StringSlice("delete-image", nil, "Attached image to remove (repeatable)")

	rootCmd.AddCommand(commentCmd)
	commentCmd.Flags().StringP("message", "m", "", "Comment text")
	commentCmd.Flags().String("message-file", "", "Read the comment text from a file")
	commentCmd.Flags().String("date", "", "Post date (YYYY-MM-DD) when POST_SLUG has none")
	commentCmd.Flags().String("id", "", "Id of the comment to edit")
	commentCmd.Flags().StringP("image", "i", "", "Image to attach")

	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().String("date", "", "Post date (YYYY-MM-DD) when POST_SLUG has none")
	deleteCmd.Flags().String("comment", "", "Id of the comment to delete")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
}
