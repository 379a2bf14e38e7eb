// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Jasper Recall Contributors

package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/config"
	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/recall"
	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/secrets"
	recallerr "github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCmd creates the root recall command with all subcommands registered.
// The root command itself runs a query, mirroring how agents invoke the tool:
//
//	recall "deployment checklist" --public-only --json
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "recall \"query\"",
		Short:         "recall — semantic search over agent memory",
		Long:          "Recall queries a pre-built vector index of agent memory digests and prints the most similar entries.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initViper(cmd)
		},
		RunE: runSearch,
	}

	// Global flags — these map to viper keys via initViper.
	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().String("index-dir", "", "path to the vector index directory")
	root.PersistentFlags().String("collection", "", "collection name within the index")
	root.PersistentFlags().BoolP("verbose", "v", false, "show similarity scores and debug logging")

	root.Flags().IntP("limit", "n", 5, "maximum number of results")
	root.Flags().Bool("json", false, "emit results as JSON")
	root.Flags().Bool("public-only", false, "only return shared or public entries (for sandboxed agents)")

	// Register subcommands
	root.AddCommand(
		newIndexCmd(),
		newDoctorCmd(),
		newSecretCmd(),
		newVersionCmd(),
	)

	return root
}

// initViper sets up the global Viper with defaults, env bindings, flag
// bindings, and optional config file so the standard precedence
// (flag > env > file > defaults) is handled uniformly.
func initViper(cmd *cobra.Command) error {
	v := viper.GetViper()

	config.SetDefaults(v)
	config.SetupEnv(v)

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return recallerr.Errorf(recallerr.CodeConfigLoadReadFailure, "reading config file: %w", err)
		}
	} else {
		// Auto-discover recall.yaml from standard locations. No config
		// file is fine — defaults and env vars still apply. Parse or
		// permission errors must surface.
		v.SetConfigName("recall")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/recall")
		v.AddConfigPath("$HOME/.jasper")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return recallerr.Errorf(recallerr.CodeConfigLoadReadFailure, "reading config: %w", err)
			}
		}
	}

	// Bind persistent flags to viper keys.
	bindings := map[string]string{
		"index.dir":        "index-dir",
		"index.collection": "collection",
		"verbose":          "verbose",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, cmd.Root().PersistentFlags().Lookup(flag)); err != nil {
			return recallerr.Errorf(recallerr.CodeCLISetupFailure, "binding %s flag: %w", flag, err)
		}
	}

	setupLogging(v.GetBool("verbose"))

	return nil
}

// setupLogging routes slog to stderr so diagnostics never mix with result
// output on stdout. Non-verbose runs only surface warnings.
func setupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadRuntimeConfig resolves keyring:// secrets in the global Viper and
// unmarshals the validated Config.
func loadRuntimeConfig() (*config.Config, error) {
	v := viper.GetViper()
	secrets.ResolveViperSecrets(v, secretStoreFactory())
	return config.FromViper(v)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return recallerr.New(recallerr.CodeCLIInputInvalid, "query argument is required")
	}
	if len(args) > 1 {
		return recallerr.Errorf(recallerr.CodeCLIInputInvalid,
			"expected a single query argument, got %d (quote multi-word queries)", len(args))
	}
	query := args[0]

	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")
	publicOnly, _ := cmd.Flags().GetBool("public-only")

	cfg, err := loadRuntimeConfig()
	if err != nil {
		return err
	}

	searcher, cleanup, err := wireSearcher(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	results, err := searcher.Search(cmd.Context(), query, recall.Options{
		Limit:      limit,
		PublicOnly: publicOnly,
	})
	if err != nil {
		return err
	}

	f := recall.Formatter{
		Verbose:  viper.GetBool("verbose"),
		Truncate: cfg.Search.Truncate,
	}
	if asJSON {
		return f.WriteJSON(cmd.OutOrStdout(), results)
	}
	return f.WriteHuman(cmd.OutOrStdout(), query, results)
}
