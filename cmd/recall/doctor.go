// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Jasper Recall Contributors

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/embed/onnx"
	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/embed/openai"
	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/store"
	recallerr "github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sys/unix"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostics",
		Long:  "Check binary health, index presence, embedding provider availability, disk space, and other requirements.",
		RunE:  runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	ctx := cmd.Context()
	indexDir := resolveIndexDir()

	checks := []struct {
		name string
		fn   func() string
	}{
		{"Binary", checkBinary},
		{"Platform", checkPlatform},
		{"Config", checkConfig},
		{"Index", func() string { return checkIndex(ctx, indexDir) }},
		{"Embedding", func() string { return checkEmbedding(ctx) }},
		{"Disk Space", func() string { return checkDiskSpace(indexDir) }},
	}

	for _, c := range checks {
		if _, err := fmt.Fprintf(w, "%-20s %s\n", c.name+":", c.fn()); err != nil {
			return err
		}
	}

	return nil
}

// resolveIndexDir returns the index directory from viper or the default.
func resolveIndexDir() string {
	if dir := viper.GetString("index.dir"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".jasper", "index")
}

func checkBinary() string {
	return fmt.Sprintf("recall %s (%s/%s)", version, runtime.GOOS, runtime.GOARCH)
}

func checkPlatform() string {
	return fmt.Sprintf("%s/%s, Go %s", runtime.GOOS, runtime.GOARCH, runtime.Version())
}

func checkConfig() string {
	cfgFile := viper.ConfigFileUsed()
	if cfgFile != "" {
		return fmt.Sprintf("loaded from %s", cfgFile)
	}
	return "using defaults (no config file found)"
}

func checkIndex(ctx context.Context, indexDir string) string {
	backend := viper.GetString("index.backend")
	collection := viper.GetString("index.collection")

	vs, err := store.Open(backend, store.Options{
		Dir:        indexDir,
		Collection: collection,
		Dimensions: viper.GetInt("embedding.dimensions"),
	})
	if err != nil {
		if recallerr.IsNotFound(err) {
			return fmt.Sprintf("not found at %s (run 'recall index <digest-dir>')", indexDir)
		}
		return fmt.Sprintf("error: %s", err)
	}
	defer vs.Close()

	count, err := vs.Count(ctx)
	if err != nil {
		return fmt.Sprintf("error counting documents: %s", err)
	}
	return fmt.Sprintf("%d document(s) in %q at %s", count, collection, indexDir)
}

func checkEmbedding(ctx context.Context) string {
	provider := viper.GetString("embedding.provider")

	switch provider {
	case "openai":
		apiKey := viper.GetString("embedding.api_key")
		if apiKey == "" {
			return "openai: no API key (run 'recall secret set openai-api-key')"
		}
		e, err := openai.New(openai.Config{
			APIKey:  apiKey,
			BaseURL: viper.GetString("embedding.base_url"),
			Model:   viper.GetString("embedding.model"),
		})
		if err != nil {
			return fmt.Sprintf("openai: %s", err)
		}
		hctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := e.HealthCheck(hctx); err != nil {
			return fmt.Sprintf("openai: unreachable (%s)", err)
		}
		return fmt.Sprintf("openai: ok (model %s)", viper.GetString("embedding.model"))

	case "onnx":
		lib, err := onnx.ResolveRuntimeLibrary()
		if err != nil {
			return fmt.Sprintf("onnx: %s", err)
		}
		return fmt.Sprintf("onnx: runtime library at %s", lib)

	case "mock":
		return "mock: deterministic embeddings (testing only)"

	default:
		return fmt.Sprintf("unsupported provider %q", provider)
	}
}

func checkDiskSpace(indexDir string) string {
	path := indexDir
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// Fall back to home if the index doesn't exist yet.
		path, _ = os.UserHomeDir()
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return fmt.Sprintf("unable to check: %s", err)
	}

	availBytes := stat.Bavail * uint64(stat.Bsize)
	return formatBytes(availBytes) + " available"
}

// formatBytes formats a byte count as a human-readable string.
func formatBytes(b uint64) string {
	const (
		gb = 1024 * 1024 * 1024
		mb = 1024 * 1024
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(mb))
	default:
		return fmt.Sprintf("%d bytes", b)
	}
}
