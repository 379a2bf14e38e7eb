// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Jasper Recall Contributors

package main

import (
	"fmt"
	"os"

	recallerr "github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/pkg/errors"
	"github.com/spf13/cobra"
)

func newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index <digest-dir>",
		Short: "Build the vector index from a directory of memory digests",
		Long:  "Walk a directory tree of markdown digests, embed each file, and write the vectors into the configured index.",
		Args:  cobra.ExactArgs(1),
		RunE:  runIndex,
	}
}

func runIndex(cmd *cobra.Command, args []string) error {
	root := args[0]

	info, err := os.Stat(root)
	if err != nil {
		return recallerr.Wrapf(err, recallerr.CodeCLIInputInvalid, "digest directory %s", root)
	}
	if !info.IsDir() {
		return recallerr.Errorf(recallerr.CodeCLIInputInvalid, "%s is not a directory", root)
	}

	cfg, err := loadRuntimeConfig()
	if err != nil {
		return err
	}

	indexer, cleanup, err := wireIndexer(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	stats, err := indexer.Index(cmd.Context(), root)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d digest(s) into collection %q (%d skipped)\n",
		stats.Indexed, cfg.Index.Collection, stats.Skipped)
	return err
}
