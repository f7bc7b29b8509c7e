package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/core/domain"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/ports"
	"go.uber.org/zap"
)

var importFile string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dump every document with its links as JSON on stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepo()
		if err != nil {
			return err
		}
		defer repo.Close()
		return exportDocuments(cmd.Context(), repo, os.Stdout)
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load documents from an export, skipping hashes already present",
	Long: `Import reads a JSON array produced by export and inserts every
document whose hash is not yet in the database. Status, counters and
owners are kept as exported.

Examples:
  ecli export > dump.json
  ecli import --file dump.json --database postgres://localhost/ecli`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(importFile)
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()

		repo, err := openRepo()
		if err != nil {
			return err
		}
		defer repo.Close()

		n, err := importDocuments(cmd.Context(), repo, f, zlog)
		if err != nil {
			return err
		}
		zlog.Info("import finished", zap.Int("imported", n))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "JSON file to import")
	_ = importCmd.MarkFlagRequired("file")
}

func exportDocuments(ctx context.Context, repo ports.DocumentRepository, w io.Writer) error {
	docs, err := repo.Dump(ctx)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(docs)
}

func importDocuments(ctx context.Context, repo ports.DocumentRepository, r io.Reader, logger *zap.Logger) (int, error) {
	var docs []domain.Document
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return 0, fmt.Errorf("decode failed: %w", err)
	}

	count := 0
	for i := range docs {
		doc := &docs[i]
		existing, err := repo.GetByHash(ctx, doc.Hash)
		if err != nil {
			return count, err
		}
		if existing != nil {
			logger.Info("skipping existing document", zap.String("hash", doc.Hash))
			continue
		}
		if err := repo.Create(ctx, doc); err != nil {
			logger.Warn("failed to import document", zap.String("ecli", doc.ECLI), zap.Error(err))
			continue
		}
		count++
	}
	return count, nil
}
