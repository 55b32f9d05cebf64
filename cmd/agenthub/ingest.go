package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/agenthub/ai/core/embedding"
	"github.com/hrygo/agenthub/ai/ingest"
	"github.com/hrygo/agenthub/ai/observability/logging"
	"github.com/hrygo/agenthub/ai/vector"
	"github.com/hrygo/agenthub/internal/profile"
	"github.com/hrygo/agenthub/store/db/postgres"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest --index <name> <files...>",
	Short: "Embed documents into a search index in the pgvector database",
	Long: `Reads each file (pdf, docx, xlsx, txt, md, csv, json), splits it into
overlapping passages, embeds them and stores them under the given index.
Indexes used by the agents: documents, cicp, ida-products, bank-policy.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, files []string) error {
		p := &profile.Profile{
			Mode:     viper.GetString("mode"),
			LogLevel: viper.GetString("log-level"),
		}
		p.FromEnv()
		logging.Setup(p.Mode, logging.ParseLevel(p.LogLevel))
		if p.VectorDSN == "" {
			return errors.New("AGENTHUB_VECTOR_DSN is required to ingest documents")
		}

		index, _ := cmd.Flags().GetString("index")
		chunkSize, _ := cmd.Flags().GetInt("chunk-size")
		overlap, _ := cmd.Flags().GetInt("overlap")

		embedder, err := embedding.NewService(&embedding.Config{
			Provider:   p.EmbeddingProvider,
			BaseURL:    p.EmbeddingBaseURL,
			APIKey:     p.EmbeddingAPIKey,
			APIVersion: p.LLMAPIVersion,
			Model:      p.EmbeddingModel,
			Dimensions: p.EmbeddingDim,
		})
		if err != nil {
			return errors.Wrap(err, "failed to create embedding service")
		}

		ctx := cmd.Context()
		vectorDB, err := postgres.Open(p.VectorDSN, p)
		if err != nil {
			return err
		}
		defer vectorDB.Close()
		if err := vectorDB.MigrateDocuments(ctx, embedder.Dimensions()); err != nil {
			return errors.Wrap(err, "failed to prepare vector table")
		}

		cfg := ingest.DefaultConfig()
		cfg.ChunkSize = chunkSize
		cfg.Overlap = overlap
		ing := ingest.New(embedder, vectorDB, cfg)

		total := 0
		for _, file := range files {
			n, err := ing.IngestFile(ctx, index, file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d chunks\n", file, n)
			total += n
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d chunks from %d files into %q\n", total, len(files), index)
		return nil
	},
}

func init() {
	ingestCmd.Flags().String("index", vector.IndexDocuments, "search index to write to")
	ingestCmd.Flags().Int("chunk-size", ingest.DefaultConfig().ChunkSize, "maximum passage length in characters")
	ingestCmd.Flags().Int("overlap", ingest.DefaultConfig().Overlap, "characters shared by consecutive passages")
}
