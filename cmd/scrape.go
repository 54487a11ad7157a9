package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"document-processor/internal/helper"
	"document-processor/internal/models"
	"document-processor/internal/storage"
)

var scrapeSave bool

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Fetch a web page and print it as a record",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ctx := cmd.Context()
		sc := newScraper(ctx, cfg, newTokenizer())

		rec, err := sc.Scrape(ctx, args[0])
		if err != nil {
			log.Fatal().Err(err).Str("url", args[0]).Msg("Error scraping")
		}
		helper.PrettyPrint(rec)

		if scrapeSave {
			paths, err := storage.NewJSONWriter(cfg.Storage.DocumentsDir).Write([]models.ContentRecord{rec})
			if err != nil {
				log.Fatal().Err(err).Msg("Error writing document")
			}
			log.Info().Strs("paths", paths).Msg("Saved document")
		}
	},
}

func init() {
	scrapeCmd.Flags().BoolVar(&scrapeSave, "save", false, "write the record to storage.documents_dir")
	rootCmd.AddCommand(scrapeCmd)
}
