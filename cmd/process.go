package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"document-processor/internal/helper"
	"document-processor/internal/parser"
	"document-processor/internal/storage"
)

var (
	processDir  string
	processSave bool
)

var processCmd = &cobra.Command{
	Use:   "process <file>",
	Short: "Convert a file sitting in the hotdir and print the result",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if processDir != "" {
			cfg.Hotdir.Dir = processDir
		}
		proc := newProcessor(cfg, newTokenizer())

		result, err := proc.Process(cfg.Hotdir.Dir, args[0])
		if err != nil {
			log.Fatal().Err(err).Msg("Error relocating source file")
		}
		helper.PrettyPrint(result)

		if processSave && result.Success {
			paths, err := storage.NewJSONWriter(cfg.Storage.DocumentsDir).Write(result.Metadata)
			if err != nil {
				log.Fatal().Err(err).Msg("Error writing documents")
			}
			log.Info().Strs("paths", paths).Msg("Saved documents")
		}
		if !result.Success {
			os.Exit(2)
		}
	},
}

var acceptsCmd = &cobra.Command{
	Use:   "accepts",
	Short: "List supported MIME types and extensions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		helper.PrettyPrint(parser.AcceptedMIMEs())
	},
}

var chunkCmd = &cobra.Command{
	Use:   "chunk <file>",
	Short: "Extract a file without moving it and print its chunks",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		tok := newTokenizer()
		splitter := newSplitter(cfg)

		text, err := parser.ExtractFile(args[0])
		if err != nil {
			log.Fatal().Err(err).Str("file", args[0]).Msg("Error extracting text")
		}
		for _, c := range splitter.Split(text) {
			fmt.Printf("--- chunk %d [%d:%d] %d tokens\n%s\n", c.Index, c.Start, c.End, tok.Count(c.Text), c.Text)
		}
		log.Info().Str("file", filepath.Base(args[0])).Int("tokens", tok.Count(text)).Msg("Chunked")
	},
}

func init() {
	processCmd.Flags().StringVar(&processDir, "dir", "", "hotdir to read from (defaults to hotdir.dir)")
	processCmd.Flags().BoolVar(&processSave, "save", false, "write records to storage.documents_dir")
	rootCmd.AddCommand(processCmd, acceptsCmd, chunkCmd)
}
