// Package ingestcmder provides the recap ingest cobra command.
package ingestcmder

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/recaplabs/recap/cmd/recap/stack"
	"github.com/recaplabs/recap/pkg/cliui"
	"github.com/recaplabs/recap/pkg/config"
	"github.com/recaplabs/recap/pkg/logger"
	"github.com/recaplabs/recap/pkg/store"
)

type ingestCommander struct {
	storageProvider string
	storageTarget   string
	transcriptsDir  string
	vectorProvider  string
	vectorTarget    string
	embeddingTarget string
	embeddingModel  string
	embeddingDims   uint
	llmProvider     string
	llmModel        string

	debug     bool
	configDir string
}

var ingestFlagKeys = []string{
	config.FlagStorageProv,
	config.FlagStorageTgt,
	config.FlagTranscriptsDir,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagLLMProvider,
	config.FlagLLMModel,
}

const ingestLongDesc string = `Chunk, embed, and index a transcript file so it can be queried with "recap ask".

Prints the transcript id on success.`

const ingestShortDesc string = "Ingest a transcript file"

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest FILE",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}

			cmder.configDir, err = cmd.Flags().GetString("config")
			if err != nil {
				return fmt.Errorf("could not get config flag: %v", err)
			}

			cfg, err := stack.ResolveConfig(cmd, cmder.configDir, ingestFlagKeys)
			if err != nil {
				return err
			}

			return cmder.run(cmd.Context(), cfg, args[0])
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagStorageProv, &cmder.storageProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorageTgt, &cmder.storageTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagTranscriptsDir, &cmder.transcriptsDir)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &cmder.vectorProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &cmder.vectorTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.embeddingTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.embeddingModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &cmder.embeddingDims)
	config.AddStringFlag(cmd, config.Flags, config.FlagLLMProvider, &cmder.llmProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagLLMModel, &cmder.llmModel)

	return cmd
}

func (c *ingestCommander) run(ctx context.Context, cfg *config.Config, path string) error {
	log := logger.NewLogger(c.debug)
	defer log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading transcript file: %w", err)
	}
	content := string(data)

	var st *stack.Stack
	if err := cliui.Step(os.Stdout, "Connecting", func() error {
		st, err = stack.Build(ctx, cfg, log)
		return err
	}); err != nil {
		return err
	}
	defer st.Close()

	var id string
	if err := cliui.Step(os.Stdout, "Indexing transcript", func() error {
		id, err = st.Engine.IngestTranscript(ctx, content)
		return err
	}); err != nil {
		return err
	}

	rollback := func() {
		if derr := st.Engine.DeleteTranscript(ctx, id); derr != nil {
			log.Warn("failed to roll back vector writes", zap.String("transcript_id", id), zap.Error(derr))
		}
	}

	var title string
	if err := cliui.Step(os.Stdout, "Generating title", func() error {
		title, err = st.Engine.GenerateTitle(ctx, content)
		if err != nil {
			log.Warn("title generation failed, using fallback", zap.Error(err))
			title = "Untitled Transcript"
		}
		return nil
	}); err != nil {
		rollback()
		return err
	}

	if err := cliui.Step(os.Stdout, "Saving transcript", func() error {
		if err := st.Files.Save(id, content); err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := st.Store.CreateTranscript(ctx, &store.Transcript{
			ID:        id,
			Title:     title,
			Filename:  st.Files.Filename(id),
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			if derr := st.Files.Delete(id); derr != nil {
				log.Warn("failed to roll back transcript file", zap.Error(derr))
			}
			return err
		}

		return nil
	}); err != nil {
		rollback()
		return err
	}

	fmt.Printf("\n  %s\n  id: %s\n", title, id)

	return nil
}
