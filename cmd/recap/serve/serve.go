// Package servecmder provides the recap API server cobra command.
package servecmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/recaplabs/recap/api"
	"github.com/recaplabs/recap/cmd/recap/stack"
	"github.com/recaplabs/recap/pkg/config"
	"github.com/recaplabs/recap/pkg/logger"
)

type serveCommander struct {
	listen          string
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
	esProvider      string
	brokers         string

	debug     bool
	configDir string
	logger    *zap.Logger
}

// serveFlagKeys lists every registry flag the serve command binds to viper.
var serveFlagKeys = []string{
	config.FlagAPIListen,
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
	config.FlagEventStreamProv,
	config.FlagBrokers,
}

const serveLongDesc string = `Run the Recap API server for transcript ingestion and transcript-grounded chat.`

const serveShortDesc string = "Run the Recap API server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}

			cmder.configDir, err = cmd.Flags().GetString("config")
			if err != nil {
				return fmt.Errorf("could not get config flag: %v", err)
			}

			cfg, err := stack.ResolveConfig(cmd, cmder.configDir, serveFlagKeys)
			if err != nil {
				return err
			}

			return cmder.run(cmd.Context(), cfg)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.listen)
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
	config.AddStringFlag(cmd, config.Flags, config.FlagEventStreamProv, &cmder.esProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagBrokers, &cmder.brokers)

	return cmd
}

func (c *serveCommander) run(ctx context.Context, cfg *config.Config) error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	st, err := stack.Build(ctx, cfg, c.logger)
	if err != nil {
		return err
	}
	defer st.Close()

	server := api.NewServer(api.Config{
		ListenAddr: cfg.API.Listen,
	}, st.Engine, st.Store, st.Files, c.logger)

	return server.Run()
}
