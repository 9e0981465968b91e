// Package askcmder provides the recap ask cobra command.
package askcmder

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/recaplabs/recap/cmd/recap/stack"
	"github.com/recaplabs/recap/pkg/cliui"
	"github.com/recaplabs/recap/pkg/config"
	"github.com/recaplabs/recap/pkg/logger"
	"github.com/recaplabs/recap/pkg/rag"
)

type askCommander struct {
	transcriptID    string
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

var askFlagKeys = []string{
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

const askLongDesc string = `Ask a one-shot question about an ingested transcript.

The answer is grounded in the transcript's most relevant chunks and printed
with its supporting citations.`

const askShortDesc string = "Ask a question about a transcript"

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask QUESTION",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
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

			cfg, err := stack.ResolveConfig(cmd, cmder.configDir, askFlagKeys)
			if err != nil {
				return err
			}

			return cmder.run(cmd.Context(), cfg, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&cmder.transcriptID, "transcript", "t", "", "Transcript id to query (required)")
	cmd.MarkFlagRequired("transcript")

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

func (c *askCommander) run(ctx context.Context, cfg *config.Config, question string) error {
	log := logger.NewLogger(c.debug)
	defer log.Sync()

	var st *stack.Stack
	var err error
	if err = cliui.Step(os.Stdout, "Connecting", func() error {
		st, err = stack.Build(ctx, cfg, log)
		return err
	}); err != nil {
		return err
	}
	defer st.Close()

	var answer *rag.Answer
	if err = cliui.Step(os.Stdout, "Thinking", func() error {
		answer, err = st.Engine.AnswerQuestion(ctx, question, c.transcriptID, nil)
		return err
	}); err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(renderAnswer(answer))

	return nil
}

// renderAnswer formats the answer and its citations as markdown and renders
// it for the terminal. Falls back to the raw markdown if rendering fails.
func renderAnswer(answer *rag.Answer) string {
	var b strings.Builder

	b.WriteString(answer.Answer)
	b.WriteString("\n")

	if len(answer.Citations) > 0 {
		b.WriteString("\n## Citations\n\n")
		b.WriteString("| # | Timestamp | Speaker | Confidence |\n")
		b.WriteString("|---|-----------|---------|------------|\n")
		for i, cit := range answer.Citations {
			fmt.Fprintf(&b, "| %d | %s | %s | %.2f |\n", i+1, cit.Timestamp, cit.Speaker, cit.Confidence)
		}
	}

	rendered, err := cliui.RenderMarkdown(b.String())
	if err != nil {
		return b.String()
	}

	return rendered
}
