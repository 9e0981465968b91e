// Package recapcmder
package recapcmder

import (
	askcmder "github.com/recaplabs/recap/cmd/recap/ask"
	ingestcmder "github.com/recaplabs/recap/cmd/recap/ingest"
	servecmder "github.com/recaplabs/recap/cmd/recap/serve"
	"github.com/spf13/cobra"
)

const recapLongDesc string = `Recap answers questions about meeting transcripts.

Ingest a transcript, then ask questions grounded in its content:
  recap serve          Run the API server
  recap ingest FILE    Chunk, embed, and index a transcript file
  recap ask            Ask a question about an ingested transcript`

const recapShortDesc string = "Recap - Transcript Question Answering"

func NewRecapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recap",
		Short: recapShortDesc,
		Long:  recapLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().StringP("config", "c", "", "Directory containing config.toml")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(askcmder.NewAskCmd())

	return cmd
}
