// Package foliocmder
package foliocmder

import (
	"github.com/spf13/cobra"

	servecmder "github.com/foliostack/folio/cmd/folio/serve"
	versioncmder "github.com/foliostack/folio/cmd/folio/version"
)

const folioLongDesc string = `Folio answers questions about your documents.

Upload a document to build a private, per-session index, then chat against
it; answers stream back grounded in the most relevant passages.

Run the server using:
  folio serve          Run the ingestion and chat API server`

const folioShortDesc string = "Folio - Retrieval-Augmented Document Chat"

func NewFolioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folio",
		Short: folioShortDesc,
		Long:  folioLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
