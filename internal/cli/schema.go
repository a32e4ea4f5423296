package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sitesmith/sitesmith/internal/schema"
)

// NewSchemaCmd prints the JSON Schema document sent with a response shape.
func NewSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "schema tests|website",
		Short:     "Print the response schema for an agent",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"tests", "website"},
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ok := schema.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown schema %q (want tests or website)", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), m.JSON())
			return nil
		},
	}
}
