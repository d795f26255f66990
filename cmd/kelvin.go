package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"stagelights/internal/colortemp"
)

var kelvinCmd = &cobra.Command{
	Use:   "kelvin <temperature>...",
	Short: "Print the RGB colour of colour temperatures",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, arg := range args {
			k, err := strconv.Atoi(arg)
			if err != nil {
				return fmt.Errorf("temperature %q: %w", arg, err)
			}
			clamped := colortemp.Clamp(k)
			c := colortemp.ToColor(clamped)
			fmt.Fprintf(cmd.OutOrStdout(), "%5dK  %s  r=%.4f g=%.4f b=%.4f\n", clamped, c.Hex(), c.R, c.G, c.B)
		}
		return nil
	},
}
