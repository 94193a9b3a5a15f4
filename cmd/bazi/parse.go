package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gugo-beep/bazi-backend/lunar"
)

var parseCmd = &cobra.Command{
	Use:   "parse <lunar date>...",
	Short: "Parse lunar date strings the way migrate does",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		failed := 0
		for _, s := range args {
			d, err := lunar.Parse(s)
			if err != nil {
				failed++
				fmt.Fprintf(out, "%s\terror: %v\n", s, err)
				continue
			}
			fmt.Fprintf(out, "%s\tyear=%d month=%d day=%d is_leap_month=%d\n",
				s, d.Year, d.Month, d.Day, d.LeapFlag())
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d strings did not parse", failed, len(args))
		}
		return nil
	},
}
