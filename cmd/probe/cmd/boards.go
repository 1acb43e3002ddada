package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/board"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/line"
)

var boardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "List builtin board profiles and their pin assignments",
	Long: `List the builtin board profiles, or with --board-file show the profile
loaded from that JSON file.

Examples:
  probe boards
  probe boards --board-file myboard.json`,
	Args: cobra.NoArgs,
	RunE: runBoards,
}

func init() {
	rootCmd.AddCommand(boardsCmd)
}

var boardSignals = []line.Signal{line.TDI, line.TDO, line.TMS, line.TCK, line.TRST, line.TMSDir, line.TCKTDIDir}

func runBoards(cmd *cobra.Command, args []string) error {
	var profiles []board.Profile
	if boardFile != "" {
		p, err := board.LoadFile(boardFile)
		if err != nil {
			return err
		}
		profiles = append(profiles, p)
	} else {
		for _, name := range board.Names() {
			p, err := board.Lookup(name)
			if err != nil {
				return err
			}
			profiles = append(profiles, p)
		}
	}

	for _, p := range profiles {
		fmt.Printf("%s:\n", p.Name)
		for _, sig := range boardSignals {
			if p.Has(sig) {
				fmt.Printf("  %-12s GPIO%d\n", sig, p.Pin(sig))
			}
		}
		if p.Has(line.TRST) {
			fmt.Printf("  TRST pulse:  %v (%d iterations)\n", p.TRSTPulseEnabled, p.TRSTPulse)
		}
		if p.VoltageSense {
			fmt.Printf("  voltage sense: yes\n")
		}
		if verbose {
			cal := p.Calibration.Clock()
			fmt.Printf("  calibration: %s base, %s per step\n", cal.Base, cal.Step)
		}
	}
	return nil
}
