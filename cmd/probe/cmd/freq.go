package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/clock"
)

var freqCmd = &cobra.Command{
	Use:   "freq [frequency...]",
	Short: "Show the delay counter for TCK frequencies on a board",
	Long: `Map each requested TCK frequency to the delay counter the board's
calibration gives, and the rate that counter actually produces. The actual
rate never exceeds the request. Without arguments the --frequency flag is
used, or the board's full speed.

Examples:
  probe freq 100kHz 1MHz 10MHz
  probe freq --board farpatch 48MHz`,
	RunE: runFreq,
}

func init() {
	rootCmd.AddCommand(freqCmd)
}

func runFreq(cmd *cobra.Command, args []string) error {
	prof, err := loadProfile()
	if err != nil {
		return err
	}
	cal := prof.Calibration.Clock()
	clk := clock.New(cal)

	if len(args) == 0 && frequency != "" {
		args = []string{frequency}
	}

	fmt.Printf("Board %s: full speed %s, %s per delay step\n", prof.Name, cal.Base, cal.Step)
	fmt.Printf("  allowed range %s - %s\n", clock.MinFrequency, clock.MaxFrequency)
	for _, a := range args {
		f, err := parseFrequency(a)
		if err != nil {
			return err
		}
		if err := clk.SetFrequency(f); err != nil {
			return err
		}
		fmt.Printf("  %-10s -> delay %-6d actual %s\n", f, clk.Count(), clk.Frequency())
	}
	return nil
}
