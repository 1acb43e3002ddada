package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Claim the lines and switch the debug port to JTAG",
	Long: `Configure the debug lines, clock a line reset of at least 50 TMS=1
cycles, send the SWD-to-JTAG select sequence 0xE73C and soft reset the TAP
into Run-Test/Idle.

Examples:
  probe init --driver sim
  probe init --board rpi --driver rpio -v`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	s, err := openSession(false)
	if err != nil {
		return err
	}
	defer s.Close()

	p := s.probe
	fmt.Printf("JTAG mode entry complete on board %s\n", p.Profile.Name)
	fmt.Printf("  TCK:   %s (delay counter %d)\n", p.Clock.Frequency(), p.Clock.Count())
	if s.dp != nil {
		fmt.Printf("  Port:  %s, TAP in %s\n", s.dp.Mode(), s.dp.State())
	}
	if verbose && s.sim != nil {
		fmt.Printf("  Clocked %d TCK pulses\n", len(s.sim.Pulses()))
	}
	return nil
}
