package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/jtag"
)

var maxDevices int

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run mode entry and list the IDCODEs on the chain",
	Long: `Run mode entry, reset the TAP and shift the data registers out of every
device on the chain. Devices without an IDCODE register show up as BYPASS.

Examples:
  probe scan --driver sim --sim-idcode 0x4BA00477
  probe scan --board farpatch --driver periph --max 4`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().IntVarP(&maxDevices, "max", "m", 8, "maximum number of devices on the chain")
}

func runScan(cmd *cobra.Command, args []string) error {
	s, err := openSession(false)
	if err != nil {
		return err
	}
	defer s.Close()

	a := jtag.NewTAPAdapter(s.probe.Transport(), s.probe.Clock, s.probe.Profile)
	if verbose {
		info, _ := a.Info()
		fmt.Printf("\nAdapter Information:\n")
		fmt.Printf("  Name: %s\n", info.Name)
		fmt.Printf("  Model: %s\n", info.Model)
		fmt.Printf("  Speed: %d - %d Hz\n", info.MinFrequency, info.MaxFrequency)
		fmt.Printf("  %s\n\n", info.Notes)
	}

	entries, err := jtag.ScanIDCodes(a, maxDevices)
	if err != nil {
		return fmt.Errorf("chain scan failed: %w", err)
	}

	fmt.Printf("Found %d device(s)\n\n", len(entries))
	for _, e := range entries {
		if e.Bypass {
			fmt.Printf("  %d: BYPASS (no IDCODE)\n", e.Position)
			continue
		}
		id := e.ID
		fmt.Printf("  %d: IDCODE 0x%08X\n", e.Position, id.Raw)
		fmt.Printf("     Manufacturer: %s (0x%03X, bank %d)\n", id.ManufName, id.Manufacturer, id.Bank())
		fmt.Printf("     Part:         0x%04X", id.PartNumber)
		if id.Device != "" {
			fmt.Printf(" %s", id.Device)
		}
		fmt.Printf("\n     Version:      %d\n", id.Version)
	}
	return nil
}
