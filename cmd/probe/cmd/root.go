package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var (
	// Global flags
	verbose   bool
	logLevel  string
	boardName string
	boardFile string
	driver    string
	frequency string
)

var rootCmd = &cobra.Command{
	Use:   "probe",
	Short: "GPIO JTAG probe",
	Long: `Drives a JTAG TAP from GPIO lines: switches an ARM SWJ-DP from SWD to
JTAG, scans the chain for IDCODEs, and checks the wiring.

Examples:
  probe init --driver sim                      # Mode entry against the simulator
  probe scan --board rpi --driver rpio         # Scan a chain wired to a Raspberry Pi
  probe selftest --board farpatch -f 1MHz      # Loopback check with TDI tied to TDO
  probe freq 100kHz 1MHz 10MHz                 # Show the delay counter for each rate`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warning", "log level (trace, debug, info, warning, error)")
	rootCmd.PersistentFlags().StringVarP(&boardName, "board", "b", "sim", "builtin board profile")
	rootCmd.PersistentFlags().StringVar(&boardFile, "board-file", "", "JSON board profile, overrides --board")
	rootCmd.PersistentFlags().StringVarP(&driver, "driver", "d", "sim", "GPIO driver (sim, periph, rpio)")
	rootCmd.PersistentFlags().StringVarP(&frequency, "frequency", "f", "", "TCK frequency, e.g. 1MHz (default: full speed)")
}

func setupLogging(cmd *cobra.Command, args []string) error {
	log.SetFormatter(&prefixed.TextFormatter{FullTimestamp: true})
	lvl, err := log.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	if verbose {
		lvl = log.DebugLevel
	}
	log.SetLevel(lvl)
	return nil
}
