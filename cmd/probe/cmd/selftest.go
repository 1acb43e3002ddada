package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/bitseq"
)

// selftestPattern has both edges in each nibble so a stuck or swapped line
// shows up.
const selftestPattern = 0xB2

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Check the wiring with TDI looped back to TDO",
	Long: `Run mode entry, then shift a byte through TDI with TDO tied to it and
compare what comes back. With the sim driver the loopback is simulated.

Examples:
  probe selftest --driver sim
  probe selftest --board rpi --driver rpio -f 100kHz`,
	Args: cobra.NoArgs,
	RunE: runSelftest,
}

func init() {
	rootCmd.AddCommand(selftestCmd)
}

func runSelftest(cmd *cobra.Command, args []string) error {
	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	tr := s.probe.Transport()
	out := make([]byte, 1)
	tr.TDITDOSeq(out, false, []byte{selftestPattern}, 8)

	fmt.Printf("sent     %s\n", bits8(selftestPattern))
	fmt.Printf("received %s\n", bits8(out[0]))
	if out[0] != selftestPattern {
		return fmt.Errorf("loopback mismatch: sent 0x%02X, received 0x%02X", selftestPattern, out[0])
	}
	fmt.Println("loopback OK")
	return nil
}

// bits8 renders a byte in shift order, first bit on the left.
func bits8(b byte) string {
	buf, _ := bitseq.Wrap([]byte{b}, 8)
	return buf.String()
}
