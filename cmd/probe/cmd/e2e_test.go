package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func resetFlags() {
	verbose = false
	logLevel = "warning"
	boardName = "sim"
	boardFile = ""
	driver = "sim"
	frequency = ""
	simIDCode = "0x4BA00477"
	simSWD = true
	maxDevices = 8
}

// run executes the root command with args and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Capture stdout
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		buf.ReadFrom(r)
		close(done)
	}()

	resetFlags()
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	w.Close()
	os.Stdout = old
	<-done
	return buf.String(), err
}

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "board.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCommandsE2E(t *testing.T) {
	bench := writeProfile(t, `{"name": "bench", "tdi": 5, "tdo": 6, "tms": 7, "tck": 8}`)
	broken := writeProfile(t, `{"name": "broken", "tdi": 5, "tdo": 5, "tms": 7, "tck": 8}`)

	tests := []struct {
		name        string
		args        []string
		wantErr     bool
		wantContain []string
	}{
		{
			name: "init against simulated SWD port",
			args: []string{"init"},
			wantContain: []string{
				"JTAG mode entry complete on board sim",
				"Port:  JTAG, TAP in RunTestIdle",
			},
		},
		{
			name: "init verbose counts pulses",
			args: []string{"init", "-v"},
			wantContain: []string{
				"Clocked 73 TCK pulses",
			},
		},
		{
			name: "scan default port",
			args: []string{"scan"},
			wantContain: []string{
				"Found 1 device(s)",
				"IDCODE 0x4BA00477",
				"ARM Ltd (0x23B, bank 4)",
				"ARM JTAG-DP",
			},
		},
		{
			name: "scan port already in JTAG",
			args: []string{"scan", "--sim-idcode", "0x06438041", "--sim-swd=false"},
			wantContain: []string{
				"IDCODE 0x06438041",
				"STMicroelectronics",
				"STM32F303/334",
			},
		},
		{
			name: "scan at reduced speed",
			args: []string{"scan", "-f", "1MHz", "-v"},
			wantContain: []string{
				"Adapter Information:",
				"Model: sim",
				"IDCODE 0x4BA00477",
			},
		},
		{
			name: "selftest loopback",
			args: []string{"selftest"},
			wantContain: []string{
				"sent     01001101",
				"received 01001101",
				"loopback OK",
			},
		},
		{
			name: "freq on rpi",
			args: []string{"freq", "--board", "rpi", "100kHz", "1MHz"},
			wantContain: []string{
				"Board rpi",
				"delay 90",
				"delay 0",
			},
		},
		{
			name: "list boards",
			args: []string{"boards"},
			wantContain: []string{
				"farpatch:",
				"rpi:",
				"sim:",
				"TRST pulse:  true (10000 iterations)",
				"TMS_DIR",
				"voltage sense: yes",
			},
		},
		{
			name: "board file",
			args: []string{"boards", "--board-file", bench},
			wantContain: []string{
				"bench:",
				"TCK          GPIO8",
			},
		},
		{
			name: "init with board file",
			args: []string{"init", "--board-file", bench},
			wantContain: []string{
				"complete on board bench",
			},
		},
		{
			name:    "invalid board file",
			args:    []string{"init", "--board-file", broken},
			wantErr: true,
		},
		{
			name:    "unknown board",
			args:    []string{"init", "--board", "nope"},
			wantErr: true,
		},
		{
			name:    "unknown driver",
			args:    []string{"init", "--driver", "ftdi"},
			wantErr: true,
		},
		{
			name:    "frequency out of range",
			args:    []string{"freq", "10Hz"},
			wantErr: true,
		},
		{
			name:    "frequency without unit",
			args:    []string{"scan", "-f", "fast"},
			wantErr: true,
		},
		{
			name:    "bad simulated IDCODE",
			args:    []string{"scan", "--sim-idcode", "zz"},
			wantErr: true,
		},
		{
			name:    "bad log level",
			args:    []string{"boards", "--log-level", "loud"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := run(t, tt.args...)

			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error but got none\nOutput: %s", output)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v\nOutput: %s", err, output)
				return
			}
			for _, want := range tt.wantContain {
				if !strings.Contains(output, want) {
					t.Errorf("Output missing expected string: %q\nGot:\n%s", want, output)
				}
			}
		})
	}
}
