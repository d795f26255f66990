package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"stagelights/internal/fixture"
	"stagelights/internal/logger"
	"stagelights/internal/rig"
)

var checkCmd = &cobra.Command{
	Use:   "check <rig-file>",
	Short: "Validate a rig file and print its patch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base := logrus.New()
		base.SetOutput(cmd.ErrOrStderr())
		base.SetLevel(logrus.WarnLevel)
		return checkRig(cmd.OutOrStdout(), logger.Wrap(base), args[0])
	},
}

func checkRig(w io.Writer, log *logger.Log, path string) error {
	fixtures, err := rig.LoadFile(path)
	if err != nil {
		return err
	}

	m := rig.NewManager(log, rig.Output{})
	rejected := 0
	for _, f := range fixtures {
		if _, err := m.Register(f); err != nil {
			rejected++
			fmt.Fprintf(w, "REJECTED %s: %v\n", f.Name, err)
			continue
		}
		first, last := slots(f)
		fmt.Fprintf(w, "%-20s %3d-%-3d %d channels\n", f.Name, first, last, len(f.Channels))
	}

	report := m.Update()
	frame := m.Snapshot()
	fmt.Fprintf(w, "%d fixtures, %d slots written, %d active\n", m.Len(), report.Writes, frame.CountActive())

	if rejected > 0 {
		return fmt.Errorf("%d of %d fixtures rejected", rejected, len(fixtures))
	}
	return nil
}

// slots returns the first and last universe slot a fixture writes.
func slots(f *fixture.Fixture) (int, int) {
	first, last := f.Start, f.Start
	for i, ch := range f.Channels {
		lo := f.Slot(ch)
		hi := lo + ch.Width() - 1
		if i == 0 || lo < first {
			first = lo
		}
		if i == 0 || hi > last {
			last = hi
		}
	}
	return first, last
}
