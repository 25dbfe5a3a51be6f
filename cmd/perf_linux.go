//go:build linux

package cmd

import (
	"github.com/hodgesds/perf-utils"
	"github.com/sirupsen/logrus"
)

// measure runs parse under a CPU instruction counter. Without access to perf
// events it falls back to a plain run.
func measure(name string, parse func() error) error {
	ran := false
	pv, err := perf.CPUInstructions(func() error {
		ran = true
		return parse()
	})
	if !ran {
		logrus.Warnf("%s: perf events unavailable: %v", name, err)
		return parse()
	}
	if err != nil {
		return err
	}
	logrus.Infof("%s: %d CPU instructions (enabled %dns, running %dns)",
		name, pv.Value, pv.TimeEnabled, pv.TimeRunning)
	return nil
}
