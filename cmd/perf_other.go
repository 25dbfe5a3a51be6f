//go:build !linux

package cmd

import "github.com/sirupsen/logrus"

func measure(name string, parse func() error) error {
	logrus.Warnf("%s: --perf is only supported on linux", name)
	return parse()
}
