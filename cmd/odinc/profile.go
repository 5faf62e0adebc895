package main

import (
	"github.com/spf13/cobra"

	"odinc/internal/prof"
)

var profSession *prof.Session

func startProfiling(cmd *cobra.Command) error {
	pf := cmd.Root().PersistentFlags()
	var opts prof.Options
	var err error
	if opts.CPU, err = pf.GetString("cpu-profile"); err != nil {
		return err
	}
	if opts.Mem, err = pf.GetString("mem-profile"); err != nil {
		return err
	}
	if opts.Trace, err = pf.GetString("runtime-trace"); err != nil {
		return err
	}
	if !opts.Enabled() {
		return nil
	}
	profSession, err = prof.Start(opts)
	return err
}

func stopProfiling() error {
	s := profSession
	profSession = nil
	return s.Stop()
}
