package cli

import (
	"fmt"

	"github.com/aryankumar/multikube/pkg/version"
)

func (a *app) printVersion() error {
	info := version.Get()
	if a.cfg.Format == "text" {
		fmt.Fprintln(a.env.Stdout, info.String())
		return nil
	}
	return a.formatter.Format(a.env.Stdout, info)
}
