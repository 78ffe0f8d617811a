package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/blocks/pkg/request"
)

func newProbeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <base-url>",
		Short: "Check whether a server routes path-info URLs",
		Long: `Requests <base-url>/<probe path> and prints "pathinfo" if the server
answers with the probe body, "querystring" otherwise.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			ok, err := request.NewHTTPProber(nil, cfg.Request.ProbeTimeout).
				Probe(cmd.Context(), args[0], cfg.Request.ProbePath)
			if err != nil {
				return err
			}

			format := request.FormatQueryString
			if ok {
				format = request.FormatPathInfo
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), format)
			return err
		},
	}
}
