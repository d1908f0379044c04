package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/krisalay/imagefeed/identifier"
)

func NewDecodeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <npub>",
		Short: "Print the hex public key of an npub",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pk, err := identifier.Decode(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.Format == "json" {
				return json.NewEncoder(out).Encode(map[string]string{
					"npub": pk.String(),
					"hex":  pk.Hex(),
				})
			}
			_, err = fmt.Fprintln(out, pk.Hex())
			return err
		},
	}
}
