package main

import (
	"github.com/spf13/cobra"
)

func NewImagesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "images <npub>",
		Short: "List the images of an identity once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.newFeed(feedDeps{})
			if err != nil {
				return err
			}
			defer f.Close()

			snap, err := f.Get(cmd.Context(), opts.key(args[0]))
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.Format, snap)
		},
	}
}
