package main

import (
	"fmt"
	"os"

	"github.com/andreyxaxa/Image-Vectorizer/internal/infrastructure/processor"
	"github.com/spf13/cobra"
)

func newConvertCommand() *cobra.Command {
	var (
		output       string
		noPreprocess bool
		noOptimize   bool
	)

	cmd := &cobra.Command{
		Use:   "convert IN",
		Short: "Run the conversion pipeline on a local file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			ctx := cmd.Context()

			if !noPreprocess {
				data, err = processor.NewPreprocessor().Preprocess(ctx, data)
				if err != nil {
					return fmt.Errorf("preprocess: %w", err)
				}
			}

			doc, err := processor.NewVectorizer().Vectorize(ctx, data)
			if err != nil {
				return fmt.Errorf("vectorize: %w", err)
			}

			if !noOptimize {
				doc, err = processor.NewOptimizer().Optimize(ctx, doc)
				if err != nil {
					return fmt.Errorf("optimize: %w", err)
				}
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(doc)
				return err
			}

			if err := os.WriteFile(output, doc, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d bytes\n", output, len(doc))

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output SVG path (stdout when empty)")
	cmd.Flags().BoolVar(&noPreprocess, "no-preprocess", false, "Skip downscaling and grayscale")
	cmd.Flags().BoolVar(&noOptimize, "no-optimize", false, "Emit the raw traced document")

	return cmd
}
