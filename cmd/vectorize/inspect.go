package main

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/andreyxaxa/Image-Vectorizer/internal/infrastructure/processor"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/contour"
	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
)

func newInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect IN",
		Short: "List the borders traced in a raster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			img, err := imaging.Decode(bytes.NewReader(data))
			if err != nil {
				return fmt.Errorf("decode: %w", err)
			}

			bm := contour.Threshold(img, processor.Threshold)
			contours := contour.Find(bm)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%dx%d, %d borders\n", bm.Width, bm.Height, len(contours))
			if len(contours) == 0 {
				return nil
			}

			fmt.Fprintln(out, renderTable(contourRows(contours)))

			return nil
		},
	}

	return cmd
}

func contourRows(contours []contour.Contour) ([]string, [][]string, []columnAlignment) {
	headers := []string{"#", "Kind", "Parent", "Points", "Area", "Excluded"}
	aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft}

	outermost := contour.Largest(contours)

	rows := make([][]string, 0, len(contours))
	for i, c := range contours {
		parent := "-"
		if c.Parent >= 0 {
			parent = strconv.Itoa(c.Parent)
		}

		excluded := ""
		if i == outermost {
			excluded = "yes"
		}

		rows = append(rows, []string{
			strconv.Itoa(i),
			c.Kind.String(),
			parent,
			strconv.Itoa(len(contour.Simplify(c.Points))),
			strconv.FormatFloat(contour.Area(c.Points), 'f', 1, 64),
			excluded,
		})
	}

	return headers, rows, aligns
}
