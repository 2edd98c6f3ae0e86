package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ironsheep/stack-scanner/internal/extract"
	"github.com/ironsheep/stack-scanner/internal/imaging"
	"github.com/ironsheep/stack-scanner/internal/links"
	"github.com/ironsheep/stack-scanner/internal/scanner"
	"github.com/ironsheep/stack-scanner/internal/session"
)

func newScanCmd(opts *rootOptions) *cobra.Command {
	var (
		save bool
		raw  bool
	)

	cmd := &cobra.Command{
		Use:   "scan <image>",
		Short: "Scan one photo and print the codes and links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			photo, err := imaging.Open(args[0])
			if err != nil {
				printError(err)
				return err
			}

			if raw {
				ex := extract.New(a.engine, extract.WithContrast(a.cfg.OCR.Contrast))
				text, err := ex.ExtractText(ctx, photo.Image)
				if err != nil {
					printError(err)
					return err
				}
				fmt.Fprintln(out, text)
				return nil
			}

			sess := session.New()
			spin := newSpinner("Reading all codes...")
			spin.Start()
			res, err := a.svc.Scan(ctx, sess, photo, args[0])
			spin.Stop()
			if err != nil {
				printError(err)
				return err
			}

			if res.NoCodes {
				color.New(color.FgYellow).Fprintln(out, res.Warning)
				return nil
			}

			color.New(color.FgGreen, color.Bold).Fprintln(out, res.Message())
			printRecords(out, res.Records)

			if !save {
				return nil
			}

			spin = newSpinner("Saving to the sheet...")
			spin.Start()
			saved, err := a.svc.Save(ctx, sess)
			spin.Stop()
			if err != nil {
				printError(err)
				return err
			}
			color.New(color.FgGreen).Fprintln(out, saved.Message())
			if saved.LinkErrors > 0 {
				color.New(color.FgYellow).Fprintf(out, "%d rows saved without a link\n", saved.LinkErrors)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "append the codes to the collection sheet")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the raw OCR text instead of codes")
	return cmd
}

func newSpinner(message string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = os.Stderr
	return s
}

func printRecords(w io.Writer, records []links.Record) {
	code := color.New(color.FgCyan).SprintFunc()
	for _, r := range records {
		if r.LinkOK() {
			fmt.Fprintf(w, "  %s  %s\n", code(r.Code), r.Link)
		} else {
			fmt.Fprintf(w, "  %s  %s\n", code(r.Code), color.RedString(r.Link))
		}
	}
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("✗"), scanner.Message(err))
}
