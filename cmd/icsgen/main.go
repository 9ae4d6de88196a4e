// Command icsgen renders a YAML description of events, to-dos and venues as
// an iCalendar stream.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	ics "github.com/manuelvo/icalendar"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("icsgen failed", "error", err)
		os.Exit(1)
	}
}

func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}),
	))
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "icsgen [file.yaml]",
		Short: "Generates an iCalendar file from a YAML description",
		Long: `Reads a YAML document listing events, to-dos and venues and writes them
as an RFC 5545 calendar. The document is read from the given file or, when
no file is given, from standard input.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			setupLogging(cmd.ErrOrStderr(), verbose)

			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			output, _ := cmd.Flags().GetString("output")
			if output == "" || output == "-" {
				return run(cmd, in, cmd.OutOrStdout())
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := run(cmd, in, f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", output, err)
			}
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Write the calendar to this file instead of standard output")
	cmd.Flags().Bool("unix-newlines", false, "End lines with LF instead of CRLF")
	cmd.Flags().Int("fold", 0, "Fold content lines longer than this many octets (75 per RFC 5545, 0 disables)")
	cmd.Flags().BoolP("verbose", "v", false, "Log every component as it is built")
	return cmd
}

func run(cmd *cobra.Command, in io.Reader, out io.Writer) error {
	doc, err := DecodeDocument(in)
	if err != nil {
		return err
	}
	cal, err := doc.Build()
	if err != nil {
		return err
	}

	var ops []any
	if unix, _ := cmd.Flags().GetBool("unix-newlines"); unix {
		ops = append(ops, ics.WithNewLineUnix)
	}
	fold, _ := cmd.Flags().GetInt("fold")
	if fold < 0 {
		return fmt.Errorf("--fold must not be negative, got %d", fold)
	}
	ops = append(ops, ics.WithLineLength(fold))

	if err := cal.SerializeTo(out, ops...); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	slog.Info("wrote calendar",
		"events", len(cal.Events()),
		"todos", len(cal.Todos()),
		"venues", len(cal.Venues()))
	return nil
}
