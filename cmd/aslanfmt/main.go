// Command aslanfmt reads an ASLAN document from a file or stdin and
// writes the parsed Value tree to stdout as JSON. It exists to let the
// format be exercised from a shell; the parser itself has no CLI
// dependency.
package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	aslan "github.com/jayfoss/ASLAN"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		optionsPath string
		strictStart bool
		strictEnd   bool
		multi       bool
	)

	log := logrus.New()

	cmd := &cobra.Command{
		Use:   "aslanfmt [file]",
		Short: "Parse an ASLAN document and print it as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := aslan.DefaultOptions()
			if optionsPath != "" {
				raw, err := os.ReadFile(optionsPath)
				if err != nil {
					log.WithError(err).Error("aslanfmt: reading options file")
					return err
				}
				loaded, err := aslan.LoadOptionsYAML(raw)
				if err != nil {
					log.WithError(err).Error("aslanfmt: decoding options file")
					return err
				}
				opts = loaded
				log.WithField("path", optionsPath).Debug("aslanfmt: loaded options")
			}

			if strictStart {
				opts.StrictStart = true
			}
			if strictEnd {
				opts.StrictEnd = true
			}
			if multi {
				opts.MultiAslanOutput = true
			}
			opts.Logger = log

			var in io.Reader = os.Stdin
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					log.WithError(err).WithField("file", args[0]).Error("aslanfmt: opening input")
					return err
				}
				defer f.Close()
				in = f
			}

			data, err := io.ReadAll(in)
			if err != nil {
				log.WithError(err).Error("aslanfmt: reading input")
				return err
			}

			log.WithField("bytes", len(data)).Debug("aslanfmt: parsing")
			value := aslan.NewWithOptions(opts).Parse(data)

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(value)
		},
	}

	cmd.Flags().StringVar(&optionsPath, "options", "", "path to a YAML options file")
	cmd.Flags().BoolVar(&strictStart, "strict-start", false, "discard content before the first go delimiter")
	cmd.Flags().BoolVar(&strictEnd, "strict-end", false, "discard content after a stop delimiter")
	cmd.Flags().BoolVar(&multi, "multi", false, "emit a sequence of documents split on go delimiters")

	return cmd
}
