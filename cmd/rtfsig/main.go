package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/wudi/rtfsig/analyser"
	"github.com/wudi/rtfsig/observability"
	"github.com/wudi/rtfsig/report"
	"github.com/wudi/rtfsig/version"
)

type options struct {
	rtfPath      string
	yaraPath     string
	htmlPath     string
	verbose      bool
	excludeRisky bool
	jsonLog      bool
}

// usageError marks failures caused by how the tool was invoked.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func main() {
	cmd := newRootCmd(os.Stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "rtfsig: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var ue usageError
	if errors.As(err, &ue) {
		return 2
	}
	return 1
}

func newRootCmd(logOut io.Writer) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "rtfsig -f <file>",
		Short: "Examine RTF documents for artefacts that can be used to hunt similar files",
		Long: "Examine RTF documents for artefacts that can be used to hunt similar files.\n\n" +
			"Extracts revision save IDs, fixed image sizes and document information tags, " +
			"and optionally writes loose and strict YARA rules built from them.",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.rtfPath == "" {
				return usageError{errors.New("missing RTF file (-f)")}
			}
			return run(opts, logOut)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})
	bindFlags(cmd.Flags(), &opts)
	return cmd
}

func bindFlags(fs *pflag.FlagSet, opts *options) {
	fs.StringVarP(&opts.rtfPath, "rtf-file", "f", "", "RTF file to analyse")
	fs.StringVarP(&opts.yaraPath, "yara", "y", "", "write YARA rules to file (default: not written)")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "print more debugging messages to screen")
	fs.BoolVarP(&opts.excludeRisky, "exclude-risky", "x", false, "exclude riskier items, e.g. the information group")
	fs.StringVar(&opts.htmlPath, "html", "", "write an HTML summary to file")
	fs.BoolVar(&opts.jsonLog, "json-log", false, "log as JSON lines")
}

func run(opts options, logOut io.Writer) error {
	log := observability.NewCharmLogger(observability.CharmConfig{
		Output:  logOut,
		Verbose: opts.verbose,
		JSON:    opts.jsonLog,
	}).With(observability.String("file", filepath.Base(opts.rtfPath)))

	data, err := os.ReadFile(opts.rtfPath)
	if err != nil {
		return fmt.Errorf("read rtf: %w", err)
	}
	log.Info("starting to parse file", observability.Int("bytes", len(data)))

	res := analyser.New(analyser.Config{
		ExcludeRisky: opts.excludeRisky,
		Logger:       log,
	}).Analyse(data)
	report.Log(log, res)

	if len(res.Rules) > 0 {
		log.Info("found some unique strings, consider searching for them or deploying the rules")
		if opts.yaraPath != "" {
			if err := os.WriteFile(opts.yaraPath, []byte(res.RuleText), 0o644); err != nil {
				return fmt.Errorf("write rules: %w", err)
			}
			log.Info("rules written", observability.String("path", opts.yaraPath))
		}
	}

	if opts.htmlPath != "" {
		html, err := report.HTML(filepath.Base(opts.rtfPath), res)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.htmlPath, html, 0o644); err != nil {
			return fmt.Errorf("write html: %w", err)
		}
	}
	return nil
}
