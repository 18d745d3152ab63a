package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/book-expert/ssml-service/internal/ruleset"
	"github.com/book-expert/ssml-service/internal/ssml"
	"github.com/spf13/cobra"
)

// Output formats.
const (
	outputText = "text"
	outputJSON = "json"
)

const stdinName = "-"

var validOutputFormats = []string{outputText, outputJSON}

// ErrInvalidDocuments is returned when at least one document fails validation.
var ErrInvalidDocuments = errors.New("one or more documents are invalid")

// options holds the flags shared by all commands.
type options struct {
	variant string
	rules   string
	output  string
	in      io.Reader
	out     io.Writer
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	opts := &options{
		variant: string(ssml.VariantCanonical),
		rules:   "",
		output:  outputText,
		in:      in,
		out:     out,
	}

	rootCmd := &cobra.Command{
		Use:           "ssml-check",
		Short:         "Validate the tags used in SSML documents",
		Long:          `Checks that SSML documents are well-formed and reports which tags the native speech engine supports.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if !slices.Contains(validOutputFormats, opts.output) {
				return fmt.Errorf("invalid output format: %s (valid: %v)", opts.output, validOutputFormats)
			}

			return nil
		},
	}

	rootCmd.SetIn(in)
	rootCmd.SetOut(out)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.variant, "variant", opts.variant, fmt.Sprintf("rule variant %v", ssml.Variants()))
	flags.StringVar(&opts.rules, "rules", "", "TOML rule file (overrides --variant)")
	flags.StringVarP(&opts.output, "output", "o", outputText, "output format: text or json")

	rootCmd.AddCommand(
		newValidateCmd(opts),
		newDemoCmd(opts),
		newStripCmd(opts),
		newSubmitCmd(opts),
	)

	return rootCmd
}

// validator builds the validator selected by --rules or --variant.
func (o *options) validator() (*ssml.Validator, error) {
	if o.rules != "" {
		validator, err := ruleset.LoadFile(o.rules)
		if err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}

		return validator, nil
	}

	validator, err := ssml.NewVariantValidator(ssml.Variant(o.variant))
	if err != nil {
		return nil, fmt.Errorf("select variant: %w", err)
	}

	return validator, nil
}

// readDocument reads a named file, or stdin for "-".
func (o *options) readDocument(name string) (string, error) {
	if name == stdinName {
		data, err := io.ReadAll(o.in)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}

		return string(data), nil
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}

	return string(data), nil
}

// namedResult pairs a document name with its validation result.
type namedResult struct {
	Name    string       `json:"name"`
	Variant ssml.Variant `json:"variant"`
	Result  ssml.Result  `json:"result"`
}

func (o *options) printResults(results []namedResult) error {
	if o.output == outputJSON {
		encoder := json.NewEncoder(o.out)
		encoder.SetIndent("", "  ")

		err := encoder.Encode(results)
		if err != nil {
			return fmt.Errorf("encode results: %w", err)
		}

		return nil
	}

	for i, named := range results {
		if i > 0 {
			fmt.Fprintln(o.out)
		}

		printResult(o.out, named)
	}

	return nil
}

func printResult(out io.Writer, named namedResult) {
	errorMessage := "None"
	if named.Result.ErrorMessage != "" {
		errorMessage = named.Result.ErrorMessage
	}

	fmt.Fprintf(out, "== %s (%s)\n", named.Name, named.Variant)
	fmt.Fprintf(out, "Valid: %t\n", named.Result.Valid)
	fmt.Fprintf(out, "Supported tags: [%s]\n", named.Result.SupportedTags)
	fmt.Fprintf(out, "Unsupported tags: [%s]\n", named.Result.UnsupportedTags)
	fmt.Fprintf(out, "Error: %s\n", errorMessage)
}
