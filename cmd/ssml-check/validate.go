package main

import (
	"fmt"

	"github.com/book-expert/ssml-service/internal/speech"
	"github.com/spf13/cobra"
)

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file...]",
		Short: "Validate SSML files, or stdin when no file is given",
		RunE: func(_ *cobra.Command, args []string) error {
			validator, err := opts.validator()
			if err != nil {
				return err
			}

			if len(args) == 0 {
				args = []string{stdinName}
			}

			results := make([]namedResult, 0, len(args))
			allValid := true

			for _, name := range args {
				document, readErr := opts.readDocument(name)
				if readErr != nil {
					return readErr
				}

				result := validator.Validate(document)
				allValid = allValid && result.Valid

				results = append(results, namedResult{Name: name, Variant: validator.Variant(), Result: result})
			}

			err = opts.printResults(results)
			if err != nil {
				return err
			}

			if !allValid {
				return ErrInvalidDocuments
			}

			return nil
		},
	}
}

func newStripCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "strip [file]",
		Short: "Print the plain text spoken when the engine cannot parse the markup",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			name := stdinName
			if len(args) == 1 {
				name = args[0]
			}

			document, err := opts.readDocument(name)
			if err != nil {
				return err
			}

			fmt.Fprintln(opts.out, speech.PlainText(document))

			return nil
		},
	}
}
