package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/ssml-service/internal/core"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

const defaultSubmitTimeout = 10 * time.Second

// submitOptions holds the flags of the submit command.
type submitOptions struct {
	natsURL     string
	subject     string
	documentKey string
	speak       bool
	timeout     time.Duration
}

func newSubmitCmd(opts *options) *cobra.Command {
	submit := &submitOptions{
		natsURL:     nats.DefaultURL,
		subject:     "ssml.validate",
		documentKey: "",
		speak:       false,
		timeout:     defaultSubmitTimeout,
	}

	cmd := &cobra.Command{
		Use:   "submit [file]",
		Short: "Send a document to a running ssml-service and print its reply",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			request := core.ValidationRequest{
				Header: events.EventHeader{
					Timestamp:  time.Now().UTC(),
					WorkflowID: uuid.NewString(),
					EventID:    uuid.NewString(),
					UserID:     "",
					TenantID:   "",
				},
				SSML:        "",
				DocumentKey: submit.documentKey,
				Speak:       submit.speak,
			}

			if submit.documentKey == "" {
				name := stdinName
				if len(args) == 1 {
					name = args[0]
				}

				document, err := opts.readDocument(name)
				if err != nil {
					return err
				}

				request.SSML = document
			}

			reply, err := submit.send(&request)
			if err != nil {
				return err
			}

			return printReply(opts, reply)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&submit.natsURL, "nats-url", submit.natsURL, "NATS server URL")
	flags.StringVar(&submit.subject, "subject", submit.subject, "validation request subject")
	flags.StringVar(&submit.documentKey, "key", "", "validate a document already in the documents bucket")
	flags.BoolVar(&submit.speak, "speak", false, "also render the document to audio")
	flags.DurationVar(&submit.timeout, "timeout", submit.timeout, "reply timeout")

	return cmd
}

func (s *submitOptions) send(request *core.ValidationRequest) (*core.ValidationReply, error) {
	natsConnection, err := nats.Connect(s.natsURL)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", s.natsURL, err)
	}
	defer natsConnection.Close()

	data, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	msg, err := natsConnection.Request(s.subject, data, s.timeout)
	if err != nil {
		return nil, fmt.Errorf("request on %s: %w", s.subject, err)
	}

	var reply core.ValidationReply

	err = json.Unmarshal(msg.Data, &reply)
	if err != nil {
		return nil, fmt.Errorf("unmarshal reply: %w", err)
	}

	return &reply, nil
}

func printReply(opts *options, reply *core.ValidationReply) error {
	if opts.output == outputJSON {
		encoder := json.NewEncoder(opts.out)
		encoder.SetIndent("", "  ")

		err := encoder.Encode(reply)
		if err != nil {
			return fmt.Errorf("encode reply: %w", err)
		}
	} else {
		fmt.Fprintf(opts.out, "Workflow: %s\n", reply.Header.WorkflowID)

		if reply.Result != nil {
			printResult(opts.out, namedResult{Name: "reply", Variant: reply.Variant, Result: *reply.Result})
		}

		if reply.ReportKey != "" {
			fmt.Fprintf(opts.out, "Report: %s\n", reply.ReportKey)
		}

		if reply.AudioKey != "" {
			fmt.Fprintf(opts.out, "Audio: %s (plain text fallback: %t)\n", reply.AudioKey, reply.PlainTextFallback)
		}

		if reply.Error != "" {
			fmt.Fprintf(opts.out, "Service error: %s\n", reply.Error)
		}
	}

	if reply.Result == nil || !reply.Result.Valid {
		return ErrInvalidDocuments
	}

	return nil
}
