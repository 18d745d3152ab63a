// Package worker provides a NATS worker that validates SSML documents.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/ssml-service/internal/core"
	"github.com/book-expert/ssml-service/internal/metrics"
	"github.com/book-expert/ssml-service/internal/speech"
	"github.com/book-expert/ssml-service/internal/ssml"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const handleMessageTimeout = 30 * time.Second

// Object key suffixes.
const (
	reportKeySuffix = ".json"
	audioKeySuffix  = ".wav"
)

var (
	// ErrNoDocument indicates a request with neither inline SSML nor a key.
	ErrNoDocument = errors.New("request must carry ssml or a document_key")
	// ErrAmbiguousDocument indicates a request with both inline SSML and a key.
	ErrAmbiguousDocument = errors.New("request cannot carry both ssml and a document_key")
	// ErrNoDocumentStore indicates a document_key without a documents bucket.
	ErrNoDocumentStore = errors.New("document store is not configured")
	// ErrSpeechUnavailable indicates a speak request without a speech engine.
	ErrSpeechUnavailable = errors.New("speech engine is not configured")
	// ErrValidatorNil indicates a worker created without a validator.
	ErrValidatorNil = errors.New("validator cannot be nil")
	// ErrLoggerNil indicates a worker created without a logger.
	ErrLoggerNil = errors.New("logger cannot be nil")
)

// Stores groups the buckets the worker reads from and writes to. Any of them
// may be nil; the matching feature is then skipped or reported as an error.
type Stores struct {
	Documents core.ObjectStore
	Reports   core.ObjectStore
	Audio     core.ObjectStore
}

// NatsWorker answers validation requests on a NATS subject.
type NatsWorker struct {
	natsConnection *nats.Conn
	subject        string
	validator      core.Validator
	stores         Stores
	synthesizer    core.Synthesizer
	metrics        *metrics.Collector
	log            *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker. synthesizer and
// collector may be nil.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	validator core.Validator,
	stores Stores,
	synthesizer core.Synthesizer,
	collector *metrics.Collector,
	log *logger.Logger,
) (*NatsWorker, error) {
	if validator == nil {
		return nil, ErrValidatorNil
	}

	if log == nil {
		return nil, ErrLoggerNil
	}

	return &NatsWorker{
		natsConnection: natsConnection,
		subject:        subject,
		validator:      validator,
		stores:         stores,
		synthesizer:    synthesizer,
		metrics:        collector,
		log:            log,
	}, nil
}

// Run starts the worker and blocks until ctx is cancelled.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	w.log.Info("Listening for validation requests on subject: %s", w.subject)

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	var reply *core.ValidationReply

	request, err := parseRequest(msg)
	if err != nil {
		w.log.Error("Failed to parse validation request: %v", err)

		reply = &core.ValidationReply{Error: err.Error()}
	} else {
		reply = w.Process(ctx, request)
	}

	err = publishReply(msg, reply)
	if err != nil {
		w.log.Error("Failed to publish reply for workflow %s: %v", reply.Header.WorkflowID, err)
	}
}

// Process validates the requested document, stores the report and, when
// asked, the audio. Failures after validation are reported in Error while
// the Result is kept.
func (w *NatsWorker) Process(ctx context.Context, request *core.ValidationRequest) *core.ValidationReply {
	reply := &core.ValidationReply{
		Header:  request.Header,
		Variant: w.validator.Variant(),
	}

	text, err := w.loadDocument(ctx, request)
	if err != nil {
		w.log.Error("Failed to load document for workflow %s: %v", request.Header.WorkflowID, err)
		reply.Error = err.Error()

		return reply
	}

	start := time.Now()
	result := w.validator.Validate(text)
	w.metrics.RecordValidation(reply.Variant, result, time.Since(start))

	reply.Result = &result

	if !result.Valid {
		w.log.Info("Workflow %s: SSML invalid (%s): %s", request.Header.WorkflowID, result.ErrorKind, result.ErrorMessage)
	}

	var errs []error

	reportKey, err := w.storeReport(ctx, request, reply.Variant, result)
	if err != nil {
		errs = append(errs, err)
	}

	reply.ReportKey = reportKey

	if request.Speak {
		audioKey, fellBack, speakErr := w.speak(ctx, text)
		if speakErr != nil {
			errs = append(errs, speakErr)
		}

		reply.AudioKey = audioKey
		reply.PlainTextFallback = fellBack
	}

	joined := errors.Join(errs...)
	if joined != nil {
		w.log.Error("Workflow %s: %v", request.Header.WorkflowID, joined)
		reply.Error = joined.Error()
	}

	return reply
}

func (w *NatsWorker) loadDocument(ctx context.Context, request *core.ValidationRequest) (string, error) {
	switch {
	case request.SSML != "" && request.DocumentKey != "":
		return "", ErrAmbiguousDocument
	case request.SSML != "":
		return request.SSML, nil
	case request.DocumentKey == "":
		return "", ErrNoDocument
	case w.stores.Documents == nil:
		return "", ErrNoDocumentStore
	}

	data, err := w.stores.Documents.Download(ctx, request.DocumentKey)
	if err != nil {
		return "", fmt.Errorf("failed to download document '%s': %w", request.DocumentKey, err)
	}

	return string(data), nil
}

func (w *NatsWorker) storeReport(
	ctx context.Context,
	request *core.ValidationRequest,
	variant ssml.Variant,
	result ssml.Result,
) (string, error) {
	if w.stores.Reports == nil {
		return "", nil
	}

	report := core.ValidationReport{
		Header:      request.Header,
		DocumentKey: request.DocumentKey,
		Variant:     variant,
		Result:      result,
		ValidatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to marshal validation report: %w", err)
	}

	reportKey := uuid.NewString() + reportKeySuffix

	err = w.stores.Reports.Upload(ctx, reportKey, data)
	if err != nil {
		return "", fmt.Errorf("failed to upload validation report '%s': %w", reportKey, err)
	}

	return reportKey, nil
}

// speak renders text through the speech engine, falling back to plain text
// when the engine rejects the markup, and stores the audio.
func (w *NatsWorker) speak(ctx context.Context, text string) (string, bool, error) {
	if w.synthesizer == nil {
		return "", false, ErrSpeechUnavailable
	}

	audio, fellBack, err := speech.SpeakWithFallback(ctx, w.synthesizer, text)
	if fellBack {
		w.metrics.RecordFallback()
	}

	if err != nil {
		return "", fellBack, err
	}

	if w.stores.Audio == nil {
		return "", fellBack, nil
	}

	audioKey := uuid.NewString() + audioKeySuffix

	err = w.stores.Audio.Upload(ctx, audioKey, audio)
	if err != nil {
		return "", fellBack, fmt.Errorf("failed to upload audio data for key '%s': %w", audioKey, err)
	}

	return audioKey, fellBack, nil
}

// publishReply marshals and responds with the reply.
func publishReply(msg *nats.Msg, reply *core.ValidationReply) error {
	replyData, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}

	err = msg.Respond(replyData)
	if err != nil {
		return fmt.Errorf("failed to publish reply: %w", err)
	}

	return nil
}

func parseRequest(msg *nats.Msg) (*core.ValidationRequest, error) {
	var request core.ValidationRequest

	err := json.Unmarshal(msg.Data, &request)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal request: %w", err)
	}

	return &request, nil
}
