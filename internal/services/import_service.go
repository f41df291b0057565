package services

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"momo/internal/amqp"
	"momo/internal/log"
	"momo/internal/sms"
	"momo/internal/source"
)

// ImportStore is where categorized messages and rejects end up.
type ImportStore interface {
	source.TransactionWriter
	source.RejectLogger
}

// ImportPublisher announces finished batches to other processes.
type ImportPublisher interface {
	PublishImportCompleted(ctx context.Context, msg *amqp.ImportCompletedMessage) error
}

// ImportResult summarises one import run.
type ImportResult struct {
	BatchID   string
	Processed int
	Rejected  int
	FirstID   int64 // lowest stored id, 0 when nothing was stored
	LastID    int64
}

// ImportService turns an SMS backup into stored transactions.
type ImportService struct {
	store       ImportStore
	publisher   ImportPublisher
	categorizer sms.Categorizer
	logger      *log.Logger
	events      *log.StructuredLogger
	newBatchID  func() string
}

// NewImportService wires the importer. publisher may be nil, in which case
// no event is sent.
func NewImportService(store ImportStore, publisher ImportPublisher, logger *log.Logger) *ImportService {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentImport)
	return &ImportService{
		store:      store,
		publisher:  publisher,
		logger:     logger,
		events:     log.NewStructuredLogger(logger),
		newBatchID: func() string { return uuid.NewString() },
	}
}

// Import reads an SMS backup document from r and stores every message it
// can categorize.
func (s *ImportService) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	msgs, err := sms.ReadBackup(r)
	if err != nil {
		return ImportResult{}, err
	}
	return s.ImportMessages(ctx, msgs)
}

// ImportMessages categorizes and stores msgs. Messages that cannot be
// categorized or stored are written to the reject log; only a failure of
// the reject log itself aborts the run.
func (s *ImportService) ImportMessages(ctx context.Context, msgs []sms.Message) (ImportResult, error) {
	res := ImportResult{BatchID: s.newBatchID()}

	for _, m := range msgs {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		t, ok := s.categorizer.Categorize(m.Body)
		if !ok {
			if err := s.reject(ctx, m.Body, sms.ReasonUncategorized); err != nil {
				return res, err
			}
			res.Rejected++
			continue
		}

		id, err := s.store.Upsert(ctx, t)
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to store transaction",
				log.FieldError, err,
				log.FieldTransactionID, t.TransactionID,
				log.FieldTransactionType, t.Type)
			if err := s.reject(ctx, m.Body, sms.ReasonInsertFailed); err != nil {
				return res, err
			}
			res.Rejected++
			continue
		}

		res.Processed++
		if res.FirstID == 0 || id < res.FirstID {
			res.FirstID = id
		}
		if id > res.LastID {
			res.LastID = id
		}
		s.logger.DebugContext(ctx, "Processed transaction",
			log.FieldTransactionType, t.Type,
			log.FieldAmountCents, t.Amount.Cents)
	}

	s.events.LogImportCompleted(ctx, res.BatchID, res.Processed, res.Rejected)
	s.publish(ctx, res)
	return res, nil
}

func (s *ImportService) reject(ctx context.Context, raw, reason string) error {
	if err := s.store.LogRejected(ctx, raw, reason); err != nil {
		return fmt.Errorf("log rejected message: %w", err)
	}
	return nil
}

// publish is best effort: the batch is already stored.
func (s *ImportService) publish(ctx context.Context, res ImportResult) {
	if s.publisher == nil || res.Processed == 0 {
		return
	}
	msg := amqp.NewImportCompletedMessage(res.BatchID, res.Processed, res.Rejected, res.FirstID, res.LastID)
	if err := s.publisher.PublishImportCompleted(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish import completed message",
			log.FieldError, err,
			log.FieldBatchID, res.BatchID)
	}
}
