// Package businessflow contains the core business logic and use cases for the service backend
package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/samiwater/samiwater-backend/repository"
	"github.com/samiwater/samiwater-backend/utils"
)

// InvoiceSequencer mints unique, human-readable invoice codes scoped to the
// current Jalali month.
type InvoiceSequencer interface {
	NextCode(ctx context.Context) (string, error)
}

// InvoiceSequencerImpl implements InvoiceSequencer on top of the atomic
// sequence counter store. The code is the month prefix (last digit of the
// Jalali year plus the two-digit month, computed in Tehran time) followed
// by the zero-padded monthly sequence: Jalali 1404/05 allocation #1 yields
// "40501". The sequence resets implicitly when the prefix changes.
type InvoiceSequencerImpl struct {
	counterRepo repository.SequenceCounterRepository
	now         func() time.Time
}

// NewInvoiceSequencer creates a new invoice sequencer
func NewInvoiceSequencer(counterRepo repository.SequenceCounterRepository) InvoiceSequencer {
	return &InvoiceSequencerImpl{
		counterRepo: counterRepo,
		now:         utils.UTCNow,
	}
}

// NextCode allocates the next invoice code for the current Jalali month
func (s *InvoiceSequencerImpl) NextCode(ctx context.Context) (string, error) {
	prefix := utils.InvoiceMonthPrefix(s.now())

	seq, err := s.counterRepo.NextSequence(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to allocate invoice sequence: %w", err)
	}

	// Sequences past 99 widen the code rather than wrap
	return fmt.Sprintf("%s%0*d", prefix, utils.InvoiceSequencePad, seq), nil
}
