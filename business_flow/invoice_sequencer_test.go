package businessflow

import (
	"context"
	"testing"
	"time"

	testingutil "github.com/samiwater/samiwater-backend/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestInvoiceSequencer(t *testing.T) {
	ctx := context.Background()

	t.Run("SequenceIncrementsWithinMonth", func(t *testing.T) {
		counterRepo := testingutil.NewMemorySequenceCounterRepository()
		sequencer := &InvoiceSequencerImpl{
			counterRepo: counterRepo,
			now:         fixedClock(time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)),
		}

		first, err := sequencer.NextCode(ctx)
		require.NoError(t, err)
		assert.Equal(t, "40501", first)

		second, err := sequencer.NextCode(ctx)
		require.NoError(t, err)
		assert.Equal(t, "40502", second)
	})

	t.Run("SequenceRestartsOnNewMonth", func(t *testing.T) {
		counterRepo := testingutil.NewMemorySequenceCounterRepository()
		sequencer := &InvoiceSequencerImpl{
			counterRepo: counterRepo,
			now:         fixedClock(time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)),
		}

		code, err := sequencer.NextCode(ctx)
		require.NoError(t, err)
		assert.Equal(t, "40501", code)

		sequencer.now = fixedClock(time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC))

		code, err = sequencer.NextCode(ctx)
		require.NoError(t, err)
		assert.Equal(t, "40801", code)
	})

	t.Run("YearDigitChangesPrefix", func(t *testing.T) {
		counterRepo := testingutil.NewMemorySequenceCounterRepository()
		sequencer := &InvoiceSequencerImpl{
			counterRepo: counterRepo,
			now:         fixedClock(time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)),
		}

		code, err := sequencer.NextCode(ctx)
		require.NoError(t, err)
		assert.Equal(t, "50501", code)
	})

	t.Run("SequenceWidensPastPadding", func(t *testing.T) {
		counterRepo := testingutil.NewMemorySequenceCounterRepository()
		sequencer := &InvoiceSequencerImpl{
			counterRepo: counterRepo,
			now:         fixedClock(time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)),
		}

		var code string
		var err error
		for i := 0; i < 100; i++ {
			code, err = sequencer.NextCode(ctx)
			require.NoError(t, err)
		}
		assert.Equal(t, "405100", code)
	})
}
