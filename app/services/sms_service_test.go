package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockSMSService(t *testing.T) {
	ctx := context.Background()

	t.Run("SendOTPRecordsMessage", func(t *testing.T) {
		mock := NewMockSMSService()

		err := mock.SendOTP(ctx, "09131234567", "123456")
		require.NoError(t, err)

		require.Len(t, mock.SentMessages, 1)
		assert.Equal(t, "09131234567", mock.SentMessages[0].Recipient)
		assert.Contains(t, mock.SentMessages[0].Message, "123456")
		assert.False(t, mock.SentMessages[0].SentAt.IsZero())
	})

	t.Run("FailNextFailsOnce", func(t *testing.T) {
		mock := NewMockSMSService()
		mock.FailNext = true

		err := mock.SendSMS(ctx, "09131234567", "hello")
		require.Error(t, err)
		assert.Empty(t, mock.SentMessages)

		err = mock.SendSMS(ctx, "09131234567", "hello again")
		require.NoError(t, err)
		assert.Len(t, mock.SentMessages, 1)
	})

	t.Run("ClearSentMessages", func(t *testing.T) {
		mock := NewMockSMSService()

		require.NoError(t, mock.SendSMS(ctx, "09131234567", "hello"))
		require.Len(t, mock.GetSentMessages(), 1)

		mock.ClearSentMessages()
		assert.Empty(t, mock.GetSentMessages())
	})
}
