package notify

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func TestSendDeliversToChat(t *testing.T) {
	sender := &fakeSender{}
	n := NewTelegram(sender, 42)

	require.NoError(t, n.Send(context.Background(), "红球(5): 01 02 03 04 05"))
	require.Len(t, sender.sent, 1)

	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, "红球(5): 01 02 03 04 05", msg.Text)
}

func TestSendWrapsError(t *testing.T) {
	n := NewTelegram(&fakeSender{err: errors.New("flood")}, 42)
	assert.ErrorContains(t, n.Send(context.Background(), "x"), "flood")
}

func TestDialValidates(t *testing.T) {
	_, err := Dial("", 1)
	assert.Error(t, err)
	_, err = Dial("token", 0)
	assert.Error(t, err)
}
