package websocket

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/exstem-quiz-client/internal/model"
)

func TestHubDeliversToAllSubscribers(t *testing.T) {
	h := NewHub(zerolog.Nop())
	_, a := h.Subscribe()
	_, b := h.Subscribe()

	h.Publish(model.QuizView{Session: "s1"})

	assert.Equal(t, "s1", (<-a).Session)
	assert.Equal(t, "s1", (<-b).Session)
	assert.Equal(t, 2, h.Count())
}

func TestHubDropsOldestWhenFull(t *testing.T) {
	h := NewHub(zerolog.Nop())
	_, ch := h.Subscribe()

	for i := 0; i <= subscriberBuffer; i++ {
		h.Publish(model.QuizView{Progress: model.Progress{Answered: i}})
	}

	require.Len(t, ch, subscriberBuffer)
	first := <-ch
	assert.Equal(t, 1, first.Progress.Answered)

	var last model.QuizView
	for len(ch) > 0 {
		last = <-ch
	}
	assert.Equal(t, subscriberBuffer, last.Progress.Answered)
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub(zerolog.Nop())
	id, ch := h.Subscribe()

	h.Unsubscribe(id)
	h.Unsubscribe(id)

	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, h.Count())

	h.Publish(model.QuizView{})
}
