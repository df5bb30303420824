package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failing struct{}

func (failing) Publish(context.Context, string, string, any) error { return errors.New("broker down") }
func (failing) Close() error                                       { return nil }

func TestEmit_RecordsEvent(t *testing.T) {
	t.Parallel()

	mem := &Memory{}
	Emit(context.Background(), mem, TopicProducts, Event{Type: "product_created", ID: "p1"})

	msgs := mem.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, TopicProducts, msgs[0].Topic)
	assert.Equal(t, "p1", msgs[0].Key)

	ev := msgs[0].Event.(Event)
	assert.Equal(t, "product_created", ev.Type)
	assert.False(t, ev.At.IsZero())
	assert.Equal(t, []string{"product_created"}, mem.Types(TopicProducts))
	assert.Empty(t, mem.Types(TopicOrders))
}

func TestEmit_SwallowsErrors(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		Emit(context.Background(), failing{}, TopicOrders, Event{Type: "order_created", ID: "o1"})
		Emit(context.Background(), nil, TopicOrders, Event{Type: "order_created", ID: "o1"})
		Emit(context.Background(), Nop{}, TopicOrders, Event{Type: "order_created", ID: "o1"})
	})
}
