package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"jobhunt-aggregator/internal/errors"
)

func TestMakeEvent(t *testing.T) {
	raw := MakeEvent("req-1", TypeJobsIngested, 1, JobsIngested{Source: "lever", Inserted: 2, Merged: 1})

	var e Event
	require.NoError(t, json.Unmarshal([]byte(raw), &e))
	assert.Equal(t, TypeJobsIngested, e.Type)
	assert.Equal(t, 1, e.Version)
	assert.Equal(t, "req-1", e.RequestID)
	assert.False(t, e.At.IsZero())
	assert.JSONEq(t, `{"source":"lever","inserted":2,"merged":1,"skipped":0}`, string(e.Data))
}

func TestMakeEventWithoutData(t *testing.T) {
	raw := MakeEvent("", TypePollStarted, 1, nil)
	assert.NotContains(t, raw, `"data"`)
	assert.NotContains(t, raw, `"request_id"`)
}

func TestHubFanOut(t *testing.T) {
	h := NewHub()
	a := h.Subscribe()
	b := h.Subscribe()
	assert.Equal(t, 2, h.Subscribers())

	h.Publish("hello")
	assert.Equal(t, "hello", <-a)
	assert.Equal(t, "hello", <-b)

	h.Unsubscribe(a)
	h.Unsubscribe(a)
	_, open := <-a
	assert.False(t, open)
	assert.Equal(t, 1, h.Subscribers())
}

func TestHubDropsWhenSubscriberIsSlow(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	for i := 0; i < 25; i++ {
		h.Publish("evt")
	}
	assert.Len(t, ch, 10)
}

type recorder struct{ got []string }

func (r *recorder) Publish(evt string) { r.got = append(r.got, evt) }

func TestMulti(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := Multi(a, nil, b)
	m.Publish("x")
	assert.Equal(t, []string{"x"}, a.got)
	assert.Equal(t, []string{"x"}, b.got)

	assert.Same(t, a, Multi(nil, a))
	assert.Equal(t, Nop, Multi())
}

type fakeRedis struct {
	channel string
	message interface{}
	err     error
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.message = message
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func TestRedisPublisher(t *testing.T) {
	fake := &fakeRedis{}
	p := NewRedisPublisher(fake, "", zaptest.NewLogger(t).Sugar())

	p.Publish(`{"type":"jobs_ingested"}`)
	assert.Equal(t, DefaultChannel, fake.channel)
	assert.Equal(t, `{"type":"jobs_ingested"}`, fake.message)
}

func TestRedisPublisherSwallowsErrors(t *testing.T) {
	fake := &fakeRedis{err: errors.New("connection refused")}
	p := NewRedisPublisher(fake, "custom", nil)

	assert.NotPanics(t, func() { p.Publish("evt") })
	assert.Equal(t, "custom", fake.channel)
}
