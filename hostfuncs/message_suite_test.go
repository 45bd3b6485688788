package hostfuncs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/internal/abi"
)

func TestMessageSuite_Post(t *testing.T) {
	f := newFixture(t)
	_, inst := f.liveEffect("inst")
	m := f.suites.Message

	assert.Equal(t, entities.StatOK, m.Message(f.ctx, inst, entities.MessageError, "id1", "bad %s", "input"))
	assert.Equal(t, entities.StatErrUnknown, m.Post(f.ctx, inst, "OfxMessageShout", "", []byte("x")))
	assert.Equal(t, entities.StatFailed, m.Post(f.ctx, inst, entities.MessageLog, "", nil))

	msgs := f.state.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "bad input", string(msgs[0].Text))
	assert.Equal(t, "id1", msgs[0].ID)
	assert.Equal(t, entities.StatOK, msgs[0].Reply)
	assert.Nil(t, msgs[2].Text)
	assert.Equal(t, entities.StatFailed, msgs[2].Reply)
}

func TestMessageSuite_QuestionReplies(t *testing.T) {
	f := newFixture(t)
	_, inst := f.liveEffect("inst")
	m := f.suites.Message
	f.state.QueueResponses(inst, []entities.Status{entities.StatReplyNo, entities.StatReplyDefault})

	assert.Equal(t, entities.StatReplyNo, m.Post(f.ctx, inst, entities.MessageQuestion, "q", []byte("sure?")))
	assert.Equal(t, entities.StatReplyDefault, m.Post(f.ctx, inst, entities.MessageQuestion, "q", []byte("sure?")))
	assert.Equal(t, entities.StatReplyYes, m.Post(f.ctx, inst, entities.MessageQuestion, "q", []byte("sure?")))

	f.state.ReleaseEffect(inst)
	assert.Equal(t, entities.StatReplyYes, m.Post(f.ctx, inst, entities.MessageQuestion, "q", []byte("again")))
}

func TestMessageBridge_TwoPassFormat(t *testing.T) {
	f := newFixture(t)
	_, inst := f.liveEffect("inst")

	va := f.varargs(new(abi.VarArgsBuilder).Int32(3).Uint32(uint32(f.cstr("gain"))).Float64(0.5))
	st := f.call("message", uint64(inst), f.cstr(entities.MessageMessage), 0, f.cstr("param %d (%s) = %.2f"), va)
	require.Equal(t, entities.StatOK, st)

	msgs := f.state.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "param 3 (gain) = 0.50", string(msgs[0].Text))
	assert.Equal(t, "", msgs[0].ID)
	assert.Zero(t, liveBuffers.Load(), "format buffer returned to the pool")
}

func TestMessageBridge_FormatFailureForwardsNil(t *testing.T) {
	f := newFixture(t)
	_, inst := f.liveEffect("inst")

	st := f.call("message", uint64(inst), f.cstr(entities.MessageError), f.cstr("e1"), f.cstr("oops %n"), f.varargs(new(abi.VarArgsBuilder).Uint32(0)))
	assert.Equal(t, entities.StatFailed, st)

	msgs := f.state.Messages()
	require.Len(t, msgs, 1)
	assert.Nil(t, msgs[0].Text)
	assert.Equal(t, "e1", msgs[0].ID)
	assert.Zero(t, liveBuffers.Load())

	assert.Equal(t, entities.StatErrValue, f.call("message", uint64(inst), 0xFFFFFF00, 0, f.cstr("x"), 0))
}
