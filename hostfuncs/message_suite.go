package hostfuncs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ofxdriver/ofxdriver/domain/entities"
)

// MessageSuite records and logs messages posted by plugins and answers
// questions from the configured replies.
type MessageSuite struct {
	s *Suites
}

func messageLevel(msgType string) (slog.Level, bool) {
	switch msgType {
	case entities.MessageFatal, entities.MessageError:
		return slog.LevelError, true
	case entities.MessageMessage, entities.MessageQuestion:
		return slog.LevelInfo, true
	case entities.MessageLog:
		return slog.LevelDebug, true
	}
	return slog.LevelWarn, false
}

// Post delivers an already formatted message. A nil text means the plugin's
// format could not be expanded: the notification is still recorded and
// the call fails. Questions return the next configured reply for the
// effect, ReplyYes when none is left.
func (m *MessageSuite) Post(ctx context.Context, effect Handle, msgType, id string, text []byte) entities.Status {
	level, known := messageLevel(msgType)
	msg := Message{Effect: effect, Type: msgType, ID: id, Text: text}

	switch {
	case text == nil:
		msg.Reply = entities.StatFailed
	case !known:
		msg.Reply = entities.StatErrUnknown
	case msgType == entities.MessageQuestion:
		msg.Reply = m.s.state.nextResponse(effect)
	default:
		msg.Reply = entities.StatOK
	}

	m.s.state.recordMessage(msg)
	m.s.logger().Log(ctx, level, "plugin message",
		"type", msgType,
		"id", id,
		"text", string(text),
		"reply", msg.Reply.String(),
	)
	return msg.Reply
}

// Message formats and posts a message.
func (m *MessageSuite) Message(ctx context.Context, effect Handle, msgType, id, format string, args ...any) entities.Status {
	return m.Post(ctx, effect, msgType, id, []byte(fmt.Sprintf(format, args...)))
}
