package hostfuncs

import (
	"log/slog"
	"sync"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/internal/handles"
)

// Handle is a plugin-visible handle.
type Handle = handles.Handle

// Message is one notification posted through the message suite.
type Message struct {
	Effect Handle
	Type   string
	ID     string
	// Text is nil when the plugin's format string could not be expanded.
	Text  []byte
	Reply entities.Status
}

// State is shared by the suites of every bundle a host has loaded: the
// handle table, the host property set and message bookkeeping.
type State struct {
	Handles   *handles.Table
	HostProps *entities.PropertySet

	logger     *slog.Logger
	hostHandle Handle

	mu        sync.Mutex
	messages  []Message
	responses map[Handle][]entities.Status
	defects   []error
}

// NewState creates the shared state around a host property set.
func NewState(hostProps *entities.PropertySet, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	t := handles.NewTable()
	return &State{
		Handles:    t,
		HostProps:  hostProps,
		logger:     logger,
		hostHandle: t.Register(handles.KindPropertySet, hostProps, 0),
		responses:  make(map[Handle][]entities.Status),
	}
}

// Logger returns the logger suites report through.
func (s *State) Logger() *slog.Logger {
	return s.logger
}

// HostPropertySet returns the handle of the host property set.
func (s *State) HostPropertySet() Handle {
	return s.hostHandle
}

// RegisterEffect gives an effect, its property set, its parameter set and
// the parameter set's properties their handles. The returned handle owns
// all of them.
func (s *State) RegisterEffect(e *entities.Effect) Handle {
	h := s.Handles.Register(handles.KindEffect, e, 0)
	s.Handles.Register(handles.KindPropertySet, e.Props, h)
	ps := s.Handles.Register(handles.KindParamSet, e.Params, h)
	s.Handles.Register(handles.KindPropertySet, e.Params.Props, ps)
	return h
}

// ReleaseEffect invalidates an effect handle and everything it owns.
func (s *State) ReleaseEffect(h Handle) int {
	s.mu.Lock()
	delete(s.responses, h)
	s.mu.Unlock()
	return s.Handles.ReleaseOwned(h)
}

// RegisterArgs gives a temporary action argument set a handle.
func (s *State) RegisterArgs(ps *entities.PropertySet) Handle {
	if ps == nil {
		return 0
	}
	return s.Handles.RegisterNew(handles.KindPropertySet, ps, 0)
}

// ReleaseArgs invalidates an argument set handle.
func (s *State) ReleaseArgs(h Handle) {
	if h != 0 {
		s.Handles.Release(h)
	}
}

// QueueResponses sets the replies given to question messages posted by
// effect, consumed in order.
func (s *State) QueueResponses(effect Handle, replies []entities.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[effect] = append([]entities.Status(nil), replies...)
}

func (s *State) nextResponse(effect Handle) entities.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.responses[effect]
	if len(q) == 0 {
		return entities.StatReplyYes
	}
	s.responses[effect] = q[1:]
	return q[0]
}

func (s *State) recordMessage(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
}

// Messages returns every message posted so far.
func (s *State) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// RecordDefect stores a host defect caught at the plugin boundary so the
// command that triggered it can fail fatally.
func (s *State) RecordDefect(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defects = append(s.defects, err)
}

// TakeDefect returns and clears the first recorded defect.
func (s *State) TakeDefect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.defects) == 0 {
		return nil
	}
	err := s.defects[0]
	s.defects = nil
	return err
}
