package entities

import (
	"encoding/json"
	"fmt"
)

// State is the lifecycle state of an effect. Transitions only move forward.
type State uint8

const (
	StateDescribed State = iota
	StateCreated
	StateActive
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateDescribed:
		return "Described"
	case StateCreated:
		return "Created"
	case StateActive:
		return "Active"
	case StateDestroyed:
		return "Destroyed"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s State) CanTransitionTo(next State) bool {
	return next > s && next <= StateDestroyed
}

// AcceptsParamAccess reports whether parameter get/set is allowed.
func (s State) AcceptsParamAccess() bool {
	return s == StateCreated || s == StateActive
}

// Clip is a named image input or output of an effect.
type Clip struct {
	Name  string
	Props *PropertySet
	Image *Image
	// RegionOfDefinition, when set, is reported in place of the bound
	// image's bounds.
	RegionOfDefinition *RectD
}

// NewClip creates a clip with the properties this host supports: float
// RGBA, premultiplied, a single frame at 24 fps.
func NewClip(name string) *Clip {
	return &Clip{
		Name: name,
		Props: NewPropertySet("clip "+name,
			Prop(PropType, String(TypeClip)),
			Prop(PropName, String(name)),
			Prop(ImageEffectPropPixelDepth, String(BitDepthFloat)),
			Prop(ImageEffectPropComponents, String(ImageComponentRGBA)),
			Prop(ImageClipPropUnmappedPixelDepth, String(BitDepthFloat)),
			Prop(ImageClipPropUnmappedComponents, String(ImageComponentRGBA)),
			Prop(ImageEffectPropPreMultiplication, String(ImagePreMultiplied)),
			Prop(ImageEffectPropFrameRate, Double(24)),
			Prop(ImagePropPixelAspectRatio, Double(1)),
			Prop(ImageEffectPropFrameRange, Double(0), Double(1)),
			Prop(ImageClipPropConnected, Int(1)),
			Prop(ImageClipPropOptional, Int(0)),
		),
	}
}

// Clone returns a copy of the clip without its bound image.
func (c *Clip) Clone() *Clip {
	return &Clip{Name: c.Name, Props: c.Props.Clone(c.Props.Name())}
}

// Effect is an image effect: either the descriptor a plugin fills in while
// describing, or a live instance.
type Effect struct {
	Name      string
	Props     *PropertySet
	Params    *ParamSet
	state     State
	clips     map[string]*Clip
	clipOrder []string
}

// NewEffect creates an effect in the Described state.
func NewEffect(name string, props *PropertySet) *Effect {
	if props == nil {
		props = NewPropertySet(name)
	}
	return &Effect{
		Name:   name,
		Props:  props,
		Params: NewParamSet(name),
		clips:  make(map[string]*Clip),
	}
}

// State returns the lifecycle state.
func (e *Effect) State() State {
	return e.state
}

// Transition moves the effect to next, rejecting backwards moves.
func (e *Effect) Transition(next State) error {
	if !e.state.CanTransitionTo(next) {
		return fmt.Errorf("effect %q: invalid transition %s -> %s", e.Name, e.state, next)
	}
	e.state = next
	return nil
}

// DefineClip declares a clip, returning the existing one if the name is
// already defined.
func (e *Effect) DefineClip(name string) *Clip {
	if c, ok := e.clips[name]; ok {
		return c
	}
	c := NewClip(name)
	e.clips[name] = c
	e.clipOrder = append(e.clipOrder, name)
	return c
}

// Clip looks up a clip by name.
func (e *Effect) Clip(name string) (*Clip, bool) {
	c, ok := e.clips[name]
	return c, ok
}

// Clips returns clips in definition order.
func (e *Effect) Clips() []*Clip {
	out := make([]*Clip, 0, len(e.clipOrder))
	for _, name := range e.clipOrder {
		out = append(out, e.clips[name])
	}
	return out
}

// CopyClipsFrom deep-copies every clip of src into e.
func (e *Effect) CopyClipsFrom(src *Effect) {
	for _, c := range src.Clips() {
		clone := c.Clone()
		if _, ok := e.clips[c.Name]; !ok {
			e.clipOrder = append(e.clipOrder, c.Name)
		}
		e.clips[c.Name] = clone
	}
}

// MarshalJSON encodes the effect for describe output.
func (e *Effect) MarshalJSON() ([]byte, error) {
	clips := make(map[string]*PropertySet, len(e.clips))
	for name, c := range e.clips {
		clips[name] = c.Props
	}
	return json.Marshal(struct {
		Properties *PropertySet            `json:"properties"`
		Params     *ParamSet               `json:"params"`
		Clips      map[string]*PropertySet `json:"clips"`
	}{e.Props, e.Params, clips})
}
