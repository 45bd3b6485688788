package builtin

import "github.com/ofxdriver/ofxdriver/domain/entities"

// Plugin identifiers.
const (
	IdentityID = "net.example.identity"
	InvertID   = "net.example.invert"
	GainID     = "net.example.gain"
)

// identityFilter copies Source to Output unchanged.
func identityFilter() *filter {
	return &filter{id: IdentityID, label: "Identity"}
}

// invertFilter writes 1 - c for every channel. With preserve_alpha the
// alpha channel is copied instead.
func invertFilter() *filter {
	return &filter{
		id:    InvertID,
		label: "Invert",
		params: []paramSpec{
			{name: "preserve_alpha", typ: entities.ParamTypeBoolean, def: entities.Int(0), hint: "Copy alpha instead of inverting it"},
		},
		prepare: func(r *renderCall) (func(pixel) pixel, entities.Status) {
			keep, st := r.boolean("preserve_alpha")
			if st != entities.StatOK {
				return nil, st
			}
			return func(px pixel) pixel {
				a := px[3]
				for c := range px {
					px[c] = 1 - px[c]
				}
				if keep {
					px[3] = a
				}
				return px
			}, entities.StatOK
		},
	}
}

// gainFilter scales the colour channels by gain. A negative gain asks the
// host whether to clamp it to zero: Yes clamps, No keeps it and any other
// reply fails the render.
func gainFilter() *filter {
	return &filter{
		id:    GainID,
		label: "Gain",
		params: []paramSpec{
			{name: "gain", typ: entities.ParamTypeDouble, def: entities.Double(1), hint: "Colour multiplier"},
		},
		prepare: func(r *renderCall) (func(pixel) pixel, entities.Status) {
			g, st := r.double("gain")
			if st != entities.StatOK {
				return nil, st
			}
			if g < 0 {
				switch r.ask(GainID+".negative", "gain %g is negative, clamp to zero?", g) {
				case entities.StatReplyYes:
					g = 0
				case entities.StatReplyNo:
				default:
					return nil, entities.StatFailed
				}
			}
			k := float32(g)
			return func(px pixel) pixel {
				px[0] *= k
				px[1] *= k
				px[2] *= k
				return px
			}, entities.StatOK
		},
	}
}
