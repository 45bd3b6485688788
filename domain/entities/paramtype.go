package entities

import "sort"

// ParamType is the declared type tag of a parameter, as a plugin passes it
// to paramDefine.
type ParamType string

// Parameter types.
const (
	ParamTypeBoolean    ParamType = "OfxParamTypeBoolean"
	ParamTypeChoice     ParamType = "OfxParamTypeChoice"
	ParamTypeCustom     ParamType = "OfxParamTypeCustom"
	ParamTypeDouble     ParamType = "OfxParamTypeDouble"
	ParamTypeDouble2D   ParamType = "OfxParamTypeDouble2D"
	ParamTypeDouble3D   ParamType = "OfxParamTypeDouble3D"
	ParamTypeGroup      ParamType = "OfxParamTypeGroup"
	ParamTypeInteger    ParamType = "OfxParamTypeInteger"
	ParamTypeInteger2D  ParamType = "OfxParamTypeInteger2D"
	ParamTypeInteger3D  ParamType = "OfxParamTypeInteger3D"
	ParamTypePage       ParamType = "OfxParamTypePage"
	ParamTypeParametric ParamType = "OfxParamTypeParametric"
	ParamTypePushButton ParamType = "OfxParamTypePushButton"
	ParamTypeRGB        ParamType = "OfxParamTypeRGB"
	ParamTypeRGBA       ParamType = "OfxParamTypeRGBA"
	ParamTypeString     ParamType = "OfxParamTypeString"
)

type paramTypeInfo struct {
	short     string
	dimension int
	kind      ValueKind
}

var paramTypes = map[ParamType]paramTypeInfo{
	ParamTypeBoolean:    {short: "Boolean", dimension: 1, kind: KindInt},
	ParamTypeChoice:     {short: "Choice", dimension: 1, kind: KindInt},
	ParamTypeCustom:     {short: "Custom", dimension: 1, kind: KindBytes},
	ParamTypeDouble:     {short: "Double", dimension: 1, kind: KindDouble},
	ParamTypeDouble2D:   {short: "Double2D", dimension: 2, kind: KindDouble},
	ParamTypeDouble3D:   {short: "Double3D", dimension: 3, kind: KindDouble},
	ParamTypeGroup:      {short: "Group"},
	ParamTypeInteger:    {short: "Integer", dimension: 1, kind: KindInt},
	ParamTypeInteger2D:  {short: "Integer2D", dimension: 2, kind: KindInt},
	ParamTypeInteger3D:  {short: "Integer3D", dimension: 3, kind: KindInt},
	ParamTypePage:       {short: "Page"},
	ParamTypeParametric: {short: "Parametric"},
	ParamTypePushButton: {short: "PushButton"},
	ParamTypeRGB:        {short: "RGB", dimension: 3, kind: KindDouble},
	ParamTypeRGBA:       {short: "RGBA", dimension: 4, kind: KindDouble},
	ParamTypeString:     {short: "String", dimension: 1, kind: KindBytes},
}

var paramTypesByShort = func() map[string]ParamType {
	m := make(map[string]ParamType, len(paramTypes))
	for t, info := range paramTypes {
		m[info.short] = t
	}
	return m
}()

// ParseParamType accepts either the full tag or its short name ("Double2D").
func ParseParamType(s string) (ParamType, bool) {
	if _, ok := paramTypes[ParamType(s)]; ok {
		return ParamType(s), true
	}
	t, ok := paramTypesByShort[s]
	return t, ok
}

// ParamTypeNames returns the sorted short names of all parameter types.
func ParamTypeNames() []string {
	out := make([]string, 0, len(paramTypesByShort))
	for name := range paramTypesByShort {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Valid reports whether t is a known parameter type.
func (t ParamType) Valid() bool {
	_, ok := paramTypes[t]
	return ok
}

// Short returns the short name used in command files.
func (t ParamType) Short() string {
	return paramTypes[t].short
}

// Dimension returns the number of value components a parameter of this
// type carries. Valueless types (group, page, push button, parametric)
// return 0.
func (t ParamType) Dimension() int {
	return paramTypes[t].dimension
}

// ComponentKind returns the wire kind of each component.
func (t ParamType) ComponentKind() ValueKind {
	return paramTypes[t].kind
}

// HasValue reports whether parameters of this type hold a value at all.
func (t ParamType) HasValue() bool {
	return t.Dimension() > 0
}
