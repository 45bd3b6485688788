package parser

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	domainerrors "github.com/ofxdriver/ofxdriver/domain/errors"
	"github.com/ofxdriver/ofxdriver/domain/ports"
)

// JSONCommandParser decodes a command file: a JSON array of objects, each
// discriminated by its "type" key.
type JSONCommandParser struct {
	validator ports.CommandValidator
}

// CommandParserOption configures a JSONCommandParser.
type CommandParserOption func(*JSONCommandParser)

// WithValidator checks every entry with v, before and after decoding.
func WithValidator(v ports.CommandValidator) CommandParserOption {
	return func(p *JSONCommandParser) {
		p.validator = v
	}
}

// NewJSONCommandParser creates a command file parser.
func NewJSONCommandParser(opts ...CommandParserOption) *JSONCommandParser {
	p := &JSONCommandParser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ ports.CommandParser = (*JSONCommandParser)(nil)

// Parse decodes every entry of data. The first bad entry aborts the parse;
// its error is a ValidationError whose field locates the entry.
func (p *JSONCommandParser) Parse(data []byte) ([]entities.Command, error) {
	if !gjson.ValidBytes(data) {
		return nil, &domainerrors.ValidationError{Err: errors.New("command file is not valid JSON")}
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, &domainerrors.ValidationError{Err: errors.New("command file must be a JSON array")}
	}

	entries := root.Array()
	cmds := make([]entities.Command, 0, len(entries))
	for i, entry := range entries {
		cmd, err := p.parseEntry(entry)
		if err != nil {
			return nil, &domainerrors.ValidationError{Field: fmt.Sprintf("[%d]", i), Err: err}
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

func (p *JSONCommandParser) parseEntry(entry gjson.Result) (entities.Command, error) {
	if !entry.IsObject() {
		return nil, errors.New("entry must be an object")
	}
	typ := entry.Get("type")
	if typ.Type != gjson.String {
		return nil, errors.New("entry has no string \"type\"")
	}
	t := entities.CommandType(typ.String())
	cmd, ok := entities.NewCommand(t)
	if !ok {
		return nil, fmt.Errorf("unknown command type %q", typ.String())
	}

	raw := []byte(entry.Raw)
	if p.validator != nil {
		if err := p.validator.ValidateRaw(t, raw); err != nil {
			return nil, err
		}
	}
	if err := json.Unmarshal(raw, cmd); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", t, err)
	}
	if p.validator != nil {
		if err := p.validator.Validate(cmd); err != nil {
			return nil, err
		}
	}
	return cmd, nil
}
