package payload

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// Message kinds.
const (
	KindInit = "init"
	KindLine = "line"
)

var (
	// ErrUnknownKind indicates a message whose type is neither init nor line.
	ErrUnknownKind = errors.New("unknown message type")
	// ErrMissingKind indicates a message without a string "type" field.
	ErrMissingKind = errors.New("message has no type")
)

var kindPath = jp.MustParseString("$.type")

// RGB is one cell colour.
type RGB struct {
	R, G, B uint8
}

// Grey is the colour of every cell after an init.
var Grey = RGB{128, 128, 128}

// Init announces the grid size.
type Init struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Line carries the colours of one row.
type Line struct {
	Y      int   `json:"y"`
	Colors []RGB `json:"-"`
}

type rawLine struct {
	Y      int    `json:"y"`
	Colors string `json:"colors"`
}

// Kind returns the value of the message's "type" field.
func Kind(msg []byte) (string, error) {
	doc, err := oj.Parse(msg)
	if err != nil {
		return "", fmt.Errorf("invalid message: %w", err)
	}
	for _, v := range kindPath.Get(doc) {
		if s, ok := v.(string); ok {
			return s, nil
		}
	}
	return "", ErrMissingKind
}

// Decode returns *Init or *Line for a message.
func Decode(msg []byte) (any, error) {
	kind, err := Kind(msg)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindInit:
		var in Init
		if err := json.Unmarshal(msg, &in); err != nil {
			return nil, fmt.Errorf("invalid init message: %w", err)
		}
		return &in, nil
	case KindLine:
		var raw rawLine
		if err := json.Unmarshal(msg, &raw); err != nil {
			return nil, fmt.Errorf("invalid line message: %w", err)
		}
		colors, err := DecodeColors(raw.Colors)
		if err != nil {
			return nil, fmt.Errorf("invalid line message: %w", err)
		}
		return &Line{Y: raw.Y, Colors: colors}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// DecodeColors decodes standard base64 into RGB triples. A byte count that is
// not a multiple of three yields no colours rather than an error.
func DecodeColors(s string) ([]RGB, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid colors: %w", err)
	}
	if len(b)%3 != 0 {
		return nil, nil
	}

	out := make([]RGB, 0, len(b)/3)
	for i := 0; i < len(b); i += 3 {
		out = append(out, RGB{b[i], b[i+1], b[i+2]})
	}
	return out, nil
}

// EncodeColors is the inverse of DecodeColors.
func EncodeColors(colors []RGB) string {
	b := make([]byte, 0, len(colors)*3)
	for _, c := range colors {
		b = append(b, c.R, c.G, c.B)
	}
	return base64.StdEncoding.EncodeToString(b)
}
