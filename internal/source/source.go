// Package source reads movies described as a YAML tag stream: a header
// followed by the place, remove, action and show_frame records of the
// movie in file order.
package source

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/swf2js/internal/geom"
)

// Source yields a movie header and its tags in stream order.
type Source interface {
	Header() Header
	Tags() []Tag
}

type Header struct {
	Version    int     `yaml:"version"`
	FrameCount uint16  `yaml:"frame_count"`
	FrameRate  float64 `yaml:"frame_rate"`
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
}

type PlaceObject struct {
	Depth     uint16       `yaml:"depth"`
	Character *uint16      `yaml:"character,omitempty"`
	Matrix    *geom.Matrix `yaml:"matrix,omitempty"`
	Name      *string      `yaml:"name,omitempty"`
	Move      bool         `yaml:"move,omitempty"`
}

type RemoveObject struct {
	Depth uint16 `yaml:"depth"`
}

// Bytecode is raw DoAction bytecode, written in YAML as hex. Whitespace
// between bytes is allowed.
type Bytecode []byte

func (b Bytecode) MarshalYAML() (interface{}, error) {
	return hex.EncodeToString(b), nil
}

func (b *Bytecode) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	raw, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
	if err != nil {
		return fmt.Errorf("line %d: bad bytecode: %w", value.Line, err)
	}
	*b = raw
	return nil
}

// Tag is one record. Exactly one of the fields is set; ShowFrame is
// written as the bare scalar "show_frame".
type Tag struct {
	Place     *PlaceObject  `yaml:"place,omitempty"`
	Remove    *RemoveObject `yaml:"remove,omitempty"`
	Action    Bytecode      `yaml:"action,omitempty"`
	ShowFrame bool          `yaml:"-"`
}

const showFrame = "show_frame"

func (t *Tag) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		if value.Value != showFrame {
			return fmt.Errorf("line %d: unknown tag %q", value.Line, value.Value)
		}
		*t = Tag{ShowFrame: true}
		return nil
	}

	// Node.Decode does not inherit KnownFields, so the body goes through
	// a strict decoder of its own.
	body, err := yaml.Marshal(value)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(body))
	dec.KnownFields(true)

	type plain Tag
	var p plain
	if err := dec.Decode(&p); err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}

	n := 0
	if p.Place != nil {
		n++
	}
	if p.Remove != nil {
		n++
	}
	if p.Action != nil {
		n++
	}
	if n != 1 {
		return fmt.Errorf("line %d: tag must have exactly one of place, remove, action", value.Line)
	}
	*t = Tag(p)
	return nil
}

func (t Tag) MarshalYAML() (interface{}, error) {
	if t.ShowFrame {
		return showFrame, nil
	}
	type plain Tag
	return plain(t), nil
}

// Movie is a fully loaded tag stream.
type Movie struct {
	Head    Header `yaml:"header"`
	TagList []Tag  `yaml:"tags"`
}

func (m *Movie) Header() Header { return m.Head }

func (m *Movie) Tags() []Tag { return m.TagList }

// DecodeMovie reads a movie from r. Unknown fields are rejected.
func DecodeMovie(r io.Reader) (*Movie, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Movie
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode movie: %w", err)
	}
	return &m, nil
}

// ReadMovie loads a movie from a YAML file.
func ReadMovie(path string) (*Movie, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return DecodeMovie(f)
}

// WriteMovie saves a movie as YAML.
func WriteMovie(m *Movie, path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
