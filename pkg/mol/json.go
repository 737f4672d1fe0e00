package mol

import (
	"bufio"
	"encoding/json"
	"io"
	"unicode"

	"github.com/matzehuels/molgrid/pkg/errors"
)

// KindMolecule is the record kind of a depictable structure. Records without
// a kind are molecules.
const KindMolecule = "molecule"

// record is the JSON form of one input record.
type record struct {
	Kind string `json:"kind,omitempty"`
	Molecule
}

// JSONSource streams records from either a JSON array or a sequence of
// concatenated JSON objects (e.g. JSON Lines).
type JSONSource struct {
	br      *bufio.Reader
	dec     *json.Decoder
	array   bool
	started bool
	done    bool
	n       int
}

// NewJSONSource creates a source reading from r.
func NewJSONSource(r io.Reader) *JSONSource {
	return &JSONSource{br: bufio.NewReader(r)}
}

// Next returns the next record, or io.EOF when the input is exhausted.
func (s *JSONSource) Next() (Object, error) {
	if s.done {
		return nil, io.EOF
	}
	if !s.started {
		if err := s.start(); err != nil {
			return nil, err
		}
	}
	if s.array && !s.dec.More() {
		s.done = true
		return nil, io.EOF
	}

	var rec record
	if err := s.dec.Decode(&rec); err != nil {
		if err == io.EOF && !s.array {
			s.done = true
			return nil, io.EOF
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode record %d", s.n+1)
	}
	s.n++

	if rec.Kind != "" && rec.Kind != KindMolecule {
		return &Unsupported{Kind: rec.Kind}, nil
	}
	m := rec.Molecule
	if err := validate(&m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "record %d", s.n)
	}
	return &m, nil
}

func (s *JSONSource) start() error {
	s.started = true
	for {
		b, err := s.br.ReadByte()
		if err == io.EOF {
			s.done = true
			s.dec = json.NewDecoder(s.br)
			return nil
		}
		if err != nil {
			return err
		}
		if unicode.IsSpace(rune(b)) {
			continue
		}
		if err := s.br.UnreadByte(); err != nil {
			return err
		}
		s.array = b == '['
		break
	}
	s.dec = json.NewDecoder(s.br)
	if s.array {
		if _, err := s.dec.Token(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "read array start")
		}
	}
	return nil
}

// ReadJSON reads every record from r.
func ReadJSON(r io.Reader) ([]Object, error) {
	src := NewJSONSource(r)
	var out []Object
	for {
		obj, err := src.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
}

// WriteJSON writes molecules as a JSON array.
func WriteJSON(w io.Writer, mols []*Molecule) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(mols)
}

func validate(m *Molecule) error {
	for i, a := range m.Atoms {
		if a.Symbol == "" {
			return errors.New(errors.ErrCodeInvalidInput, "atom %d has no symbol", i)
		}
		for _, j := range a.Expanded {
			if j < 0 || j >= len(m.Atoms) || j == i {
				return errors.New(errors.ErrCodeInvalidInput, "atom %d alias expands to invalid atom %d", i, j)
			}
		}
	}
	for i, b := range m.Bonds {
		if b.Begin < 0 || b.Begin >= len(m.Atoms) || b.End < 0 || b.End >= len(m.Atoms) || b.Begin == b.End {
			return errors.New(errors.ErrCodeInvalidInput, "bond %d references invalid atoms (%d, %d)", i, b.Begin, b.End)
		}
		if b.Order < 0 || b.Order > 3 {
			return errors.New(errors.ErrCodeInvalidInput, "bond %d has unsupported order %d", i, b.Order)
		}
	}
	return nil
}
