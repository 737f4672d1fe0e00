package mol

// Object is a record produced by a conversion. Only some objects are
// structures that can be depicted.
type Object interface {
	// Molecule returns the depictable structure, or false if the object is
	// not one (a reaction, a text record, ...).
	Molecule() (*Molecule, bool)

	// Release frees the object. Writers that take ownership of an object
	// release it exactly once.
	Release()
}

// Unsupported is a record of a kind molgrid cannot depict.
type Unsupported struct {
	Kind     string
	released bool
}

// Molecule always reports false.
func (u *Unsupported) Molecule() (*Molecule, bool) { return nil, false }

// Release marks the record released.
func (u *Unsupported) Release() { u.released = true }

// Released reports whether Release has been called.
func (u *Unsupported) Released() bool { return u.released }

var _ Object = (*Unsupported)(nil)
