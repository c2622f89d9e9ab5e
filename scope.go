package vcd

import (
	"fmt"
	"strings"
)

// Scope is a named container node in the hierarchical declaration
// namespace. Variables and child scopes keep their insertion order, so
// the emitted header is deterministic.
type Scope struct {
	Name     string              // Scope name
	Kind     ScopeKind           // Scope kind emitted in $scope
	vars     []varDecl           // $var declarations in this scope
	children []*Scope            // Nested scopes
	names    map[string]struct{} // Variable names, for duplicate checks
}

// varDecl is one $var line. Aliases produce additional declarations
// that share an identifier code.
type varDecl struct {
	kind  VarKind // Variable kind
	ident string  // Identifier code
	ref   string  // Reference name
	size  int     // Bit size
}

// scopeTree builds the scope hierarchy during registration. Paths are
// resolved segment by segment, creating missing scopes with the default
// kind as they are first mentioned.
type scopeTree struct {
	roots       []*Scope
	index       map[string]*Scope
	sep         string
	defaultKind ScopeKind
}

// newScopeTree creates an empty tree.
func newScopeTree(sep string, defaultKind ScopeKind) *scopeTree {
	return &scopeTree{index: map[string]*Scope{}, sep: sep, defaultKind: defaultKind}
}

// get resolves path to its scope node, creating intermediate scopes as
// needed. Paths must have no empty segments.
func (t *scopeTree) get(path string) (*Scope, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty scope path", ErrUsage)
	}

	var node *Scope
	var key strings.Builder
	for i, name := range strings.Split(path, t.sep) {
		if name == "" {
			return nil, fmt.Errorf("%w: empty segment in scope path %q", ErrUsage, path)
		}
		if i > 0 {
			key.WriteString(t.sep)
		}
		key.WriteString(name)

		next, ok := t.index[key.String()]
		if !ok {
			next = &Scope{Name: name, Kind: t.defaultKind, names: map[string]struct{}{}}
			t.index[key.String()] = next
			if node == nil {
				t.roots = append(t.roots, next)
			} else {
				node.children = append(node.children, next)
			}
		}
		node = next
	}

	return node, nil
}

// declare attaches a $var declaration to the scope at path, rejecting
// duplicate reference names within one scope.
func (t *scopeTree) declare(path string, d varDecl) error {
	s, err := t.get(path)
	if err != nil {
		return err
	}
	if _, ok := s.names[d.ref]; ok {
		return fmt.Errorf("%w: duplicate variable %q in scope %q", ErrUsage, d.ref, path)
	}

	s.names[d.ref] = struct{}{}
	s.vars = append(s.vars, d)

	return nil
}
