// Package lxast holds the typed AST and the symbol tables it is resolved
// against: the Namespace tree, Types, Functions, Variables, the operator
// overload table, and the Expression/Statement sum types. Nodes are plain Go
// pointers rather than arena-indexed slabs — see DESIGN.md's Open Question 4
// for why that is the idiomatic replacement for the original's bump arena.
package lxast

// Namespace is a node in the single, persistent, session-wide symbol tree.
// It owns every Variable, Function, Type and sub-Namespace it contains; a
// Namespace never outlives the Session that created it (spec.md §3's
// "root namespace owns the entire tree").
type Namespace struct {
	Name   string
	Parent *Namespace

	Variables      map[string]*Variable
	Functions      map[string]*Function
	Types          map[string]*Type
	SubNamespaces  map[string]*Namespace
}

func NewNamespace(name string, parent *Namespace) *Namespace {
	return &Namespace{
		Name:          name,
		Parent:        parent,
		Variables:     make(map[string]*Variable),
		Functions:     make(map[string]*Function),
		Types:         make(map[string]*Type),
		SubNamespaces: make(map[string]*Namespace),
	}
}

// IsAncestorOf reports whether n is somewhere in other's parent chain.
// Kept so callers can assert the "no Namespace is its own ancestor"
// invariant (spec.md §3) instead of silently trusting construction order.
func (n *Namespace) IsAncestorOf(other *Namespace) bool {
	for p := other.Parent; p != nil; p = p.Parent {
		if p == n {
			return true
		}
	}
	return false
}

func (n *Namespace) FindOrCreateSubNamespace(name string) *Namespace {
	if sub, ok := n.SubNamespaces[name]; ok {
		return sub
	}
	sub := NewNamespace(name, n)
	n.SubNamespaces[name] = sub
	return sub
}

// FullName joins every ancestor's Name with "::", matching the original's
// GetFullName but without the trailing allocator argument Go doesn't need.
func (n *Namespace) FullName() string {
	if n.Parent == nil || n.Parent.Name == "" {
		return n.Name
	}
	return n.Parent.FullName() + "::" + n.Name
}

// PhoneyNamespace is a per-file overlay: it holds references into the real
// Namespace tree (never ownership) plus file-local typedefs, so a
// ParsedFile can answer "what did this file introduce or expose" without
// duplicating the tree (spec.md §3/§4.3, Glossary "Phoney namespace").
type PhoneyNamespace struct {
	Actual *Namespace
	Parent *PhoneyNamespace
	Name   string

	VariableRefs  map[string]*Variable
	FunctionRefs  map[string]*Function
	TypeRefs      map[string]*Type
	Typedefs      map[string]TypeReference
	SubNamespaces map[string]*PhoneyNamespace
}

func NewPhoneyNamespace(actual *Namespace) *PhoneyNamespace {
	return &PhoneyNamespace{
		Actual:        actual,
		Name:          actual.Name,
		VariableRefs:  make(map[string]*Variable),
		FunctionRefs:  make(map[string]*Function),
		TypeRefs:      make(map[string]*Type),
		Typedefs:      make(map[string]TypeReference),
		SubNamespaces: make(map[string]*PhoneyNamespace),
	}
}

func (p *PhoneyNamespace) AddVariableToOrigin(name string, v *Variable) *Variable {
	p.Actual.Variables[name] = v
	p.VariableRefs[name] = v
	return v
}

func (p *PhoneyNamespace) AddFunctionToOrigin(name string, f *Function) *Function {
	p.Actual.Functions[name] = f
	p.FunctionRefs[name] = f
	return f
}

func (p *PhoneyNamespace) AddTypeToOrigin(name string, t *Type) *Type {
	p.Actual.Types[name] = t
	p.TypeRefs[name] = t
	return t
}

func (p *PhoneyNamespace) AddNamespaceToOrigin(name string) *PhoneyNamespace {
	sub := p.Actual.FindOrCreateSubNamespace(name)
	view := NewPhoneyNamespace(sub)
	view.Parent = p
	p.SubNamespaces[name] = view
	return view
}

// FindOrCreateChildView returns this file's existing view of a sub-namespace
// if the same namespace was already opened earlier in this file (e.g.
// "namespace foo { ... }" appearing twice), so declarations accumulate
// instead of the second occurrence silently losing the first's refs.
func (p *PhoneyNamespace) FindOrCreateChildView(name string) *PhoneyNamespace {
	if sub, ok := p.SubNamespaces[name]; ok {
		return sub
	}
	return p.AddNamespaceToOrigin(name)
}

// Merge folds another file's view into p: sub-namespace views are cloned on
// first touch (spec.md §3's "edits do not alias" merge rule) rather than
// shared, since two files independently widening the same sub-namespace view
// must not see each other's additions.
func (p *PhoneyNamespace) Merge(other *PhoneyNamespace) {
	for name, v := range other.VariableRefs {
		p.VariableRefs[name] = v
	}
	for name, f := range other.FunctionRefs {
		p.FunctionRefs[name] = f
	}
	for name, t := range other.TypeRefs {
		p.TypeRefs[name] = t
	}
	for name, td := range other.Typedefs {
		p.Typedefs[name] = td
	}
	for name, sub := range other.SubNamespaces {
		existing, ok := p.SubNamespaces[name]
		if !ok {
			clone := NewPhoneyNamespace(sub.Actual)
			clone.Parent = p
			p.SubNamespaces[name] = clone
			existing = clone
		}
		existing.Merge(sub)
	}
}

// ResolveKind is the category a name lookup settled on, driving which
// Expression variant the caller builds (spec.md §4.3).
type ResolveKind int

const (
	ResolveNone ResolveKind = iota
	ResolveVariable
	ResolveFunction
	ResolveType
	ResolveNamespace
	ResolveEnumMember
)

// Resolution is the result of a scope-chain lookup: exactly one of the
// pointer fields is non-nil, matching Kind.
type Resolution struct {
	Kind      ResolveKind
	Variable  *Variable
	Function  *Function
	Type      *Type
	Namespace *PhoneyNamespace
	EnumMember *EnumMember
}

// Resolve implements spec.md §4.3's lookup order: local variables first,
// then each Namespace from the innermost scope out to the root, then each
// Type in the enclosing type's parent chain; within a scope the order is
// functions, variables, types, sub-namespaces, and the first match wins
// (ambiguity across ancestor scopes is intentionally not diagnosed — see
// DESIGN.md Open Question 3).
func Resolve(name string, locals map[string]*Variable, scopes []*PhoneyNamespace, enclosingType *Type) Resolution {
	if locals != nil {
		if v, ok := locals[name]; ok {
			return Resolution{Kind: ResolveVariable, Variable: v}
		}
	}

	for _, scope := range scopes {
		if scope == nil {
			continue
		}
		if f, ok := scope.FunctionRefs[name]; ok {
			return Resolution{Kind: ResolveFunction, Function: f}
		}
		if v, ok := scope.VariableRefs[name]; ok {
			return Resolution{Kind: ResolveVariable, Variable: v}
		}
		if t, ok := scope.TypeRefs[name]; ok {
			return Resolution{Kind: ResolveType, Type: t}
		}
		if sub, ok := scope.SubNamespaces[name]; ok {
			return Resolution{Kind: ResolveNamespace, Namespace: sub}
		}
	}

	for t := enclosingType; t != nil; t = t.ParentType {
		if f := t.FindFunction(name); f != nil {
			return Resolution{Kind: ResolveFunction, Function: f}
		}
		if v := t.FindVar(name); v != nil {
			return Resolution{Kind: ResolveVariable, Variable: v}
		}
		if sub := t.FindSubtype(name); sub != nil {
			return Resolution{Kind: ResolveType, Type: sub}
		}
		if em := t.FindEnumMember(name); em != nil {
			return Resolution{Kind: ResolveEnumMember, EnumMember: em}
		}
	}

	return Resolution{Kind: ResolveNone}
}

// ResolveInScope implements the "A::B" case: the caller already fixed the
// search to a single scope, so there is no fallback to the outer chain
// (spec.md §4.3 rule 1).
func ResolveInScope(name string, scope *PhoneyNamespace) Resolution {
	if f, ok := scope.FunctionRefs[name]; ok {
		return Resolution{Kind: ResolveFunction, Function: f}
	}
	if v, ok := scope.VariableRefs[name]; ok {
		return Resolution{Kind: ResolveVariable, Variable: v}
	}
	if t, ok := scope.TypeRefs[name]; ok {
		return Resolution{Kind: ResolveType, Type: t}
	}
	if sub, ok := scope.SubNamespaces[name]; ok {
		return Resolution{Kind: ResolveNamespace, Namespace: sub}
	}
	return Resolution{Kind: ResolveNone}
}

// ResolveInType implements the "T::member" / "t.member" case once the left
// side has already resolved to a Type.
func ResolveInType(name string, t *Type) Resolution {
	if f := t.FindFunction(name); f != nil {
		return Resolution{Kind: ResolveFunction, Function: f}
	}
	if v := t.FindVar(name); v != nil {
		return Resolution{Kind: ResolveVariable, Variable: v}
	}
	if sub := t.FindSubtype(name); sub != nil {
		return Resolution{Kind: ResolveType, Type: sub}
	}
	if em := t.FindEnumMember(name); em != nil {
		return Resolution{Kind: ResolveEnumMember, EnumMember: em}
	}
	return Resolution{Kind: ResolveNone}
}
