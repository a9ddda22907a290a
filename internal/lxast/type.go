package lxast

import "strings"

// Type represents a struct/enum/template/function-pointer declaration
// (spec.md §3's Type). A Type's OperatorOverloads map is the per-type slice
// of the overload table described in §4.5; the primitive lattice closure is
// seeded once by internal/typesys.
type Type struct {
	Namespace  *Namespace
	ParentType *Type
	Name       string

	Variables  []*Variable
	Methods    []*Function
	SubTypes   []*Type

	OperatorOverloads map[OperatorImplKey]*OperatorFunc

	EnumMembers []*EnumMember

	// TemplateArgs names this Type's own template parameters (empty for a
	// non-generic Type). TemplateSpecializations caches realized
	// instantiations keyed by the concrete argument tuple — spec.md §3 and
	// SPEC_FULL.md §4.1 (Specialize).
	TemplateArgs           []string
	TemplateSpecializations map[string]*Type

	// FuncPtrSignature is non-nil when this Type is a function-pointer type
	// declaration ("delegate" in the source language) — SPEC_FULL.md §4.2.
	FuncPtrSignature *FuncPtr
}

func NewType(name string, namespace *Namespace, parent *Type) *Type {
	return &Type{
		Name:                    name,
		Namespace:               namespace,
		ParentType:              parent,
		OperatorOverloads:       make(map[OperatorImplKey]*OperatorFunc),
		TemplateSpecializations: make(map[string]*Type),
	}
}

func (t *Type) FindSubtype(name string) *Type {
	for _, sub := range t.SubTypes {
		if sub.Name == name {
			return sub
		}
	}
	return nil
}

func (t *Type) FindFunction(name string) *Function {
	for _, f := range t.Methods {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (t *Type) FindVar(name string) *Variable {
	for _, v := range t.Variables {
		if v.Name == name {
			return v
		}
	}
	return nil
}

func (t *Type) FindEnumMember(name string) *EnumMember {
	for _, m := range t.EnumMembers {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// FullName joins the owning namespace, every parent type, and this type's
// own name with "::" (spec.md §3's GetFullName, minus the allocator arg).
func (t *Type) FullName() string {
	var parts []string
	if t.Namespace != nil && t.Namespace.FullName() != "" {
		parts = append(parts, t.Namespace.FullName())
	}
	for chain := parentChain(t); len(chain) > 0; chain = chain[1:] {
		parts = append(parts, chain[0].Name)
	}
	return strings.Join(parts, "::")
}

func parentChain(t *Type) []*Type {
	var chain []*Type
	for p := t; p != nil; p = p.ParentType {
		chain = append([]*Type{p}, chain...)
	}
	return chain
}

// CName is the mangled name emitted for C output: every enclosing namespace
// and parent-type name joined by "_" (spec.md §6).
func (t *Type) CName() string {
	var parts []string
	if t.Namespace != nil {
		for ns := t.Namespace; ns != nil && ns.Name != ""; ns = ns.Parent {
			parts = append([]string{ns.Name}, parts...)
		}
	}
	for _, p := range parentChain(t) {
		parts = append(parts, p.Name)
	}
	return strings.Join(parts, "_")
}

// Specialize realizes a template instantiation: it clones the generic body
// and substitutes each template parameter name for the matching concrete
// TypeReference throughout member/method signatures, caching the result
// keyed by the argument tuple's textual join (SPEC_FULL.md §4.1, grounded on
// LinxcType::Specialize — ast.cpp).
func (t *Type) Specialize(args []TypeReference) *Type {
	key := specializationKey(args)
	if cached, ok := t.TemplateSpecializations[key]; ok {
		return cached
	}

	subst := make(map[string]TypeReference, len(t.TemplateArgs))
	for i, name := range t.TemplateArgs {
		if i < len(args) {
			subst[name] = args[i]
		}
	}

	clone := NewType(t.Name, t.Namespace, t.ParentType)
	clone.EnumMembers = t.EnumMembers
	clone.FuncPtrSignature = t.FuncPtrSignature
	clone.SubTypes = t.SubTypes

	for _, v := range t.Variables {
		cv := *v
		cv.Type = substituteTypeRef(v.Type, subst)
		clone.Variables = append(clone.Variables, &cv)
	}
	for _, f := range t.Methods {
		cf := *f
		cf.ReturnType = substituteTypeRef(f.ReturnType, subst)
		cf.Arguments = make([]*Variable, len(f.Arguments))
		for i, a := range f.Arguments {
			ca := *a
			ca.Type = substituteTypeRef(a.Type, subst)
			cf.Arguments[i] = &ca
		}
		clone.Methods = append(clone.Methods, &cf)
	}

	t.TemplateSpecializations[key] = clone
	return clone
}

func specializationKey(args []TypeReference) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, ",")
}

func substituteTypeRef(ref TypeReference, subst map[string]TypeReference) TypeReference {
	if ref.Target == nil && ref.GenericName != "" {
		if concrete, ok := subst[ref.GenericName]; ok {
			concrete.PointerDepth += ref.PointerDepth
			concrete.IsConst = concrete.IsConst || ref.IsConst
			return concrete
		}
	}
	return ref
}

// TypeReference is a use-site reference: either a resolved Target Type, or
// an unresolved generic parameter name awaiting specialization, plus pointer
// depth, const-ness and template arguments (spec.md §3).
type TypeReference struct {
	Target       *Type
	GenericName  string
	TemplateArgs []TypeReference
	PointerDepth int
	IsConst      bool
}

// Equal implements spec.md §3's identity rule: target, pointer depth and
// template args must match element-wise; const is deliberately excluded
// from identity (see §4.5's string-literal special case, which depends on
// this asymmetry).
func (a TypeReference) Equal(b TypeReference) bool {
	if a.Target != b.Target || a.GenericName != b.GenericName {
		return false
	}
	if a.PointerDepth != b.PointerDepth {
		return false
	}
	if len(a.TemplateArgs) != len(b.TemplateArgs) {
		return false
	}
	for i := range a.TemplateArgs {
		if !a.TemplateArgs[i].Equal(b.TemplateArgs[i]) {
			return false
		}
	}
	return true
}

// IsUnresolved reports whether this reference denotes "this expression
// names a type/namespace", the sentinel spec.md §3/§4.3 describes as
// resolvesTo.target == nil.
func (r TypeReference) IsUnresolved() bool {
	return r.Target == nil && r.GenericName == ""
}

func (r TypeReference) String() string {
	var sb strings.Builder
	if r.IsConst {
		sb.WriteString("const ")
	}
	if r.Target != nil {
		sb.WriteString(r.Target.FullName())
	} else {
		sb.WriteString(r.GenericName)
	}
	if len(r.TemplateArgs) > 0 {
		sb.WriteByte('<')
		for i, a := range r.TemplateArgs {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(a.String())
		}
		sb.WriteByte('>')
	}
	for i := 0; i < r.PointerDepth; i++ {
		sb.WriteByte('*')
	}
	return sb.String()
}

// Variable is spec.md §3's Variable: a name, a type-expression (stored
// already-resolved here as a TypeReference, since our parser resolves types
// eagerly rather than deferring to a later pass), an optional default value,
// and an owning Type if this is a member.
type Variable struct {
	Name         string
	Type         TypeReference
	DefaultValue *Expression
	MemberOf     *Type
	IsConst      bool
}

// Function is spec.md §3's Function: namespace-or-type owned, a return
// type, an ordered parameter list, and the required/variadic bookkeeping
// used by call-site arity checking (§4.4).
type Function struct {
	Name       string
	Namespace  *Namespace
	MethodOf   *Type
	ReturnType TypeReference

	Arguments          []*Variable
	RequiredArguments  int
	Variadic           bool
	TemplateArgs       []string

	// Body holds the parsed statement list regardless of whether this
	// Function was declared at file scope or inside a struct (a struct
	// body's own parseStatements return value has no other home to live
	// in, since STypeDecl carries no Body field of its own).
	Body []Statement
}

// GetSignature returns the FuncPtr shape of this function, used when a
// function name is taken as a value (SPEC_FULL.md §4.2).
func (f *Function) GetSignature() *FuncPtr {
	fp := &FuncPtr{Name: f.Name, ReturnType: f.ReturnType}
	for _, a := range f.Arguments {
		fp.Arguments = append(fp.Arguments, a.Type)
	}
	fp.NecessaryArguments = f.RequiredArguments
	return fp
}

// operatorSymbolWords spells out the symbol half of an "operator+"-style
// declared name so CName always yields a legal C identifier (spec.md §4.5's
// operator overloads have no C-syntax counterpart of their own).
var operatorSymbolWords = map[string]string{
	"+": "add", "-": "sub", "*": "mul", "/": "div", "%": "mod",
	"==": "eq", "!=": "ne", "<": "lt", "<=": "le", ">": "gt", ">=": "ge",
	"&&": "and", "||": "or", "[]": "index",
}

// CName mangles a free function's or method's emitted C name: namespace
// chain plus (if a method) the owning type's CName, joined by "_"
// (spec.md §6).
func (f *Function) CName() string {
	name := f.Name
	if strings.HasPrefix(name, "operator") {
		sym := strings.TrimPrefix(name, "operator")
		if word, known := operatorSymbolWords[sym]; known {
			name = "operator_" + word
		}
	}

	var parts []string
	if f.MethodOf != nil {
		parts = append(parts, f.MethodOf.CName())
	} else if f.Namespace != nil {
		for ns := f.Namespace; ns != nil && ns.Name != ""; ns = ns.Parent {
			parts = append([]string{ns.Name}, parts...)
		}
	}
	parts = append(parts, name)
	return strings.Join(parts, "_")
}

// FuncPtr is a function-pointer type: name, return type, parameter types,
// and the same required-argument bookkeeping as Function
// (SPEC_FULL.md §4.2, grounded on ast.hpp's LinxcFuncPtr).
type FuncPtr struct {
	Name               string
	ReturnType         TypeReference
	Arguments          []TypeReference
	NecessaryArguments int
}

// EnumMember is one constant of an enum Type (spec.md §3).
type EnumMember struct {
	Name  string
	Value int32
}
