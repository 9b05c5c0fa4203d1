// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0
package ast

import "github.com/metac-lang/metac/pkg/source"

// Unit is implemented by the two top-level container kinds,
// CompilationUnit and MetaUnit: a Unit owns a scope and a flat list of
// top-level declarations.
type Unit interface {
	Node
	Decls() []Node
	AddDecl(d Node)
}

// CompilationUnit is the root node of one parsed source file.
type CompilationUnit struct {
	base
	decls []Node
}

// NewCompilationUnit allocates an empty compilation unit.
func (c *Context) NewCompilationUnit(span source.Span) *CompilationUnit {
	n := &CompilationUnit{base: base{c.nextID()}}
	c.register(n, span)

	return n
}

func (n *CompilationUnit) Kind() Kind        { return KindCompilationUnit }
func (n *CompilationUnit) Decls() []Node     { return n.decls }
func (n *CompilationUnit) AddDecl(d Node)    { n.decls = append(n.decls, d) }
func (n *CompilationUnit) Children() []Node  { return n.decls }

// MetaUnit is the typed AST result of one meta instantiation: a fresh Unit
// whose declarations were produced by contribute/introduce callbacks during
// shipment, at most one of which may be the "exported node" whose name
// matches the instantiated MetaDecl's name.
type MetaUnit struct {
	base
	instantiation *MetaInstantiationExpr
	decls         []Node
	exportedNode  Node
}

// NewMetaUnit allocates an empty meta unit produced by instantiating expr.
func (c *Context) NewMetaUnit(instantiation *MetaInstantiationExpr, span source.Span) *MetaUnit {
	n := &MetaUnit{base: base{c.nextID()}, instantiation: instantiation}
	c.register(n, span)

	return n
}

func (n *MetaUnit) Kind() Kind       { return KindMetaUnit }
func (n *MetaUnit) Decls() []Node    { return n.decls }
func (n *MetaUnit) AddDecl(d Node)   { n.decls = append(n.decls, d) }
func (n *MetaUnit) Children() []Node { return n.decls }

// Instantiation returns the MetaInstantiationExpr that produced this unit.
func (n *MetaUnit) Instantiation() *MetaInstantiationExpr { return n.instantiation }

// ExportedNode returns the declaration within this unit whose name matches
// the instantiated MetaDecl's name, or nil if none of its direct children
// does (a MetaUnit need not export anything).
func (n *MetaUnit) ExportedNode() Node { return n.exportedNode }

// SetExportedNode records d as this unit's export. Panics if called twice,
// mirroring the original's "at most one exportedNode" invariant.
func (n *MetaUnit) SetExportedNode(d Node) {
	if n.exportedNode != nil {
		panic("meta unit already has an exported node")
	}

	n.exportedNode = d
}

// ArgDecl is a single declared argument: always typed int, and either named
// (an ordinary function/meta-decl parameter, which introduces a binding
// into the containing scope) or anonymous (the optional return-type slot on
// a FunctionDecl, which introduces nothing). See DESIGN.md for why one
// struct covers both of swy's AnonymousArgumentDecl/NamedArgumentDecl forms.
type ArgDecl struct {
	base
	name Identifier
	anon bool
}

// NewArgDecl allocates a named argument declaration.
func (c *Context) NewArgDecl(name Identifier, span source.Span) *ArgDecl {
	n := &ArgDecl{base: base{c.nextID()}, name: name}
	c.register(n, span)

	return n
}

// NewAnonymousArgDecl allocates the anonymous return-type slot.
func (c *Context) NewAnonymousArgDecl(span source.Span) *ArgDecl {
	n := &ArgDecl{base: base{c.nextID()}, anon: true}
	c.register(n, span)

	return n
}

func (n *ArgDecl) Kind() Kind       { return KindArgDecl }
func (n *ArgDecl) Children() []Node { return nil }

// Name returns the argument's name. Empty for an anonymous (return-type)
// ArgDecl.
func (n *ArgDecl) Name() Identifier { return n.name }

// IsAnonymous reports whether this ArgDecl introduces no binding.
func (n *ArgDecl) IsAnonymous() bool { return n.anon }

// DeclaringNode implements the "named decl context" role: the node other
// declarations resolve a DeclRef to.
func (n *ArgDecl) DeclaringNode() Node { return n }

// ArgDeclList is the variadic list of ArgDecls belonging to one
// FunctionDecl or MetaDecl. See SPEC_FULL.md §5 / DESIGN.md: confirmed as
// its own node kind by original_source's ArgumentDeclListASTNode.
type ArgDeclList struct {
	base
	args []*ArgDecl
}

// NewArgDeclList allocates an empty argument-decl list.
func (c *Context) NewArgDeclList(span source.Span) *ArgDeclList {
	n := &ArgDeclList{base: base{c.nextID()}}
	c.register(n, span)

	return n
}

func (n *ArgDeclList) Kind() Kind { return KindArgDeclList }

func (n *ArgDeclList) Children() []Node {
	out := make([]Node, len(n.args))
	for i, a := range n.args {
		out[i] = a
	}

	return out
}

// Args returns the declared arguments in order.
func (n *ArgDeclList) Args() []*ArgDecl { return n.args }

// Add appends an argument declaration.
func (n *ArgDeclList) Add(a *ArgDecl) { n.args = append(n.args, a) }

// FunctionDecl declares a named function: a fixed argument-decl list, an
// optional anonymous return-type ArgDecl, and a body statement (always a
// CompoundStmt in practice, but typed as Stmt to allow ErrorStmt on
// recovery).
type FunctionDecl struct {
	base
	name       Identifier
	args       *ArgDeclList
	returnType *ArgDecl
	body       Node
}

// NewFunctionDecl allocates a function declaration shell with just its
// name; Args, ReturnType and Body are filled in by the reader as it
// structures the subtree written after this node in the layout stream,
// exactly as original_source's FunctionDeclASTNode constructor only takes
// a name and leaves setArgDeclList/setReturnType/setBody to the reader.
func (c *Context) NewFunctionDecl(name Identifier, span source.Span) *FunctionDecl {
	n := &FunctionDecl{base: base{c.nextID()}, name: name}
	c.register(n, span)

	return n
}

// SetArgs records the function's argument-decl list. Panics if called
// twice.
func (n *FunctionDecl) SetArgs(args *ArgDeclList) {
	if n.args != nil {
		panic("function decl args already set")
	}

	n.args = args
}

func (n *FunctionDecl) Kind() Kind { return KindFunctionDecl }

func (n *FunctionDecl) Children() []Node {
	out := []Node{n.args}
	if n.returnType != nil {
		out = append(out, n.returnType)
	}

	if n.body != nil {
		out = append(out, n.body)
	}

	return out
}

// Name returns the function's declared name.
func (n *FunctionDecl) Name() Identifier { return n.name }

// Args returns the function's argument-decl list.
func (n *FunctionDecl) Args() *ArgDeclList { return n.args }

// ReturnType returns the optional anonymous return-type ArgDecl, or nil for
// a function with no declared return value.
func (n *FunctionDecl) ReturnType() *ArgDecl { return n.returnType }

// SetReturnType records the optional return-type slot. Panics if called
// twice, mirroring the original's single-assignment assertion.
func (n *FunctionDecl) SetReturnType(rt *ArgDecl) {
	if n.returnType != nil {
		panic("function decl return type already set")
	}

	n.returnType = rt
}

// Body returns the function's body statement.
func (n *FunctionDecl) Body() Node { return n.body }

// SetBody records the function's body statement.
func (n *FunctionDecl) SetBody(body Node) { n.body = body }

// DeclaringNode implements the "named decl context" role.
func (n *FunctionDecl) DeclaringNode() Node { return n }

// MetaDecl declares a compile-time meta template: a fixed argument-decl
// list (the template's integer-literal parameters) and a contribution body
// emitted as native code by pkg/metacodegen.
type MetaDecl struct {
	base
	name         Identifier
	args         *ArgDeclList
	contribution *MetaContribution
}

// NewMetaDecl allocates a meta declaration shell with just its name; Args
// and Contribution are filled in by the reader, mirroring FunctionDecl.
func (c *Context) NewMetaDecl(name Identifier, span source.Span) *MetaDecl {
	n := &MetaDecl{base: base{c.nextID()}, name: name}
	c.register(n, span)

	return n
}

// SetArgs records the meta declaration's argument-decl list. Panics if
// called twice.
func (n *MetaDecl) SetArgs(args *ArgDeclList) {
	if n.args != nil {
		panic("meta decl args already set")
	}

	n.args = args
}

func (n *MetaDecl) Kind() Kind { return KindMetaDecl }

func (n *MetaDecl) Children() []Node {
	if n.contribution == nil {
		return []Node{n.args}
	}

	return []Node{n.args, n.contribution}
}

// Name returns the meta declaration's name.
func (n *MetaDecl) Name() Identifier { return n.name }

// Args returns the meta declaration's argument-decl list (its template
// parameters).
func (n *MetaDecl) Args() *ArgDeclList { return n.args }

// Contribution returns the meta declaration's body.
func (n *MetaDecl) Contribution() *MetaContribution { return n.contribution }

// SetContribution records the meta declaration's body. Panics if called
// twice.
func (n *MetaDecl) SetContribution(c *MetaContribution) {
	if n.contribution != nil {
		panic("meta decl contribution already set")
	}

	n.contribution = c
}

// DeclaringNode implements the "named decl context" role.
func (n *MetaDecl) DeclaringNode() Node { return n }

// GlobalConstantDecl declares a top-level named constant expression.
type GlobalConstantDecl struct {
	base
	name Identifier
	expr Node
}

// NewGlobalConstantDecl allocates a constant declaration shell with just
// its name; Expr is filled in by the reader.
func (c *Context) NewGlobalConstantDecl(name Identifier, span source.Span) *GlobalConstantDecl {
	n := &GlobalConstantDecl{base: base{c.nextID()}, name: name}
	c.register(n, span)

	return n
}

func (n *GlobalConstantDecl) Kind() Kind       { return KindGlobalConstantDecl }
func (n *GlobalConstantDecl) Children() []Node { return []Node{n.expr} }

// Name returns the constant's declared name.
func (n *GlobalConstantDecl) Name() Identifier { return n.name }

// Expr returns the constant's defining expression.
func (n *GlobalConstantDecl) Expr() Node { return n.expr }

// SetExpr records the constant's defining expression.
func (n *GlobalConstantDecl) SetExpr(e Node) { n.expr = e }

// DeclaringNode implements the "named decl context" role.
func (n *GlobalConstantDecl) DeclaringNode() Node { return n }

// MetaContribution is the variadic list of nodes a MetaDecl (or one branch
// of a MetaIfStmt) contributes when instantiated: every node it holds is
// emitted via a `contribute` callback during shipment rather than appearing
// directly in the surrounding unit.
type MetaContribution struct {
	base
	children []Node
}

// NewMetaContribution allocates an empty contribution body.
func (c *Context) NewMetaContribution(span source.Span) *MetaContribution {
	n := &MetaContribution{base: base{c.nextID()}}
	c.register(n, span)

	return n
}

func (n *MetaContribution) Kind() Kind       { return KindMetaContribution }
func (n *MetaContribution) Children() []Node { return n.children }

// Add appends a contributed node.
func (n *MetaContribution) Add(child Node) { n.children = append(n.children, child) }
