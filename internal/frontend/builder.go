package frontend

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/jward/asg"
)

// baseRef is an unresolved base type name of a class.
type baseRef struct {
	Class asg.NodeID
	Name  string
}

// fileResult is the ASG of one source file before merging.
type fileResult struct {
	Path     string
	Language string
	Factory  *asg.Factory
	Bases    []baseRef
}

// builder turns one tree-sitter tree into ASG nodes.
type builder struct {
	f     *asg.Factory
	r     *rules
	src   []byte
	path  string
	pkg   *asg.Package
	lines []int

	fn      *asg.Method
	locals  map[string]bool
	pending []*asg.Comment
	bases   []baseRef
}

// scope is where declarations land: a class when set, the file package
// otherwise.
type scope struct {
	class *asg.Class
}

// buildFile parses src and builds a Factory holding one Package for the
// file.
func buildFile(ctx context.Context, path, lang string, src []byte, logger *zap.Logger) (*fileResult, error) {
	r, ok := languages[lang]
	if !ok {
		return nil, fmt.Errorf("frontend: unsupported language %q", lang)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(r.grammar())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("frontend: parse %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		logger.Warn("syntax errors, building partial graph", zap.String("path", path))
	}

	b := &builder{
		f:     asg.New(asg.WithLogger(logger)),
		r:     r,
		src:   src,
		path:  filepath.ToSlash(path),
		lines: lineStarts(src),
	}
	b.pkg = b.f.NewPackage(b.path)
	b.pkg.SetPosition(b.rangeOf(root))
	if err := b.f.Root().AddMember(b.pkg); err != nil {
		return nil, err
	}

	if err := b.decls(root, scope{}); err != nil {
		return nil, fmt.Errorf("frontend: build %s: %w", path, err)
	}
	for _, c := range b.pending {
		if err := b.pkg.AddComment(c); err != nil {
			return nil, err
		}
	}
	return &fileResult{Path: b.path, Language: lang, Factory: b.f, Bases: b.bases}, nil
}

// =============================================================================
// Declarations
// =============================================================================

func (b *builder) decls(n *sitter.Node, sc scope) error {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if err := b.decl(n.NamedChild(i), sc); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) decl(n *sitter.Node, sc scope) error {
	t := n.Type()
	switch {
	case b.r.comments[t]:
		b.comment(n)
	case b.isClass(n):
		_, err := b.class(n, sc)
		return err
	case b.isFunction(n):
		_, err := b.function(n, sc)
		return err
	case b.r.vars[t]:
		return b.memberVars(n, sc, b.declarators(n))
	case b.r.exprStmts[t] && b.r.declareOnAssign:
		inner := firstNamed(n)
		if inner != nil && b.r.assigns[inner.Type()] {
			return b.memberVars(n, sc, []declPair{b.assignPair(inner)})
		}
	case b.r.transparent[t]:
		return b.decls(n, sc)
	}
	return nil
}

func (b *builder) isClass(n *sitter.Node) bool {
	_, ok := b.r.classes[n.Type()]
	return ok
}

func (b *builder) isFunction(n *sitter.Node) bool {
	_, ok := b.r.functions[n.Type()]
	return ok
}

func (b *builder) addMember(sc scope, m asg.Member, n *sitter.Node) error {
	vis, static := b.r.visibility(b, n, m.Name())
	m.SetVisibility(vis)
	m.SetStatic(static)
	for _, c := range b.pending {
		if err := m.AddComment(c); err != nil {
			return err
		}
	}
	b.pending = b.pending[:0]
	if sc.class != nil {
		return sc.class.AddMember(m)
	}
	return b.pkg.AddMember(m)
}

func (b *builder) comment(n *sitter.Node) {
	c := b.f.NewComment(b.text(n))
	c.SetPosition(b.rangeOf(n))
	b.pending = append(b.pending, c)
}

func (b *builder) class(n *sitter.Node, sc scope) (*asg.Class, error) {
	kind := b.r.classes[n.Type()]
	if typ := n.ChildByFieldName("type"); typ != nil {
		switch typ.Type() {
		case "struct_type":
			kind = asg.ClassKindStruct
		case "interface_type":
			kind = asg.ClassKindInterface
		}
	}
	name := b.fieldText(n, "name")
	if name == "" {
		name = "<anonymous>"
	}
	cls := b.f.NewClass(name, kind)
	cls.SetPosition(b.rangeOf(n))
	if err := b.addMember(sc, cls, n); err != nil {
		return nil, err
	}
	if kind == asg.ClassKindInterface || strings.Contains(b.modifiers(n), "abstract") {
		cls.SetAbstract(true)
	}
	for _, base := range b.r.bases(b, n) {
		b.bases = append(b.bases, baseRef{Class: cls.ID(), Name: base})
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		body = n.ChildByFieldName("type")
	}
	if body == nil {
		return cls, nil
	}
	saved := b.pending
	b.pending = nil
	err := b.decls(body, scope{class: cls})
	for _, c := range b.pending {
		if err == nil {
			err = cls.AddComment(c)
		}
	}
	b.pending = saved
	return cls, err
}

func (b *builder) function(n *sitter.Node, sc scope) (*asg.Method, error) {
	name := b.fieldText(n, "name")
	kind := b.r.functions[n.Type()]
	if name == "" {
		name = "<lambda>"
		kind = asg.MethodKindLambda
	}
	if sc.class != nil && kind == asg.MethodKindFunction {
		kind = asg.MethodKindMethod
	}
	if b.r.ctorTypes[n.Type()] || (sc.class != nil && b.r.ctorNames[name]) {
		kind = asg.MethodKindConstructor
	}
	return b.method(n, sc, name, kind)
}

func (b *builder) method(n *sitter.Node, sc scope, name string, kind asg.MethodKind) (*asg.Method, error) {
	m := b.f.NewMethod(name, kind)
	m.SetPosition(b.rangeOf(n))
	if err := b.addMember(sc, m, n); err != nil {
		return nil, err
	}

	if recv := n.ChildByFieldName("receiver"); recv != nil {
		if err := b.params(m, recv, asg.ParamKindReceiver); err != nil {
			return nil, err
		}
	}
	if single := n.ChildByFieldName("parameter"); single != nil {
		param := b.f.NewParameter(b.text(single), asg.ParamKindNormal)
		param.SetPosition(b.rangeOf(single))
		if err := m.AddParameter(param); err != nil {
			return nil, err
		}
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		if err := b.params(m, params, asg.ParamKindNormal); err != nil {
			return nil, err
		}
		if sc.class != nil && b.r.name == "python" && m.ParametersSize() > 0 {
			if first := m.Parameters()[0]; first.Name() == "self" || first.Name() == "cls" {
				first.SetParamKind(asg.ParamKindReceiver)
			}
		}
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		if sc.class != nil {
			m.SetAbstract(true)
		}
		return m, nil
	}
	if strings.Contains(b.modifiers(n), "abstract") {
		m.SetAbstract(true)
	}

	savedFn, savedLocals := b.fn, b.locals
	b.fn, b.locals = m, make(map[string]bool)
	defer func() { b.fn, b.locals = savedFn, savedLocals }()

	var blk *asg.Block
	var err error
	if b.r.blocks[body.Type()] {
		blk, err = b.block(body)
	} else {
		// expression bodied lambda
		blk = b.f.NewBlock()
		blk.SetPosition(b.rangeOf(body))
		ret := b.f.NewReturnStatement()
		ret.SetPosition(b.rangeOf(body))
		if e, eerr := b.expr(body); eerr != nil {
			err = eerr
		} else if e != nil {
			err = ret.SetValue(e)
		}
		if err == nil {
			err = blk.AddStatement(ret)
		}
	}
	if err != nil {
		return nil, err
	}
	return m, m.SetBody(blk)
}

func (b *builder) params(m *asg.Method, list *sitter.Node, def asg.ParamKind) error {
	for i := 0; i < int(list.NamedChildCount()); i++ {
		p := list.NamedChild(i)
		kind, ok := b.r.params[p.Type()]
		if !ok {
			continue
		}
		if def == asg.ParamKindReceiver {
			kind = def
		}
		names := b.fieldTexts(p, "name")
		if len(names) == 0 {
			if id := b.firstIdent(p); id != "" {
				names = []string{id}
			} else {
				names = []string{"_"}
			}
		}
		for _, name := range names {
			param := b.f.NewParameter(name, kind)
			param.SetPosition(b.rangeOf(p))
			if err := m.AddParameter(param); err != nil {
				return err
			}
		}
	}
	return nil
}

// declPair is one declared name with its optional initializer.
type declPair struct {
	node  *sitter.Node
	name  string
	value *sitter.Node
}

// declarators lists the names a variable declaration introduces.
func (b *builder) declarators(n *sitter.Node) []declPair {
	if name := b.nameNode(n); name != nil {
		return []declPair{{node: n, name: b.text(name), value: n.ChildByFieldName("value")}}
	}
	if left := n.ChildByFieldName("left"); left != nil {
		return []declPair{b.assignPair(n)}
	}
	var out []declPair
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch {
		case b.r.declarators[c.Type()]:
			out = append(out, b.declarators(c)...)
		case b.r.transparent[c.Type()]:
			out = append(out, b.declarators(c)...)
		}
	}
	return out
}

func (b *builder) nameNode(n *sitter.Node) *sitter.Node {
	for _, field := range []string{"name", "property"} {
		if c := n.ChildByFieldName(field); c != nil {
			return c
		}
	}
	return nil
}

func (b *builder) assignPair(n *sitter.Node) declPair {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left != nil && b.r.transparent[left.Type()] {
		left = firstNamed(left)
	}
	if right != nil && b.r.transparent[right.Type()] {
		right = firstNamed(right)
	}
	name := ""
	if left != nil {
		name = b.text(left)
	}
	return declPair{node: n, name: name, value: right}
}

func (b *builder) isConst(n *sitter.Node) bool {
	if b.r.consts[n.Type()] {
		return true
	}
	if n.ChildCount() > 0 && n.Child(0).Type() == "const" {
		return true
	}
	return strings.Contains(b.modifiers(n), "final")
}

// memberVars declares package or class level variables. A declarator
// initialised with a function literal becomes a Method of that name.
func (b *builder) memberVars(n *sitter.Node, sc scope, pairs []declPair) error {
	for _, p := range pairs {
		if p.name == "" {
			continue
		}
		if p.value != nil && b.isFunction(p.value) {
			if _, err := b.method(p.value, sc, p.name, b.r.functions[p.value.Type()]); err != nil {
				return err
			}
			continue
		}
		if p.value != nil && b.isClass(p.value) {
			if _, err := b.class(p.value, sc); err != nil {
				return err
			}
			continue
		}
		v, err := b.variable(p, b.isConst(n))
		if err != nil {
			return err
		}
		if err := b.addMember(sc, v, n); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) variable(p declPair, isConst bool) (*asg.Variable, error) {
	v := b.f.NewVariable(p.name)
	v.SetPosition(b.rangeOf(p.node))
	v.SetConst(isConst)
	if p.value == nil {
		return v, nil
	}
	e, err := b.expr(p.value)
	if err != nil || e == nil {
		return v, err
	}
	return v, v.SetInitializer(e)
}

// =============================================================================
// Statements
// =============================================================================

func (b *builder) block(n *sitter.Node) (*asg.Block, error) {
	blk := b.f.NewBlock()
	blk.SetPosition(b.rangeOf(n))
	return blk, b.stmtsInto(blk, n)
}

func (b *builder) stmtsInto(blk *asg.Block, n *sitter.Node) error {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		stmts, err := b.stmt(n.NamedChild(i))
		if err != nil {
			return err
		}
		for _, s := range stmts {
			if err := blk.AddStatement(s); err != nil {
				return err
			}
		}
	}
	return nil
}

// stmt builds the statements for one CST node. Nested named functions and
// classes are hoisted into the file package.
func (b *builder) stmt(n *sitter.Node) ([]asg.Statement, error) {
	t := n.Type()
	switch {
	case b.r.comments[t]:
		c := b.f.NewComment(b.text(n))
		c.SetPosition(b.rangeOf(n))
		if b.fn != nil {
			return nil, b.fn.AddComment(c)
		}
		b.pending = append(b.pending, c)
		return nil, nil
	case b.isClass(n):
		_, err := b.class(n, scope{})
		return nil, err
	case b.isFunction(n) && n.ChildByFieldName("name") != nil:
		_, err := b.function(n, scope{})
		return nil, err
	case b.r.blocks[t]:
		blk, err := b.block(n)
		return one(blk, err)
	case b.r.ifs[t]:
		s, err := b.ifStmt(n)
		return one(s, err)
	case b.isLoop(n):
		s, err := b.loop(n)
		return one(s, err)
	case b.r.returns[t]:
		s, err := b.ret(n)
		return one(s, err)
	case b.r.vars[t]:
		return b.declareLocals(b.declarators(n), b.isConst(n))
	case b.r.assigns[t]:
		return b.assign(n)
	case b.r.exprStmts[t]:
		inner := firstNamed(n)
		if inner == nil {
			return nil, nil
		}
		if b.r.assigns[inner.Type()] {
			return b.assign(inner)
		}
		return b.exprStmt(n, inner)
	case b.r.transparent[t]:
		var out []asg.Statement
		for i := 0; i < int(n.NamedChildCount()); i++ {
			s, err := b.stmt(n.NamedChild(i))
			if err != nil {
				return nil, err
			}
			out = append(out, s...)
		}
		return out, nil
	}

	if b.isExpr(n) {
		return b.exprStmt(n, n)
	}
	// unknown statement forms keep their nested statements in a block
	blk := b.f.NewBlock()
	blk.SetPosition(b.rangeOf(n))
	if err := b.stmtsInto(blk, n); err != nil {
		return nil, err
	}
	if blk.StatementsSize() == 0 {
		return nil, b.f.Delete(blk.ID())
	}
	return []asg.Statement{blk}, nil
}

func one(s asg.Statement, err error) ([]asg.Statement, error) {
	if err != nil {
		return nil, err
	}
	return []asg.Statement{s}, nil
}

// stmtOf builds a single statement, wrapping several in a Block.
func (b *builder) stmtOf(n *sitter.Node) (asg.Statement, error) {
	if n == nil {
		return nil, nil
	}
	stmts, err := b.stmt(n)
	if err != nil || len(stmts) == 0 {
		return nil, err
	}
	if len(stmts) == 1 {
		return stmts[0], nil
	}
	blk := b.f.NewBlock()
	blk.SetPosition(b.rangeOf(n))
	for _, s := range stmts {
		if err := blk.AddStatement(s); err != nil {
			return nil, err
		}
	}
	return blk, nil
}

func (b *builder) ifStmt(n *sitter.Node) (*asg.IfStatement, error) {
	s := b.f.NewIfStatement()
	s.SetPosition(b.rangeOf(n))
	if err := b.setCondition(n, s.SetCondition); err != nil {
		return nil, err
	}
	then, err := b.stmtOf(n.ChildByFieldName("consequence"))
	if err != nil {
		return nil, err
	}
	if then != nil {
		if err := s.SetThen(then); err != nil {
			return nil, err
		}
	}

	// python chains elif and else clauses as repeated alternative fields
	alts := fieldChildren(n, "alternative")
	var tail asg.Statement
	for i := len(alts) - 1; i >= 0; i-- {
		a := alts[i]
		switch {
		case b.r.elifs[a.Type()]:
			elif, err := b.ifStmt(a)
			if err != nil {
				return nil, err
			}
			if tail != nil {
				if err := elif.SetElse(tail); err != nil {
					return nil, err
				}
			}
			tail = elif
		case b.r.elses[a.Type()]:
			body := a.ChildByFieldName("body")
			if body == nil {
				body = firstNamed(a)
			}
			if tail, err = b.stmtOf(body); err != nil {
				return nil, err
			}
		default:
			if tail, err = b.stmtOf(a); err != nil {
				return nil, err
			}
		}
	}
	if tail != nil {
		if err := s.SetElse(tail); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (b *builder) isLoop(n *sitter.Node) bool {
	_, ok := b.r.loops[n.Type()]
	return ok
}

func (b *builder) loop(n *sitter.Node) (*asg.LoopStatement, error) {
	kind := b.r.loops[n.Type()]
	cond := n
	if b.r.name == "go" {
		kind = asg.LoopKindWhile
		for i := 0; i < int(n.NamedChildCount()); i++ {
			switch c := n.NamedChild(i); c.Type() {
			case "for_clause":
				kind, cond = asg.LoopKindFor, c
			case "range_clause":
				kind, cond = asg.LoopKindForEach, c
			}
		}
	}
	s := b.f.NewLoopStatement(kind)
	s.SetPosition(b.rangeOf(n))
	if err := b.setCondition(cond, s.SetCondition); err != nil {
		return nil, err
	}
	body, err := b.stmtOf(n.ChildByFieldName("body"))
	if err != nil {
		return nil, err
	}
	if body != nil {
		return s, s.SetBody(body)
	}
	return s, nil
}

// setCondition looks up the controlling expression of an if or loop.
func (b *builder) setCondition(n *sitter.Node, set func(asg.Expression) error) error {
	for _, field := range []string{"condition", "right", "value"} {
		c := n.ChildByFieldName(field)
		if c == nil {
			continue
		}
		e, err := b.expr(c)
		if err != nil || e == nil {
			return err
		}
		return set(e)
	}
	return nil
}

func (b *builder) ret(n *sitter.Node) (*asg.ReturnStatement, error) {
	s := b.f.NewReturnStatement()
	s.SetPosition(b.rangeOf(n))
	v := firstNamed(n)
	if v == nil {
		return s, nil
	}
	e, err := b.expr(v)
	if err != nil || e == nil {
		return s, err
	}
	return s, s.SetValue(e)
}

func (b *builder) exprStmt(n, inner *sitter.Node) ([]asg.Statement, error) {
	e, err := b.expr(inner)
	if err != nil || e == nil {
		return nil, err
	}
	s := b.f.NewExpressionStatement()
	s.SetPosition(b.rangeOf(n))
	if err := s.SetExpression(e); err != nil {
		return nil, err
	}
	return []asg.Statement{s}, nil
}

// locals_ declares local variables of the current body.
func (b *builder) declareLocals(pairs []declPair, isConst bool) ([]asg.Statement, error) {
	var out []asg.Statement
	for _, p := range pairs {
		if p.name == "" {
			continue
		}
		v, err := b.variable(p, isConst)
		if err != nil {
			return nil, err
		}
		d := b.f.NewLocalDeclaration()
		d.SetPosition(b.rangeOf(p.node))
		if err := d.SetVariable(v); err != nil {
			return nil, err
		}
		if b.locals != nil {
			b.locals[p.name] = true
		}
		out = append(out, d)
	}
	return out, nil
}

func (b *builder) assign(n *sitter.Node) ([]asg.Statement, error) {
	p := b.assignPair(n)
	left := n.ChildByFieldName("left")
	if left != nil && b.r.transparent[left.Type()] {
		left = firstNamed(left)
	}
	if b.r.declareOnAssign && left != nil && b.r.identifiers[left.Type()] && b.locals != nil &&
		!b.locals[p.name] && n.ChildByFieldName("operator") == nil {
		return b.declareLocals([]declPair{p}, false)
	}

	op := b.fieldText(n, "operator")
	if op == "" {
		op = "="
	}
	e := b.f.NewBinaryExpr(op)
	e.SetPosition(b.rangeOf(n))
	if err := b.setOperands(e, left, p.value); err != nil {
		return nil, err
	}
	s := b.f.NewExpressionStatement()
	s.SetPosition(b.rangeOf(n))
	if err := s.SetExpression(e); err != nil {
		return nil, err
	}
	return []asg.Statement{s}, nil
}

// =============================================================================
// Expressions
// =============================================================================

func (b *builder) isExpr(n *sitter.Node) bool {
	t := n.Type()
	_, call := b.r.calls[t]
	_, sel := b.r.selectors[t]
	_, lit := b.r.literals[t]
	return call || sel || lit || b.r.binaries[t] || b.r.identifiers[t]
}

// expr builds the expression for n. It returns nil for nodes without any
// expression content.
func (b *builder) expr(n *sitter.Node) (asg.Expression, error) {
	if n == nil {
		return nil, nil
	}
	t := n.Type()
	if b.r.identifiers[t] {
		return b.ident(n, b.text(n)), nil
	}
	if field, ok := b.r.selectors[t]; ok {
		name := b.fieldText(n, field)
		if name == "" {
			name = b.text(n)
		}
		return b.ident(n, name), nil
	}
	if kind, ok := b.r.literals[t]; ok {
		l := b.f.NewLiteral(kind, b.text(n))
		l.SetPosition(b.rangeOf(n))
		return l, nil
	}
	if field, ok := b.r.calls[t]; ok {
		return b.call(n, field)
	}
	if b.r.binaries[t] {
		e := b.f.NewBinaryExpr(b.operator(n))
		e.SetPosition(b.rangeOf(n))
		left, right := n.ChildByFieldName("left"), n.ChildByFieldName("right")
		if left == nil && right == nil && n.NamedChildCount() >= 2 {
			left, right = n.NamedChild(0), n.NamedChild(1)
		}
		return e, b.setOperands(e, left, right)
	}
	if b.isFunction(n) {
		return b.ident(n, "<lambda>"), nil
	}

	var kids []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); !b.r.comments[c.Type()] {
			kids = append(kids, c)
		}
	}
	switch len(kids) {
	case 0:
		return nil, nil
	case 1:
		return b.expr(kids[0])
	}
	// other compound forms become a BinaryExpr named after the CST type
	e := b.f.NewBinaryExpr(t)
	e.SetPosition(b.rangeOf(n))
	return e, b.setOperands(e, kids[0], kids[1])
}

func (b *builder) ident(n *sitter.Node, name string) *asg.Identifier {
	id := b.f.NewIdentifier(name)
	id.SetPosition(b.rangeOf(n))
	return id
}

func (b *builder) setOperands(e *asg.BinaryExpr, left, right *sitter.Node) error {
	l, err := b.expr(left)
	if err != nil {
		return err
	}
	if l != nil {
		if err := e.SetLeft(l); err != nil {
			return err
		}
	}
	r, err := b.expr(right)
	if err != nil {
		return err
	}
	if r != nil {
		return e.SetRight(r)
	}
	return nil
}

func (b *builder) call(n *sitter.Node, calleeField string) (*asg.Call, error) {
	c := b.f.NewCall()
	c.SetPosition(b.rangeOf(n))
	callee, err := b.expr(n.ChildByFieldName(calleeField))
	if err != nil {
		return nil, err
	}
	if callee != nil {
		if err := c.SetCallee(callee); err != nil {
			return nil, err
		}
	}
	args := n.ChildByFieldName("arguments")
	if args == nil {
		return c, nil
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		a := args.NamedChild(i)
		if b.r.comments[a.Type()] {
			continue
		}
		e, err := b.expr(a)
		if err != nil {
			return nil, err
		}
		if e != nil {
			if err := c.AddArgument(e); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// operator returns the operator token of a binary node.
func (b *builder) operator(n *sitter.Node) string {
	if op := b.fieldText(n, "operator"); op != "" {
		return op
	}
	var ops []string
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); !c.IsNamed() {
			ops = append(ops, c.Type())
		}
	}
	return strings.Join(ops, " ")
}

// =============================================================================
// Helpers
// =============================================================================

func (b *builder) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(b.src)
}

func (b *builder) fieldText(n *sitter.Node, field string) string {
	return b.text(n.ChildByFieldName(field))
}

func (b *builder) fieldTexts(n *sitter.Node, field string) []string {
	var out []string
	for _, c := range fieldChildren(n, field) {
		out = append(out, b.text(c))
	}
	return out
}

func (b *builder) modifiers(n *sitter.Node) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "modifiers" {
			return b.text(c)
		}
	}
	return ""
}

// firstIdent returns the first identifier below n, depth first.
func (b *builder) firstIdent(n *sitter.Node) string {
	if b.r.identifiers[n.Type()] && n.Type() != "type_identifier" {
		return b.text(n)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if s := b.firstIdent(n.NamedChild(i)); s != "" {
			return s
		}
	}
	return ""
}

// names collects the type names mentioned below n, skipping type arguments
// and keyword arguments.
func (b *builder) names(n *sitter.Node) []string {
	if n == nil {
		return nil
	}
	t := n.Type()
	if b.r.identifiers[t] {
		return []string{b.text(n)}
	}
	if field, ok := b.r.selectors[t]; ok {
		return []string{b.fieldText(n, field)}
	}
	switch t {
	case "type_arguments", "type_parameters", "keyword_argument":
		return nil
	}
	var out []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		out = append(out, b.names(n.NamedChild(i))...)
	}
	return out
}

func firstNamed(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if !strings.Contains(c.Type(), "comment") {
			return c
		}
	}
	return nil
}

func fieldChildren(n *sitter.Node, field string) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.FieldNameForChild(i) == field {
			out = append(out, n.Child(i))
		}
	}
	return out
}

func lineStarts(src []byte) []int {
	starts := []int{0}
	for i, c := range src {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// rangeOf converts tree-sitter byte columns to 1-based positions. The wide
// columns count UTF-16 code units.
func (b *builder) rangeOf(n *sitter.Node) asg.Range {
	start, end := n.StartPoint(), n.EndPoint()
	return asg.Range{
		Path:        b.path,
		Line:        start.Row + 1,
		Col:         start.Column + 1,
		EndLine:     end.Row + 1,
		EndCol:      end.Column + 1,
		WideLine:    start.Row + 1,
		WideCol:     b.wideCol(start) + 1,
		WideEndLine: end.Row + 1,
		WideEndCol:  b.wideCol(end) + 1,
	}
}

func (b *builder) wideCol(p sitter.Point) uint32 {
	if int(p.Row) >= len(b.lines) {
		return p.Column
	}
	from := b.lines[p.Row]
	to := min(from+int(p.Column), len(b.src))
	line := b.src[from:to]
	if utf8.Valid(line) {
		n := 0
		for _, r := range string(line) {
			n += utf16.RuneLen(r)
		}
		return uint32(n)
	}
	return p.Column
}
