package qir

import (
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"qirsim/qerr"
)

// Attribute names that mark the entry point and its qubit requirement.
// Both the current QIR spelling and the older pre-profile one are accepted.
var (
	entryPointAttrs = []string{"entry_point", "EntryPoint"}
	numQubitsAttrs  = []string{"required_num_qubits", "num_required_qubits", "requiredQubits"}
)

// Option configures Parse.
type Option func(*parser)

// WithLogger makes the parser report skipped lines at debug level.
func WithLogger(l *log.Logger) Option {
	return func(p *parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// ref is an unresolved qubit or result operand: either a static address
// (null, inttoptr) or the ordinal of a symbolic allocation.
type ref struct {
	symbolic bool
	index    int
}

type rawInst struct {
	Instruction
	qrefs []ref
	rref  ref
}

type srcLine struct {
	no   int
	toks []Token
}

type function struct {
	name   string
	line   int
	groups []string          // attribute group references, e.g. "#0"
	inline map[string]string // string attributes written on the define line
	body   []srcLine
}

type parser struct {
	logger *log.Logger

	attrGroups map[string]map[string]string
	funcs      []*function

	// SSA values of the entry function.
	qubits  map[string]ref
	results map[string]ref
	arrays  map[string][]ref
	elems   map[string]ref

	nextQubit  int
	nextResult int
	out        []rawInst
}

// Parse turns QIR source text into the instruction sequence of its entry
// point. It fails with a *qerr.Error of KindParse for malformed or
// unsupported input.
func Parse(src string, opts ...Option) (*Program, error) {
	p := &parser{
		logger:     log.New(io.Discard),
		attrGroups: make(map[string]map[string]string),
		qubits:     make(map[string]ref),
		results:    make(map[string]ref),
		arrays:     make(map[string][]ref),
		elems:      make(map[string]ref),
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.scan(src); err != nil {
		return nil, err
	}
	fn := p.entry()
	declared, err := p.declaredQubits(fn)
	if err != nil {
		return nil, err
	}
	if err := p.body(fn); err != nil {
		return nil, err
	}
	prog := p.resolve()
	prog.EntryPoint = strings.TrimPrefix(fn.name, "@")
	prog.Declared = declared
	return prog, nil
}

// scan splits the module into function bodies and attribute groups and
// checks that braces balance.
func (p *parser) scan(src string) error {
	var cur *function
	for i, text := range strings.Split(src, "\n") {
		no := i + 1
		toks, err := Lex(text)
		if err != nil {
			return qerr.Parsef(no, "%v", err)
		}
		if len(toks) == 0 {
			continue
		}
		first := toks[0]

		if cur != nil {
			switch {
			case first.is(TokPunct, "}") && len(toks) == 1:
				cur = nil
			case first.is(TokWord, "define"):
				return qerr.Parsef(no, "define inside the body of %s", cur.name)
			default:
				cur.body = append(cur.body, srcLine{no: no, toks: toks})
			}
			continue
		}

		switch {
		case first.is(TokWord, "define"):
			fn, err := parseDefine(no, toks)
			if err != nil {
				return err
			}
			p.funcs = append(p.funcs, fn)
			cur = fn
		case first.is(TokWord, "attributes"):
			if len(toks) < 2 || toks[1].Type != TokAttr {
				return qerr.Parsef(no, "malformed attribute group")
			}
			p.attrGroups[toks[1].Text] = parseAttrs(toks[2:])
		case first.is(TokPunct, "}"):
			return qerr.Parsef(no, "unbalanced '}'")
		case first.Type == TokWord && (first.Text == "declare" || first.Text == "source_filename" ||
			first.Text == "target" || first.Text == "module"):
		case first.Type == TokLocal || first.Type == TokGlobal || first.Type == TokMeta:
			// type definitions, global constants, metadata
		default:
			return qerr.Parsef(no, "unexpected %q at top level", first.Text)
		}
	}
	if cur != nil {
		return qerr.Parsef(cur.line, "body of %s is not closed", cur.name)
	}
	if len(p.funcs) == 0 {
		return qerr.Parsef(0, "no function definition")
	}
	return nil
}

func parseDefine(no int, toks []Token) (*function, error) {
	if !toks[len(toks)-1].is(TokPunct, "{") {
		return nil, qerr.Parsef(no, "function body must open on the define line")
	}
	ni := -1
	for i, t := range toks {
		if t.Type == TokGlobal {
			ni = i
			break
		}
	}
	if ni < 0 || ni+1 >= len(toks) || !toks[ni+1].is(TokPunct, "(") {
		return nil, qerr.Parsef(no, "malformed define")
	}
	closeIdx, ok := matchParen(toks, ni+1)
	if !ok {
		return nil, qerr.Parsef(no, "unbalanced parameter list")
	}
	fn := &function{name: toks[ni].Text, line: no}
	tail := toks[closeIdx+1 : len(toks)-1]
	for _, t := range tail {
		if t.Type == TokAttr {
			fn.groups = append(fn.groups, t.Text)
		}
	}
	fn.inline = parseAttrs(tail)
	return fn, nil
}

// parseAttrs reads `"key"="value"` pairs, bare `"flag"` strings and bare
// words from an attribute list.
func parseAttrs(toks []Token) map[string]string {
	attrs := make(map[string]string)
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch t.Type {
		case TokString:
			if i+2 < len(toks) && toks[i+1].is(TokPunct, "=") && toks[i+2].Type == TokString {
				attrs[t.Text] = toks[i+2].Text
				i += 2
			} else {
				attrs[t.Text] = ""
			}
		case TokWord:
			attrs[t.Text] = ""
		}
	}
	return attrs
}

func (p *parser) attr(fn *function, names []string) (string, bool) {
	for _, name := range names {
		if v, ok := fn.inline[name]; ok {
			return v, true
		}
		for _, g := range fn.groups {
			if v, ok := p.attrGroups[g][name]; ok {
				return v, true
			}
		}
	}
	return "", false
}

// entry picks the function marked as entry point, or the first definition.
func (p *parser) entry() *function {
	for _, fn := range p.funcs {
		if _, ok := p.attr(fn, entryPointAttrs); ok {
			return fn
		}
	}
	return p.funcs[0]
}

func (p *parser) declaredQubits(fn *function) (int, error) {
	v, ok := p.attr(fn, numQubitsAttrs)
	if !ok {
		return -1, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, qerr.Parsef(fn.line, "invalid qubit count attribute %q", v)
	}
	return n, nil
}

// body walks the entry function. Control flow must be straight-line: the
// only accepted branch is an unconditional jump to the next block.
func (p *parser) body(fn *function) error {
	var (
		pending  string // target of the last br
		branchAt int
		returned bool
	)
	for _, ln := range fn.body {
		toks := ln.toks
		if returned {
			p.logger.Debug("ignoring code after ret", "line", ln.no)
			continue
		}

		if len(toks) == 2 && toks[1].is(TokPunct, ":") && (toks[0].Type == TokWord || toks[0].Type == TokString) {
			label := "%" + toks[0].Text
			if pending != "" && label != pending {
				return qerr.Parsef(branchAt, "branch to %s skips block %s", pending, label)
			}
			pending = ""
			continue
		}
		if pending != "" {
			return qerr.Parsef(ln.no, "instruction after branch terminator")
		}

		dst := ""
		if len(toks) >= 3 && toks[0].Type == TokLocal && toks[1].is(TokPunct, "=") {
			dst = toks[0].Text
			toks = toks[2:]
		}
		if toks[0].Type != TokWord {
			return qerr.Parsef(ln.no, "unexpected %q", toks[0].Text)
		}

		switch op := toks[0].Text; op {
		case "call", "tail", "musttail", "notail":
			if err := p.call(ln.no, dst, toks); err != nil {
				return err
			}
		case "ret":
			returned = true
		case "br":
			if len(toks) == 3 && toks[1].is(TokWord, "label") && toks[2].Type == TokLocal {
				pending = toks[2].Text
				branchAt = ln.no
				continue
			}
			return qerr.Parsef(ln.no, "conditional branches are not supported")
		case "bitcast", "load":
			if err := p.alias(ln.no, dst, toks); err != nil {
				return err
			}
		default:
			return qerr.Parsef(ln.no, "unsupported instruction %q", op)
		}
	}
	if pending != "" {
		return qerr.Parsef(branchAt, "branch target %s not found", pending)
	}
	return nil
}

// alias binds dst to whatever the pointer operand of a bitcast or load
// refers to.
func (p *parser) alias(no int, dst string, toks []Token) error {
	vals := valueLocals(toks)
	if dst == "" || len(vals) == 0 {
		return qerr.Parsef(no, "malformed %s", toks[0].Text)
	}
	src := vals[len(vals)-1]
	switch {
	case hasKey(p.elems, src):
		if toks[0].Text == "load" {
			p.qubits[dst] = p.elems[src]
		} else {
			p.elems[dst] = p.elems[src]
		}
	case hasKey(p.qubits, src):
		p.qubits[dst] = p.qubits[src]
	case hasKey(p.results, src):
		p.results[dst] = p.results[src]
	case hasKey(p.arrays, src):
		p.arrays[dst] = p.arrays[src]
	default:
		return qerr.Parsef(no, "unknown reference %s", src)
	}
	return nil
}

func hasKey[V any](m map[string]V, k string) bool {
	_, ok := m[k]
	return ok
}

// valueLocals returns the %names in toks that are values rather than
// typed-pointer types such as %Qubit*.
func valueLocals(toks []Token) []string {
	var vals []string
	for i, t := range toks {
		if t.Type != TokLocal {
			continue
		}
		if i+1 < len(toks) && toks[i+1].is(TokPunct, "*") {
			continue
		}
		vals = append(vals, t.Text)
	}
	return vals
}

func (p *parser) call(no int, dst string, toks []Token) error {
	ci := -1
	for i, t := range toks {
		if t.Type == TokGlobal {
			ci = i
			break
		}
	}
	if ci < 0 {
		return qerr.Parsef(no, "indirect calls are not supported")
	}
	callee := toks[ci].Text
	if ci+1 >= len(toks) || !toks[ci+1].is(TokPunct, "(") {
		return qerr.Parsef(no, "malformed call to %s", callee)
	}
	closeIdx, ok := matchParen(toks, ci+1)
	if !ok {
		return qerr.Parsef(no, "unbalanced operand list in call to %s", callee)
	}
	args := splitArgs(toks[ci+2 : closeIdx])

	switch {
	case strings.HasPrefix(callee, qisPrefix):
		name := strings.TrimPrefix(callee, qisPrefix)
		in, ok := intrinsics[name]
		if !ok {
			return qerr.Parsef(no, "unsupported opcode %s", callee)
		}
		return p.qis(no, dst, callee, in, args)
	case strings.HasPrefix(callee, rtPrefix):
		return p.runtime(no, dst, strings.TrimPrefix(callee, rtPrefix), args)
	case strings.HasPrefix(callee, "@llvm."):
		p.logger.Debug("skipping llvm intrinsic", "line", no, "callee", callee)
		return nil
	default:
		return qerr.Parsef(no, "call to unsupported function %s", callee)
	}
}

func (p *parser) qis(no int, dst, callee string, in intrinsic, args [][]Token) error {
	if len(args) != len(in.args) {
		return qerr.Parsef(no, "%s expects %d operands, got %d", callee, len(in.args), len(args))
	}
	raw := rawInst{Instruction: Instruction{Kind: in.kind, Op: in.op, Line: no, Result: -1}}
	for i, kind := range in.args {
		switch kind {
		case argQubit:
			r, err := p.qubitOperand(no, args[i])
			if err != nil {
				return err
			}
			raw.qrefs = append(raw.qrefs, r)
		case argResult:
			r, err := p.resultOperand(no, args[i])
			if err != nil {
				return err
			}
			raw.rref = r
		case argDouble:
			v, err := doubleOperand(no, args[i])
			if err != nil {
				return err
			}
			raw.Params = append(raw.Params, v)
		}
	}
	if in.noop {
		return nil
	}
	if in.returnsResult {
		raw.rref = ref{symbolic: true, index: p.nextResult}
		p.nextResult++
		if dst != "" {
			p.results[dst] = raw.rref
		}
	}
	p.out = append(p.out, raw)
	return nil
}

func (p *parser) runtime(no int, dst, name string, args [][]Token) error {
	switch name {
	case rtQubitAllocate:
		if dst == "" {
			return qerr.Parsef(no, "result of qubit_allocate is discarded")
		}
		r := ref{symbolic: true, index: p.nextQubit}
		p.nextQubit++
		p.qubits[dst] = r
		p.out = append(p.out, rawInst{Instruction: Instruction{Kind: KindAllocate, Line: no}, qrefs: []ref{r}})
	case rtQubitAllocateArray:
		if dst == "" || len(args) != 1 {
			return qerr.Parsef(no, "malformed qubit_allocate_array")
		}
		n, err := intOperand(no, args[0])
		if err != nil {
			return err
		}
		refs := make([]ref, n)
		for i := range refs {
			refs[i] = ref{symbolic: true, index: p.nextQubit}
			p.nextQubit++
		}
		p.arrays[dst] = refs
		if n > 0 {
			p.out = append(p.out, rawInst{Instruction: Instruction{Kind: KindAllocate, Line: no}, qrefs: refs})
		}
	case rtArrayElementPtr:
		if dst == "" || len(args) != 2 {
			return qerr.Parsef(no, "malformed array_get_element_ptr_1d")
		}
		vals := valueLocals(args[0])
		if len(vals) != 1 {
			return qerr.Parsef(no, "malformed array operand")
		}
		refs, ok := p.arrays[vals[0]]
		if !ok {
			return qerr.Parsef(no, "unknown qubit array %s", vals[0])
		}
		k, err := intOperand(no, args[1])
		if err != nil {
			return err
		}
		if k >= len(refs) {
			return qerr.Operandf("element %d of %s, which holds %d qubits", k, vals[0], len(refs)).AtLine(no)
		}
		p.elems[dst] = refs[k]
	default:
		p.logger.Debug("skipping runtime call", "line", no, "fn", name)
	}
	return nil
}

// paramAttrs are the parameter attributes that may sit between a pointer
// type and its value. They do not change which qubit or result is named.
var paramAttrs = map[string]bool{
	"writeonly": true,
	"readonly":  true,
	"readnone":  true,
	"nonnull":   true,
	"noundef":   true,
	"nocapture": true,
	"noalias":   true,
	"immarg":    true,
}

// skipParamAttrs drops leading parameter attributes, including the
// argument-taking forms align N and dereferenceable(N).
func skipParamAttrs(val []Token) []Token {
	for len(val) > 0 && val[0].Type == TokWord {
		switch w := val[0].Text; {
		case paramAttrs[w]:
			val = val[1:]
		case w == "align" && len(val) >= 2 && val[1].Type == TokWord:
			val = val[2:]
		case (w == "dereferenceable" || w == "dereferenceable_or_null") &&
			len(val) >= 4 && val[1].is(TokPunct, "(") && val[3].is(TokPunct, ")"):
			val = val[4:]
		default:
			return val
		}
	}
	return val
}

// pointerOperand decodes `<ptr type> [attrs] <value>` where value is null,
// inttoptr (i64 N to ...) or a %local. It returns the pointee type name
// ("%Qubit", "%Result" or "ptr" for opaque pointers).
func pointerOperand(no int, toks []Token) (typ string, static int, local string, err error) {
	i := 0
	switch {
	case len(toks) >= 2 && toks[0].Type == TokLocal && toks[1].is(TokPunct, "*"):
		typ = toks[0].Text
		i = 1
		for i < len(toks) && toks[i].is(TokPunct, "*") {
			i++
		}
	case len(toks) >= 1 && toks[0].is(TokWord, "ptr"):
		typ = "ptr"
		i = 1
	default:
		return "", 0, "", qerr.Parsef(no, "expected pointer operand, got %q", joinTokens(toks))
	}
	val := skipParamAttrs(toks[i:])
	switch {
	case len(val) == 1 && val[0].is(TokWord, "null"):
		return typ, 0, "", nil
	case len(val) == 1 && val[0].Type == TokLocal:
		return typ, 0, val[0].Text, nil
	case len(val) >= 6 && val[0].is(TokWord, "inttoptr") && val[1].is(TokPunct, "(") &&
		val[2].is(TokWord, "i64") && val[4].is(TokWord, "to") && val[len(val)-1].is(TokPunct, ")"):
		n, err := strconv.Atoi(val[3].Text)
		if err != nil || n < 0 {
			return "", 0, "", qerr.Parsef(no, "invalid address %q", val[3].Text)
		}
		return typ, n, "", nil
	}
	return "", 0, "", qerr.Parsef(no, "malformed operand %q", joinTokens(toks))
}

func (p *parser) qubitOperand(no int, toks []Token) (ref, error) {
	typ, n, local, err := pointerOperand(no, toks)
	if err != nil {
		return ref{}, err
	}
	if typ != "%Qubit" && typ != "ptr" {
		return ref{}, qerr.Parsef(no, "expected %%Qubit* operand, got %s*", typ)
	}
	if local == "" {
		return ref{index: n}, nil
	}
	r, ok := p.qubits[local]
	if !ok {
		return ref{}, qerr.Parsef(no, "unknown qubit reference %s", local)
	}
	return r, nil
}

func (p *parser) resultOperand(no int, toks []Token) (ref, error) {
	typ, n, local, err := pointerOperand(no, toks)
	if err != nil {
		return ref{}, err
	}
	if typ != "%Result" && typ != "ptr" {
		return ref{}, qerr.Parsef(no, "expected %%Result* operand, got %s*", typ)
	}
	if local == "" {
		return ref{index: n}, nil
	}
	r, ok := p.results[local]
	if !ok {
		return ref{}, qerr.Parsef(no, "unknown result reference %s", local)
	}
	return r, nil
}

func doubleOperand(no int, toks []Token) (float64, error) {
	if len(toks) < 2 || !toks[0].is(TokWord, "double") {
		return 0, qerr.Parsef(no, "expected double operand, got %q", joinTokens(toks))
	}
	lit := joinTokens(toks[1:])
	v, ok := parseDouble(lit)
	if !ok {
		return 0, qerr.Parsef(no, "invalid double literal %q", lit)
	}
	return v, nil
}

func intOperand(no int, toks []Token) (int, error) {
	if len(toks) != 2 || !toks[0].is(TokWord, "i64") {
		return 0, qerr.Parsef(no, "expected i64 operand, got %q", joinTokens(toks))
	}
	n, err := strconv.Atoi(toks[1].Text)
	if err != nil || n < 0 {
		return 0, qerr.Parsef(no, "invalid i64 literal %q", toks[1].Text)
	}
	return n, nil
}

// matchParen returns the index of the ')' closing the '(' at open.
func matchParen(toks []Token, open int) (int, bool) {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch {
		case toks[i].is(TokPunct, "("):
			depth++
		case toks[i].is(TokPunct, ")"):
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// splitArgs splits an operand list on commas outside nested brackets.
func splitArgs(toks []Token) [][]Token {
	if len(toks) == 0 {
		return nil
	}
	var (
		args  [][]Token
		cur   []Token
		depth int
	)
	for _, t := range toks {
		if t.Type == TokPunct {
			switch t.Text {
			case "(", "[", "{", "<":
				depth++
			case ")", "]", "}", ">":
				depth--
			case ",":
				if depth == 0 {
					args = append(args, cur)
					cur = nil
					continue
				}
			}
		}
		cur = append(cur, t)
	}
	return append(args, cur)
}

func joinTokens(toks []Token) string {
	var sb strings.Builder
	for _, t := range toks {
		sb.WriteString(t.Text)
	}
	return sb.String()
}

// resolve assigns dense indices. Static addresses keep their value;
// symbolic qubits and results take the lowest indices no static address
// uses, in allocation order.
func (p *parser) resolve() *Program {
	usedQ, usedR := map[int]bool{}, map[int]bool{}
	for _, raw := range p.out {
		for _, r := range raw.qrefs {
			if !r.symbolic {
				usedQ[r.index] = true
			}
		}
		if raw.Kind == KindMeasure && !raw.rref.symbolic {
			usedR[raw.rref.index] = true
		}
	}
	slotQ, numQ := freeSlots(usedQ, p.nextQubit)
	slotR, numR := freeSlots(usedR, p.nextResult)

	prog := &Program{
		NumQubits:    numQ,
		NumResults:   numR,
		Instructions: make([]Instruction, 0, len(p.out)),
	}
	for _, raw := range p.out {
		in := raw.Instruction
		if len(raw.qrefs) > 0 {
			in.Qubits = make([]int, len(raw.qrefs))
			for i, r := range raw.qrefs {
				if r.symbolic {
					in.Qubits[i] = slotQ[r.index]
				} else {
					in.Qubits[i] = r.index
				}
			}
		}
		if in.Kind == KindMeasure {
			if raw.rref.symbolic {
				in.Result = slotR[raw.rref.index]
			} else {
				in.Result = raw.rref.index
			}
		}
		prog.Instructions = append(prog.Instructions, in)
	}
	return prog
}

// freeSlots returns the n lowest indices not in used, and the register
// size needed to hold them together with every used index.
func freeSlots(used map[int]bool, n int) ([]int, int) {
	size := 0
	for i := range used {
		size = max(size, i+1)
	}
	slots := make([]int, 0, n)
	for i := 0; len(slots) < n; i++ {
		if !used[i] {
			slots = append(slots, i)
		}
	}
	if n > 0 {
		size = max(size, slots[n-1]+1)
	}
	return slots, size
}
