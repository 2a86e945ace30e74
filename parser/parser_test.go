package parser

import (
	"strings"
	"sync"
	"testing"

	"github.com/chazu/fern/ast"
	"github.com/chazu/fern/pos"
)

// mustParse parses input, normalizing CRLF line endings so byte positions
// match on multi-line inputs, and fails the test on error.
func mustParse(t *testing.T, input string) ast.Expr {
	t.Helper()
	input = strings.ReplaceAll(input, "\r\n", "\n")
	e, err := Parse(input)
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	return e
}

func TestParserExpressions(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2 * 3 + 4", "(infix + (infix * 2 3) 4)"},
		{"2 + 3 * 4", "(infix + 2 (infix * 3 4))"},
		{"a - b - c", "(infix - (infix - a b) c)"},
		{"a || b && c == d", "(infix || a (infix && b (infix == c d)))"},
		{"a ++ b == c", "(infix == (infix ++ a b) c)"},
		{`\x y -> x + y`, "(lambda (params x y) (infix + x y))"},
		{"type Test = Int in 0", "(type (alias Test Int) 0)"},
		{`let f = \x y -> x + y in f 1 2`, "(let (bind f (lambda (params x y) (infix + x y))) (app f 1 2))"},
		{"if True then 1 else 0", "(if True 1 0)"},
		{"let f x y = y in f 2", "(let (bind f (params x y) y) (app f 2))"},
		{"type Test = { x: Int, y: {} } in 1", "(type (alias Test (trecord (field x Int) (field y (trecord)))) 1)"},
		{"{ x = 1 }.x", "(proj (record (field x 1)) x)"},
		{"a.b.c", "(proj (proj a b) c)"},
		{"f a.b", "(app f (proj a b))"},
		{"x #Int+ 1", "(infix #Int+ x 1)"},
		{
			`let (==) = \x y -> x #Int== y in (==) 1 2`,
			"(let (bind == (lambda (params x y) (infix #Int== x y))) (app == 1 2))",
		},
		{"[1, a]", "(array 1 a)"},
		{"[]", "(array)"},
		{"{}", "(record)"},
		{"test + 1 * 23 #Int- test", "(infix #Int- (infix + test (infix * 1 23)) test)"},
		{"{ y, x = z,}", "(record (field y) (field x z))"},
		{"[y, 1, 2,]", "(array y 1 2)"},
		{"match x with | { y, x = z } -> z", "(match x (alt (precord (field y) (field x z)) z))"},
		{"let {x, y} = test in x", "(let (bind (precord (field x) (field y)) test) x)"},
		{`let f' = \x y -> x + y in f' 1 2`, "(let (bind f' (lambda (params x y) (infix + x y))) (app f' 1 2))"},
		{`"a" 'b' 1.5 2.0 7b`, `(app "a" 'b' 1.5 2.0 7b)`},
		{`f \x -> x`, "(app f (lambda (params x) x))"},
		{"(f x) (g y)", "(app (app f x) (app g y))"},
		{"let Some x = y in x", "(let (bind (ctor Some x) y) x)"},
		{"let (Some x) = y in x", "(let (bind (ctor Some x) y) x)"},
		{"match p with | Pair (Some a) b -> a", "(match p (alt (ctor Pair (ctor Some a) b) a))"},
		{"match r with | { Fn = G, x } -> x", "(match r (alt (precord (tfield Fn G) (field x)) x))"},
	}

	for _, tc := range tests {
		e := mustParse(t, tc.input)
		if got := ast.Dump(e); got != tc.want {
			t.Errorf("%q:\n got %s\nwant %s", tc.input, got, tc.want)
		}
	}
}

func TestParserTypeMutuallyRecursive(t *testing.T) {
	e := mustParse(t, "type Test = | Test Int and Test2 = { x: Int, y: {} } in 1")
	tb, ok := e.(*ast.TypeBindings)
	if !ok {
		t.Fatalf("got %T, want *ast.TypeBindings", e)
	}
	if len(tb.Bindings) != 2 {
		t.Fatalf("got %d bindings, want one group of 2", len(tb.Bindings))
	}
	want := "(type (alias Test (variants (ctor Test (-> Int Test)))) (alias Test2 (trecord (field x Int) (field y (trecord)))) 1)"
	if got := ast.Dump(e); got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestParserLetMutuallyRecursive(t *testing.T) {
	e := mustParse(t, "let even n = odd n\nand odd n = even n\neven 1")
	let, ok := e.(*ast.LetBindings)
	if !ok {
		t.Fatalf("got %T", e)
	}
	if len(let.Bindings) != 2 {
		t.Fatalf("got %d bindings", len(let.Bindings))
	}
	want := "(let (bind even (params n) (app odd n)) (bind odd (params n) (app even n)) (app even 1))"
	if got := ast.Dump(e); got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestParserVariantType(t *testing.T) {
	e := mustParse(t, "type Option a = | None | Some a in Some 1")
	want := "(type (alias Option (params a) (variants (ctor None (tapp Option a)) (ctor Some (-> a (tapp Option a))))) (app Some 1))"
	if got := ast.Dump(e); got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}

	alias := e.(*ast.TypeBindings).Bindings[0].Alias
	if len(alias.Args) != 1 || alias.Args[0].Id != "a" {
		t.Fatalf("alias args = %v", alias.Args)
	}
	if kv, ok := alias.Args[0].Kind.(*ast.KindVar); !ok || kv.ID != 0 {
		t.Errorf("generic kind = %#v, want unallocated kind variable", alias.Args[0].Kind)
	}
}

func TestParserCaseExpr(t *testing.T) {
	e := mustParse(t, "\nmatch None with\n    | Some x -> x\n    | None -> 0")
	want := "(match None (alt (ctor Some x) x) (alt (ctor None) 0))"
	if got := ast.Dump(e); got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestParserLetTypeAnnotation(t *testing.T) {
	e := mustParse(t, `let f: Int = \x y -> x + y in f 1 2`)
	b := e.(*ast.LetBindings).Bindings[0]
	if bt, ok := b.Type.(*ast.Builtin); !ok || bt.Kind != ast.BuiltinInt {
		t.Errorf("binding type = %#v, want Int", b.Type)
	}
}

func TestParserUnannotatedBindingHasHole(t *testing.T) {
	e := mustParse(t, "let x = 1 in x")
	b := e.(*ast.LetBindings).Bindings[0]
	if !ast.IsHole(b.Type) {
		t.Errorf("binding type = %#v, want hole", b.Type)
	}
	id := b.Name.(*ast.IdentPattern).Id
	if !ast.IsHole(id.Type) {
		t.Errorf("identifier type = %#v, want hole", id.Type)
	}
}

func TestParserAssociatedRecord(t *testing.T) {
	e := mustParse(t, "type Test a = { Fn, x: a } in { Fn = Int -> Array Int, Test, x = 1 }")
	want := "(type (alias Test (params a) (trecord (tfield Fn Fn) (field x a))) " +
		"(record (tfield Fn (-> Int (tapp Array Int))) (tfield Test) (field x 1)))"
	if got := ast.Dump(e); got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestParserEquivalentForms(t *testing.T) {
	tests := []struct {
		desc string
		a, b string
	}{
		{"dangling in", "\nlet x = 1\nin\n\nlet y = 2\ny\n", "let x = 1 in let y = 2 in y"},
		{"implicit in", "let x = 1\n\nlet y = 2\ny", "let x = 1 in let y = 2 in y"},
		{"record trailing comma", "{ y, x = z, }", "{ y, x = z }"},
		{"array trailing comma", "[ y, 1, 2, ]", "[ y, 1, 2 ]"},
		{"function type head", "\nlet x: ((->) Int Int) = x\nx\n", "let x : Int -> Int = x in x"},
		{"arrow is right associative", "let f : a -> b -> c = f in f", "let f : a -> (b -> c) = f in f"},
		{"layout and explicit blocks", "let f x =\n    let y = x\n    y\nf 1", "let f x = (let y = x in y) in f 1"},
		{"if layout", "\nif True then\n    1\nelse\n    123.45\n", "if True then 1 else 123.45"},
		{"primitive operator precedence", "a #Int- b * c", "a - b * c"},
	}

	for _, tc := range tests {
		a := mustParse(t, tc.a)
		b := mustParse(t, tc.b)
		da, db := ast.Dump(a), ast.Dump(b)
		if tc.desc == "primitive operator precedence" {
			db = strings.Replace(db, "infix -", "infix #Int-", 1)
		}
		if da != db {
			t.Errorf("%s:\n%q -> %s\n%q -> %s", tc.desc, tc.a, da, tc.b, db)
		}
	}
}

func TestParserBlocks(t *testing.T) {
	e := mustParse(t, "f 1\ng 2\nh")
	want := "(block (app f 1) (app g 2) h)"
	if got := ast.Dump(e); got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

// ---------------------------------------------------------------------------
// Doc comments
// ---------------------------------------------------------------------------

func TestParserComments(t *testing.T) {
	tests := []struct {
		desc  string
		input string
		want  string
	}{
		{
			"comment on let",
			"\n/// The identity function\nlet id x = x\nid\n",
			`(let (bind (doc "The identity function") id (params x) x) id)`,
		},
		{
			"comment on type",
			"\n/** Test type */\ntype Test = Int\nid\n",
			`(type (alias Test (doc "Test type ") Int) id)`,
		},
		{
			"comment after integer",
			"\nlet x = 1\n\n/** Test type */\ntype Test = Int\nid\n",
			`(let (bind x 1) (type (alias Test (doc "Test type ") Int) id))`,
		},
		{
			"merge line comments",
			"\n/// Merge\n/// consecutive\n/// line comments.\ntype Test = Int\nid\n",
			`(type (alias Test (doc "Merge\nconsecutive\nline comments.") Int) id)`,
		},
		{
			"line comments then block comment",
			"/// a\n/** b */\nlet x = 1\nx",
			`(let (bind (doc "b ") x 1) x)`,
		},
		{
			"block comment then line comments",
			"/** a */\n/// b\n/// c\nlet x = 1\nx",
			`(let (bind (doc "b\nc") x 1) x)`,
		},
		{
			"comment on and",
			"let f = 1\n/// second\nand g = 2\nf",
			`(let (bind f 1) (bind (doc "second") g 2) f)`,
		},
		{
			"comment not on a binding is dropped",
			"/// stray\nf x",
			"(app f x)",
		},
	}

	for _, tc := range tests {
		e := mustParse(t, tc.input)
		if got := ast.Dump(e); got != tc.want {
			t.Errorf("%s:\n got %s\nwant %s", tc.desc, got, tc.want)
		}
	}
}

func TestParserCommentKinds(t *testing.T) {
	e := mustParse(t, "/// line\nlet x = 1\n/** block */\ntype T = Int\nx")
	let := e.(*ast.LetBindings)
	if c := let.Bindings[0].Comment; c == nil || c.Kind != ast.LineComment {
		t.Errorf("let comment = %+v, want line comment", c)
	}
	tb := let.Body.(*ast.TypeBindings)
	if c := tb.Bindings[0].Comment; c == nil || c.Kind != ast.BlockComment {
		t.Errorf("type comment = %+v, want block comment", c)
	}
}

func TestParserMixedDocCommentKinds(t *testing.T) {
	tests := []struct {
		input string
		kind  ast.CommentKind
		text  string
	}{
		{"/// a\n/** b */\nlet x = 1\nx", ast.BlockComment, "b "},
		{"/** a */\n/// b\nlet x = 1\nx", ast.LineComment, "b"},
		{"/** a */\n/**\n b */\nlet x = 1\nx", ast.BlockComment, "a \n\n b "},
	}
	for _, tc := range tests {
		let := mustParse(t, tc.input).(*ast.LetBindings)
		c := let.Bindings[0].Comment
		if c == nil || c.Kind != tc.kind || c.Text != tc.text {
			t.Errorf("%q: comment = %+v, want %v %q", tc.input, c, tc.kind, tc.text)
		}
	}
}

func TestParserTrimBlockDocComments(t *testing.T) {
	input := "/**   Test type   */\ntype Test = Int\nid"
	tests := []struct {
		trim bool
		want string
	}{
		{false, "Test type   "},
		{true, "Test type"},
	}
	for _, tc := range tests {
		e, err := ParseWithOptions(input, Options{TrimBlockDocComments: tc.trim})
		if err != nil {
			t.Fatal(err)
		}
		c := e.(*ast.TypeBindings).Bindings[0].Comment
		if c == nil || c.Text != tc.want {
			t.Errorf("trim=%v: comment = %+v, want %q", tc.trim, c, tc.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Spans
// ---------------------------------------------------------------------------

func TestParserSpans(t *testing.T) {
	tests := []struct {
		input      string
		start, end pos.BytePos
	}{
		{"test", 0, 4},
		{"1234", 0, 4},
		{` "test" `, 1, 7},
		{` 'c' `, 1, 4},
		{` 1.5 `, 1, 4},
		{` f 123 "asd"`, 1, 12},
		{"\nmatch False with\n    | True -> \"asd\"\n    | False -> \"\"\n", 1, 55},
		{"\nif True then\n    1\nelse\n    123.45\n", 1, 35},
		{"124b", 0, 4},
		{"record.x", 0, 8},
		{"  let x = 1 in x  ", 2, 16},
		{"(a + b)", 1, 6},
		{"f (a + b)", 0, 9},
		{"{ x = 1 }", 0, 9},
	}

	for _, tc := range tests {
		e := mustParse(t, tc.input)
		if got, want := e.Span(), pos.NewSpan(tc.start, tc.end); got != want {
			t.Errorf("%q: span = %v, want %v", tc.input, got, want)
		}
	}
}

func TestParserProjectionReceiverSpan(t *testing.T) {
	e := mustParse(t, "record.x")
	proj, ok := e.(*ast.Projection)
	if !ok {
		t.Fatalf("got %T", e)
	}
	if got := proj.Expr.Span(); got != pos.NewSpan(0, 6) {
		t.Errorf("receiver span = %v, want [0, 6)", got)
	}
}

func TestParserSpansNest(t *testing.T) {
	inputs := []string{
		"let f x y = x + y * 2\nand g = f 1\ng 3",
		"type Option a = | None | Some a in match Some 1 with | Some x -> x | None -> 0",
		"type Test a = { Fn, x: a } in { Fn = Int -> Array Int, Test, x = 1 }",
		"if a then\n    let b = [1, 2,]\n    b\nelse\n    { c = d.e }",
		`\x -> (\y -> x y) x`,
		"a\n(b)",
	}

	for _, input := range inputs {
		checkSpansNest(t, input, mustParse(t, input))
	}
}

func TestParserPartialSpansNest(t *testing.T) {
	inputs := []string{
		"f 1\ntest.",
		"a\nb\nf x.",
		"let x = 1\nx.\ny",
		"g (h 1).",
		"[1, 2, +]",
		"match x with | A -> 1 | B ->",
	}

	for _, input := range inputs {
		e, err := Parse(input)
		if err == nil {
			t.Errorf("%q: expected an error", input)
			continue
		}
		checkSpansNest(t, input, e)
	}
}

func TestParserPartialBlockSpan(t *testing.T) {
	e, _ := Parse("f 1\ntest.")
	block, ok := e.(*ast.Block)
	if !ok {
		t.Fatalf("partial = %s, want a block", ast.Dump(e))
	}
	if got, want := block.Span(), pos.NewSpan(0, 9); got != want {
		t.Errorf("block span = %v, want %v", got, want)
	}
}

// checkSpansNest verifies every node lies inside the input and inside its
// parent. The placeholder span of a projection without a field is exempt
// from containing its receiver.
func checkSpansNest(t *testing.T, input string, e ast.Expr) {
	t.Helper()
	var stack []ast.Node
	ast.Inspect(e, func(n ast.Node) bool {
		if n == nil {
			stack = stack[:len(stack)-1]
			return true
		}
		if n.Span().End > pos.BytePos(len(input)) {
			t.Errorf("%q: %T span %v past end of input", input, n, n.Span())
		}
		if len(stack) > 0 {
			parent := stack[len(stack)-1]
			proj, placeholder := parent.(*ast.Projection)
			placeholder = placeholder && proj.Field == ""
			if !placeholder && !parent.Span().Contains(n.Span()) {
				t.Errorf("%q: %T %v not inside %T %v", input, n, n.Span(), parent, parent.Span())
			}
		}
		stack = append(stack, n)
		return true
	})
}

// ---------------------------------------------------------------------------
// Interning
// ---------------------------------------------------------------------------

type countingInterner struct {
	seen map[string]int
}

func (c *countingInterner) Intern(name string) string {
	c.seen[name]++
	return name
}

func TestParserUsesInterner(t *testing.T) {
	names := &countingInterner{seen: map[string]int{}}
	if _, err := ParseWithOptions(`let f x = x + x in f 1`, Options{Interner: names}); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"f", "x", "+"} {
		if names.seen[name] == 0 {
			t.Errorf("%q was not interned", name)
		}
	}
}

func TestNewInterner(t *testing.T) {
	in := NewInterner()
	a := in.Intern(strings.Repeat("ab", 2))
	b := in.Intern("abab")
	if a != b {
		t.Fatalf("got %q and %q", a, b)
	}
	if in.Intern("") != "" {
		t.Error("empty name changed")
	}
}

// ---------------------------------------------------------------------------
// ParseType
// ---------------------------------------------------------------------------

func TestParseType(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Int", "Int"},
		{"a", "a"},
		{"_", "_"},
		{"()", "()"},
		{"Option a", "(tapp Option a)"},
		{"Array Int", "(tapp Array Int)"},
		{"Int -> Int", "(-> Int Int)"},
		{"(->) Int Int", "(-> Int Int)"},
		{"(->) Int", "(tapp -> Int)"},
		{"a -> b -> c", "(-> a (-> b c))"},
		{"(a -> b) -> c", "(-> (-> a b) c)"},
		{"{ x : Int, F = String }", "(trecord (tfield F String) (field x Int))"},
		{"Map k (List v)", "(tapp Map k (tapp List v))"},
	}

	for _, tc := range tests {
		typ, err := ParseType(tc.input)
		if err != nil {
			t.Errorf("%q: %v", tc.input, err)
			continue
		}
		if got := ast.Dump(typ); got != tc.want {
			t.Errorf("%q: got %s, want %s", tc.input, got, tc.want)
		}
	}
}

func TestParseTypeErrors(t *testing.T) {
	for _, input := range []string{"", "->", "Int ->", "(Int", "{ x Int }", "Int Int)"} {
		if _, err := ParseType(input); err == nil {
			t.Errorf("%q: expected error", input)
		}
	}
}

// ---------------------------------------------------------------------------
// Concurrency
// ---------------------------------------------------------------------------

func TestParseConcurrentSharedInterner(t *testing.T) {
	inputs := []string{
		"let f x y = x + y * 2\nand g = f 1\ng 3",
		"type Option a = | None | Some a in match Some 1 with | Some x -> x | None -> 0",
		"/// doc\nlet r = { x = 1, y = [1, 2] }\nr.x",
		"f 1\ntest.",
	}
	opts := Options{Interner: NewInterner()}

	want := make([]string, len(inputs))
	for i, input := range inputs {
		e, _ := ParseWithOptions(input, Options{})
		want[i] = ast.Dump(e)
	}

	const workers, rounds = 8, 50
	var wg sync.WaitGroup
	errs := make(chan string, workers*rounds*len(inputs))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				for i, input := range inputs {
					e, _ := ParseWithOptions(input, opts)
					if got := ast.Dump(e); got != want[i] {
						errs <- input + ": " + got
					}
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Error(msg)
	}
}

func TestParseIsRepeatable(t *testing.T) {
	input := "let x = 1\nlet y = x.\ny"
	first, firstErr := Parse(input)
	for i := 0; i < 10; i++ {
		e, err := Parse(input)
		if ast.Dump(e) != ast.Dump(first) {
			t.Fatalf("parse %d: %s, want %s", i, ast.Dump(e), ast.Dump(first))
		}
		if (err == nil) != (firstErr == nil) || (err != nil && err.Error() != firstErr.Error()) {
			t.Fatalf("parse %d: error %v, want %v", i, err, firstErr)
		}
	}
}
