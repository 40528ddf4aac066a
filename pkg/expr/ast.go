package expr

// node is an expression tree node. Trees are immutable after parsing.
type node interface {
	// pos returns the byte offset of the node in the condition source.
	pos() int
}

// numberNode is an integer or floating-point literal.
type numberNode struct {
	offset  int
	isFloat bool
	intVal  int64
	fltVal  float64
}

func (n *numberNode) pos() int { return n.offset }

// stringNode is a quoted string literal.
type stringNode struct {
	offset int
	value  string
}

func (n *stringNode) pos() int { return n.offset }

// boolNode is a true/false literal.
type boolNode struct {
	offset int
	value  bool
}

func (n *boolNode) pos() int { return n.offset }

// identNode is a reference to a named financial field, resolved against
// the Environment at evaluation time.
type identNode struct {
	offset int
	name   string
}

func (n *identNode) pos() int { return n.offset }

// unaryNode is a prefix operation: numeric negation or boolean NOT.
type unaryNode struct {
	offset  int
	op      tokenKind // tokenMinus, tokenPlus, tokenNot
	operand node
}

func (n *unaryNode) pos() int { return n.offset }

// binaryNode is an infix operation: arithmetic, comparison, or AND/OR.
type binaryNode struct {
	offset int
	op     tokenKind
	left   node
	right  node
}

func (n *binaryNode) pos() int { return n.offset }

// callNode is an invocation of a whitelisted function.
type callNode struct {
	offset int
	fn     string
	args   []node
}

func (n *callNode) pos() int { return n.offset }
