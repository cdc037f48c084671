package engine

// Expr is a parsed expression node
type Expr interface {
	exprNode()
}

// LiteralExpr is a constant
type LiteralExpr struct {
	Value Value
}

// InterpolatedExpr holds the raw body of $"..."
type InterpolatedExpr struct {
	Body string
}

// IdentifierExpr references a variable or, as the target of a member
// access, a type name such as Math or Console.
type IdentifierExpr struct {
	Name string
}

// MemberExpr is target.Name
type MemberExpr struct {
	Target Expr
	Name   string
}

// CallExpr is callee(args); the callee is an identifier or member access
type CallExpr struct {
	Callee Expr
	Args   []Expr
}

// UnaryExpr is a prefix operator applied to an operand
type UnaryExpr struct {
	Operator TokenType
	Operand  Expr
}

// BinaryExpr is left op right
type BinaryExpr struct {
	Operator TokenType
	Left     Expr
	Right    Expr
}

// TernaryExpr is cond ? then : else
type TernaryExpr struct {
	Condition Expr
	Then      Expr
	Else      Expr
}

// NewExpr is `new T(args)`
type NewExpr struct {
	TypeName string
	Args     []Expr
}

// ThrowExpr is `throw new T(args)`, usable inside switch arms and ternaries
type ThrowExpr struct {
	TypeName string
	Args     []Expr
}

func (*LiteralExpr) exprNode()      {}
func (*InterpolatedExpr) exprNode() {}
func (*IdentifierExpr) exprNode()   {}
func (*MemberExpr) exprNode()       {}
func (*CallExpr) exprNode()         {}
func (*UnaryExpr) exprNode()        {}
func (*BinaryExpr) exprNode()       {}
func (*TernaryExpr) exprNode()      {}
func (*NewExpr) exprNode()          {}
func (*ThrowExpr) exprNode()        {}

// qualifiedName flattens Console.ReadKey style chains into a dotted name.
// It reports false when any link is not a plain identifier.
func qualifiedName(expr Expr) (string, bool) {
	switch e := expr.(type) {
	case *IdentifierExpr:
		return e.Name, true
	case *MemberExpr:
		base, ok := qualifiedName(e.Target)
		if !ok {
			return "", false
		}
		return base + "." + e.Name, true
	}
	return "", false
}
