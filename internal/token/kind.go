package token

// Kind represents the category of a source token.
type Kind uint8

const (
	Invalid Kind = iota
	EOF

	Ident
	IntLit
	FloatLit
	ImagLit
	RuneLit
	StringLit

	// operators
	Add    // +
	Sub    // -
	Mul    // *
	Quo    // /
	Mod    // %
	And    // &
	Or     // |
	Xor    // ~
	AndNot // &~
	Shl    // <<
	Shr    // >>

	AddEq    // +=
	SubEq    // -=
	MulEq    // *=
	QuoEq    // /=
	ModEq    // %=
	AndEq    // &=
	OrEq     // |=
	XorEq    // ~=
	AndNotEq // &~=
	ShlEq    // <<=
	ShrEq    // >>=

	CmpAnd // &&
	CmpOr  // ||
	Not    // !

	CmpEq // ==
	NotEq // !=
	Lt    // <
	Gt    // >
	LtEq  // <=
	GtEq  // >=

	Eq         // =
	Define     // :=
	ColonColon // ::
	Colon      // :
	Semicolon  // ;
	Comma      // ,
	Period     // .
	Ellipsis   // ..
	Pointer    // ^
	ArrowRight // ->
	Hash       // #
	At         // @

	OpenParen    // (
	CloseParen   // )
	OpenBracket  // [
	CloseBracket // ]
	OpenBrace    // {
	CloseBrace   // }

	keywordBegin
	KwProc
	KwStruct
	KwUnion
	KwRawUnion
	KwEnum
	KwUsing
	KwIf
	KwElse
	KwFor
	KwReturn
	KwBreak
	KwContinue
	KwDefer
	KwAs
	KwTransmute
	KwDownCast
	KwVector
	KwMap
	KwBitField
	KwMatch
	KwCase
	KwDefault
	KwIn
	keywordEnd

	kindCount
)

var kindStrings = [...]string{
	Invalid:   "invalid",
	EOF:       "EOF",
	Ident:     "identifier",
	IntLit:    "integer",
	FloatLit:  "float",
	ImagLit:   "imaginary",
	RuneLit:   "rune",
	StringLit: "string",

	Add:    "+",
	Sub:    "-",
	Mul:    "*",
	Quo:    "/",
	Mod:    "%",
	And:    "&",
	Or:     "|",
	Xor:    "~",
	AndNot: "&~",
	Shl:    "<<",
	Shr:    ">>",

	AddEq:    "+=",
	SubEq:    "-=",
	MulEq:    "*=",
	QuoEq:    "/=",
	ModEq:    "%=",
	AndEq:    "&=",
	OrEq:     "|=",
	XorEq:    "~=",
	AndNotEq: "&~=",
	ShlEq:    "<<=",
	ShrEq:    ">>=",

	CmpAnd: "&&",
	CmpOr:  "||",
	Not:    "!",

	CmpEq: "==",
	NotEq: "!=",
	Lt:    "<",
	Gt:    ">",
	LtEq:  "<=",
	GtEq:  ">=",

	Eq:         "=",
	Define:     ":=",
	ColonColon: "::",
	Colon:      ":",
	Semicolon:  ";",
	Comma:      ",",
	Period:     ".",
	Ellipsis:   "..",
	Pointer:    "^",
	ArrowRight: "->",
	Hash:       "#",
	At:         "@",

	OpenParen:    "(",
	CloseParen:   ")",
	OpenBracket:  "[",
	CloseBracket: "]",
	OpenBrace:    "{",
	CloseBrace:   "}",

	KwProc:      "proc",
	KwStruct:    "struct",
	KwUnion:     "union",
	KwRawUnion:  "raw_union",
	KwEnum:      "enum",
	KwUsing:     "using",
	KwIf:        "if",
	KwElse:      "else",
	KwFor:       "for",
	KwReturn:    "return",
	KwBreak:     "break",
	KwContinue:  "continue",
	KwDefer:     "defer",
	KwAs:        "as",
	KwTransmute: "transmute",
	KwDownCast:  "down_cast",
	KwVector:    "vector",
	KwMap:       "map",
	KwBitField:  "bit_field",
	KwMatch:     "match",
	KwCase:      "case",
	KwDefault:   "default",
	KwIn:        "in",
}

func (k Kind) String() string {
	if int(k) < len(kindStrings) && kindStrings[k] != "" {
		return kindStrings[k]
	}
	return "unknown"
}

func (k Kind) IsKeyword() bool {
	return k > keywordBegin && k < keywordEnd
}

// IsAssignOp reports whether k is a compound assignment operator.
func (k Kind) IsAssignOp() bool {
	return k >= AddEq && k <= ShrEq
}

// BinaryOf maps a compound assignment to its binary operator ("+=" -> "+").
func (k Kind) BinaryOf() Kind {
	if !k.IsAssignOp() {
		return Invalid
	}
	return Add + (k - AddEq)
}

func (k Kind) IsComparison() bool {
	switch k {
	case CmpEq, NotEq, Lt, Gt, LtEq, GtEq:
		return true
	}
	return false
}

func (k Kind) IsShift() bool {
	return k == Shl || k == Shr || k == ShlEq || k == ShrEq
}

// Precedence returns the binary precedence of k, or 0 when k is not a binary operator.
func (k Kind) Precedence() int {
	switch k {
	case CmpOr:
		return 1
	case CmpAnd:
		return 2
	case CmpEq, NotEq, Lt, Gt, LtEq, GtEq:
		return 3
	case Add, Sub, Or, Xor:
		return 4
	case Mul, Quo, Mod, And, AndNot, Shl, Shr:
		return 5
	case KwAs, KwTransmute, KwDownCast:
		return 6
	}
	return 0
}
