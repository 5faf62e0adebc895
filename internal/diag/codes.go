package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// lexer
	LexInfo               Code = 1000
	LexUnknownChar        Code = 1001
	LexUnterminatedString Code = 1002
	LexUnterminatedBlock  Code = 1003
	LexBadNumber          Code = 1004
	LexBadEscape          Code = 1005
	LexUnterminatedRune   Code = 1006

	// parser
	SynInfo              Code = 2000
	SynUnexpectedToken   Code = 2001
	SynExpectSemicolon   Code = 2002
	SynExpectIdentifier  Code = 2003
	SynExpectType        Code = 2004
	SynExpectExpression  Code = 2005
	SynUnclosedDelimiter Code = 2006
	SynBadAttribute      Code = 2007
	SynBadDirective      Code = 2008
	SynVariadicNotLast   Code = 2009
	SynBadDecl           Code = 2010

	// checker
	SemaInfo                 Code = 3000
	SemaError                Code = 3001
	SemaUndeclared           Code = 3002
	SemaRedeclared           Code = 3003
	SemaDeclCycle            Code = 3004
	SemaNotAType             Code = 3005
	SemaNotAnExpression      Code = 3006
	SemaInvalidOperator      Code = 3007
	SemaMismatchedTypes      Code = 3008
	SemaCannotConvert        Code = 3009
	SemaOverflow             Code = 3010
	SemaTruncated            Code = 3011
	SemaDivisionByZero       Code = 3012
	SemaShiftOperand         Code = 3013
	SemaShiftAmount          Code = 3014
	SemaCannotAssign         Code = 3015
	SemaCannotCompare        Code = 3016
	SemaInvalidCast          Code = 3017
	SemaInvalidTransmute     Code = 3018
	SemaInvalidDownCast      Code = 3019
	SemaNoField              Code = 3020
	SemaNotIndexable         Code = 3021
	SemaIndexOutOfBounds     Code = 3022
	SemaInvalidIndex         Code = 3023
	SemaInvalidSliceIndices  Code = 3024
	SemaNotCallable          Code = 3025
	SemaTooFewArguments      Code = 3026
	SemaTooManyArguments     Code = 3027
	SemaTooFewValues         Code = 3028
	SemaTooManyValues        Code = 3029
	SemaUnknownField         Code = 3030
	SemaDuplicateField       Code = 3031
	SemaMixedLiteral         Code = 3032
	SemaInvalidCompositeType Code = 3033
	SemaUsingField           Code = 3034
	SemaInvalidEnum          Code = 3035
	SemaReservedName         Code = 3036
	SemaNotConstant          Code = 3037
	SemaBuiltinArgs          Code = 3038
	SemaAddressOf            Code = 3039
	SemaNotAssignable        Code = 3040
	SemaUnusedValue          Code = 3041
	SemaReturnCount          Code = 3042
	SemaMisplacedBranch      Code = 3043
	SemaInvalidDeref         Code = 3044
	SemaInvalidVariadic      Code = 3045
	SemaAssignMismatch       Code = 3046
	SemaDeferredHook         Code = 3047
	SemaInvalidUnion         Code = 3048
	SemaMissingBody          Code = 3049
	SemaRecursiveUnsized     Code = 3050
	SemaInvalidBitField      Code = 3051
	SemaInvalidMapKey        Code = 3052
	SemaInvalidSoA           Code = 3053
	SemaTypeTooLarge         Code = 3054
	SemaInvalidMatch         Code = 3055
	SemaDuplicateCase        Code = 3056

	// I/O
	IOLoadFileError Code = 4001
	IOReadDirError  Code = 4002

	// project / configuration
	ProjInfo          Code = 5000
	ProjBadConfig     Code = 5001
	ProjUnknownTarget Code = 5002

	// code generation
	GenInfo          Code = 6000
	GenUnsupported   Code = 6001
	GenInvalidModule Code = 6002
)

var codeDescription = map[Code]string{
	UnknownCode: "Unknown error",

	LexInfo:               "Lexical information",
	LexUnknownChar:        "Unknown character",
	LexUnterminatedString: "Unterminated string literal",
	LexUnterminatedBlock:  "Unterminated block comment",
	LexBadNumber:          "Malformed number literal",
	LexBadEscape:          "Invalid escape sequence",
	LexUnterminatedRune:   "Unterminated rune literal",

	SynInfo:              "Syntax information",
	SynUnexpectedToken:   "Unexpected token",
	SynExpectSemicolon:   "Expected semicolon",
	SynExpectIdentifier:  "Expected identifier",
	SynExpectType:        "Expected type",
	SynExpectExpression:  "Expected expression",
	SynUnclosedDelimiter: "Unclosed delimiter",
	SynBadAttribute:      "Invalid attribute",
	SynBadDirective:      "Invalid directive",
	SynVariadicNotLast:   "Variadic parameter must be last",
	SynBadDecl:           "Invalid declaration",

	SemaInfo:                 "Semantic information",
	SemaError:                "Semantic error",
	SemaUndeclared:           "Undeclared name",
	SemaRedeclared:           "Name already declared",
	SemaDeclCycle:            "Illegal declaration cycle",
	SemaNotAType:             "Not a type",
	SemaNotAnExpression:      "Not an expression",
	SemaInvalidOperator:      "Invalid operator for operand type",
	SemaMismatchedTypes:      "Mismatched types",
	SemaCannotConvert:        "Cannot convert value",
	SemaOverflow:             "Constant overflow",
	SemaTruncated:            "Constant truncated",
	SemaDivisionByZero:       "Division by zero",
	SemaShiftOperand:         "Invalid shift operand",
	SemaShiftAmount:          "Invalid shift amount",
	SemaCannotAssign:         "Cannot assign value",
	SemaCannotCompare:        "Cannot compare values",
	SemaInvalidCast:          "Invalid cast",
	SemaInvalidTransmute:     "Invalid transmute",
	SemaInvalidDownCast:      "Illegal down_cast",
	SemaNoField:              "No such field",
	SemaNotIndexable:         "Value cannot be indexed",
	SemaIndexOutOfBounds:     "Index out of bounds",
	SemaInvalidIndex:         "Invalid index",
	SemaInvalidSliceIndices:  "Invalid slice indices",
	SemaNotCallable:          "Value is not callable",
	SemaTooFewArguments:      "Too few arguments",
	SemaTooManyArguments:     "Too many arguments",
	SemaTooFewValues:         "Too few values in literal",
	SemaTooManyValues:        "Too many values in literal",
	SemaUnknownField:         "Unknown field in literal",
	SemaDuplicateField:       "Duplicate field in literal",
	SemaMixedLiteral:         "Mixed positional and named literal elements",
	SemaInvalidCompositeType: "Invalid composite literal type",
	SemaUsingField:           "Invalid using",
	SemaInvalidEnum:          "Invalid enumeration",
	SemaReservedName:         "Reserved identifier",
	SemaNotConstant:          "Expression is not constant",
	SemaBuiltinArgs:          "Invalid builtin arguments",
	SemaAddressOf:            "Cannot take address",
	SemaNotAssignable:        "Expression is not assignable",
	SemaUnusedValue:          "Value is not used",
	SemaReturnCount:          "Wrong number of return values",
	SemaMisplacedBranch:      "Branch statement outside loop",
	SemaInvalidDeref:         "Invalid dereference",
	SemaInvalidVariadic:      "Invalid variadic usage",
	SemaAssignMismatch:       "Assignment count mismatch",
	SemaDeferredHook:         "Invalid deferred procedure",
	SemaInvalidUnion:         "Invalid union",
	SemaMissingBody:          "Procedure has no body",
	SemaRecursiveUnsized:     "Recursive type has infinite size",
	SemaInvalidBitField:      "Invalid bit_field",
	SemaInvalidMapKey:        "Invalid map key type",
	SemaInvalidSoA:           "Invalid #soa type",
	SemaTypeTooLarge:         "Type is too large",
	SemaInvalidMatch:         "Invalid type match",
	SemaDuplicateCase:        "Duplicate case",

	IOLoadFileError: "Failed to load file",
	IOReadDirError:  "Failed to read directory",

	ProjInfo:          "Project information",
	ProjBadConfig:     "Invalid build configuration",
	ProjUnknownTarget: "Unknown target",

	GenInfo:          "Code generation information",
	GenUnsupported:   "Construct not supported by backend",
	GenInvalidModule: "Generated module failed validation",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("GEN%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	if desc, ok := codeDescription[c]; ok {
		return desc
	}
	return codeDescription[UnknownCode]
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
