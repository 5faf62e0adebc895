package check

import (
	"odinc/internal/ast"
	"odinc/internal/diag"
	"odinc/internal/types"
)

// compositeLit checks T{...}. An untyped nested literal takes its type from
// hint, the element type of the enclosing literal.
func (tc *typeChecker) compositeLit(x *operand, e *ast.CompositeLit, hint types.TypeID) {
	var t types.TypeID
	switch {
	case e.Type != nil:
		t = tc.typExprOpen(e.Type, true)
		if t == types.NoTypeID {
			tc.checkElementsQuietly(e)
			return
		}
	case hint != types.NoTypeID:
		t = hint
	default:
		tc.report(diag.SemaInvalidCompositeType, e.Sp, "Missing type in compound literal")
		tc.checkElementsQuietly(e)
		return
	}

	base := tc.types.Base(t)
	switch tc.types.KindOf(base) {
	case types.KindRecord:
		if !tc.types.IsStruct(base) {
			tc.report(diag.SemaInvalidCompositeType, e.Sp, "Invalid compound literal type `%s`", tc.typeString(t))
			tc.checkElementsQuietly(e)
			return
		}
		if !tc.structLit(e, base) {
			return
		}
	case types.KindArray, types.KindSlice, types.KindVector:
		n, ok := tc.elementsLit(e, base)
		if !ok {
			return
		}
		if tc.types.IsArray(base) {
			bt, _ := tc.types.Lookup(base)
			if bt.Count == types.OpenCount {
				t = tc.types.Array(bt.Elem, n)
				if e.Type != nil {
					tc.info.Types[e.Type] = TypeAndValue{Mode: ModeType, Type: t}
				}
			}
		}
	default:
		tc.report(diag.SemaInvalidCompositeType, e.Sp, "Invalid compound literal type `%s`", tc.typeString(t))
		tc.checkElementsQuietly(e)
		return
	}
	x.mode = ModeValue
	x.typ = t
}

// checkElementsQuietly still resolves the elements of a broken literal so
// their identifiers are marked used.
func (tc *typeChecker) checkElementsQuietly(e *ast.CompositeLit) {
	for _, elt := range e.Elts {
		if fv, ok := elt.(*ast.FieldValue); ok {
			elt = fv.Value
		}
		if _, ok := elt.(*ast.CompositeLit); ok {
			continue
		}
		var y operand
		tc.rawExpr(&y, elt, types.NoTypeID)
	}
}

func (tc *typeChecker) structLit(e *ast.CompositeLit, base types.TypeID) bool {
	rec, _ := tc.types.Record(base)
	if len(e.Elts) == 0 {
		return true
	}
	_, named := e.Elts[0].(*ast.FieldValue)
	for _, elt := range e.Elts[1:] {
		if _, isFV := elt.(*ast.FieldValue); isFV != named {
			tc.report(diag.SemaMixedLiteral, elt.Span(), "Mixture of `field = value` and value elements in a structure literal is not allowed")
			tc.checkElementsQuietly(e)
			return false
		}
	}

	ok := true
	if named {
		seen := make(map[string]bool, len(e.Elts))
		for _, elt := range e.Elts {
			fv := elt.(*ast.FieldValue)
			f, found := rec.FieldByName(fv.Field.Name)
			if !found {
				tc.report(diag.SemaUnknownField, fv.Field.Sp, "Unknown field `%s` in structure literal", fv.Field.Name)
				ok = false
				continue
			}
			if seen[f.Name] {
				tc.report(diag.SemaDuplicateField, fv.Field.Sp, "Duplicate field `%s` in structure literal", f.Name)
				ok = false
				continue
			}
			seen[f.Name] = true
			if ent := tc.entities.Get(f.Obj); ent != nil {
				tc.info.Uses[fv.Field] = ent
			}
			var y operand
			tc.exprWithHint(&y, fv.Value, f.Type)
			tc.assignment(&y, f.Type, "structure literal")
			if y.invalid() {
				ok = false
			}
		}
		return ok
	}

	for i, elt := range e.Elts {
		if i >= len(rec.Fields) {
			tc.report(diag.SemaTooManyValues, elt.Span(), "Too many values in structure literal, expected %d", len(rec.Fields))
			return false
		}
		f := rec.Fields[i]
		var y operand
		tc.exprWithHint(&y, elt, f.Type)
		tc.assignment(&y, f.Type, "structure literal")
		if y.invalid() {
			ok = false
		}
	}
	if len(e.Elts) < len(rec.Fields) {
		tc.report(diag.SemaTooFewValues, e.Sp, "Too few values in structure literal, expected %d, got %d", len(rec.Fields), len(e.Elts))
		return false
	}
	return ok
}

// elementsLit checks the elements of an array, slice or vector literal and
// returns their count.
func (tc *typeChecker) elementsLit(e *ast.CompositeLit, base types.TypeID) (int64, bool) {
	bt, _ := tc.types.Lookup(base)
	elem := bt.Elem
	maxCount := int64(-1)
	context := "array literal"
	switch bt.Kind {
	case types.KindArray:
		if bt.Count != types.OpenCount {
			maxCount = bt.Count
		}
	case types.KindVector:
		maxCount = bt.Count
		context = "vector literal"
	case types.KindSlice:
		context = "slice literal"
	}

	ok := true
	for i, elt := range e.Elts {
		if fv, isFV := elt.(*ast.FieldValue); isFV {
			tc.report(diag.SemaMixedLiteral, fv.Sp, "`field = value` elements are not allowed in an %s", context)
			ok = false
			continue
		}
		if maxCount >= 0 && int64(i) >= maxCount {
			tc.report(diag.SemaIndexOutOfBounds, elt.Span(), "Index %d is out of bounds (>= %d) for %s", i, maxCount, context)
			return 0, false
		}
		var y operand
		tc.exprWithHint(&y, elt, elem)
		tc.assignment(&y, elem, context)
		if y.invalid() {
			ok = false
		}
	}

	n := int64(len(e.Elts))
	if bt.Kind == types.KindVector && n > 1 && n != bt.Count {
		tc.report(diag.SemaTooFewValues, e.Sp, "Expected either 1 (broadcast) or %d elements in vector literal, got %d", bt.Count, n)
		return 0, false
	}
	return n, ok
}
