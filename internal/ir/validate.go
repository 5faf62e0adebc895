package ir

import (
	"errors"
	"fmt"
)

// Validate checks the structural invariants of every procedure body.
func Validate(m *Module) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, p := range m.Procs {
		if p.IsDecl() {
			continue
		}
		if err := validateProc(p); err != nil {
			errs = append(errs, fmt.Errorf("procedure %s: %w", p.Name, err))
		}
	}
	return errors.Join(errs...)
}

func validateProc(p *Proc) error {
	var errs []error
	owned := make(map[*Block]bool, len(p.Blocks))
	for _, b := range p.Blocks {
		owned[b] = true
	}
	if p.DeclBlock != nil && (len(p.Blocks) == 0 || p.Blocks[0] != p.DeclBlock) {
		errs = append(errs, errors.New("decl block is not the first block"))
	}

	for _, b := range p.Blocks {
		if len(b.Instrs) == 0 || !b.Instrs[len(b.Instrs)-1].Op.IsTerminator() {
			errs = append(errs, fmt.Errorf("%s: unterminated block", b.Name))
		}
		for j, in := range b.Instrs {
			if in.Op.IsTerminator() && j != len(b.Instrs)-1 {
				errs = append(errs, fmt.Errorf("%s: %s terminator in the middle of the block", b.Name, in.Op))
			}
			if in.Op == OpAlloca && b != p.DeclBlock {
				errs = append(errs, fmt.Errorf("%s: alloca outside the decl block", b.Name))
			}
			for _, t := range in.Targets {
				if !owned[t] {
					name := "<nil>"
					if t != nil {
						name = t.Name
					}
					errs = append(errs, fmt.Errorf("%s: %s refers to block %s of another procedure", b.Name, in.Op, name))
				}
			}
			if in.Op == OpPhi && len(in.Args) != len(in.Targets) {
				errs = append(errs, fmt.Errorf("%s: phi has %d values for %d predecessors", b.Name, len(in.Args), len(in.Targets)))
			}
		}
	}
	return errors.Join(errs...)
}
