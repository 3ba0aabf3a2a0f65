package vm

import (
	"slices"

	"github.com/risor-io/quarry/bytecode"
	"github.com/risor-io/quarry/errz"
	"github.com/risor-io/quarry/object"
)

// forkFrom gives a conjunction frame its own copy of back's namespaces. The
// back frame's fast slots are flushed to its locals first, then globals and
// locals are cloned through the thread's clone cache so objects shared
// between them stay shared in the copy. The cloned locals are loaded into
// f's fast slots, whose free variables get fresh cells instead of the
// caller's.
//
// Before cloning, each of back's cells is bound in the cache to f's cell of
// the same name, so functions in the namespaces that close over back's
// cells are rebound to f's cells and cannot reach the caller's bindings.
func (f *Frame) forkFrom(back *Frame) error {
	cache := f.ts.cloneCache
	cache.Reset()
	defer cache.Reset()

	back.FastToLocals()

	code := f.code
	for i := code.VarCount() + code.CellCount(); i < code.SlotCount(); i++ {
		f.fast[i] = object.NewCell(nil)
	}
	f.bindCells(back, cache)

	globals, err := cloneDict(back.globals, cache)
	if err != nil {
		return err
	}
	f.globals = globals

	locals, err := cloneDict(back.locals, cache)
	if err != nil {
		return err
	}
	f.locals = locals

	f.LocalsToFast(false)
	return nil
}

// bindCells maps every cell of back to the cell f holds under the same
// name. Cells without a counterpart in f are left to be cloned.
func (f *Frame) bindCells(back *Frame, cache *object.CloneCache) {
	names := derefNames(f.code)
	for i, name := range derefNames(back.code) {
		cell := back.Cell(i)
		if cell == nil {
			continue
		}
		if j := slices.Index(names, name); j >= 0 {
			if own := f.Cell(j); own != nil {
				cache.Bind(cell, own)
			}
		}
	}
}

func derefNames(code *bytecode.Code) []string {
	return append(code.CellVars(), code.FreeVars()...)
}

func cloneDict(d *object.Dict, cache *object.CloneCache) (*object.Dict, error) {
	clone, err := object.Clone(d, cache)
	if err != nil {
		return nil, err
	}
	dict, ok := clone.(*object.Dict)
	if !ok {
		object.XUnref(clone)
		return nil, errz.Errorf(errz.ErrClone, "dict cloned to %s", clone.Type())
	}
	return dict, nil
}
