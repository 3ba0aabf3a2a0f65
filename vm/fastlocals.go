package vm

import (
	"github.com/risor-io/quarry/object"
)

// mapToDict copies values into dict under the matching names. Empty slots
// remove the name. With deref, each value is a cell and its contents are
// copied instead.
func mapToDict(names []string, values []object.Object, dict *object.Dict, deref bool) {
	for j, name := range names {
		value := values[j]
		if deref {
			if cell, ok := value.(*object.Cell); ok {
				value = cell.Get()
			} else {
				value = nil
			}
		}
		if value == nil {
			// An absent key is the same as an empty slot.
			_ = dict.DelItem(name)
			continue
		}
		dict.SetItem(name, value)
	}
}

// dictToMap is the inverse of mapToDict. A slot is only written when the
// bound value differs by identity. A name missing from dict empties the slot
// when clear is set and leaves it alone otherwise.
func dictToMap(names []string, values []object.Object, dict *object.Dict, deref, clear bool) {
	for j, name := range names {
		value, found := dict.GetItem(name)
		if deref {
			cell, ok := values[j].(*object.Cell)
			if !ok {
				continue
			}
			if !found {
				if clear {
					cell.Set(nil)
				}
				continue
			}
			if cell.Get() != value {
				cell.Set(value)
			}
			continue
		}
		if !found {
			if clear {
				object.Replace(&values[j], nil)
			}
			continue
		}
		if values[j] != value {
			object.Replace(&values[j], value)
		}
	}
}

// FastToLocals copies the fast slots into the locals dict, creating it if
// needed, so the frame's variables can be inspected by name. An error being
// propagated on the thread is preserved.
func (f *Frame) FastToLocals() {
	if f.locals == nil {
		f.locals = object.NewDict(nil)
	}
	saved := f.ts.Fetch()
	defer f.ts.Restore(saved)

	code := f.code
	nvars, ncells := code.VarCount(), code.CellCount()
	mapToDict(code.VarNames(), f.fast[:nvars], f.locals, false)
	mapToDict(code.CellVars(), f.fast[nvars:nvars+ncells], f.locals, true)
	mapToDict(code.FreeVars(), f.fast[nvars+ncells:], f.locals, true)
}

// LocalsToFast copies the locals dict back into the fast slots. With clear,
// names missing from the dict empty their slot. An error being propagated on
// the thread is preserved.
func (f *Frame) LocalsToFast(clear bool) {
	if f.locals == nil {
		return
	}
	saved := f.ts.Fetch()
	defer f.ts.Restore(saved)

	code := f.code
	nvars, ncells := code.VarCount(), code.CellCount()
	dictToMap(code.VarNames(), f.fast[:nvars], f.locals, false, clear)
	dictToMap(code.CellVars(), f.fast[nvars:nvars+ncells], f.locals, true, clear)
	dictToMap(code.FreeVars(), f.fast[nvars+ncells:], f.locals, true, clear)
}
