package vm

import (
	"fmt"

	"github.com/risor-io/quarry/bytecode"
	"github.com/risor-io/quarry/errz"
	"github.com/risor-io/quarry/object"
)

// Keyword is a keyword argument passed to EvalCodeEx.
type Keyword struct {
	Name  string
	Value object.Object
}

func argsErrorf(code *bytecode.Code, format string, args ...any) *errz.Error {
	msg := "function"
	if name := code.Name(); name != "" {
		msg = fmt.Sprintf("%s %q", msg, name)
	}
	return errz.New(errz.ErrArgs, msg+" "+fmt.Sprintf(format, args...))
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// bindArguments fills the parameter slots of a fresh frame. Positional
// arguments come first, extras go to the varargs tuple, keywords are
// matched by name or collected in the varkw dict, and missing trailing
// parameters take their defaults. Parameters that are also cell variables
// have their cell initialized with the bound value.
func (f *Frame) bindArguments(args []object.Object, kwargs []Keyword, defaults []object.Object) error {
	code := f.code
	flags := code.Flags()
	argcount := code.ArgCount()
	hasVarArgs := flags.Has(bytecode.FlagVarArgs)
	hasVarKw := flags.Has(bytecode.FlagVarKeywords)

	nparams := argcount
	varargsSlot, varkwSlot := -1, -1
	if hasVarArgs {
		varargsSlot = nparams
		nparams++
	}
	if hasVarKw {
		varkwSlot = nparams
		nparams++
	}
	if nparams > code.VarCount() {
		return errz.Errorf(errz.ErrSystem, "%s declares %d parameters but only %d variables",
			code.Name(), nparams, code.VarCount())
	}
	if nparams == 0 {
		if len(args) > 0 || len(kwargs) > 0 {
			return argsErrorf(code, "takes 0 arguments (%d given)", len(args)+len(kwargs))
		}
		return nil
	}

	var kwdict *object.Dict
	if hasVarKw {
		kwdict = object.NewDict(nil)
		f.SetLocal(varkwSlot, kwdict)
		object.Unref(kwdict)
	}

	n := len(args)
	if n > argcount {
		if !hasVarArgs {
			qualifier := "exactly"
			if len(defaults) > 0 {
				qualifier = "at most"
			}
			return argsErrorf(code, "takes %s %d argument%s (%d given)",
				qualifier, argcount, plural(argcount), len(args)+len(kwargs))
		}
		n = argcount
	}
	for i := 0; i < n; i++ {
		f.SetLocal(i, args[i])
	}
	if hasVarArgs {
		extra := object.NewTuple(args[n:]...)
		f.SetLocal(varargsSlot, extra)
		object.Unref(extra)
	}

	for _, kw := range kwargs {
		j := -1
		for i := 0; i < argcount; i++ {
			if code.VarName(i) == kw.Name {
				j = i
				break
			}
		}
		if j < 0 {
			if kwdict == nil {
				return argsErrorf(code, "got an unexpected keyword argument %q", kw.Name)
			}
			kwdict.SetItem(kw.Name, kw.Value)
			continue
		}
		if f.fast[j] != nil {
			return argsErrorf(code, "got multiple values for keyword argument %q", kw.Name)
		}
		f.SetLocal(j, kw.Value)
	}

	if len(args) < argcount {
		required := argcount - len(defaults)
		for i := len(args); i < required; i++ {
			if f.fast[i] == nil {
				given := 0
				for k := 0; k < argcount; k++ {
					if f.fast[k] != nil {
						given++
					}
				}
				qualifier := "exactly"
				if hasVarArgs || len(defaults) > 0 {
					qualifier = "at least"
				}
				return argsErrorf(code, "takes %s %d argument%s (%d given)",
					qualifier, required, plural(required), given)
			}
		}
		start := 0
		if len(args) > required {
			start = len(args) - required
		}
		for i := start; i < len(defaults); i++ {
			if f.fast[required+i] == nil {
				f.SetLocal(required+i, defaults[i])
			}
		}
	}

	nvars := code.VarCount()
	for i := 0; i < code.CellCount(); i++ {
		name := code.CellVar(i)
		for j := 0; j < nparams; j++ {
			if code.VarName(j) == name {
				f.fast[nvars+i].(*object.Cell).Set(f.fast[j])
				break
			}
		}
	}
	return nil
}

// installClosure stores the closure cells in the free variable slots.
func (f *Frame) installClosure(closure *object.Tuple) error {
	code := f.code
	nfree := code.FreeCount()
	if closure == nil || closure.Len() == 0 {
		if nfree > 0 {
			return errz.Errorf(errz.ErrSystem, "%s requires %d closure cells", code.Name(), nfree)
		}
		return nil
	}
	if closure.Len() != nfree {
		return errz.Errorf(errz.ErrSystem, "%s requires %d closure cells (%d given)",
			code.Name(), nfree, closure.Len())
	}
	base := code.VarCount() + code.CellCount()
	for i, item := range closure.Items() {
		cell, ok := item.(*object.Cell)
		if !ok {
			return errz.Errorf(errz.ErrType, "closure of %s holds %s, not cell", code.Name(), item.Type())
		}
		f.SetLocal(base+i, cell)
	}
	return nil
}
