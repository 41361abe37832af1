package dispatcher

import (
	"github.com/lookbusy1344/basic6502/basic"
	"github.com/lookbusy1344/basic6502/eval"
	"github.com/lookbusy1344/basic6502/vm"
)

// machineAdapter implements eval.Machine by bridging to the dispatcher's
// *vm.Machine and Console, the seam spec §9 names as free to cross package
// boundaries however is convenient: eval never imports vm, so dispatcher
// owns the glue in one place.
type machineAdapter struct {
	d *Dispatcher
}

func (d *Dispatcher) adapter() eval.Machine { return machineAdapter{d} }

func (a machineAdapter) Variable(name string, isString bool) (eval.Value, error) {
	addr, err := a.d.M.Vars.Lookup(name, isString)
	if err != nil {
		return eval.Value{}, err
	}
	v := a.d.M.Vars.Get(addr)
	a.d.M.VarTrace.RecordRead(a.d.M.NextSequence(), a.d.currentLineNumber(), name, v)
	return eval.Value{IsString: v.Kind == vm.KindString, Num: v.Num, Str: v.Str}, nil
}

func (a machineAdapter) ArrayElement(name string, isString bool, indices []int) (eval.Value, error) {
	header, err := a.d.M.Arrays.Ensure(name, isString, len(indices))
	if err != nil {
		return eval.Value{}, err
	}
	elemAddr, err := a.d.M.Arrays.ElementAddr(header, indices)
	if err != nil {
		return eval.Value{}, err
	}
	if isString {
		return eval.Value{IsString: true, Str: a.d.M.Arrays.GetString(elemAddr)}, nil
	}
	return eval.Value{Num: a.d.M.Arrays.GetNumber(elemAddr)}, nil
}

// CallUserFunction evaluates a DEF FN body with its parameter bound to arg.
// The parameter's prior value is saved and restored around the call so a
// recursive FN invocation (the function's body calling itself) never
// clobbers an outer, still-in-flight call's binding.
func (a machineAdapter) CallUserFunction(name string, arg eval.Value) (eval.Value, error) {
	fn, ok := a.d.fns[name]
	if !ok {
		return eval.Value{}, basic.New(basic.ErrUndefinedFunction, "")
	}
	if fn.isString != arg.IsString {
		return eval.Value{}, basic.New(basic.ErrTypeMismatch, "")
	}

	addr, err := a.d.M.Vars.Lookup(fn.param, fn.isString)
	if err != nil {
		return eval.Value{}, err
	}
	saved := a.d.M.Vars.Get(addr)
	if err := a.d.storeVar(addr, fn.isString, arg); err != nil {
		return eval.Value{}, err
	}
	defer func() {
		if saved.Kind == vm.KindString {
			length, ptr, _ := a.d.M.Strings.Intern(saved.Str)
			a.d.M.Vars.SetStringDescriptor(addr, length, ptr)
		} else {
			_ = a.d.M.Vars.SetNumber(addr, saved.Num)
		}
	}()

	v, consumed, err := eval.Eval(fn.body, a)
	if err != nil {
		return eval.Value{}, err
	}
	if consumed < len(fn.body) {
		return eval.Value{}, basic.New(basic.ErrSyntax, "")
	}
	return v, nil
}

func (a machineAdapter) Peek(addr uint16) byte { return a.d.M.Memory.PeekByte(addr) }

func (a machineAdapter) Rnd(x float64) float64 { return a.d.M.Random.Next(x) }

func (a machineAdapter) Fre() float64 {
	return float64(a.d.M.Memory.Pointer(vm.AddrFRETOP) - a.d.M.Memory.Pointer(vm.AddrSTREND))
}

func (a machineAdapter) Usr(arg float64) (float64, error) {
	if a.d.UsrHook == nil {
		return arg, nil
	}
	return a.d.UsrHook(arg)
}

func (a machineAdapter) OutputColumn() int { return a.d.Console.Column() }
