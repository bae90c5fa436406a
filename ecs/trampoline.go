package ecs

import "reflect"

// SystemContext is what a system's parameters are resolved against: the
// live Manager, the owning Scheduler (for events/state/relations), and
// this invocation's Commands buffer (spec.md §4.5/§4.6).
type SystemContext struct {
	Manager   *Manager
	Scheduler *Scheduler
	Commands  *Commands

	currentTrampoline *Trampoline
}

// ParamProvider resolves one system-parameter kind (spec.md §4.5). analyze
// reports whether this provider claims parameter type t; apply produces
// the argument value; deinit tears down any per-call state apply created.
//
// Grounded on the teacher's ecs/scheduler.go initializeQueries/
// executeQueries/invalidateQueries, which reflects over a system struct's
// fields looking for a type named with a "Query[" prefix and calling
// Init/Execute/invalidateCache by method name — generalized here from
// "only Query-shaped struct fields" to an open, ordered provider list
// dispatching on arbitrary function *parameter* types, because spec.md
// systems are plain functions, not structs with a fixed Execute method.
type ParamProvider interface {
	analyze(t reflect.Type) bool
	apply(ctx *SystemContext, t reflect.Type) (reflect.Value, error)
	deinit(ctx *SystemContext, t reflect.Type, v reflect.Value)
}

// ParamRegistry is the ordered list of providers consulted to resolve a
// system's parameters; first provider whose analyze succeeds wins.
type ParamRegistry struct {
	providers []ParamProvider
}

// NewParamRegistry creates an empty registry.
func NewParamRegistry() *ParamRegistry { return &ParamRegistry{} }

// Register appends p to the end of the provider list.
func (r *ParamRegistry) Register(p ParamProvider) {
	r.providers = append(r.providers, p)
}

func (r *ParamRegistry) providerFor(t reflect.Type) (ParamProvider, error) {
	for _, p := range r.providers {
		if p.analyze(t) {
			return p, nil
		}
	}
	return nil, UnknownSystemParamError{Type: t}
}

// Trampoline is the type-erased entry point for one registered system
// function: its parameter types are captured once at Build time, and
// each Run resolves fresh argument values from a SystemContext, invokes
// the function, then tears down in reverse parameter order (spec.md
// §4.5).
type Trampoline struct {
	fn       reflect.Value
	fnType   reflect.Type
	params   []reflect.Type
	registry *ParamRegistry
	locals   map[reflect.Type]reflect.Value
}

// Build captures fn's parameter types against r. fn must be a function
// value; every parameter type must be claimed by some registered
// provider at Run time or the call errors with UnknownSystemParamError.
func (r *ParamRegistry) Build(fn any) *Trampoline {
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		panicTrace(UnknownSystemParamError{Type: t})
	}
	params := make([]reflect.Type, t.NumIn())
	for i := range params {
		params[i] = t.In(i)
	}
	return &Trampoline{fn: v, fnType: t, params: params, registry: r, locals: make(map[reflect.Type]reflect.Value)}
}

type resolvedParam struct {
	provider ParamProvider
	typ      reflect.Type
	val      reflect.Value
}

// Run invokes the trampoline. injected supplies a leading prefix of
// argument values directly (used by pipe, where g's first parameter is
// f's return value) instead of resolving them from the registry; every
// remaining parameter is resolved via the registry against ctx.
func (tr *Trampoline) Run(ctx *SystemContext, injected ...reflect.Value) ([]reflect.Value, error) {
	if ctx == nil {
		return nil, SystemContextNullError{}
	}
	ctx.currentTrampoline = tr
	args := make([]reflect.Value, len(tr.params))
	copy(args, injected)

	var resolved []resolvedParam
	for i := len(injected); i < len(tr.params); i++ {
		p := tr.params[i]
		provider, err := tr.registry.providerFor(p)
		if err != nil {
			return nil, err
		}
		val, err := provider.apply(ctx, p)
		if err != nil {
			return nil, err
		}
		args[i] = val
		resolved = append(resolved, resolvedParam{provider: provider, typ: p, val: val})
	}

	out := tr.fn.Call(args)

	for i := len(resolved) - 1; i >= 0; i-- {
		resolved[i].provider.deinit(ctx, resolved[i].typ, resolved[i].val)
	}

	if len(out) > 0 {
		if errVal, ok := out[len(out)-1].Interface().(error); ok {
			return out, errVal
		}
	}
	return out, nil
}

// Pipe composes two trampolines: f runs first, and its first return
// value is supplied to g as g's leading injected argument (spec.md
// §4.5, "pipe(f, g)"). The returned func(*SystemContext) error is
// itself a valid system — its lone parameter, *SystemContext, is
// resolved by the built-in systemContextParamProvider — so the
// composition can be registered directly via Scheduler.AddSystem.
func Pipe(f, g *Trampoline) func(ctx *SystemContext) error {
	return func(ctx *SystemContext) error {
		out, err := f.Run(ctx)
		if err != nil {
			return err
		}
		var injected []reflect.Value
		if len(out) > 0 {
			injected = out[:1]
		}
		_, err = g.Run(ctx, injected...)
		return err
	}
}

// RunIf invokes sys only when pred (itself run through the registry)
// returns true (spec.md §4.5, "runIf(pred, sys)"). Like Pipe, the
// returned func(*SystemContext) error is schedulable via
// Scheduler.AddSystem.
func RunIf(pred, sys *Trampoline) func(ctx *SystemContext) error {
	return func(ctx *SystemContext) error {
		out, err := pred.Run(ctx)
		if err != nil {
			return err
		}
		if len(out) == 0 || out[0].Kind() != reflect.Bool || !out[0].Bool() {
			return nil
		}
		_, err = sys.Run(ctx)
		return err
	}
}
