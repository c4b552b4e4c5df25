// Package scripting implements the Script VM Manager (C9): one Lua VM per
// mod package, a reflective dynamic-property bridge, and the
// inject_dynamic context wrapper, per spec.md §4.8.
//
// Grounded on louisbranch-fracturing.space's lua_binding_test.go for the
// github.com/Shopify/go-lua registration idiom (NewMetaTable/SetFunctions/
// RegistryFunction, userdata round-tripping via table-to-map conversion),
// and on original_source/lua_api/battle_api/*.rs for the
// ordered-dynamic-property-list dispatch shape (see DESIGN.md, §6 note on
// C9): script tables rarely carry more than a dozen dynamic members, so an
// ordered slice scanned linearly keeps iteration order host-controlled
// without a second sort pass.
package scripting

import (
	lua "github.com/Shopify/go-lua"
	"github.com/pkg/errors"
)

// NamespaceKind selects which package pool a VM belongs to, per spec.md
// §4.8's fallback chain: Remote(idx) → Server → Local.
type NamespaceKind int

const (
	NamespaceBuiltIn NamespaceKind = iota
	NamespaceLocal
	NamespaceServer
	NamespaceRemote
)

// Namespace identifies one of a package's VM pools. RemoteIndex only
// applies when Kind == NamespaceRemote (one pool per connected peer).
type Namespace struct {
	Kind        NamespaceKind
	RemoteIndex int
}

func (n Namespace) String() string {
	switch n.Kind {
	case NamespaceBuiltIn:
		return "builtin"
	case NamespaceLocal:
		return "local"
	case NamespaceServer:
		return "server"
	case NamespaceRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// ScriptError wraps an error raised during a Lua call, identifying the
// package/VM/call site it came from, per SPEC_FULL.md §9's mapping of
// spec.md's ScriptError taxonomy entry.
type ScriptError struct {
	Package  string
	VMIndex  Namespace
	CallSite string
	Err      error
}

func (e *ScriptError) Error() string {
	return "script error in " + e.Package + " [" + e.VMIndex.String() + "] at " + e.CallSite + ": " + e.Err.Error()
}

func (e *ScriptError) Unwrap() error { return e.Err }

// VM is one Lua state bound to exactly one (package, namespace) pair.
type VM struct {
	State     *lua.State
	Package   string
	Namespace Namespace

	// ctxStack is the nestable per-thread context stack written by
	// InjectDynamic, read by dynamic-property getters/setters.
	ctxStack []any
}

// pushContext/popContext implement the nesting inject_dynamic relies on.
func (vm *VM) pushContext(ctx any) { vm.ctxStack = append(vm.ctxStack, ctx) }
func (vm *VM) popContext()         { vm.ctxStack = vm.ctxStack[:len(vm.ctxStack)-1] }

// Context returns the innermost active dynamic-call context, or
// (nil, false) outside of any InjectDynamic call.
func (vm *VM) Context() (any, bool) {
	if len(vm.ctxStack) == 0 {
		return nil, false
	}
	return vm.ctxStack[len(vm.ctxStack)-1], true
}

type vmKey struct {
	pkg string
	ns  Namespace
}

// Manager owns every loaded VM, keyed by (package_id, namespace), plus the
// registered dynamic-property tables shared by all of them.
type Manager struct {
	vms   map[vmKey]*VM
	order []vmKey // insertion order, for deterministic Each

	dynamicTables map[string]*DynamicTable
}

// NewManager creates an empty script VM manager.
func NewManager() *Manager {
	return &Manager{
		vms:           make(map[vmKey]*VM),
		dynamicTables: make(map[string]*DynamicTable),
	}
}

// Load creates a fresh Lua VM for (packageID, ns), opens the standard
// libraries, registers the bridge's metatables, and runs entryLua as the
// package's entry chunk. Replaces any existing VM for the same key.
func (m *Manager) Load(packageID string, ns Namespace, entryLua string) (*VM, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)

	vm := &VM{State: state, Package: packageID, Namespace: ns}
	registerBridge(state, vm, m)

	if err := lua.LoadString(state, entryLua); err != nil {
		return nil, errors.Wrapf(err, "load package %s [%s]", packageID, ns)
	}
	if err := state.ProtectedCall(0, 0, 0); err != nil {
		return nil, errors.Wrapf(err, "run package %s [%s] entry chunk", packageID, ns)
	}

	key := vmKey{pkg: packageID, ns: ns}
	if _, existed := m.vms[key]; !existed {
		m.order = append(m.order, key)
	}
	m.vms[key] = vm
	return vm, nil
}

// Get returns the VM exactly at (packageID, ns), with no fallback.
func (m *Manager) Get(packageID string, ns Namespace) (*VM, bool) {
	vm, ok := m.vms[vmKey{pkg: packageID, ns: ns}]
	return vm, ok
}

// Resolve walks spec.md §4.8's fallback chain for packageID: prefer the
// remote VM for remoteIndex if present, else the server VM, else the local
// VM. Returns (nil, false) if none of the three exist.
func (m *Manager) Resolve(packageID string, remoteIndex int) (*VM, bool) {
	if vm, ok := m.vms[vmKey{pkg: packageID, ns: Namespace{Kind: NamespaceRemote, RemoteIndex: remoteIndex}}]; ok {
		return vm, true
	}
	if vm, ok := m.vms[vmKey{pkg: packageID, ns: Namespace{Kind: NamespaceServer}}]; ok {
		return vm, true
	}
	if vm, ok := m.vms[vmKey{pkg: packageID, ns: Namespace{Kind: NamespaceLocal}}]; ok {
		return vm, true
	}
	return nil, false
}

// Each visits every loaded VM in deterministic load order.
func (m *Manager) Each(fn func(*VM)) {
	for _, key := range m.order {
		if vm, ok := m.vms[key]; ok {
			fn(vm)
		}
	}
}

// InjectDynamic runs fn with ctx pushed as vm's innermost dynamic-call
// context, restoring the prior context (if any) on return, per spec.md
// §4.8's inject_dynamic. Nestable: a callback invoked from within fn may
// itself call InjectDynamic again.
func InjectDynamic(vm *VM, ctx any, fn func()) {
	vm.pushContext(ctx)
	defer vm.popContext()
	fn()
}

// DynamicProperty is one reflective __index/__newindex entry.
type DynamicProperty struct {
	Key    string
	Get    func(vm *VM) (any, bool)
	Set    func(vm *VM, value any) bool
}

// DynamicTable is the ordered list of dynamic members exposed on one
// script-visible table path (e.g. "battle.field", "entity.living").
// Kept as a slice, not a map, so __index/__newindex dispatch and any
// iteration over it is host-controlled and stable across runs (spec.md
// §4.8's determinism constraint).
type DynamicTable struct {
	Path  string
	Props []DynamicProperty
}

// RegisterDynamic adds or replaces the property named key on the table
// identified by path, preserving existing ordering for unrelated keys and
// appending new ones at the end.
func (m *Manager) RegisterDynamic(path, key string, get func(vm *VM) (any, bool), set func(vm *VM, value any) bool) {
	t, ok := m.dynamicTables[path]
	if !ok {
		t = &DynamicTable{Path: path}
		m.dynamicTables[path] = t
	}
	for i := range t.Props {
		if t.Props[i].Key == key {
			t.Props[i].Get = get
			t.Props[i].Set = set
			return
		}
	}
	t.Props = append(t.Props, DynamicProperty{Key: key, Get: get, Set: set})
}

// LookupDynamic resolves a (path, key) pair through the ordered property
// list, returning (value, true) only if a getter is registered and
// succeeds.
func (m *Manager) LookupDynamic(vm *VM, path, key string) (any, bool) {
	t, ok := m.dynamicTables[path]
	if !ok {
		return nil, false
	}
	for _, p := range t.Props {
		if p.Key == key && p.Get != nil {
			return p.Get(vm)
		}
	}
	return nil, false
}

// SetDynamic resolves a (path, key) write through the ordered property
// list, reporting whether a setter accepted it.
func (m *Manager) SetDynamic(vm *VM, path, key string, value any) bool {
	t, ok := m.dynamicTables[path]
	if !ok {
		return false
	}
	for _, p := range t.Props {
		if p.Key == key && p.Set != nil {
			return p.Set(vm, value)
		}
	}
	return false
}

// CallbackKind distinguishes a host-native callback from one backed by a
// script function, per spec.md §4.8's BattleCallback tagged union.
type CallbackKind int

const (
	CallbackNative CallbackKind = iota
	CallbackScripted
)

// Callback is a tagged union: either a native Go function, or a reference
// to a global-scoped Lua function on a specific VM. Scripted callbacks are
// looked up by name each call rather than cached by Lua reference, since
// packages may redefine their own globals between calls (e.g. hot-swapped
// mod packages under test tooling).
type Callback struct {
	Kind CallbackKind

	Native func(args ...any) ([]any, error)

	VM         *VM
	GlobalName string
}

// Invoke runs cb with args, returning its results. Scripted invocations are
// wrapped into a ScriptError on failure and never propagate a Lua panic
// across the call boundary (spec.md §7: script errors are caught at the
// VM boundary, logged, and degrade to a zero-value result).
func (m *Manager) Invoke(cb Callback, callSite string, args ...any) ([]any, error) {
	if cb.Kind == CallbackNative {
		if cb.Native == nil {
			return nil, nil
		}
		return cb.Native(args...)
	}

	vm := cb.VM
	if vm == nil {
		return nil, errors.New("scripted callback has no bound VM")
	}

	state := vm.State
	state.Global(cb.GlobalName)
	if state.TypeOf(-1) != lua.TypeFunction {
		state.Pop(1)
		return nil, nil
	}

	for _, a := range args {
		pushValue(state, a)
	}

	if err := state.ProtectedCall(len(args), lua.MultipleReturns, 0); err != nil {
		state.Pop(1)
		return nil, &ScriptError{Package: vm.Package, VMIndex: vm.Namespace, CallSite: callSite, Err: err}
	}

	top := state.Top()
	results := make([]any, 0, top)
	for i := 1; i <= top; i++ {
		results = append(results, pullValue(state, i))
	}
	state.Pop(top)
	return results, nil
}

func pushValue(state *lua.State, v any) {
	switch t := v.(type) {
	case nil:
		state.PushNil()
	case bool:
		state.PushBoolean(t)
	case int:
		state.PushInteger(t)
	case int64:
		state.PushInteger(int(t))
	case float64:
		state.PushNumber(t)
	case string:
		state.PushString(t)
	default:
		state.PushUserData(v)
	}
}

func pullValue(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeNil:
		return nil
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeNumber:
		n, _ := state.ToNumber(index)
		return n
	case lua.TypeString:
		s, _ := state.ToString(index)
		return s
	case lua.TypeUserData:
		return state.ToUserData(index)
	default:
		return nil
	}
}

// registerBridge installs the reflective __index/__newindex metatable
// bridge that routes script table reads/writes for the "battle" global
// through the manager's dynamic-property tables.
func registerBridge(state *lua.State, vm *VM, m *Manager) {
	const battleTypeName = "battle_bridge"

	lua.NewMetaTable(state, battleTypeName)

	state.PushGoFunction(func(l *lua.State) int {
		path, key := bridgePathKey(l)
		if v, ok := m.LookupDynamic(vm, path, key); ok {
			pushValue(l, v)
			return 1
		}
		l.PushNil()
		return 1
	})
	state.SetField(-2, "__index")

	state.PushGoFunction(func(l *lua.State) int {
		path, key := bridgePathKey(l)
		value := pullValue(l, 3)
		m.SetDynamic(vm, path, key, value)
		return 0
	})
	state.SetField(-2, "__newindex")

	state.Pop(1)

	state.NewTable()
	lua.SetMetaTableNamed(state, battleTypeName)
	state.SetGlobal("battle")
}

// bridgePathKey extracts the (path, key) pair from a __index/__newindex
// call: the bridge table itself carries its own path in a hidden field so
// nested sub-tables (battle.field, battle.entity, ...) each resolve to a
// distinct dynamic-property path.
func bridgePathKey(l *lua.State) (string, string) {
	key, _ := l.ToString(2)
	path := "battle"
	if l.TypeOf(1) == lua.TypeTable {
		l.PushString("__path")
		l.RawGet(1)
		if p, ok := l.ToString(-1); ok && p != "" {
			path = p
		}
		l.Pop(1)
	}
	return path, key
}
