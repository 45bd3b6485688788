package testutil

// Wasm value types and opcodes used by the test modules.
const (
	WasmI32 byte = 0x7F
	WasmF64 byte = 0x7C

	OpCall     byte = 0x10
	OpEnd      byte = 0x0B
	OpLocalGet byte = 0x20
	OpGlobGet  byte = 0x23
	OpGlobSet  byte = 0x24
	OpI32Load  byte = 0x28
	OpI32Store byte = 0x36
	OpI32Const byte = 0x41
	OpI32Add   byte = 0x6A
	OpI32And   byte = 0x71
)

// WasmFunc is a function defined by a WasmModule.
type WasmFunc struct {
	Name    string // export name, empty to keep it private
	Params  []byte
	Results []byte
	Body    []byte // instructions without the trailing end
}

// WasmImport is a function imported by a WasmModule.
type WasmImport struct {
	Module  string
	Name    string
	Params  []byte
	Results []byte
}

// WasmData is an active data segment of memory 0.
type WasmData struct {
	Offset int32
	Bytes  []byte
}

// WasmModule is a tiny wasm binary assembler for guests used in tests. The
// module has one memory exported as "memory" and, when HeapBase is set, one
// mutable i32 global initialised to it.
type WasmModule struct {
	Imports     []WasmImport
	Funcs       []WasmFunc
	Data        []WasmData
	MemoryPages uint32
	HeapBase    int32
}

// Uleb encodes v as unsigned LEB128.
func Uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}

// Sleb encodes v as signed LEB128.
func Sleb(v int32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

// I32Const encodes an i32.const instruction.
func I32Const(v int32) []byte {
	return append([]byte{OpI32Const}, Sleb(v)...)
}

// Call encodes a call instruction.
func Call(index uint32) []byte {
	return append([]byte{OpCall}, Uleb(index)...)
}

// LocalGet encodes a local.get instruction.
func LocalGet(index uint32) []byte {
	return append([]byte{OpLocalGet}, Uleb(index)...)
}

// Ops concatenates instruction encodings.
func Ops(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func wasmName(s string) []byte {
	return append(Uleb(uint32(len(s))), s...)
}

func wasmVec(n int, items []byte) []byte {
	return append(Uleb(uint32(n)), items...)
}

func wasmSection(id byte, payload []byte) []byte {
	out := []byte{id}
	out = append(out, Uleb(uint32(len(payload)))...)
	return append(out, payload...)
}

func funcType(params, results []byte) []byte {
	out := []byte{0x60}
	out = append(out, wasmVec(len(params), params)...)
	return append(out, wasmVec(len(results), results)...)
}

// Bytes assembles the module. Function indices count imports first, so
// the first defined function has index len(Imports).
func (m *WasmModule) Bytes() []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

	var types []byte
	nTypes := 0
	for _, imp := range m.Imports {
		types = append(types, funcType(imp.Params, imp.Results)...)
		nTypes++
	}
	for _, f := range m.Funcs {
		types = append(types, funcType(f.Params, f.Results)...)
		nTypes++
	}
	out = append(out, wasmSection(1, wasmVec(nTypes, types))...)

	if len(m.Imports) > 0 {
		var imports []byte
		for i, imp := range m.Imports {
			imports = append(imports, wasmName(imp.Module)...)
			imports = append(imports, wasmName(imp.Name)...)
			imports = append(imports, 0x00)
			imports = append(imports, Uleb(uint32(i))...)
		}
		out = append(out, wasmSection(2, wasmVec(len(m.Imports), imports))...)
	}

	var funcs []byte
	for i := range m.Funcs {
		funcs = append(funcs, Uleb(uint32(len(m.Imports)+i))...)
	}
	out = append(out, wasmSection(3, wasmVec(len(m.Funcs), funcs))...)

	pages := m.MemoryPages
	if pages == 0 {
		pages = 1
	}
	out = append(out, wasmSection(5, wasmVec(1, append([]byte{0x00}, Uleb(pages)...)))...)

	if m.HeapBase != 0 {
		global := []byte{WasmI32, 0x01}
		global = append(global, I32Const(m.HeapBase)...)
		global = append(global, OpEnd)
		out = append(out, wasmSection(6, wasmVec(1, global))...)
	}

	var exports []byte
	nExports := 1
	exports = append(exports, wasmName("memory")...)
	exports = append(exports, 0x02, 0x00)
	for i, f := range m.Funcs {
		if f.Name == "" {
			continue
		}
		exports = append(exports, wasmName(f.Name)...)
		exports = append(exports, 0x00)
		exports = append(exports, Uleb(uint32(len(m.Imports)+i))...)
		nExports++
	}
	out = append(out, wasmSection(7, wasmVec(nExports, exports))...)

	var code []byte
	for _, f := range m.Funcs {
		body := append([]byte{0x00}, f.Body...)
		body = append(body, OpEnd)
		code = append(code, Uleb(uint32(len(body)))...)
		code = append(code, body...)
	}
	out = append(out, wasmSection(10, wasmVec(len(m.Funcs), code))...)

	if len(m.Data) > 0 {
		var data []byte
		for _, d := range m.Data {
			data = append(data, 0x00)
			data = append(data, I32Const(d.Offset)...)
			data = append(data, OpEnd)
			data = append(data, wasmVec(len(d.Bytes), d.Bytes)...)
		}
		out = append(out, wasmSection(11, wasmVec(len(m.Data), data))...)
	}
	return out
}
