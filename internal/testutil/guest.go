package testutil

import "encoding/binary"

// Layout of the guest built by GuestBundle.
const (
	guestRecordAddr = 256
	guestAPIAddr    = 300
	guestIDAddr     = 340
	guestHeapBase   = 4096
)

// GuestBundle assembles a wasm bundle with one image effect plugin named
// id, version 1.0. Its main entry answers every action with status and its
// allocator is a bump allocator that never frees.
func GuestBundle(id string, status int32) []byte {
	rec := make([]byte, 20)
	for i, w := range []uint32{guestAPIAddr, 1, guestIDAddr, 1, 0} {
		binary.LittleEndian.PutUint32(rec[4*i:], w)
	}
	i32 := WasmI32
	m := WasmModule{
		Funcs: []WasmFunc{
			{Name: "OfxGetNumberOfPlugins", Results: []byte{i32}, Body: I32Const(1)},
			{Name: "OfxGetPlugin", Params: []byte{i32}, Results: []byte{i32}, Body: I32Const(guestRecordAddr)},
			{Name: "OfxPluginSetHost", Params: []byte{i32, i32}},
			{Name: "OfxPluginMainEntry", Params: []byte{i32, i32, i32, i32, i32}, Results: []byte{i32}, Body: I32Const(status)},
			{Name: "allocate", Params: []byte{i32}, Results: []byte{i32}, Body: Ops(
				[]byte{OpGlobGet, 0x00},
				[]byte{OpGlobGet, 0x00},
				LocalGet(0), I32Const(7), []byte{OpI32Add},
				I32Const(-8), []byte{OpI32And},
				[]byte{OpI32Add},
				[]byte{OpGlobSet, 0x00},
			)},
			{Name: "deallocate", Params: []byte{i32}},
		},
		Data: []WasmData{
			{Offset: guestRecordAddr, Bytes: rec},
			{Offset: guestAPIAddr, Bytes: []byte("OfxImageEffectPluginAPI\x00")},
			{Offset: guestIDAddr, Bytes: append([]byte(id), 0)},
		},
		MemoryPages: 2,
		HeapBase:    guestHeapBase,
	}
	return m.Bytes()
}
