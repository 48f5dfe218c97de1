package ffi

// Library is the foreign call set the safe layer depends on. Every method is
// a thin, unchecked entry point: passing a disposed reference, or mixing
// references from different contexts, is undefined behaviour as far as the
// caller is concerned.
type Library interface {
	// Process-wide state.
	GetGlobalPassRegistry() PassRegistryRef
	InitializeCore(PassRegistryRef)
	Shutdown()
	StartMultithreaded() Bool
	StopMultithreaded()
	IsMultithreaded() Bool

	// Contexts.
	ContextCreate() ContextRef
	ContextDispose(ContextRef)
	GetMDKindIDInContext(ctx ContextRef, name []byte, length uint32) uint32

	// Types.
	IntTypeInContext(ctx ContextRef, bits uint32) TypeRef
	VoidTypeInContext(ctx ContextRef) TypeRef
	FunctionType(ret TypeRef, params []TypeRef, count uint32, variadic Bool) TypeRef
	StructCreateNamed(ctx ContextRef, name CString) TypeRef
	GetTypeContext(ty TypeRef) ContextRef

	// Modules.
	ModuleCreateWithNameInContext(name CString, ctx ContextRef) ModuleRef
	DisposeModule(ModuleRef)
	GetModuleContext(ModuleRef) ContextRef
	GetDataLayout(ModuleRef) CString
	SetDataLayout(m ModuleRef, layout CString)
	GetTarget(ModuleRef) CString
	SetTarget(m ModuleRef, triple CString)
	SetModuleInlineAsm(m ModuleRef, asm CString)
	GetTypeByName(m ModuleRef, name CString) TypeRef

	// PrintModuleToFile returns False on success. On failure *errMsg is set
	// to a message that the caller must release with DisposeMessage.
	PrintModuleToFile(m ModuleRef, filename CString, errMsg *MessageRef) Bool
	// PrintModuleToString returns a message the caller must release.
	PrintModuleToString(ModuleRef) MessageRef

	// Named metadata.
	GetNamedMetadataNumOperands(m ModuleRef, name CString) uint32
	// GetNamedMetadataOperands fills dest, which must hold at least
	// GetNamedMetadataNumOperands elements.
	GetNamedMetadataOperands(m ModuleRef, name CString, dest []ValueRef)
	AddNamedMetadataOperand(m ModuleRef, name CString, val ValueRef)

	// Metadata values.
	MDStringInContext(ctx ContextRef, str []byte, length uint32) ValueRef
	MDNodeInContext(ctx ContextRef, vals []ValueRef, count uint32) ValueRef

	// Functions and globals.
	AddFunction(m ModuleRef, name CString, fnType TypeRef) ValueRef
	GetNamedFunction(m ModuleRef, name CString) ValueRef
	GetFirstFunction(ModuleRef) ValueRef
	GetNextFunction(fn ValueRef) ValueRef
	AddGlobal(m ModuleRef, ty TypeRef, name CString) ValueRef
	GetValueName(v ValueRef) CString
	TypeOf(v ValueRef) TypeRef

	// Messages.
	MessageBytes(MessageRef) CString
	DisposeMessage(MessageRef)
}
