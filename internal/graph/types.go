package graph

type NodeKind string

const (
	KindContext        NodeKind = "context"
	KindContextVar     NodeKind = "context_var"
	KindFunction       NodeKind = "function"
	KindFunctionParam  NodeKind = "function_param"
	KindFunctionReturn NodeKind = "function_return"
	KindContract       NodeKind = "contract"
	KindBuiltin        NodeKind = "builtin"
	KindConcrete       NodeKind = "concrete"
)

type EdgeKind string

// Context-graph edges.
const (
	// ctx -> function it analyzes
	EdgeContext EdgeKind = "context"
	// child ctx -> parent ctx
	EdgeSubcontext   EdgeKind = "subcontext"
	EdgeContextFork  EdgeKind = "context_fork"
	EdgeContextMerge EdgeKind = "context_merge"
	EdgeCall         EdgeKind = "call"

	// var -> owning ctx
	EdgeVariable          EdgeKind = "variable"
	EdgeInheritedVariable EdgeKind = "inherited_variable"

	EdgeAttrAccess EdgeKind = "attr_access"
	// index value -> access
	EdgeIndex EdgeKind = "index"
	// access -> array
	EdgeIndexAccess EdgeKind = "index_access"
	EdgeFuncAccess  EdgeKind = "func_access"

	EdgeAssign        EdgeKind = "assign"
	EdgeStorageAssign EdgeKind = "storage_assign"
	EdgeMemoryAssign  EdgeKind = "memory_assign"
	// new version -> previous version
	EdgePrev EdgeKind = "prev"
	// returned var -> ctx
	EdgeReturn EdgeKind = "return"
	EdgeRange  EdgeKind = "range"
)

// Declaration edges.
const (
	EdgeFunctionParam  EdgeKind = "function_param"
	EdgeFunctionReturn EdgeKind = "function_return"
	// function -> contract
	EdgeFunc EdgeKind = "func"
)
