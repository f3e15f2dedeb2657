package protocol

// JSON-RPC methods consumed by the bridge and served by gatetools.
const (
	RPCMethodInitialize = "initialize"
	RPCMethodToolsList  = "tools/list"
	RPCMethodToolsCall  = "tools/call"
	RPCMethodPing       = "ping"
)

// JSON-RPC 2.0 protocol error codes.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Transport failure codes. The bridge maps transport-level failures onto
// these so callers see one error vocabulary regardless of transport.
const (
	CodeUnauthorized     = -32001
	CodeEndpointNotFound = -32002
	CodeConnectionFailed = -32003
	CodeTimeout          = -32004
	CodeHTTPError        = -32005
	CodeDecodeFailure    = -32006
)

// ToolNameSearch is the bootstrap discovery tool. It is always present in the
// tool context and is the only tool that is never itself discovered.
const ToolNameSearch = "tool_search"

const (
	Version = "2024-11-05"

	DefaultGatewayURL  = "http://localhost:8080"
	DefaultMCPEndpoint = "http://localhost:8085/mcp"
	DefaultListenAddr  = "127.0.0.1:8085"
	DefaultMCPPath     = "/mcp"
	DefaultChatModel   = "openai/gpt-4.1"
)
