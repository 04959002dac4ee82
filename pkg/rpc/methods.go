package rpc

// JSON-RPC method names used against a cluster endpoint.
const (
	methodGetVoteAccounts       = "getVoteAccounts"
	methodGetEpochInfo          = "getEpochInfo"
	methodGetBalance            = "getBalance"
	methodGetClusterNodes       = "getClusterNodes"
	jsonRPCVersion              = "2.0"
	requestID                   = 1
	maxResponseBytes      int64 = 64 << 20
)
