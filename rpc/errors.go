package rpc

import "github.com/gorilla/rpc/v2/json2"

// CallExecutionFailedCode is the single error code every RPC failure
// surfaces under; the human-readable kind (Duplicate, BadHex, ...) lives
// in Message and the root cause in Data, matching the two-field error
// shape (message plus a data string carrying root cause) rather than a
// single opaque string.
const CallExecutionFailedCode json2.ErrorCode = -32000

func callFailed(kind string, cause error) *json2.Error {
	data := ""
	if cause != nil {
		data = cause.Error()
	}
	return &json2.Error{
		Code:    CallExecutionFailedCode,
		Message: kind,
		Data:    data,
	}
}
