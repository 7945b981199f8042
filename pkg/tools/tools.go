// Package tools provides in-process implementations of the capability
// servers the workflow engine reaches through the gateway: security
// validation, document processing, the record store, and citation
// recording. Each server speaks the shared payload convention: success
// payloads carry a "status" of "success", business failures carry an
// "error" field and a "status" beginning "failure".
package tools

// failure builds a business-failure payload.
func failure(status, errMsg string) map[string]any {
	return map[string]any{"status": status, "error": errMsg}
}

// str pulls a string parameter, tolerating absence.
func str(params map[string]any, key string) string {
	s, _ := params[key].(string)
	return s
}
