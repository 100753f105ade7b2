package utils

import (
	"fmt"
	"strings"
)

// AddToLogMessage appends one entry to a request log
func AddToLogMessage(logMessagesBuilder *strings.Builder, strToAdd string) {
	if logMessagesBuilder.Len() == logMessagesBuilder.Cap() {
		logMessagesBuilder.Grow(len(strToAdd))
	}

	logMessagesBuilder.WriteString(strToAdd)
	logMessagesBuilder.WriteString(";")
	logMessagesBuilder.WriteString("\n")
}

// NewRequestLog starts a request log with the API tag, e.g. "[Login API]",
// and the request id when there is one.
func NewRequestLog(tag, requestID string) *strings.Builder {
	var b strings.Builder
	if requestID != "" {
		AddToLogMessage(&b, fmt.Sprintf("%s request_id=%s", tag, requestID))
	} else {
		AddToLogMessage(&b, tag)
	}
	return &b
}
