// utils/http.go
package utils

import (
	"net/http"
	"time"
)

// NewHTTPClient returns a client whose Timeout bounds one whole request attempt.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}
