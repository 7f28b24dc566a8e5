// utils/http.go
package utils

import (
	"net/http"
	"time"
)

// HTTPClient is shared by the oracle client and relay poller.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}
