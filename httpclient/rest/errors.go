package rest

import "github.com/bleitz/meditai/httpclient"

// IsNotFound reports a 404.
func IsNotFound(err error) bool { return httpclient.IsNotFound(err) }

// IsAuth reports a 401/403.
func IsAuth(err error) bool { return httpclient.IsAuth(err) }

// IsRateLimit reports a 429.
func IsRateLimit(err error) bool { return httpclient.IsRateLimit(err) }

// IsRetryable reports whether another attempt may succeed.
func IsRetryable(err error) bool { return httpclient.IsRetryable(err) }
