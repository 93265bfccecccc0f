// Package providers contains dependency injection providers for all services.
package providers

import "time"

// shutdownTimeout bounds graceful shutdown of each service.
const shutdownTimeout = 10 * time.Second
