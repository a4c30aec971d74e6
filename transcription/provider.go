package transcription

import (
	"github.com/kbukum/dictate/provider"
)

// Provider is implemented by every transcription backend. Backends holding
// a model or a sidecar also implement provider.Initializable and
// provider.Closeable; the daemon calls them once at boot and at shutdown.
type Provider = provider.RequestResponse[Request, *Response]
