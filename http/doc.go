// Package http is the network transport used by the peach request builder.
//
// It provides:
//   - A Transport interface describing the single operation the builder needs
//   - A net/http backed Client implementing it, configured with functional options
//   - A Response type that buffers the body and decodes it as JSON on demand
//   - Typed errors separating cancellation from other transport failures
//
// Basic Usage:
//
//	client := http.NewClient(
//	    http.WithTimeout(30*time.Second),
//	    http.WithHeader("Authorization", "Bearer token"),
//	)
//
//	u, _ := url.Parse("https://api.example.com/users?limit=10")
//	resp, err := client.Fetch(ctx, u, http.Init{Method: "GET"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	value, err := resp.JSON()
//
// Cancellation:
//
// Fetch honours the supplied context. When the context is cancelled the
// returned error is a *CancelledError and errors.Is(err, ErrCancelled) holds;
// every other failure is a *TransportError and errors.Is(err, ErrTransport)
// holds.
//
// Thread Safety:
//
// Client is safe for concurrent use. Multiple goroutines may invoke Fetch
// simultaneously.
package http
