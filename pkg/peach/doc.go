// Package peach builds and dispatches single JSON HTTP requests through a
// fluent chain.
//
// A Client holds the immutable configuration (base URL, timeout, default
// headers) and the cancellation registry. Every chain call returns a new
// Request value, so a Request can be kept as a template and reused without
// leaking method, body or URL state into unrelated requests.
//
// Basic Usage:
//
//	client := peach.New(
//	    peach.WithBaseURL("https://api.example.com"),
//	    peach.WithTimeout(10*time.Second),
//	    peach.WithHeader("Authorization", "Bearer token"),
//	)
//
//	name, err := client.Path("heros/1").Get(ctx, "data.name")
//
// Query Parameters:
//
// Query keys are serialized in alphabetical order and falsy values are
// dropped, so both of these request the same URL:
//
//	client.Query(query.Params{"limit": 1, "fields": []string{"name", "last"}})
//	// https://api.example.com/?fields=name%2Clast&limit=1
//
// Cancellation:
//
// Cancellable arms a key scoped to the current URL. Arming the same key
// again cancels the earlier request before the new one is issued:
//
//	search := client.Path("search").Query(query.Params{"q": term}).Cancellable("search")
//	results, err := search.Get(ctx)
//	if peach.IsCancelled(err) {
//	    // a newer search replaced this one
//	}
//
// Transforms:
//
// Transform installs a post-processing function applied to the decoded
// body before any key extraction. Passing nil restores the identity.
package peach
