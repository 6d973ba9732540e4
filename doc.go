// Package bookbdd runs behaviour-driven scenarios against a restful-booker
// style booking API in-process.
//
// Quick start against the public instance:
//
//	ctx := context.Background()
//	sum, err := bookbdd.Run(ctx, bookbdd.Options{
//		BaseURL:    "https://restful-booker.herokuapp.com",
//		Fixtures:   bookbdd.DefaultFixtures(),
//		BeforeAuth: true,
//		Contract:   true,
//	})
//
// Offline, against the in-memory twin:
//
//	srv := httptest.NewServer(bookbdd.NewTwin(nil))
//	defer srv.Close()
//	sum, err := bookbdd.Run(ctx, bookbdd.Options{BaseURL: srv.URL, Fixtures: bookbdd.DefaultFixtures()})
//
// Select scenarios with a godog tag expression and run them concurrently;
// every scenario gets its own session:
//
//	sum, err := bookbdd.Run(ctx, bookbdd.Options{
//		BaseURL:     srv.URL,
//		Fixtures:    bookbdd.DefaultFixtures(),
//		Tags:        "@create,@update",
//		Concurrency: 4,
//	})
//
// Observe a run through a sink:
//
//	opts.Sink = bookbdd.CloudEventSink{Deliver: func(ctx context.Context, e cloudevents.Event) error {
//		return client.Send(ctx, e)
//	}}
//
// Run returns the summary even when scenarios fail; the error then wraps
// ErrScenariosFailed. WriteReport renders a summary as JSON, JUnit or HTML.
package bookbdd
