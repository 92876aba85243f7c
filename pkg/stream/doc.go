// Package stream maintains a long-lived Server-Sent Events connection to the
// mission service and republishes decoded mission events.
//
// A [Client] owns at most one connection attempt at a time. Connect opens
// the stream when the session provider reports an authenticated session;
// arriving chunks are split into frames, decoded into event.StreamEvent
// values and broadcast to subscribers. When the stream ends or fails the
// client moves to Disconnected and, while the session stays authenticated,
// schedules one reconnect after the backoff delay (a fixed 3 seconds by
// default). Disconnect tears the attempt down and cancels any pending
// reconnect.
//
// Malformed frames, unknown event types and transport failures never reach
// subscribers. Observe them through [EventHandler] or [Metrics].
//
// # Usage
//
//	sess := session.NewStatic(token)
//	client, err := stream.New("https://api.example.com", sess,
//	    stream.WithLogger(logger),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	sub := client.Subscribe()
//	defer sub.Close()
//	client.Connect(ctx)
//
//	for ev := range sub.Events() {
//	    switch ev.Kind {
//	    case event.KindCreated, event.KindUpdated:
//	        upsert(ev.Record)
//	    case event.KindDeleted:
//	        remove(ev.RecordID)
//	    }
//	}
//
// The server provides no resume token, so events emitted while the client
// is reconnecting are lost. Owners that need a consistent view should
// refetch when EventHandler.OnStateChange reports a return to Streaming.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package stream
