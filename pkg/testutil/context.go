package testutil

import (
	"context"
	"time"

	"refdata/pkg/requestcontext"
)

// RequestContext returns a context carrying what the HTTP middleware would
// set: a request id, a subject and a fixed request time.
func RequestContext(requestID, subject string, now time.Time) context.Context {
	ctx := requestcontext.WithRequestID(context.Background(), requestID)
	ctx = requestcontext.WithSubject(ctx, subject)
	return requestcontext.WithTime(ctx, now)
}
