package reqctx

import (
	"context"
	"testing"
)

func TestRequestContext(t *testing.T) {
	ctx := context.Background()
	if RequestID(ctx) != "" || UID(ctx) != "" {
		t.Fatalf("expected empty values on bare context")
	}
	ctx = WithUID(WithRequestID(ctx, "rid-1"), "user-1")
	if got := RequestID(ctx); got != "rid-1" {
		t.Fatalf("RequestID = %q", got)
	}
	if got := UID(ctx); got != "user-1" {
		t.Fatalf("UID = %q", got)
	}
}
