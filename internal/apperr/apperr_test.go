package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfUnwrapsThroughWrapping(t *testing.T) {
	t.Parallel()

	base := NotFound("article %d not found", 42)
	wrapped := fmt.Errorf("load article: %w", base)

	if KindOf(wrapped) != KindNotFound {
		t.Fatalf("kind lost through wrapping: %v", KindOf(wrapped))
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Fatal("foreign error classified")
	}
	if KindOf(nil) != KindUnknown {
		t.Fatal("nil error classified")
	}
}

func TestTransportUnwrapsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := Transport(cause, "call provider")

	if !errors.Is(err, cause) {
		t.Fatal("cause not reachable through Unwrap")
	}
	if err.Error() != "transport: call provider: connection refused" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestRawOfKeepsContractPayload(t *testing.T) {
	t.Parallel()

	err := Contract(`{"oops": true}`, "bad shape")
	if RawOf(err) != `{"oops": true}` {
		t.Fatalf("raw payload lost: %q", RawOf(err))
	}
	if RawOf(Validation("x")) != "" {
		t.Fatal("non-contract error carries raw payload")
	}
}
