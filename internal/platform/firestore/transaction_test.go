package firestore

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
)

func TestTxOptionsApply(t *testing.T) {
	settings := txSettings{attempts: defaultTxAttempts, timeout: defaultTxTimeout}

	WithTxAttempts(3)(&settings)
	WithTxTimeout(10 * time.Second)(&settings)
	if settings.attempts != 3 || settings.timeout != 10*time.Second {
		t.Fatalf("settings = %+v", settings)
	}

	// Non-positive values leave the current settings alone.
	WithTxAttempts(0)(&settings)
	WithTxTimeout(-time.Second)(&settings)
	if settings.attempts != 3 || settings.timeout != 10*time.Second {
		t.Fatalf("settings after no-op options = %+v", settings)
	}
}

func TestRunTransactionRequiresClientAndFunc(t *testing.T) {
	ctx := context.Background()

	if err := RunTransaction(ctx, nil, func(context.Context, *firestore.Transaction) error { return nil }); err == nil {
		t.Fatalf("nil client must be rejected")
	}
	if err := RunTransaction(ctx, nil, nil); err == nil {
		t.Fatalf("nil transaction func must be rejected")
	}
}
