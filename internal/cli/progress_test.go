package cli

import (
	"testing"
	"time"

	"github.com/raphaelgruber/transdoc-go/internal/translate"
)

func TestStartBatch(t *testing.T) {
	notified := make(chan struct{})
	done := startBatch(func() translate.Summary {
		return translate.Summary{Succeeded: 3}
	}, func() { close(notified) })

	select {
	case <-notified:
	case <-time.After(time.Second):
		t.Fatal("batch completion not signalled")
	}

	// The summary must already be buffered once the notification fires.
	select {
	case summary := <-done:
		if summary.Succeeded != 3 {
			t.Errorf("summary = %+v", summary)
		}
	default:
		t.Fatal("summary not delivered before the completion signal")
	}
}
