package httputil_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matzehuels/pipebuilder/pkg/httputil"
)

func ExampleRetry() {
	calls := 0
	err := httputil.Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return httputil.Retryable(errors.New("connection reset"))
		}
		return nil
	})
	fmt.Println("calls:", calls, "err:", err)
	// Output:
	// calls: 3 err: <nil>
}
