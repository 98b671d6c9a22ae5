package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sekz/ODR-PadEnc/internal/dls"
	"github.com/sekz/ODR-PadEnc/internal/padsink"
	"github.com/sekz/ODR-PadEnc/internal/slideshow"
)

// TestRunStopNoGoroutineLeak verifies the coordinator's tick loops and the
// engines' own background rescorer/sweeper all exit on Stop, the §5
// property that every background processor joins cleanly on shutdown.
func TestRunStopNoGoroutineLeak(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	slides := slideshow.New(slideshow.Config{Cap: 5, RescoreInterval: time.Millisecond}, nil, nil)
	messages := dls.New(dls.Config{SweepInterval: time.Millisecond}, nil)
	selector := dls.NewContextSelector()
	sink := padsink.NewMemorySink()

	c := New(Config{
		SlideshowTickInterval: time.Millisecond,
		DLSTickInterval:       time.Millisecond,
		DLSEmergencyInterval:  time.Millisecond,
	}, slides, messages, selector, sink, nil)

	slides.RunRescorer()
	messages.RunSweeper()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}

	slides.Stop()
	messages.Stop()
}
