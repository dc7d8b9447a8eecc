package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/mamadbah2/antkeeper/internal/domain/models"
)

// DefaultChannelTimeout bounds a single channel delivery.
const DefaultChannelTimeout = 30 * time.Second

// ErrUndelivered marks a dispatch in which every channel failed, so nothing
// reached the keeper.
var ErrUndelivered = errors.New("notification not delivered")

// Channel delivers a notification through one medium.
type Channel interface {
	Name() string
	Notify(ctx context.Context, n Notification) error
}

// Dispatcher sends every notification through all configured channels.
type Dispatcher struct {
	mu       sync.RWMutex
	channels []Channel
	timeout  time.Duration
	logger   *zap.Logger
}

// NewDispatcher builds a dispatcher; timeout <= 0 selects DefaultChannelTimeout.
func NewDispatcher(channels []Channel, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultChannelTimeout
	}
	return &Dispatcher{channels: channels, timeout: timeout, logger: logger}
}

// SetChannels swaps the channel set. In-flight dispatches keep the old set.
func (d *Dispatcher) SetChannels(channels []Channel) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.channels = channels
	d.logger.Info("notification channels configured", zap.Strings("channels", names(channels)))
}

// ChannelNames lists the active channels.
func (d *Dispatcher) ChannelNames() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return names(d.channels)
}

// Dispatch invokes every channel concurrently. A failing or panicking channel
// does not affect the others; all failures come back combined and wrapped in
// models.ErrChannelFailure, plus ErrUndelivered when no channel succeeded.
// Nothing is retried here.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) error {
	d.mu.RLock()
	channels := d.channels
	d.mu.RUnlock()

	if len(channels) == 0 {
		d.logger.Debug("no notification channel configured", zap.String("colony", n.Colony))
		return nil
	}

	errs := make([]error, len(channels))
	var wg sync.WaitGroup
	for i, ch := range channels {
		wg.Add(1)
		go func(i int, ch Channel) {
			defer wg.Done()
			errs[i] = d.deliver(ctx, ch, n)
		}(i, ch)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}

	combined := multierr.Combine(errs...)
	switch failed {
	case 0:
		return nil
	case len(channels):
		return fmt.Errorf("%w: %w: %w", ErrUndelivered, models.ErrChannelFailure, combined)
	}
	return fmt.Errorf("%w: %w", models.ErrChannelFailure, combined)
}

// deliver returns when the channel does or when its deadline passes, whichever
// comes first. A channel ignoring ctx keeps running in the background but no
// longer holds up the cycle.
func (d *Dispatcher) deliver(ctx context.Context, ch Channel, n Notification) (err error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	defer func() {
		if err != nil {
			d.logger.Warn("notification channel failed",
				zap.String("channel", ch.Name()),
				zap.String("colony", n.Colony),
				zap.Error(err))
			return
		}
		d.logger.Info("notification sent",
			zap.String("channel", ch.Name()),
			zap.String("colony", n.Colony))
	}()

	result := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("panic: %v", r)
			}
		}()
		result <- ch.Notify(ctx, n)
	}()

	select {
	case err = <-result:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("%s: %w", ch.Name(), err)
	}
	return nil
}

func names(channels []Channel) []string {
	out := make([]string, 0, len(channels))
	for _, ch := range channels {
		out = append(out, ch.Name())
	}
	return out
}
