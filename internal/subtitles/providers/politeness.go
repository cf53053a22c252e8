package providers

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// politeness spaces outbound requests to one source. Subtitle sites ban
// clients that hammer them; every adapter waits on its limiter before each
// request, including the first retry after an error.
type politeness struct {
	limiter *rate.Limiter
}

func newPoliteness(delay time.Duration) politeness {
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return politeness{limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

// wait blocks until the next request slot or the context ends.
func (p politeness) wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
