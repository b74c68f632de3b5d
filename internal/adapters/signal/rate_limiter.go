package signal

import "golang.org/x/time/rate"

// ConnRateLimiter caps inbound messages of one connection. The zero value
// and a nil pointer allow everything.
type ConnRateLimiter struct {
	lim *rate.Limiter
}

func NewConnRateLimiter(perSecond float64, burst int) *ConnRateLimiter {
	if perSecond <= 0 {
		return &ConnRateLimiter{}
	}
	if burst < 1 {
		burst = 1
	}
	return &ConnRateLimiter{lim: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (l *ConnRateLimiter) Allow() bool {
	if l == nil || l.lim == nil {
		return true
	}
	return l.lim.Allow()
}
