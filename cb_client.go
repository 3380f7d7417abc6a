package khub

import (
	"github.com/sony/gobreaker"
)

// CircuitBreakerClient stops hammering a dead hub: dials and sends go
// through the breaker, so repeated failures trip it open and calls fail fast
// until the hub recovers.
type CircuitBreakerClient struct {
	breaker *gobreaker.CircuitBreaker
	Client
}

func NewCircuitBreakerClient(client Client, breaker *gobreaker.CircuitBreaker) *CircuitBreakerClient {
	return &CircuitBreakerClient{
		Client:  client,
		breaker: breaker,
	}
}

func (c *CircuitBreakerClient) Dial(addr string) (err error) {
	_, err = c.breaker.Execute(func() (interface{}, error) { return nil, c.Client.Dial(addr) })
	return
}

func (c *CircuitBreakerClient) Send(m *Message) (err error) {
	_, err = c.breaker.Execute(func() (interface{}, error) { return nil, c.Client.Send(m) })
	return
}
