package throttle

import "context"

// gate admits one holder at a time. refs counts holders and waiters so the
// gate can be dropped once nobody uses it.
type gate struct {
	slot chan struct{}
	refs int
}

// Acquire waits until no other login for identity is between its block check
// and the recording of its outcome. The returned func releases the identity
// and must be called exactly once.
//
// Holding the identity across the credential check keeps concurrent requests
// from all passing the block check before any failure is counted.
func (t *Tracker) Acquire(ctx context.Context, identity string) (func(), error) {
	key := NormalizeIdentity(identity)

	t.mu.Lock()
	g, ok := t.gates[key]
	if !ok {
		g = &gate{slot: make(chan struct{}, 1)}
		t.gates[key] = g
	}
	g.refs++
	t.mu.Unlock()

	select {
	case g.slot <- struct{}{}:
	case <-ctx.Done():
		t.dropGate(key, g)
		return nil, ctx.Err()
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		<-g.slot
		t.dropGate(key, g)
	}, nil
}

func (t *Tracker) dropGate(key string, g *gate) {
	t.mu.Lock()
	defer t.mu.Unlock()

	g.refs--
	if g.refs == 0 {
		delete(t.gates, key)
	}
}
