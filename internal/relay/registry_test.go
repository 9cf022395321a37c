package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_LastRegistrationWins(t *testing.T) {
	reg := NewRegistry()
	first := newClient(nil, "A", 4)
	second := newClient(nil, "A", 4)

	require.Nil(t, reg.Register(first))
	require.Same(t, first, reg.Register(second))

	require.NoError(t, reg.Forward("B", "A", json.RawMessage(`{"n":1}`)))
	require.Len(t, second.send, 1)
	require.Len(t, first.send, 0, "orphaned handle must not receive forwards")

	// The orphan going away must not unregister its replacement.
	require.False(t, reg.Unregister(first))
	got, ok := reg.Lookup("A")
	require.True(t, ok)
	require.Same(t, second, got)

	require.True(t, reg.Unregister(second))
	require.ErrorIs(t, reg.Forward("B", "A", json.RawMessage(`{}`)), ErrRecipientNotFound)
}

func TestRegistry_ForwardFrameShape(t *testing.T) {
	reg := NewRegistry()
	dst := newClient(nil, "db_client", 4)
	reg.Register(dst)

	require.NoError(t, reg.Forward("esp_client", "db_client", json.RawMessage(`{"md":"auth","id":"X"}`)))
	frame := <-dst.send
	require.JSONEq(t, `{"from":"esp_client","msg":{"md":"auth","id":"X"}}`, string(frame))
}

func TestRegistry_ForwardToClosedQueueIsNotFound(t *testing.T) {
	reg := NewRegistry()
	c := newClient(nil, "A", 1)
	reg.Register(c)
	c.closeQueue()

	require.ErrorIs(t, reg.Forward("B", "A", json.RawMessage(`{}`)), ErrRecipientNotFound)
}

func TestRegistry_ForwardToFullQueueIsBusy(t *testing.T) {
	reg := NewRegistry()
	c := newClient(nil, "A", 1)
	reg.Register(c)

	require.NoError(t, reg.Forward("B", "A", json.RawMessage(`{}`)))
	require.ErrorIs(t, reg.Forward("B", "A", json.RawMessage(`{}`)), ErrRecipientBusy)
}

func TestRegistry_ConcurrentChurn(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c := newClient(nil, fmt.Sprintf("c%d", j%4), 8)
				reg.Register(c)
				if reg.Unregister(c) {
					c.closeQueue()
				}
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				err := reg.Forward("x", fmt.Sprintf("c%d", j%4), json.RawMessage(`{}`))
				if err != nil && !errors.Is(err, ErrRecipientNotFound) {
					t.Errorf("forward: %v", err)
				}
			}
		}()
	}
	wg.Wait()
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry()
	reg.Register(newClient(nil, "esp_client", 1))
	reg.Register(newClient(nil, "db_client", 1))
	require.Equal(t, []string{"db_client", "esp_client"}, reg.Names())
	require.Equal(t, 2, reg.Len())
}
