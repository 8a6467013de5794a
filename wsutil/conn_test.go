package wsutil

import (
	"testing"
	"time"

	"github.com/silently/wsmock"
)

func TestSendWithPayloadDeliversKindAndPayload(t *testing.T) {
	mockConn, rec := wsmock.NewGorillaMockAndRecorder(t)
	c := New(mockConn, "test", 20*time.Second, 30*time.Second)

	go func() {
		c.SendWithPayload("joined", map[string]string{"room": "abc"})
	}()

	rec.AssertReceivedContains("joined")
	rec.Run(time.Second)
}

func TestSendIsConcurrencySafe(t *testing.T) {
	mockConn, rec := wsmock.NewGorillaMockAndRecorder(t)
	c := New(mockConn, "test", 20*time.Second, 30*time.Second)

	for i := 0; i < 10; i++ {
		go c.Send("ping")
	}

	rec.AssertReceivedContains("ping")
	rec.Run(time.Second)
}
