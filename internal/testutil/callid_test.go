package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedCallIDGenerator_ReturnsSameID(t *testing.T) {
	gen := NewFixedCallIDGenerator("call-123")

	assert.Equal(t, "call-123", gen.Generate())
	assert.Equal(t, "call-123", gen.Generate())
}

func TestFixedCallIDGenerator_EmptyIDDefault(t *testing.T) {
	gen := NewFixedCallIDGenerator("")
	assert.Equal(t, "test-call-default", gen.Generate())
}

func TestFixedCallIDGenerator_ThreadSafe(t *testing.T) {
	gen := NewFixedCallIDGenerator("thread-safe-id")

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				assert.Equal(t, "thread-safe-id", gen.Generate())
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}
