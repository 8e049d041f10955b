package ui

import (
	"sync"
	"testing"
	"time"
)

func TestProgramHandle_SendBeforeSetDropsMessage(t *testing.T) {
	var h ProgramHandle
	done := make(chan struct{})
	go func() {
		h.Send(ConfigReloadedMsg{})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send blocked with no program set")
	}
}

func TestProgramHandle_ConcurrentSetAndSend(t *testing.T) {
	var h ProgramHandle
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			h.Set(nil)
		}()
		go func() {
			defer wg.Done()
			h.Send(ConfigReloadedMsg{})
		}()
	}
	wg.Wait()
}
