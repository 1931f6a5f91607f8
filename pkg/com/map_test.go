package com

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

type testClient struct {
	id   Uid
	gone atomic.Bool
}

func (t *testClient) Id() Uid     { return t.id }
func (t *testClient) Disconnect() { t.gone.Store(true) }

func TestNetMapAddRemove(t *testing.T) {
	m := NewNetMap[Uid, *testClient]()
	c := &testClient{id: NewUid()}
	m.Add(c)
	if !m.Has(c.Id()) {
		t.Fatalf("client %v was not added", c.Id())
	}
	m.RemoveDisconnect(c)
	if m.Has(c.Id()) || !c.gone.Load() {
		t.Errorf("client %v was not removed properly", c.Id())
	}
	if !m.IsEmpty() {
		t.Errorf("the map should be empty")
	}
}

func TestSnapshotDuringMutation(t *testing.T) {
	m := NewMap[string, int]()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			m.Put(fmt.Sprintf("k%d", i), i)
			if i%2 == 0 {
				m.RemoveByKey(fmt.Sprintf("k%d", i))
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			for range m.Snapshot() {
			}
		}
	}()
	wg.Wait()
}

func TestFindEmptyKey(t *testing.T) {
	m := NewMap[string, int]()
	if _, err := m.Find(""); err != ErrNotFound {
		t.Errorf("empty keys should not be found, got %v", err)
	}
}
