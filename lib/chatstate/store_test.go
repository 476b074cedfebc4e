// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatstate

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/chatdesk/lib/schema/chat"
	"github.com/bureau-foundation/chatdesk/lib/testutil"
)

func TestStoreObserversSeeTransitions(t *testing.T) {
	store := NewStore(State{})
	if store.State().Page != PageChats {
		t.Errorf("initial page = %q", store.State().Page)
	}

	var seen []string
	store.Observe(func(previous, next State, action Action) {
		seen = append(seen, reflect.TypeOf(action).Name()+":"+previous.SelectedUUID()+">"+next.SelectedUUID())
	})

	store.Dispatch(SetChats{Chats: []chat.Conversation{conversation(1, "a", "Alpha")}})
	store.Dispatch(SelectChat{UUID: "a"})

	want := []string{"SetChats:>", "SelectChat:>a"}
	if !reflect.DeepEqual(seen, want) {
		t.Errorf("observed %v, want %v", seen, want)
	}
}

func TestStoreNestedDispatchKeepsOrder(t *testing.T) {
	store := NewStore(State{})
	store.Dispatch(SetChats{Chats: []chat.Conversation{conversation(1, "a", "Alpha")}})

	// An effect that reacts to selection by loading messages.
	store.Observe(func(previous, next State, action Action) {
		if _, ok := action.(SelectChat); ok {
			store.Dispatch(SetMessages{ChatUUID: next.SelectedUUID(), Messages: []chat.Message{message("m1", "hi")}})
		}
	})
	var order []string
	store.Observe(func(previous, next State, action Action) {
		order = append(order, reflect.TypeOf(action).Name())
	})

	final := store.Dispatch(SelectChat{UUID: "a"})
	if len(final.Messages) != 0 {
		t.Errorf("Dispatch returned %d messages; the nested load should reduce after it", len(final.Messages))
	}
	if got := store.State(); len(got.Messages) != 1 {
		t.Errorf("store messages = %v", messageIDs(got))
	}
	if want := []string{"SelectChat", "SetMessages"}; !reflect.DeepEqual(order, want) {
		t.Errorf("observer order %v, want %v", order, want)
	}
}

func TestStoreUnobserve(t *testing.T) {
	store := NewStore(State{})
	calls := 0
	remove := store.Observe(func(State, State, Action) { calls++ })
	store.Dispatch(SetPage{Page: PageQueue})
	remove()
	store.Dispatch(SetPage{Page: PageChats})
	if calls != 1 {
		t.Errorf("observer called %d times, want 1", calls)
	}
}

func TestStoreSubscribeCoalesces(t *testing.T) {
	store := NewStore(State{})
	changes, unsubscribe := store.Subscribe()

	store.Dispatch(SetPage{Page: PageQueue})
	store.Dispatch(SetPage{Page: PageChats})

	testutil.RequireReceive(t, changes, time.Second, "change signal")
	testutil.RequireNoReceive(t, changes, 20*time.Millisecond, "signals should coalesce")

	unsubscribe()
	store.Dispatch(SetPage{Page: PageQueue})
	testutil.RequireNoReceive(t, changes, 20*time.Millisecond, "signal after unsubscribe")
}

func TestStoreConcurrentDispatch(t *testing.T) {
	store := NewStore(State{})
	store.Dispatch(SetChats{Chats: []chat.Conversation{conversation(1, "a", "Alpha")}})
	store.Dispatch(SelectChat{UUID: "a"})

	var observed sync.Map
	store.Observe(func(previous, next State, action Action) {
		if add, ok := action.(AddMessage); ok {
			observed.Store(add.Message.MessageID, true)
		}
	})

	const writers = 8
	var group sync.WaitGroup
	for writer := range writers {
		group.Add(1)
		go func() {
			defer group.Done()
			for i := range 25 {
				id := testutil.UniqueID("m")
				// Every message is delivered twice, as REST and push would.
				for range 2 {
					store.Dispatch(AddMessage{ChatUUID: "a", Message: message(id, "x"), At: t0.Add(time.Duration(writer*100+i) * time.Millisecond)})
				}
			}
		}()
	}
	group.Wait()

	state := store.State()
	if len(state.Messages) != writers*25 {
		t.Errorf("%d messages, want %d", len(state.Messages), writers*25)
	}
	count := 0
	observed.Range(func(any, any) bool { count++; return true })
	if count != writers*25 {
		t.Errorf("observers saw %d distinct messages", count)
	}
}
