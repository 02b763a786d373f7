package statechan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kingrea/todoboard/internal/todo"
)

func TestLocalWriteIsVisibleToNextRead(t *testing.T) {
	ch := NewLocal(todo.State{})
	next := todo.State{Todos: []todo.Item{{ID: "a", Title: "one", Status: todo.StatusTodo}}}
	ch.Write(next)
	if got := ch.Read(); !got.Equal(next) {
		t.Fatalf("read %+v, want %+v", got, next)
	}
	if ch.Revision() != 1 {
		t.Fatalf("revision = %d, want 1", ch.Revision())
	}
}

func TestLocalWriteDoesNotAliasCallerSlice(t *testing.T) {
	ch := NewLocal(todo.State{})
	items := []todo.Item{{ID: "a", Title: "one", Status: todo.StatusTodo}}
	ch.Write(todo.State{Todos: items})
	items[0].Title = "mutated"
	if got := ch.Read().Todos[0].Title; got != "one" {
		t.Fatalf("stored snapshot changed through caller slice: %q", got)
	}
}

func TestSubscriptionCoalescesToNewest(t *testing.T) {
	ch := NewLocal(todo.State{})
	sub := ch.Subscribe()
	defer sub.Close()
	for i := 0; i < 5; i++ {
		ch.Write(todo.State{Todos: []todo.Item{{ID: "a", Title: strings.Repeat("x", i+1), Status: todo.StatusTodo}}})
	}
	snap := <-sub.Updates()
	if snap.Revision != 5 {
		t.Fatalf("expected newest revision 5, got %d", snap.Revision)
	}
	select {
	case extra := <-sub.Updates():
		t.Fatalf("unexpected extra snapshot %d", extra.Revision)
	default:
	}
}

func TestSubscriptionCloseStopsDelivery(t *testing.T) {
	ch := NewLocal(todo.State{})
	sub := ch.Subscribe()
	sub.Close()
	sub.Close()
	ch.Write(todo.State{})
	if _, ok := <-sub.Updates(); ok {
		t.Fatalf("expected closed channel")
	}
}

func TestDecodeSnapshotRejectsMalformed(t *testing.T) {
	if _, err := DecodeSnapshot([]byte(`{"revision":3,"todos":"nope"}`)); err == nil {
		t.Fatalf("expected error for non-array todos")
	}
	snap, err := DecodeSnapshot([]byte(`{"revision":3,"origin":"o","todos":[{"id":"a","title":"t","status":"done"}]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Revision != 3 || snap.Origin != "o" || len(snap.Todos) != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestRemoteSyncsWithBridge(t *testing.T) {
	t.Parallel()
	upgrader := websocket.Upgrader{}
	received := make(chan Snapshot, 4)
	pushed := todo.State{Todos: []todo.Item{{ID: "srv", Title: "from bridge", Status: todo.StatusInProgress}}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if err := conn.WriteJSON(NewSnapshot(7, pushed)); err != nil {
			return
		}
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			snap, err := DecodeSnapshot(data)
			if err == nil {
				received <- snap
			}
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	remote := NewRemote(url, todo.State{}, WithBackoff(10*time.Millisecond, 50*time.Millisecond))
	sub := remote.Subscribe()
	defer sub.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = remote.Run(ctx) }()

	select {
	case snap := <-sub.Updates():
		if !snap.State().Equal(pushed) {
			t.Fatalf("replica got %+v", snap.Todos)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for pushed snapshot")
	}

	local := todo.Append(remote.Read(), todo.Item{ID: "cli", Title: "from client", Status: todo.StatusTodo})
	remote.Write(local)
	if got := remote.Read(); !got.Equal(local) {
		t.Fatalf("write not visible locally")
	}
	select {
	case snap := <-received:
		if len(snap.Todos) != 2 || snap.Todos[1].ID != "cli" {
			t.Fatalf("bridge received %+v", snap.Todos)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for upstream write")
	}
}

func TestRemoteOfflineWriteWinsAfterConnect(t *testing.T) {
	t.Parallel()
	upgrader := websocket.Upgrader{}
	bridge := NewLocal(todo.State{Todos: []todo.Item{{ID: "srv", Title: "older", Status: todo.StatusTodo}}})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if err := conn.WriteJSON(NewSnapshot(1, bridge.Read())); err != nil {
			return
		}
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			snap, err := DecodeSnapshot(data)
			if err != nil {
				continue
			}
			bridge.WriteFrom(snap.State(), snap.Origin)
			echo := NewSnapshot(2, bridge.Read())
			echo.Origin = snap.Origin
			if err := conn.WriteJSON(echo); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	remote := NewRemote(url, todo.State{}, WithBackoff(10*time.Millisecond, 50*time.Millisecond))
	offline := todo.State{Todos: []todo.Item{{ID: "c", Title: "written offline", Status: todo.StatusDone}}}
	remote.Write(offline)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = remote.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if remote.Read().Equal(offline) && bridge.Read().Equal(offline) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("diverged: replica %+v bridge %+v", remote.Read().Todos, bridge.Read().Todos)
		}
		time.Sleep(10 * time.Millisecond)
	}
	// Settle, then make sure nothing later pulled the replica back.
	time.Sleep(50 * time.Millisecond)
	if !remote.Read().Equal(offline) {
		t.Fatalf("replica reverted to %+v", remote.Read().Todos)
	}
}

func TestRemoteAdoptsEchoWhenReplicaDrifted(t *testing.T) {
	remote := NewRemote("ws://unused", todo.State{})
	sent := todo.State{Todos: []todo.Item{{ID: "c", Title: "mine", Status: todo.StatusTodo}}}
	remote.setLastSent(sent)
	remote.replica.WriteFrom(todo.State{}, "")
	if !remote.adoptEcho(sent) {
		t.Fatalf("expected echo of newest write to be adopted over drifted replica")
	}
	stale := todo.State{Todos: []todo.Item{{ID: "old", Title: "stale", Status: todo.StatusTodo}}}
	if remote.adoptEcho(stale) {
		t.Fatalf("echo of an older write must be ignored")
	}
	remote.Write(todo.State{Todos: []todo.Item{{ID: "d", Title: "queued", Status: todo.StatusTodo}}})
	if remote.adoptEcho(sent) {
		t.Fatalf("echo must be ignored while a newer write is queued")
	}
}
