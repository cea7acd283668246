package client

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-while/nodare-hashing/database"
	"github.com/go-while/nodare-hashing/logger"
	"github.com/go-while/nodare-hashing/server"
)

func newTestDB(t *testing.T) (*database.XDatabase, ilog.ILOG) {
	t.Helper()
	logs := ilog.NewWriterLogger(ilog.NONE, io.Discard)
	db, err := database.NewDB(logs, database.DBOptions{Backend: database.BACKEND_LINEAR, HashMode: database.HASH_FNV64A})
	if err != nil {
		t.Fatalf("NewDB err='%v'", err)
	}
	return db, logs
}

func newSocketClient(t *testing.T) *Client {
	t.Helper()
	db, logs := newTestDB(t)
	sockets := server.NewSocketHandler(db, logs, server.NewACL([]string{"127.0.0.1"}))
	if err := sockets.Start("127.0.0.1:0", "", "", "", "", false); err != nil {
		t.Fatalf("sockets.Start err='%v'", err)
	}
	t.Cleanup(sockets.Stop)
	c, err := NewClient(&Options{Addr: sockets.Addrs()[0].String(), Mode: MODE_SOCKET, Logs: logs})
	if err != nil {
		t.Fatalf("NewClient err='%v'", err)
	}
	return c
}

func TestClient_Socket(t *testing.T) {
	c := newSocketClient(t)
	defer c.Close()

	if err := c.Set("k1", "v1"); err != nil {
		t.Fatalf("Set err='%v'", err)
	}
	if err := c.Set("k2", "v2"); err != nil {
		t.Fatalf("Set err='%v'", err)
	}
	if val, found, err := c.Get("k1"); err != nil || !found || val != "v1" {
		t.Errorf("Get(k1) = %q, %v, %v", val, found, err)
	}
	if _, found, err := c.Get("nope"); err != nil || found {
		t.Errorf("Get(nope) found=%v err='%v'", found, err)
	}
	if n, err := c.Count(); err != nil || n != 2 {
		t.Errorf("Count() = %d, %v", n, err)
	}
	if removed, err := c.Remove("k1"); err != nil || !removed {
		t.Errorf("Remove(k1) = %v, %v", removed, err)
	}
	if removed, err := c.Remove("k1"); err != nil || removed {
		t.Errorf("second Remove(k1) = %v, %v", removed, err)
	}
	if reply, err := c.Send("bogus"); err != nil || reply != replyFail {
		t.Errorf("Send(bogus) = %q, %v", reply, err)
	}
}

func TestClient_BadTokens(t *testing.T) {
	c := newSocketClient(t)
	defer c.Close()
	for _, kv := range [][2]string{{"", "v"}, {"a b", "v"}, {"k", ""}, {"k", "v\r\n"}} {
		if err := c.Set(kv[0], kv[1]); !errors.Is(err, ErrBadToken) {
			t.Errorf("Set(%q, %q) err='%v'", kv[0], kv[1], err)
		}
	}
	if _, _, err := c.Get("a b"); !errors.Is(err, ErrBadToken) {
		t.Errorf("Get err='%v'", err)
	}
}

func TestClient_Closed(t *testing.T) {
	c := newSocketClient(t)
	if err := c.Close(); err != nil {
		t.Fatalf("Close err='%v'", err)
	}
	if _, err := c.Send("count"); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after Close err='%v'", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close err='%v'", err)
	}
}

func TestClient_HTTP(t *testing.T) {
	db, logs := newTestDB(t)
	ts := httptest.NewServer(server.NewXNDBServer(db, logs).CreateMux())
	defer ts.Close()

	c, err := NewClient(&Options{Addr: strings.TrimPrefix(ts.URL, "http://"), Mode: MODE_HTTP, Logs: logs})
	if err != nil {
		t.Fatalf("NewClient err='%v'", err)
	}
	defer c.Close()

	if err := c.HTTPSet("hk", "hv"); err != nil {
		t.Fatalf("HTTPSet err='%v'", err)
	}
	if val, found, err := c.HTTPGet("hk"); err != nil || !found || val != "hv" {
		t.Errorf("HTTPGet(hk) = %q, %v, %v", val, found, err)
	}
	if removed, err := c.HTTPDel("hk"); err != nil || !removed {
		t.Errorf("HTTPDel(hk) = %v, %v", removed, err)
	}
	if _, found, err := c.HTTPGet("hk"); err != nil || found {
		t.Errorf("HTTPGet after del found=%v err='%v'", found, err)
	}
	if removed, err := c.HTTPDel("hk"); err != nil || removed {
		t.Errorf("second HTTPDel = %v, %v", removed, err)
	}
	if db.Count() != 0 {
		t.Errorf("Count() = %d", db.Count())
	}
}

func TestClient_HTTPEscapedKeys(t *testing.T) {
	db, logs := newTestDB(t)
	ts := httptest.NewServer(server.NewXNDBServer(db, logs).CreateMux())
	defer ts.Close()

	c, err := NewClient(&Options{Addr: strings.TrimPrefix(ts.URL, "http://"), Mode: MODE_HTTP, Logs: logs})
	if err != nil {
		t.Fatalf("NewClient err='%v'", err)
	}
	defer c.Close()

	kvs := map[string]string{
		"k":      "short",
		"k?x=1":  "query",
		"k#frag": "fragment",
		"a/b":    "slash",
		"a%2Fb":  "escaped",
		"..":     "dots",
	}
	for k, v := range kvs {
		if err := c.HTTPSet(k, v); err != nil {
			t.Fatalf("HTTPSet(%q) err='%v'", k, err)
		}
	}
	for k, v := range kvs {
		if val, found, err := c.HTTPGet(k); err != nil || !found || val != v {
			t.Errorf("HTTPGet(%q) = %q, %v, %v want %q", k, val, found, err, v)
		}
	}
	if removed, err := c.HTTPDel("k?x=1"); err != nil || !removed {
		t.Fatalf("HTTPDel(k?x=1) = %v, %v", removed, err)
	}
	if val, found, err := c.HTTPGet("k"); err != nil || !found || val != "short" {
		t.Errorf("HTTPGet(k) after deleting k?x=1 = %q, %v, %v", val, found, err)
	}
	if db.Count() != len(kvs)-1 {
		t.Errorf("Count() = %d, want %d", db.Count(), len(kvs)-1)
	}
}

func TestNewClient_BadMode(t *testing.T) {
	_, logs := newTestDB(t)
	if _, err := NewClient(&Options{Addr: "127.0.0.1:1", Mode: 7, Logs: logs}); !errors.Is(err, ErrBadMode) {
		t.Errorf("err='%v'", err)
	}
}
