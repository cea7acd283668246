package server

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-while/nodare-hashing/database"
	"github.com/go-while/nodare-hashing/logger"
	"github.com/google/go-cmp/cmp"
)

// newTestConf loads a fresh config file from a temp dir.
func newTestConf(t *testing.T, envs map[string]string) (VConfig, database.DBOptions, error) {
	t.Helper()
	for env, val := range envs {
		t.Setenv(env, val)
	}
	cfgFile := filepath.Join(t.TempDir(), CONFIG_DIR, "config.toml")
	return NewViperConf(cfgFile, "", newTestLogs())
}

func TestNewViperConf_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "sub", "config.toml")
	cfg, opts, err := NewViperConf(cfgFile, "", newTestLogs())
	if err != nil {
		t.Fatalf("NewViperConf err='%v'", err)
	}
	if _, err := os.Stat(cfgFile); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	want := database.DBOptions{
		Backend:   database.BACKEND_LINEAR,
		Capacity:  DEFAULT_CAPACITY,
		Threshold: DEFAULT_THRESHOLD,
		HashMode:  DEFAULT_HASHMODE,
	}
	if diff := cmp.Diff(want, opts); diff != "" {
		t.Errorf("DBOptions mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.GetString(VK_SERVER_SOCKET_PORT_TCP); got != DEFAULT_SERVER_SOCKET_TCP_PORT {
		t.Errorf("%s = %q", VK_SERVER_SOCKET_PORT_TCP, got)
	}
	if got := cfg.GetInt(VK_NET_WEBSRV_IDLE_TIMEOUT); got != V_DEFAULT_NET_WEBSRV_IDLE_TIMEOUT {
		t.Errorf("%s = %d", VK_NET_WEBSRV_IDLE_TIMEOUT, got)
	}

	// second load reads the file written by the first
	if _, again, err := NewViperConf(cfgFile, "", newTestLogs()); err != nil || again != opts {
		t.Errorf("reload opts=%+v err='%v'", again, err)
	}
}

func TestNewViperConf_EnvOverrides(t *testing.T) {
	cfg, opts, err := newTestConf(t, map[string]string{
		ENVK_NDB_BACKEND:           "chained",
		ENVK_NDB_CAPACITY:          "97",
		ENVK_NDB_HASHMODE:          "4",
		ENVK_NDB_SERVER_SOCKET_ACL: "10.0.0.1",
	})
	if err != nil {
		t.Fatalf("NewViperConf err='%v'", err)
	}
	want := database.DBOptions{
		Backend:   database.BACKEND_CHAINED,
		Capacity:  97,
		Threshold: DEFAULT_THRESHOLD,
		HashMode:  database.HASH_XXHASH,
	}
	if diff := cmp.Diff(want, opts); diff != "" {
		t.Errorf("DBOptions mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.GetString(VK_SERVER_SOCKET_ACL); got != "10.0.0.1" {
		t.Errorf("%s = %q", VK_SERVER_SOCKET_ACL, got)
	}
}

func TestNewViperConf_EnvFile(t *testing.T) {
	// registers cleanup, then leaves the var unset so the env file can set it
	t.Setenv(ENVK_NDB_THRESHOLD, "")
	os.Unsetenv(ENVK_NDB_THRESHOLD)

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte(ENVK_NDB_THRESHOLD+"=1.5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, opts, err := NewViperConf(filepath.Join(dir, "config.toml"), envFile, newTestLogs())
	if err != nil {
		t.Fatalf("NewViperConf err='%v'", err)
	}
	if opts.Threshold != 1.5 {
		t.Errorf("Threshold = %v, want 1.5", opts.Threshold)
	}
}

func TestNewViperConf_Invalid(t *testing.T) {
	tests := []map[string]string{
		{ENVK_NDB_BACKEND: "btree"},
		{ENVK_NDB_CAPACITY: "-4"},
		{ENVK_NDB_HASHMODE: "99"},
	}
	for _, envs := range tests {
		t.Run(fmt.Sprint(envs), func(t *testing.T) {
			if _, _, err := newTestConf(t, envs); !errors.Is(err, database.ErrInvalidArgument) {
				t.Errorf("envs=%v err='%v'", envs, err)
			}
		})
	}
}

func TestApplyLogfile(t *testing.T) {
	logfile := filepath.Join(t.TempDir(), "conf.log")
	cfg, _, err := newTestConf(t, map[string]string{ENVK_LOGSFILE: logfile})
	if err != nil {
		t.Fatal(err)
	}

	// -logfile given: config is ignored
	logs := ilog.NewWriterLogger(ilog.INFO, io.Discard)
	if err := ApplyLogfile(cfg, logs, "flag.log"); err != nil {
		t.Fatalf("ApplyLogfile err='%v'", err)
	}
	if _, err := os.Stat(logfile); !os.IsNotExist(err) {
		t.Fatalf("config logfile opened despite flag: %v", err)
	}

	if err := ApplyLogfile(cfg, logs, ""); err != nil {
		t.Fatalf("ApplyLogfile err='%v'", err)
	}
	logs.Info("hello %s", "logfile")
	logs.Close()
	data, err := os.ReadFile(logfile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "hello logfile") {
		t.Errorf("logfile = %q", data)
	}
}

func TestFactory_NewNDBServer(t *testing.T) {
	cfg, _, err := newTestConf(t, map[string]string{ENVK_LOGLEVEL: "WARN"})
	if err != nil {
		t.Fatal(err)
	}
	logs := newTestLogs()
	stop := make(chan struct{})
	var wg sync.WaitGroup
	srv := NewFactory().NewNDBServer(cfg, NewXNDBServer(newTestDB(t, database.BACKEND_LINEAR), logs), logs, stop, &wg)
	hs, ok := srv.(*HttpServer)
	if !ok || hs.tls {
		t.Fatalf("srv=%T tls=%v, want plain *HttpServer", srv, ok && hs.tls)
	}
	if logs.GetLOGLEVEL() != ilog.WARN {
		t.Errorf("loglevel = %d, want WARN", logs.GetLOGLEVEL())
	}

	cfg, _, err = newTestConf(t, map[string]string{ENVK_NDB_TLS_ENABLED: "true"})
	if err != nil {
		t.Fatal(err)
	}
	srv = NewFactory().NewNDBServer(cfg, NewXNDBServer(newTestDB(t, database.BACKEND_LINEAR), logs), logs, stop, &wg)
	if hs, ok := srv.(*HttpServer); !ok || !hs.tls {
		t.Errorf("srv=%T, want tls *HttpServer", srv)
	}
}

func TestHttpServer_StartStop(t *testing.T) {
	cfg, _, err := newTestConf(t, map[string]string{
		ENVK_NDB_HOST: "127.0.0.1",
		ENVK_NDB_PORT: "0",
	})
	if err != nil {
		t.Fatal(err)
	}
	logs := newTestLogs()
	stop := make(chan struct{})
	var wg sync.WaitGroup
	srv := NewHttpServer(cfg, NewXNDBServer(newTestDB(t, database.BACKEND_LINEAR), logs), logs, stop, &wg)
	done := make(chan struct{})
	go func() {
		srv.Start()
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	close(stop)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after stop")
	}
	wg.Wait()
}
