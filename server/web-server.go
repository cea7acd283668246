package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-while/nodare-hashing/logger"
)

type Server interface {
	Start()
	Stop()
}

// HttpServer serves the WebMux over http or, with tls set, https.
type HttpServer struct {
	ndbServer  WebMux
	httpServer *http.Server
	cfg        VConfig
	logs       ilog.ILOG
	tls        bool
	stop_chan  <-chan struct{}
	wg         *sync.WaitGroup
}

func NewHttpServer(cfg VConfig, ndbServer WebMux, logs ilog.ILOG, stop_chan <-chan struct{}, wg *sync.WaitGroup) *HttpServer {
	return &HttpServer{
		ndbServer: ndbServer,
		logs:      logs,
		cfg:       cfg,
		stop_chan: stop_chan,
		wg:        wg,
	}
}

func NewHttpsServer(cfg VConfig, ndbServer WebMux, logs ilog.ILOG, stop_chan <-chan struct{}, wg *sync.WaitGroup) *HttpServer {
	srv := NewHttpServer(cfg, ndbServer, logs, stop_chan, wg)
	srv.tls = true
	return srv
}

func (server *HttpServer) proto() string {
	if server.tls {
		return "HTTPS"
	}
	return "HTTP"
}

// Start blocks until stop_chan is closed, then shuts the server down.
func (server *HttpServer) Start() {
	addr := net.JoinHostPort(server.cfg.GetString(VK_SERVER_HOST), server.cfg.GetString(VK_SERVER_PORT_TCP))
	server.httpServer = &http.Server{
		ReadTimeout:  time.Duration(server.cfg.GetInt(VK_NET_WEBSRV_READ_TIMEOUT)) * time.Second,
		WriteTimeout: time.Duration(server.cfg.GetInt(VK_NET_WEBSRV_WRITE_TIMEOUT)) * time.Second,
		IdleTimeout:  time.Duration(server.cfg.GetInt(VK_NET_WEBSRV_IDLE_TIMEOUT)) * time.Second,
		Addr:         addr,
		Handler:      server.ndbServer.CreateMux(),
	}
	server.wg.Add(1)
	go func() {
		defer server.wg.Done()
		server.logs.Info("%s @ '%s'", server.proto(), addr)
		var err error
		if server.tls {
			err = server.httpServer.ListenAndServeTLS(server.cfg.GetString(VK_SEC_TLS_PUBCERT), server.cfg.GetString(VK_SEC_TLS_PRIVKEY))
		} else {
			err = server.httpServer.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			server.logs.Fatal("%s server error: %v", server.proto(), err)
		}
		server.logs.Info("%s server: closing", server.proto())
	}()
	<-server.stop_chan
	server.Stop()
	server.logs.Info("%s server: closed", server.proto())
}

func (server *HttpServer) Stop() {
	server.logs.Info("%s server: stopping", server.proto())
	shutdownCtx, shutdownRelease := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownRelease()
	if err := server.httpServer.Shutdown(shutdownCtx); err != nil {
		server.logs.Error("%s server: shutdown error %v", server.proto(), err)
	}
	server.logs.Info("%s server: stopped", server.proto())
}
