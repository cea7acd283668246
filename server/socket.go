package server

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-while/nodare-hashing/database"
	"github.com/go-while/nodare-hashing/logger"
	"github.com/go-while/nodare-hashing/utils"
)

type SOCKET struct {
	db        *database.XDatabase
	logs      ilog.ILOG
	acl       *AccessControlList
	mux       sync.Mutex
	cpu       sync.Mutex
	mem       sync.Mutex
	CPUfile   *os.File
	listeners []net.Listener
	wg        sync.WaitGroup
	lineLimit int
}

func NewSocketHandler(db *database.XDatabase, logs ilog.ILOG, acl *AccessControlList) *SOCKET {
	return &SOCKET{db: db, logs: logs, acl: acl, lineLimit: LINE_LIMIT}
}

var errLineTooLong = errors.New("line too long")

// lineLimitConn fails reads once the current line runs past limit bytes,
// so an endless line never gets buffered whole.
type lineLimitConn struct {
	net.Conn
	limit   int
	pending int // bytes since the last '\n'
}

func (lc *lineLimitConn) Read(p []byte) (int, error) {
	if lc.exceeded() {
		return 0, errLineTooLong
	}
	if room := lc.limit - lc.pending + 1; len(p) > room {
		p = p[:room]
	}
	n, err := lc.Conn.Read(p)
	for _, b := range p[:n] {
		if b == '\n' {
			lc.pending = 0
		} else {
			lc.pending++
		}
	}
	return n, err
}

func (lc *lineLimitConn) exceeded() bool {
	return lc.pending > lc.limit
}

// StartFromConfig opens the listeners configured in vcfg.
func (c *SOCKET) StartFromConfig(vcfg VConfig) error {
	host := vcfg.GetString(VK_SERVER_HOST)
	tcpListen, tlsListen := "", ""
	if port := vcfg.GetString(VK_SERVER_SOCKET_PORT_TCP); port != "" {
		tcpListen = net.JoinHostPort(host, port)
	}
	if port := vcfg.GetString(VK_SERVER_SOCKET_PORT_TLS); port != "" {
		tlsListen = net.JoinHostPort(host, port)
	}
	return c.Start(tcpListen, tlsListen,
		vcfg.GetString(VK_SERVER_SOCKET_PATH),
		vcfg.GetString(VK_SEC_TLS_PUBCERT),
		vcfg.GetString(VK_SEC_TLS_PRIVKEY),
		vcfg.GetBool(VK_SEC_TLS_ENABLED))
}

// Start opens every non-empty listener and serves it in the background.
// Unix socket connections skip the ACL and may run profiling commands.
func (c *SOCKET) Start(tcpListen string, tlsListen string, socketPath string, tlscrt string, tlskey string, tlsenabled bool) error {
	if socketPath != "" {
		os.Remove(socketPath) // stale socket from an unclean exit
		listener, err := net.Listen("unix", socketPath)
		if err != nil {
			return fmt.Errorf("SOCKET listen unix '%s': %w", socketPath, err)
		}
		c.logs.Info("SOCKET Unix: %s", socketPath)
		c.serve(listener, true)
	}

	if tcpListen != "" {
		listener, err := net.Listen("tcp", tcpListen)
		if err != nil {
			c.Stop()
			return fmt.Errorf("SOCKET listen tcp '%s': %w", tcpListen, err)
		}
		c.logs.Info("SOCKET ListenTCP: %s", listener.Addr())
		c.serve(listener, false)
	}

	if tlsListen != "" && tlsenabled {
		certs, err := tls.LoadX509KeyPair(tlscrt, tlskey)
		if err != nil {
			c.Stop()
			return fmt.Errorf("SOCKET tls.LoadX509KeyPair: %w", err)
		}
		ssl_conf := &tls.Config{
			Certificates: []tls.Certificate{certs},
			MinVersion:   tls.VersionTLS12,
		}
		listener, err := tls.Listen("tcp", tlsListen, ssl_conf)
		if err != nil {
			c.Stop()
			return fmt.Errorf("SOCKET tls.Listen '%s': %w", tlsListen, err)
		}
		c.logs.Info("SOCKET tls.Listen: %s", listener.Addr())
		c.serve(listener, false)
	}
	return nil
} // end func Start

func (c *SOCKET) serve(listener net.Listener, socket bool) {
	c.mux.Lock()
	c.listeners = append(c.listeners, listener)
	c.mux.Unlock()
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			conn, err := listener.Accept()
			if err != nil {
				if !errors.Is(err, net.ErrClosed) {
					c.logs.Error("SOCKET accept '%s' err='%v'", listener.Addr(), err)
				}
				return
			}
			raddr := getRemoteIP(conn)
			if !socket && !c.acl.IsAllowed(raddr) {
				c.logs.Info("SOCKET !ACL: '%s'", raddr)
				conn.Close()
				continue
			}
			c.logs.Debug("SOCKET newC: '%s'", raddr)
			go c.handleSocketConn(conn, raddr, socket)
		}
	}()
}

// Addrs returns the addresses of the open listeners.
func (c *SOCKET) Addrs() (addrs []net.Addr) {
	c.mux.Lock()
	defer c.mux.Unlock()
	for _, l := range c.listeners {
		addrs = append(addrs, l.Addr())
	}
	return
}

// Stop closes all listeners and waits for the accept loops to return.
func (c *SOCKET) Stop() {
	c.mux.Lock()
	for _, l := range c.listeners {
		l.Close()
	}
	c.listeners = nil
	c.mux.Unlock()
	c.wg.Wait()
	c.logs.Info("SOCKET: stopped")
}

func (c *SOCKET) handleSocketConn(conn net.Conn, raddr string, socket bool) {
	defer conn.Close()
	lc := &lineLimitConn{Conn: conn, limit: c.lineLimit + 1} // +1 for '\r'
	tp := textproto.NewConn(lc)
readlines:
	for {
		line, err := tp.ReadLine()
		if lc.exceeded() || len(line) > c.lineLimit {
			c.logs.Debug("handleConn '%s' err='%v'", raddr, errLineTooLong)
			tp.PrintfLine(REPLY_FAIL)
			break readlines
		}
		if err != nil {
			if err != io.EOF {
				c.logs.Debug("handleConn '%s' err='%v'", raddr, err)
			}
			break readlines
		}
		reply, quit := c.HandleCommand(line, socket)
		if quit {
			break readlines
		}
		if err := tp.PrintfLine("%s", reply); err != nil {
			c.logs.Debug("handleConn '%s' write err='%v'", raddr, err)
			break readlines
		}
	} // end for readlines
	c.logs.Debug("handleConn LEFT: '%s'", raddr)
} // end func handleSocketConn

// HandleCommand executes one protocol line against the database.
// quit is set for an empty line or exit.
func (c *SOCKET) HandleCommand(line string, socket bool) (reply string, quit bool) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return "", true
	}
	switch strings.ToLower(words[0]) {
	case VERB_SET:
		if len(words) != 3 {
			return REPLY_FAIL, false
		}
		if err := c.db.Set(words[1], words[2]); err != nil {
			c.logs.Debug("SOCKET set key='%s' err='%v'", words[1], err)
			return REPLY_FAIL, false
		}
		return REPLY_OK, false

	case VERB_GET:
		if len(words) != 2 {
			return REPLY_FAIL, false
		}
		val, err := c.db.Get(words[1])
		if err != nil {
			c.logs.Debug("SOCKET get key='%s' err='%v'", words[1], err)
			return REPLY_FAIL, false
		}
		return REPLY_VALUE + val, false

	case VERB_REMOVE:
		if len(words) != 2 {
			return REPLY_FAIL, false
		}
		if err := c.db.Del(words[1]); err != nil {
			c.logs.Debug("SOCKET remove key='%s' err='%v'", words[1], err)
			return REPLY_FAIL, false
		}
		return REPLY_OK, false

	case VERB_COUNT:
		if len(words) != 1 {
			return REPLY_FAIL, false
		}
		return fmt.Sprintf("%s%d", REPLY_COUNT, c.db.Count()), false

	case VERB_EXIT:
		return "", true

	case VERB_MEMPROF:
		if !socket || Prof == nil {
			return REPLY_FAIL, false
		}
		// memprof         <--- run capture 30 sec instantly
		// memprof 60,30   <--- runs 60 secs but waits 30 sec before
		runi, waiti := 30, 0
		if len(words) > 1 {
			if args := utils.SplitCSV(words[1]); len(args) == 2 {
				run, wait := utils.Str2int(args[0]), utils.Str2int(args[1])
				if run > 0 && wait >= 0 {
					runi, waiti = run, wait
				}
			}
		}
		go func(runi int, waiti int) {
			// queues behind a running profile
			c.mem.Lock()
			defer c.mem.Unlock()
			c.logs.Info("StartMemProfile run=(%d sec) wait=(%d sec)", runi, waiti)
			Prof.StartMemProfile(time.Duration(runi)*time.Second, time.Duration(waiti)*time.Second)
		}(runi, waiti)
		return fmt.Sprintf("%s StartMemProfile run=%d wait=%d", REPLY_OK, runi, waiti), false

	case VERB_CPUPROF:
		if !socket || Prof == nil {
			return REPLY_FAIL, false
		}
		c.cpu.Lock()
		defer c.cpu.Unlock()
		if c.CPUfile != nil {
			Prof.StopCPUProfile()
			c.CPUfile = nil
			return REPLY_OK + " StopCPUProfile", false
		}
		CPUfile, err := Prof.StartCPUProfile()
		if err != nil || CPUfile == nil {
			c.logs.Error("SOCKET StartCPUProfile err='%v'", err)
			return REPLY_FAIL, false
		}
		c.CPUfile = CPUfile
		return REPLY_OK + " StartCPUProfile", false
	}
	return REPLY_FAIL, false
} // end func HandleCommand

func getRemoteIP(conn net.Conn) string {
	switch addr := conn.RemoteAddr().(type) {
	case *net.TCPAddr:
		return addr.IP.String()
	case nil:
		return "x"
	default:
		return addr.String()
	}
}

type AccessControlList struct {
	mux sync.RWMutex
	acl map[string]bool
}

// NewACL allows every IP in ips.
func NewACL(ips []string) *AccessControlList {
	a := &AccessControlList{acl: make(map[string]bool, len(ips))}
	for _, ip := range ips {
		a.SetACL(ip, true)
	}
	return a
}

func (a *AccessControlList) IsAllowed(ip string) bool {
	a.mux.RLock()
	retval := a.acl[ip]
	a.mux.RUnlock()
	return retval
}

func (a *AccessControlList) SetACL(ip string, val bool) {
	a.mux.Lock()
	defer a.mux.Unlock()
	if !val { // unset
		delete(a.acl, ip)
		return
	}
	a.acl[ip] = val
}
