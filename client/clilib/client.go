// provides a go module to establish connection to nodare-hashing
package client

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-while/nodare-hashing/logger"
)

const (
	MODE_HTTP   = 1
	MODE_SOCKET = 2

	DefaultAddr          = "localhost:2420"
	DefaultAddrTCPsocket = "localhost:3420"
	DefaultAddrTLSsocket = "localhost:4420"

	DefaultClientConnectTimeout = time.Duration(9 * time.Second)
	DefaultRequestTimeout       = time.Duration(9 * time.Second)

	replyOK    = "OK"
	replyFail  = "Fail"
	replyValue = "Value: "
	replyCount = "Count: "
)

var (
	// ErrFail is returned when the server replied Fail.
	ErrFail = errors.New("server replied Fail")
	// ErrBadToken rejects keys and values the line protocol cannot carry.
	ErrBadToken = errors.New("empty or whitespace in key or value")
	ErrBadMode  = errors.New("invalid client mode")
	ErrClosed   = errors.New("client closed")
)

type Options struct {
	Addr        string
	Mode        int // 1=http(s) 2=socket
	SSL         bool
	SSLinsecure bool
	LogFile     string
	Logs        ilog.ILOG
}

type Client struct {
	logs     ilog.ILOG
	mux      sync.Mutex
	addr     string
	url      string
	mode     int
	ssl      bool
	insecure bool
	conn     net.Conn
	tp       *textproto.Conn
	http     *http.Client
}

func NewClient(opts *Options) (*Client, error) {
	if opts.Addr == "" {
		// no addr:port supplied
		switch {
		case opts.Mode == MODE_HTTP:
			opts.Addr = DefaultAddr
		case opts.SSL:
			opts.Addr = DefaultAddrTLSsocket
		default:
			opts.Addr = DefaultAddrTCPsocket
		}
	}
	logs := opts.Logs
	if logs == nil {
		logs = ilog.NewLogger(ilog.GetEnvLOGLEVEL(), opts.LogFile)
	}
	c := &Client{
		logs:     logs,
		addr:     opts.Addr,
		mode:     opts.Mode,
		ssl:      opts.SSL,
		insecure: opts.SSLinsecure,
	}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) Mode() int {
	return c.mode
}

func (c *Client) connect() error {
	c.mux.Lock()
	defer c.mux.Unlock()
	switch c.mode {
	case MODE_HTTP:
		c.setupHTTPtransport()
		return nil

	case MODE_SOCKET:
		dialer := &net.Dialer{Timeout: DefaultClientConnectTimeout}
		var conn net.Conn
		var err error
		if c.ssl {
			conf := &tls.Config{
				InsecureSkipVerify: c.insecure,
				MinVersion:         tls.VersionTLS12,
			}
			c.logs.Info("client connecting to tls://'%s'", c.addr)
			conn, err = tls.DialWithDialer(dialer, "tcp", c.addr, conf)
		} else {
			c.logs.Info("client connecting to tcp://'%s'", c.addr)
			conn, err = dialer.Dial("tcp", c.addr)
		}
		if err != nil {
			c.logs.Error("client dial '%s' err='%v'", c.addr, err)
			return err
		}
		c.conn = conn
		c.tp = textproto.NewConn(conn)
		c.logs.Debug("client established '%s'", conn.RemoteAddr())
		return nil
	}
	c.logs.Error("client invalid mode=%d", c.mode)
	return fmt.Errorf("%w: %d", ErrBadMode, c.mode)
} // end func connect

// Send writes one command line and returns the reply line.
func (c *Client) Send(line string) (string, error) {
	c.mux.Lock() // one command in flight per connection
	defer c.mux.Unlock()
	if c.tp == nil {
		return "", ErrClosed
	}
	if err := c.conn.SetDeadline(time.Now().Add(DefaultRequestTimeout)); err != nil {
		return "", err
	}
	if err := c.tp.PrintfLine("%s", line); err != nil {
		c.logs.Error("client Send err='%v'", err)
		return "", err
	}
	reply, err := c.tp.ReadLine()
	if err != nil {
		c.logs.Error("client ReadLine err='%v'", err)
		return "", err
	}
	c.logs.Debug("client Send line='%s' reply='%s'", line, reply)
	return reply, nil
}

func (c *Client) Set(key string, value string) error {
	if !validToken(key) || !validToken(value) {
		return ErrBadToken
	}
	reply, err := c.Send("set " + key + " " + value)
	if err != nil {
		return err
	}
	if reply != replyOK {
		return ErrFail
	}
	return nil
}

// Get returns found=false if the server replied Fail.
func (c *Client) Get(key string) (val string, found bool, err error) {
	if !validToken(key) {
		return "", false, ErrBadToken
	}
	reply, err := c.Send("get " + key)
	if err != nil {
		return "", false, err
	}
	if !strings.HasPrefix(reply, replyValue) {
		return "", false, nil
	}
	return strings.TrimPrefix(reply, replyValue), true, nil
}

func (c *Client) Remove(key string) (removed bool, err error) {
	if !validToken(key) {
		return false, ErrBadToken
	}
	reply, err := c.Send("remove " + key)
	if err != nil {
		return false, err
	}
	return reply == replyOK, nil
}

func (c *Client) Count() (int, error) {
	reply, err := c.Send("count")
	if err != nil {
		return 0, err
	}
	if !strings.HasPrefix(reply, replyCount) {
		return 0, ErrFail
	}
	return strconv.Atoi(strings.TrimPrefix(reply, replyCount))
}

// Close sends exit on socket connections and closes them.
func (c *Client) Close() error {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.http != nil {
		c.http.CloseIdleConnections()
		c.http = nil
	}
	if c.tp == nil {
		return nil
	}
	c.tp.PrintfLine("exit")
	err := c.tp.Close()
	c.tp, c.conn = nil, nil
	return err
}

func validToken(s string) bool {
	return s != "" && !strings.ContainsAny(s, " \t\r\n")
}

func (c *Client) setupHTTPtransport() {
	if c.url == "" {
		if c.ssl {
			c.url = "https://" + c.addr
		} else {
			c.url = "http://" + c.addr
		}
	}
	t := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   DefaultClientConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: DefaultClientConnectTimeout,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: c.insecure, MinVersion: tls.VersionTLS12},
	}
	c.http = &http.Client{
		Transport: t,
		Timeout:   DefaultRequestTimeout,
	}
	c.logs.Debug("setupHTTPtransport url='%s'", c.url)
}

func (c *Client) httpClient() (*http.Client, error) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.http == nil {
		return nil, ErrClosed
	}
	return c.http, nil
}

// HTTPGet returns found=false on 410.
func (c *Client) HTTPGet(key string) (val string, found bool, err error) {
	hc, err := c.httpClient()
	if err != nil {
		return "", false, err
	}
	resp, err := hc.Get(c.url + "/get/" + url.PathEscape(key))
	if err != nil {
		c.logs.Error("c.http.Get err='%v'", err)
		return "", false, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logs.Error("c.http.Get respBody err='%v'", err)
		return "", false, err
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return string(body), true, nil
	case http.StatusGone:
		return "", false, nil
	}
	return "", false, fmt.Errorf("HTTPGet key='%s' status=%d", key, resp.StatusCode)
}

func (c *Client) HTTPSet(key string, value string) error {
	hc, err := c.httpClient()
	if err != nil {
		return err
	}
	data, err := json.Marshal(map[string]string{key: value})
	if err != nil {
		return err
	}
	resp, err := hc.Post(c.url+"/set", "application/json", bytes.NewReader(data))
	if err != nil {
		c.logs.Error("c.http.Set err='%v'", err)
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("HTTPSet key='%s' status=%d", key, resp.StatusCode)
	}
	return nil
}

// HTTPDel returns removed=false on 410.
func (c *Client) HTTPDel(key string) (removed bool, err error) {
	hc, err := c.httpClient()
	if err != nil {
		return false, err
	}
	resp, err := hc.Get(c.url + "/del/" + url.PathEscape(key))
	if err != nil {
		c.logs.Error("c.http.Del err='%v'", err)
		return false, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusGone:
		return false, nil
	}
	return false, fmt.Errorf("HTTPDel key='%s' status=%d", key, resp.StatusCode)
}
