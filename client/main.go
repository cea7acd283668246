/*
 * Line Client App
 *
 * reads commands from stdin and prints the server replies.
 * -bench N inserts N random key:vals instead and verifies them.
 */
package main

import (
	"bufio"
	crand "crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-while/nodare-hashing/client/clilib"
	"github.com/go-while/nodare-hashing/logger"
)

var (
	addr     string
	mode     int // mode=1=http(s) || mode=2=raw tcp (with tls)
	ssl      bool
	insecure bool
	bench    int
	keylen   int
	vallen   int
	logfile  string
)

func main() {
	flag.StringVar(&addr, "addr", "", "uri to non-default http(s) or socket (addr:port)")
	flag.IntVar(&mode, "mode", client.MODE_SOCKET, "mode=1=http(s) | mode=2=socket")
	flag.BoolVar(&ssl, "ssl", false, "use secure connection")
	flag.BoolVar(&insecure, "insecure", false, "skip tls certificate verification")
	flag.IntVar(&bench, "bench", 0, "insert and verify N random key:vals, then quit")
	flag.IntVar(&keylen, "keylen", 16, "set length of key. used with -bench")
	flag.IntVar(&vallen, "vallen", 16, "set length of val. used with -bench")
	flag.StringVar(&logfile, "logfile", "", "logfile for client")
	flag.Parse()

	logs := ilog.NewLogger(ilog.GetEnvLOGLEVEL(), logfile)
	netCli, err := client.NewClient(&client.Options{
		Addr:        addr,
		Mode:        mode,
		SSL:         ssl,
		SSLinsecure: insecure,
		Logs:        logs,
	})
	if err != nil {
		logs.Fatal("NewClient err='%v'", err)
	}
	defer netCli.Close()

	if bench > 0 {
		runBench(netCli, logs)
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.EqualFold(line, "exit") {
			return
		}
		reply, err := send(netCli, line)
		if err != nil {
			logs.Error("send line='%s' err='%v'", line, err)
			return
		}
		fmt.Println(reply)
	}
} // end func main

// send maps a protocol line onto the http routes in http mode.
func send(netCli *client.Client, line string) (string, error) {
	if netCli.Mode() != client.MODE_HTTP {
		return netCli.Send(line)
	}
	words := strings.Fields(line)
	switch {
	case len(words) == 3 && strings.EqualFold(words[0], "set"):
		if err := netCli.HTTPSet(words[1], words[2]); err != nil {
			return "Fail", nil
		}
		return "OK", nil
	case len(words) == 2 && strings.EqualFold(words[0], "get"):
		val, found, err := netCli.HTTPGet(words[1])
		if err != nil || !found {
			return "Fail", err
		}
		return "Value: " + val, nil
	case len(words) == 2 && strings.EqualFold(words[0], "remove"):
		removed, err := netCli.HTTPDel(words[1])
		if err != nil || !removed {
			return "Fail", err
		}
		return "OK", nil
	}
	return "Fail", nil
}

func runBench(netCli *client.Client, logs ilog.ILOG) {
	testmap := make(map[string]string, bench)
	start := time.Now()
	for len(testmap) < bench {
		var key, val string
		DevUrandomString(keylen, &key)
		DevUrandomString(vallen, &val)
		var err error
		if netCli.Mode() == client.MODE_HTTP {
			err = netCli.HTTPSet(key, val)
		} else {
			err = netCli.Set(key, val)
		}
		if err != nil {
			logs.Fatal("Set key='%s' err='%v'", key, err)
		}
		testmap[key] = val
	}
	inserted := time.Since(start)
	for k, v := range testmap {
		var val string
		var found bool
		var err error
		if netCli.Mode() == client.MODE_HTTP {
			val, found, err = netCli.HTTPGet(k)
		} else {
			val, found, err = netCli.Get(k)
		}
		if err != nil || !found || val != v {
			logs.Fatal("FAILED verify k='%s' v='%s' != val='%s' found=%t err='%v'", k, v, val, found, err)
		}
	}
	logs.Info("bench done: items=%d insert=%v check=%v", bench, inserted, time.Since(start)-inserted)
} // end func runBench

func DevUrandomString(length int, retstr *string) {
	uselen := length / 2
	if uselen <= 0 {
		uselen = 1
	}
	b := make([]byte, uselen)
	crand.Read(b)
	*retstr = hex.EncodeToString(b)
} // end func DevUrandomString
