package main

import (
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	prof "github.com/go-while/go-cpu-mem-profiler"
	"github.com/go-while/nodare-hashing/database"
	"github.com/go-while/nodare-hashing/logger"
	"github.com/go-while/nodare-hashing/server"
	"github.com/go-while/nodare-hashing/utils"
)

var (
	wg              sync.WaitGroup
	flag_configfile string
	flag_envfile    string
	flag_logfile    string
	flag_backend    string
	flag_hashmode   int

	Prof      *prof.Profiler
	stop_chan chan struct{}
)

func main() {
	stop_chan = make(chan struct{})
	Prof = prof.NewProf()
	server.Prof = Prof

	// capture the flags: overwrites config file settings!
	flag.StringVar(&flag_configfile, "config", server.DEFAULT_CONFIG_FILE, "path to config.toml")
	flag.StringVar(&flag_envfile, "envfile", server.DEFAULT_ENV_FILE, "path to .env")
	flag.StringVar(&flag_logfile, "logfile", "", "path to ndb.log")
	flag.StringVar(&flag_backend, "backend", "", "sets backend: chained | extendible | linear")
	flag.IntVar(&flag_hashmode, "hashmode", 0, "sets hashmode:\n sipHash = 1\n FNV32A = 2\n FNV64A = 3\n XXHASH = 4\n CRC32 = 5\n")
	flag.Parse()

	// this first line prints LOGLEVEL="XX" to console but will never showup in logfile!
	logs := ilog.NewLogger(ilog.GetEnvLOGLEVEL(), flag_logfile)
	defer logs.Close()

	cfg, opts, err := server.NewViperConf(flag_configfile, flag_envfile, logs)
	if err != nil {
		logs.Fatal("config err='%v'", err)
	}
	if err := server.ApplyLogfile(cfg, logs, flag_logfile); err != nil {
		logs.Warn("logfile '%s' err='%v'", cfg.GetString(server.VK_LOG_LOGFILE), err)
	}
	if flag_backend != "" {
		backend, err := database.ParseBackend(flag_backend)
		if err != nil {
			logs.Fatal("flag -backend err='%v'", err)
		}
		opts.Backend = backend
	}
	if flag_hashmode > 0 {
		opts.HashMode = flag_hashmode
	}

	db, err := database.NewDB(logs, opts)
	if err != nil {
		logs.Fatal("NewDB err='%v'", err)
	}
	srv := server.NewFactory().NewNDBServer(cfg, server.NewXNDBServer(db, logs), logs, stop_chan, &wg)

	sockets := server.NewSocketHandler(db, logs, server.NewACL(utils.SplitCSV(cfg.GetString(server.VK_SERVER_SOCKET_ACL))))
	if err := sockets.StartFromConfig(cfg); err != nil {
		logs.Fatal("sockets err='%v'", err)
	}

	if logs.IfDebug() {
		logs.Debug("Loaded cfg host='%v' db='%s'", cfg.GetString(server.VK_SERVER_HOST), db)
		logs.Debug("launching PprofWeb @ :1234")
		go Prof.PprofWeb(":1234")
	}
	if secs := cfg.GetInt(server.VK_SETTINGS_WATCHDOG); secs > 0 {
		go db.WatchDog(time.Duration(secs)*time.Second, stop_chan)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	close(stop_chan) // force waiters to stop
	sockets.Stop()
	wg.Wait()
	logs.Info("Quit: %s", os.Args[0])
} // end func main
