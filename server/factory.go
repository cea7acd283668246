package server

import (
	"sync"

	"github.com/go-while/nodare-hashing/logger"
)

type Factory struct {
	mux sync.Mutex
}

func NewFactory() *Factory {
	return &Factory{}
}

// NewNDBServer applies the configured loglevel and returns
// an https server if tls is enabled, else plain http.
func (f *Factory) NewNDBServer(vcfg VConfig, ndbServer WebMux, logs ilog.ILOG, stop_chan <-chan struct{}, wg *sync.WaitGroup) Server {
	f.mux.Lock()
	defer f.mux.Unlock()

	lvlstr := vcfg.GetString(VK_LOG_LOGLEVEL)
	logs.SetLOGLEVEL(ilog.GetLOGLEVEL(lvlstr))

	if vcfg.GetBool(VK_SEC_TLS_ENABLED) {
		logs.Debug("Factory TLS lvlstr='%s' loglvl=%d", lvlstr, logs.GetLOGLEVEL())
		return NewHttpsServer(vcfg, ndbServer, logs, stop_chan, wg)
	}
	logs.Debug("Factory TCP lvlstr='%s' loglvl=%d", lvlstr, logs.GetLOGLEVEL())
	return NewHttpServer(vcfg, ndbServer, logs, stop_chan, wg)
}
