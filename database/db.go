package database

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-while/nodare-hashing/logger"
	"github.com/go-while/nodare-hashing/metrics"
)

const (
	OP_GET = "get"
	OP_SET = "set"
	OP_DEL = "del"

	RESULT_OK       = "ok"
	RESULT_NOTFOUND = "notfound"
	RESULT_ERROR    = "error"
)

type DBOptions struct {
	Backend   Backend
	Capacity  int
	Threshold float64 // linear backend only, 0 means default
	HashMode  int
}

// XDatabase owns one string dictionary and serializes every command
// through a single critical section.
type XDatabase struct {
	mux      sync.Mutex
	dict     Dictionary[string, string]
	Backend  Backend
	HashMode int
	BootT    int64
	logs     ilog.ILOG
}

func NewDB(logs ilog.ILOG, opts DBOptions) (*XDatabase, error) {
	hasher, err := StringHasher(opts.HashMode)
	if err != nil {
		return nil, err
	}
	var dict Dictionary[string, string]
	switch {
	case opts.Backend == BACKEND_LINEAR && opts.Threshold != 0:
		dict, err = NewLinearMapThreshold[string, string](opts.Capacity, opts.Threshold, hasher)
	default:
		dict, err = New[string, string](opts.Backend, opts.Capacity, hasher)
	}
	if err != nil {
		return nil, err
	}
	db := &XDatabase{
		dict:     dict,
		Backend:  opts.Backend,
		HashMode: opts.HashMode, // must not change on runtime
		BootT:    time.Now().Unix(),
		logs:     logs,
	}
	logs.Info("NewDB backend=%s capacity=%d threshold=%v hashmode=%s", opts.Backend, opts.Capacity, opts.Threshold, HASHMODES[opts.HashMode])
	db.updateLayout(db.stats())
	return db, nil
} // end func NewDB

func (db *XDatabase) Get(key string) (string, error) {
	start := time.Now()
	db.mux.Lock()
	val, err := db.dict.Get(key)
	db.mux.Unlock()
	db.observe(OP_GET, start, err)
	return val, err
}

func (db *XDatabase) Set(key string, value string) error {
	start := time.Now()
	db.mux.Lock()
	before := db.stats()
	err := db.dict.Set(key, value)
	after := db.stats()
	db.mux.Unlock()
	db.observe(OP_SET, start, err)
	if err == nil {
		if after.Buckets != before.Buckets {
			metrics.IncGrowth(string(db.Backend))
			db.logs.Debug("Set key='%s' grew buckets %d => %d", key, before.Buckets, after.Buckets)
		}
		db.updateLayout(after)
	}
	return err
} // end func Set

func (db *XDatabase) Del(key string) error {
	start := time.Now()
	db.mux.Lock()
	err := db.dict.Remove(key)
	after := db.stats()
	db.mux.Unlock()
	db.observe(OP_DEL, start, err)
	if err == nil {
		db.updateLayout(after)
	}
	return err
}

func (db *XDatabase) Count() int {
	db.mux.Lock()
	defer db.mux.Unlock()
	return db.dict.Count()
}

func (db *XDatabase) Stats() Stats {
	db.mux.Lock()
	defer db.mux.Unlock()
	return db.stats()
}

// stats expects db.mux held.
func (db *XDatabase) stats() Stats {
	if sp, ok := db.dict.(StatsProvider); ok {
		return sp.Stats()
	}
	return Stats{Backend: db.Backend, Count: db.dict.Count()}
}

func (db *XDatabase) updateLayout(s Stats) {
	metrics.SetLayout(string(db.Backend), s.Count, s.Buckets)
}

func (db *XDatabase) observe(op string, start time.Time, err error) {
	result := RESULT_OK
	switch {
	case err == nil:
	case errors.Is(err, ErrKeyNotFound):
		result = RESULT_NOTFOUND
	default:
		result = RESULT_ERROR
	}
	metrics.IncOp(string(db.Backend), op, result)
	metrics.ObserveOpLatency(string(db.Backend), op, float64(time.Since(start).Nanoseconds())/1e3)
}

func (db *XDatabase) String() string {
	s := db.Stats()
	return fmt.Sprintf("XDatabase{backend=%s count=%d buckets=%d boot=%d}", s.Backend, s.Count, s.Buckets, db.BootT)
}

// WatchDog logs layout statistics every interval while debug logging is on.
// It returns when stop is closed.
func (db *XDatabase) WatchDog(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !db.logs.IfDebug() {
				continue
			}
			s := db.Stats()
			if s.Count == 0 {
				continue
			}
			db.logs.Debug("watchDog backend=%s count=%d buckets=%d dir=%d depth=%d split=%d base=%d",
				s.Backend, s.Count, s.Buckets, s.DirectorySize, s.GlobalDepth, s.SplitPointer, s.Base)
		}
	}
} // end func WatchDog
