package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-while/nodare-hashing/database"
	"github.com/go-while/nodare-hashing/logger"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WebMux interface {
	CreateMux() *mux.Router
	HandlerGetValByKey(w http.ResponseWriter, r *http.Request)
	HandlerSet(w http.ResponseWriter, r *http.Request)
	HandlerDel(w http.ResponseWriter, r *http.Request)
	HandlerStats(w http.ResponseWriter, r *http.Request)
}

type XNDBServer struct {
	db   *database.XDatabase
	logs ilog.ILOG
}

func NewXNDBServer(db *database.XDatabase, logs ilog.ILOG) *XNDBServer {
	return &XNDBServer{
		db:   db,
		logs: logs,
	}
}

// CreateMux matches on the escaped, uncleaned path
// so a key may hold '/' or be "..".
func (srv *XNDBServer) CreateMux() *mux.Router {
	r := mux.NewRouter().UseEncodedPath().SkipClean(true)
	r.HandleFunc("/get/{"+KEY_PARAM+"}", srv.HandlerGetValByKey)
	r.HandleFunc("/del/{"+KEY_PARAM+"}", srv.HandlerDel)
	r.HandleFunc("/set", srv.HandlerSet)
	r.HandleFunc("/stats", srv.HandlerStats)
	r.HandleFunc("/loglevel/{"+KEY_PARAM+"}", srv.SetLogLvl)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (srv *XNDBServer) HandlerGetValByKey(w http.ResponseWriter, r *http.Request) {
	nilheader(w)

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		srv.logs.Warn("server /get/ method not allowed ")
		return
	}

	key, ok := keyVar(r)
	if !ok {
		w.WriteHeader(http.StatusNotAcceptable) // 406
		return
	}

	val, err := srv.db.Get(key)
	if err != nil {
		srv.logs.Debug("HandlerGetValByKey key='%s' err='%v'", key, err)
		w.WriteHeader(http.StatusGone) // 410
		return
	}

	// response as raw plain text with VAL only
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(val))
} // end func HandlerGetValByKey

func (srv *XNDBServer) HandlerSet(w http.ResponseWriter, r *http.Request) {
	nilheader(w)

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var data map[string]string
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil || len(data) == 0 {
		w.WriteHeader(http.StatusNotAcceptable) // 406
		return
	}

	for key, value := range data {
		if err := srv.db.Set(key, value); err != nil { // always overwrites
			srv.logs.Warn("HandlerSet key='%s' err='%v'", key, err)
			if errors.Is(err, database.ErrInvalidArgument) {
				w.WriteHeader(http.StatusNotAcceptable)
				return
			}
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(http.StatusCreated)
} // end func HandlerSet

func (srv *XNDBServer) HandlerDel(w http.ResponseWriter, r *http.Request) {
	nilheader(w)
	if r.Method != http.MethodGet {
		srv.logs.Warn("HandlerDel r.Method != http.MethodGet")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	key, ok := keyVar(r)
	if !ok {
		w.WriteHeader(http.StatusNotAcceptable) // 406
		return
	}
	srv.logs.Debug("HandlerDel key='%s'", key)

	if err := srv.db.Del(key); err != nil {
		if errors.Is(err, database.ErrKeyNotFound) {
			w.WriteHeader(http.StatusGone) // 410
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
} // end func HandlerDel

func (srv *XNDBServer) HandlerStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	response, err := json.Marshal(srv.db.Stats())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(response)
}

func (srv *XNDBServer) SetLogLvl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	key := mux.Vars(r)[KEY_PARAM]
	lvl, ok := ilog.LEVELS[strings.ToUpper(key)]
	if !ok {
		w.WriteHeader(http.StatusNotAcceptable) // 406
		return
	}
	srv.logs.SetLOGLEVEL(lvl)
	srv.logs.Info("SetLogLvl '%s'", key)
	w.WriteHeader(http.StatusOK)
}

// keyVar returns the unescaped {key} path value.
func keyVar(r *http.Request) (string, bool) {
	key, err := url.PathUnescape(mux.Vars(r)[KEY_PARAM])
	if err != nil || key == "" {
		return "", false
	}
	return key, true
}

func nilheader(w http.ResponseWriter) {
	w.Header()["Date"] = nil
	w.Header()["Content-Type"] = nil
	w.Header()["Content-Length"] = nil
	w.Header()["X-Content-Type-Options"] = nil
	w.Header()["Transfer-Encoding"] = nil
}
