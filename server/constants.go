package server

import (
	prof "github.com/go-while/go-cpu-mem-profiler"
	"github.com/go-while/nodare-hashing/database"
	"github.com/go-while/nodare-hashing/logger"
)

var Prof *prof.Profiler

const (
	DEFAULT_CONFIG_FILE = "config.toml"
	DEFAULT_ENV_FILE    = ".env"

	DEFAULT_LOGS_FILE    = "ndb.log"
	DEFAULT_LOGLEVEL_STR = "INFO"
	DEFAULT_LOGLEVEL_INT = ilog.INFO

	DEFAULT_BACKEND   = string(database.BACKEND_LINEAR)
	DEFAULT_CAPACITY  = 2
	DEFAULT_THRESHOLD = database.DEFAULT_LINEAR_THRESHOLD
	DEFAULT_HASHMODE  = database.HASH_FNV64A

	DEFAULT_SERVER_ADDR            = "::1"
	DEFAULT_SERVER_TCP_PORT        = "2420"
	DEFAULT_SERVER_SOCKET_PATH     = "/tmp/ndb.socket"
	DEFAULT_SERVER_SOCKET_TCP_PORT = "3420"
	DEFAULT_SERVER_SOCKET_TLS_PORT = "4420"

	DEFAULT_TLS_PRIVKEY = "privkey.pem"
	DEFAULT_TLS_PUBCERT = "fullchain.pem"
	CONFIG_DIR          = "cfg"

	// WEB ROUTER PARAMS
	KEY_PARAM = "key"

	// socket proto verbs
	VERB_SET     = "set"
	VERB_GET     = "get"
	VERB_REMOVE  = "remove"
	VERB_COUNT   = "count"
	VERB_EXIT    = "exit"
	VERB_MEMPROF = "memprof" // unix socket only
	VERB_CPUPROF = "cpuprof" // unix socket only

	// socket proto replies
	REPLY_OK    = "OK"
	REPLY_FAIL  = "Fail"
	REPLY_VALUE = "Value: "
	REPLY_COUNT = "Count: "

	LINE_LIMIT = 1024 * 1024

	// VIPER CONFIG DEFAULTS
	V_DEFAULT_TLS_ENABLED              = false
	V_DEFAULT_NET_WEBSRV_READ_TIMEOUT  = 5
	V_DEFAULT_NET_WEBSRV_WRITE_TIMEOUT = 10
	V_DEFAULT_NET_WEBSRV_IDLE_TIMEOUT  = 120
	V_DEFAULT_SERVER_SOCKET_ACL        = "127.0.0.1,::1"
	V_DEFAULT_WATCHDOG_SECONDS         = 60

	// VIPER CONFIG KEYS
	VK_LOG_LOGLEVEL = "log.loglevel"
	VK_LOG_LOGFILE  = "log.logfile"

	VK_SETTINGS_BACKEND   = "settings.backend"
	VK_SETTINGS_CAPACITY  = "settings.capacity"
	VK_SETTINGS_THRESHOLD = "settings.threshold"
	VK_SETTINGS_HASHMODE  = "settings.hashmode"
	VK_SETTINGS_WATCHDOG  = "settings.watchdog_seconds"

	VK_SEC_TLS_ENABLED = "security.tls_enabled"
	VK_SEC_TLS_PRIVKEY = "security.tls_priv_key"
	VK_SEC_TLS_PUBCERT = "security.tls_pub_cert"

	VK_NET_WEBSRV_READ_TIMEOUT  = "network.websrv_read_timeout"
	VK_NET_WEBSRV_WRITE_TIMEOUT = "network.websrv_write_timeout"
	VK_NET_WEBSRV_IDLE_TIMEOUT  = "network.websrv_idle_timeout"

	VK_SERVER_HOST            = "server.bindip"
	VK_SERVER_PORT_TCP        = "server.port"
	VK_SERVER_SOCKET_PATH     = "server.socket_path"
	VK_SERVER_SOCKET_PORT_TCP = "server.socket_tcpport"
	VK_SERVER_SOCKET_PORT_TLS = "server.socket_tlsport"
	VK_SERVER_SOCKET_ACL      = "server.socket_acl"

	// ENV KEYS
	ENVK_LOGLEVEL = "LOGLEVEL"
	ENVK_LOGSFILE = "LOGSFILE"

	ENVK_NDB_BACKEND   = "NDB_BACKEND"
	ENVK_NDB_CAPACITY  = "NDB_CAPACITY"
	ENVK_NDB_THRESHOLD = "NDB_THRESHOLD"
	ENVK_NDB_HASHMODE  = "NDB_HASHMODE"
	ENVK_NDB_WATCHDOG  = "NDB_WATCHDOG_SECONDS"

	ENVK_NDB_TLS_ENABLED = "NDB_TLS_ENABLED"
	ENVK_NDB_TLS_PRIVKEY = "NDB_TLS_PRIVKEY"
	ENVK_NDB_TLS_PUBCERT = "NDB_TLS_PUBCERT"

	ENVK_NDB_WEBSRV_READ_TIMEOUT  = "NDB_WEBSRV_READ_TIMEOUT"
	ENVK_NDB_WEBSRV_WRITE_TIMEOUT = "NDB_WEBSRV_WRITE_TIMEOUT"
	ENVK_NDB_WEBSRV_IDLE_TIMEOUT  = "NDB_WEBSRV_IDLE_TIMEOUT"

	ENVK_NDB_HOST                   = "NDB_HOST"
	ENVK_NDB_PORT                   = "NDB_PORT"
	ENVK_NDB_SERVER_SOCKET_PATH     = "NDB_SERVER_SOCKET_PATH"
	ENVK_NDB_SERVER_SOCKET_TCP_PORT = "NDB_SERVER_SOCKET_TCP_PORT"
	ENVK_NDB_SERVER_SOCKET_TLS_PORT = "NDB_SERVER_SOCKET_TLS_PORT"
	ENVK_NDB_SERVER_SOCKET_ACL      = "NDB_SERVER_SOCKET_ACL"
) // end const
