package mainboilerplate

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// DiagnosticsConfig configures pull-based application metrics.
type DiagnosticsConfig struct {
	Port string `long:"port" env:"PORT" description:"Port at which /debug/metrics and /debug/ready are served. If empty, diagnostics are not served"`
}

// InitDiagnosticsAndRecover serves Prometheus metrics and a readiness check
// if a port is configured. It returns a closure which should be deferred,
// which logs and re-raises a panic of the program.
func InitDiagnosticsAndRecover(cfg DiagnosticsConfig) func() {
	if cfg.Port != "" {
		var mux = http.NewServeMux()
		mux.HandleFunc("/debug/ready", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		mux.Handle("/debug/metrics", promhttp.Handler())

		var ln, err = net.Listen("tcp", net.JoinHostPort("", cfg.Port))
		Must(err, "failed to bind diagnostics port", "port", cfg.Port)

		go func() {
			if err := http.Serve(ln, mux); err != nil {
				log.WithField("err", err).Warn("diagnostics server stopped")
			}
		}()
		log.WithField("addr", ln.Addr().String()).Info("serving diagnostics")
	}

	return func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("program panicked")
			panic(r)
		}
	}
}

// Must panics if |err| is non-nil, supplying |msg| and |extra| as
// formatter and fields of the generated panic.
func Must(err error, msg string, extra ...interface{}) {
	if err == nil {
		return
	}
	var f = log.Fields{"err": err}
	for i := 0; i+1 < len(extra); i += 2 {
		f[extra[i].(string)] = extra[i+1]
	}
	log.WithFields(f).Panic(msg)
}
