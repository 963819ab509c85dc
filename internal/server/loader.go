package server

import (
	_ "embed"
	"net/http"
	"strconv"
	"strings"

	"github.com/five82/stylefix/internal/bridge"
	"github.com/five82/stylefix/internal/dom"
)

//go:embed loader.js
var loaderTemplate string

// loaderScript renders the host-page loader once per server.
func (s *Server) loaderScript() []byte {
	s.loaderOnce.Do(func() {
		interval := s.handle.Injector.Config().PollInterval.Milliseconds()
		r := strings.NewReplacer(
			"__NAMESPACE__", bridge.Namespace,
			"__LINK_ID__", dom.StyleID+"-link",
			"__POLL_INTERVAL_MS__", strconv.FormatInt(interval, 10),
		)
		s.loader = []byte(r.Replace(loaderTemplate))
	})
	return s.loader
}

func (s *Server) handleLoader(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(s.loaderScript())
}
