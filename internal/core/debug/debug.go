// Package debug contains the extra tooling enabled by the [debugging] config section.
package debug

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"

	"github.com/luserv/luserv/internal/packets"
)

// StartPprofServer starts the default pprof HTTP server that can be accessed via localhost
// to get runtime information about the server. See https://golang.org/pkg/net/http/pprof/
func StartPprofServer(logger logrus.FieldLogger, port int) {
	listenerAddr := fmt.Sprintf("localhost:%d", port)
	logger.Infof("starting pprof server on %s", listenerAddr)

	go func() {
		if err := http.ListenAndServe(listenerAddr, nil); err != nil {
			logger.Errorf("error starting pprof server: %s", err)
		}
	}()
}

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// DumpMessage writes the full contents of msg to logger at debug level. direction is
// "client" or "server" depending on who sent it.
func DumpMessage(logger logrus.FieldLogger, direction string, msg packets.Message) {
	logger.WithField("from", direction).Debugf("%s\n%s", packets.Name(msg), dumper.Sdump(msg))
}
