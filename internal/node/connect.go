// internal/node/connect.go
package node

import (
	"log"

	"github.com/tamzrod/scom-bridge/internal/config"
)

// Connect builds one Manager/Observer pair per site, once, at startup.
//
// Sites without an interface get no manager. A site whose bus cannot be
// opened is logged and left out for the life of the process; the other
// sites are unaffected.
func Connect(sites []config.Site, template config.Bus, open Opener, logger *log.Logger) []*Observer {
	if logger == nil {
		logger = log.Default()
	}

	var out []*Observer
	for _, s := range sites {
		if s.Interface == "" {
			logger.Printf("site skipped (site=%s): no interface", s.ID)
			continue
		}

		m, err := Open(s.ID, template.ForSite(s), open)
		if err != nil {
			logger.Printf("site connect failed (site=%s): %v", s.ID, err)
			continue
		}
		m.SetLogger(logger)

		out = append(out, NewObserver(m))
	}
	return out
}
