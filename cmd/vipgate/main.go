// Command vipgate serves the role-gated JSON API for a single local user.
//
//	vipgate -env .env.local
//
// Backends are chosen with DIRECTORY_BACKEND, SESSION_BACKEND and
// PAYMENT_BACKEND; see appConfig for the rest of the environment.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrymomot/vipgate/pkg/config"
	"github.com/dmitrymomot/vipgate/pkg/logger"
	"github.com/dmitrymomot/vipgate/pkg/requestid"
	"github.com/dmitrymomot/vipgate/pkg/session"
)

func main() {
	envFiles := flag.String("env", "", "comma separated .env files to load in addition to ./.env")
	flag.Parse()

	var cfg appConfig
	if err := config.Load(&cfg, config.WithEnvFiles(splitList(*envFiles)...)); err != nil {
		fmt.Fprintln(os.Stderr, "vipgate: load config:", err)
		os.Exit(2)
	}

	log := logger.New(
		logger.FromConfig(cfg.Logger),
		logger.WithContextExtractors(requestid.LogExtractor, session.LogExtractor),
	)
	logger.SetAsDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("vipgate stopped", logger.Error(err))
		os.Exit(1)
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
