package main

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Banjo7331/compezze-app-frontend-sub000/internal/config"
	"github.com/Banjo7331/compezze-app-frontend-sub000/internal/identity"
	"github.com/Banjo7331/compezze-app-frontend-sub000/internal/rest"
	"github.com/Banjo7331/compezze-app-frontend-sub000/internal/transport"
)

// appContext wires the shared collaborators behind every command: one
// REST client, one push connection per service domain, and a metrics
// registry. Connections are created lazily; a command that never
// subscribes never dials.
type appContext struct {
	cfg      *config.Config
	metrics  *transport.Metrics
	registry *prometheus.Registry

	quiz    *transport.Registry
	survey  *transport.Registry
	contest *transport.Registry

	restClient *rest.Client
}

func newAppContext(configPath string, verbose bool) (*appContext, error) {
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	promReg := prometheus.NewRegistry()
	app := &appContext{
		cfg:      cfg,
		registry: promReg,
		metrics:  transport.NewMetrics(promReg),
	}
	app.restClient = rest.NewClient(cfg.APIBaseURL, app.token)
	return app, nil
}

func (a *appContext) token() string { return a.cfg.Token }

func (a *appContext) quizRegistry() *transport.Registry {
	if a.quiz == nil {
		conn := transport.NewConn("quiz", a.cfg.QuizWSURL, a.token, a.metrics)
		a.quiz = transport.NewRegistry(conn, a.metrics)
	}
	return a.quiz
}

func (a *appContext) surveyRegistry() *transport.Registry {
	if a.survey == nil {
		conn := transport.NewConn("survey", a.cfg.SurveyWSURL, a.token, a.metrics)
		a.survey = transport.NewRegistry(conn, a.metrics)
	}
	return a.survey
}

func (a *appContext) contestRegistry() *transport.Registry {
	if a.contest == nil {
		conn := transport.NewConn("contest", a.cfg.ContestWSURL, a.token, a.metrics)
		a.contest = transport.NewRegistry(conn, a.metrics)
	}
	return a.contest
}

// whoAmI resolves the local identity from the configured token, or nil
// when no credential is present.
func (a *appContext) whoAmI() *identity.Identity {
	if a.cfg.Token == "" {
		return nil
	}
	id, err := identity.FromToken(a.cfg.Token)
	if err != nil {
		logrus.WithError(err).Warn("could not read identity from token")
		return nil
	}
	return id
}

// serveMetrics exposes the Prometheus registry when an address is set.
func (a *appContext) serveMetrics(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	go func() {
		logrus.WithField("addr", addr).Info("metrics listening")
		if err := http.ListenAndServe(addr, mux); err != nil {
			logrus.WithError(err).Warn("metrics server stopped")
		}
	}()
}

func newRootCmd() *cobra.Command {
	var (
		configPath  string
		metricsAddr string
		verbose     bool
	)

	root := &cobra.Command{
		Use:           "compezze",
		Short:         "Compezze live room client",
		Long:          "Terminal client for Compezze live rooms: follow quizzes, surveys and contests, answer, vote and drive rooms as a host.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "expose Prometheus metrics on this address")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	app := func() (*appContext, error) {
		a, err := newAppContext(configPath, verbose)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		a.serveMetrics(metricsAddr)
		return a, nil
	}

	root.AddCommand(
		newWatchCmd(app),
		newJoinCmd(app),
		newAnswerCmd(app),
		newSubmitCmd(app),
		newVoteCmd(app),
		newHostCmd(app),
	)
	return root
}
