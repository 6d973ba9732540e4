package main

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"pkt.systems/bookbdd"
	"pkt.systems/bookbdd/internal/config"
	"pkt.systems/bookbdd/internal/events"
	"pkt.systems/pslog"
)

func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [feature paths...]",
		Short: "Execute booking scenarios (embedded features when no path is given)",
		RunE:  runE,
	}

	addLoggingFlags(runCmd.Flags())
	runCmd.Flags().String("base-url", config.DefaultBaseURL, "Booking API base URL")
	runCmd.Flags().String("username", "", "Override fixture username")
	runCmd.Flags().String("password", "", "Override fixture password")
	runCmd.Flags().Duration("timeout", 15*time.Second, "Per-request timeout")
	runCmd.Flags().String("fixtures", "", "Path to fixture YAML (default: embedded fixtures)")
	runCmd.Flags().String("tags", "", "Tag expression selecting scenarios, e.g. \"@create && ~@slow\"")
	runCmd.Flags().Int("concurrency", 1, "Scenarios to run concurrently")
	runCmd.Flags().StringP("format", "f", "progress", "godog formatter: progress|pretty|cucumber|junit|events")
	runCmd.Flags().Bool("strict", true, "Fail on undefined or pending steps")
	runCmd.Flags().Bool("bail", false, "Stop after first failed scenario")
	runCmd.Flags().Bool("before-auth", true, "Authenticate in the Before hook of every scenario")
	runCmd.Flags().Bool("contract", true, "Enable the OpenAPI contract step")
	runCmd.Flags().String("report-json", "", "Write JSON report to path")
	runCmd.Flags().String("report-junit", "", "Write JUnit XML report to path")
	runCmd.Flags().String("report-html", "", "Write HTML report to path")
	runCmd.Flags().Bool("insecure", false, "Skip TLS verification")
	runCmd.Flags().String("cacert", "", "Path to custom CA certificate (PEM)")
	runCmd.Flags().Bool("noproxy", false, "Disable proxy (ignore environment)")
	runCmd.Flags().String("events-url", "", "POST run events as CloudEvents to this URL")

	return runCmd
}

func runE(cmd *cobra.Command, args []string) error {
	logger := loggerFromCmd(cmd)
	configFile, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	fx, err := cfg.FixtureSet()
	if err != nil {
		return fmt.Errorf("fixtures: %w", err)
	}
	httpClient, err := buildHTTPClient(cfg.Insecure, cfg.CACert, cfg.NoProxy)
	if err != nil {
		return fmt.Errorf("http client: %w", err)
	}

	opts := bookbdd.Options{
		BaseURL:       cfg.BaseURL,
		Fixtures:      fx,
		Paths:         args,
		Tags:          cfg.Tags,
		Concurrency:   cfg.Concurrency,
		Format:        cfg.Format,
		Output:        cmd.OutOrStdout(),
		Strict:        cfg.Strict,
		StopOnFailure: cfg.Bail,
		BeforeAuth:    cfg.BeforeAuth,
		Contract:      cfg.Contract,
		Timeout:       cfg.Timeout,
		HTTPClient:    httpClient,
		Logger:        logger,
	}
	if cfg.EventsURL != "" {
		deliver, err := events.HTTPDeliver(cfg.EventsURL)
		if err != nil {
			return err
		}
		opts.Sink = bookbdd.CloudEventSink{
			Deliver: deliver,
			OnError: func(err error) { logger.Warn("event delivery failed", "err", err) },
		}
	}

	summary, runErr := bookbdd.Run(cmd.Context(), opts)
	if runErr != nil && !errors.Is(runErr, bookbdd.ErrScenariosFailed) {
		return runErr
	}
	summary = bookbdd.RedactReport(summary, fx.Credentials.Password)
	if err := writeOutputs(cfg, summary); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	printSummary(summary, logger)
	return runErr
}

func buildHTTPClient(insecure bool, cacert string, noProxy bool) (*http.Client, error) {
	tlsConfig := &tls.Config{InsecureSkipVerify: insecure} //nolint:gosec // user opted in

	if cacert != "" {
		pemData, err := os.ReadFile(cacert)
		if err != nil {
			return nil, fmt.Errorf("read cacert: %w", err)
		}
		pool, err := x509.SystemCertPool()
		if err != nil {
			pool = x509.NewCertPool()
		}
		if ok := pool.AppendCertsFromPEM(pemData); !ok {
			return nil, fmt.Errorf("failed to append CA cert")
		}
		tlsConfig.RootCAs = pool
	}

	tr := &http.Transport{
		TLSClientConfig: tlsConfig,
	}
	if !noProxy {
		tr.Proxy = http.ProxyFromEnvironment
	}
	// No cookie jar: the token cookie is attached per request from the
	// scenario session and must never leak between scenarios.
	return &http.Client{Transport: tr}, nil
}

func printSummary(sum bookbdd.RunSummary, logger pslog.Base) {
	for _, c := range sum.Cases {
		printSingle(c, logger)
	}
	logger.Info("summary", "total", sum.Total, "passed", sum.Passed, "failed", sum.Failed, "skipped", sum.Skipped, "elapsed", sum.TotalElapsed.String())
}

func printSingle(res bookbdd.CaseResult, logger pslog.Base) {
	if res.Skipped {
		logger.Info("skip", "name", res.Name, "file", res.FilePath)
		return
	}
	if res.Passed {
		logger.Info("pass", "name", res.Name, "file", res.FilePath, "dur", res.Duration.String())
		return
	}
	logger.Error("fail", "name", res.Name, "file", res.FilePath, "dur", res.Duration.String(), "err", res.ErrorText)
	for _, f := range res.Failures {
		logger.Error("step", "step", f.Step, "msg", f.Message)
	}
}

func writeOutputs(cfg config.Config, sum bookbdd.RunSummary) error {
	if cfg.ReportJSON != "" {
		if err := bookbdd.WriteReportJSON(cfg.ReportJSON, sum); err != nil {
			return err
		}
	}
	if cfg.ReportJUnit != "" {
		if err := bookbdd.WriteReportJUnit(cfg.ReportJUnit, sum); err != nil {
			return err
		}
	}
	if cfg.ReportHTML != "" {
		if err := bookbdd.WriteReportHTML(cfg.ReportHTML, sum); err != nil {
			return err
		}
	}
	return nil
}
