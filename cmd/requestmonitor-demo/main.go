// Command requestmonitor-demo wires the request-monitor core into a
// runnable HTTP service: one sample orders handler instrumented
// through internal/httpreq, metrics exported via Prometheus, traces
// dispatched to a log reporter and (if configured) an Elasticsearch
// reporter.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/stagemonitor-go/requestmonitor/internal/config"
	"github.com/stagemonitor-go/requestmonitor/internal/httpreq"
	"github.com/stagemonitor-go/requestmonitor/internal/metrics"
	"github.com/stagemonitor-go/requestmonitor/internal/methodcall"
	"github.com/stagemonitor-go/requestmonitor/internal/reporter"
	"github.com/stagemonitor-go/requestmonitor/internal/reqmonitor"
)

var (
	cfgFile string
	addr    string
)

var rootCmd = &cobra.Command{
	Use:   "requestmonitor-demo",
	Short: "Runs a sample HTTP service instrumented with the request monitor",
	Long: "\n" +
		color.CyanString("requestmonitor-demo") + " serves a few sample endpoints behind the\n" +
		"request-monitor core: every request is timed, optionally profiled,\n" +
		"and dispatched to whichever reporters are configured.\n",
	RunE: runServe,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./requestmonitor.yaml)")
	rootCmd.Flags().StringVar(&addr, "addr", ":8090", "address to serve on")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("requestmonitor")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	viper.SetEnvPrefix("REQUESTMONITOR")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintln(os.Stderr, color.YellowString("warning: could not read config file: %v", err))
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString(err.Error()))
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	cfg := config.NewViper(viper.GetViper())
	registry := metrics.NewPrometheusRegistry(prometheus.DefaultRegisterer)
	pipeline := reporter.NewPipeline(cfg.Int("threadPool.queueCapacityLimit", 256), sugar)
	pipeline.Register(reporter.NewLogReporter(sugar))

	esSettings := &esConfig{cfg: cfg}
	if esSettings.ElasticsearchURL() != "" {
		pipeline.Register(reporter.NewElasticsearchReporter(esSettings, "requests", sugar))
	}

	monitor := reqmonitor.New(cfg, registry, pipeline, sugar)
	defer monitor.Close()

	mux := http.NewServeMux()
	mux.Handle("/", httpreq.Middleware(monitor, nil, http.HandlerFunc(ordersHandler(monitor))))
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	color.Green("listening on %s (try GET /orders/42, GET /metrics)", addr)
	return srv.ListenAndServe()
}

func ordersHandler(monitor *reqmonitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := methodcall.Call(monitor, "load-order", func() (any, error) {
			return loadOrder(r.URL.Path)
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, "order: %v\n", result)
	}
}

func loadOrder(path string) (any, error) {
	time.Sleep(5 * time.Millisecond)
	return path, nil
}

// esConfig adapts config.Configuration to reporter.ElasticsearchSettings
// using the dotted keys spec §6 documents.
type esConfig struct {
	cfg config.Configuration
}

func (c *esConfig) ElasticsearchURL() string {
	return c.cfg.String("elasticsearch.url", "")
}

func (c *esConfig) OnlyReportRequestsWithName() []string {
	return c.cfg.StringSlice("requestmonitor.elasticsearch.onlyReportRequestsWithName")
}

func (c *esConfig) OnlyReportNRequestsPerMinute() int64 {
	return int64(c.cfg.Int("requestmonitor.elasticsearch.onlyReportNRequestsPerMinute", int(reporter.Unlimited)))
}
