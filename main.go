package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/tabwriter"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"github.com/psn/readiness-tui/app"
	"github.com/psn/readiness-tui/config"
	"github.com/psn/readiness-tui/dashboard"
	"github.com/psn/readiness-tui/frappe"
	"github.com/psn/readiness-tui/internal"
	"github.com/psn/readiness-tui/readiness"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/ssh"
)

type options struct {
	configPath string
	siteName   string
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "readiness-tui",
		Short:         "Terminal dashboard for Event Readiness",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath(), "path to config file")
	root.PersistentFlags().StringVar(&opts.siteName, "site", "", "site profile name from config")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log every RPC at debug level")

	root.AddCommand(
		newActionCmd(opts, "sync-kpi", "Sync User Sector KPI records", 's'),
		newActionCmd(opts, "recalc-kpi", "Recalculate KPI scores", 'c'),
		newProgressCmd(opts),
		newWhoAmICmd(opts),
	)
	return root
}

// site bundles everything resolved from the config for one site.
type site struct {
	name     string
	cfg      config.SiteConfig
	staleTTL config.Duration
	logFile  string
	registry *dashboard.Registry
}

func loadSite(opts *options) (*site, error) {
	cfg, err := config.LoadFrom(opts.configPath)
	if err != nil {
		return nil, err
	}
	name, sc, err := cfg.Site(opts.siteName)
	if err != nil {
		return nil, err
	}

	reg := dashboard.DefaultRegistry()
	for route, page := range sc.Pages {
		if page.NotFoundMessage == nil {
			continue
		}
		if err := reg.SetShowNotFound(route, *page.NotFoundMessage); err != nil {
			return nil, fmt.Errorf("site %q: %w", name, err)
		}
	}
	return &site{name: name, cfg: sc, staleTTL: cfg.StaleTTL, logFile: cfg.LogFile, registry: reg}, nil
}

// fileLogger writes JSON lines to path, since the terminal belongs to the UI.
func fileLogger(path string, verbose bool) (*zap.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log dir: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.OutputPaths = []string{path}
	zc.ErrorOutputPaths = []string{path}
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zc.Build()
}

// stderrLogger is used by the headless commands.
func stderrLogger(verbose bool) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zc.DisableStacktrace = true
	return zc.Build()
}

// connect builds the Frappe client, opening the SSH tunnel first when the
// site has one. The returned close func releases the tunnel.
func connect(s *site, logger *zap.Logger) (*internal.Services, func(), error) {
	fc := frappe.Config{
		URL:                s.cfg.URL,
		APIKey:             s.cfg.APIKey,
		APISecret:          s.cfg.APISecret,
		Timeout:            s.cfg.Timeout.Duration,
		InsecureSkipVerify: s.cfg.InsecureSkipVerify,
	}

	closeFn := func() {}
	if s.cfg.SSH != nil {
		client, err := dialTunnel(s)
		if err != nil {
			return nil, nil, err
		}
		fc.Dial = frappe.TunnelDialer(client)
		closeFn = func() { client.Close() }
		logger.Info("ssh tunnel open", zap.String("site", s.name), zap.String("host", client.RemoteAddr().String()))
	}

	client, err := frappe.NewClient(fc, logger)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return internal.NewServices(client), closeFn, nil
}

func dialTunnel(s *site) (*ssh.Client, error) {
	sc := s.cfg.SSH
	host := sc.Host
	if host == "" {
		u, err := url.Parse(s.cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing site url: %w", err)
		}
		host = u.Hostname()
	}

	if sc.HostKeyFingerprint == "" {
		fingerprint, err := frappe.ScanHostKey(host, sc.Port)
		if err != nil {
			return nil, fmt.Errorf("host_key_fingerprint is required for SSH; could not auto-detect: %w\n"+
				"Get it with: ssh-keyscan -p %d %s 2>/dev/null | ssh-keygen -lf -", err, sc.Port, host)
		}
		return nil, fmt.Errorf("host_key_fingerprint is required for SSH. Detected fingerprint for %s:\n\n"+
			"  host_key_fingerprint = %q\n\nAdd this to [sites.%s.ssh] in your config", host, fingerprint, s.name)
	}

	key, err := frappe.ReadPrivateKey(sc.PrivateKeyPath)
	if err != nil {
		return nil, err
	}
	return frappe.DialSSH(frappe.SSHConfig{
		Host:               host,
		Port:               sc.Port,
		User:               sc.Username,
		PrivateKey:         key,
		HostKeyFingerprint: sc.HostKeyFingerprint,
	})
}

func runTUI(opts *options) error {
	s, err := loadSite(opts)
	if err != nil {
		return err
	}
	logger, err := fileLogger(s.logFile, opts.verbose)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	var (
		mu          sync.Mutex
		closeTunnel func()
	)
	root := app.New(app.Params{
		SiteName: s.name,
		StaleTTL: s.staleTTL.Duration,
		Registry: s.registry,
		Logger:   logger,
		Connect: func(ctx context.Context) (*internal.Services, error) {
			svc, closeFn, err := connect(s, logger)
			if err != nil {
				return nil, err
			}
			mu.Lock()
			closeTunnel = closeFn
			mu.Unlock()
			return svc, nil
		},
	})

	vxApp, err := vxfw.NewApp(vaxis.Options{})
	if err != nil {
		return err
	}
	root.SetPostEvent(vxApp.PostEvent)

	logger.Info("starting", zap.String("site", s.name), zap.String("url", s.cfg.URL))
	err = vxApp.Run(root)
	mu.Lock()
	if closeTunnel != nil {
		closeTunnel()
	}
	mu.Unlock()
	return err
}

// headless resolves the site and connects with a stderr logger.
func headless(opts *options) (*site, *internal.Services, *zap.Logger, func(), error) {
	s, err := loadSite(opts)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	logger, err := stderrLogger(opts.verbose)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	svc, closeFn, err := connect(s, logger)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return s, svc, logger, func() {
		closeFn()
		_ = logger.Sync()
	}, nil
}

// cliListUI reports a list action's progress on the terminal.
type cliListUI struct {
	log *zap.Logger
	out *os.File
}

func (u cliListUI) Freeze(msg string) { u.log.Info(msg) }
func (u cliListUI) Unfreeze() {}
func (u cliListUI) Notify(msg string) { fmt.Fprintln(u.out, msg) }
func (u cliListUI) Refresh() {}

func newActionCmd(opts *options, use, short string, key rune) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, svc, logger, done, err := headless(opts)
			if err != nil {
				return err
			}
			defer done()

			list, ok := s.registry.List(readiness.DoctypeUserSectorKPI)
			if !ok {
				return fmt.Errorf("no list settings for %s", readiness.DoctypeUserSectorKPI)
			}
			action, ok := list.Action(key)
			if !ok {
				return fmt.Errorf("no %s action bound to %q", readiness.DoctypeUserSectorKPI, key)
			}

			reply, err := dashboard.RunAction(cmd.Context(), svc.Caller, action, cliListUI{log: logger, out: os.Stdout})
			if err != nil {
				return err
			}
			var result readiness.SyncResult
			if len(reply) > 0 && json.Unmarshal(reply, &result) == nil && result.Status != "" {
				logger.Info("action result", zap.String("status", result.Status),
					zap.Int("created", result.Created), zap.Int("skipped", result.Skipped))
			}
			return nil
		},
	}
}

func newProgressCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Print event readiness progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, svc, _, done, err := headless(opts)
			if err != nil {
				return err
			}
			defer done()

			page, ok := s.registry.Page(dashboard.RouteReadinessDash)
			if !ok {
				return fmt.Errorf("page %s is not registered", dashboard.RouteReadinessDash)
			}
			src, ok := s.registry.ChartSource(page.ChartSource)
			if !ok {
				return fmt.Errorf("chart source %q is not registered", page.ChartSource)
			}
			data, err := src.Build(cmd.Context(), svc.Events)
			if err != nil {
				return fmt.Errorf("%s: %w", src.Name, err)
			}
			return printProgress(os.Stdout, data)
		},
	}
}

func printProgress(f *os.File, data dashboard.ChartData) error {
	tw := tabwriter.NewWriter(f, 0, 0, 2, ' ', 0)
	values := data.Series(dashboard.SeriesReadiness)
	for i, label := range data.Labels {
		v := 0.0
		if i < len(values) {
			v = values[i]
		}
		fmt.Fprintf(tw, "%s\t%.1f%%\t\n", strings.TrimSpace(label), v)
	}
	return tw.Flush()
}

func newWhoAmICmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the API key's session user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, _, done, err := headless(opts)
			if err != nil {
				return err
			}
			defer done()

			user, err := svc.Session.WhoAmI(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(user)
			return nil
		},
	}
}
