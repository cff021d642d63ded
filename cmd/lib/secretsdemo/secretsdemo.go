package secretsdemo

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/podlab/secretsbp.go/batchcloser"
	"github.com/podlab/secretsbp.go/configbp"
	"github.com/podlab/secretsbp.go/internal/admin"
	"github.com/podlab/secretsbp.go/internal/prometheusbpint"
	"github.com/podlab/secretsbp.go/log"
	"github.com/podlab/secretsbp.go/runtimebp"
	"github.com/podlab/secretsbp.go/secrets"
	"github.com/podlab/secretsbp.go/vaultkv"
)

// Config is the YAML config file read with -config.
type Config struct {
	Log     log.Config       `yaml:"log"`
	Sentry  log.SentryConfig `yaml:"sentry"`
	Secrets secrets.Config   `yaml:"secrets"`
	Store   vaultkv.Config   `yaml:"store"`

	// Watched by "watch" along with the paths given on the command line.
	Watches []vaultkv.WatchConfig `yaml:"watches"`
}

// ErrUsage is wrapped by the errors returned by RunArgs on bad arguments.
var ErrUsage = errors.New("usage error")

const usage = `Usage: %s [flags] COMMAND [ARGS...]

Commands:
  list                    list the secrets in the secrets root
  read NAME [ENV]         read a local secret, with an optional env fallback
  get DESCRIPTOR          read file:NAME or kv:PATH
  kv-list [BASE]          list the secrets under BASE in the store
  kv-read PATH            read a secret from the store, values masked
  watch [PATH...]         poll store secrets for new versions until stopped
  watch-mount             watch the secrets root for changes until stopped

Flags:
`

var logLevels = map[string]interface{}{
	string(log.DebugLevel): log.DebugLevel,
	string(log.InfoLevel):  log.InfoLevel,
	string(log.WarnLevel):  log.WarnLevel,
	string(log.ErrorLevel): log.ErrorLevel,
	string(log.NopLevel):   log.NopLevel,
}

// Run runs secretsdemo with os.Args.
//
// It returns 0 to indicate success,
// and non-zero to indicate failure.
func Run() int {
	if err := RunArgs(os.Args, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		if errors.Is(err, ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
	return 0
}

// RunArgs is the more customizable/testable version of Run.
//
// In production code it expects you to pass in os.Args as the arg.
// The watch commands run until SIGINT or SIGTERM.
func RunArgs(args []string, stdout io.Writer) error {
	ctx, cancel := runtimebp.ShutdownContext(context.Background())
	defer cancel()
	return runArgs(ctx, args, stdout)
}

type flags struct {
	config    string
	root      string
	addr      string
	mount     string
	interval  time.Duration
	adminAddr string
	logLevel  oneof
}

func runArgs(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), usage, args[0])
		fs.PrintDefaults()
	}
	f := flags{
		logLevel: oneof{choices: logLevels},
	}
	fs.StringVar(&f.config, "config", configbp.ConfigPath, "The YAML config file, defaults to $"+configbp.ConfigPathEnv+".")
	fs.StringVar(&f.root, "root", "", "The secrets root, overrides the config file (default "+secrets.DefaultRoot+").")
	fs.StringVar(&f.addr, "addr", "", "The store address, overrides the config file and $"+vaultkv.DefaultAddrEnv+".")
	fs.StringVar(&f.mount, "mount", vaultkv.DefaultMount, "The mount point of the KV engine.")
	fs.DurationVar(&f.interval, "interval", vaultkv.DefaultWatchInterval, "The polling interval of watch.")
	fs.StringVar(&f.adminAddr, "admin-addr", "", `Serve /metrics and /debug/pprof on this address during watches, e.g. "`+admin.DefaultAdminAddr+`".`)
	fs.Var(&f.logLevel, "log-level", fmt.Sprintf("The log level, overrides the config file, one of %s.", f.logLevel.choicesString()))
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: failed to parse args: %v", ErrUsage, err)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("%w: missing command", ErrUsage)
	}

	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	log.InitFromConfig(cfg.Log)
	closers := batchcloser.New(batchcloser.Wrap(func() error {
		log.Sync()
		return nil
	}))
	defer func() {
		if err := closers.Close(); err != nil {
			log.Warnw("failed to clean up", "err", err)
		}
	}()
	sentryCloser, err := log.InitSentry(cfg.Sentry)
	if err != nil {
		return fmt.Errorf("failed to init sentry: %w", err)
	}
	closers.Add(sentryCloser)
	if info, ok := debug.ReadBuildInfo(); ok {
		prometheusbpint.RecordModuleVersions(info)
	}

	cmd := &command{
		cfg:     cfg,
		flags:   f,
		args:    fs.Args()[1:],
		stdout:  stdout,
		logger:  log.GlobalWrapper(),
		closers: closers,
	}
	if err := cmd.run(ctx, fs.Arg(0)); err != nil {
		if errors.Is(err, ErrUsage) {
			return err
		}
		// Before the deferred closers flush sentry.
		log.ErrorWithSentry(ctx, "secretsdemo failed", err)
		return reportedError{err}
	}
	return nil
}

// reportedError is an error already logged and sent to sentry.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error {
	return e.error
}

func (c *command) run(ctx context.Context, name string) error {
	switch name {
	case "list":
		return c.list()
	case "read":
		return c.read()
	case "get":
		return c.get(ctx)
	case "kv-list":
		return c.kvList(ctx)
	case "kv-read":
		return c.kvRead(ctx)
	case "watch":
		return c.watch(ctx)
	case "watch-mount":
		return c.watchMount(ctx)
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, name)
	}
}

func loadConfig(f flags) (Config, error) {
	var cfg Config
	if f.config != "" {
		if err := configbp.ParseStrictFile(f.config, &cfg); err != nil {
			return cfg, err
		}
	}
	if f.root != "" {
		cfg.Secrets.Root = f.root
	}
	if f.addr != "" {
		cfg.Store.Addr = f.addr
	}
	if lvl, ok := f.logLevel.Get().(log.Level); ok {
		cfg.Log.Level = lvl
	}
	return cfg, nil
}

type command struct {
	cfg     Config
	flags   flags
	args    []string
	stdout  io.Writer
	logger  log.Wrapper
	closers *batchcloser.BatchCloser
}

func (c *command) reader() *secrets.Reader {
	return secrets.NewReader(c.cfg.Secrets, c.logger)
}

func (c *command) client(ctx context.Context) (*vaultkv.Client, error) {
	return vaultkv.New(ctx, c.cfg.Store, c.logger)
}

func (c *command) nargs(lo, hi int, synopsis string) error {
	if n := len(c.args); n < lo || n > hi {
		return fmt.Errorf("%w: %s", ErrUsage, synopsis)
	}
	return nil
}

func (c *command) list() error {
	if err := c.nargs(0, 0, "list"); err != nil {
		return err
	}
	names, err := c.reader().List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(c.stdout, "(no secrets)")
	}
	for _, name := range names {
		fmt.Fprintln(c.stdout, name)
	}
	return nil
}

func (c *command) read() error {
	if err := c.nargs(1, 2, "read NAME [ENV]"); err != nil {
		return err
	}
	name := c.args[0]
	var (
		secret secrets.Secret
		err    error
	)
	if len(c.args) == 2 {
		secret, err = c.reader().ReadOrEnv(name, c.args[1])
	} else {
		secret, err = c.reader().Read(name)
	}
	if err != nil {
		return err
	}
	if secret == nil {
		fmt.Fprintf(c.stdout, "%s: not set\n", name)
		return nil
	}
	fmt.Fprintf(c.stdout, "%s: %d bytes\n", name, secret.Len())
	return nil
}

func (c *command) get(ctx context.Context) error {
	if err := c.nargs(1, 1, "get DESCRIPTOR"); err != nil {
		return err
	}
	d, err := secrets.ParseDescriptor(c.args[0])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	switch d.Kind {
	case secrets.RemoteKV:
		return c.printKV(ctx, d.Location)
	default:
		secret, err := c.reader().Read(d.Location)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "%s: %d bytes\n", d.Name, secret.Len())
		return nil
	}
}

func (c *command) kvList(ctx context.Context) error {
	if err := c.nargs(0, 1, "kv-list [BASE]"); err != nil {
		return err
	}
	client, err := c.client(ctx)
	if err != nil {
		return err
	}
	var base string
	if len(c.args) == 1 {
		base = c.args[0]
	}
	keys := client.ListSecrets(ctx, base, c.flags.mount)
	if len(keys) == 0 {
		fmt.Fprintln(c.stdout, "(no secrets)")
	}
	for _, key := range keys {
		fmt.Fprintln(c.stdout, key)
	}
	return nil
}

func (c *command) kvRead(ctx context.Context) error {
	if err := c.nargs(1, 1, "kv-read PATH"); err != nil {
		return err
	}
	return c.printKV(ctx, c.args[0])
}

func (c *command) printKV(ctx context.Context, path string) error {
	client, err := c.client(ctx)
	if err != nil {
		return err
	}
	data, err := client.ReadSecret(ctx, path, c.flags.mount)
	if err != nil {
		return err
	}
	fields := make([]string, 0, len(data))
	for k := range data {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	fmt.Fprintf(c.stdout, "%s:\n", path)
	for _, k := range fields {
		fmt.Fprintf(c.stdout, "  %s: %s\n", k, mask(data[k]))
	}
	return nil
}

// mask renders a field value as its length only.
func mask(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return fmt.Sprintf("(%T)", v)
	}
	return fmt.Sprintf("%s (%d chars)", strings.Repeat("*", min(len(s), 8)), len(s))
}

func (c *command) watch(ctx context.Context) error {
	onChange := func(ev vaultkv.ChangeEvent) {
		fmt.Fprintf(c.stdout, "%s: version %d -> %d\n", ev.Path, ev.Previous, ev.Current)
	}
	cfgs := make([]vaultkv.WatchConfig, 0, len(c.args))
	for _, path := range c.args {
		cfgs = append(cfgs, vaultkv.WatchConfig{
			Path:     path,
			Mount:    c.flags.mount,
			Interval: c.flags.interval,
		})
	}
	cfgs = append(cfgs, c.cfg.Watches...)
	if len(cfgs) == 0 {
		return fmt.Errorf("%w: watch PATH [PATH...], or watches in the config file", ErrUsage)
	}
	for i := range cfgs {
		cfgs[i].OnChange = onChange
		cfgs[i].Logger = c.logger
	}

	client, err := c.client(ctx)
	if err != nil {
		return err
	}
	c.logShutdown(ctx)
	if err := c.serveAdmin(); err != nil {
		return err
	}
	return vaultkv.WatchAll(ctx, client, cfgs)
}

func (c *command) watchMount(ctx context.Context) error {
	if err := c.nargs(0, 0, "watch-mount"); err != nil {
		return err
	}
	watcher, err := c.reader().NewMountWatcher()
	if err != nil {
		return err
	}
	c.closers.Add(watcher)
	c.logShutdown(ctx)
	if err := c.serveAdmin(); err != nil {
		return err
	}
	return watcher.Run(ctx, func(ev secrets.MountEvent) {
		fmt.Fprintf(c.stdout, "%s: %s\n", ev.Name, ev.Op)
	})
}

// serveAdmin serves the admin endpoints on -admin-addr, if set, until the
// command returns.
func (c *command) serveAdmin() error {
	if c.flags.adminAddr == "" {
		return nil
	}
	addr, closer, err := admin.Serve(c.flags.adminAddr, c.logger)
	if err != nil {
		return fmt.Errorf("failed to serve admin endpoints: %w", err)
	}
	c.closers.Add(closer)
	c.logger.Infow("serving admin endpoints", "addr", addr.String())
	return nil
}

// logShutdown logs the signal that stops a watch command.
func (c *command) logShutdown(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.closers.Add(batchcloser.WrapCancel(cancel))
	go runtimebp.HandleShutdown(ctx, func(sig os.Signal) {
		c.logger.Infow("shutting down", "signal", sig.String())
	})
}
