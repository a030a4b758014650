package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nodewatch/viewfs/pkg/cmdutil"
	"github.com/nodewatch/viewfs/pkg/config"
	"github.com/nodewatch/viewfs/pkg/cookie"
	"github.com/nodewatch/viewfs/pkg/filesystem"
	"github.com/nodewatch/viewfs/pkg/filesystem/watching"
	"github.com/nodewatch/viewfs/pkg/logging"
	"github.com/nodewatch/viewfs/pkg/reconcile"
)

// foregroundController is the Controller viewfsd's watch command supplies:
// it never reaps (the process owns exactly one root for its whole lifetime,
// so idle reaping would just tear down the thing the user asked to watch),
// does nothing on age-out, and logs unilateral events such as "settled"
// rather than fanning them out to any subscription mechanism, since this
// command has none.
type foregroundController struct {
	logger *logging.Logger
}

func (c *foregroundController) ConsiderReap() bool  { return false }
func (c *foregroundController) StopWatch()          {}
func (c *foregroundController) ConsiderAgeOut()     {}
func (c *foregroundController) WarmContentCache()   {}
func (c *foregroundController) EnqueueUnilateralResponse(event map[string]interface{}) {
	c.logger.Debugf("event: %v", event)
}

func watchMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 1 {
		return errors.New("exactly one root path must be specified")
	}
	root, err := filesystem.NormalizeRoot(arguments[0])
	if err != nil {
		return err
	}

	if level, ok := logging.NameToLevel(watchConfiguration.logLevel); ok {
		logging.GlobalLevel = level
	} else {
		return errors.Errorf("invalid log level: %s", watchConfiguration.logLevel)
	}

	cfg, err := config.Load(watchConfiguration.configPath)
	if err != nil {
		return errors.Wrap(err, "unable to load configuration")
	}

	w, err := watching.NewRecursiveWatcher()
	if err != nil {
		return errors.Wrap(err, "unable to create filesystem watcher")
	}
	defer w.Terminate()

	logger := logging.RootLogger.Sublogger(root)
	cookies := cookie.NewInMemoryRegistry(cookie.DefaultPrefix, logger)
	controller := &foregroundController{logger: logger}

	rootContext := reconcile.NewRoot(root, cfg, w, cookies, controller, logger, 10*time.Millisecond)
	rootContext.OnCrawlSample = func(sample reconcile.CrawlSample) {
		logger.Debugf(
			"crawl sample: generation=%s recrawl=%v files=%d duration=%s",
			sample.Generation, sample.Recrawl, sample.FilesObserved, sample.Duration,
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalTermination := make(chan os.Signal, 1)
	signal.Notify(signalTermination, cmdutil.TerminationSignals...)

	done := make(chan struct{})
	go func() {
		rootContext.Watch(ctx)
		close(done)
	}()

	if err := rootContext.WaitUntilReadyToQuery(ctx); err != nil {
		return errors.Wrap(err, "initial crawl did not complete")
	}
	fmt.Println("viewfsd: initial crawl complete, watching", root)

	select {
	case sig := <-signalTermination:
		logger.Debugf("terminating on signal: %s", sig)
	case <-done:
	}

	cancel()
	rootContext.Stop()
	<-done

	return nil
}

var watchCommand = &cobra.Command{
	Use:   "watch <path>",
	Short: "Watches a directory tree and maintains an in-memory view of it",
	Run:   cmdutil.Mainify(watchMain),
}

var watchConfiguration struct {
	configPath string
	logLevel   string
}

func init() {
	flags := watchCommand.Flags()
	flags.StringVarP(&watchConfiguration.configPath, "config", "c", "", "Path to a YAML configuration file")
	flags.StringVarP(&watchConfiguration.logLevel, "log-level", "l", "info", "Log level (disabled|error|warn|info|debug|trace)")
}
