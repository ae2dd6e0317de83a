// Package app bootstraps the kernel simulator binary: config, logging,
// translations, the assembled kernel, and the monitor UI.
package app

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/riscvkern/riscvkern/pkg/config"
	"github.com/riscvkern/riscvkern/pkg/i18n"
	"github.com/riscvkern/riscvkern/pkg/kernel"
	"github.com/riscvkern/riscvkern/pkg/lifecycle"
	"github.com/riscvkern/riscvkern/pkg/log"
	"github.com/riscvkern/riscvkern/pkg/memory"
	"github.com/riscvkern/riscvkern/pkg/monitor"
	"github.com/riscvkern/riscvkern/pkg/proctable"
	"github.com/riscvkern/riscvkern/pkg/utils"
)

// App struct
type App struct {
	closers []io.Closer

	Config  *config.AppConfig
	Log     *logrus.Entry
	Tr      *i18n.TranslationSet
	Kernel  *kernel.Kernel
	Monitor *monitor.Monitor

	ErrorChan chan error
}

// NewApp bootstraps a new application: loads translations, assembles the
// kernel from user config, boots the configured program set, and wires up
// the monitor.
func NewApp(cfg *config.AppConfig) (*App, error) {
	app := &App{
		closers:   []io.Closer{},
		Config:    cfg,
		ErrorChan: make(chan error),
	}

	app.Log = log.NewLogger(cfg)
	app.Tr = i18n.NewTranslationSet(app.Log, cfg.UserConfig.Language)

	app.Kernel = kernel.New(cfg.UserConfig, app.Log)
	if err := app.Kernel.Boot(cfg.UserConfig.Boot); err != nil {
		return app, err
	}

	app.Monitor = monitor.New(
		app.Kernel,
		app.Log,
		app.Tr,
		cfg.UserConfig.Monitor.RedrawInterval,
		cfg.UserConfig.Monitor.HistoryLength,
	)

	return app, nil
}

// Run waits for a usable terminal and starts the monitor's main loop; it
// blocks until the user quits.
func (app *App) Run() error {
	if err := waitForTerminalSpace(); err != nil {
		return err
	}
	return app.Monitor.Run()
}

func waitForTerminalSpace() error {
	width, height, err := terminal.GetSize(int(os.Stdin.Fd()))
	if err != nil {
		return err
	}
	if width > 0 && height > 0 {
		return nil
	}
	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	select {
	case <-winch:
		return nil
	case <-time.After(time.Second):
		return fmt.Errorf("there is no available terminal space")
	}
}

// Close closes any resources registered during the run, aggregating
// failures instead of stopping at the first one so a close error on one
// collaborator doesn't hide a closer one needs investigating too.
func (app *App) Close() error {
	return utils.CloseMany(app.closers)
}

type errorMapping struct {
	originalError string
	newError      string
}

// KnownError takes an error and tells us whether it's an error that we
// know about where we can print a nicely formatted version of it rather
// than panicking with a stack trace.
func (app *App) KnownError(err error) (string, bool) {
	errorMessage := err.Error()

	mappings := []errorMapping{
		{originalError: memory.ErrOutOfMemory.Error(), newError: app.Tr.ErrNoFreePage},
		{originalError: proctable.ErrTableFull.Error(), newError: app.Tr.ErrNoFreeSlot},
		{originalError: lifecycle.ErrKernelInvariant.Error(), newError: app.Tr.ErrKernelInvariant},
	}

	for _, mapping := range mappings {
		if strings.Contains(errorMessage, mapping.originalError) {
			return mapping.newError, true
		}
	}

	return "", false
}
