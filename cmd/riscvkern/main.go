// Command riscvkern runs the single-hart kernel simulator and its live
// monitor dashboard.
package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/go-errors/errors"
	gookit "github.com/gookit/color"
	"github.com/integrii/flaggy"
	"github.com/jesseduffield/yaml"
	"github.com/samber/lo"

	"github.com/riscvkern/riscvkern/pkg/app"
	"github.com/riscvkern/riscvkern/pkg/config"
	"github.com/riscvkern/riscvkern/pkg/utils"
)

const defaultVersion = "unversioned"

var (
	commit  string
	version = defaultVersion
	date    string
	source  = "unknown"

	configFlag    = false
	debuggingFlag = false
)

func main() {
	updateBuildInfo()

	info := fmt.Sprintf(
		"%s\nDate: %s\nBuildSource: %s\nCommit: %s\nOS: %s\nArch: %s",
		version, date, source, commit, runtime.GOOS, runtime.GOARCH,
	)

	flaggy.SetName("riscvkern")
	flaggy.SetDescription("A single-hart preemptive kernel core, simulated")
	flaggy.DefaultParser.AdditionalHelpPrepend = "https://github.com/riscvkern/riscvkern"

	flaggy.Bool(&configFlag, "c", "config", "Print the current default config")
	flaggy.Bool(&debuggingFlag, "d", "debug", "a boolean")
	flaggy.SetVersion(info)

	flaggy.Parse()

	if configFlag {
		var buf bytes.Buffer
		encoder := yaml.NewEncoder(&buf)
		if err := encoder.Encode(config.GetDefaultConfig()); err != nil {
			log.Fatal(err.Error())
		}
		fmt.Printf("%v\n", utils.ColoredYamlString(buf.String()))
		os.Exit(0)
	}

	gookit.Info.Println(info)

	appConfig, err := config.NewAppConfig("riscvkern", version, commit, date, source, debuggingFlag)
	if err != nil {
		log.Fatal(err.Error())
	}

	kernelApp, err := app.NewApp(appConfig)
	if err == nil {
		err = kernelApp.Run()
	}
	if kernelApp != nil {
		kernelApp.Close()
	}

	if err != nil {
		if kernelApp != nil {
			if errMessage, known := kernelApp.KnownError(err); known {
				log.Println(errMessage)
				os.Exit(0)
			}
		}

		newErr := errors.Wrap(err, 0)
		stackTrace := newErr.ErrorStack()
		if kernelApp != nil {
			kernelApp.Log.Error(stackTrace)
		}

		log.Fatalf("%s\n\n%s", "an unexpected error occurred", stackTrace)
	}
}

// updateBuildInfo fills commit/version/date from the binary's embedded VCS
// stamps when no version was injected at link time.
func updateBuildInfo() {
	if version != defaultVersion {
		return
	}
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	settings := lo.Associate(buildInfo.Settings, func(setting debug.BuildSetting) (string, string) {
		return setting.Key, setting.Value
	})

	if revision, ok := settings["vcs.revision"]; ok {
		commit = revision
		version = utils.SafeTruncate(revision, 7)
	}
	if buildTime, ok := settings["vcs.time"]; ok {
		date = buildTime
	}
}
