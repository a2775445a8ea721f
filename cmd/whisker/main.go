package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/noriah/whisker"
	"github.com/noriah/whisker/control"
	"github.com/noriah/whisker/graphic"
	"github.com/noriah/whisker/input"
	"github.com/noriah/whisker/logging"
	"github.com/noriah/whisker/processor"

	_ "github.com/noriah/whisker/input/all"

	"github.com/integrii/flaggy"
)

// AppName is the app name
const AppName = "whisker"

// AppDesc is the app description
const AppDesc = "Acoustic signature detector"

// AppSite is the app website
const AppSite = "https://github.com/noriah/whisker"

var version = "unknown"

func main() {
	log.SetFlags(0)

	f := newFlags()

	if doFlags(&f) {
		return
	}

	fileCfg, err := f.apply()
	chk(err, "invalid config")

	whiskerCfg, err := fileCfg.Whisker()
	chk(err, "invalid config")

	level, err := logging.ParseLevel(fileCfg.Logging.Level)
	chk(err, "invalid config")

	logger, err := logging.New(logging.Options{Level: level, JSON: fileCfg.Logging.JSON})
	chk(err, "failed to set up logging")

	// the terminal belongs to the display while it runs
	if fileCfg.Display.Enabled {
		logger = logging.NewNop()
	}

	logging.SetGlobalLogger(logger)
	defer logger.Sync()

	training := &control.Toggle{}
	whiskerCfg.Training = training
	whiskerCfg.Logger = logger

	switch {
	case fileCfg.Display.Enabled:
		attachDisplay(&whiskerCfg, training)

	case f.raw:
		whiskerCfg.Observers = append(whiskerCfg.Observers,
			NewRawOutput(os.Stdout, f.rawBins))
	}

	// Root Context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	chk(whisker.Run(&whiskerCfg, ctx), "failed to run whisker")
}

func attachDisplay(cfg *whisker.Config, training *control.Toggle) {
	var display *graphic.Display

	cfg.SetupFunc = func() error {
		var err error
		display, err = graphic.New(training)
		return err
	}

	cfg.StartFunc = func(ctx context.Context) (context.Context, error) {
		ctx, cancel := context.WithCancel(ctx)
		go display.Run(ctx, cancel)

		return ctx, nil
	}

	cfg.CleanupFunc = func() error {
		if display == nil {
			return nil
		}
		return display.Close()
	}

	cfg.Observers = append(cfg.Observers, processor.ObserverFunc(func(r processor.Report) {
		display.ObserveFrame(r)
	}))
}

func doFlags(f *flags) bool {

	parser := flaggy.NewParser(AppName)
	parser.Description = AppDesc
	parser.AdditionalHelpPrepend = AppSite
	parser.Version = version

	listBackendsCmd := flaggy.Subcommand{
		Name:                 "list-backends",
		ShortName:            "lb",
		Description:          "list all supported backends",
		AdditionalHelpAppend: "\nuse the full name after the '-'",
	}

	parser.AttachSubcommand(&listBackendsCmd, 1)

	listDevicesCmd := flaggy.Subcommand{
		Name:                 "list-devices",
		ShortName:            "ld",
		Description:          "list all devices for a backend",
		AdditionalHelpAppend: "\nuse the full name after the '-'",
	}

	parser.AttachSubcommand(&listDevicesCmd, 1)

	parser.String(&f.configPath, "c", "config", "path to a yaml config file")
	parser.String(&f.backend, "b", "backend", "backend name")
	parser.String(&f.device, "d", "device", "device name")
	parser.Float64(&f.sampleRate, "r", "rate", "sample rate")
	parser.Int(&f.frameSize, "n", "samples", "frame size (power of two)")
	parser.Int(&f.frameRate, "f", "fps", "frame rate (0 to run as fast as input allows)")
	parser.Float64(&f.threshold, "t", "threshold", "match threshold (0, 1)")
	parser.String(&f.logLevel, "l", "log-level", "log level (debug, info, warn, error)")
	parser.String(&f.metricsAddr, "m", "metrics", "address to serve prometheus metrics on")
	parser.Bool(&f.display, "D", "display", "draw the terminal display")
	parser.Bool(&f.raw, "R", "raw", "print every frame to stdout")
	parser.Int(&f.rawBins, "rb", "raw-bins", "bins printed per raw line")

	chk(parser.Parse(), "failed to parse arguments")

	switch {
	case listBackendsCmd.Used:
		for _, name := range input.GetAllBackendNames() {
			fmt.Printf("- %s\n", name)
		}

		return true

	case listDevicesCmd.Used:
		name := f.backend
		if name == "" {
			name = input.DefaultBackend()
		}

		backend, err := input.InitBackend(name)
		chk(err, "failed to init backend")
		defer backend.Close()

		devices, err := backend.Devices()
		chk(err, "failed to get devices")

		// We don't really need the default device to be indicated.
		defaultDevice, _ := backend.DefaultDevice()

		fmt.Printf("all devices for %q backend. '*' marks default\n", name)

		for idx := range devices {
			star := ' '
			if defaultDevice != nil && devices[idx].String() == defaultDevice.String() {
				star = '*'
			}

			fmt.Printf("- %v %c\n", devices[idx], star)
		}

		return true
	}

	return false
}

func chk(err error, wrap string) {
	if err != nil {
		log.Fatalln(wrap+": ", err)
	}
}
