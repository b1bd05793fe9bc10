package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/synthtext/pkg/render"
	"github.com/cyclopcam/synthtext/pkg/synthgen"
	"github.com/cyclopcam/synthtext/pkg/tempfiles"
)

func main() {
	parser := argparse.NewParser("synthgen", "Render synthetic text onto background images, and write a dataset")
	configFile := parser.String("c", "config", &argparse.Options{Help: "Config file (JSON or YAML)"})
	lang := parser.String("l", "lang", &argparse.Options{Help: "Language selector passed to the renderer (eg JPN)"})
	vizFlag := parser.Flag("v", "viz", &argparse.Options{Help: "Save visualizations, and pause after every image"})
	numImages := parser.Int("n", "num-img", &argparse.Options{Help: "Number of background images to process. -1 = all", Default: -2})
	start := parser.Int("s", "start", &argparse.Options{Help: "Index of the first background image", Default: -1})
	secsPerImage := parser.Float("t", "secs-per-img", &argparse.Options{Help: "Renderer time budget per image, in seconds", Default: -1.0})
	rendererCmd := parser.String("r", "renderer", &argparse.Options{Help: "Renderer program"})
	output := parser.String("o", "output", &argparse.Options{Help: "Output dataset file"})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	if err != nil {
		panic(err)
	}
	if err := run(logger, *configFile, func(cfg *synthgen.Config) {
		// Command line arguments override the config file
		if *lang != "" {
			cfg.Lang = *lang
		}
		if *vizFlag {
			cfg.Viz = true
		}
		if *numImages != -2 {
			cfg.NumImages = *numImages
		}
		if *start >= 0 {
			cfg.Start = *start
		}
		if *secsPerImage >= 0 {
			cfg.SecsPerImage = *secsPerImage
		}
		if *rendererCmd != "" {
			cfg.Renderer.Command = *rendererCmd
		}
		if *output != "" {
			cfg.OutputFile = *output
		}
	}); err != nil {
		logger.Criticalf("%v", err)
		logger.Close()
		os.Exit(1)
	}
	logger.Close()
}

func run(logger logs.Log, configFile string, override func(cfg *synthgen.Config)) error {
	cfg := synthgen.DefaultConfig()
	if configFile != "" {
		loaded, err := synthgen.LoadConfig(configFile)
		if err != nil {
			return err
		}
		cfg = *loaded
	}
	override(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Renderer.Command == "" {
		return fmt.Errorf("No renderer configured. Use --renderer, or set renderer.command in the config file")
	}

	temp, err := tempfiles.NewTempDirs(cfg.TempDir, time.Hour)
	if err != nil {
		return err
	}
	defer temp.RemoveAll()
	renderer := render.NewExecRenderer(logger, temp, cfg.Renderer.Command, cfg.Renderer.Args...)
	renderer.KillAfter = time.Duration(cfg.Renderer.KillAfterSecs * float64(time.Second))

	var checkpoint synthgen.Checkpoint
	if cfg.Viz {
		checkpoint = synthgen.ConsoleCheckpoint(os.Stdin, os.Stdout)
	}

	controller, err := synthgen.Open(logger, cfg, renderer, checkpoint)
	if err != nil {
		return err
	}
	defer controller.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signalIn := make(chan os.Signal, 1)
	signal.Notify(signalIn, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalIn)
	go func() {
		if sig, ok := <-signalIn; ok {
			logger.Infof("Received OS signal '%v'. Stopping after the current image", sig.String())
			cancel()
		}
	}()

	summary, err := controller.Run(ctx)
	if err != nil {
		return err
	}
	if summary.Aborted {
		logger.Infof("Run stopped early")
	}
	return nil
}
