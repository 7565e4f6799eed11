package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"depthflow/internal/config"
	"depthflow/internal/debug"
	"depthflow/internal/engine2D"
	"depthflow/internal/engine2D/window"
	"depthflow/internal/input"
	"depthflow/internal/motion"
	"depthflow/internal/remote"
	"depthflow/internal/sensors"
	"depthflow/internal/utils"
)

func main() {
	configPath := flag.String("config", "", "Path to a JSON config file")
	assetsPath := flag.String("assets", "", "Scene directory or .pkg with image/depth layers")
	debugFlag := flag.Bool("debug", false, "Enable verbose debug logging")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	x11Pointer := flag.Bool("x11-pointer", false, "Follow the global X11 pointer instead of window input")
	remoteAddr := flag.String("remote", "", "Serve the phone remote on this address, e.g. :8080")
	mqttBroker := flag.String("mqtt", "", "MQTT broker for orientation, e.g. tcp://localhost:1883")
	mqttTopic := flag.String("mqtt-topic", "", "MQTT pose topic")
	demoOrientation := flag.Bool("demo-orientation", false, "Feed a synthetic orientation stream")
	decodePath := flag.String("decode", "", "Decode a single .tex to PNG and exit")
	flag.Parse()

	if *debugFlag {
		utils.SetLevel(utils.LevelDebug)
	}
	if *logLevel != "" {
		level, err := utils.ParseLevel(*logLevel)
		if err != nil {
			utils.Error("%v", err)
			os.Exit(2)
		}
		utils.SetLevel(level)
	}

	if *decodePath != "" {
		if err := runDecode(*decodePath, "test_out"); err != nil {
			utils.Error("Decode failed: %v", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		utils.Error("%v", err)
		os.Exit(1)
	}
	if *assetsPath != "" {
		cfg.Assets = *assetsPath
	}
	if *x11Pointer {
		cfg.Input.X11Pointer = true
	}
	if *remoteAddr != "" {
		cfg.Remote.Addr = *remoteAddr
	}
	if *mqttBroker != "" {
		cfg.MQTT.Broker = *mqttBroker
	}
	if *mqttTopic != "" {
		cfg.MQTT.Topic = *mqttTopic
	}
	if *demoOrientation {
		cfg.DemoOrientation = true
	}

	if err := run(cfg); err != nil {
		utils.Error("%v", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	utils.Info("--- depthflow start ---")

	assets := loadAssets(cfg.Assets)
	engine := motion.NewEngine(cfg.Params())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := input.NewRouter(engine, input.RouterOptions{
		Buffer:             cfg.Input.Buffer,
		RebaselineOnResume: cfg.Orientation.RebaselineOnResume,
	})
	router.Start(ctx)
	defer router.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()
	sourcesCtx, cancelSources := context.WithCancel(ctx)
	defer cancelSources()

	startSources(sourcesCtx, &wg, cfg, router, engine)

	renderer := window.NewRenderer(window.Options{
		ShaderPath: cfg.Window.Shader,
		Input:      router,
		WheelOnly:  cfg.Input.X11Pointer,
		Overlay:    debug.NewOverlay(engine, router, utils.DebugEnabled()),
	})
	scheduler := engine2D.NewRenderLoopScheduler(renderer, engine, engine2D.SystemClock{})
	if err := scheduler.Start(assets, cfg.Surface()); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		utils.Info("Signal received, shutting down")
	case <-renderer.Closed():
		utils.Info("Window closed, shutting down")
	}

	scheduler.Stop()
	cancelSources()
	utils.Info("Rendered %d frames, dropped %d input events", scheduler.Frames(), router.Dropped())
	return nil
}

// startSources launches the optional input sources. Each one logs its own
// failure; a failed source never stops the render loop.
func startSources(ctx context.Context, wg *sync.WaitGroup, cfg config.Config, router *input.Router, engine *motion.PoseCompositor) {
	launch := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil && !errors.Is(err, context.Canceled) {
				utils.Error("%s: %v", name, err)
			}
		}()
	}

	if cfg.Input.X11Pointer {
		pointer, err := utils.NewX11Pointer()
		if err != nil {
			utils.Error("X11 pointer unavailable: %v", err)
		} else {
			launch("X11 pointer", func() error {
				defer pointer.Close()
				return router.Poll(ctx, pointer, cfg.PollInterval())
			})
		}
	}

	if cfg.MQTT.Broker != "" {
		src := sensors.NewMQTTSource(sensors.MQTTOptions{
			Broker:   cfg.MQTT.Broker,
			Topic:    cfg.MQTT.Topic,
			ClientID: cfg.MQTT.ClientID,
		})
		launch("MQTT orientation", func() error { return src.Run(ctx, router) })
	}

	if cfg.DemoOrientation {
		launch("Demo orientation", func() error { return sensors.NewMockSource(0).Run(ctx, router) })
	}

	if cfg.Remote.Addr != "" {
		srv := remote.NewServer(router, engine)
		launch("Remote", func() error { return srv.ListenAndServe(ctx, cfg.Remote.Addr) })
	}
}
