// Command particlesim is a small flag-driven demo of the particle
// simulation core: it builds a reference rigid-body world, drops a
// couple of particle groups into it, and steps the simulation either
// headlessly (for logging/benchmarking) or with a raylib debug window.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/particles/config"
	"github.com/pthm-cable/particles/geom"
	"github.com/pthm-cable/particles/host"
	"github.com/pthm-cable/particles/hostworld"
	"github.com/pthm-cable/particles/particle"
	"github.com/pthm-cable/particles/telemetry"
)

var (
	configPath  = flag.String("config", "", "Path to a YAML config file overriding the embedded defaults")
	initialTick = flag.Int("speed", 1, "Simulation steps per rendered frame (1-10)")
	logInterval = flag.Int("log", 0, "Log simulation stats every N ticks (0 = disabled)")
	logFile     = flag.String("logfile", "", "Write logs to file instead of stdout")
	outputDir   = flag.String("output", "", "Directory to write steps.csv/perf.csv telemetry (empty = disabled)")
	headless    = flag.Bool("headless", false, "Run without graphics (for logging/benchmarking)")
	maxTicks    = flag.Int("max-ticks", 0, "Stop after N ticks (0 = run forever, useful with -headless)")
)

// boxShape is a local host.Shape used only to seed the demo's particle
// groups; a real embedder supplies its own shapes from its own
// collision library.
type boxShape struct {
	halfWidth, halfHeight float32
}

func (b boxShape) ChildCount() int { return 1 }

func (b boxShape) ComputeAABB(xf geom.Transform, child int) host.AABB {
	corners := [4]geom.Vec2{
		xf.Apply(geom.Vec2{X: -b.halfWidth, Y: -b.halfHeight}),
		xf.Apply(geom.Vec2{X: b.halfWidth, Y: -b.halfHeight}),
		xf.Apply(geom.Vec2{X: -b.halfWidth, Y: b.halfHeight}),
		xf.Apply(geom.Vec2{X: b.halfWidth, Y: b.halfHeight}),
	}
	box := host.AABB{Lower: corners[0], Upper: corners[0]}
	for _, c := range corners[1:] {
		box = host.Extend(box, host.AABB{Lower: c, Upper: c})
	}
	return box
}

func (b boxShape) TestPoint(xf geom.Transform, p geom.Vec2) bool {
	local := xf.Rot.InverseApply(geom.Sub(p, xf.Pos))
	return local.X >= -b.halfWidth && local.X <= b.halfWidth &&
		local.Y >= -b.halfHeight && local.Y <= b.halfHeight
}

func main() {
	flag.Parse()

	var logWriter *os.File
	if *logFile != "" {
		var err error
		logWriter, err = os.Create(*logFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create log file: %v\n", err)
			os.Exit(1)
		}
		defer logWriter.Close()
		slog.SetDefault(slog.New(slog.NewTextHandler(logWriter, nil)))
	}

	config.MustInit(*configPath)
	cfg := config.Cfg()

	om, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize telemetry output: %v\n", err)
		os.Exit(1)
	}
	defer om.Close()

	world := hostworld.New(geom.Vec2{X: float32(cfg.Sim.GravityX), Y: float32(cfg.Sim.GravityY)})
	world.AddCircleBody(geom.Vec2{X: 0, Y: -3}, 2.0, 5.0)

	sys := particle.NewSystem(cfg.Particles.ToParticleConfig(), world)
	seedGroups(sys)

	if *headless {
		runHeadless(sys, world, om, cfg)
		return
	}
	runWindowed(sys, world, om, cfg)
}

func seedGroups(sys *particle.System) {
	identity := geom.Rot{C: 1}
	sys.CreateParticleGroup(particle.ParticleGroupDef{
		Shape:                boxShape{halfWidth: 1.5, halfHeight: 1.5},
		Transform:            geom.Transform{Pos: geom.Vec2{X: -2, Y: 2}, Rot: identity},
		Strength:             1,
		Stride:               1,
		DestroyAutomatically: false,
	})
	sys.CreateParticleGroup(particle.ParticleGroupDef{
		Shape:                boxShape{halfWidth: 1.0, halfHeight: 1.0},
		Transform:            geom.Transform{Pos: geom.Vec2{X: 2, Y: 2}, Rot: identity},
		Flags:                particle.ElasticFlag,
		Strength:             0.8,
		Stride:               1,
		DestroyAutomatically: false,
	})
}

func runHeadless(sys *particle.System, world *hostworld.World, om *telemetry.OutputManager, cfg *config.Config) {
	slog.Info("starting headless simulation", "speed", *initialTick, "max_ticks", *maxTicks)

	dt := cfg.Derived.DT32
	perf := telemetry.NewPerfCollector(int(cfg.Telemetry.StatsWindow))

	startTime := time.Now()
	lastReport := startTime
	reportInterval := 10 * time.Second

	var tick int
	for {
		if *maxTicks > 0 && tick >= *maxTicks {
			slog.Info("reached max ticks, stopping", "max_ticks", *maxTicks)
			break
		}

		perf.StartTick()
		for i := 0; i < *initialTick; i++ {
			world.Step(dt)
			sys.Solve(dt)
		}
		perf.EndTick()
		tick++

		if err := om.WriteStep(telemetry.StepStats{
			Tick:          int32(tick),
			SimTimeSec:    float64(tick) * float64(dt),
			ParticleCount: sys.Count(),
			KineticEnergy: float64(sys.ComputeParticleCollisionEnergy()),
		}); err != nil {
			slog.Warn("writing step telemetry", "error", err)
		}

		if *logInterval > 0 && tick%*logInterval == 0 {
			slog.Info("tick", "tick", tick, "particles", sys.Count())
		}

		if cfg.Telemetry.FlushEvery > 0 && tick%cfg.Telemetry.FlushEvery == 0 {
			stats := perf.Stats()
			stats.LogStats()
			if err := om.WritePerf(stats, int32(tick)); err != nil {
				slog.Warn("writing perf telemetry", "error", err)
			}
		}

		if time.Since(lastReport) >= reportInterval {
			elapsed := time.Since(startTime)
			ticksPerSec := float64(tick) / elapsed.Seconds()
			slog.Info("progress", "tick", tick, "ticks_per_sec", int(ticksPerSec), "elapsed", elapsed.Round(time.Second))
			lastReport = time.Now()
		}
	}

	elapsed := time.Since(startTime)
	slog.Info("simulation complete", "total_ticks", tick, "elapsed", elapsed.Round(time.Millisecond))
}

func runWindowed(sys *particle.System, world *hostworld.World, om *telemetry.OutputManager, cfg *config.Config) {
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "particlesim")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	dt := cfg.Derived.DT32
	pixelsPerMeter := float32(cfg.Screen.Height) / 12

	var tick int
	for !rl.WindowShouldClose() {
		if *maxTicks > 0 && tick >= *maxTicks {
			break
		}

		for i := 0; i < *initialTick; i++ {
			world.Step(dt)
			sys.Solve(dt)
			tick++
		}

		om.WriteStep(telemetry.StepStats{
			Tick:          int32(tick),
			SimTimeSec:    float64(tick) * float64(dt),
			ParticleCount: sys.Count(),
			KineticEnergy: float64(sys.ComputeParticleCollisionEnergy()),
		})

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)
		drawParticles(sys, pixelsPerMeter, cfg)
		rl.EndDrawing()
	}
}

func drawParticles(sys *particle.System, pixelsPerMeter float32, cfg *config.Config) {
	originX := float32(cfg.Screen.Width) / 2
	originY := float32(cfg.Screen.Height) / 2
	radiusPx := cfg.Particles.Radius * float64(pixelsPerMeter)

	for i := 0; i < sys.Count(); i++ {
		p := sys.Position(int32(i))
		x := originX + p.X*pixelsPerMeter
		y := originY - p.Y*pixelsPerMeter
		rl.DrawCircle(int32(x), int32(y), float32(radiusPx), rl.SkyBlue)
	}
}
