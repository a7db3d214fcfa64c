package main

import (
	"context"
	"os"
	"strings"

	amqp091 "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pathwaylab/hybrid/amqp"
	"github.com/pathwaylab/hybrid/conflict"
	"github.com/pathwaylab/hybrid/env"
	"github.com/pathwaylab/hybrid/netfile"
	yamlfile "github.com/pathwaylab/hybrid/netfile/v1/yaml"
	"github.com/pathwaylab/hybrid/sim"
)

var (
	netFile   string
	duration  float64
	dtManual  float64
	maxSteps  int
	policy    string
	seed      int64
	csvOut    string
	csvPlaces string
	publish   bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run a simulation from a net file",
	Run: func(cmd *cobra.Command, args []string) {
		logger, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		defer func() { _ = logger.Sync() }()

		f, err := os.Open(netFile)
		if err != nil {
			logger.Fatal("failed to open net file", zap.Error(err))
		}
		defer func() { _ = f.Close() }()

		var svc netfile.Service = &yamlfile.Service{}
		model, err := svc.Load(cmd.Context(), f)
		if err != nil {
			logger.Fatal("failed to load net", zap.Error(err))
		}

		settings := model.Settings
		if cmd.Flags().Changed("duration") {
			settings = settings.WithDuration(duration)
		}
		if cmd.Flags().Changed("dt") {
			settings.DtAuto = false
			settings.DtManual = dtManual
		}
		if cmd.Flags().Changed("policy") {
			p, err := conflict.ParsePolicy(policy)
			if err != nil {
				logger.Fatal("bad policy", zap.Error(err))
			}
			settings.ConflictPolicy = p
		}

		opts := []sim.Option{
			sim.WithSettings(settings),
			sim.WithSeed(seed),
		}

		var recorder *sim.Recorder
		if csvOut != "" {
			out, err := os.Create(csvOut)
			if err != nil {
				logger.Fatal("failed to create trajectory file", zap.Error(err))
			}
			defer func() { _ = out.Close() }()
			recorder = sim.NewRecorder(out, splitPlaces(csvPlaces, model))
			opts = append(opts, sim.WithObserver(recorder))
		}

		if publish {
			e := env.Load(logger)
			conn, err := amqp091.Dial(e.URI)
			if err != nil {
				logger.Fatal("failed to connect to broker", zap.Error(err))
			}
			defer func() { _ = conn.Close() }()
			ch, err := conn.Channel()
			if err != nil {
				logger.Fatal("failed to open channel", zap.Error(err))
			}
			pub, err := amqp.NewPublisher(ch, e.Exchange, e.RunID, logger)
			if err != nil {
				logger.Fatal("failed to declare exchange", zap.Error(err))
			}
			opts = append(opts, sim.WithObserver(pub))
		}

		controller, err := sim.New(model.Net, opts...)
		if err != nil {
			logger.Fatal("failed to build simulation", zap.Error(err))
		}

		logger.Info("starting simulation",
			zap.String("net", model.Net.Name),
			zap.Float64("dt", controller.EffectiveDt()),
			zap.String("policy", string(settings.ConflictPolicy)),
		)
		if err := controller.Run(context.Background(), maxSteps); err != nil {
			logger.Fatal("run failed", zap.Error(err))
		}
		if recorder != nil {
			if err := recorder.Flush(); err != nil {
				logger.Error("failed to flush trajectory", zap.Error(err))
			}
		}
		logger.Info("simulation complete",
			zap.Float64("time", controller.Time()),
			zap.Float64("progress", controller.Progress()),
			zap.Any("marking", controller.Marking()),
		)
	},
}

func splitPlaces(list string, model *netfile.Model) []string {
	if list != "" {
		return strings.Split(list, ",")
	}
	places := make([]string, 0, len(model.Net.Places))
	for _, p := range model.Net.Places {
		places = append(places, p.Name)
	}
	return places
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&netFile, "file", "f", "net.yaml", "net definition file")
	runCmd.Flags().Float64Var(&duration, "duration", 0, "simulation duration, overrides the net file")
	runCmd.Flags().Float64Var(&dtManual, "dt", 0.1, "manual step size, overrides automatic stepping")
	runCmd.Flags().IntVar(&maxSteps, "steps", 0, "maximum number of steps, 0 for unlimited")
	runCmd.Flags().StringVar(&policy, "policy", "", "conflict policy: random, priority or round-robin")
	runCmd.Flags().Int64Var(&seed, "seed", 1, "random seed for stochastic sampling and random conflicts")
	runCmd.Flags().StringVarP(&csvOut, "csv", "o", "", "write the marking trajectory to this CSV file")
	runCmd.Flags().StringVar(&csvPlaces, "places", "", "comma separated places to record, default all")
	runCmd.Flags().BoolVar(&publish, "publish", false, "publish events to the configured AMQP exchange")
}
