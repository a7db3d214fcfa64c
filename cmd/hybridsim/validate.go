package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	yamlfile "github.com/pathwaylab/hybrid/netfile/v1/yaml"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "check a net file without running it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		logger, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		defer func() { _ = logger.Sync() }()

		f, err := os.Open(args[0])
		if err != nil {
			logger.Fatal("failed to open net file", zap.Error(err))
		}
		defer func() { _ = f.Close() }()

		svc := &yamlfile.Service{}
		model, err := svc.Load(cmd.Context(), f)
		if err != nil {
			logger.Fatal("invalid net file", zap.Error(err))
		}
		if err := model.Net.Validate(); err != nil {
			logger.Fatal("invalid net", zap.Error(err))
		}
		logger.Info("net is valid",
			zap.String("name", model.Net.Name),
			zap.Int("places", len(model.Net.Places)),
			zap.Int("transitions", len(model.Net.Transitions)),
			zap.Int("arcs", len(model.Net.Arcs)),
		)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
