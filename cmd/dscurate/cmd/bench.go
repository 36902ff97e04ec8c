package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/dscurate/internal/benchmark"
	"github.com/MeKo-Tech/dscurate/internal/models"
)

func newBenchCommand(a *app) *cobra.Command {
	var (
		imgsz, warmup, runs int
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Inference latency microbenchmarks",
	}
	cmd.PersistentFlags().IntVar(&imgsz, "imgsz", 0, "input size (default from config)")
	cmd.PersistentFlags().IntVar(&warmup, "warmup", -1, "untimed warm-up runs (default from config)")
	cmd.PersistentFlags().IntVar(&runs, "runs", 0, "timed runs (default from config)")

	// applyOverrides copies explicit flags onto the loaded config.
	applyOverrides := func(cmd *cobra.Command) {
		if cmd.Flags().Changed("imgsz") {
			a.cfg.Bench.ImgSize = imgsz
		}
		if cmd.Flags().Changed("warmup") {
			a.cfg.Bench.Warmup = warmup
		}
		if cmd.Flags().Changed("runs") {
			a.cfg.Bench.Iterations = runs
		}
	}

	var (
		model, lib string
		gpu        bool
		threads    int
	)
	onnxCmd := &cobra.Command{
		Use:   "onnx",
		Short: "Time an exported model with ONNX Runtime on a random input",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyOverrides(cmd)
			if cmd.Flags().Changed("onnx-lib") {
				a.cfg.Bench.ONNXLib = lib
			}
			if cmd.Flags().Changed("gpu") {
				a.cfg.Bench.GPU = gpu
			}
			if cmd.Flags().Changed("threads") {
				a.cfg.Bench.Threads = threads
			}
			path, err := models.Resolve(model, a.cfg.Bench.ModelsDir)
			if err != nil {
				return err
			}
			s, err := benchmark.ONNX(cmd.Context(), a.cfg.ToONNXOptions(path))
			if err != nil {
				return err
			}
			return printSummary(cmd, s)
		},
	}
	onnxCmd.Flags().StringVar(&model, "model", "", "path to the .onnx model, or its name inside the models folder")
	onnxCmd.Flags().StringVar(&lib, "onnx-lib", "", "ONNX Runtime shared library (default: auto-detect)")
	onnxCmd.Flags().BoolVar(&gpu, "gpu", false, "use the CUDA execution provider")
	onnxCmd.Flags().IntVar(&threads, "threads", 0, "intra-op threads (0 = runtime default)")
	_ = onnxCmd.MarkFlagRequired("model")

	cpuCmd := &cobra.Command{
		Use:   "cpu",
		Short: "Time a pure-Go 3x3 convolution as a CPU baseline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyOverrides(cmd)
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			s, err := benchmark.CPU(cmd.Context(), a.cfg.Bench.ImgSize, a.cfg.ToBenchOptions())
			if err != nil {
				return err
			}
			return printSummary(cmd, s)
		},
	}

	cmd.AddCommand(onnxCmd, cpuCmd)
	return cmd
}

func printSummary(cmd *cobra.Command, s benchmark.Summary) error {
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\nFPS=%.2f | p95=%.2fms | mean=%.2fms | runs=%d\n",
		s.Name, s.FPS, s.P95Ms, s.MeanMs, s.Runs)
	return err
}
