package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/born-ml/normstat/internal/backend/cpu"
	"github.com/born-ml/normstat/internal/float16"
	"github.com/born-ml/normstat/internal/serialization"
	"github.com/born-ml/normstat/internal/tensor"
)

// statsFlags are the per-command flags of inv and var.
type statsFlags struct {
	epsilon    float64
	dtype      string
	in         string
	out        string
	tensorName string
}

func (f *statsFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.Float64Var(&f.epsilon, "eps", 1e-5, "epsilon added to the variance")
	fs.StringVar(&f.dtype, "dtype", "float32", "element type of positional values: float32, float64 or float16")
	fs.StringVar(&f.in, "in", "", "read statistics from a SafeTensors file instead of arguments")
	fs.StringVar(&f.out, "out", "", "write results to a SafeTensors file instead of stdout")
	fs.StringVar(&f.tensorName, "tensor", "", "convert only this tensor of --in")
}

// convertFunc converts one statistic buffer, returning the result buffer.
type convertFunc func(backend *cpu.CPUBackend, in *tensor.RawTensor) (*tensor.RawTensor, error)

func newInvCommand(global *globalFlags) *cobra.Command {
	var flags statsFlags
	cmd := &cobra.Command{
		Use:   "inv VARIANCE...",
		Short: "Convert variances to inverse standard deviations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, global, &flags, args, func(backend *cpu.CPUBackend, in *tensor.RawTensor) (*tensor.RawTensor, error) {
				return backend.VarianceToInvVariance(in, flags.epsilon)
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newVarCommand(global *globalFlags) *cobra.Command {
	var (
		flags      statsFlags
		sampleSize int
	)
	cmd := &cobra.Command{
		Use:   "var INV_STD...",
		Short: "Recover Bessel-corrected variances from inverse standard deviations",
		Long: "Recover Bessel-corrected variances from inverse standard deviations.\n\n" +
			"Precision (--precision) is " + precisionUsage + ".",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, global, &flags, args, func(backend *cpu.CPUBackend, in *tensor.RawTensor) (*tensor.RawTensor, error) {
				if err := backend.InvVarianceToVariance(in, flags.epsilon, sampleSize); err != nil {
					return nil, err
				}
				return in, nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&sampleSize, "n", 1, "number of samples each statistic was computed over")
	return cmd
}

func runStats(cmd *cobra.Command, global *globalFlags, flags *statsFlags, args []string, convert convertFunc) error {
	inputs, metadata, err := loadInputs(args, flags)
	if err != nil {
		return err
	}

	a, err := newApp(cmd, global)
	if err != nil {
		return err
	}
	defer func() { _ = a.close(cmd.Context()) }()

	backend, err := a.backend()
	if err != nil {
		return err
	}

	outputs := make(map[string]*tensor.RawTensor, len(inputs))
	for name, in := range inputs {
		out, err := convert(backend, in)
		if err != nil {
			if name != "" {
				return fmt.Errorf("tensor %s: %w", name, err)
			}
			return err
		}
		outputs[name] = out
	}

	if flags.out != "" {
		return serialization.WriteFile(flags.out, outputs, metadata)
	}
	return printOutputs(cmd.OutOrStdout(), outputs)
}

// loadInputs returns the buffers to convert, keyed by tensor name. Positional
// values form a single buffer under the empty name unless --out names it.
func loadInputs(args []string, flags *statsFlags) (map[string]*tensor.RawTensor, map[string]string, error) {
	if flags.in == "" {
		if len(args) == 0 {
			return nil, nil, errors.New("no values given (pass values as arguments or use --in)")
		}
		raw, err := parseStatistics(args, flags.dtype)
		if err != nil {
			return nil, nil, err
		}
		name := flags.tensorName
		if name == "" && flags.out != "" {
			name = "statistics"
		}
		return map[string]*tensor.RawTensor{name: raw}, nil, nil
	}

	if len(args) > 0 {
		return nil, nil, errors.New("positional values cannot be combined with --in")
	}
	tensors, metadata, err := serialization.ReadFile(flags.in)
	if err != nil {
		return nil, nil, err
	}
	if flags.tensorName != "" {
		raw, err := serialization.Lookup(tensors, flags.tensorName)
		if err != nil {
			return nil, nil, err
		}
		tensors = map[string]*tensor.RawTensor{flags.tensorName: raw}
	}
	delete(metadata, serialization.ChecksumKey)
	return tensors, metadata, nil
}

// parseStatistics turns command arguments into a CPU buffer of the named type.
func parseStatistics(args []string, dtypeName string) (*tensor.RawTensor, error) {
	dtype, ok := tensor.ParseDataType(dtypeName)
	if !ok {
		return nil, fmt.Errorf("unknown dtype %q", dtypeName)
	}
	values := make([]float64, len(args))
	for i, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		values[i] = v
	}

	switch dtype {
	case tensor.Float64:
		return tensor.FromSlice(values, tensor.CPU), nil
	case tensor.Float32:
		f32 := make([]float32, len(values))
		for i, v := range values {
			f32[i] = float32(v)
		}
		return tensor.FromSlice(f32, tensor.CPU), nil
	case tensor.Float16:
		half := make([]float16.Float16, len(values))
		for i, v := range values {
			half[i] = float16.FromFloat64(v)
		}
		return tensor.FromSlice(half, tensor.CPU), nil
	default:
		return nil, fmt.Errorf("unsupported dtype %s", dtype)
	}
}

// printOutputs writes one value per line, preceded by "# name" for named buffers.
func printOutputs(w io.Writer, outputs map[string]*tensor.RawTensor) error {
	names := make([]string, 0, len(outputs))
	for name := range outputs {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		if name != "" {
			fmt.Fprintf(&sb, "# %s\n", name)
		}
		formatStatistics(&sb, outputs[name])
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func formatStatistics(sb *strings.Builder, t *tensor.RawTensor) {
	switch t.DType() {
	case tensor.Float32:
		for _, v := range t.AsFloat32() {
			sb.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
			sb.WriteByte('\n')
		}
	case tensor.Float64:
		for _, v := range t.AsFloat64() {
			sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
			sb.WriteByte('\n')
		}
	case tensor.Float16:
		for _, v := range t.AsFloat16() {
			sb.WriteString(v.String())
			sb.WriteByte('\n')
		}
	}
}
