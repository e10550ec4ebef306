package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/quicktrans/internal/cli"
	"codeberg.org/snonux/quicktrans/internal/i18n"
	"codeberg.org/snonux/quicktrans/internal/processor"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()
	runner := &lazyRunner{flags: flags}
	defer runner.Close()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags, runner)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
		i18n.Init(viper.GetString("ui.language"))
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	runner.Close()
	if errors.Is(err, context.Canceled) {
		os.Exit(130)
	}
	os.Exit(1)
}

// lazyRunner opens the state database on the first command that needs
// it, so --help and --version work without touching the disk.
type lazyRunner struct {
	flags *cli.Flags
	proc  *processor.Processor
}

func (r *lazyRunner) processor() (*processor.Processor, error) {
	if r.proc != nil {
		return r.proc, nil
	}
	proc, err := processor.NewProcessor(r.flags)
	if err != nil {
		return nil, err
	}
	r.proc = proc
	return proc, nil
}

// Close closes the state database if it was opened
func (r *lazyRunner) Close() {
	if r.proc == nil {
		return
	}
	if err := r.proc.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close state database: %v\n", err)
	}
	r.proc = nil
}

func (r *lazyRunner) Run(ctx context.Context, cmd *cobra.Command, args []string) error {
	p, err := r.processor()
	if err != nil {
		return err
	}
	return p.Run(ctx, cmd, args)
}

func (r *lazyRunner) ListHistory(w io.Writer) error {
	p, err := r.processor()
	if err != nil {
		return err
	}
	return p.ListHistory(w)
}

func (r *lazyRunner) ClearHistory() error {
	p, err := r.processor()
	if err != nil {
		return err
	}
	return p.ClearHistory()
}

func (r *lazyRunner) ExportHistory(path string) error {
	p, err := r.processor()
	if err != nil {
		return err
	}
	return p.ExportHistory(path)
}

func (r *lazyRunner) ArchiveHistory(w io.Writer) error {
	p, err := r.processor()
	if err != nil {
		return err
	}
	return p.ArchiveHistory(w)
}

func (r *lazyRunner) ShowConfig(w io.Writer) error {
	p, err := r.processor()
	if err != nil {
		return err
	}
	return p.ShowConfig(w)
}

func (r *lazyRunner) SetConfig(key, value string) error {
	p, err := r.processor()
	if err != nil {
		return err
	}
	return p.SetConfig(key, value)
}

func (r *lazyRunner) ResetURL() error {
	p, err := r.processor()
	if err != nil {
		return err
	}
	return p.ResetURL()
}

func (r *lazyRunner) Swap(w io.Writer) error {
	p, err := r.processor()
	if err != nil {
		return err
	}
	return p.Swap(w)
}

func (r *lazyRunner) ListModels(ctx context.Context, w io.Writer) error {
	p, err := r.processor()
	if err != nil {
		return err
	}
	return p.ListModels(ctx, w)
}

var _ cli.Runner = (*lazyRunner)(nil)
