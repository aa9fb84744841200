package profiling

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/spf13/cobra"
)

// CobraProfiler holds the profiling flags of a cobra command tree.
type CobraProfiler struct {
	cpuProfileFile *os.File
	cpuProfilePath string
	memProfilePath string
	timing         bool
}

// Register adds --cpu-profile, --mem-profile and --timing to root and
// hooks them into its persistent pre and post run. The root span is
// labelled with name.
func Register(root *cobra.Command, name string) *CobraProfiler {
	p := &CobraProfiler{}
	root.PersistentFlags().StringVar(&p.cpuProfilePath, "cpu-profile", "", "Write CPU profile to file")
	root.PersistentFlags().StringVar(&p.memProfilePath, "mem-profile", "", "Write memory profile to file")
	root.PersistentFlags().BoolVar(&p.timing, "timing", false, "Print a timing summary of invoked commands on exit")
	for _, flag := range []string{"cpu-profile", "mem-profile", "timing"} {
		_ = root.PersistentFlags().MarkHidden(flag)
	}

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return p.preRun(name)
	}
	root.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		p.postRun(cmd)
	}
	return p
}

func (p *CobraProfiler) preRun(name string) error {
	if p.timing {
		Enable(name)
	}

	if p.cpuProfilePath != "" {
		f, err := os.Create(p.cpuProfilePath)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		p.cpuProfileFile = f
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			p.cpuProfileFile = nil
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
	}
	return nil
}

func (p *CobraProfiler) postRun(cmd *cobra.Command) {
	w := cmd.ErrOrStderr()

	if p.cpuProfileFile != nil {
		pprof.StopCPUProfile()
		p.cpuProfileFile.Close()
		fmt.Fprintf(w, "CPU profile written to %s\n", p.cpuProfilePath)
	}

	if p.memProfilePath != "" {
		f, err := os.Create(p.memProfilePath)
		if err != nil {
			fmt.Fprintf(w, "could not create memory profile: %v\n", err)
			return
		}
		defer f.Close()
		runtime.GC() // get up-to-date statistics
		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(w, "could not write memory profile: %v\n", err)
			return
		}
		fmt.Fprintf(w, "Memory profile written to %s\n", p.memProfilePath)
	}

	if p.timing {
		Summarize(w)
	}
}
