package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/scribe/cli"
	"github.com/grovetools/scribe/logging"
	"github.com/grovetools/scribe/pkg/paths"
	"github.com/grovetools/scribe/util/pathutil"
	"github.com/hpcloud/tail"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// TailedLine is one line of log output from a component's log file.
type TailedLine struct {
	Component string
	Line      string
}

// NewLogsCmd creates the `logs` command.
func NewLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display scribe log files",
		Long: `Prints the latest log file of every component, or of the components
given with --component. With --follow, new lines are streamed as they are
written, including files created after the command started.

Examples:
  # Last 50 lines from every component
  scribe logs --tail 50

  # Follow the daemon's log
  scribe logs -f -c scribed`,
		RunE: runLogsE,
	}

	cmd.Flags().StringSliceP("component", "C", nil, "Only show these components (comma-separated)")
	cmd.Flags().BoolP("follow", "f", false, "Follow log output")
	cmd.Flags().IntP("tail", "n", -1, "Number of lines to show from the end of each file (default: all)")

	return cmd
}

func runLogsE(cmd *cobra.Command, args []string) error {
	logger := cli.GetLogger(cmd)
	opts := cli.GetOptions(cmd)

	components, _ := cmd.Flags().GetStringSlice("component")
	follow, _ := cmd.Flags().GetBool("follow")
	tailLines, _ := cmd.Flags().GetInt("tail")

	files, err := logFiles(opts, components, follow)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "No log files found in %s\n", paths.LogDir())
		return nil
	}

	names := make([]string, 0, len(files))
	for component := range files {
		names = append(names, component)
	}
	sort.Strings(names)

	out := cmd.OutOrStdout()
	for _, component := range names {
		lines, err := lastLines(files[component], tailLines)
		if err != nil && !os.IsNotExist(err) {
			logger.WithError(err).WithField("file", files[component]).Warn("Failed to read log file")
			continue
		}
		for _, line := range lines {
			printLogLine(out, TailedLine{Component: component, Line: line}, opts.JSONOutput)
		}
	}

	if !follow {
		return nil
	}

	lineChan := make(chan TailedLine, 100)
	var tails []*tail.Tail
	var wg sync.WaitGroup

	for _, component := range names {
		path := files[component]
		t, err := tail.TailFile(path, tail.Config{
			Follow:    true,
			ReOpen:    true,
			MustExist: false,
			Location:  &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
			Logger:    stdlog.New(io.Discard, "", 0),
		})
		if err != nil {
			logger.WithError(err).WithField("file", path).Warn("Failed to follow log file")
			continue
		}
		logger.WithFields(logrus.Fields{"component": component, "file": path}).Debug("Following log file")
		tails = append(tails, t)

		wg.Add(1)
		go func(component string, t *tail.Tail) {
			defer wg.Done()
			for line := range t.Lines {
				if line.Err != nil {
					continue
				}
				lineChan <- TailedLine{Component: component, Line: line.Text}
			}
		}(component, t)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	defer signal.Stop(stop)

	go func() {
		<-stop
		for _, t := range tails {
			_ = t.Stop()
			t.Cleanup()
		}
	}()

	go func() {
		wg.Wait()
		close(lineChan)
	}()

	for tailedLine := range lineChan {
		printLogLine(out, tailedLine, opts.JSONOutput)
	}
	return nil
}

// logFiles maps each selected component to the file to read. An explicit
// file sink in the logging config wins; otherwise the newest dated file
// per component in the log dir is used. When following a component with
// no file yet, today's path is returned so the tail picks it up once
// created.
func logFiles(opts cli.CommandOptions, components []string, follow bool) (map[string]string, error) {
	var logCfg logging.Config
	if cfg, err := cli.LoadConfig(opts); err == nil {
		_ = cfg.UnmarshalExtension("logging", &logCfg)
	}
	if logCfg.File.Enabled && logCfg.File.Path != "" {
		path, err := pathutil.Expand(logCfg.File.Path)
		if err != nil {
			return nil, err
		}
		return map[string]string{"all": path}, nil
	}

	dir := paths.LogDir()
	files, err := latestLogFiles(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("could not read log directory %s: %w", dir, err)
	}

	if len(components) == 0 {
		return files, nil
	}

	selected := make(map[string]string, len(components))
	for _, component := range components {
		if path, ok := files[component]; ok {
			selected[component] = path
		} else if follow {
			selected[component] = logging.LogFilePath(component, time.Now())
		}
	}
	return selected, nil
}

// latestLogFiles returns the newest <component>-<YYYY-MM-DD>.log per
// component in dir.
func latestLogFiles(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]string)
	latestDay := make(map[string]time.Time)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		component, day, ok := parseLogFileName(entry.Name())
		if !ok {
			continue
		}
		if day.After(latestDay[component]) {
			latestDay[component] = day
			latest[component] = filepath.Join(dir, entry.Name())
		}
	}
	return latest, nil
}

// parseLogFileName splits "<component>-<YYYY-MM-DD>.log".
func parseLogFileName(name string) (string, time.Time, bool) {
	const dateLen = len("2006-01-02")

	base := strings.TrimSuffix(name, ".log")
	if base == name || len(base) < dateLen+2 || base[len(base)-dateLen-1] != '-' {
		return "", time.Time{}, false
	}
	day, err := time.Parse("2006-01-02", base[len(base)-dateLen:])
	if err != nil {
		return "", time.Time{}, false
	}
	return base[:len(base)-dateLen-1], day, true
}

// lastLines returns the last n non-empty lines of the file, or all of them
// when n is negative.
func lastLines(path string, n int) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	if n >= 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}

// printLogLine prints JSON log lines either as JSON enriched with the
// component or pretty-printed. Other lines are printed as they are.
func printLogLine(w io.Writer, tl TailedLine, jsonOutput bool) {
	var logMap map[string]interface{}
	parseErr := json.Unmarshal([]byte(tl.Line), &logMap)

	if jsonOutput {
		if parseErr != nil {
			logMap = map[string]interface{}{"raw_line": tl.Line}
		}
		if _, ok := logMap["component"]; !ok {
			logMap["component"] = tl.Component
		}
		data, _ := json.Marshal(logMap)
		fmt.Fprintln(w, string(data))
		return
	}

	t := cli.DefaultTheme
	if parseErr != nil {
		fmt.Fprintf(w, "[%s] %s\n", t.Accent.Render(tl.Component), tl.Line)
		return
	}

	ts, _ := logMap["time"].(string)
	level, _ := logMap["level"].(string)
	msg, _ := logMap["msg"].(string)

	timeStr := ts
	if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		timeStr = parsed.Format("15:04:05")
	}

	var levelStyle lipgloss.Style
	switch strings.ToLower(level) {
	case "error", "fatal", "panic":
		levelStyle = t.Error
	case "warning":
		levelStyle = t.Warning
	case "info":
		levelStyle = t.Info
	default:
		levelStyle = t.Muted
	}

	var keys []string
	for k := range logMap {
		switch k {
		case "time", "level", "msg", "component":
		default:
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	fields := make([]string, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, fmt.Sprintf("%s=%v", t.Muted.Render(k), logMap[k]))
	}

	fmt.Fprintf(w, "%s [%s] %s %s %s\n",
		timeStr,
		t.Accent.Render(tl.Component),
		levelStyle.Render(strings.ToUpper(level)),
		msg,
		strings.Join(fields, " "),
	)
}
