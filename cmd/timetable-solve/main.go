package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
)

const (
	exitInfeasible = 3
	exitInvalid    = 4
)

type output struct {
	Stats  timetable.Stats            `yaml:"stats"`
	Blocks []outputBlock              `yaml:"blocks"`
	Report timetable.ValidationResult `yaml:"report"`
}

type outputBlock struct {
	GroupID int64  `yaml:"group_id"`
	Day     string `yaml:"day"`
	Period  int    `yaml:"period"`
	RoomID  *int64 `yaml:"room_id,omitempty"`
	Fixed   bool   `yaml:"fixed,omitempty"`
}

func main() {
	file := flag.String("f", "", "problem file (YAML)")
	format := flag.String("o", "table", "output format: table or yaml")
	verbose := flag.Bool("v", false, "log solver progress to stderr")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: timetable-solve -f problem.yaml [-o table|yaml] [-v]")
		os.Exit(2)
	}

	logr := zap.NewNop()
	if *verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			logr = l
		}
	}

	os.Exit(run(*file, *format, logr, os.Stdout, os.Stderr))
}

// run flushes logr before returning the exit code; main leaves through os.Exit.
func run(path, format string, logr *zap.Logger, stdout, stderr io.Writer) int {
	defer logr.Sync() //nolint:errcheck

	p, err := loadProblem(path)
	if err != nil {
		fmt.Fprintln(stderr, errStyle.Render("error: ")+err.Error())
		return 1
	}
	in, err := p.input()
	if err != nil {
		fmt.Fprintln(stderr, errStyle.Render("error: ")+err.Error())
		return exitInvalid
	}

	scheduler := timetable.NewScheduler(timetable.Options{
		SpreadAcrossDays: p.Options.SpreadAcrossDays,
		MaxSteps:         p.Options.MaxSteps,
	}, logr)
	res, err := scheduler.Run(in)
	if err != nil {
		var invalid *timetable.InvalidInputError
		var cfgErr *timetable.ConfigurationError
		switch {
		case errors.Is(err, timetable.ErrSchedulingInfeasible):
			fmt.Fprintln(stderr, errStyle.Render("infeasible: ")+err.Error())
			return exitInfeasible
		case errors.As(err, &invalid), errors.As(err, &cfgErr):
			fmt.Fprintln(stderr, errStyle.Render("invalid: ")+err.Error())
			return exitInvalid
		default:
			fmt.Fprintln(stderr, errStyle.Render("error: ")+err.Error())
			return 1
		}
	}

	all := make([]models.LectureBlock, 0, len(in.Existing)+len(res.Blocks))
	all = append(all, in.Existing...)
	for i, b := range res.Blocks {
		b.ID = int64(len(in.Existing) + i + 1)
		all = append(all, b)
	}
	report := timetable.NewChecker(p.Options.DailyLoadThreshold).ValidateSchedule(all, in.TimeOffs)

	switch format {
	case "yaml":
		out := output{Stats: res.Stats, Report: report, Blocks: make([]outputBlock, 0, len(all))}
		for _, b := range all {
			out.Blocks = append(out.Blocks, outputBlock{GroupID: b.GroupID, Day: b.Day, Period: b.Period, RoomID: b.RoomID, Fixed: b.IsFixed})
		}
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			fmt.Fprintln(stderr, errStyle.Render("error: ")+err.Error())
			return 1
		}
		_ = enc.Close()
	default:
		fmt.Fprintln(stdout, renderGrids(in.Grid, all, p.names()))
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, renderSummary(res.Stats, len(res.Blocks), report))
	}

	if !report.IsValid {
		return exitInvalid
	}
	return 0
}
