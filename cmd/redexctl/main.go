// Command redexctl is the front end over the core engine: a REPL when
// stdin is a terminal, a batch evaluator otherwise, plus commands for
// loading and dumping image files.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"redex/pkg/driverconfig"
	"redex/pkg/session"
)

// Exit codes (spec §6): 0 success, 1 a session-boundary error
// (Space/Null/Tag/Syntax or an unreadable file), 2 a usage error.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var (
		configPath string
		spaceQuota int
		timeQuota  int
		imagePath  string
		logLevel   string
		usageErr   bool
	)
	usageArgs := func(check cobra.PositionalArgs) cobra.PositionalArgs {
		return func(cmd *cobra.Command, args []string) error {
			err := check(cmd, args)
			usageErr = usageErr || err != nil
			return err
		}
	}

	root := &cobra.Command{
		Use:           "redexctl [program]",
		Short:         "redexctl evaluates programs in the rewrite engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			cfg := driverconfig.Defaults()
			var err error
			if configPath != "" {
				cfg, err = driverconfig.LoadFile(cfg, configPath)
				if err != nil {
					return err
				}
			}
			cfg, err = driverconfig.LoadEnv(cfg)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("space") {
				cfg.SpaceQuota = spaceQuota
			}
			if cmd.Flags().Changed("time") {
				cfg.TimeQuota = timeQuota
			}
			if cmd.Flags().Changed("image") {
				cfg.Image = imagePath
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}

			level, err := zerolog.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).
				With().
				Str("session", uuid.NewString()).
				Timestamp().
				Logger()

			s := session.New(cfg.SpaceQuota, cfg.TimeQuota, log)
			if cfg.Image != "" {
				if err := s.LoadImageFile(cfg.Image); err != nil {
					return err
				}
			}

			if len(cmdArgs) == 1 {
				return evalBatch(s, cmdArgs[0], cmd.OutOrStdout())
			}
			if isatty.IsTerminal(os.Stdin.Fd()) {
				return runREPL(s, cmd.OutOrStdout())
			}
			return evalStream(s, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags := root.Flags()
	flags.StringVar(&configPath, "config", "", "path to a redex.yaml config file")
	flags.IntVar(&spaceQuota, "space", 0, "heap slot capacity (overrides config/env)")
	flags.IntVar(&timeQuota, "time", 0, "reduction step quota (overrides config/env)")
	flags.StringVar(&imagePath, "image", "", "Markdown image file to load at startup")
	flags.StringVar(&logLevel, "log-level", "", "zerolog level (debug, info, warn, error)")

	dumpCmd := &cobra.Command{
		Use:   "dump [image]",
		Short: "load an image and print its dictionary",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			cfg, err := driverconfig.LoadEnv(driverconfig.Defaults())
			if err != nil {
				return err
			}
			s := session.New(cfg.SpaceQuota, cfg.TimeQuota, zerolog.Nop())
			if err := s.LoadImageFile(cmdArgs[0]); err != nil {
				return err
			}
			dump, err := s.Dump()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), dump)
			return nil
		},
	}
	root.AddCommand(dumpCmd)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		usageErr = true
		return err
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "redexctl:", err)
		if usageErr {
			return exitUsage
		}
		return exitFailed
	}
	return exitOK
}

// evalBatch evaluates a single program given on the command line.
func evalBatch(s *session.Session, src string, out io.Writer) error {
	result, err := s.Eval(src)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, result)
	return nil
}

// evalStream evaluates one command per line of in, stopping at the
// first error.
func evalStream(s *session.Session, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		result, err := s.Eval(line)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, result)
	}
	return scanner.Err()
}

// runREPL drives an interactive line-edited loop over s.
func runREPL(s *session.Session, out io.Writer) error {
	rl, err := readline.New("redex> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}
		result, err := s.Eval(line)
		if err != nil {
			fmt.Fprintln(out, "error:", err)
			continue
		}
		fmt.Fprintln(out, result)
	}
}
