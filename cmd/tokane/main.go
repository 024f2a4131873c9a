// Command tokane runs the example arithmetic grammar built into the
// runtime, since there is no grammar compiler to load one from text.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/chzyer/readline"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	easy "github.com/t-tomalak/logrus-easy-formatter"

	"github.com/parsekit/tokane"
	"github.com/parsekit/tokane/ascii"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ascii.Color(ascii.DefaultTheme.Error, "%s", err))
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tokane",
		Short: "Run and inspect the example parselet-based arithmetic grammar",
	}

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		configureLogging()
	}

	root.AddCommand(runCmd(), disasmCmd(), replCmd())
	return root
}

// configureLogging maps TOKANE_DEBUG (0-3) onto the level of logrus's
// standard logger: 0 is ErrorLevel, 1 InfoLevel, 2 DebugLevel, 3 and
// above TraceLevel. The runtime writes nothing to that logger: it logs
// only Op(Print) output, through its own Runtime.Log, which stays at
// ErrorLevel, and it emits no per-parse, per-call or per-op lines.
func configureLogging() {
	level := logrus.ErrorLevel
	if raw := os.Getenv("TOKANE_DEBUG"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			switch {
			case n >= 3:
				level = logrus.TraceLevel
			case n == 2:
				level = logrus.DebugLevel
			case n == 1:
				level = logrus.InfoLevel
			}
		}
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&easy.Formatter{LogFormat: "//tokane// %msg%\n"})
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [input]",
		Short: "Parse an input string against the example grammar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := tokane.BuildArithmeticGrammar()
			if err != nil {
				return err
			}
			value, err := tokane.Run(prog, tokane.NewReaderString(args[0]))
			if err != nil {
				return err
			}
			if value.Kind() == tokane.KindVoid {
				return tokane.ErrNoMatch
			}
			fmt.Println(ascii.Color(ascii.DefaultTheme.Success, "%s", value.String()))
			return nil
		},
	}
}

func disasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm",
		Short: "Print the bytecode listing of the example grammar",
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := tokane.BuildArithmeticGrammar()
			if err != nil {
				return err
			}
			fmt.Print(prog.Disasm())
			return nil
		},
	}
}

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Parse one line at a time from an interactive prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := tokane.BuildArithmeticGrammar()
			if err != nil {
				return err
			}

			rl, err := readline.New("tokane> ")
			if err != nil {
				return err
			}
			defer rl.Close()

			for {
				line, err := rl.Readline()
				if err != nil {
					return nil
				}
				if line == "" {
					continue
				}
				value, err := tokane.Run(prog, tokane.NewReaderString(line))
				if err != nil {
					fmt.Fprintln(os.Stderr, ascii.Color(ascii.DefaultTheme.Error, "%s", err))
					continue
				}
				fmt.Println(ascii.Color(ascii.DefaultTheme.Success, "%s", value.String()))
			}
		},
	}
}
