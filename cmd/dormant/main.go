package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot(newCommand())
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds minimal global/persistent flags for CLI commands
type GlobalFlags struct {
	ConfigPath string
}

// buildRoot creates the root command and wires the subcommands.
func buildRoot(dormantCommand command) *cobra.Command {
	globalFlags := &GlobalFlags{}

	root := createRootCommand(globalFlags)
	root.AddCommand(
		createRunCommand(dormantCommand, globalFlags),
		createStatusCommand(dormantCommand, globalFlags),
		createResumeCommand(dormantCommand, globalFlags),
	)
	return root
}

// createRootCommand creates the root command with minimal persistent flags
func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "dormant",
		Short: "Idle-activity supervisor for long-running servers",
		Long: `Dormant watches a running server process for signs of activity and
suspends it (SIGSTOP) after a period of continuous inactivity, resuming it
(SIGCONT) as soon as activity reappears. State survives monitor restarts.

Examples:
  dormant run --config=dormant.toml   # Start the monitor loop
  dormant status                      # Show persisted state
  dormant resume                      # Wake a suspended server by hand`,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")

	return root
}

// createRunCommand creates the run subcommand
func createRunCommand(dormantCommand command, globalFlags *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [config.toml]",
		Short: "Run the monitor loop",
		Long: `Run the monitor loop until the supervised process disappears or a
shutdown signal arrives. Exits immediately when the config disables
monitoring (enabled = false).

Examples:
  dormant run --config=dormant.toml
  dormant run dormant.toml
  DORMANT_ENABLED=true DORMANT_PROCESS_PATTERN=minecraft_server dormant run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := globalFlags.ConfigPath
			if len(args) > 0 {
				configPath = args[0]
			}
			return dormantCommand.Run(cmd.Context(), RunFlags{ConfigPath: configPath})
		},
	}
	return cmd
}

// createStatusCommand creates the status subcommand
func createStatusCommand(dormantCommand command, globalFlags *GlobalFlags) *cobra.Command {
	statusFlags := &StatusFlags{}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the persisted monitor state",
		Long: `Show the run state, idle time and cached PID recorded by the monitor.
Reads the state store directly; a running monitor is not required.

Examples:
  dormant status --config=dormant.toml
  dormant status --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dormantCommand.Status(cmd.Context(), StatusFlags{
				ConfigPath: globalFlags.ConfigPath,
				JSON:       statusFlags.JSON,
			})
		},
	}
	cmd.Flags().BoolVar(&statusFlags.JSON, "json", false, "print state as JSON")
	return cmd
}

// createResumeCommand creates the resume subcommand
func createResumeCommand(dormantCommand command, globalFlags *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Wake a suspended server by hand",
		Long: `Deliver SIGCONT to the supervised process and mark the state store
active, regardless of observed activity. Useful when the idle heuristics
miss a wake condition.

Examples:
  dormant resume --config=dormant.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dormantCommand.Resume(cmd.Context(), ResumeFlags{ConfigPath: globalFlags.ConfigPath})
		},
	}
	return cmd
}
