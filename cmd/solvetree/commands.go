package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	hostOverride string
	noJournal    bool
	demoSeed     int64
	demoVars     int
	demoDepth    int
	replayTUI    bool
	pruneKeep    int
	resetYes     bool

	rootCmd = &cobra.Command{
		Use:   "solvetree",
		Short: "A terminal panel for exploring a constraint solver's search tree",
		Long: `solvetree attaches to a solver host, mirrors its search tree and
variable domains in the terminal, and journals every message so a
session can be replayed later.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: teardown,
	}

	// --- Live sessions ---
	attachCmd = &cobra.Command{
		Use:   "attach [url]",
		Short: "Connect to a host over websocket (defaults to host.url)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runAttach, // Defined in session.go
	}
	stdioCmd = &cobra.Command{
		Use:   "stdio",
		Short: "Talk to the host over stdin/stdout and draw on the controlling terminal",
		Args:  cobra.NoArgs,
		RunE:  runStdio, // Defined in session.go
	}
	demoCmd = &cobra.Command{
		Use:   "demo",
		Short: "Explore a generated search served by a built-in host",
		Args:  cobra.NoArgs,
		RunE:  runDemo, // Defined in session.go
	}

	// --- Journal ---
	replayCmd = &cobra.Command{
		Use:   "replay [session]",
		Short: "Re-apply a journaled session and print the resulting tree (latest session by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runReplay, // Defined in journal.go
	}
	sessionsCmd = &cobra.Command{
		Use:   "sessions",
		Short: "List journaled sessions",
		Args:  cobra.NoArgs,
		RunE:  runSessions, // Defined in journal.go
	}
	resetCmd = &cobra.Command{
		Use:   "reset",
		Short: "DANGER: delete every journaled session",
		Args:  cobra.NoArgs,
		RunE:  runReset, // Defined in journal.go
	}
	pruneCmd = &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest sessions",
		Args:  cobra.NoArgs,
		RunE:  runPrune, // Defined in journal.go
	}

	// --- Credentials ---
	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Manage host tokens kept in the local secret store",
	}
	tokenSetCmd = &cobra.Command{
		Use:   "set [host] [token]",
		Short: "Store the bearer token for a host",
		Args:  cobra.ExactArgs(2),
		RunE:  runTokenSet, // Defined in token.go
	}
	tokenDeleteCmd = &cobra.Command{
		Use:   "delete [host]",
		Short: "Forget the bearer token for a host",
		Args:  cobra.ExactArgs(1),
		RunE:  runTokenDelete, // Defined in token.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&hostOverride, "host", "", "host URL, overrides host.url")
	rootCmd.PersistentFlags().BoolVar(&noJournal, "no-journal", false, "do not record this session")

	demoCmd.Flags().Int64Var(&demoSeed, "seed", 1, "generator seed")
	demoCmd.Flags().IntVar(&demoVars, "vars", 4, "number of decision variables")
	demoCmd.Flags().IntVar(&demoDepth, "depth", 6, "search depth")

	replayCmd.Flags().BoolVar(&replayTUI, "tui", false, "open the replay in the panel instead of printing it")
	pruneCmd.Flags().IntVar(&pruneKeep, "keep", 20, "number of newest sessions to keep")
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "confirm deleting the whole journal")

	tokenCmd.AddCommand(tokenSetCmd, tokenDeleteCmd)
	rootCmd.AddCommand(attachCmd, stdioCmd, demoCmd, replayCmd, sessionsCmd, resetCmd, pruneCmd, tokenCmd)
}
