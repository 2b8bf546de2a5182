// cmd/grit/main.go
package main

import (
	"fmt"
	"os"

	"grit/internal/logging"
	"grit/internal/repo"
	"grit/internal/status"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:           "grit",
	Short:         "Grit is a minimal content-addressed version control system",
	Long:          `Grit tracks file content across a staging area and a linear commit history, storing file blobs by content hash inside a hidden .grit directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func newLogger() *zap.Logger {
	level := os.Getenv("GRIT_LOG")
	if level == "" {
		level = "warn"
	}
	logger, err := logging.NewLogger(level)
	if err != nil {
		return logging.NewNop()
	}
	return logger.Logger
}

func openRepo() (*repo.Repository, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting current directory: %w", err)
	}
	return repo.Open(cwd, newLogger())
}

func init() {
	var initCmd = &cobra.Command{
		Use:   "init",
		Short: "Initialize a new Grit repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}

			if err := repo.Initialize(dir); err != nil {
				return fmt.Errorf("initializing repository: %w", err)
			}

			fmt.Println("Initialized empty Grit repository in", dir)
			return nil
		},
	}

	var addCmd = &cobra.Command{
		Use:   "add [paths...]",
		Short: "Stage file contents for the next commit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			return r.Add(args)
		},
	}

	var rmCmd = &cobra.Command{
		Use:   "rm [paths...]",
		Short: "Unstage files, or stage tracked files for removal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			return r.Remove(args)
		},
	}

	var commitCmd = &cobra.Command{
		Use:   "commit [message]",
		Short: "Record the staged snapshot as a new commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			hash, err := r.Commit(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("[%s] %s\n", hash[:8], args[0])
			return nil
		},
	}

	var statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show working tree status",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			report, branch, err := r.Status()
			if err != nil {
				return err
			}

			printStatus(report, branch)
			return nil
		},
	}

	var logCmd = &cobra.Command{
		Use:   "log",
		Short: "Show commit history, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			walker, err := r.History()
			if err != nil {
				return err
			}

			yellow := color.New(color.FgYellow).SprintFunc()
			for {
				c, err := walker.Next()
				if err != nil {
					return err
				}
				if c == nil {
					break
				}
				fmt.Println("===")
				fmt.Printf("commit %s\n", yellow(c.Hash))
				fmt.Printf("Date: %s\n", c.Time().Format("Mon Jan 2 15:04:05 2006 -0700"))
				fmt.Println(c.Message)
				fmt.Println()
			}
			return nil
		},
	}

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logCmd)
}

func printStatus(report *status.Report, branch string) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	blue := color.New(color.FgBlue).SprintFunc()

	fmt.Println("=== Branches ===")
	fmt.Printf("*%s\n", branch)
	fmt.Println()

	fmt.Println("=== Staged Files ===")
	for _, p := range report.Staged {
		fmt.Println(green(p))
	}
	fmt.Println()

	fmt.Println("=== Removed Files ===")
	for _, p := range report.Removed {
		fmt.Println(red(p))
	}
	fmt.Println()

	fmt.Println("=== Modifications Not Staged For Commit ===")
	for _, e := range report.Modified {
		if e.Deleted {
			fmt.Printf("%s (deleted)\n", yellow(e.Path))
		} else {
			fmt.Printf("%s (modified)\n", yellow(e.Path))
		}
	}
	fmt.Println()

	fmt.Println("=== Untracked Files ===")
	for _, p := range report.Untracked {
		fmt.Println(blue(p))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
