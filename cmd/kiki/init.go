package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/4thel00z/kikitori/internal"
	"github.com/spf13/cobra"
)

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a question store",
		Long:  `Initialize a new .kiki directory with the question store, library and config.`,
		RunE:  runInit,
	}

	cmd.Flags().Bool("global", false, "Initialize global scope (~/.kiki)")
	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	isGlobal, _ := cmd.Flags().GetBool("global")

	resolver := internal.NewScopeResolver()

	var scope internal.Scope
	if isGlobal {
		scope = resolver.Global()
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		scope = internal.Scope{
			Type:     internal.ScopeProject,
			Path:     cwd,
			KikiPath: filepath.Join(cwd, ".kiki"),
		}
	}

	if _, err := os.Stat(scope.KikiPath); err == nil {
		return fmt.Errorf("already initialized at %s", scope.KikiPath)
	}

	for _, dir := range []string{
		scope.StorePath(),
		scope.AudioPath(),
		scope.SessionPath(),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	if err := internal.InitLibrary(scope.LibraryPath()); err != nil {
		return fmt.Errorf("init library: %w", err)
	}

	cfg := internal.DefaultConfig()
	if err := internal.SaveConfig(scope, cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized question store at %s\n", scope.KikiPath)
	return nil
}
