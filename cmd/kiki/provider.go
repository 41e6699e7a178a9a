package main

import (
	"fmt"
	"sort"

	"github.com/4thel00z/kikitori/internal"
	"github.com/spf13/cobra"
)

func NewProviderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provider",
		Short: "Manage LLM providers",
		Long:  `List, add, remove, and test LLM providers.`,
	}

	cmd.AddCommand(
		newProviderListCmd(a),
		newProviderAddCmd(a),
		newProviderRemoveCmd(a),
		newProviderDefaultCmd(a),
		newProviderTestCmd(a),
	)

	return cmd
}

func newProviderListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured providers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			scopeHint, _ := cmd.Flags().GetString("scope")

			_, cfg, err := a.scopeConfig(scopeHint)
			if err != nil {
				return err
			}

			if len(cfg.Providers) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No providers configured.")
				return nil
			}

			names := make([]string, 0, len(cfg.Providers))
			for name := range cfg.Providers {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				marker := ""
				if name == cfg.DefaultProvider {
					marker = " (default)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", name, marker)
			}
			return nil
		},
	}
}

func newProviderAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			scopeHint, _ := cmd.Flags().GetString("scope")
			apiKey, _ := cmd.Flags().GetString("api-key")
			baseURL, _ := cmd.Flags().GetString("base-url")
			model, _ := cmd.Flags().GetString("model")

			scope, cfg, err := a.scopeConfig(scopeHint)
			if err != nil {
				return err
			}

			cfg.Providers[name] = internal.ProviderConfig{
				APIKey:  apiKey,
				BaseURL: baseURL,
				Model:   model,
			}
			if cfg.DefaultProvider == "" {
				cfg.DefaultProvider = name
			}

			if err := internal.SaveConfig(scope, cfg); err != nil {
				return fmt.Errorf("add provider: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added provider %s\n", name)
			return nil
		},
	}

	cmd.Flags().String("api-key", "", "API key")
	cmd.Flags().String("base-url", "", "Base URL")
	cmd.Flags().String("model", "", "Model name")
	return cmd
}

func newProviderRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			scopeHint, _ := cmd.Flags().GetString("scope")

			scope, cfg, err := a.scopeConfig(scopeHint)
			if err != nil {
				return err
			}

			if _, ok := cfg.Providers[name]; !ok {
				return fmt.Errorf("unknown provider %q", name)
			}

			delete(cfg.Providers, name)
			if cfg.DefaultProvider == name {
				cfg.DefaultProvider = ""
			}

			if err := internal.SaveConfig(scope, cfg); err != nil {
				return fmt.Errorf("remove provider: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed provider %s\n", name)
			return nil
		},
	}
}

func newProviderDefaultCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "default <name>",
		Short: "Set default provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			scopeHint, _ := cmd.Flags().GetString("scope")

			scope, cfg, err := a.scopeConfig(scopeHint)
			if err != nil {
				return err
			}

			if _, ok := cfg.Providers[name]; !ok {
				return fmt.Errorf("unknown provider %q", name)
			}

			cfg.DefaultProvider = name
			if err := internal.SaveConfig(scope, cfg); err != nil {
				return fmt.Errorf("set default: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Default provider set to %s\n", name)
			return nil
		},
	}
}

func newProviderTestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "test <name>",
		Short: "Test provider connectivity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			scopeHint, _ := cmd.Flags().GetString("scope")

			_, cfg, err := a.scopeConfig(scopeHint)
			if err != nil {
				return err
			}

			provider, err := a.newProvider(cmd.Context(), cfg, name)
			if err != nil {
				return err
			}

			if _, err := provider.Complete(cmd.Context(), "Say OK.", internal.SamplingParams{MaxTokens: 8}); err != nil {
				return fmt.Errorf("test provider: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Provider %s is working\n", name)
			return nil
		},
	}
}
