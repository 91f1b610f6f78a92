package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"pix-gateway/config"
	"pix-gateway/internal/adapter/http/dto"
	"pix-gateway/internal/core/ports"
	"pix-gateway/internal/service"
	"pix-gateway/pkg/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func keysCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys directly in the configured store",
	}
	cmd.AddCommand(keysIssueCmd(configPath))
	cmd.AddCommand(keysRevokeCmd(configPath))
	return cmd
}

func keysIssueCmd(configPath *string) *cobra.Command {
	var clientName string

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a new API key and print it once as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCredentialService(cmd.Context(), *configPath, func(ctx context.Context, svc ports.CredentialService) error {
				cred, err := svc.Issue(ctx, clientName)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), dto.NewAPIKeyResponse(cred))
			})
		},
	}
	cmd.Flags().StringVarP(&clientName, "client-name", "n", "", "label for the key owner")
	return cmd
}

func keysRevokeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <key_id>",
		Short: "Deactivate an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCredentialService(cmd.Context(), *configPath, func(ctx context.Context, svc ports.CredentialService) error {
				if err := svc.Deactivate(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", args[0])
				return nil
			})
		},
	}
}

func withCredentialService(ctx context.Context, configPath string, fn func(context.Context, ports.CredentialService) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateStorage(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Storage.Driver == config.StorageDriverMemory {
		return fmt.Errorf("keys commands need a persistent storage driver, got %q", cfg.Storage.Driver)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty).Level(zerolog.WarnLevel)

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.close()

	hasher, err := service.NewBlake2bSecretHasher(cfg.Security.SecretPepper)
	if err != nil {
		return err
	}
	return fn(ctx, service.NewCredentialService(store.credentials, hasher, log))
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
