package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Lawguy81/cnslr-legal-platform/internal/credential"
)

var credentialCmd = &cobra.Command{
	Use:   "credential",
	Short: "Manage the agency API key in the system keyring",
}

var credentialSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the agency API key (read from stdin when --value is omitted)",
	RunE:  runCredentialSet,
}

var credentialDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored agency API key",
	RunE:  runCredentialDelete,
}

var credentialStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether an agency API key is stored",
	RunE:  runCredentialStatus,
}

var credentialValue string

func init() {
	credentialCmd.AddCommand(credentialSetCmd, credentialDeleteCmd, credentialStatusCmd)
	credentialSetCmd.Flags().StringVar(&credentialValue, "value", "", "API key value")
}

func openCredentials() (*credential.Store, error) {
	ring, err := credential.Open()
	if err != nil {
		return nil, err
	}
	return credential.NewStore(ring), nil
}

func runCredentialSet(cmd *cobra.Command, args []string) error {
	key := credentialValue
	if key == "" {
		fmt.Fprint(os.Stderr, "Agency API key: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read API key: %w", err)
		}
		key = strings.TrimSpace(line)
	}

	s, err := openCredentials()
	if err != nil {
		return err
	}
	if err := s.SetAPIKey(key); err != nil {
		return err
	}
	fmt.Println("✓ API key stored")
	return nil
}

func runCredentialDelete(cmd *cobra.Command, args []string) error {
	s, err := openCredentials()
	if err != nil {
		return err
	}
	if err := s.DeleteAPIKey(); err != nil {
		return err
	}
	fmt.Println("✓ API key removed")
	return nil
}

func runCredentialStatus(cmd *cobra.Command, args []string) error {
	s, err := openCredentials()
	if err != nil {
		return err
	}
	_, err = s.APIKey()
	switch {
	case errors.Is(err, credential.ErrNotFound):
		fmt.Println("No API key stored")
	case err != nil:
		return err
	default:
		fmt.Println("API key stored")
	}
	return nil
}
