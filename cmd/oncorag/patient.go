package oncorag

import (
	"fmt"

	"github.com/oncorag/oncorag/pkg/config"
	"github.com/spf13/cobra"
)

var patientCmd = &cobra.Command{
	Use:   "patient",
	Short: "Manage the patient registry",
}

var patientAddCmd = &cobra.Command{
	Use:   "add <patient-id>",
	Short: "Register a new patient",
	Args:  cobra.ExactArgs(1),
	RunE:  runPatientAdd,
}

var patientListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered patients",
	RunE:  runPatientList,
}

var (
	patientName string
	patientAge  int
)

func init() {
	rootCmd.AddCommand(patientCmd)
	patientCmd.AddCommand(patientAddCmd)
	patientCmd.AddCommand(patientListCmd)

	patientAddCmd.Flags().StringVar(&patientName, "name", "", "Patient name (required)")
	patientAddCmd.Flags().IntVar(&patientAge, "age", 0, "Patient age")
	patientAddCmd.MarkFlagRequired("name")
}

func runPatientAdd(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	patientID := args[0]
	if err := client.Patients().AddPatient(patientID, patientName, patientAge, nil); err != nil {
		return fmt.Errorf("failed to add patient: %w", err)
	}

	fmt.Printf("Added patient %s (%s)\n", patientID, patientName)
	return nil
}

func runPatientList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	patients := client.Patients().ListPatients()
	if len(patients) == 0 {
		fmt.Println("No patients registered")
		return nil
	}

	for id, record := range patients {
		fmt.Printf("%s\t%s\t%d documents\n", id, record.Name, len(record.Documents))
	}
	return nil
}
