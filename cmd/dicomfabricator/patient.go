package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flatmapit/dicomfabricator/internal/registry"
)

func patientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patient",
		Short: "Manage the patient registry",
	}

	cmd.AddCommand(patientListCmd())
	cmd.AddCommand(patientSearchCmd())
	cmd.AddCommand(patientShowCmd())
	cmd.AddCommand(patientGenerateCmd())
	cmd.AddCommand(patientDeleteCmd())
	cmd.AddCommand(patientStatsCmd())

	return cmd
}

func patientListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered patients, most recently used first",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, _, _, err := openRegistry(newLogger())
			if err != nil {
				return err
			}

			patients := reg.List(limit)
			if len(patients) == 0 {
				fmt.Println("No patients in registry.")
				return nil
			}
			printPatientTable(patients)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum patients to show (0 = all)")
	return cmd
}

func patientSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search patients by ID, name or address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, _, _, err := openRegistry(newLogger())
			if err != nil {
				return err
			}

			matches := reg.Search(args[0])
			if len(matches) == 0 {
				fmt.Printf("No patients match %q.\n", args[0])
				return nil
			}
			printPatientTable(matches)
			return nil
		},
	}
}

func patientShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <patient-id>",
		Short: "Show one patient record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, _, _, err := openRegistry(newLogger())
			if err != nil {
				return err
			}

			rec, ok := reg.Get(args[0])
			if !ok {
				return fmt.Errorf("patient %q not found", args[0])
			}
			fmt.Printf("Patient ID:   %s\n", rec.PatientID)
			fmt.Printf("Name:         %s\n", rec.PatientName)
			fmt.Printf("Birth date:   %s\n", rec.BirthDate)
			fmt.Printf("Sex:          %s\n", rec.Sex)
			fmt.Printf("Address:      %s\n", rec.Address)
			fmt.Printf("Phone:        %s\n", rec.Phone)
			fmt.Printf("Created:      %s\n", rec.CreatedDate)
			fmt.Printf("Last used:    %s\n", rec.LastUsed)
			fmt.Printf("Study count:  %d\n", rec.StudyCount)
			return nil
		},
	}
}

func patientGenerateCmd() *cobra.Command {
	var (
		name string
		id   string
		n    int
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate new patients into the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, _, _, err := openRegistry(newLogger())
			if err != nil {
				return err
			}

			if n < 1 {
				n = 1
			}
			if n > 1 && (name != "" || id != "") {
				return fmt.Errorf("--name and --id cannot be combined with --count > 1")
			}

			for i := 0; i < n; i++ {
				rec, err := reg.Generate(name, id)
				if err != nil {
					return err
				}
				fmt.Printf("Created %s  %s\n", rec.PatientID, rec.PatientName)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Patient name (generated if not specified)")
	cmd.Flags().StringVar(&id, "id", "", "Patient ID (generated if not specified)")
	cmd.Flags().IntVar(&n, "count", 1, "Number of patients to generate")
	return cmd
}

func patientDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <patient-id>",
		Short: "Delete a patient from the registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, _, _, err := openRegistry(newLogger())
			if err != nil {
				return err
			}

			deleted, err := reg.Delete(args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("patient %q not found", args[0])
			}
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
}

func patientStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show registry statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, _, _, err := openRegistry(newLogger())
			if err != nil {
				return err
			}

			stats := reg.Stats()
			fmt.Printf("Total patients:     %d\n", stats.TotalPatients)
			fmt.Printf("Total studies:      %d\n", stats.TotalStudies)
			fmt.Printf("Avg studies/patient: %.1f\n", stats.AvgStudiesPerPatient)
			if stats.MostRecentPatient != "" {
				fmt.Printf("Most recent:        %s\n", stats.MostRecentPatient)
			}
			if stats.MostUsedPatient != "" {
				fmt.Printf("Most used:          %s\n", stats.MostUsedPatient)
			}
			return nil
		},
	}
}

func printPatientTable(patients []*registry.Record) {
	fmt.Printf("%-12s %-28s %-10s %-4s %-8s %s\n",
		"PATIENT ID", "NAME", "BIRTH", "SEX", "STUDIES", "LAST USED")
	for _, p := range patients {
		fmt.Printf("%-12s %-28s %-10s %-4s %-8d %s\n",
			p.PatientID, p.PatientName, p.BirthDate, p.Sex, p.StudyCount, p.LastUsed)
	}
}
