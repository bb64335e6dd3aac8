package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/eudr-dashboard/internal/schema"
)

func newSuppliersCmd(opts *rootOptions) *cobra.Command {
	suppliersCmd := &cobra.Command{
		Use:   "suppliers",
		Short: "List and register suppliers",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the tenant's suppliers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient(opts)
			if err != nil {
				return err
			}
			suppliers, err := client.Suppliers().List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return printJSON(out, suppliers)
			}
			tw := newTable(out, "ID", "NAME", "COUNTRY", "COMMODITIES", "RISK", "STATUS")
			for _, s := range suppliers {
				row(tw, s.ID, s.Name, s.Country, joinCommodities(s.Commodities), s.RiskLevel, s.ComplianceStatus)
			}
			return tw.Flush()
		},
	}

	var (
		form        schema.NewSupplier
		commodities []string
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Register a supplier",
		Long: fmt.Sprintf(`Register a supplier. The form is validated before it is sent.
Commodities: %s`, joinCommodities(schema.Commodities())),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, c := range commodities {
				form.Commodities = append(form.Commodities, schema.Commodity(strings.ToLower(strings.TrimSpace(c))))
			}
			form.Country = strings.ToUpper(form.Country)

			client, err := newAPIClient(opts)
			if err != nil {
				return err
			}
			s, err := client.Suppliers().Create(cmd.Context(), form)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return printJSON(out, s)
			}
			fmt.Fprintf(out, "supplier %s created (%s)\n", s.ID, s.Name)
			return nil
		},
	}
	createCmd.Flags().StringVarP(&form.Name, "name", "n", "", "Supplier name [required]")
	createCmd.Flags().StringVarP(&form.Country, "country", "c", "", "ISO 3166 alpha-2 country code [required]")
	createCmd.Flags().StringVar(&form.ContactName, "contact-name", "", "Contact name [required]")
	createCmd.Flags().StringVar(&form.ContactEmail, "contact-email", "", "Contact email [required]")
	createCmd.Flags().StringSliceVar(&commodities, "commodity", nil, "Commodity supplied (repeat or comma separate) [required]")

	suppliersCmd.AddCommand(listCmd, createCmd)
	return suppliersCmd
}

func joinCommodities(cs []schema.Commodity) string {
	s := make([]string, len(cs))
	for i, c := range cs {
		s[i] = string(c)
	}
	return strings.Join(s, ",")
}
