package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/eudr-dashboard/internal/schema"
)

func newSAQCmd(opts *rootOptions) *cobra.Command {
	saqCmd := &cobra.Command{
		Use:   "saq",
		Short: "Send supplier self-assessment questionnaires and submit answers",
	}

	templatesCmd := &cobra.Command{
		Use:   "templates",
		Short: "List questionnaire templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient(opts)
			if err != nil {
				return err
			}
			templates, err := client.SAQs().Templates(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return printJSON(out, templates)
			}
			tw := newTable(out, "ID", "TITLE", "COMMODITY", "QUESTIONS")
			for _, t := range templates {
				row(tw, t.ID, t.Title, t.Commodity, len(t.Questions))
			}
			return tw.Flush()
		},
	}

	var (
		templateID string
		supplierID string
		due        string
		message    string
	)
	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Send a questionnaire to a supplier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := schema.NewSAQRequest{Message: message}

			var err error
			if req.TemplateID, err = uuid.Parse(templateID); err != nil {
				return fmt.Errorf("invalid template id: %w", err)
			}
			if req.SupplierID, err = uuid.Parse(supplierID); err != nil {
				return fmt.Errorf("invalid supplier id: %w", err)
			}
			if req.DueDate, err = time.Parse(time.DateOnly, due); err != nil {
				return fmt.Errorf("invalid due date (expected YYYY-MM-DD): %w", err)
			}

			client, err := newAPIClient(opts)
			if err != nil {
				return err
			}
			sent, err := client.SAQs().Send(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return printJSON(out, sent)
			}
			fmt.Fprintf(out, "questionnaire %s sent, due %s\n", sent.ID, sent.DueDate.Format(time.DateOnly))
			return nil
		},
	}
	sendCmd.Flags().StringVarP(&templateID, "template", "t", "", "Template id [required]")
	sendCmd.Flags().StringVarP(&supplierID, "supplier", "s", "", "Supplier id [required]")
	sendCmd.Flags().StringVarP(&due, "due", "d", "", "Due date YYYY-MM-DD [required]")
	sendCmd.Flags().StringVarP(&message, "message", "m", "", "Message to the supplier")
	_ = sendCmd.MarkFlagRequired("template")
	_ = sendCmd.MarkFlagRequired("supplier")
	_ = sendCmd.MarkFlagRequired("due")

	var answers map[string]string
	submitCmd := &cobra.Command{
		Use:   "submit <request-id>",
		Short: "Submit answers to a questionnaire",
		Long: `Submit the answers to a questionnaire (--answer question-id=value, repeated).
The answers are checked against the questionnaire template before they are sent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid request id: %w", err)
			}

			client, err := newAPIClient(opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			req, err := client.SAQs().Get(ctx, id)
			if err != nil {
				return err
			}
			templates, err := client.SAQs().Templates(ctx)
			if err != nil {
				return err
			}
			var tmpl *schema.SAQTemplate
			for i := range templates {
				if templates[i].ID == req.TemplateID {
					tmpl = &templates[i]
					break
				}
			}
			if tmpl == nil {
				opts.logger.Warn("questionnaire template not found - answers are not checked before sending",
					"template_id", req.TemplateID.String())
			}

			submitted, err := client.SAQs().Submit(ctx, id, tmpl, schema.SAQSubmission{Answers: answers})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return printJSON(out, submitted)
			}
			fmt.Fprintf(out, "questionnaire %s %s\n", submitted.ID, submitted.Status)
			return nil
		},
	}
	submitCmd.Flags().StringToStringVarP(&answers, "answer", "a", nil, "Answer as question-id=value (repeat for each question)")

	saqCmd.AddCommand(templatesCmd, sendCmd, submitCmd)
	return saqCmd
}
