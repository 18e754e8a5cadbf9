package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewApprovalCmd создаёт группу команд для запросов подтверждения.
func NewApprovalCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approval",
		Short: "Manage approval requests",
	}

	cmd.AddCommand(
		newApprovalListCmd(clientFn, outputFn),
		newApprovalDecideCmd(clientFn, outputFn, true),
		newApprovalDecideCmd(clientFn, outputFn, false),
	)

	return cmd
}

func newApprovalListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending approval requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			approvals, err := client.ListApprovals()
			if err != nil {
				return err
			}

			headers := []string{"ID", "RUN_ID", "STAGE", "MESSAGE", "CREATED"}
			rows := make([][]string, len(approvals))
			for i, a := range approvals {
				rows[i] = []string{a.ID, a.RunID, a.StagePath, a.Message, a.CreatedAt}
			}

			out.Print(headers, rows, approvals)
			return nil
		},
	}
}

func newApprovalDecideCmd(clientFn func() *Client, outputFn func() *Output, approve bool) *cobra.Command {
	use, short := "approve ID", "Approve a pending request"
	if !approve {
		use, short = "reject ID", "Reject a pending request"
	}

	var by string
	var comment string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			err := client.ResolveApproval(args[0], ResolveApprovalRequest{
				Approved: approve,
				By:       by,
				Comment:  comment,
			})
			if err != nil {
				return err
			}

			verdict := "approved"
			if !approve {
				verdict = "rejected"
			}
			out.Success(fmt.Sprintf("Request %s %s by %s", args[0], verdict, by))
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", "", "Who makes the decision (required)")
	cmd.Flags().StringVar(&comment, "comment", "", "Optional comment")
	cmd.MarkFlagRequired("by")

	return cmd
}
