package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omnicli/omni/pkg/toolstep/askpass"
)

// NewAskpassCommand implements the hidden `askpass client <sockpath>
// <prompt>` re-entry point a tool step's SSH_ASKPASS/GIT_ASKPASS shim
// invokes: it asks the long-lived listener started for this `up` run for
// the answer and prints it to stdout, the shape ssh/git expect from an
// askpass program. The request goes over the listener's own Unix socket
// at <sockpath>.
func NewAskpassCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "askpass",
		Hidden: true,
	}
	client := &cobra.Command{
		Use:    "client <sockpath> <prompt>",
		Args:   cobra.ExactArgs(2),
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			answer, err := askpass.RequestAnswer(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Println(answer)
			return nil
		},
	}
	cmd.AddCommand(client)
	return cmd
}
