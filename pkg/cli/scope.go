package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewScopeCommand implements `scope`: print the organization/repository
// this workdir resolves to, the (organization, repository) pair spec.md
// §4.5's Prompts data model scopes per-prompt answers by.
func NewScopeCommand() *cobra.Command {
	var asJSON bool

	c := &cobra.Command{
		Use:   "scope",
		Short: "Print the organization/repository scope for this workdir",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Store.Close()
			if err := a.requireWorkdir(); err != nil {
				return err
			}

			host, org, repo, isRemote := parseWorkdirScope(a.WorkdirID)
			if asJSON {
				fmt.Printf("{\"workdir_id\":%q,\"host\":%q,\"organization\":%q,\"repository\":%q}\n",
					a.WorkdirID, host, org, repo)
				return nil
			}
			if !isRemote {
				fmt.Printf("local workdir (no origin remote): %s\n", a.WorkdirID)
				return nil
			}
			fmt.Printf("%s/%s/%s\n", host, org, repo)
			return nil
		},
	}
	c.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return c
}

// parseWorkdirScope splits a WorkdirID of the form "<host>:<owner>/<repo>"
// (spec.md §4.2's Id operation) into its host/organization/repository
// parts. A sentinel UUID WorkdirID (no origin remote) has isRemote=false.
func parseWorkdirScope(workdirID string) (host, org, repo string, isRemote bool) {
	idx := strings.Index(workdirID, ":")
	if idx < 0 {
		return "", "", "", false
	}
	host = workdirID[:idx]
	path := workdirID[idx+1:]
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 {
		return host, "", path, true
	}
	return host, parts[0], parts[1], true
}
