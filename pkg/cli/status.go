package cli

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/omnicli/omni/pkg/console"
	"github.com/omnicli/omni/pkg/stringutil"
)

// statusVersionColWidth keeps a pathological version string (some tool
// steps resolve to a full commit SHA plus build metadata) from blowing
// out the table's column alignment.
const statusVersionColWidth = 40

// NewStatusCommand implements `status`: report the current workdir's
// applied EnvVersion and the tool installs it references, per spec.md
// §3's cache-store model.
func NewStatusCommand() *cobra.Command {
	var asJSON bool

	c := &cobra.Command{
		Use:   "status",
		Short: "Show the environment currently applied to this workdir",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Store.Close()
			if err := a.requireWorkdir(); err != nil {
				return err
			}

			ev, err := a.Store.CurrentEnvVersion(a.WorkdirID)
			if err != nil {
				return err
			}
			if ev == nil {
				return console.OutputStructOrJSON(statusReport{WorkdirID: a.WorkdirID}, asJSON)
			}

			installs, err := a.Store.ListToolInstallsForWorkdir(a.WorkdirID)
			if err != nil {
				return err
			}

			tools := make([]string, 0, len(ev.Versions))
			for tool := range ev.Versions {
				tools = append(tools, tool)
			}
			sort.Strings(tools)

			report := statusReport{
				WorkdirID:  a.WorkdirID,
				EnvVersion: ev.ID,
				Tools:      make([]toolStatus, 0, len(tools)),
			}
			for _, tool := range tools {
				report.Tools = append(report.Tools, toolStatus{
					Tool:    tool,
					Version: ev.Versions[tool],
				})
			}
			for _, ti := range installs {
				report.InstallCount++
				_ = ti
			}

			if asJSON {
				return console.OutputStructOrJSON(report, true)
			}
			rows := make([][]string, 0, len(report.Tools))
			for _, t := range report.Tools {
				rows = append(rows, []string{t.Tool, stringutil.Truncate(t.Version, statusVersionColWidth)})
			}
			console.RenderTable(console.TableConfig{
				Title:   "omni status: " + a.WorkdirID,
				Headers: []string{"Tool", "Version"},
				Rows:    rows,
			})
			return nil
		},
	}
	c.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return c
}

type statusReport struct {
	WorkdirID    string       `json:"workdir_id" console:"header:Workdir"`
	EnvVersion   string       `json:"env_version,omitempty" console:"header:EnvVersion"`
	Tools        []toolStatus `json:"tools,omitempty" console:"-"`
	InstallCount int          `json:"install_count,omitempty" console:"-"`
}

type toolStatus struct {
	Tool    string `json:"tool" console:"header:Tool"`
	Version string `json:"version" console:"header:Version"`
}
