package cli

import (
	"github.com/spf13/cobra"
)

type statusResult struct {
	Status         string `json:"status"`
	APIPort        int    `json:"apiPort"`
	ProjectsFolder string `json:"projectsFolder"`
	ModelsFolder   string `json:"modelsFolder"`
	AIProvider     string `json:"aiProvider"`
}

func newStatusCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.OutOrStdout(), flags.jsonOutput)
			if err != nil {
				return err
			}
			defer rt.Close()

			cfg, err := rt.storage.ReadAppConfig(cmd.Context())
			if err != nil {
				return err
			}

			res := statusResult{
				Status:         "ok",
				APIPort:        cfg.APIPort,
				ProjectsFolder: cfg.ProjectsFolder,
				ModelsFolder:   cfg.ModelsFolder,
				AIProvider:     cfg.AI.Provider,
			}

			return rt.printer.Result(res, func() {
				rt.printer.Printf("status:           %s\n", res.Status)
				rt.printer.Printf("api port:         %d\n", res.APIPort)
				rt.printer.Printf("projects folder:  %s\n", res.ProjectsFolder)
				rt.printer.Printf("models folder:    %s\n", res.ModelsFolder)
				rt.printer.Printf("ai provider:      %s\n", res.AIProvider)
			})
		},
	}
}
