package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List loaded nodesets",
		Run:   runLs,
	}

	cmd.Flags().Bool("ids-only", false, "Only output ids")

	RootCmd.AddCommand(cmd)
}

func runLs(cmd *cobra.Command, args []string) {
	idsOnly, _ := cmd.Flags().GetBool("ids-only")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	metas, err := s.ListNodesets(cmd.Context())
	if err != nil {
		exitErr("list", err)
	}

	if idsOnly {
		for _, m := range metas {
			fmt.Println(m.ID)
		}
		return
	}
	if formatFlag == "text" {
		for _, m := range metas {
			fmt.Printf("%s\t%s\t%d nodes\t%s\n", m.ID, m.FileName, m.NodeCount, m.LoadedAt.Format("2006-01-02 15:04:05"))
			for _, ns := range m.Namespaces {
				fmt.Printf("\tns=%d\t%s\n", ns.Index, ns.URI)
			}
		}
		return
	}
	printJSON(metas)
}
