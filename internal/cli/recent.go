package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/nodeset-import/internal/config"
	"github.com/rcliao/nodeset-import/internal/importer"
)

func init() {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show recently imported files",
		Run:   runRecent,
	}

	cmd.Flags().Bool("clear", false, "Clear the history")

	RootCmd.AddCommand(cmd)
}

func runRecent(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	clearAll, _ := cmd.Flags().GetBool("clear")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	o := importer.New(ctx, config.Defaults(), s)
	defer o.Close()

	if clearAll {
		o.ClearRecent(ctx)
		fmt.Fprintln(cmd.OutOrStdout(), `{"ok":true}`)
		return
	}

	entries := o.Recent()
	if formatFlag == "text" {
		for _, e := range entries {
			fmt.Printf("%s\t%s\t%d bytes\t%s\n", e.ID, e.Name, e.Size, e.LoadedAt.Format("2006-01-02 15:04:05"))
		}
		return
	}
	printJSON(entries)
}
