package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/nodeset-import/internal/config"
	"github.com/rcliao/nodeset-import/internal/conflict"
	"github.com/rcliao/nodeset-import/internal/ctxlog"
	"github.com/rcliao/nodeset-import/internal/importer"
	"github.com/rcliao/nodeset-import/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import one batch of nodeset files",
		Long: "Import nodeset XML files as one batch. Files that declare required models " +
			"must be imported together with those models.",
		Args: cobra.MinimumNArgs(1),
		Run:  runImport,
	}

	cmd.Flags().StringP("strategy", "s", "", "Namespace conflict strategy: reject, rename, merge, warn-and-continue")
	cmd.Flags().Float64("max-size-mb", 0, "Maximum file size in MB (min 0.2)")
	cmd.Flags().String("formats", "", "Accepted extensions (comma-separated)")

	RootCmd.AddCommand(cmd)
}

// importOutput is the JSON document printed by import.
type importOutput struct {
	*importer.Result
	Notifications []model.Notification `json:"notifications"`
}

func runImport(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	log := ctxlog.FromContext(ctx)

	cfg, err := importConfig(cmd)
	if err != nil {
		exitErr("config", err)
	}

	files := make([]importer.Source, 0, len(args))
	for _, path := range args {
		src, err := importer.FromPath(path)
		if err != nil {
			exitErr("open file", err)
		}
		files = append(files, src)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	existing, err := s.ListNodesets(ctx)
	if err != nil {
		exitErr("list nodesets", err)
	}

	o := importer.New(ctx, cfg, s, importer.WithProgress(func(p importer.Progress) {
		log.Debug("progress", "file", p.FileName, "stage", p.Stage, "value", p.Value)
	}))
	defer o.Close()
	o.Seed(existing)

	res := o.Import(ctx, files)
	for _, f := range res.Accepted() {
		if err := s.SaveNodeset(ctx, *f.Metadata); err != nil {
			exitErr("save nodeset", err)
		}
	}

	if formatFlag == "text" {
		printImportText(cmd, res)
	} else {
		printJSON(importOutput{Result: res, Notifications: o.Notifications()})
	}
	if res.Aborted != nil {
		s.Close()
		exitErr("import aborted", res.Aborted)
	}
}

func importConfig(cmd *cobra.Command) (config.Options, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("strategy") {
		raw, _ := cmd.Flags().GetString("strategy")
		st, err := conflict.ParseStrategy(raw)
		if err != nil {
			return cfg, err
		}
		cfg.Strategy = st
	}
	if cmd.Flags().Changed("max-size-mb") {
		v, _ := cmd.Flags().GetFloat64("max-size-mb")
		cfg.MaxFileSizeMB = config.ClampMaxSizeMB(v)
	}
	if cmd.Flags().Changed("formats") {
		raw, _ := cmd.Flags().GetString("formats")
		cfg.AcceptedFormats = config.SplitFormats(raw)
	}
	return cfg, nil
}

func printImportText(cmd *cobra.Command, res *importer.Result) {
	out := cmd.OutOrStdout()
	for _, f := range res.Files {
		switch {
		case f.Metadata != nil:
			fmt.Fprintf(out, "%s\t%s\t%s\t%d nodes\n", f.Outcome, f.Name, f.Metadata.ID, f.Metadata.NodeCount)
			if f.Warning != nil {
				fmt.Fprintf(out, "\twarning: %s\n", f.Warning.Message)
			}
		case f.Err != nil:
			fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", f.Outcome, f.Name, f.Err.Code, f.Err.Message)
		}
	}
	fmt.Fprintf(out, "state: %s\n", res.State)
}
