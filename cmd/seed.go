package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lingoquest/lingoquest/internal/content"
)

var seedCmd = &cobra.Command{
	Use:   "seed [file.yaml]",
	Short: "Load questions, badges and gacha words",
	Long:  "Upserts a YAML seed file. Without a file the built-in starter content is loaded.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			seed *content.Seed
			err  error
		)
		if len(args) == 1 {
			seed, err = content.LoadFile(args[0])
		} else {
			seed, err = content.Default()
		}
		if err != nil {
			return err
		}
		if dry, _ := cmd.Flags().GetBool("check"); dry {
			fmt.Printf("OK: %d questions, %d badges, %d words\n", len(seed.Questions), len(seed.Badges), len(seed.Gacha))
			return nil
		}

		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		sum, err := content.Apply(cmd.Context(), e.st, seed)
		if err != nil {
			return err
		}
		fmt.Println("Seeded", sum)
		return nil
	},
}

var importVocabCmd = &cobra.Command{
	Use:   "import-vocab <file.xlsx|file.csv>",
	Short: "Import gacha words from a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		cfg := content.DefaultImportConfig()
		cfg.SheetName, _ = cmd.Flags().GetString("sheet")

		res, err := content.ImportVocab(cmd.Context(), e.st, args[0], cfg, e.log)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d of %d rows (%d skipped)\n", res.Imported, res.Processed, res.Skipped)
		for _, msg := range res.Errors {
			fmt.Println("  ", msg)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().Bool("check", false, "Validate the seed without writing it")
	importVocabCmd.Flags().String("sheet", "", "Worksheet to read (default: first sheet)")
}
