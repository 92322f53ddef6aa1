package cmd

import (
	"fmt"

	"ap-comic-press/pkg/domain"

	"github.com/spf13/cobra"
)

// stylesCmd は、選択可能なアートスタイルの一覧を表示するのだ。
var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "選択可能なアートスタイルの一覧を表示するのだ。",
	RunE:  stylesCommand,
}

func stylesCommand(cmd *cobra.Command, args []string) error {
	for _, style := range domain.Styles() {
		fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s\n", style.ID, style.Name)
	}
	return nil
}
