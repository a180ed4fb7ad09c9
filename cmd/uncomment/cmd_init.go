package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Goldziher/uncomment/internal/initgen"
	"github.com/Goldziher/uncomment/internal/language"
)

var (
	initComprehensive bool
	initInteractive   bool
	initOutput        string
	initForce         bool
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Generate a scaffold configuration for a project",
	Long: `init scans the project tree for language signatures and writes an
uncomment.yaml covering the languages it finds. With --comprehensive the
scaffold covers every supported language instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		return initgen.Generate(initgen.Options{
			Root:          root,
			Output:        initOutput,
			Comprehensive: initComprehensive,
			Interactive:   initInteractive,
			Force:         initForce,
		}, language.NewRegistry(), os.Stdout, os.Stdin)
	},
}

func init() {
	f := initCmd.Flags()
	f.BoolVar(&initComprehensive, "comprehensive", false, "cover every supported language, not just those observed")
	f.BoolVar(&initInteractive, "interactive", false, "prompt for choices")
	f.StringVar(&initOutput, "output", "", "output path (default: <dir>/uncomment.yaml)")
	f.BoolVar(&initForce, "force", false, "overwrite an existing configuration")
}
