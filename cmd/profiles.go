package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arcanaland/cardpress/internal/config"
	"github.com/arcanaland/cardpress/internal/layout"
	"github.com/arcanaland/cardpress/internal/paper"
)

// profilesCmd represents the profiles command group
var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List paper profiles and choose the default",
	Long:  `Commands for the paper profiles cards are laid out on.`,
}

// profilesListCmd represents the profiles ls command
var profilesListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List available paper profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		def, _ := paper.Resolve(cfg.DefaultPaper)

		for _, p := range paper.Profiles() {
			mx, my := layout.Margins(p)
			line := fmt.Sprintf("%-7s %-10s %gx%g mm, %dx%d cards of %gx%g mm, margins %gx%g mm",
				p.ID, p.Name, p.PageWidth, p.PageHeight, p.Cols, p.Rows, p.CardWidth, p.CardHeight, mx, my)
			if p.ID == def.ID {
				fmt.Printf("* %s [DEFAULT]\n", line)
			} else {
				fmt.Printf("  %s\n", line)
			}
		}
		return nil
	},
}

// profilesSetDefaultCmd represents the profiles set-default command
var profilesSetDefaultCmd = &cobra.Command{
	Use:   "set-default [profile]",
	Short: "Set the default paper profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := paper.Lookup(args[0])
		if err != nil {
			var ids []string
			for _, p := range paper.Profiles() {
				ids = append(ids, p.ID)
			}
			return fmt.Errorf("%w (known: %s)", err, strings.Join(ids, ", "))
		}

		if err := config.SetDefaultPaper(configPath(), p.ID); err != nil {
			return fmt.Errorf("error setting default paper: %w", err)
		}

		fmt.Printf("Default paper set to: %s (%s)\n", p.ID, p.Name)
		return nil
	},
}

// profilesInitCmd represents the profiles init command
var profilesInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, path, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Println("Config file initialized at:", path)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(profilesCmd)
	profilesCmd.AddCommand(profilesListCmd)
	profilesCmd.AddCommand(profilesSetDefaultCmd)
	profilesCmd.AddCommand(profilesInitCmd)
}
