package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const initJannfileHeader = `// ` + appName + ` deploy file
// ─────────────────────────────────────────────────────────────────────────────
// Blocks group shell commands and copy operations; pipelines sequence them.
// Run with:  ` + appName + ` Jannfile
// Select:    ` + appName + ` Jannfile --execute <pipeline>
// ─────────────────────────────────────────────────────────────────────────────

`

const initJannfileBody = `greeting = "hello from ` + appName + `"

hello {
    $ echo {{greeting}}
}

// Copy dotfiles into place:
//
// dotfiles {
//     bashrc >> "~/.bashrc"
// }

main | hello
`

const initConfigYAML = `# ` + appName + ` configuration
# shell: /bin/bash
# mostly_harmless: true
# deploy:
#   file_over_file: true
#   dir_over_dir: true
#   dir_over_file: false
#   file_over_dir: true
#   intermediate: true
`

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Scaffold a starter Jannfile",
	Long: "Create a starter Jannfile in the target directory (default: the\n" +
		"current directory) and, with --config, an annotated config.yml in the\n" +
		"config directory.\n\n" +
		"The config directory follows the same priority as the main command:\n" +
		"  $JANN_CONFIG_DIR > $XDG_CONFIG_HOME/" + appName + " > ~/.config/" + appName,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		withConfig, _ := cmd.Flags().GetBool("config")

		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}

		jannfile := filepath.Join(dir, "Jannfile")
		if err := writeInitFile(jannfile, initJannfileHeader, []byte(initJannfileBody), force); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "initialised %s\n", jannfile)

		if withConfig {
			configDir, err := resolveConfigDir()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(configDir, 0o755); err != nil {
				return fmt.Errorf("creating directory %s: %w", configDir, err)
			}
			configFile := filepath.Join(configDir, "config.yml")
			if err := writeInitFile(configFile, "", []byte(initConfigYAML), force); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "  %s\n", configFile)
		}

		fmt.Fprintf(os.Stderr, "\nRun `%s %s` to execute it.\n", appName, jannfile)
		return nil
	},
}

func writeInitFile(path, header string, content []byte, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if header != "" {
		fmt.Fprint(f, header)
	}
	_, err = f.Write(content)
	return err
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite existing files")
	initCmd.Flags().Bool("config", false, "also write an annotated config.yml")
}
