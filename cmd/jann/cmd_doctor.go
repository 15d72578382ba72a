package main

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Report the host environment jann runs in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := host.Info()
		if err != nil {
			return fmt.Errorf("could not read host info: %w", err)
		}
		fmt.Printf("host:       %s\n", info.Hostname)
		fmt.Printf("platform:   %s %s (%s)\n", info.Platform, info.PlatformVersion, info.KernelArch)

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		shell := cfg.Shell
		if shell == "" {
			shell = "/bin/sh"
		}
		fmt.Printf("shell:      %s\n", shell)

		if p, err := process.NewProcess(int32(os.Getppid())); err == nil {
			if name, err := p.Name(); err == nil {
				fmt.Printf("invoked by: %s\n", name)
			}
		}

		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}
		fmt.Printf("config dir: %s\n", configDir)
		if _, err := os.Stat(configDir); os.IsNotExist(err) {
			fmt.Println("            (not created yet — run `" + appName + " init --config`)")
		}

		if exe, err := os.Executable(); err == nil {
			fmt.Printf("executable: %s\n", exe)
		}
		fmt.Printf("dry-run:    %v\n", cfg.MostlyHarmless || os.Getenv(envDryRun) == "1")
		return nil
	},
}
