package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"kiosk-controller/pkg/cache"
	"kiosk-controller/pkg/output"
)

var cacheFormat string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the remembered candidate IP cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached candidate IPs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := cache.New(cfg.CacheFile)
		entries, err := store.Load()
		if err != nil {
			return err
		}
		return output.PrintCacheEntries(entries, cacheFormat)
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the candidate IP cache file",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := cache.New(cfg.CacheFile)
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Println("cache cleared")
		return nil
	},
}

func init() {
	cacheListCmd.Flags().StringVar(&cacheFormat, "format", "table", "output format: table, json, csv")
	cacheCmd.AddCommand(cacheListCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
