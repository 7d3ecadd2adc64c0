package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// watchlistCmd represents the watchlist command
var watchlistCmd = &cobra.Command{
	Use:   "watchlist",
	Short: "관심 종목 관리",
	Long: `정기 리포트 대상 종목을 관리합니다.

Subcommands:
  list    - 종목 목록
  add     - 종목 추가
  remove  - 종목 삭제

Example:
  go run ./cmd/signal watchlist list
  go run ./cmd/signal watchlist add AAPL 005930
  go run ./cmd/signal watchlist remove TSLA`,
}

var (
	watchlistListCmd = &cobra.Command{
		Use:   "list",
		Short: "종목 목록",
		Args:  cobra.NoArgs,
		RunE:  listWatchlist,
	}

	watchlistAddCmd = &cobra.Command{
		Use:   "add [symbols...]",
		Short: "종목 추가",
		Args:  cobra.MinimumNArgs(1),
		RunE:  addWatchlist,
	}

	watchlistRemoveCmd = &cobra.Command{
		Use:   "remove [symbols...]",
		Short: "종목 삭제",
		Args:  cobra.MinimumNArgs(1),
		RunE:  removeWatchlist,
	}
)

func init() {
	rootCmd.AddCommand(watchlistCmd)
	watchlistCmd.AddCommand(watchlistListCmd)
	watchlistCmd.AddCommand(watchlistAddCmd)
	watchlistCmd.AddCommand(watchlistRemoveCmd)
}

func listWatchlist(cmd *cobra.Command, args []string) error {
	a, err := appFromFlags(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	symbols, err := a.watchlist.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("read watchlist: %w", err)
	}

	fmt.Printf("Watchlist (%d):\n", len(symbols))
	for _, s := range symbols {
		fmt.Printf("  - %s\n", s)
	}
	return nil
}

func addWatchlist(cmd *cobra.Command, args []string) error {
	a, err := appFromFlags(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, s := range args {
		added, err := a.watchlist.Add(cmd.Context(), s)
		if err != nil {
			return fmt.Errorf("add %s: %w", s, err)
		}
		if added {
			fmt.Printf("✅ added %s\n", s)
		} else {
			fmt.Printf("   %s already in watchlist\n", s)
		}
	}
	return nil
}

func removeWatchlist(cmd *cobra.Command, args []string) error {
	a, err := appFromFlags(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, s := range args {
		removed, err := a.watchlist.Remove(cmd.Context(), s)
		if err != nil {
			return fmt.Errorf("remove %s: %w", s, err)
		}
		if removed {
			fmt.Printf("🗑  removed %s\n", s)
		} else {
			fmt.Printf("   %s not in watchlist\n", s)
		}
	}
	return nil
}
