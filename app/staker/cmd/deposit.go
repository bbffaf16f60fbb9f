package cmd

import (
	"log"
	"math/big"

	"github.com/aayushmayush07/vault/foundation/vault/database"
	"github.com/spf13/cobra"
)

var (
	depositValue    string
	depositDuration uint64
)

var depositCmd = &cobra.Command{
	Use:   "deposit",
	Short: "Lock value in the vault for a duration",
	Run:   depositRun,
}

func init() {
	rootCmd.AddCommand(depositCmd)
	depositCmd.Flags().StringVarP(&depositValue, "value", "v", "0", "Value to lock in raw units.")
	depositCmd.Flags().Uint64VarP(&depositDuration, "duration", "d", 0, "Lock duration in seconds.")
}

func depositRun(cmd *cobra.Command, args []string) {
	value, ok := new(big.Int).SetString(depositValue, 10)
	if !ok {
		log.Fatalf("value %q is not a base 10 integer", depositValue)
	}

	submitOp(database.NewDepositOp(value, depositDuration))
}
