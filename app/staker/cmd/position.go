package cmd

import (
	"github.com/aayushmayush07/vault/foundation/vault/database"
	"github.com/spf13/cobra"
)

var positionID uint64

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw a matured position",
	Run: func(cmd *cobra.Command, args []string) {
		submitOp(database.NewPositionOp(database.OpWithdraw, positionID))
	},
}

var ragequitCmd = &cobra.Command{
	Use:   "ragequit",
	Short: "Exit a position early and forfeit the penalty",
	Run: func(cmd *cobra.Command, args []string) {
		submitOp(database.NewPositionOp(database.OpRagequit, positionID))
	},
}

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Collect the accrued reward on a position",
	Run: func(cmd *cobra.Command, args []string) {
		submitOp(database.NewPositionOp(database.OpHarvest, positionID))
	},
}

func init() {
	for _, c := range []*cobra.Command{withdrawCmd, ragequitCmd, harvestCmd} {
		rootCmd.AddCommand(c)
		c.Flags().Uint64VarP(&positionID, "id", "i", 0, "Position id.")
	}
}
